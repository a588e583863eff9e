// Package tlsroots provides TLS certificate management for client connections.
//
//   - roots.go: system certificates + custom CA loading
//   - watcher.go: client-certificate hot-reload via fsnotify
package tlsroots
