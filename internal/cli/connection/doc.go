// Package connection manages named Client connections for aredis-cli.
//
//   - manager.go: named-connection registry and current-connection tracking
//
// Each registered Connection owns one internal/client.Client, dialed over
// TCP or a Unix socket; TLS is configured via internal/tlsroots.
package connection
