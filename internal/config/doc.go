// Package config watches configuration files on disk for changes, so a
// long-lived process (the REPL, an embedding daemon) can notice an external
// edit instead of only reading it at startup.
package config
