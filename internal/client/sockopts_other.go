//go:build !linux

package client

import "net"

// applyPlatformSocketOptions is a no-op outside Linux: TCP_USER_TIMEOUT has
// no portable equivalent, and close-on-exec/SO_REUSEADDR are already the
// default (or inapplicable) on the other platforms this module targets.
func applyPlatformSocketOptions(tc *net.TCPConn, cfg Config) {}
