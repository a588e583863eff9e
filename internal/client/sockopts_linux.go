//go:build linux

package client

import (
	"net"
	"syscall"
)

// applyPlatformSocketOptions applies the socket options that have no
// exported net.TCPConn method: TCP_USER_TIMEOUT, close-on-exec, and
// SO_REUSEADDR.
func applyPlatformSocketOptions(tc *net.TCPConn, cfg Config) {
	raw, err := tc.SyscallConn()
	if err != nil {
		return
	}

	_ = raw.Control(func(fd uintptr) {
		if cfg.TCPUserTimeout > 0 {
			ms := int(cfg.TCPUserTimeout.Milliseconds())
			_ = syscall.SetsockoptInt(int(fd), syscall.IPPROTO_TCP, tcpUserTimeout, ms)
		}
		if cfg.CloseOnExec {
			_, _, _ = syscall.Syscall(syscall.SYS_FCNTL, fd, syscall.F_SETFD, syscall.FD_CLOEXEC)
		}
		if cfg.ReuseAddr {
			_ = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
		}
	})
}

// tcpUserTimeout is syscall.TCP_USER_TIMEOUT, defined locally because it is
// missing from some older syscall package builds.
const tcpUserTimeout = 0x12
