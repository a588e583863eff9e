// Package buildinfo exposes build-time version information injected via
// ldflags: Version, Commit, BuildTime, and GoVersion.
package buildinfo
