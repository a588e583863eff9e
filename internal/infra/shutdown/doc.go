// Package shutdown provides graceful process shutdown: signal handling and
// cleanup callback registration. Callbacks run in reverse registration order
// with a context whose deadline is the shutdown timeout; a callback that
// ignores the context is not interrupted.
package shutdown
