// Package client implements an asynchronous Redis client for single-threaded
// cooperative event loops.
//
// A Client multiplexes many in-flight commands over one TCP or Unix-domain
// connection. Exactly one goroutine — the read loop — decodes replies for a
// given Client. Continuations run on the read loop for replies, and on the
// waiting-timeout timer or the calling goroutine for local failures (write
// errors, cancellation, disconnect, close). All methods serialize through an
// internal mutex that is never held while user code runs, so continuations
// may safely re-enter the client (submit new commands, cancel, disconnect,
// or close it).
//
// @req RQ-0303
package client
