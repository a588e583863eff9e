// Package fakeredis is a minimal, in-memory RESP2 server used to exercise
// internal/client against real wire traffic instead of hand-written byte
// frames. It understands a small, fixed command set (string values with
// optional expiry, plus PUBLISH/SUBSCRIBE) and nothing more.
package fakeredis
