// Package cmap provides a sharded concurrent map.
//
// It is used to register multiple named, independently connected Clients
// (one per saved connection) under the demonstration CLI without a single
// lock serializing lookups across all of them.
//
// Usage:
//
//	m := cmap.New[string, *client.Client]()
//	m.Set("staging", c)
//	val, ok := m.Get("staging")
//
// All operations are thread-safe: Get/Has take a per-shard RLock, Set/Delete
// take a per-shard Lock.
package cmap
