// Package cmap provides a concurrent map implementation for KeyMesh.
//
// This package implements a sharded concurrent map used for the server's
// connection table and the pub/sub subscriber registries, with the
// following features:
//
//   - Sharding: Configurable shard count for parallelism
//   - Fine-grained Locking: Per-shard RWMutex for minimal contention
//   - Iteration: Safe iteration while holding per-shard read locks
//
// Usage:
//
//	m := cmap.New[int64, *Client]()
//	m.Set(id, client)
//	val, ok := m.Get(id)
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Has) use RLock,
// write operations (Set, Delete) use Lock.
package cmap
