// Package keyspace implements the logical databases of KeyMesh.
//
// A Database maps key names to typed values and keeps two side indexes:
// the expiry index (absolute millisecond deadlines; an entry exists iff
// the key exists and has a TTL) and the per-key modification versions
// that back WATCH. Expiry is lazy on access, with an optional sampling
// sweep driven by the engine.
//
// The package performs no locking of its own: the engine serializes all
// access under its command lock, which is what makes single-command and
// MULTI/EXEC atomicity hold.
package keyspace
