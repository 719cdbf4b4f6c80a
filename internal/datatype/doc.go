// Package datatype implements the typed value model for KeyMesh.
//
// A stored value is one of six kinds: String, List, Hash, Set, SortedSet
// or Stream. Each kind is a concrete type satisfying Value and exposing
// the operator set its commands need. Operators work on the value alone;
// keyspace concerns (expiry, versions, empty-container deletion) belong
// to the keyspace package, and wire concerns to the engine.
//
// Invariants maintained here:
//
//   - A String remembers whether its payload currently encodes a signed
//     64-bit integer, so counters avoid reparsing.
//   - A SortedSet keeps every member exactly once in both the hash view
//     and the ordered (score, member) view.
//   - Stream entry IDs are strictly increasing; consumer groups track
//     pending entries per (group, consumer).
package datatype
