// Package glob provides Valkey-style glob pattern matching for KeyMesh.
//
// The dialect is the one used by KEYS, SCAN MATCH, ACL key patterns and
// pub/sub pattern subscriptions:
//
//   - `*` matches any sequence of bytes (including the empty one)
//   - `?` matches exactly one byte
//   - `[abc]`, `[a-z]` and `[^abc]` match byte classes
//   - `\x` escapes the following byte
//
// Matching operates on raw bytes, never on runes; keys and channels are
// binary-safe byte strings.
package glob
