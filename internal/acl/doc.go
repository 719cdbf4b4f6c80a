// Package acl implements the access-control model for KeyMesh.
//
// Each user carries an ordered list of command rules (+cmd, -cmd, +@cat,
// -@cat), key patterns (~glob, with optional %R/%W/%RW access modes) and
// channel patterns (&glob). Command rules evaluate in order with the
// last matching rule winning, starting from an implicit -@all. Key and
// channel access is allowed when any pattern admits the name.
//
// Passwords are stored as lowercase hex SHA-256 digests; a user may
// instead be marked nopass. The default user starts enabled with nopass,
// all keys, all channels and all commands, which is what makes a fresh
// server open until requirepass or ACL rules say otherwise.
package acl
