// Package command holds the static command registry and the argument
// grammar for KeyMesh.
//
// Every command is described by a Spec record: canonical name, arity
// rule, flag set, ACL categories and a key-position rule (first/last/
// step or a movable-keys callback). The table is declarative data; the
// engine attaches handlers by name at start-up, and a handler without a
// Spec is a programming error caught then. A Spec without a handler is
// not checked at start-up; calling it gets the unknown-command reply.
//
// Argument binding is a small combinator DSL: positional slots with a
// type, token options with sub-arguments, mutually exclusive groups and
// repeating trailing groups. Binding failures surface as ErrSyntax and
// become the wire "syntax error" reply.
package command
