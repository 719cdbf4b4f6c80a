// Package engine is the command-execution core of KeyMesh.
//
// A Server owns the logical databases, the ACL table, the runtime
// configuration, the pub/sub hub, the blocking coordinator and the
// connected-session table. Transports hand parsed requests to Execute,
// which runs the full pipeline: command lookup, arity check, argument
// binding, authentication, ACL enforcement, transaction queueing and
// finally the handler.
//
// Concurrency model: one goroutine per connection, serialized through
// the server's command mutex. Every command runs to completion under
// the lock, which is what gives single-command and MULTI/EXEC
// atomicity; only blocking commands release it, parking a waiter with
// the coordinator and sleeping in their own goroutine until a mutation,
// a timeout or a forced unblock wakes them.
package engine
