// Package blocking coordinates parked sessions for the blocking
// commands (BLPOP family, BLMOVE, BLMPOP, XREAD/XREADGROUP with BLOCK).
//
// A blocked session registers a Waiter naming the keys it waits on and
// a Try callback that performs the equivalent non-blocking operation.
// When the engine mutates a key with waiters it notifies the
// coordinator, which satisfies the oldest compatible waiter by running
// its Try under the engine lock and handing the reply over the waiter's
// channel. Timeouts deliver a deterministic null; CLIENT UNBLOCK,
// CLIENT KILL and shutdown deliver the UNBLOCKED error; disconnects
// just remove the waiter.
//
// Every coordinator method must be called with the engine lock held.
// Only the session's own goroutine blocks, in its select over the ready
// channel and its timer.
package blocking
