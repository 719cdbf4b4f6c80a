package blocking

import (
	"github.com/yndnr/keymesh-go/internal/resp"
)

// Outcome is what a parked session receives when it wakes.
type Outcome struct {
	// Reply is the command result when Satisfied.
	Reply resp.Value
	// Unblocked marks a forced CLIENT UNBLOCK ERROR / KILL / shutdown
	// wake; the session replies with the UNBLOCKED error.
	Unblocked bool
	// TimedOut marks a CLIENT UNBLOCK TIMEOUT wake; the session
	// replies as if its own timer fired.
	TimedOut bool
}

// Waiter is one parked session.
type Waiter struct {
	SessionID int64
	DB        int
	Keys      []string

	// Try runs the non-blocking equivalent for one ready key. It is
	// invoked under the engine lock; returning false means the key had
	// nothing for this waiter after all and the next waiter is tried.
	Try func(key string) (resp.Value, bool)

	// Ready receives exactly one outcome. Buffered so the notifier
	// never blocks.
	Ready chan Outcome

	seq  uint64
	done bool
}

// NewWaiter builds a waiter for the given session and keys.
func NewWaiter(sessionID int64, db int, keys []string, try func(key string) (resp.Value, bool)) *Waiter {
	return &Waiter{
		SessionID: sessionID,
		DB:        db,
		Keys:      keys,
		Try:       try,
		Ready:     make(chan Outcome, 1),
	}
}

type dbKey struct {
	db  int
	key string
}

// Coordinator is the waiter index. All methods require the engine lock.
type Coordinator struct {
	byKey     map[dbKey][]*Waiter
	bySession map[int64][]*Waiter
	nextSeq   uint64

	// notifying guards against re-entry: satisfying a waiter mutates
	// the key again, which calls Notify from inside Notify. Those
	// nested notifications are queued and drained by the outer call.
	notifying bool
	deferred  []dbKey
}

// NewCoordinator creates an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		byKey:     make(map[dbKey][]*Waiter),
		bySession: make(map[int64][]*Waiter),
	}
}

// Park registers a waiter on all of its keys. Registration order is
// the tiebreak when several waiters race for one pushed element: the
// earliest parked waiter wins.
func (c *Coordinator) Park(w *Waiter) {
	c.nextSeq++
	w.seq = c.nextSeq
	for _, key := range w.Keys {
		k := dbKey{w.DB, key}
		c.byKey[k] = append(c.byKey[k], w)
	}
	c.bySession[w.SessionID] = append(c.bySession[w.SessionID], w)
}

// Remove unregisters a waiter, as on timeout or disconnect. It reports
// whether the waiter was still parked (false when already satisfied).
func (c *Coordinator) Remove(w *Waiter) bool {
	if w.done {
		return false
	}
	c.detach(w)
	return true
}

func (c *Coordinator) detach(w *Waiter) {
	w.done = true
	for _, key := range w.Keys {
		k := dbKey{w.DB, key}
		list := c.byKey[k]
		for i, x := range list {
			if x == w {
				c.byKey[k] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(c.byKey[k]) == 0 {
			delete(c.byKey, k)
		}
	}
	list := c.bySession[w.SessionID]
	for i, x := range list {
		if x == w {
			c.bySession[w.SessionID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(c.bySession[w.SessionID]) == 0 {
		delete(c.bySession, w.SessionID)
	}
}

// Notify wakes waiters after key was mutated. It keeps satisfying the
// oldest parked waiter until one declines, so a push of N elements can
// wake up to N waiters while preserving arrival order. Notifications
// raised while a waiter is being satisfied are queued and drained
// before returning.
func (c *Coordinator) Notify(db int, key string) {
	k := dbKey{db, key}
	if c.notifying {
		c.deferred = append(c.deferred, k)
		return
	}
	c.notifying = true
	defer func() { c.notifying = false }()

	c.notifyKey(k)
	for len(c.deferred) > 0 {
		next := c.deferred[0]
		c.deferred = c.deferred[1:]
		c.notifyKey(next)
	}
}

func (c *Coordinator) notifyKey(k dbKey) {
	for {
		list := c.byKey[k]
		if len(list) == 0 {
			return
		}
		oldest := list[0]
		for _, w := range list[1:] {
			if w.seq < oldest.seq {
				oldest = w
			}
		}
		reply, ok := oldest.Try(k.key)
		if !ok {
			return
		}
		c.detach(oldest)
		oldest.Ready <- Outcome{Reply: reply}
	}
}

// BlockedCount returns the number of sessions with a parked waiter.
func (c *Coordinator) BlockedCount() int {
	return len(c.bySession)
}

// IsBlocked reports whether the session has a parked waiter.
func (c *Coordinator) IsBlocked(sessionID int64) bool {
	return len(c.bySession[sessionID]) > 0
}

// Unblock forcibly wakes a session's waiters. withError selects the
// UNBLOCKED error outcome over the timeout one. It reports whether any
// waiter was woken.
func (c *Coordinator) Unblock(sessionID int64, withError bool) bool {
	list := c.bySession[sessionID]
	if len(list) == 0 {
		return false
	}
	for _, w := range append([]*Waiter(nil), list...) {
		c.detach(w)
		w.Ready <- Outcome{Unblocked: withError, TimedOut: !withError}
	}
	return true
}

// DropSession removes a disconnected session's waiters without sending
// any outcome; nobody is left to read it.
func (c *Coordinator) DropSession(sessionID int64) {
	for _, w := range append([]*Waiter(nil), c.bySession[sessionID]...) {
		c.detach(w)
	}
}

// UnblockAll wakes every waiter, used at shutdown.
func (c *Coordinator) UnblockAll() {
	for id := range c.bySession {
		c.Unblock(id, true)
	}
}
