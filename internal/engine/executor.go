package engine

import (
	"strings"
	"time"

	"github.com/yndnr/keymesh-go/internal/blocking"
	"github.com/yndnr/keymesh-go/internal/command"
	"github.com/yndnr/keymesh-go/internal/resp"
)

// callCtx is the per-invocation handler context.
type callCtx struct {
	srv  *Server
	sess *Session
	spec *command.Spec
	raw  [][]byte // full vector including the command name
	args *command.Args

	// inMulti marks execution from inside EXEC: blocking commands run
	// their non-blocking path.
	inMulti bool

	// park, when set by a blocking handler, suspends the session after
	// the lock is released.
	park *parkRequest
}

type parkRequest struct {
	waiter  *blocking.Waiter
	timeout time.Duration // zero means forever
	// onTimeout builds the timeout reply (null array for BLPOP, nil
	// array for XREAD).
	onTimeout resp.Value
}

type handlerFunc func(c *callCtx) resp.Value

// register binds a handler to a table spec; a missing spec is a
// programming error caught at start-up.
func (s *Server) register(name string, fn handlerFunc) {
	if _, ok := s.registry.Lookup(name); !ok {
		panic("engine: handler for unregistered command " + name)
	}
	s.handlers[name] = fn
}

// Execute runs one request for a session: the full pipeline under the
// command lock, then any blocking wait outside it.
func (s *Server) Execute(sess *Session, raw [][]byte) {
	s.mu.Lock()
	reply, park := s.dispatch(sess, raw, false)
	if park == nil {
		sess.sendReply(reply)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	outcome := s.waitPark(sess, park)
	s.mu.Lock()
	sess.waiter = nil
	if s.metrics != nil {
		s.metrics.BlockedClients.Dec()
	}
	sess.sendReply(outcome)
	s.mu.Unlock()
}

// waitPark sleeps on the waiter until satisfaction, timeout or forced
// unblock. The engine lock is not held.
func (s *Server) waitPark(sess *Session, park *parkRequest) resp.Value {
	var timer *time.Timer
	var timeout <-chan time.Time
	if park.timeout > 0 {
		timer = time.NewTimer(park.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case out := <-park.waiter.Ready:
		switch {
		case out.Unblocked:
			return errUnblocked
		case out.TimedOut:
			return park.onTimeout
		}
		return out.Reply
	case <-sess.conn.Done():
		s.mu.Lock()
		s.coord.Remove(park.waiter)
		s.mu.Unlock()
		return suppressedReply
	case <-timeout:
		s.mu.Lock()
		stillParked := s.coord.Remove(park.waiter)
		s.mu.Unlock()
		if !stillParked {
			// A notifier satisfied the waiter while the timer fired;
			// the outcome is already in the channel.
			out := <-park.waiter.Ready
			if out.Unblocked {
				return errUnblocked
			}
			if out.TimedOut {
				return park.onTimeout
			}
			return out.Reply
		}
		return park.onTimeout
	}
}

// dispatch runs the pipeline under the engine lock and returns the
// reply, or a park request for blocking commands.
func (s *Server) dispatch(sess *Session, raw [][]byte, inMulti bool) (resp.Value, *parkRequest) {
	if len(raw) == 0 {
		return resp.Err("ERR", "empty command"), nil
	}
	name := strings.ToLower(string(raw[0]))
	sess.lastCmd = name

	spec, ok := s.registry.Lookup(name)
	if !ok {
		if sess.tx == TxQueueing {
			sess.tx = TxDirty
		}
		return errUnknownCommand(name), nil
	}

	if !spec.CheckArity(len(raw)) {
		if sess.tx == TxQueueing {
			sess.tx = TxDirty
		}
		return errWrongArgs(name), nil
	}

	// Authentication gate: only PreAuth commands run before AUTH.
	if !sess.authed && !spec.Flags.Has(command.FlagPreAuth) {
		return errNoAuth, nil
	}

	// ACL enforcement for authenticated users.
	if sess.authed && sess.user != nil {
		if v, denied := s.checkACL(sess, spec, raw); denied {
			if sess.tx == TxQueueing {
				sess.tx = TxDirty
			}
			return v, nil
		}
	}

	// Subscriber mode restricts the command set on RESP2.
	if s.hub.Count(sess.id) > 0 && sess.proto == 2 && !subscriberAllowed(spec) {
		return resp.Err("ERR",
			"Can't execute '"+name+"': only (P|S)SUBSCRIBE / (P|S)UNSUBSCRIBE / PING / QUIT / RESET are allowed in this context"), nil
	}

	// Transaction queueing: everything but control commands queues.
	if sess.tx != TxNone && !spec.Flags.Has(command.FlagTxCtl) {
		switch spec.Name {
		case "subscribe", "unsubscribe", "psubscribe", "punsubscribe":
			sess.tx = TxDirty
			return resp.Err("ERR", strings.ToUpper(spec.Name)+" is not allowed in transactions"), nil
		}
		if sess.tx == TxDirty {
			return resp.SimpleString("QUEUED"), nil
		}
		sess.queue = append(sess.queue, queuedCommand{args: raw})
		return resp.SimpleString("QUEUED"), nil
	}

	handler, ok := s.handlers[name]
	if !ok {
		return errUnknownCommand(name), nil
	}

	s.stats.totalCommands++
	if s.metrics != nil {
		s.metrics.CommandsTotal.WithLabelValues(name).Inc()
	}

	c := &callCtx{
		srv:     s,
		sess:    sess,
		spec:    spec,
		raw:     raw,
		args:    command.NewArgs(raw[1:]),
		inMulti: inMulti,
	}
	reply := handler(c)

	if reply.IsError() && s.metrics != nil {
		s.metrics.CommandErrors.Inc()
	}

	if c.park != nil {
		sess.waiter = c.park.waiter
		if s.metrics != nil {
			s.metrics.BlockedClients.Inc()
		}
		return resp.Value{}, c.park
	}
	return reply, nil
}

// checkACL verifies command, key and channel permissions.
func (s *Server) checkACL(sess *Session, spec *command.Spec, raw [][]byte) (resp.Value, bool) {
	user := sess.user
	if !user.CheckCommand(spec.Name, s.registry) {
		return errNoPermCommand(user.Name, spec.Name), true
	}

	for _, ref := range spec.Keys(raw) {
		if ref.Pos >= len(raw) {
			continue
		}
		if !user.CheckKey(string(raw[ref.Pos]), ref.Mode) {
			return errNoPermKey(user.Name), true
		}
	}

	switch spec.Name {
	case "subscribe", "publish":
		for _, ch := range raw[1:] {
			if !user.CheckChannel(string(ch), false) {
				return errNoPermChannel(user.Name), true
			}
			if spec.Name == "publish" {
				break // only the channel argument
			}
		}
	case "psubscribe":
		for _, p := range raw[1:] {
			if !user.CheckChannel(string(p), true) {
				return errNoPermChannel(user.Name), true
			}
		}
	}
	return resp.Value{}, false
}

// subscriberAllowed lists the commands legal while subscribed on RESP2.
func subscriberAllowed(spec *command.Spec) bool {
	switch spec.Name {
	case "subscribe", "unsubscribe", "psubscribe", "punsubscribe", "ping", "quit", "reset":
		return true
	}
	return false
}

// execQueued runs one queued command during EXEC; errors are returned
// in place and never abort the batch.
func (s *Server) execQueued(sess *Session, raw [][]byte) resp.Value {
	reply, park := s.dispatch(sess, raw, true)
	if park != nil {
		// Handlers take the immediate path when inMulti is set, so a
		// park here means a handler ignored the flag.
		s.coord.Remove(park.waiter)
		return park.onTimeout
	}
	return reply
}
