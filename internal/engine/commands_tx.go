package engine

import (
	"github.com/yndnr/keymesh-go/internal/resp"
)

func (s *Server) installTxHandlers() {
	s.register("multi", cmdMulti)
	s.register("exec", cmdExec)
	s.register("discard", cmdDiscard)
	s.register("watch", cmdWatch)
	s.register("unwatch", cmdUnwatch)
}

func cmdMulti(c *callCtx) resp.Value {
	if c.sess.InTx() {
		return errMultiNested
	}
	c.sess.tx = TxQueueing
	return resp.OK
}

func cmdExec(c *callCtx) resp.Value {
	sess := c.sess
	if !sess.InTx() {
		return errExecNoMulti
	}
	if sess.tx == TxDirty {
		sess.resetTx()
		return errExecAbort
	}

	// Optimistic check: any watched key whose version moved since
	// WATCH aborts the whole transaction.
	for wk, version := range sess.watched {
		if c.srv.db(wk.db).Version(wk.key) != version {
			sess.resetTx()
			return resp.NullArray()
		}
	}

	queue := sess.queue
	sess.resetTx()

	replies := make([]resp.Value, 0, len(queue))
	for _, q := range queue {
		replies = append(replies, c.srv.execQueued(sess, q.args))
	}
	return resp.Array(replies...)
}

func cmdDiscard(c *callCtx) resp.Value {
	if !c.sess.InTx() {
		return errDiscardNoMulti
	}
	c.sess.resetTx()
	return resp.OK
}

func cmdWatch(c *callCtx) resp.Value {
	if c.sess.InTx() {
		return errWatchInMulti
	}
	for _, key := range c.args.RestStrings() {
		wk := watchKey{db: c.sess.db, key: key}
		if _, already := c.sess.watched[wk]; !already {
			c.sess.watched[wk] = c.srv.db(wk.db).Version(key)
		}
	}
	return resp.OK
}

func cmdUnwatch(c *callCtx) resp.Value {
	c.sess.watched = make(map[watchKey]uint64)
	return resp.OK
}
