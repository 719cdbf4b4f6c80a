package engine

import (
	"sort"
	"strconv"

	"github.com/yndnr/keymesh-go/internal/datatype"
	"github.com/yndnr/keymesh-go/internal/keyspace"
	"github.com/yndnr/keymesh-go/internal/resp"
)

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

func uintToString(n uint64) string {
	return strconv.FormatUint(n, 10)
}

func sortedKeys(m map[string]int64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedConsumerNames(g *datatype.ConsumerGroup) []string {
	out := make([]string, 0, len(g.Consumers))
	for name := range g.Consumers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// db returns the session's selected database.
func (c *callCtx) db() *keyspace.Database {
	return c.srv.db(c.sess.db)
}

func (c *callCtx) now() int64 { return c.srv.nowMs() }

// lookup returns a live value, recording hit/miss stats.
func (c *callCtx) lookup(key string) (datatype.Value, bool) {
	v, ok := c.db().Get(key, c.now())
	if ok {
		c.srv.stats.keyspaceHits++
		if c.srv.metrics != nil {
			c.srv.metrics.KeyspaceHits.Inc()
		}
	} else {
		c.srv.stats.keyspaceMisses++
		if c.srv.metrics != nil {
			c.srv.metrics.KeyspaceMisses.Inc()
		}
	}
	return v, ok
}

// Typed lookups. Each returns (value, existed, errReply); a key of the
// wrong kind produces the WRONGTYPE reply with existed=true.

func (c *callCtx) lookupString(key string) (*datatype.String, bool, resp.Value) {
	v, ok := c.lookup(key)
	if !ok {
		return nil, false, resp.Value{}
	}
	str, ok := v.(*datatype.String)
	if !ok {
		return nil, true, wireErr(datatype.ErrWrongType)
	}
	return str, true, resp.Value{}
}

func (c *callCtx) lookupList(key string) (*datatype.List, bool, resp.Value) {
	v, ok := c.lookup(key)
	if !ok {
		return nil, false, resp.Value{}
	}
	l, ok := v.(*datatype.List)
	if !ok {
		return nil, true, wireErr(datatype.ErrWrongType)
	}
	return l, true, resp.Value{}
}

func (c *callCtx) lookupHash(key string) (*datatype.Hash, bool, resp.Value) {
	v, ok := c.lookup(key)
	if !ok {
		return nil, false, resp.Value{}
	}
	h, ok := v.(*datatype.Hash)
	if !ok {
		return nil, true, wireErr(datatype.ErrWrongType)
	}
	return h, true, resp.Value{}
}

func (c *callCtx) lookupSet(key string) (*datatype.Set, bool, resp.Value) {
	v, ok := c.lookup(key)
	if !ok {
		return nil, false, resp.Value{}
	}
	set, ok := v.(*datatype.Set)
	if !ok {
		return nil, true, wireErr(datatype.ErrWrongType)
	}
	return set, true, resp.Value{}
}

func (c *callCtx) lookupZSet(key string) (*datatype.SortedSet, bool, resp.Value) {
	v, ok := c.lookup(key)
	if !ok {
		return nil, false, resp.Value{}
	}
	z, ok := v.(*datatype.SortedSet)
	if !ok {
		return nil, true, wireErr(datatype.ErrWrongType)
	}
	return z, true, resp.Value{}
}

func (c *callCtx) lookupStream(key string) (*datatype.Stream, bool, resp.Value) {
	v, ok := c.lookup(key)
	if !ok {
		return nil, false, resp.Value{}
	}
	st, ok := v.(*datatype.Stream)
	if !ok {
		return nil, true, wireErr(datatype.ErrWrongType)
	}
	return st, true, resp.Value{}
}

// getOrCreate variants hand back an existing container or store a new
// one under the key.

func (c *callCtx) getOrCreateList(key string) (*datatype.List, resp.Value) {
	l, existed, errv := c.lookupList(key)
	if errv.IsError() {
		return nil, errv
	}
	if !existed {
		l = datatype.NewList()
		c.db().Set(key, l, true)
	}
	return l, resp.Value{}
}

func (c *callCtx) getOrCreateHash(key string) (*datatype.Hash, resp.Value) {
	h, existed, errv := c.lookupHash(key)
	if errv.IsError() {
		return nil, errv
	}
	if !existed {
		h = datatype.NewHash()
		c.db().Set(key, h, true)
	}
	return h, resp.Value{}
}

func (c *callCtx) getOrCreateSet(key string) (*datatype.Set, resp.Value) {
	set, existed, errv := c.lookupSet(key)
	if errv.IsError() {
		return nil, errv
	}
	if !existed {
		set = datatype.NewSet()
		c.db().Set(key, set, true)
	}
	return set, resp.Value{}
}

func (c *callCtx) getOrCreateZSet(key string) (*datatype.SortedSet, resp.Value) {
	z, existed, errv := c.lookupZSet(key)
	if errv.IsError() {
		return nil, errv
	}
	if !existed {
		z = datatype.NewSortedSet()
		c.db().Set(key, z, true)
	}
	return z, resp.Value{}
}

// wrote marks a mutation on key: version bump, waiter wakeup, empty-
// container cleanup and an optional keyspace notification.
func (c *callCtx) wrote(key string, class byte, event string) {
	c.db().DeleteIfEmpty(key)
	c.db().Bump(key)
	if event != "" {
		c.srv.notifyKeyspaceEvent(c.sess.db, class, event, key)
	}
}

// pick is the engine's randomness source for RANDOMKEY-family replies.
func (c *callCtx) pick(n int) int { return c.srv.rnd.Intn(n) }

// scoredMembersReply renders members, with scores interleaved when
// withScores. Scores are bulk strings in both protocols.
func scoredMembersReply(members []datatype.ScoredMember, withScores bool) resp.Value {
	if !withScores {
		elems := make([]resp.Value, 0, len(members))
		for _, m := range members {
			elems = append(elems, resp.BulkText(m.Member))
		}
		return resp.Array(elems...)
	}
	elems := make([]resp.Value, 0, len(members)*2)
	for _, m := range members {
		elems = append(elems, resp.BulkText(m.Member), resp.BulkText(resp.FormatFloat(m.Score)))
	}
	return resp.Array(elems...)
}

// entryReply renders one stream entry as [id, [field, value, ...]].
func entryReply(e datatype.StreamEntry) resp.Value {
	fields := make([]resp.Value, 0, len(e.Fields))
	for _, f := range e.Fields {
		fields = append(fields, resp.BulkString(f))
	}
	return resp.Array(resp.BulkText(e.ID.String()), resp.Array(fields...))
}

func entriesReply(entries []datatype.StreamEntry) resp.Value {
	elems := make([]resp.Value, 0, len(entries))
	for _, e := range entries {
		elems = append(elems, entryReply(e))
	}
	return resp.Array(elems...)
}
