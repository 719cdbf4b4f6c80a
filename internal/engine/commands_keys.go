package engine

import (
	"strings"

	"github.com/yndnr/keymesh-go/internal/datatype"
	"github.com/yndnr/keymesh-go/internal/resp"
)

func (s *Server) installKeyHandlers() {
	s.register("del", cmdDel)
	s.register("unlink", cmdDel)
	s.register("exists", cmdExists)
	s.register("type", cmdType)
	s.register("keys", cmdKeys)
	s.register("randomkey", cmdRandomKey)
	s.register("rename", cmdRename)
	s.register("renamenx", cmdRenameNX)
	s.register("copy", cmdCopy)
	s.register("move", cmdMove)
	s.register("expire", cmdExpireVariant(1000, false))
	s.register("pexpire", cmdExpireVariant(1, false))
	s.register("expireat", cmdExpireVariant(1000, true))
	s.register("pexpireat", cmdExpireVariant(1, true))
	s.register("ttl", cmdTTLVariant(1000))
	s.register("pttl", cmdTTLVariant(1))
	s.register("expiretime", cmdExpireTimeVariant(1000))
	s.register("pexpiretime", cmdExpireTimeVariant(1))
	s.register("persist", cmdPersist)
	s.register("touch", cmdTouch)
	s.register("scan", cmdScan)
	s.register("dbsize", cmdDBSize)
	s.register("flushdb", cmdFlushDB)
	s.register("flushall", cmdFlushAll)
	s.register("swapdb", cmdSwapDB)
	s.register("object", cmdObject)
	s.register("dump", cmdDumpStub)
	s.register("restore", cmdDumpStub)
}

func cmdDel(c *callCtx) resp.Value {
	keys := c.args.RestStrings()
	deleted := int64(0)
	for _, key := range keys {
		if c.db().Delete(key, c.now()) {
			deleted++
			c.srv.notifyKeyspaceEvent(c.sess.db, 'g', "del", key)
		}
	}
	return resp.Integer(deleted)
}

func cmdExists(c *callCtx) resp.Value {
	keys := c.args.RestStrings()
	count := int64(0)
	for _, key := range keys {
		if c.db().Exists(key, c.now()) {
			count++
		}
	}
	return resp.Integer(count)
}

func cmdType(c *callCtx) resp.Value {
	key, _ := c.args.String()
	v, ok := c.lookup(key)
	if !ok {
		return resp.SimpleString("none")
	}
	return resp.SimpleString(v.TypeName())
}

func cmdKeys(c *callCtx) resp.Value {
	pattern, _ := c.args.String()
	return resp.BulkArrayStrings(c.db().Keys(pattern, c.now()))
}

func cmdRandomKey(c *callCtx) resp.Value {
	key, ok := c.db().RandomKey(c.now(), c.pick)
	if !ok {
		return resp.Null()
	}
	return resp.BulkText(key)
}

func cmdRename(c *callCtx) resp.Value {
	src, _ := c.args.String()
	dst, _ := c.args.String()
	if !c.db().Exists(src, c.now()) {
		return errNoSuchKey
	}
	c.db().Rename(src, dst)
	c.srv.notifyKeyspaceEvent(c.sess.db, 'g', "rename_from", src)
	c.srv.notifyKeyspaceEvent(c.sess.db, 'g', "rename_to", dst)
	return resp.OK
}

func cmdRenameNX(c *callCtx) resp.Value {
	src, _ := c.args.String()
	dst, _ := c.args.String()
	now := c.now()
	if !c.db().Exists(src, now) {
		return errNoSuchKey
	}
	if c.db().Exists(dst, now) {
		return resp.Integer(0)
	}
	c.db().Rename(src, dst)
	c.srv.notifyKeyspaceEvent(c.sess.db, 'g', "rename_from", src)
	c.srv.notifyKeyspaceEvent(c.sess.db, 'g', "rename_to", dst)
	return resp.Integer(1)
}

func cmdCopy(c *callCtx) resp.Value {
	src, _ := c.args.String()
	dst, _ := c.args.String()

	destDB := c.sess.db
	replace := false
	for c.args.More() {
		tok, _ := c.args.Peek()
		switch tok {
		case "DB":
			c.args.Next()
			n, err := c.args.Int()
			if err != nil || n < 0 || int(n) >= len(c.srv.dbs) {
				return errDBIndex
			}
			destDB = int(n)
		case "REPLACE":
			c.args.Next()
			replace = true
		default:
			return errSyntax
		}
	}

	now := c.now()
	v, ok := c.db().Get(src, now)
	if !ok {
		return resp.Integer(0)
	}
	target := c.srv.db(destDB)
	if !replace && target.Exists(dst, now) {
		return resp.Integer(0)
	}

	clone := cloneValue(v)
	ttl := c.db().ExpireTime(src, now)
	if ttl > 0 {
		target.SetWithExpiry(dst, clone, ttl)
	} else {
		target.Set(dst, clone, false)
	}
	c.srv.notifyKeyspaceEvent(destDB, 'g', "copy_to", dst)
	return resp.Integer(1)
}

// cloneValue deep-copies a value for COPY; each database entry owns its
// value exclusively.
func cloneValue(v datatype.Value) datatype.Value {
	switch t := v.(type) {
	case *datatype.String:
		return datatype.NewString(append([]byte(nil), t.Bytes()...))
	case *datatype.List:
		out := datatype.NewList()
		for _, e := range t.Range(0, -1) {
			out.PushTail(append([]byte(nil), e...))
		}
		return out
	case *datatype.Hash:
		out := datatype.NewHash()
		for _, f := range t.Fields() {
			val, _ := t.Get(f)
			out.Set(f, append([]byte(nil), val...))
		}
		return out
	case *datatype.Set:
		out := datatype.NewSet()
		for _, m := range t.Members() {
			out.Add(m)
		}
		return out
	case *datatype.SortedSet:
		out := datatype.NewSortedSet()
		for _, m := range t.Members() {
			out.Set(m.Member, m.Score)
		}
		return out
	default:
		// Streams (groups included) are not copied piecemeal; COPY of
		// a stream rebuilds the entries only, matching a dump/restore
		// of the visible log.
		if st, ok := v.(*datatype.Stream); ok {
			out := datatype.NewStream()
			for _, e := range st.Range(datatype.StreamID{}, datatype.StreamID{Ms: ^uint64(0), Seq: ^uint64(0)}, 0, false) {
				id := e.ID
				_, _ = out.Add(&id, false, 0, e.Fields)
			}
			out.SetLastID(st.LastID())
			return out
		}
		return v
	}
}

func cmdMove(c *callCtx) resp.Value {
	key, _ := c.args.String()
	n, err := c.args.Int()
	if err != nil || n < 0 || int(n) >= len(c.srv.dbs) {
		return errDBIndex
	}
	if int(n) == c.sess.db {
		return resp.Err("ERR", "source and destination objects are the same")
	}

	now := c.now()
	v, ok := c.db().Get(key, now)
	if !ok {
		return resp.Integer(0)
	}
	target := c.srv.db(int(n))
	if target.Exists(key, now) {
		return resp.Integer(0)
	}
	ttl := c.db().ExpireTime(key, now)
	c.db().Delete(key, now)
	if ttl > 0 {
		target.SetWithExpiry(key, v, ttl)
	} else {
		target.Set(key, v, false)
	}
	c.srv.notifyKeyspaceEvent(c.sess.db, 'g', "move_from", key)
	c.srv.notifyKeyspaceEvent(int(n), 'g', "move_to", key)
	return resp.Integer(1)
}

// cmdExpireVariant covers EXPIRE/PEXPIRE/EXPIREAT/PEXPIREAT.
func cmdExpireVariant(unitMs int64, absolute bool) handlerFunc {
	return func(c *callCtx) resp.Value {
		key, _ := c.args.String()
		n, err := c.args.Int()
		if err != nil {
			return wireErr(err)
		}

		var nx, xx, gt, lt bool
		for c.args.More() {
			tok, _ := c.args.Peek()
			switch tok {
			case "NX":
				nx = true
			case "XX":
				xx = true
			case "GT":
				gt = true
			case "LT":
				lt = true
			default:
				return errSyntax
			}
			c.args.Next()
		}
		if nx && (xx || gt || lt) {
			return resp.Err("ERR", "NX and XX, GT or LT options at the same time are not compatible")
		}

		now := c.now()
		if !c.db().Exists(key, now) {
			return resp.Integer(0)
		}

		at := n * unitMs
		if !absolute {
			at += now
		}

		current := c.db().ExpireTime(key, now)
		hasTTL := current > 0
		switch {
		case nx && hasTTL:
			return resp.Integer(0)
		case xx && !hasTTL:
			return resp.Integer(0)
		case gt && (!hasTTL || at <= current):
			// A persistent key counts as an infinite TTL for GT.
			return resp.Integer(0)
		case lt && hasTTL && at >= current:
			return resp.Integer(0)
		}

		c.db().Expire(key, at, now)
		c.srv.notifyKeyspaceEvent(c.sess.db, 'g', "expire", key)
		return resp.Integer(1)
	}
}

func cmdTTLVariant(unitMs int64) handlerFunc {
	return func(c *callCtx) resp.Value {
		key, _ := c.args.String()
		ttl := c.db().TTL(key, c.now())
		if ttl < 0 {
			return resp.Integer(ttl)
		}
		if unitMs == 1000 {
			// Round up so a key about to expire still reports 1.
			return resp.Integer((ttl + 999) / 1000)
		}
		return resp.Integer(ttl)
	}
}

func cmdExpireTimeVariant(unitMs int64) handlerFunc {
	return func(c *callCtx) resp.Value {
		key, _ := c.args.String()
		at := c.db().ExpireTime(key, c.now())
		if at < 0 {
			return resp.Integer(at)
		}
		if unitMs == 1000 {
			return resp.Integer(at / 1000)
		}
		return resp.Integer(at)
	}
}

func cmdPersist(c *callCtx) resp.Value {
	key, _ := c.args.String()
	if !c.db().Persist(key, c.now()) {
		return resp.Integer(0)
	}
	c.srv.notifyKeyspaceEvent(c.sess.db, 'g', "persist", key)
	return resp.Integer(1)
}

func cmdTouch(c *callCtx) resp.Value {
	keys := c.args.RestStrings()
	count := int64(0)
	for _, key := range keys {
		if c.db().Exists(key, c.now()) {
			count++
		}
	}
	return resp.Integer(count)
}

func cmdScan(c *callCtx) resp.Value {
	cursor, match, count, extra, errv := parseScanOpts(c)
	if errv.IsError() {
		return errv
	}
	if extra["novalues"] != "" {
		return errSyntax
	}
	typeName := strings.ToLower(extra["type"])

	keys, next := c.db().Scan(cursor, match, count, typeName, c.now())
	return scanReply(next, bulkValues(keys))
}

func bulkValues(items []string) []resp.Value {
	out := make([]resp.Value, 0, len(items))
	for _, it := range items {
		out = append(out, resp.BulkText(it))
	}
	return out
}

func cmdDBSize(c *callCtx) resp.Value {
	return resp.Integer(c.db().Size(c.now()))
}

func cmdFlushDB(c *callCtx) resp.Value {
	// ASYNC/SYNC modifiers are accepted; flushing is synchronous.
	if c.args.More() {
		tok, _ := c.args.Peek()
		if tok != "ASYNC" && tok != "SYNC" {
			return errSyntax
		}
	}
	c.db().Flush()
	return resp.OK
}

func cmdFlushAll(c *callCtx) resp.Value {
	if c.args.More() {
		tok, _ := c.args.Peek()
		if tok != "ASYNC" && tok != "SYNC" {
			return errSyntax
		}
	}
	for _, db := range c.srv.dbs {
		db.Flush()
	}
	return resp.OK
}

func cmdSwapDB(c *callCtx) resp.Value {
	a, err := c.args.Int()
	if err != nil || a < 0 || int(a) >= len(c.srv.dbs) {
		return errDBIndex
	}
	b, err := c.args.Int()
	if err != nil || b < 0 || int(b) >= len(c.srv.dbs) {
		return errDBIndex
	}
	if a != b {
		swapDatabases(c.srv, int(a), int(b))
	}
	return resp.OK
}

func cmdObject(c *callCtx) resp.Value {
	sub, _ := c.args.String()
	switch strings.ToUpper(sub) {
	case "ENCODING":
		key, err := c.args.String()
		if err != nil {
			return errWrongArgs("object")
		}
		v, ok := c.lookup(key)
		if !ok {
			return errNoSuchKey
		}
		return resp.BulkText(v.Encoding())
	case "REFCOUNT", "FREQ":
		key, err := c.args.String()
		if err != nil {
			return errWrongArgs("object")
		}
		if !c.db().Exists(key, c.now()) {
			return errNoSuchKey
		}
		return resp.Integer(1)
	case "IDLETIME":
		key, err := c.args.String()
		if err != nil {
			return errWrongArgs("object")
		}
		if !c.db().Exists(key, c.now()) {
			return errNoSuchKey
		}
		return resp.Integer(0)
	case "HELP":
		return resp.Array(resp.SimpleString("OBJECT ENCODING|REFCOUNT|IDLETIME|FREQ <key>"))
	}
	return errUnknownSubcommand("object", sub)
}

// cmdDumpStub answers DUMP and RESTORE: the serialized payload format
// is not implemented.
func cmdDumpStub(c *callCtx) resp.Value {
	return errNotImplemented
}
