package engine

import (
	"github.com/yndnr/keymesh-go/internal/resp"
	"github.com/yndnr/keymesh-go/pkg/glob"
)

func (s *Server) installHashHandlers() {
	s.register("hset", cmdHSet)
	s.register("hmset", cmdHMSet)
	s.register("hsetnx", cmdHSetNX)
	s.register("hget", cmdHGet)
	s.register("hmget", cmdHMGet)
	s.register("hdel", cmdHDel)
	s.register("hlen", cmdHLen)
	s.register("hexists", cmdHExists)
	s.register("hkeys", cmdHKeys)
	s.register("hvals", cmdHVals)
	s.register("hgetall", cmdHGetAll)
	s.register("hstrlen", cmdHStrlen)
	s.register("hincrby", cmdHIncrBy)
	s.register("hincrbyfloat", cmdHIncrByFloat)
	s.register("hrandfield", cmdHRandField)
	s.register("hscan", cmdHScan)
}

func cmdHSet(c *callCtx) resp.Value {
	key, _ := c.args.String()
	pairs := c.args.Rest()
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return errWrongArgs("hset")
	}

	h, errv := c.getOrCreateHash(key)
	if errv.IsError() {
		return errv
	}
	created := int64(0)
	for i := 0; i < len(pairs); i += 2 {
		if h.Set(string(pairs[i]), append([]byte(nil), pairs[i+1]...)) {
			created++
		}
	}
	c.wrote(key, 'h', "hset")
	return resp.Integer(created)
}

func cmdHMSet(c *callCtx) resp.Value {
	if v := cmdHSet(c); v.IsError() {
		return v
	}
	return resp.OK
}

func cmdHSetNX(c *callCtx) resp.Value {
	key, _ := c.args.String()
	field, _ := c.args.String()
	value, _ := c.args.Next()

	h, errv := c.getOrCreateHash(key)
	if errv.IsError() {
		return errv
	}
	if !h.SetNX(field, append([]byte(nil), value...)) {
		c.db().DeleteIfEmpty(key)
		return resp.Integer(0)
	}
	c.wrote(key, 'h', "hset")
	return resp.Integer(1)
}

func cmdHGet(c *callCtx) resp.Value {
	key, _ := c.args.String()
	field, _ := c.args.String()
	h, ok, errv := c.lookupHash(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Null()
	}
	v, has := h.Get(field)
	if !has {
		return resp.Null()
	}
	return resp.BulkString(v)
}

func cmdHMGet(c *callCtx) resp.Value {
	key, _ := c.args.String()
	fields := c.args.RestStrings()

	h, ok, errv := c.lookupHash(key)
	if errv.IsError() {
		return errv
	}
	elems := make([]resp.Value, 0, len(fields))
	for _, f := range fields {
		if !ok {
			elems = append(elems, resp.Null())
			continue
		}
		if v, has := h.Get(f); has {
			elems = append(elems, resp.BulkString(v))
		} else {
			elems = append(elems, resp.Null())
		}
	}
	return resp.Array(elems...)
}

func cmdHDel(c *callCtx) resp.Value {
	key, _ := c.args.String()
	fields := c.args.RestStrings()

	h, ok, errv := c.lookupHash(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	deleted := int64(0)
	for _, f := range fields {
		if h.Del(f) {
			deleted++
		}
	}
	if deleted > 0 {
		c.wrote(key, 'h', "hdel")
	}
	return resp.Integer(deleted)
}

func cmdHLen(c *callCtx) resp.Value {
	key, _ := c.args.String()
	h, ok, errv := c.lookupHash(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(h.Len()))
}

func cmdHExists(c *callCtx) resp.Value {
	key, _ := c.args.String()
	field, _ := c.args.String()
	h, ok, errv := c.lookupHash(key)
	if errv.IsError() {
		return errv
	}
	if ok && h.Has(field) {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdHKeys(c *callCtx) resp.Value {
	key, _ := c.args.String()
	h, ok, errv := c.lookupHash(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Array()
	}
	fields := h.Fields()
	elems := make([]resp.Value, 0, len(fields))
	for _, f := range fields {
		elems = append(elems, resp.BulkText(f))
	}
	return resp.Array(elems...)
}

func cmdHVals(c *callCtx) resp.Value {
	key, _ := c.args.String()
	h, ok, errv := c.lookupHash(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Array()
	}
	return resp.BulkArray(h.Values()...)
}

func cmdHGetAll(c *callCtx) resp.Value {
	key, _ := c.args.String()
	h, ok, errv := c.lookupHash(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Map()
	}
	fields := h.Fields()
	pairs := make([]resp.Value, 0, len(fields)*2)
	for _, f := range fields {
		v, _ := h.Get(f)
		pairs = append(pairs, resp.BulkText(f), resp.BulkString(v))
	}
	return resp.Map(pairs...)
}

func cmdHStrlen(c *callCtx) resp.Value {
	key, _ := c.args.String()
	field, _ := c.args.String()
	h, ok, errv := c.lookupHash(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	v, has := h.Get(field)
	if !has {
		return resp.Integer(0)
	}
	return resp.Integer(int64(len(v)))
}

func cmdHIncrBy(c *callCtx) resp.Value {
	key, _ := c.args.String()
	field, _ := c.args.String()
	delta, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}

	h, errv := c.getOrCreateHash(key)
	if errv.IsError() {
		return errv
	}
	n, err := h.IncrBy(field, delta)
	if err != nil {
		c.db().DeleteIfEmpty(key)
		return wireErr(err)
	}
	c.wrote(key, 'h', "hincrby")
	return resp.Integer(n)
}

func cmdHIncrByFloat(c *callCtx) resp.Value {
	key, _ := c.args.String()
	field, _ := c.args.String()
	delta, err := c.args.Float()
	if err != nil {
		return wireErr(err)
	}

	h, errv := c.getOrCreateHash(key)
	if errv.IsError() {
		return errv
	}
	v, err := h.IncrByFloat(field, delta)
	if err != nil {
		c.db().DeleteIfEmpty(key)
		return wireErr(err)
	}
	c.wrote(key, 'h', "hincrbyfloat")
	return resp.BulkText(resp.FormatFloat(v))
}

func cmdHRandField(c *callCtx) resp.Value {
	key, _ := c.args.String()

	count := int64(1)
	withCount := false
	withValues := false
	if c.args.More() {
		v, err := c.args.Int()
		if err != nil {
			return wireErr(err)
		}
		count = v
		withCount = true
	}
	if c.args.More() {
		tok, _ := c.args.Peek()
		if tok != "WITHVALUES" {
			return errSyntax
		}
		c.args.Next()
		withValues = true
	}

	h, ok, errv := c.lookupHash(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		if withCount {
			return resp.Array()
		}
		return resp.Null()
	}

	fields := h.RandomFields(count, c.pick)
	if !withCount {
		if len(fields) == 0 {
			return resp.Null()
		}
		return resp.BulkText(fields[0])
	}
	elems := make([]resp.Value, 0, len(fields)*2)
	for _, f := range fields {
		elems = append(elems, resp.BulkText(f))
		if withValues {
			v, _ := h.Get(f)
			elems = append(elems, resp.BulkString(v))
		}
	}
	return resp.Array(elems...)
}

// containerScan implements the shared HSCAN/SSCAN/ZSCAN walk over a
// snapshot of item names, filtering by MATCH and liveness.
func containerScan(c *callCtx, cursor uint64, match string, count int, items func() []string, live func(item string) bool) ([]string, uint64) {
	store := c.db().Cursors()
	if cursor == 0 {
		cursor = store.Begin(items())
	}
	batch, next := store.Advance(cursor, count)
	var out []string
	for _, item := range batch {
		if !live(item) {
			continue
		}
		if match != "" && !glob.Match(match, item) {
			continue
		}
		out = append(out, item)
	}
	return out, next
}

func parseScanOpts(c *callCtx) (cursor uint64, match string, count int, extra map[string]string, errv resp.Value) {
	curRaw, err := c.args.String()
	if err != nil {
		return 0, "", 0, nil, errWrongArgs(c.spec.Name)
	}
	cur, err := parseUint(curRaw)
	if err != nil {
		return 0, "", 0, nil, resp.Err("ERR", "invalid cursor")
	}

	count = 10
	extra = make(map[string]string)
	for c.args.More() {
		tok, _ := c.args.Peek()
		switch tok {
		case "MATCH":
			c.args.Next()
			m, err := c.args.String()
			if err != nil {
				return 0, "", 0, nil, errSyntax
			}
			match = m
		case "COUNT":
			c.args.Next()
			n, err := c.args.Int()
			if err != nil || n <= 0 {
				return 0, "", 0, nil, errSyntax
			}
			count = int(n)
		case "TYPE", "NOVALUES":
			c.args.Next()
			if tok == "TYPE" {
				tv, err := c.args.String()
				if err != nil {
					return 0, "", 0, nil, errSyntax
				}
				extra["type"] = tv
			} else {
				extra["novalues"] = "1"
			}
		default:
			return 0, "", 0, nil, errSyntax
		}
	}
	return cur, match, count, extra, resp.Value{}
}

func scanReply(cursor uint64, elems []resp.Value) resp.Value {
	return resp.Array(resp.BulkText(uintToString(cursor)), resp.Array(elems...))
}

func cmdHScan(c *callCtx) resp.Value {
	key, _ := c.args.String()
	cursor, match, count, extra, errv := parseScanOpts(c)
	if errv.IsError() {
		return errv
	}
	if _, hasType := extra["type"]; hasType {
		return errSyntax
	}
	noValues := extra["novalues"] == "1"

	h, ok, errv := c.lookupHash(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return scanReply(0, nil)
	}

	fields, next := containerScan(c, cursor, match, count, h.Fields, h.Has)
	elems := make([]resp.Value, 0, len(fields)*2)
	for _, f := range fields {
		elems = append(elems, resp.BulkText(f))
		if !noValues {
			v, _ := h.Get(f)
			elems = append(elems, resp.BulkString(v))
		}
	}
	return scanReply(next, elems)
}
