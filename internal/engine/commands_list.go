package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/keymesh-go/internal/blocking"
	"github.com/yndnr/keymesh-go/internal/datatype"
	"github.com/yndnr/keymesh-go/internal/resp"
)

func (s *Server) installListHandlers() {
	s.register("lpush", cmdPush(true, false))
	s.register("rpush", cmdPush(false, false))
	s.register("lpushx", cmdPush(true, true))
	s.register("rpushx", cmdPush(false, true))
	s.register("lpop", cmdPop(true))
	s.register("rpop", cmdPop(false))
	s.register("llen", cmdLLen)
	s.register("lindex", cmdLIndex)
	s.register("lset", cmdLSet)
	s.register("lrange", cmdLRange)
	s.register("ltrim", cmdLTrim)
	s.register("linsert", cmdLInsert)
	s.register("lrem", cmdLRem)
	s.register("lpos", cmdLPos)
	s.register("rpoplpush", cmdRPopLPush)
	s.register("lmove", cmdLMove)
	s.register("lmpop", cmdLMPop)
	s.register("blpop", cmdBPop(true))
	s.register("brpop", cmdBPop(false))
	s.register("blmove", cmdBLMove)
	s.register("brpoplpush", cmdBRPopLPush)
	s.register("blmpop", cmdBLMPop)
}

func cmdPush(head, xx bool) handlerFunc {
	return func(c *callCtx) resp.Value {
		key, _ := c.args.String()
		values := c.args.Rest()

		var l *datatype.List
		if xx {
			existing, ok, errv := c.lookupList(key)
			if errv.IsError() {
				return errv
			}
			if !ok {
				return resp.Integer(0)
			}
			l = existing
		} else {
			var errv resp.Value
			l, errv = c.getOrCreateList(key)
			if errv.IsError() {
				return errv
			}
		}

		for _, v := range values {
			v = append([]byte(nil), v...)
			if head {
				l.PushHead(v)
			} else {
				l.PushTail(v)
			}
		}
		event := "rpush"
		if head {
			event = "lpush"
		}
		c.wrote(key, 'l', event)
		return resp.Integer(int64(l.Len()))
	}
}

func cmdPop(head bool) handlerFunc {
	return func(c *callCtx) resp.Value {
		key, _ := c.args.String()
		count := int64(1)
		withCount := false
		if c.args.More() {
			v, err := c.args.Int()
			if err != nil {
				return wireErr(err)
			}
			if v < 0 {
				return resp.Err("ERR", "value is out of range, must be positive")
			}
			count = v
			withCount = true
		}

		l, ok, errv := c.lookupList(key)
		if errv.IsError() {
			return errv
		}
		if !ok {
			if withCount {
				return resp.NullArray()
			}
			return resp.Null()
		}

		var popped [][]byte
		for int64(len(popped)) < count {
			var v []byte
			var has bool
			if head {
				v, has = l.PopHead()
			} else {
				v, has = l.PopTail()
			}
			if !has {
				break
			}
			popped = append(popped, v)
		}

		event := "rpop"
		if head {
			event = "lpop"
		}
		c.wrote(key, 'l', event)

		if !withCount {
			if len(popped) == 0 {
				return resp.Null()
			}
			return resp.BulkString(popped[0])
		}
		return resp.BulkArray(popped...)
	}
}

func cmdLLen(c *callCtx) resp.Value {
	key, _ := c.args.String()
	l, ok, errv := c.lookupList(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(l.Len()))
}

func cmdLIndex(c *callCtx) resp.Value {
	key, _ := c.args.String()
	idx, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	l, ok, errv := c.lookupList(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Null()
	}
	v, has := l.Index(idx)
	if !has {
		return resp.Null()
	}
	return resp.BulkString(v)
}

func cmdLSet(c *callCtx) resp.Value {
	key, _ := c.args.String()
	idx, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	value, _ := c.args.Next()

	l, ok, errv := c.lookupList(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return errNoSuchKey
	}
	if err := l.Set(idx, append([]byte(nil), value...)); err != nil {
		return errIndexRange
	}
	c.wrote(key, 'l', "lset")
	return resp.OK
}

func cmdLRange(c *callCtx) resp.Value {
	key, _ := c.args.String()
	start, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	stop, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	l, ok, errv := c.lookupList(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Array()
	}
	return resp.BulkArray(l.Range(start, stop)...)
}

func cmdLTrim(c *callCtx) resp.Value {
	key, _ := c.args.String()
	start, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	stop, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	l, ok, errv := c.lookupList(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.OK
	}
	l.Trim(start, stop)
	c.wrote(key, 'l', "ltrim")
	return resp.OK
}

func cmdLInsert(c *callCtx) resp.Value {
	key, _ := c.args.String()
	where, _ := c.args.String()
	pivot, _ := c.args.Next()
	value, _ := c.args.Next()

	var before bool
	switch strings.ToUpper(where) {
	case "BEFORE":
		before = true
	case "AFTER":
		before = false
	default:
		return errSyntax
	}

	l, ok, errv := c.lookupList(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	n := l.Insert(before, pivot, append([]byte(nil), value...))
	if n < 0 {
		return resp.Integer(-1)
	}
	c.wrote(key, 'l', "linsert")
	return resp.Integer(int64(n))
}

func cmdLRem(c *callCtx) resp.Value {
	key, _ := c.args.String()
	count, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	value, _ := c.args.Next()

	l, ok, errv := c.lookupList(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	removed := l.Rem(count, value)
	if removed > 0 {
		c.wrote(key, 'l', "lrem")
	}
	return resp.Integer(removed)
}

func cmdLPos(c *callCtx) resp.Value {
	key, _ := c.args.String()
	value, _ := c.args.Next()

	rank := int64(1)
	count := int64(-1)
	withCount := false
	maxLen := int64(0)
	for c.args.More() {
		tok, _ := c.args.Peek()
		switch tok {
		case "RANK":
			c.args.Next()
			v, err := c.args.Int()
			if err != nil {
				return wireErr(err)
			}
			if v == 0 {
				return resp.Err("ERR", "RANK can't be zero")
			}
			rank = v
		case "COUNT":
			c.args.Next()
			v, err := c.args.Int()
			if err != nil {
				return wireErr(err)
			}
			if v < 0 {
				return resp.Err("ERR", "COUNT can't be negative")
			}
			count = v
			withCount = true
		case "MAXLEN":
			c.args.Next()
			v, err := c.args.Int()
			if err != nil {
				return wireErr(err)
			}
			if v < 0 {
				return resp.Err("ERR", "MAXLEN can't be negative")
			}
			maxLen = v
		default:
			return errSyntax
		}
	}

	l, ok, errv := c.lookupList(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		if withCount {
			return resp.Array()
		}
		return resp.Null()
	}

	limit := count
	if !withCount {
		limit = 1
	}
	positions := l.Pos(value, rank, limit, maxLen)
	if !withCount {
		if len(positions) == 0 {
			return resp.Null()
		}
		return resp.Integer(positions[0])
	}
	elems := make([]resp.Value, 0, len(positions))
	for _, p := range positions {
		elems = append(elems, resp.Integer(p))
	}
	return resp.Array(elems...)
}

// moveOne pops from src and pushes onto dst, returning the element.
func (c *callCtx) moveOne(src, dst string, srcHead, dstHead bool) (resp.Value, bool) {
	sl, ok, errv := c.lookupList(src)
	if errv.IsError() {
		return errv, true
	}
	if !ok || sl.Len() == 0 {
		return resp.Null(), false
	}
	dl, errv := c.getOrCreateList(dst)
	if errv.IsError() {
		return errv, true
	}

	var v []byte
	if srcHead {
		v, _ = sl.PopHead()
	} else {
		v, _ = sl.PopTail()
	}
	if dstHead {
		dl.PushHead(v)
	} else {
		dl.PushTail(v)
	}

	if srcHead {
		c.wrote(src, 'l', "lpop")
	} else {
		c.wrote(src, 'l', "rpop")
	}
	if dstHead {
		c.wrote(dst, 'l', "lpush")
	} else {
		c.wrote(dst, 'l', "rpush")
	}
	return resp.BulkString(v), true
}

func cmdRPopLPush(c *callCtx) resp.Value {
	src, _ := c.args.String()
	dst, _ := c.args.String()
	v, _ := c.moveOne(src, dst, false, true)
	return v
}

func parseEnd(s string) (head bool, ok bool) {
	switch strings.ToUpper(s) {
	case "LEFT":
		return true, true
	case "RIGHT":
		return false, true
	}
	return false, false
}

func cmdLMove(c *callCtx) resp.Value {
	src, _ := c.args.String()
	dst, _ := c.args.String()
	from, _ := c.args.String()
	to, _ := c.args.String()

	srcHead, ok := parseEnd(from)
	if !ok {
		return errSyntax
	}
	dstHead, ok := parseEnd(to)
	if !ok {
		return errSyntax
	}
	v, _ := c.moveOne(src, dst, srcHead, dstHead)
	return v
}

// mpopKeys runs the LMPOP core: first non-empty key pops up to count.
func (c *callCtx) mpopKeys(keys []string, head bool, count int64) (resp.Value, bool) {
	for _, key := range keys {
		l, ok, errv := c.lookupList(key)
		if errv.IsError() {
			return errv, true
		}
		if !ok || l.Len() == 0 {
			continue
		}
		var popped [][]byte
		for int64(len(popped)) < count {
			var v []byte
			var has bool
			if head {
				v, has = l.PopHead()
			} else {
				v, has = l.PopTail()
			}
			if !has {
				break
			}
			popped = append(popped, v)
		}
		event := "rpop"
		if head {
			event = "lpop"
		}
		c.wrote(key, 'l', event)
		return resp.Array(resp.BulkText(key), resp.BulkArray(popped...)), true
	}
	return resp.NullArray(), false
}

func parseMPopBody(c *callCtx) (keys []string, head bool, count int64, errv resp.Value) {
	numkeys, err := c.args.Int()
	if err != nil || numkeys <= 0 {
		return nil, false, 0, resp.Err("ERR", "numkeys should be greater than 0")
	}
	if int64(c.args.Remaining()) < numkeys+1 {
		return nil, false, 0, errSyntax
	}
	keys = make([]string, 0, numkeys)
	for i := int64(0); i < numkeys; i++ {
		k, _ := c.args.String()
		keys = append(keys, k)
	}
	dir, _ := c.args.String()
	head, ok := parseEnd(dir)
	if !ok {
		return nil, false, 0, errSyntax
	}
	count = 1
	if c.args.More() {
		tok, _ := c.args.Peek()
		if tok != "COUNT" {
			return nil, false, 0, errSyntax
		}
		c.args.Next()
		count, err = c.args.Int()
		if err != nil || count <= 0 {
			return nil, false, 0, resp.Err("ERR", "count should be greater than 0")
		}
	}
	return keys, head, count, resp.Value{}
}

func cmdLMPop(c *callCtx) resp.Value {
	keys, head, count, errv := parseMPopBody(c)
	if errv.IsError() {
		return errv
	}
	v, _ := c.mpopKeys(keys, head, count)
	return v
}

// parkOnLists parks the session until one of keys has elements. try
// runs under the engine lock when a key is mutated.
func (c *callCtx) parkOnLists(keys []string, timeout time.Duration, onTimeout resp.Value, try func(key string) (resp.Value, bool)) resp.Value {
	w := blocking.NewWaiter(c.sess.id, c.sess.db, keys, try)
	c.srv.coord.Park(w)
	c.park = &parkRequest{waiter: w, timeout: timeout, onTimeout: onTimeout}
	return resp.Value{}
}

// parseTimeout reads a blocking timeout in seconds (float) and returns
// a duration; zero means block forever.
func parseTimeout(c *callCtx) (time.Duration, resp.Value) {
	raw, err := c.args.String()
	if err != nil {
		return 0, errTimeoutFmt
	}
	return parseTimeoutStr(raw)
}

func parseTimeoutStr(raw string) (time.Duration, resp.Value) {
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errTimeoutFmt
	}
	if secs < 0 {
		return 0, errTimeoutNeg
	}
	return time.Duration(secs * float64(time.Second)), resp.Value{}
}

func cmdBPop(head bool) handlerFunc {
	return func(c *callCtx) resp.Value {
		all := c.args.RestStrings()
		if len(all) < 2 {
			return errWrongArgs(c.spec.Name)
		}
		keys := all[:len(all)-1]
		timeout, errv := parseTimeoutStr(all[len(all)-1])
		if errv.IsError() {
			return errv
		}

		tryPop := func(key string) (resp.Value, bool) {
			l, ok, errv := c.lookupList(key)
			if errv.IsError() || !ok || l.Len() == 0 {
				return resp.Value{}, false
			}
			var v []byte
			if head {
				v, _ = l.PopHead()
			} else {
				v, _ = l.PopTail()
			}
			event := "rpop"
			if head {
				event = "lpop"
			}
			c.wrote(key, 'l', event)
			return resp.Array(resp.BulkText(key), resp.BulkString(v)), true
		}

		// Immediate path: first non-empty key wins.
		for _, key := range keys {
			l, ok, errv := c.lookupList(key)
			if errv.IsError() {
				return errv
			}
			if ok && l.Len() > 0 {
				v, _ := tryPop(key)
				return v
			}
		}

		if c.inMulti {
			return resp.NullArray()
		}
		return c.parkOnLists(keys, timeout, resp.NullArray(), tryPop)
	}
}

func cmdBLMove(c *callCtx) resp.Value {
	src, _ := c.args.String()
	dst, _ := c.args.String()
	from, _ := c.args.String()
	to, _ := c.args.String()
	srcHead, ok := parseEnd(from)
	if !ok {
		return errSyntax
	}
	dstHead, ok := parseEnd(to)
	if !ok {
		return errSyntax
	}
	timeout, errv := parseTimeout(c)
	if errv.IsError() {
		return errv
	}
	return c.blockingMove(src, dst, srcHead, dstHead, timeout)
}

func cmdBRPopLPush(c *callCtx) resp.Value {
	src, _ := c.args.String()
	dst, _ := c.args.String()
	timeout, errv := parseTimeout(c)
	if errv.IsError() {
		return errv
	}
	return c.blockingMove(src, dst, false, true, timeout)
}

func (c *callCtx) blockingMove(src, dst string, srcHead, dstHead bool, timeout time.Duration) resp.Value {
	if v, done := c.moveOne(src, dst, srcHead, dstHead); done {
		return v
	}
	if c.inMulti {
		return resp.Null()
	}
	try := func(key string) (resp.Value, bool) {
		return c.moveOne(src, dst, srcHead, dstHead)
	}
	return c.parkOnLists([]string{src}, timeout, resp.Null(), try)
}

func cmdBLMPop(c *callCtx) resp.Value {
	timeout, errv := parseTimeout(c)
	if errv.IsError() {
		return errv
	}
	keys, head, count, errv := parseMPopBody(c)
	if errv.IsError() {
		return errv
	}

	if v, done := c.mpopKeys(keys, head, count); done {
		return v
	}
	if c.inMulti {
		return resp.NullArray()
	}
	try := func(key string) (resp.Value, bool) {
		return c.mpopKeys([]string{key}, head, count)
	}
	return c.parkOnLists(keys, timeout, resp.NullArray(), try)
}
