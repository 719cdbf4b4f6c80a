package engine

import (
	"strings"

	"github.com/yndnr/keymesh-go/internal/command"
	"github.com/yndnr/keymesh-go/internal/datatype"
	"github.com/yndnr/keymesh-go/internal/resp"
)

func (s *Server) installStringHandlers() {
	s.register("get", cmdGet)
	s.register("set", cmdSet)
	s.register("setnx", cmdSetNX)
	s.register("setex", cmdSetEXVariant(1000))
	s.register("psetex", cmdSetEXVariant(1))
	s.register("getset", cmdGetSet)
	s.register("getdel", cmdGetDel)
	s.register("getex", cmdGetEx)
	s.register("mget", cmdMGet)
	s.register("mset", cmdMSet)
	s.register("msetnx", cmdMSetNX)
	s.register("append", cmdAppend)
	s.register("strlen", cmdStrlen)
	s.register("substr", cmdGetRange)
	s.register("getrange", cmdGetRange)
	s.register("setrange", cmdSetRange)
	s.register("incr", cmdIncrBy(1, false))
	s.register("decr", cmdIncrBy(-1, false))
	s.register("incrby", cmdIncrBy(1, true))
	s.register("decrby", cmdIncrBy(-1, true))
	s.register("incrbyfloat", cmdIncrByFloat)
	s.register("setbit", cmdSetBit)
	s.register("getbit", cmdGetBit)
	s.register("bitcount", cmdBitCount)
	s.register("bitpos", cmdBitPos)
	s.register("bitop", cmdBitOp)
}

func cmdGet(c *callCtx) resp.Value {
	key, _ := c.args.String()
	str, ok, errv := c.lookupString(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Null()
	}
	return resp.BulkString(str.Bytes())
}

func cmdSet(c *callCtx) resp.Value {
	key, _ := c.args.String()
	value, err := c.args.Next()
	if err != nil {
		return errWrongArgs("set")
	}

	opts, err := command.Options(c.args,
		command.Opt{Token: "NX", Group: "cond"},
		command.Opt{Token: "XX", Group: "cond"},
		command.Opt{Token: "GET"},
		command.Opt{Token: "EX", Params: []command.ParamKind{command.ParamInt}, Group: "exp"},
		command.Opt{Token: "PX", Params: []command.ParamKind{command.ParamInt}, Group: "exp"},
		command.Opt{Token: "EXAT", Params: []command.ParamKind{command.ParamInt}, Group: "exp"},
		command.Opt{Token: "PXAT", Params: []command.ParamKind{command.ParamInt}, Group: "exp"},
		command.Opt{Token: "KEEPTTL", Group: "exp"},
	)
	if err != nil {
		return wireErr(err)
	}

	now := c.now()
	var expireAt int64
	if v, ok := opts.Int("EX"); ok {
		expireAt = now + v*1000
	}
	if v, ok := opts.Int("PX"); ok {
		expireAt = now + v
	}
	if v, ok := opts.Int("EXAT"); ok {
		expireAt = v * 1000
	}
	if v, ok := opts.Int("PXAT"); ok {
		expireAt = v
	}

	old, existed, errv := c.lookupString(key)
	if errv.IsError() && opts.Has("GET") {
		return errv
	}

	var oldReply resp.Value
	if opts.Has("GET") {
		if existed {
			oldReply = resp.BulkString(old.Bytes())
		} else {
			oldReply = resp.Null()
		}
	}

	if (opts.Has("NX") && existed) || (opts.Has("XX") && !existed) {
		if opts.Has("GET") {
			return oldReply
		}
		return resp.Null()
	}

	s := datatype.NewString(append([]byte(nil), value...))
	switch {
	case expireAt != 0:
		c.db().SetWithExpiry(key, s, expireAt)
	case opts.Has("KEEPTTL"):
		c.db().Set(key, s, true)
	default:
		c.db().Set(key, s, false)
	}
	c.srv.notifyKeyspaceEvent(c.sess.db, '$', "set", key)

	if opts.Has("GET") {
		return oldReply
	}
	return resp.OK
}

func cmdSetNX(c *callCtx) resp.Value {
	key, _ := c.args.String()
	value, _ := c.args.Next()
	if c.db().Exists(key, c.now()) {
		return resp.Integer(0)
	}
	c.db().Set(key, datatype.NewString(append([]byte(nil), value...)), false)
	c.srv.notifyKeyspaceEvent(c.sess.db, '$', "set", key)
	return resp.Integer(1)
}

// cmdSetEXVariant covers SETEX (unit ms=1000) and PSETEX (unit ms=1).
func cmdSetEXVariant(unitMs int64) handlerFunc {
	return func(c *callCtx) resp.Value {
		key, _ := c.args.String()
		ttl, err := c.args.Int()
		if err != nil {
			return wireErr(err)
		}
		value, _ := c.args.Next()
		if ttl <= 0 {
			return resp.Err("ERR", "invalid expire time in '"+c.spec.Name+"' command")
		}
		c.db().SetWithExpiry(key, datatype.NewString(append([]byte(nil), value...)), c.now()+ttl*unitMs)
		c.srv.notifyKeyspaceEvent(c.sess.db, '$', "set", key)
		return resp.OK
	}
}

func cmdGetSet(c *callCtx) resp.Value {
	key, _ := c.args.String()
	value, _ := c.args.Next()

	old, existed, errv := c.lookupString(key)
	if errv.IsError() {
		return errv
	}
	c.db().Set(key, datatype.NewString(append([]byte(nil), value...)), false)
	c.srv.notifyKeyspaceEvent(c.sess.db, '$', "set", key)
	if !existed {
		return resp.Null()
	}
	return resp.BulkString(old.Bytes())
}

func cmdGetDel(c *callCtx) resp.Value {
	key, _ := c.args.String()
	str, existed, errv := c.lookupString(key)
	if errv.IsError() {
		return errv
	}
	if !existed {
		return resp.Null()
	}
	out := append([]byte(nil), str.Bytes()...)
	c.db().Delete(key, c.now())
	c.srv.notifyKeyspaceEvent(c.sess.db, 'g', "del", key)
	return resp.BulkString(out)
}

func cmdGetEx(c *callCtx) resp.Value {
	key, _ := c.args.String()
	opts, err := command.Options(c.args,
		command.Opt{Token: "EX", Params: []command.ParamKind{command.ParamInt}, Group: "exp"},
		command.Opt{Token: "PX", Params: []command.ParamKind{command.ParamInt}, Group: "exp"},
		command.Opt{Token: "EXAT", Params: []command.ParamKind{command.ParamInt}, Group: "exp"},
		command.Opt{Token: "PXAT", Params: []command.ParamKind{command.ParamInt}, Group: "exp"},
		command.Opt{Token: "PERSIST", Group: "exp"},
	)
	if err != nil {
		return wireErr(err)
	}

	str, existed, errv := c.lookupString(key)
	if errv.IsError() {
		return errv
	}
	if !existed {
		return resp.Null()
	}

	now := c.now()
	switch {
	case opts.Has("PERSIST"):
		c.db().Persist(key, now)
	default:
		var at int64
		if v, ok := opts.Int("EX"); ok {
			at = now + v*1000
		}
		if v, ok := opts.Int("PX"); ok {
			at = now + v
		}
		if v, ok := opts.Int("EXAT"); ok {
			at = v * 1000
		}
		if v, ok := opts.Int("PXAT"); ok {
			at = v
		}
		if at != 0 {
			c.db().Expire(key, at, now)
		}
	}
	return resp.BulkString(str.Bytes())
}

func cmdMGet(c *callCtx) resp.Value {
	keys := c.args.RestStrings()
	elems := make([]resp.Value, 0, len(keys))
	for _, key := range keys {
		str, ok, errv := c.lookupString(key)
		if !ok || errv.IsError() {
			elems = append(elems, resp.Null())
			continue
		}
		elems = append(elems, resp.BulkString(str.Bytes()))
	}
	return resp.Array(elems...)
}

func cmdMSet(c *callCtx) resp.Value {
	pairs := c.args.Rest()
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return errWrongArgs("mset")
	}
	for i := 0; i < len(pairs); i += 2 {
		key := string(pairs[i])
		c.db().Set(key, datatype.NewString(append([]byte(nil), pairs[i+1]...)), false)
		c.srv.notifyKeyspaceEvent(c.sess.db, '$', "set", key)
	}
	return resp.OK
}

func cmdMSetNX(c *callCtx) resp.Value {
	pairs := c.args.Rest()
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return errWrongArgs("msetnx")
	}
	now := c.now()
	for i := 0; i < len(pairs); i += 2 {
		if c.db().Exists(string(pairs[i]), now) {
			return resp.Integer(0)
		}
	}
	for i := 0; i < len(pairs); i += 2 {
		key := string(pairs[i])
		c.db().Set(key, datatype.NewString(append([]byte(nil), pairs[i+1]...)), false)
		c.srv.notifyKeyspaceEvent(c.sess.db, '$', "set", key)
	}
	return resp.Integer(1)
}

func cmdAppend(c *callCtx) resp.Value {
	key, _ := c.args.String()
	value, _ := c.args.Next()

	str, existed, errv := c.lookupString(key)
	if errv.IsError() {
		return errv
	}
	if !existed {
		str = datatype.NewString(nil)
		c.db().Set(key, str, true)
	}
	n, err := str.Append(value)
	if err != nil {
		return wireErr(err)
	}
	c.wrote(key, '$', "append")
	return resp.Integer(int64(n))
}

func cmdStrlen(c *callCtx) resp.Value {
	key, _ := c.args.String()
	str, ok, errv := c.lookupString(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(str.Len()))
}

func cmdGetRange(c *callCtx) resp.Value {
	key, _ := c.args.String()
	start, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	end, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	str, ok, errv := c.lookupString(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.BulkText("")
	}
	return resp.BulkString(str.Range(start, end))
}

func cmdSetRange(c *callCtx) resp.Value {
	key, _ := c.args.String()
	offset, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	value, _ := c.args.Next()

	str, existed, errv := c.lookupString(key)
	if errv.IsError() {
		return errv
	}
	if !existed {
		if len(value) == 0 {
			return resp.Integer(0)
		}
		str = datatype.NewString(nil)
		c.db().Set(key, str, true)
	}
	n, err := str.SetRange(offset, value)
	if err != nil {
		return wireErr(err)
	}
	c.wrote(key, '$', "setrange")
	return resp.Integer(int64(n))
}

// cmdIncrBy covers INCR/DECR (fixed delta) and INCRBY/DECRBY.
func cmdIncrBy(sign int64, takesDelta bool) handlerFunc {
	return func(c *callCtx) resp.Value {
		key, _ := c.args.String()
		delta := int64(1)
		if takesDelta {
			v, err := c.args.Int()
			if err != nil {
				return wireErr(err)
			}
			delta = v
		}
		delta *= sign

		str, existed, errv := c.lookupString(key)
		if errv.IsError() {
			return errv
		}
		if !existed {
			str = datatype.NewStringInt(0)
			c.db().Set(key, str, true)
		}
		n, err := str.IncrBy(delta)
		if err != nil {
			return wireErr(err)
		}
		c.wrote(key, '$', "incrby")
		return resp.Integer(n)
	}
}

func cmdIncrByFloat(c *callCtx) resp.Value {
	key, _ := c.args.String()
	delta, err := c.args.Float()
	if err != nil {
		return wireErr(err)
	}

	str, existed, errv := c.lookupString(key)
	if errv.IsError() {
		return errv
	}
	if !existed {
		str = datatype.NewStringInt(0)
		c.db().Set(key, str, true)
	}
	v, err := str.IncrByFloat(delta)
	if err != nil {
		return wireErr(err)
	}
	c.wrote(key, '$', "incrbyfloat")
	return resp.BulkText(resp.FormatFloat(v))
}

func cmdSetBit(c *callCtx) resp.Value {
	key, _ := c.args.String()
	pos, err := c.args.Int()
	if err != nil || pos < 0 {
		return resp.Err("ERR", "bit offset is not an integer or out of range")
	}
	bit, err := c.args.Int()
	if err != nil || (bit != 0 && bit != 1) {
		return resp.Err("ERR", "bit is not an integer or out of range")
	}

	str, existed, errv := c.lookupString(key)
	if errv.IsError() {
		return errv
	}
	if !existed {
		str = datatype.NewString(nil)
		c.db().Set(key, str, true)
	}
	old, err := str.SetBit(pos, int(bit))
	if err != nil {
		return wireErr(err)
	}
	c.wrote(key, '$', "setbit")
	return resp.Integer(int64(old))
}

func cmdGetBit(c *callCtx) resp.Value {
	key, _ := c.args.String()
	pos, err := c.args.Int()
	if err != nil || pos < 0 {
		return resp.Err("ERR", "bit offset is not an integer or out of range")
	}
	str, ok, errv := c.lookupString(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(str.GetBit(pos)))
}

func cmdBitCount(c *callCtx) resp.Value {
	key, _ := c.args.String()

	start, end := int64(0), int64(-1)
	bitRange := false
	if c.args.More() {
		var err error
		start, err = c.args.Int()
		if err != nil {
			return wireErr(err)
		}
		end, err = c.args.Int()
		if err != nil {
			return wireErr(err)
		}
		if c.args.More() {
			unit, _ := c.args.String()
			switch strings.ToUpper(unit) {
			case "BYTE":
			case "BIT":
				bitRange = true
			default:
				return errSyntax
			}
		}
		if c.args.More() {
			return errSyntax
		}
	}

	str, ok, errv := c.lookupString(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(str.BitCount(start, end, bitRange))
}

func cmdBitPos(c *callCtx) resp.Value {
	key, _ := c.args.String()
	bit, err := c.args.Int()
	if err != nil || (bit != 0 && bit != 1) {
		return resp.Err("ERR", "The bit argument must be 1 or 0.")
	}

	start := int64(0)
	end := int64(-1)
	endGiven := false
	bitRange := false
	if c.args.More() {
		start, err = c.args.Int()
		if err != nil {
			return wireErr(err)
		}
	}
	if c.args.More() {
		end, err = c.args.Int()
		if err != nil {
			return wireErr(err)
		}
		endGiven = true
	}
	if c.args.More() {
		unit, _ := c.args.String()
		switch strings.ToUpper(unit) {
		case "BYTE":
		case "BIT":
			bitRange = true
		default:
			return errSyntax
		}
	}
	if c.args.More() {
		return errSyntax
	}

	str, ok, errv := c.lookupString(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		if bit == 0 {
			return resp.Integer(0)
		}
		return resp.Integer(-1)
	}

	pos := str.BitPos(int(bit), start, end, bitRange)
	// Searching for a clear bit from start 0 with no explicit end treats
	// the value as right-padded with zeros, so an all-ones payload
	// reports the first bit past it. With any other start the miss
	// stays -1.
	if pos == -1 && bit == 0 && !endGiven && start == 0 {
		pos = int64(str.Len()) * 8
	}
	return resp.Integer(pos)
}

func cmdBitOp(c *callCtx) resp.Value {
	op, _ := c.args.String()
	dest, _ := c.args.String()
	keys := c.args.RestStrings()
	if len(keys) == 0 {
		return errWrongArgs("bitop")
	}

	op = strings.ToUpper(op)
	if op == "NOT" && len(keys) != 1 {
		return resp.Err("ERR", "BITOP NOT must be called with a single source key.")
	}

	srcs := make([][]byte, len(keys))
	maxLen := 0
	for i, key := range keys {
		str, ok, errv := c.lookupString(key)
		if errv.IsError() {
			return errv
		}
		if ok {
			srcs[i] = str.Bytes()
		}
		if len(srcs[i]) > maxLen {
			maxLen = len(srcs[i])
		}
	}

	var out []byte
	switch op {
	case "NOT":
		out = make([]byte, len(srcs[0]))
		for i, b := range srcs[0] {
			out[i] = ^b
		}
	case "AND", "OR", "XOR":
		out = make([]byte, maxLen)
		for i := 0; i < maxLen; i++ {
			var acc byte
			for j, src := range srcs {
				var b byte
				if i < len(src) {
					b = src[i]
				}
				if j == 0 {
					acc = b
					continue
				}
				switch op {
				case "AND":
					acc &= b
				case "OR":
					acc |= b
				case "XOR":
					acc ^= b
				}
			}
			out[i] = acc
		}
	default:
		return errSyntax
	}

	if len(out) == 0 {
		c.db().Delete(dest, c.now())
		return resp.Integer(0)
	}
	c.db().Set(dest, datatype.NewString(out), false)
	c.srv.notifyKeyspaceEvent(c.sess.db, '$', "set", dest)
	return resp.Integer(int64(len(out)))
}
