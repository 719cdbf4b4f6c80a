package engine

import (
	"sort"

	"github.com/yndnr/keymesh-go/internal/datatype"
	"github.com/yndnr/keymesh-go/internal/resp"
)

func (s *Server) installSetHandlers() {
	s.register("sadd", cmdSAdd)
	s.register("srem", cmdSRem)
	s.register("sismember", cmdSIsMember)
	s.register("smismember", cmdSMIsMember)
	s.register("scard", cmdSCard)
	s.register("smembers", cmdSMembers)
	s.register("spop", cmdSPop)
	s.register("srandmember", cmdSRandMember)
	s.register("smove", cmdSMove)
	s.register("sunion", cmdSetCombine(datatype.Union, ""))
	s.register("sinter", cmdSetCombine(datatype.Intersect, ""))
	s.register("sdiff", cmdSetCombine(datatype.Diff, ""))
	s.register("sunionstore", cmdSetCombine(datatype.Union, "sunionstore"))
	s.register("sinterstore", cmdSetCombine(datatype.Intersect, "sinterstore"))
	s.register("sdiffstore", cmdSetCombine(datatype.Diff, "sdiffstore"))
	s.register("sintercard", cmdSInterCard)
	s.register("sscan", cmdSScan)
}

func cmdSAdd(c *callCtx) resp.Value {
	key, _ := c.args.String()
	members := c.args.Rest()
	if len(members) == 0 {
		return errWrongArgs("sadd")
	}

	set, errv := c.getOrCreateSet(key)
	if errv.IsError() {
		return errv
	}
	added := int64(0)
	for _, m := range members {
		if set.Add(string(m)) {
			added++
		}
	}
	c.wrote(key, 's', "sadd")
	return resp.Integer(added)
}

func cmdSRem(c *callCtx) resp.Value {
	key, _ := c.args.String()
	members := c.args.Rest()

	set, ok, errv := c.lookupSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	removed := int64(0)
	for _, m := range members {
		if set.Remove(string(m)) {
			removed++
		}
	}
	if removed > 0 {
		c.wrote(key, 's', "srem")
	}
	return resp.Integer(removed)
}

func cmdSIsMember(c *callCtx) resp.Value {
	key, _ := c.args.String()
	member, _ := c.args.String()
	set, ok, errv := c.lookupSet(key)
	if errv.IsError() {
		return errv
	}
	if ok && set.Has(member) {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdSMIsMember(c *callCtx) resp.Value {
	key, _ := c.args.String()
	members := c.args.RestStrings()

	set, ok, errv := c.lookupSet(key)
	if errv.IsError() {
		return errv
	}
	elems := make([]resp.Value, 0, len(members))
	for _, m := range members {
		if ok && set.Has(m) {
			elems = append(elems, resp.Integer(1))
		} else {
			elems = append(elems, resp.Integer(0))
		}
	}
	return resp.Array(elems...)
}

func cmdSCard(c *callCtx) resp.Value {
	key, _ := c.args.String()
	set, ok, errv := c.lookupSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(set.Len()))
}

func setReply(members []string) resp.Value {
	elems := make([]resp.Value, 0, len(members))
	for _, m := range members {
		elems = append(elems, resp.BulkText(m))
	}
	return resp.Set(elems...)
}

func cmdSMembers(c *callCtx) resp.Value {
	key, _ := c.args.String()
	set, ok, errv := c.lookupSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Set()
	}
	return setReply(set.Members())
}

func cmdSPop(c *callCtx) resp.Value {
	key, _ := c.args.String()
	count := int64(1)
	withCount := false
	if c.args.More() {
		v, err := c.args.Int()
		if err != nil || v < 0 {
			return resp.Err("ERR", "value is out of range, must be positive")
		}
		count = v
		withCount = true
	}

	set, ok, errv := c.lookupSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		if withCount {
			return resp.Set()
		}
		return resp.Null()
	}

	picked := set.Random(count, c.pick)
	for _, m := range picked {
		set.Remove(m)
	}
	if len(picked) > 0 {
		c.wrote(key, 's', "spop")
	}
	if !withCount {
		if len(picked) == 0 {
			return resp.Null()
		}
		return resp.BulkText(picked[0])
	}
	return setReply(picked)
}

func cmdSRandMember(c *callCtx) resp.Value {
	key, _ := c.args.String()
	count := int64(1)
	withCount := false
	if c.args.More() {
		v, err := c.args.Int()
		if err != nil {
			return wireErr(err)
		}
		count = v
		withCount = true
	}

	set, ok, errv := c.lookupSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		if withCount {
			return resp.Array()
		}
		return resp.Null()
	}

	picked := set.Random(count, c.pick)
	if !withCount {
		if len(picked) == 0 {
			return resp.Null()
		}
		return resp.BulkText(picked[0])
	}
	elems := make([]resp.Value, 0, len(picked))
	for _, m := range picked {
		elems = append(elems, resp.BulkText(m))
	}
	return resp.Array(elems...)
}

func cmdSMove(c *callCtx) resp.Value {
	src, _ := c.args.String()
	dst, _ := c.args.String()
	member, _ := c.args.String()

	srcSet, ok, errv := c.lookupSet(src)
	if errv.IsError() {
		return errv
	}
	if !ok || !srcSet.Has(member) {
		// The destination type still matters even when nothing moves.
		if _, _, errv := c.lookupSet(dst); errv.IsError() {
			return errv
		}
		return resp.Integer(0)
	}
	dstSet, errv := c.getOrCreateSet(dst)
	if errv.IsError() {
		return errv
	}

	srcSet.Remove(member)
	dstSet.Add(member)
	c.wrote(src, 's', "srem")
	c.wrote(dst, 's', "sadd")
	return resp.Integer(1)
}

// cmdSetCombine covers SUNION/SINTER/SDIFF and their STORE variants.
func cmdSetCombine(combine func(...*datatype.Set) *datatype.Set, storeEvent string) handlerFunc {
	return func(c *callCtx) resp.Value {
		var dest string
		if storeEvent != "" {
			dest, _ = c.args.String()
		}
		keys := c.args.RestStrings()
		if len(keys) == 0 {
			return errWrongArgs(c.spec.Name)
		}

		sets := make([]*datatype.Set, len(keys))
		for i, key := range keys {
			set, ok, errv := c.lookupSet(key)
			if errv.IsError() {
				return errv
			}
			if ok {
				sets[i] = set
			}
		}
		result := combine(sets...)

		if storeEvent == "" {
			return setReply(result.Members())
		}

		if result.Len() == 0 {
			c.db().Delete(dest, c.now())
			return resp.Integer(0)
		}
		c.db().Set(dest, result, false)
		c.srv.notifyKeyspaceEvent(c.sess.db, 's', storeEvent, dest)
		return resp.Integer(int64(result.Len()))
	}
}

func cmdSInterCard(c *callCtx) resp.Value {
	numkeys, err := c.args.Int()
	if err != nil || numkeys <= 0 {
		return resp.Err("ERR", "numkeys should be greater than 0")
	}
	if int64(c.args.Remaining()) < numkeys {
		return errSyntax
	}
	keys := make([]string, 0, numkeys)
	for i := int64(0); i < numkeys; i++ {
		k, _ := c.args.String()
		keys = append(keys, k)
	}
	limit := int64(-1)
	if c.args.More() {
		tok, _ := c.args.Peek()
		if tok != "LIMIT" {
			return errSyntax
		}
		c.args.Next()
		v, err := c.args.Int()
		if err != nil || v < 0 {
			return resp.Err("ERR", "LIMIT can't be negative")
		}
		limit = v
	}

	sets := make([]*datatype.Set, len(keys))
	for i, key := range keys {
		set, ok, errv := c.lookupSet(key)
		if errv.IsError() {
			return errv
		}
		if ok {
			sets[i] = set
		}
	}
	n := int64(datatype.Intersect(sets...).Len())
	if limit >= 0 && n > limit {
		n = limit
	}
	return resp.Integer(n)
}

func cmdSScan(c *callCtx) resp.Value {
	key, _ := c.args.String()
	cursor, match, count, extra, errv := parseScanOpts(c)
	if errv.IsError() {
		return errv
	}
	if len(extra) != 0 {
		return errSyntax
	}

	set, ok, errv := c.lookupSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return scanReply(0, nil)
	}

	snapshot := func() []string {
		members := set.Members()
		sort.Strings(members)
		return members
	}
	members, next := containerScan(c, cursor, match, count, snapshot, set.Has)
	elems := make([]resp.Value, 0, len(members))
	for _, m := range members {
		elems = append(elems, resp.BulkText(m))
	}
	return scanReply(next, elems)
}
