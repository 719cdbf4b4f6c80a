package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yndnr/keymesh-go/internal/command"
	"github.com/yndnr/keymesh-go/internal/datatype"
	"github.com/yndnr/keymesh-go/internal/resp"
)

func (s *Server) installZSetHandlers() {
	s.register("zadd", cmdZAdd)
	s.register("zincrby", cmdZIncrBy)
	s.register("zscore", cmdZScore)
	s.register("zmscore", cmdZMScore)
	s.register("zcard", cmdZCard)
	s.register("zcount", cmdZCount)
	s.register("zlexcount", cmdZLexCount)
	s.register("zrank", cmdZRank(false))
	s.register("zrevrank", cmdZRank(true))
	s.register("zrange", cmdZRange)
	s.register("zrevrange", cmdZRevRange)
	s.register("zrangebyscore", cmdZRangeByScore(false))
	s.register("zrevrangebyscore", cmdZRangeByScore(true))
	s.register("zrangebylex", cmdZRangeByLex(false))
	s.register("zrevrangebylex", cmdZRangeByLex(true))
	s.register("zrangestore", cmdZRangeStore)
	s.register("zrem", cmdZRem)
	s.register("zremrangebyrank", cmdZRemRangeByRank)
	s.register("zremrangebyscore", cmdZRemRangeByScore)
	s.register("zremrangebylex", cmdZRemRangeByLex)
	s.register("zpopmin", cmdZPop(false))
	s.register("zpopmax", cmdZPop(true))
	s.register("zrandmember", cmdZRandMember)
	s.register("zunion", cmdZCombine(aggUnion, false))
	s.register("zinter", cmdZCombine(aggInter, false))
	s.register("zdiff", cmdZCombine(aggDiff, false))
	s.register("zunionstore", cmdZCombine(aggUnion, true))
	s.register("zinterstore", cmdZCombine(aggInter, true))
	s.register("zdiffstore", cmdZCombine(aggDiff, true))
	s.register("zintercard", cmdZInterCard)
	s.register("zscan", cmdZScan)
}

func cmdZAdd(c *callCtx) resp.Value {
	key, _ := c.args.String()

	var nx, xx, gt, lt, ch, incr bool
scanFlags:
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
		case "CH":
			ch = true
		case "INCR":
			incr = true
		default:
			break scanFlags
		}
		c.args.Next()
	}
	if nx && xx || gt && lt || nx && (gt || lt) {
		return resp.Err("ERR", "GT, LT, and/or NX options at the same time are not compatible")
	}

	rest := c.args.Rest()
	if len(rest) == 0 || len(rest)%2 != 0 || (incr && len(rest) != 2) {
		return errSyntax
	}

	type pair struct {
		score  float64
		member string
	}
	pairs := make([]pair, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		score, err := parseScore(string(rest[i]))
		if err != nil {
			return resp.Err("ERR", "value is not a valid float")
		}
		pairs = append(pairs, pair{score, string(rest[i+1])})
	}

	z, existed, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	if !existed {
		if xx {
			if incr {
				return resp.Null()
			}
			return resp.Integer(0)
		}
		z = datatype.NewSortedSet()
		c.db().Set(key, z, true)
	}

	var added, changed int64
	var incrResult float64
	incrSkipped := false
	for _, p := range pairs {
		old, has := z.Score(p.member)
		if has && nx || !has && xx {
			incrSkipped = incr
			continue
		}
		score := p.score
		if incr {
			if has {
				score = old + p.score
				if math.IsNaN(score) {
					return wireErr(datatype.ErrNaN)
				}
			}
			incrResult = score
		}
		if has && (gt && score <= old || lt && score >= old) {
			incrSkipped = incr
			continue
		}
		if z.Set(p.member, score) {
			added++
		} else if has && score != old {
			changed++
		}
	}
	c.wrote(key, 'z', "zadd")

	if incr {
		if incrSkipped {
			return resp.Null()
		}
		return resp.BulkText(resp.FormatFloat(incrResult))
	}
	if ch {
		return resp.Integer(added + changed)
	}
	return resp.Integer(added)
}

func parseScore(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "inf", "+inf", "infinity", "+infinity":
		return math.Inf(1), nil
	case "-inf", "-infinity":
		return math.Inf(-1), nil
	}
	f, err := parseFloatStrict(s)
	if err != nil || math.IsNaN(f) {
		return 0, datatype.ErrNotFloat
	}
	return f, nil
}

func cmdZIncrBy(c *callCtx) resp.Value {
	key, _ := c.args.String()
	deltaRaw, _ := c.args.String()
	member, _ := c.args.String()
	delta, err := parseScore(deltaRaw)
	if err != nil {
		return resp.Err("ERR", "value is not a valid float")
	}

	z, errv := c.getOrCreateZSet(key)
	if errv.IsError() {
		return errv
	}
	score, err := z.IncrBy(member, delta)
	if err != nil {
		c.db().DeleteIfEmpty(key)
		return wireErr(err)
	}
	c.wrote(key, 'z', "zincr")
	return resp.BulkText(resp.FormatFloat(score))
}

func cmdZScore(c *callCtx) resp.Value {
	key, _ := c.args.String()
	member, _ := c.args.String()
	z, ok, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Null()
	}
	score, has := z.Score(member)
	if !has {
		return resp.Null()
	}
	return resp.BulkText(resp.FormatFloat(score))
}

func cmdZMScore(c *callCtx) resp.Value {
	key, _ := c.args.String()
	members := c.args.RestStrings()
	z, ok, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	elems := make([]resp.Value, 0, len(members))
	for _, m := range members {
		if !ok {
			elems = append(elems, resp.Null())
			continue
		}
		if score, has := z.Score(m); has {
			elems = append(elems, resp.BulkText(resp.FormatFloat(score)))
		} else {
			elems = append(elems, resp.Null())
		}
	}
	return resp.Array(elems...)
}

func cmdZCard(c *callCtx) resp.Value {
	key, _ := c.args.String()
	z, ok, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(z.Len()))
}

func parseScoreRange(c *callCtx) (min, max datatype.ScoreBorder, errv resp.Value) {
	minRaw, _ := c.args.String()
	maxRaw, _ := c.args.String()
	min, err := datatype.ParseScoreBorder(minRaw)
	if err != nil {
		return min, max, resp.Err("ERR", err.Error())
	}
	max, err = datatype.ParseScoreBorder(maxRaw)
	if err != nil {
		return min, max, resp.Err("ERR", err.Error())
	}
	return min, max, resp.Value{}
}

func parseLexRange(c *callCtx) (min, max datatype.LexBorder, errv resp.Value) {
	minRaw, _ := c.args.String()
	maxRaw, _ := c.args.String()
	min, err := datatype.ParseLexBorder(minRaw)
	if err != nil {
		return min, max, resp.Err("ERR", err.Error())
	}
	max, err = datatype.ParseLexBorder(maxRaw)
	if err != nil {
		return min, max, resp.Err("ERR", err.Error())
	}
	return min, max, resp.Value{}
}

func cmdZCount(c *callCtx) resp.Value {
	key, _ := c.args.String()
	min, max, errv := parseScoreRange(c)
	if errv.IsError() {
		return errv
	}
	z, ok, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(z.Count(min, max))
}

func cmdZLexCount(c *callCtx) resp.Value {
	key, _ := c.args.String()
	min, max, errv := parseLexRange(c)
	if errv.IsError() {
		return errv
	}
	z, ok, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(z.LexCount(min, max))
}

func cmdZRank(reverse bool) handlerFunc {
	return func(c *callCtx) resp.Value {
		key, _ := c.args.String()
		member, _ := c.args.String()
		withScore := false
		if c.args.More() {
			tok, _ := c.args.Peek()
			if tok != "WITHSCORE" {
				return errSyntax
			}
			c.args.Next()
			withScore = true
		}

		z, ok, errv := c.lookupZSet(key)
		if errv.IsError() {
			return errv
		}
		if !ok {
			if withScore {
				return resp.NullArray()
			}
			return resp.Null()
		}
		rank, has := z.Rank(member, reverse)
		if !has {
			if withScore {
				return resp.NullArray()
			}
			return resp.Null()
		}
		if withScore {
			score, _ := z.Score(member)
			return resp.Array(resp.Integer(int64(rank)), resp.BulkText(resp.FormatFloat(score)))
		}
		return resp.Integer(int64(rank))
	}
}

// zRangeSpec is the parsed shape shared by ZRANGE and ZRANGESTORE.
type zRangeSpec struct {
	byScore, byLex, rev bool
	start, stop         string
	offset, count       int64
	limited             bool
	withScores          bool
}

func parseZRangeSpec(c *callCtx, allowWithScores bool) (zRangeSpec, resp.Value) {
	spec := zRangeSpec{count: -1}
	spec.start, _ = c.args.String()
	spec.stop, _ = c.args.String()

	for c.args.More() {
		tok, _ := c.args.Peek()
		switch tok {
		case "BYSCORE":
			spec.byScore = true
		case "BYLEX":
			spec.byLex = true
		case "REV":
			spec.rev = true
		case "LIMIT":
			c.args.Next()
			off, err := c.args.Int()
			if err != nil {
				return spec, wireErr(err)
			}
			cnt, err := c.args.Int()
			if err != nil {
				return spec, wireErr(err)
			}
			spec.offset, spec.count = off, cnt
			spec.limited = true
			continue
		case "WITHSCORES":
			if !allowWithScores {
				return spec, errSyntax
			}
			spec.withScores = true
		default:
			return spec, errSyntax
		}
		c.args.Next()
	}

	if spec.byScore && spec.byLex {
		return spec, errSyntax
	}
	if spec.limited && !spec.byScore && !spec.byLex {
		return spec, resp.Err("ERR", "syntax error, LIMIT is only supported in combination with either BYSCORE or BYLEX")
	}
	if spec.byLex && spec.withScores {
		return spec, errSyntax
	}
	return spec, resp.Value{}
}

// runZRange evaluates the parsed range against a sorted set.
func runZRange(z *datatype.SortedSet, spec zRangeSpec) ([]datatype.ScoredMember, resp.Value) {
	switch {
	case spec.byScore:
		lo, hi := spec.start, spec.stop
		if spec.rev {
			lo, hi = hi, lo
		}
		min, err := datatype.ParseScoreBorder(lo)
		if err != nil {
			return nil, resp.Err("ERR", err.Error())
		}
		max, err := datatype.ParseScoreBorder(hi)
		if err != nil {
			return nil, resp.Err("ERR", err.Error())
		}
		return z.RangeByScore(min, max, spec.offset, spec.count, spec.rev), resp.Value{}
	case spec.byLex:
		lo, hi := spec.start, spec.stop
		if spec.rev {
			lo, hi = hi, lo
		}
		min, err := datatype.ParseLexBorder(lo)
		if err != nil {
			return nil, resp.Err("ERR", err.Error())
		}
		max, err := datatype.ParseLexBorder(hi)
		if err != nil {
			return nil, resp.Err("ERR", err.Error())
		}
		return z.RangeByLex(min, max, spec.offset, spec.count, spec.rev), resp.Value{}
	default:
		start, err1 := parseInt(spec.start)
		stop, err2 := parseInt(spec.stop)
		if err1 != nil || err2 != nil {
			return nil, wireErr(command.ErrNotInteger)
		}
		return z.RangeByRank(start, stop, spec.rev), resp.Value{}
	}
}

func cmdZRange(c *callCtx) resp.Value {
	key, _ := c.args.String()
	spec, errv := parseZRangeSpec(c, true)
	if errv.IsError() {
		return errv
	}
	z, ok, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Array()
	}
	members, errv := runZRange(z, spec)
	if errv.IsError() {
		return errv
	}
	return scoredMembersReply(members, spec.withScores)
}

func cmdZRevRange(c *callCtx) resp.Value {
	key, _ := c.args.String()
	start, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	stop, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	withScores := false
	if c.args.More() {
		tok, _ := c.args.Peek()
		if tok != "WITHSCORES" {
			return errSyntax
		}
		c.args.Next()
		withScores = true
	}

	z, ok, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Array()
	}
	return scoredMembersReply(z.RangeByRank(start, stop, true), withScores)
}

func cmdZRangeByScore(reverse bool) handlerFunc {
	return func(c *callCtx) resp.Value {
		key, _ := c.args.String()
		loRaw, _ := c.args.String()
		hiRaw, _ := c.args.String()
		if reverse {
			loRaw, hiRaw = hiRaw, loRaw
		}
		min, err := datatype.ParseScoreBorder(loRaw)
		if err != nil {
			return resp.Err("ERR", err.Error())
		}
		max, err := datatype.ParseScoreBorder(hiRaw)
		if err != nil {
			return resp.Err("ERR", err.Error())
		}

		withScores := false
		offset, count := int64(0), int64(-1)
		for c.args.More() {
			tok, _ := c.args.Peek()
			switch tok {
			case "WITHSCORES":
				c.args.Next()
				withScores = true
			case "LIMIT":
				c.args.Next()
				var err error
				offset, err = c.args.Int()
				if err != nil {
					return wireErr(err)
				}
				count, err = c.args.Int()
				if err != nil {
					return wireErr(err)
				}
			default:
				return errSyntax
			}
		}

		z, ok, errv := c.lookupZSet(key)
		if errv.IsError() {
			return errv
		}
		if !ok {
			return resp.Array()
		}
		return scoredMembersReply(z.RangeByScore(min, max, offset, count, reverse), withScores)
	}
}

func cmdZRangeByLex(reverse bool) handlerFunc {
	return func(c *callCtx) resp.Value {
		key, _ := c.args.String()
		loRaw, _ := c.args.String()
		hiRaw, _ := c.args.String()
		if reverse {
			loRaw, hiRaw = hiRaw, loRaw
		}
		min, err := datatype.ParseLexBorder(loRaw)
		if err != nil {
			return resp.Err("ERR", err.Error())
		}
		max, err := datatype.ParseLexBorder(hiRaw)
		if err != nil {
			return resp.Err("ERR", err.Error())
		}

		offset, count := int64(0), int64(-1)
		if c.args.More() {
			tok, _ := c.args.Peek()
			if tok != "LIMIT" {
				return errSyntax
			}
			c.args.Next()
			offset, err = c.args.Int()
			if err != nil {
				return wireErr(err)
			}
			count, err = c.args.Int()
			if err != nil {
				return wireErr(err)
			}
		}

		z, ok, errv := c.lookupZSet(key)
		if errv.IsError() {
			return errv
		}
		if !ok {
			return resp.Array()
		}
		return scoredMembersReply(z.RangeByLex(min, max, offset, count, reverse), false)
	}
}

func cmdZRangeStore(c *callCtx) resp.Value {
	dest, _ := c.args.String()
	src, _ := c.args.String()
	spec, errv := parseZRangeSpec(c, false)
	if errv.IsError() {
		return errv
	}

	z, ok, errv := c.lookupZSet(src)
	if errv.IsError() {
		return errv
	}
	var members []datatype.ScoredMember
	if ok {
		members, errv = runZRange(z, spec)
		if errv.IsError() {
			return errv
		}
	}

	if len(members) == 0 {
		c.db().Delete(dest, c.now())
		return resp.Integer(0)
	}
	out := datatype.NewSortedSet()
	for _, m := range members {
		out.Set(m.Member, m.Score)
	}
	c.db().Set(dest, out, false)
	c.srv.notifyKeyspaceEvent(c.sess.db, 'z', "zrangestore", dest)
	return resp.Integer(int64(out.Len()))
}

func cmdZRem(c *callCtx) resp.Value {
	key, _ := c.args.String()
	members := c.args.RestStrings()

	z, ok, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	removed := int64(0)
	for _, m := range members {
		if z.Remove(m) {
			removed++
		}
	}
	if removed > 0 {
		c.wrote(key, 'z', "zrem")
	}
	return resp.Integer(removed)
}

func cmdZRemRangeByRank(c *callCtx) resp.Value {
	key, _ := c.args.String()
	start, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	stop, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}

	z, ok, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	members := z.RangeByRank(start, stop, false)
	for _, m := range members {
		z.Remove(m.Member)
	}
	if len(members) > 0 {
		c.wrote(key, 'z', "zremrangebyrank")
	}
	return resp.Integer(int64(len(members)))
}

func cmdZRemRangeByScore(c *callCtx) resp.Value {
	key, _ := c.args.String()
	min, max, errv := parseScoreRange(c)
	if errv.IsError() {
		return errv
	}
	z, ok, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	members := z.RangeByScore(min, max, 0, -1, false)
	for _, m := range members {
		z.Remove(m.Member)
	}
	if len(members) > 0 {
		c.wrote(key, 'z', "zremrangebyscore")
	}
	return resp.Integer(int64(len(members)))
}

func cmdZRemRangeByLex(c *callCtx) resp.Value {
	key, _ := c.args.String()
	min, max, errv := parseLexRange(c)
	if errv.IsError() {
		return errv
	}
	z, ok, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	members := z.RangeByLex(min, max, 0, -1, false)
	for _, m := range members {
		z.Remove(m.Member)
	}
	if len(members) > 0 {
		c.wrote(key, 'z', "zremrangebylex")
	}
	return resp.Integer(int64(len(members)))
}

func cmdZPop(maxEnd bool) handlerFunc {
	return func(c *callCtx) resp.Value {
		key, _ := c.args.String()
		count := int64(1)
		if c.args.More() {
			v, err := c.args.Int()
			if err != nil || v < 0 {
				return wireErr(command.ErrNotInteger)
			}
			count = v
		}

		z, ok, errv := c.lookupZSet(key)
		if errv.IsError() {
			return errv
		}
		if !ok {
			return resp.Array()
		}
		var popped []datatype.ScoredMember
		if maxEnd {
			popped = z.PopMax(count)
		} else {
			popped = z.PopMin(count)
		}
		if len(popped) > 0 {
			event := "zpopmin"
			if maxEnd {
				event = "zpopmax"
			}
			c.wrote(key, 'z', event)
		}
		return scoredMembersReply(popped, true)
	}
}

func cmdZRandMember(c *callCtx) resp.Value {
	key, _ := c.args.String()
	count := int64(1)
	withCount := false
	withScores := false
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
		if tok != "WITHSCORES" {
			return errSyntax
		}
		c.args.Next()
		withScores = true
	}

	z, ok, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		if withCount {
			return resp.Array()
		}
		return resp.Null()
	}

	picked := z.Random(count, c.pick)
	if !withCount {
		if len(picked) == 0 {
			return resp.Null()
		}
		return resp.BulkText(picked[0].Member)
	}
	return scoredMembersReply(picked, withScores)
}

type aggKind int

const (
	aggUnion aggKind = iota
	aggInter
	aggDiff
)

// cmdZCombine covers ZUNION/ZINTER/ZDIFF and their STORE variants,
// with WEIGHTS and AGGREGATE SUM|MIN|MAX.
func cmdZCombine(kind aggKind, store bool) handlerFunc {
	return func(c *callCtx) resp.Value {
		var dest string
		if store {
			dest, _ = c.args.String()
		}
		numkeys, err := c.args.Int()
		if err != nil || numkeys <= 0 {
			return resp.Err("ERR", "at least 1 input key is needed for "+strings.ToUpper(c.spec.Name))
		}
		if int64(c.args.Remaining()) < numkeys {
			return errSyntax
		}
		keys := make([]string, 0, numkeys)
		for i := int64(0); i < numkeys; i++ {
			k, _ := c.args.String()
			keys = append(keys, k)
		}

		weights := make([]float64, numkeys)
		for i := range weights {
			weights[i] = 1
		}
		aggregate := "sum"
		withScores := false
		for c.args.More() {
			tok, _ := c.args.Peek()
			switch tok {
			case "WEIGHTS":
				if kind == aggDiff {
					return errSyntax
				}
				c.args.Next()
				for i := int64(0); i < numkeys; i++ {
					w, err := c.args.Float()
					if err != nil {
						return resp.Err("ERR", "weight value is not a float")
					}
					weights[i] = w
				}
			case "AGGREGATE":
				if kind == aggDiff {
					return errSyntax
				}
				c.args.Next()
				a, err := c.args.String()
				if err != nil {
					return errSyntax
				}
				aggregate = strings.ToLower(a)
				if aggregate != "sum" && aggregate != "min" && aggregate != "max" {
					return errSyntax
				}
			case "WITHSCORES":
				if store {
					return errSyntax
				}
				c.args.Next()
				withScores = true
			default:
				return errSyntax
			}
		}

		// Inputs may be sorted sets or plain sets (members score 1).
		inputs := make([]map[string]float64, numkeys)
		for i, key := range keys {
			v, ok := c.lookup(key)
			if !ok {
				inputs[i] = map[string]float64{}
				continue
			}
			switch t := v.(type) {
			case *datatype.SortedSet:
				m := make(map[string]float64, t.Len())
				for _, sm := range t.Members() {
					m[sm.Member] = sm.Score
				}
				inputs[i] = m
			case *datatype.Set:
				m := make(map[string]float64, t.Len())
				for _, member := range t.Members() {
					m[member] = 1
				}
				inputs[i] = m
			default:
				return wireErr(datatype.ErrWrongType)
			}
		}

		result := make(map[string]float64)
		switch kind {
		case aggUnion:
			for i, in := range inputs {
				for member, score := range in {
					combineScore(result, member, score*weights[i], aggregate)
				}
			}
		case aggInter:
			for member, score := range inputs[0] {
				acc := score * weights[0]
				inAll := true
				for i := 1; i < len(inputs); i++ {
					s, ok := inputs[i][member]
					if !ok {
						inAll = false
						break
					}
					acc = aggApply(acc, s*weights[i], aggregate)
				}
				if inAll {
					result[member] = acc
				}
			}
		case aggDiff:
			for member, score := range inputs[0] {
				present := false
				for i := 1; i < len(inputs); i++ {
					if _, ok := inputs[i][member]; ok {
						present = true
						break
					}
				}
				if !present {
					result[member] = score
				}
			}
		}

		out := datatype.NewSortedSet()
		for member, score := range result {
			out.Set(member, score)
		}

		if store {
			if out.Len() == 0 {
				c.db().Delete(dest, c.now())
				return resp.Integer(0)
			}
			c.db().Set(dest, out, false)
			c.srv.notifyKeyspaceEvent(c.sess.db, 'z', strings.ToLower(c.spec.Name), dest)
			return resp.Integer(int64(out.Len()))
		}
		return scoredMembersReply(out.Members(), withScores)
	}
}

func combineScore(result map[string]float64, member string, score float64, aggregate string) {
	if old, ok := result[member]; ok {
		result[member] = aggApply(old, score, aggregate)
		return
	}
	result[member] = score
}

func aggApply(a, b float64, aggregate string) float64 {
	switch aggregate {
	case "min":
		return math.Min(a, b)
	case "max":
		return math.Max(a, b)
	}
	s := a + b
	if math.IsNaN(s) {
		// inf + -inf aggregates to 0 upstream.
		return 0
	}
	return s
}

func cmdZInterCard(c *callCtx) resp.Value {
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

	sets := make([]*datatype.SortedSet, len(keys))
	for i, key := range keys {
		z, ok, errv := c.lookupZSet(key)
		if errv.IsError() {
			return errv
		}
		if !ok {
			return resp.Integer(0)
		}
		sets[i] = z
	}

	count := int64(0)
	for _, sm := range sets[0].Members() {
		inAll := true
		for _, z := range sets[1:] {
			if _, ok := z.Score(sm.Member); !ok {
				inAll = false
				break
			}
		}
		if inAll {
			count++
			if limit >= 0 && count >= limit {
				break
			}
		}
	}
	return resp.Integer(count)
}

func cmdZScan(c *callCtx) resp.Value {
	key, _ := c.args.String()
	cursor, match, count, extra, errv := parseScanOpts(c)
	if errv.IsError() {
		return errv
	}
	if len(extra) != 0 {
		return errSyntax
	}

	z, ok, errv := c.lookupZSet(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return scanReply(0, nil)
	}

	snapshot := func() []string {
		members := z.Members()
		names := make([]string, 0, len(members))
		for _, m := range members {
			names = append(names, m.Member)
		}
		sort.Strings(names)
		return names
	}
	live := func(m string) bool {
		_, has := z.Score(m)
		return has
	}
	members, next := containerScan(c, cursor, match, count, snapshot, live)
	elems := make([]resp.Value, 0, len(members)*2)
	for _, m := range members {
		score, _ := z.Score(m)
		elems = append(elems, resp.BulkText(m), resp.BulkText(resp.FormatFloat(score)))
	}
	return scanReply(next, elems)
}

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, command.ErrNotInteger
	}
	return n, nil
}

func parseFloatStrict(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, command.ErrNotFloat
	}
	return f, nil
}
