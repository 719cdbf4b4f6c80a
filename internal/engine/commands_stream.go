package engine

import (
	"strings"
	"time"

	"github.com/yndnr/keymesh-go/internal/datatype"
	"github.com/yndnr/keymesh-go/internal/resp"
)

func (s *Server) installStreamHandlers() {
	s.register("xadd", cmdXAdd)
	s.register("xlen", cmdXLen)
	s.register("xrange", cmdXRange(false))
	s.register("xrevrange", cmdXRange(true))
	s.register("xread", cmdXRead)
	s.register("xdel", cmdXDel)
	s.register("xtrim", cmdXTrim)
	s.register("xsetid", cmdXSetID)
	s.register("xgroup", cmdXGroup)
	s.register("xreadgroup", cmdXReadGroup)
	s.register("xack", cmdXAck)
	s.register("xpending", cmdXPending)
	s.register("xclaim", cmdXClaim)
	s.register("xautoclaim", cmdXAutoClaim)
	s.register("xinfo", cmdXInfo)
}

var errStreamNoGroup = func(key, group string) resp.Value {
	return resp.Err("NOGROUP", "No such key '"+key+"' or consumer group '"+group+"' in XREADGROUP with GROUP option")
}

func cmdXAdd(c *callCtx) resp.Value {
	key, _ := c.args.String()

	nomkstream := false
	var trim *trimSpec
	var idRaw string
	for {
		tok, ok := c.args.Peek()
		if !ok {
			return errWrongArgs("xadd")
		}
		switch tok {
		case "NOMKSTREAM":
			c.args.Next()
			nomkstream = true
			continue
		case "MAXLEN", "MINID":
			ts, errv := parseTrimSpec(c)
			if errv.IsError() {
				return errv
			}
			trim = ts
			continue
		}
		idRaw, _ = c.args.String()
		break
	}

	fields := c.args.Rest()
	if len(fields) == 0 || len(fields)%2 != 0 {
		return errWrongArgs("xadd")
	}
	flat := make([][]byte, 0, len(fields))
	for _, f := range fields {
		flat = append(flat, append([]byte(nil), f...))
	}

	var explicit *datatype.StreamID
	autoSeq := false
	if idRaw != "*" {
		if strings.HasSuffix(idRaw, "-*") {
			id, err := datatype.ParseStreamID(strings.TrimSuffix(idRaw, "-*"), 0)
			if err != nil {
				return wireErr(err)
			}
			explicit = &id
			autoSeq = true
		} else {
			id, err := datatype.ParseStreamID(idRaw, 0)
			if err != nil {
				return wireErr(err)
			}
			explicit = &id
		}
	}

	st, existed, errv := c.lookupStream(key)
	if errv.IsError() {
		return errv
	}
	if !existed {
		if nomkstream {
			return resp.NullArray()
		}
		st = datatype.NewStream()
		c.db().Set(key, st, true)
	}

	id, err := st.Add(explicit, autoSeq, c.now(), flat)
	if err != nil {
		return wireErr(err)
	}
	if trim != nil {
		applyTrim(st, trim)
	}
	c.wrote(key, 't', "xadd")
	return resp.BulkText(id.String())
}

type trimSpec struct {
	byMinID bool
	maxLen  int64
	minID   datatype.StreamID
}

func parseTrimSpec(c *callCtx) (*trimSpec, resp.Value) {
	strategy, _ := c.args.String()
	// "=" and "~" are accepted; trimming is always exact here.
	if tok, ok := c.args.Peek(); ok && (tok == "=" || tok == "~") {
		c.args.Next()
	}
	ts := &trimSpec{}
	switch strings.ToUpper(strategy) {
	case "MAXLEN":
		n, err := c.args.Int()
		if err != nil || n < 0 {
			return nil, wireErr(err)
		}
		ts.maxLen = n
	case "MINID":
		raw, err := c.args.String()
		if err != nil {
			return nil, errSyntax
		}
		id, perr := datatype.ParseStreamID(raw, 0)
		if perr != nil {
			return nil, wireErr(perr)
		}
		ts.byMinID = true
		ts.minID = id
	default:
		return nil, errSyntax
	}
	// Optional LIMIT is parsed and ignored; exact trims bound work
	// already.
	if tok, ok := c.args.Peek(); ok && tok == "LIMIT" {
		c.args.Next()
		if _, err := c.args.Int(); err != nil {
			return nil, wireErr(err)
		}
	}
	return ts, resp.Value{}
}

func applyTrim(st *datatype.Stream, ts *trimSpec) int64 {
	if ts.byMinID {
		return st.TrimMinID(ts.minID)
	}
	return st.TrimMaxLen(ts.maxLen)
}

func cmdXLen(c *callCtx) resp.Value {
	key, _ := c.args.String()
	st, ok, errv := c.lookupStream(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	return resp.Integer(int64(st.Len()))
}

// parseRangeID parses XRANGE border IDs: "-", "+", "(id", "ms", "ms-seq".
func parseRangeID(raw string, isStart bool) (id datatype.StreamID, exclusive bool, errv resp.Value) {
	switch raw {
	case "-":
		return datatype.StreamID{}, false, resp.Value{}
	case "+":
		return datatype.StreamID{Ms: ^uint64(0), Seq: ^uint64(0)}, false, resp.Value{}
	}
	if strings.HasPrefix(raw, "(") {
		exclusive = true
		raw = raw[1:]
	}
	defSeq := uint64(0)
	if !isStart {
		defSeq = ^uint64(0)
	}
	parsed, err := datatype.ParseStreamID(raw, defSeq)
	if err != nil {
		return id, false, wireErr(err)
	}
	return parsed, exclusive, resp.Value{}
}

func cmdXRange(rev bool) handlerFunc {
	return func(c *callCtx) resp.Value {
		key, _ := c.args.String()
		loRaw, _ := c.args.String()
		hiRaw, _ := c.args.String()
		if rev {
			loRaw, hiRaw = hiRaw, loRaw
		}

		start, startExcl, errv := parseRangeID(loRaw, true)
		if errv.IsError() {
			return errv
		}
		end, endExcl, errv := parseRangeID(hiRaw, false)
		if errv.IsError() {
			return errv
		}
		if startExcl {
			start = start.Next()
		}
		if endExcl {
			if end == (datatype.StreamID{}) {
				return resp.Err("ERR", "invalid range item")
			}
			end = end.Prev()
		}

		count := int64(0)
		if c.args.More() {
			tok, _ := c.args.Peek()
			if tok != "COUNT" {
				return errSyntax
			}
			c.args.Next()
			v, err := c.args.Int()
			if err != nil {
				return wireErr(err)
			}
			count = v
		}

		st, ok, errv := c.lookupStream(key)
		if errv.IsError() {
			return errv
		}
		if !ok {
			return resp.Array()
		}
		return entriesReply(st.Range(start, end, count, rev))
	}
}

func cmdXDel(c *callCtx) resp.Value {
	key, _ := c.args.String()
	rawIDs := c.args.RestStrings()

	ids := make([]datatype.StreamID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := datatype.ParseStreamID(raw, 0)
		if err != nil {
			return wireErr(err)
		}
		ids = append(ids, id)
	}

	st, ok, errv := c.lookupStream(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	removed := st.Delete(ids)
	if removed > 0 {
		c.wrote(key, 't', "xdel")
	}
	return resp.Integer(removed)
}

func cmdXTrim(c *callCtx) resp.Value {
	key, _ := c.args.String()
	ts, errv := parseTrimSpec(c)
	if errv.IsError() {
		return errv
	}
	st, ok, errv := c.lookupStream(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	removed := applyTrim(st, ts)
	if removed > 0 {
		c.wrote(key, 't', "xtrim")
	}
	return resp.Integer(removed)
}

func cmdXSetID(c *callCtx) resp.Value {
	key, _ := c.args.String()
	raw, _ := c.args.String()
	id, err := datatype.ParseStreamID(raw, 0)
	if err != nil {
		return wireErr(err)
	}

	st, ok, errv := c.lookupStream(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Err("ERR", "The XSETID command requires the key to exist.")
	}
	st.SetLastID(id)
	c.wrote(key, 't', "xsetid")
	return resp.OK
}

// parseStreamsArgs splits the STREAMS tail of XREAD/XREADGROUP into
// (keys, raw ids).
func parseStreamsArgs(c *callCtx) ([]string, []string, resp.Value) {
	rest := c.args.RestStrings()
	if len(rest) == 0 || len(rest)%2 != 0 {
		return nil, nil, resp.Err("ERR",
			"Unbalanced XREAD list of streams: for each stream key an ID or '$' must be specified.")
	}
	n := len(rest) / 2
	return rest[:n], rest[n:], resp.Value{}
}

func cmdXRead(c *callCtx) resp.Value {
	count := int64(0)
	var block time.Duration
	blocking := false

	for {
		tok, ok := c.args.Peek()
		if !ok {
			return errWrongArgs("xread")
		}
		switch tok {
		case "COUNT":
			c.args.Next()
			v, err := c.args.Int()
			if err != nil {
				return wireErr(err)
			}
			count = v
			continue
		case "BLOCK":
			c.args.Next()
			ms, err := c.args.Int()
			if err != nil || ms < 0 {
				return errTimeoutFmt
			}
			block = time.Duration(ms) * time.Millisecond
			blocking = true
			continue
		case "STREAMS":
			c.args.Next()
		default:
			return errSyntax
		}
		break
	}

	keys, rawIDs, errv := parseStreamsArgs(c)
	if errv.IsError() {
		return errv
	}

	// Resolve "$" to each stream's current last ID.
	fromIDs := make([]datatype.StreamID, len(keys))
	for i, raw := range rawIDs {
		if raw == "$" {
			st, ok, errv := c.lookupStream(keys[i])
			if errv.IsError() {
				return errv
			}
			if ok {
				fromIDs[i] = st.LastID()
			}
			continue
		}
		id, err := datatype.ParseStreamID(raw, 0)
		if err != nil {
			return wireErr(err)
		}
		fromIDs[i] = id
	}

	collect := func() (resp.Value, bool) {
		var perStream []resp.Value
		for i, key := range keys {
			st, ok, errv := c.lookupStream(key)
			if errv.IsError() || !ok {
				continue
			}
			entries := st.After(fromIDs[i], count)
			if len(entries) == 0 {
				continue
			}
			perStream = append(perStream, resp.Array(resp.BulkText(key), entriesReply(entries)))
		}
		if len(perStream) == 0 {
			return resp.Value{}, false
		}
		return resp.Array(perStream...), true
	}

	if v, ok := collect(); ok {
		return v
	}
	if !blocking || c.inMulti {
		return resp.NullArray()
	}
	try := func(key string) (resp.Value, bool) { return collect() }
	return c.parkOnLists(keys, block, resp.NullArray(), try)
}

func cmdXGroup(c *callCtx) resp.Value {
	sub, err := c.args.String()
	if err != nil {
		return errWrongArgs("xgroup")
	}

	switch strings.ToUpper(sub) {
	case "CREATE":
		key, _ := c.args.String()
		group, err := c.args.String()
		if err != nil {
			return errWrongArgs("xgroup")
		}
		idRaw, err := c.args.String()
		if err != nil {
			return errWrongArgs("xgroup")
		}
		mkstream := false
		if tok, ok := c.args.Peek(); ok && tok == "MKSTREAM" {
			c.args.Next()
			mkstream = true
		}

		st, existed, errv := c.lookupStream(key)
		if errv.IsError() {
			return errv
		}
		if !existed {
			if !mkstream {
				return resp.Err("ERR",
					"The XGROUP subcommand requires the key to exist. Note that for CREATE you may want to use the MKSTREAM option to create an empty stream automatically.")
			}
			st = datatype.NewStream()
			c.db().Set(key, st, true)
		}

		last := st.LastID()
		if idRaw != "$" {
			id, err := datatype.ParseStreamID(idRaw, 0)
			if err != nil {
				return wireErr(err)
			}
			last = id
		}
		if err := st.CreateGroup(group, last); err != nil {
			return resp.ErrString("BUSYGROUP Consumer Group name already exists")
		}
		c.wrote(key, 't', "xgroup-create")
		return resp.OK

	case "SETID":
		key, _ := c.args.String()
		group, err := c.args.String()
		if err != nil {
			return errWrongArgs("xgroup")
		}
		idRaw, err := c.args.String()
		if err != nil {
			return errWrongArgs("xgroup")
		}
		st, ok, errv := c.lookupStream(key)
		if errv.IsError() {
			return errv
		}
		if !ok {
			return errStreamNoGroup(key, group)
		}
		g, has := st.Group(group)
		if !has {
			return errStreamNoGroup(key, group)
		}
		last := st.LastID()
		if idRaw != "$" {
			id, err := datatype.ParseStreamID(idRaw, 0)
			if err != nil {
				return wireErr(err)
			}
			last = id
		}
		g.LastDelivered = last
		c.wrote(key, 't', "xgroup-setid")
		return resp.OK

	case "DESTROY":
		key, _ := c.args.String()
		group, err := c.args.String()
		if err != nil {
			return errWrongArgs("xgroup")
		}
		st, ok, errv := c.lookupStream(key)
		if errv.IsError() {
			return errv
		}
		if !ok || !st.DestroyGroup(group) {
			return resp.Integer(0)
		}
		c.wrote(key, 't', "xgroup-destroy")
		return resp.Integer(1)

	case "CREATECONSUMER":
		key, _ := c.args.String()
		group, _ := c.args.String()
		consumer, err := c.args.String()
		if err != nil {
			return errWrongArgs("xgroup")
		}
		st, ok, errv := c.lookupStream(key)
		if errv.IsError() {
			return errv
		}
		if !ok {
			return errStreamNoGroup(key, group)
		}
		g, has := st.Group(group)
		if !has {
			return errStreamNoGroup(key, group)
		}
		if _, exists := g.Consumers[consumer]; exists {
			return resp.Integer(0)
		}
		g.Consumer(consumer, c.now())
		return resp.Integer(1)

	case "DELCONSUMER":
		key, _ := c.args.String()
		group, _ := c.args.String()
		consumer, err := c.args.String()
		if err != nil {
			return errWrongArgs("xgroup")
		}
		st, ok, errv := c.lookupStream(key)
		if errv.IsError() {
			return errv
		}
		if !ok {
			return errStreamNoGroup(key, group)
		}
		g, has := st.Group(group)
		if !has {
			return errStreamNoGroup(key, group)
		}
		cons, exists := g.Consumers[consumer]
		if !exists {
			return resp.Integer(0)
		}
		pending := int64(len(cons.Pending))
		for id := range cons.Pending {
			delete(g.Pending, id)
		}
		delete(g.Consumers, consumer)
		return resp.Integer(pending)
	}
	return errUnknownSubcommand("xgroup", sub)
}

func cmdXReadGroup(c *callCtx) resp.Value {
	tok, ok := c.args.Peek()
	if !ok || tok != "GROUP" {
		return errSyntax
	}
	c.args.Next()
	group, _ := c.args.String()
	consumer, err := c.args.String()
	if err != nil {
		return errWrongArgs("xreadgroup")
	}

	count := int64(0)
	var block time.Duration
	blocking := false
	noAck := false
	for {
		tok, ok := c.args.Peek()
		if !ok {
			return errWrongArgs("xreadgroup")
		}
		switch tok {
		case "COUNT":
			c.args.Next()
			v, err := c.args.Int()
			if err != nil {
				return wireErr(err)
			}
			count = v
			continue
		case "BLOCK":
			c.args.Next()
			ms, err := c.args.Int()
			if err != nil || ms < 0 {
				return errTimeoutFmt
			}
			block = time.Duration(ms) * time.Millisecond
			blocking = true
			continue
		case "NOACK":
			c.args.Next()
			noAck = true
			continue
		case "STREAMS":
			c.args.Next()
		default:
			return errSyntax
		}
		break
	}

	keys, rawIDs, errv := parseStreamsArgs(c)
	if errv.IsError() {
		return errv
	}

	collect := func() (resp.Value, bool) {
		now := c.now()
		var perStream []resp.Value
		delivered := false
		for i, key := range keys {
			st, ok, errv := c.lookupStream(key)
			if errv.IsError() || !ok {
				return errStreamNoGroup(key, group), true
			}
			g, has := st.Group(group)
			if !has {
				return errStreamNoGroup(key, group), true
			}

			if rawIDs[i] == ">" {
				entries := st.After(g.LastDelivered, count)
				if len(entries) == 0 {
					continue
				}
				cons := g.Consumer(consumer, now)
				for _, e := range entries {
					g.LastDelivered = e.ID
					g.EntriesRead++
					if !noAck {
						g.Pending[e.ID] = &datatype.PendingEntry{
							ID: e.ID, Consumer: consumer, DeliveryTime: now, DeliveryCount: 1,
						}
						cons.Pending[e.ID] = struct{}{}
					}
				}
				delivered = true
				perStream = append(perStream, resp.Array(resp.BulkText(key), entriesReply(entries)))
				continue
			}

			// History replay: the consumer's own pending entries after
			// the given ID.
			from, err := datatype.ParseStreamID(rawIDs[i], 0)
			if err != nil {
				return wireErr(err), true
			}
			var replay []datatype.StreamEntry
			for _, id := range g.PendingIDs(consumer) {
				if !from.Less(id) {
					continue
				}
				if count > 0 && int64(len(replay)) >= count {
					break
				}
				if e, live := st.Entry(id); live {
					replay = append(replay, e)
				}
			}
			delivered = true
			perStream = append(perStream, resp.Array(resp.BulkText(key), entriesReply(replay)))
		}
		if !delivered {
			return resp.Value{}, false
		}
		return resp.Array(perStream...), true
	}

	if v, done := collect(); done {
		return v
	}
	if !blocking || c.inMulti {
		return resp.NullArray()
	}
	try := func(key string) (resp.Value, bool) { return collect() }
	return c.parkOnLists(keys, block, resp.NullArray(), try)
}

func cmdXAck(c *callCtx) resp.Value {
	key, _ := c.args.String()
	group, _ := c.args.String()
	rawIDs := c.args.RestStrings()

	st, ok, errv := c.lookupStream(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return resp.Integer(0)
	}
	g, has := st.Group(group)
	if !has {
		return resp.Integer(0)
	}
	acked := int64(0)
	for _, raw := range rawIDs {
		id, err := datatype.ParseStreamID(raw, 0)
		if err != nil {
			return wireErr(err)
		}
		if g.Ack(id) {
			acked++
		}
	}
	return resp.Integer(acked)
}

func cmdXPending(c *callCtx) resp.Value {
	key, _ := c.args.String()
	group, err := c.args.String()
	if err != nil {
		return errWrongArgs("xpending")
	}

	st, ok, errv := c.lookupStream(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return errStreamNoGroup(key, group)
	}
	g, has := st.Group(group)
	if !has {
		return errStreamNoGroup(key, group)
	}

	if !c.args.More() {
		// Summary form: count, min ID, max ID, per-consumer counts.
		ids := g.PendingIDs("")
		if len(ids) == 0 {
			return resp.Array(resp.Integer(0), resp.Null(), resp.Null(), resp.NullArray())
		}
		perConsumer := make(map[string]int64)
		for _, id := range ids {
			perConsumer[g.Pending[id].Consumer]++
		}
		var consumers []resp.Value
		for _, name := range sortedKeys(perConsumer) {
			consumers = append(consumers, resp.Array(
				resp.BulkText(name),
				resp.BulkText(intToString(perConsumer[name])),
			))
		}
		return resp.Array(
			resp.Integer(int64(len(ids))),
			resp.BulkText(ids[0].String()),
			resp.BulkText(ids[len(ids)-1].String()),
			resp.Array(consumers...),
		)
	}

	// Extended form: [IDLE ms] start end count [consumer].
	var idle int64
	if tok, ok := c.args.Peek(); ok && tok == "IDLE" {
		c.args.Next()
		v, err := c.args.Int()
		if err != nil {
			return wireErr(err)
		}
		idle = v
	}
	startRaw, _ := c.args.String()
	endRaw, _ := c.args.String()
	countV, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	var consumer string
	if c.args.More() {
		consumer, _ = c.args.String()
	}

	start, startExcl, errv := parseRangeID(startRaw, true)
	if errv.IsError() {
		return errv
	}
	end, endExcl, errv := parseRangeID(endRaw, false)
	if errv.IsError() {
		return errv
	}
	if startExcl {
		start = start.Next()
	}
	if endExcl {
		end = end.Prev()
	}

	now := c.now()
	var out []resp.Value
	for _, id := range g.PendingIDs(consumer) {
		if id.Less(start) || end.Less(id) {
			continue
		}
		pe := g.Pending[id]
		elapsed := now - pe.DeliveryTime
		if elapsed < idle {
			continue
		}
		out = append(out, resp.Array(
			resp.BulkText(id.String()),
			resp.BulkText(pe.Consumer),
			resp.Integer(elapsed),
			resp.Integer(pe.DeliveryCount),
		))
		if int64(len(out)) >= countV {
			break
		}
	}
	return resp.Array(out...)
}

func cmdXClaim(c *callCtx) resp.Value {
	key, _ := c.args.String()
	group, _ := c.args.String()
	consumer, _ := c.args.String()
	minIdle, err := c.args.Int()
	if err != nil {
		return resp.Err("ERR", "Invalid min-idle-time argument for XCLAIM")
	}

	var rawIDs []string
	justID := false
	force := false
	var setIdle, setTime, setRetry int64 = -1, -1, -1
	for c.args.More() {
		tok, _ := c.args.Peek()
		switch tok {
		case "JUSTID":
			c.args.Next()
			justID = true
		case "FORCE":
			c.args.Next()
			force = true
		case "IDLE":
			c.args.Next()
			if setIdle, err = c.args.Int(); err != nil {
				return wireErr(err)
			}
		case "TIME":
			c.args.Next()
			if setTime, err = c.args.Int(); err != nil {
				return wireErr(err)
			}
		case "RETRYCOUNT":
			c.args.Next()
			if setRetry, err = c.args.Int(); err != nil {
				return wireErr(err)
			}
		case "LASTID":
			c.args.Next()
			if _, err = c.args.String(); err != nil {
				return errSyntax
			}
		default:
			raw, _ := c.args.String()
			rawIDs = append(rawIDs, raw)
		}
	}
	if len(rawIDs) == 0 {
		return errWrongArgs("xclaim")
	}

	st, ok, errv := c.lookupStream(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return errStreamNoGroup(key, group)
	}
	g, has := st.Group(group)
	if !has {
		return errStreamNoGroup(key, group)
	}

	now := c.now()
	var out []resp.Value
	for _, raw := range rawIDs {
		id, err := datatype.ParseStreamID(raw, 0)
		if err != nil {
			return wireErr(err)
		}
		pe, pending := g.Pending[id]
		entry, live := st.Entry(id)

		if !pending {
			if !force || !live {
				continue
			}
			g.Pending[id] = &datatype.PendingEntry{ID: id, Consumer: consumer, DeliveryTime: now, DeliveryCount: 0}
			pe = g.Pending[id]
		}
		if now-pe.DeliveryTime < minIdle {
			continue
		}

		// Claiming a deleted entry drops it from the PEL.
		if !live {
			g.Ack(id)
			continue
		}

		g.Claim(id, consumer, now, false)
		if setIdle >= 0 {
			pe.DeliveryTime = now - setIdle
		}
		if setTime >= 0 {
			pe.DeliveryTime = setTime
		}
		if setRetry >= 0 {
			pe.DeliveryCount = setRetry
		}
		if justID {
			pe.DeliveryCount-- // JUSTID does not count as a delivery
			out = append(out, resp.BulkText(id.String()))
		} else {
			out = append(out, entryReply(entry))
		}
	}
	c.wrote(key, 't', "xclaim")
	return resp.Array(out...)
}

func cmdXAutoClaim(c *callCtx) resp.Value {
	key, _ := c.args.String()
	group, _ := c.args.String()
	consumer, _ := c.args.String()
	minIdle, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	startRaw, err := c.args.String()
	if err != nil {
		return errWrongArgs("xautoclaim")
	}
	start, _, errv := parseRangeID(startRaw, true)
	if errv.IsError() {
		return errv
	}

	count := int64(100)
	justID := false
	for c.args.More() {
		tok, _ := c.args.Peek()
		switch tok {
		case "COUNT":
			c.args.Next()
			if count, err = c.args.Int(); err != nil || count <= 0 {
				return wireErr(err)
			}
		case "JUSTID":
			c.args.Next()
			justID = true
		default:
			return errSyntax
		}
	}

	st, ok, errv := c.lookupStream(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return errStreamNoGroup(key, group)
	}
	g, has := st.Group(group)
	if !has {
		return errStreamNoGroup(key, group)
	}

	now := c.now()
	var claimed []resp.Value
	var deleted []resp.Value
	cursor := datatype.StreamID{}
	scanned := int64(0)

	// Pending entries scan in ascending ID order; equal idle times keep
	// that order, which makes the result deterministic.
	for _, id := range g.PendingIDs("") {
		if id.Less(start) {
			continue
		}
		if int64(len(claimed)) >= count {
			cursor = id
			break
		}
		scanned++
		pe := g.Pending[id]
		if now-pe.DeliveryTime < minIdle {
			continue
		}
		entry, live := st.Entry(id)
		if !live {
			g.Ack(id)
			deleted = append(deleted, resp.BulkText(id.String()))
			continue
		}
		g.Claim(id, consumer, now, false)
		if justID {
			pe.DeliveryCount--
			claimed = append(claimed, resp.BulkText(id.String()))
		} else {
			claimed = append(claimed, entryReply(entry))
		}
	}

	c.wrote(key, 't', "xautoclaim")
	return resp.Array(
		resp.BulkText(cursor.String()),
		resp.Array(claimed...),
		resp.Array(deleted...),
	)
}

func cmdXInfo(c *callCtx) resp.Value {
	sub, err := c.args.String()
	if err != nil {
		return errWrongArgs("xinfo")
	}
	key, err := c.args.String()
	if err != nil {
		return errWrongArgs("xinfo")
	}

	st, ok, errv := c.lookupStream(key)
	if errv.IsError() {
		return errv
	}
	if !ok {
		return errNoSuchKey
	}

	switch strings.ToUpper(sub) {
	case "STREAM":
		first := resp.Null()
		last := resp.Null()
		entries := st.Range(datatype.StreamID{}, datatype.StreamID{Ms: ^uint64(0), Seq: ^uint64(0)}, 1, false)
		if len(entries) > 0 {
			first = entryReply(entries[0])
		}
		revEntries := st.Range(datatype.StreamID{}, datatype.StreamID{Ms: ^uint64(0), Seq: ^uint64(0)}, 1, true)
		if len(revEntries) > 0 {
			last = entryReply(revEntries[0])
		}
		return resp.Map(
			resp.BulkText("length"), resp.Integer(int64(st.Len())),
			resp.BulkText("last-generated-id"), resp.BulkText(st.LastID().String()),
			resp.BulkText("max-deleted-entry-id"), resp.BulkText(st.MaxDeletedID().String()),
			resp.BulkText("entries-added"), resp.Integer(int64(st.EntriesAdded())),
			resp.BulkText("groups"), resp.Integer(int64(len(st.Groups()))),
			resp.BulkText("first-entry"), first,
			resp.BulkText("last-entry"), last,
		)

	case "GROUPS":
		var out []resp.Value
		for _, g := range st.Groups() {
			out = append(out, resp.Map(
				resp.BulkText("name"), resp.BulkText(g.Name),
				resp.BulkText("consumers"), resp.Integer(int64(len(g.Consumers))),
				resp.BulkText("pending"), resp.Integer(int64(len(g.Pending))),
				resp.BulkText("last-delivered-id"), resp.BulkText(g.LastDelivered.String()),
				resp.BulkText("entries-read"), resp.Integer(g.EntriesRead),
			))
		}
		return resp.Array(out...)

	case "CONSUMERS":
		group, err := c.args.String()
		if err != nil {
			return errWrongArgs("xinfo")
		}
		g, has := st.Group(group)
		if !has {
			return errStreamNoGroup(key, group)
		}
		now := c.now()
		var out []resp.Value
		for _, name := range sortedConsumerNames(g) {
			cons := g.Consumers[name]
			out = append(out, resp.Map(
				resp.BulkText("name"), resp.BulkText(name),
				resp.BulkText("pending"), resp.Integer(int64(len(cons.Pending))),
				resp.BulkText("idle"), resp.Integer(now-cons.SeenTime),
			))
		}
		return resp.Array(out...)
	}
	return errUnknownSubcommand("xinfo", sub)
}
