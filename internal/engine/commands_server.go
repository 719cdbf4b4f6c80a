package engine

import (
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/yndnr/keymesh-go/internal/command"
	"github.com/yndnr/keymesh-go/internal/infra/buildinfo"
	"github.com/yndnr/keymesh-go/internal/resp"
)

func (s *Server) installServerHandlers() {
	s.register("command", cmdCommand)
	s.register("config", cmdConfig)
	s.register("info", cmdInfo)
	s.register("time", cmdTime)
	s.register("lolwut", cmdLolwut)
	s.register("shutdown", cmdShutdown)
	s.register("debug", cmdDebug)
	s.register("wait", cmdWait)
}

// commandInfoReply renders one COMMAND INFO row.
func commandInfoReply(spec *command.Spec) resp.Value {
	var flags []resp.Value
	if spec.Flags.Has(command.FlagWrite) {
		flags = append(flags, resp.SimpleString("write"))
	}
	if spec.Flags.Has(command.FlagReadonly) {
		flags = append(flags, resp.SimpleString("readonly"))
	}
	if spec.Flags.Has(command.FlagAdmin) {
		flags = append(flags, resp.SimpleString("admin"))
	}
	if spec.Flags.Has(command.FlagFast) {
		flags = append(flags, resp.SimpleString("fast"))
	}
	if spec.Flags.Has(command.FlagBlocking) {
		flags = append(flags, resp.SimpleString("blocking"))
	}
	if spec.Flags.Has(command.FlagNoScript) {
		flags = append(flags, resp.SimpleString("noscript"))
	}
	if spec.Flags.Has(command.FlagMovableKeys) {
		flags = append(flags, resp.SimpleString("movablekeys"))
	}
	if spec.Flags.Has(command.FlagPubSub) {
		flags = append(flags, resp.SimpleString("pubsub"))
	}

	cats := make([]resp.Value, 0, len(spec.Categories))
	for _, cat := range spec.Categories {
		cats = append(cats, resp.SimpleString("@"+cat))
	}

	return resp.Array(
		resp.BulkText(spec.Name),
		resp.Integer(int64(spec.Arity)),
		resp.Array(flags...),
		resp.Integer(int64(spec.FirstKey)),
		resp.Integer(int64(spec.LastKey)),
		resp.Integer(int64(spec.KeyStep)),
		resp.Array(cats...),
	)
}

func cmdCommand(c *callCtx) resp.Value {
	if !c.args.More() {
		names := c.srv.registry.Names()
		sort.Strings(names)
		out := make([]resp.Value, 0, len(names))
		for _, name := range names {
			spec, _ := c.srv.registry.Lookup(name)
			out = append(out, commandInfoReply(spec))
		}
		return resp.Array(out...)
	}

	sub, _ := c.args.String()
	switch strings.ToUpper(sub) {
	case "COUNT":
		return resp.Integer(int64(c.srv.registry.Count()))
	case "LIST":
		names := c.srv.registry.Names()
		sort.Strings(names)
		return resp.BulkArrayStrings(names)
	case "INFO":
		names := c.args.RestStrings()
		if len(names) == 0 {
			names = c.srv.registry.Names()
			sort.Strings(names)
		}
		out := make([]resp.Value, 0, len(names))
		for _, name := range names {
			spec, ok := c.srv.registry.Lookup(name)
			if !ok {
				out = append(out, resp.NullArray())
				continue
			}
			out = append(out, commandInfoReply(spec))
		}
		return resp.Array(out...)
	case "DOCS":
		// Minimal form: name -> {summary, arity}.
		names := c.args.RestStrings()
		if len(names) == 0 {
			names = c.srv.registry.Names()
			sort.Strings(names)
		}
		pairs := make([]resp.Value, 0, len(names)*2)
		for _, name := range names {
			spec, ok := c.srv.registry.Lookup(name)
			if !ok {
				continue
			}
			pairs = append(pairs,
				resp.BulkText(spec.Name),
				resp.Map(
					resp.BulkText("arity"), resp.Integer(int64(spec.Arity)),
				),
			)
		}
		return resp.Map(pairs...)
	case "GETKEYS":
		rest := c.args.Rest()
		if len(rest) == 0 {
			return errUnknownSubcommand("command", sub)
		}
		spec, ok := c.srv.registry.Lookup(string(rest[0]))
		if !ok {
			return resp.Err("ERR", "Invalid command specified")
		}
		refs := spec.Keys(rest)
		if len(refs) == 0 {
			return resp.Err("ERR", "The command has no key arguments")
		}
		elems := make([]resp.Value, 0, len(refs))
		for _, ref := range refs {
			elems = append(elems, resp.BulkString(rest[ref.Pos]))
		}
		return resp.Array(elems...)
	}
	return errUnknownSubcommand("command", sub)
}

func cmdConfig(c *callCtx) resp.Value {
	sub, _ := c.args.String()
	switch strings.ToUpper(sub) {
	case "GET":
		patterns := c.args.RestStrings()
		if len(patterns) == 0 {
			return errWrongArgs("config|get")
		}
		seen := make(map[string]bool)
		var pairs []resp.Value
		for _, pattern := range patterns {
			for _, kv := range c.srv.config.match(pattern) {
				if seen[kv[0]] {
					continue
				}
				seen[kv[0]] = true
				pairs = append(pairs, resp.BulkText(kv[0]), resp.BulkText(kv[1]))
			}
		}
		return resp.Map(pairs...)

	case "SET":
		rest := c.args.Rest()
		if len(rest) == 0 || len(rest)%2 != 0 {
			return errWrongArgs("config|set")
		}
		// Validate every pair before applying any, so a bad pair
		// leaves the configuration untouched.
		trial := &runtimeConfig{schema: c.srv.config.schema, values: make(map[string]string)}
		for i := 0; i < len(rest); i += 2 {
			name := string(rest[i])
			if !c.srv.config.isMutable(name) {
				if _, known := c.srv.config.get(name); known {
					return resp.Err("ERR", "Unknown option or number of arguments for CONFIG SET - '"+name+"'")
				}
				return resp.Err("ERR", "Unknown option or number of arguments for CONFIG SET - '"+name+"'")
			}
			if err := trial.set(nil, name, string(rest[i+1])); err != nil {
				return resp.Err("ERR", "CONFIG SET failed - "+err.Error())
			}
		}
		for i := 0; i < len(rest); i += 2 {
			if err := c.srv.config.set(c.srv, string(rest[i]), string(rest[i+1])); err != nil {
				return resp.Err("ERR", "CONFIG SET failed - "+err.Error())
			}
		}
		return resp.OK

	case "RESETSTAT":
		c.srv.stats = stats{}
		return resp.OK

	case "REWRITE":
		return resp.Err("ERR", "The server is running without a config file")
	}
	return errUnknownSubcommand("config", sub)
}

func cmdInfo(c *callCtx) resp.Value {
	sections := make(map[string]bool)
	for _, s := range c.args.RestStrings() {
		sections[strings.ToLower(s)] = true
	}
	want := func(name string) bool {
		return len(sections) == 0 || sections[name] || sections["all"] || sections["everything"] || sections["default"]
	}

	srv := c.srv
	now := srv.clock()
	var b strings.Builder

	if want("server") {
		b.WriteString("# Server\r\n")
		b.WriteString("redis_version:7.4.0\r\n")
		b.WriteString("server_name:keymesh\r\n")
		b.WriteString("keymesh_version:" + buildinfo.Version + "\r\n")
		b.WriteString("redis_mode:standalone\r\n")
		b.WriteString("os:" + runtime.GOOS + "\r\n")
		b.WriteString("arch_bits:64\r\n")
		b.WriteString("run_id:" + srv.runID + "\r\n")
		b.WriteString("tcp_port:6379\r\n")
		b.WriteString("uptime_in_seconds:" + intToString(int64(now.Sub(srv.startTime).Seconds())) + "\r\n")
		b.WriteString("\r\n")
	}
	if want("clients") {
		b.WriteString("# Clients\r\n")
		b.WriteString("connected_clients:" + intToString(int64(srv.clients.Count())) + "\r\n")
		b.WriteString("blocked_clients:" + intToString(int64(srv.coord.BlockedCount())) + "\r\n")
		b.WriteString("\r\n")
	}
	if want("memory") {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		b.WriteString("# Memory\r\n")
		b.WriteString("used_memory:" + intToString(int64(mem.Alloc)) + "\r\n")
		b.WriteString("used_memory_human:" + intToString(int64(mem.Alloc/1024)) + "K\r\n")
		b.WriteString("maxmemory:" + intToString(srv.config.getInt("maxmemory")) + "\r\n")
		b.WriteString("maxmemory_policy:" + mustGet(srv.config, "maxmemory-policy") + "\r\n")
		b.WriteString("\r\n")
	}
	if want("stats") {
		b.WriteString("# Stats\r\n")
		b.WriteString("total_connections_received:" + intToString(srv.stats.totalConnections) + "\r\n")
		b.WriteString("total_commands_processed:" + intToString(srv.stats.totalCommands) + "\r\n")
		b.WriteString("expired_keys:" + intToString(srv.stats.expiredKeys) + "\r\n")
		b.WriteString("keyspace_hits:" + intToString(srv.stats.keyspaceHits) + "\r\n")
		b.WriteString("keyspace_misses:" + intToString(srv.stats.keyspaceMisses) + "\r\n")
		b.WriteString("pubsub_channels:" + intToString(int64(len(srv.hub.Channels("")))) + "\r\n")
		b.WriteString("\r\n")
	}
	if want("replication") {
		b.WriteString("# Replication\r\n")
		b.WriteString("role:master\r\n")
		b.WriteString("connected_slaves:0\r\n")
		b.WriteString("master_replid:" + srv.runID + "\r\n")
		b.WriteString("\r\n")
	}
	if want("keyspace") {
		b.WriteString("# Keyspace\r\n")
		nowMs := now.UnixMilli()
		for _, db := range srv.dbs {
			size := db.Size(nowMs)
			if size == 0 {
				continue
			}
			b.WriteString("db" + intToString(int64(db.Index)) + ":keys=" + intToString(size) +
				",expires=" + intToString(db.ExpiresCount()) + ",avg_ttl=0\r\n")
		}
		b.WriteString("\r\n")
	}

	return resp.Verbatim("txt", b.String())
}

func mustGet(rc *runtimeConfig, name string) string {
	v, _ := rc.get(name)
	return v
}

func cmdTime(c *callCtx) resp.Value {
	now := c.srv.clock()
	return resp.Array(
		resp.BulkText(intToString(now.Unix())),
		resp.BulkText(intToString(int64(now.Nanosecond())/1000)),
	)
}

func cmdLolwut(c *callCtx) resp.Value {
	return resp.BulkText("KeyMesh ver. " + buildinfo.Version + "\n")
}

func cmdShutdown(c *callCtx) resp.Value {
	// NOSAVE/SAVE are accepted; there is nothing to save.
	c.srv.logger.Info("shutdown requested", "client", c.sess.id)
	if c.srv.shutdownFn != nil {
		go c.srv.shutdownFn()
		return suppressedReply
	}
	return resp.Err("ERR", "shutdown is not wired on this server")
}

func cmdDebug(c *callCtx) resp.Value {
	sub, _ := c.args.String()
	switch strings.ToUpper(sub) {
	case "SLEEP":
		secs, err := c.args.Float()
		if err != nil {
			return wireErr(err)
		}
		// Sleeps with the command lock held, stalling the whole
		// server; that is the point of DEBUG SLEEP.
		time.Sleep(time.Duration(secs * float64(time.Second)))
		return resp.OK
	case "JMAP", "SET-ACTIVE-EXPIRE":
		if strings.EqualFold(sub, "SET-ACTIVE-EXPIRE") {
			v, err := c.args.Int()
			if err != nil {
				return wireErr(err)
			}
			val := "no"
			if v != 0 {
				val = "yes"
			}
			_ = c.srv.config.set(c.srv, "active-expire", val)
		}
		return resp.OK
	case "OBJECT":
		key, err := c.args.String()
		if err != nil {
			return errWrongArgs("debug")
		}
		v, ok := c.lookup(key)
		if !ok {
			return errNoSuchKey
		}
		return resp.SimpleString("Value at:0x0 refcount:1 encoding:" + v.Encoding() +
			" serializedlength:" + intToString(int64(v.Len())))
	case "STRINGMATCH-LEN":
		return resp.OK
	case "QUICKLIST-PACKED-THRESHOLD", "LISTPACK", "CHANGE-REPL-ID":
		return resp.OK
	}
	return errUnknownSubcommand("debug", sub)
}

// cmdWait reports replica acknowledgement; with no replication the
// answer is always zero, immediately.
func cmdWait(c *callCtx) resp.Value {
	if _, err := c.args.Int(); err != nil {
		return wireErr(err)
	}
	if _, err := c.args.Int(); err != nil {
		return wireErr(err)
	}
	return resp.Integer(0)
}
