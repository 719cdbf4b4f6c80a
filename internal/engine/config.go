package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/yndnr/keymesh-go/pkg/glob"
)

// configKind types a runtime option's value.
type configKind int

const (
	configString configKind = iota
	configInt
	configBool // "yes"/"no" on the wire
	configEnum
)

// configOption is one recognized runtime option.
type configOption struct {
	name     string
	kind     configKind
	def      string
	mutable  bool
	enum     []string
	min, max int64
	onSet    func(s *Server, value string)
}

// runtimeConfig is the CONFIG GET/SET registry: lowercased names to
// string values, with a schema for validation and typed access.
type runtimeConfig struct {
	schema map[string]*configOption
	values map[string]string
}

func newRuntimeConfig() *runtimeConfig {
	rc := &runtimeConfig{
		schema: make(map[string]*configOption),
		values: make(map[string]string),
	}
	for _, opt := range []*configOption{
		{name: "maxmemory", kind: configInt, def: "0", mutable: true, min: 0, max: 1 << 62},
		{name: "maxmemory-policy", kind: configEnum, def: "noeviction", mutable: true,
			enum: []string{"noeviction", "allkeys-lru", "allkeys-random", "volatile-lru", "volatile-random", "volatile-ttl"}},
		{name: "maxclients", kind: configInt, def: "10000", mutable: true, min: 1, max: 1 << 31},
		{name: "timeout", kind: configInt, def: "0", mutable: true, min: 0, max: 1 << 31},
		{name: "tcp-keepalive", kind: configInt, def: "300", mutable: true, min: 0, max: 1 << 31},
		{name: "databases", kind: configInt, def: "16", mutable: false, min: 1, max: 16384},
		{name: "requirepass", kind: configString, def: "", mutable: true,
			onSet: func(s *Server, value string) { s.acl.SetDefaultPassword(value) }},
		{name: "appendonly", kind: configBool, def: "no", mutable: true},
		{name: "save", kind: configString, def: "", mutable: true},
		{name: "notify-keyspace-events", kind: configString, def: "", mutable: true,
			onSet: func(s *Server, value string) { s.notifyFlags = parseNotifyFlags(value) }},
		{name: "proto-max-bulk-len", kind: configInt, def: "536870912", mutable: true, min: 1024, max: 1 << 62},
		{name: "list-max-listpack-size", kind: configInt, def: "128", mutable: true, min: 1, max: 1 << 31},
		{name: "hash-max-listpack-entries", kind: configInt, def: "128", mutable: true, min: 0, max: 1 << 31},
		{name: "set-max-intset-entries", kind: configInt, def: "512", mutable: true, min: 0, max: 1 << 31},
		{name: "zset-max-listpack-entries", kind: configInt, def: "128", mutable: true, min: 0, max: 1 << 31},
		{name: "active-expire", kind: configBool, def: "yes", mutable: true},
	} {
		rc.schema[opt.name] = opt
		rc.values[opt.name] = opt.def
	}
	return rc
}

// get returns the value for an exact option name.
func (rc *runtimeConfig) get(name string) (string, bool) {
	v, ok := rc.values[strings.ToLower(name)]
	return v, ok
}

// getInt returns an integer option; the schema guarantees it parses.
func (rc *runtimeConfig) getInt(name string) int64 {
	v, _ := rc.values[strings.ToLower(name)]
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}

// getBool returns a yes/no option.
func (rc *runtimeConfig) getBool(name string) bool {
	v, _ := rc.values[strings.ToLower(name)]
	return v == "yes"
}

// match returns name/value pairs for a glob pattern, sorted by name.
func (rc *runtimeConfig) match(pattern string) [][2]string {
	var out [][2]string
	for name, value := range rc.values {
		if glob.Match(strings.ToLower(pattern), name) {
			out = append(out, [2]string{name, value})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// isMutable reports whether CONFIG SET may change the option.
func (rc *runtimeConfig) isMutable(name string) bool {
	opt, ok := rc.schema[strings.ToLower(name)]
	return ok && opt.mutable
}

// set validates and applies one option. The server pointer lets schema
// hooks propagate (requirepass, notification flags).
func (rc *runtimeConfig) set(s *Server, name, value string) error {
	name = strings.ToLower(name)
	opt, ok := rc.schema[name]
	if !ok {
		return fmt.Errorf("Unknown option or number of arguments for CONFIG SET - '%s'", name)
	}

	switch opt.kind {
	case configInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("argument couldn't be parsed into an integer")
		}
		if n < opt.min || n > opt.max {
			return fmt.Errorf("argument must be between %d and %d inclusive", opt.min, opt.max)
		}
	case configBool:
		v := strings.ToLower(value)
		if v != "yes" && v != "no" {
			return fmt.Errorf("argument must be 'yes' or 'no'")
		}
		value = v
	case configEnum:
		v := strings.ToLower(value)
		found := false
		for _, e := range opt.enum {
			if e == v {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("argument must be one of: %s", strings.Join(opt.enum, ", "))
		}
		value = v
	}

	rc.values[name] = value
	if opt.onSet != nil && s != nil {
		opt.onSet(s, value)
	}
	return nil
}

// Keyspace notification classes, a subset of flag letters sufficient
// for the event classes the engine emits.
type notifyFlags struct {
	keyspace bool // K: __keyspace@<db>__ channel
	keyevent bool // E: __keyevent@<db>__ channel
	classes  map[byte]bool
}

func parseNotifyFlags(spec string) notifyFlags {
	nf := notifyFlags{classes: make(map[byte]bool)}
	for i := 0; i < len(spec); i++ {
		switch c := spec[i]; c {
		case 'K':
			nf.keyspace = true
		case 'E':
			nf.keyevent = true
		case 'A':
			for _, class := range []byte("g$lshzxet") {
				nf.classes[class] = true
			}
		default:
			nf.classes[c] = true
		}
	}
	return nf
}

func (nf notifyFlags) enabled(class byte) bool {
	return (nf.keyspace || nf.keyevent) && nf.classes[class]
}
