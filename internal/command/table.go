package command

import (
	"strconv"
	"strings"

	"github.com/yndnr/keymesh-go/internal/acl"
)

// ACL category names. The set is fixed; users reference them in
// +@cat / -@cat rules.
const (
	CatRead        = "read"
	CatWrite       = "write"
	CatKeyspace    = "keyspace"
	CatString      = "string"
	CatList        = "list"
	CatHash        = "hash"
	CatSet         = "set"
	CatSortedSet   = "sortedset"
	CatStream      = "stream"
	CatBitmap      = "bitmap"
	CatPubSub      = "pubsub"
	CatTransaction = "transaction"
	CatConnection  = "connection"
	CatAdmin       = "admin"
	CatFast        = "fast"
	CatSlow        = "slow"
	CatDangerous   = "dangerous"
	CatBlocking    = "blocking"
)

// numkeysKeys extracts keys for the "cmd numkeys key [key ...]"
// shape, with numkeys at the given position.
func numkeysKeys(numkeysPos int, mode acl.KeyMode) func(args [][]byte) []KeyRef {
	return func(args [][]byte) []KeyRef {
		if len(args) <= numkeysPos {
			return nil
		}
		n, err := strconv.Atoi(string(args[numkeysPos]))
		if err != nil || n < 0 {
			return nil
		}
		var refs []KeyRef
		for i := numkeysPos + 1; i <= numkeysPos+n && i < len(args); i++ {
			refs = append(refs, KeyRef{Pos: i, Mode: mode})
		}
		return refs
	}
}

// storeNumkeysKeys is numkeysKeys with a writable destination at
// position 1 (ZUNIONSTORE-family).
func storeNumkeysKeys(args [][]byte) []KeyRef {
	refs := []KeyRef{{Pos: 1, Mode: acl.KeyWrite}}
	refs = append(refs, numkeysKeys(2, acl.KeyRead)(args)...)
	return refs
}

// streamsKeys extracts the key half of "... STREAMS key [key ...] id
// [id ...]" for XREAD and XREADGROUP.
func streamsKeys(args [][]byte) []KeyRef {
	streamsAt := -1
	for i, a := range args {
		if strings.EqualFold(string(a), "streams") {
			streamsAt = i
			break
		}
	}
	if streamsAt < 0 {
		return nil
	}
	rest := len(args) - streamsAt - 1
	if rest <= 0 || rest%2 != 0 {
		return nil
	}
	var refs []KeyRef
	for i := streamsAt + 1; i <= streamsAt+rest/2; i++ {
		refs = append(refs, KeyRef{Pos: i, Mode: acl.KeyRead})
	}
	return refs
}

// Default is the server's registry, assembled at package init.
var Default = NewRegistry()

func reg(s Spec) *Spec { return Default.Register(&s) }

func init() {
	// Connection handling.
	reg(Spec{Name: "ping", Arity: -1, Flags: FlagFast | FlagPubSub | FlagPreAuth | FlagStale, Categories: []string{CatConnection, CatFast}})
	reg(Spec{Name: "echo", Arity: 2, Flags: FlagFast, Categories: []string{CatConnection, CatFast}})
	reg(Spec{Name: "select", Arity: 2, Flags: FlagFast | FlagLoading, Categories: []string{CatConnection, CatFast}})
	reg(Spec{Name: "swapdb", Arity: 3, Flags: FlagWrite | FlagFast, Categories: []string{CatKeyspace, CatWrite, CatFast, CatDangerous}})
	reg(Spec{Name: "auth", Arity: -2, Flags: FlagFast | FlagPreAuth | FlagLoading | FlagStale | FlagNoScript, Categories: []string{CatConnection, CatFast}})
	reg(Spec{Name: "hello", Arity: -1, Flags: FlagFast | FlagPreAuth | FlagLoading | FlagStale | FlagNoScript, Categories: []string{CatConnection, CatFast}})
	reg(Spec{Name: "reset", Arity: 1, Flags: FlagFast | FlagPreAuth | FlagPubSub | FlagLoading | FlagStale | FlagNoScript | FlagTxCtl, Categories: []string{CatConnection, CatFast}})
	reg(Spec{Name: "quit", Arity: -1, Flags: FlagFast | FlagPreAuth | FlagPubSub | FlagLoading | FlagStale | FlagNoScript, Categories: []string{CatConnection, CatFast}})
	reg(Spec{Name: "client", Arity: -2, Flags: FlagAdmin | FlagNoScript, Categories: []string{CatConnection, CatAdmin, CatSlow, CatDangerous}})

	// Server administration.
	reg(Spec{Name: "command", Arity: -1, Flags: FlagLoading | FlagStale, Categories: []string{CatConnection, CatSlow}})
	reg(Spec{Name: "config", Arity: -2, Flags: FlagAdmin | FlagNoScript | FlagLoading | FlagStale, Categories: []string{CatAdmin, CatSlow, CatDangerous}})
	reg(Spec{Name: "info", Arity: -1, Flags: FlagLoading | FlagStale, Categories: []string{CatSlow, CatDangerous}})
	reg(Spec{Name: "dbsize", Arity: 1, Flags: FlagReadonly | FlagFast, Categories: []string{CatKeyspace, CatRead, CatFast}})
	reg(Spec{Name: "flushdb", Arity: -1, Flags: FlagWrite, Categories: []string{CatKeyspace, CatWrite, CatSlow, CatDangerous}})
	reg(Spec{Name: "flushall", Arity: -1, Flags: FlagWrite, Categories: []string{CatKeyspace, CatWrite, CatSlow, CatDangerous}})
	reg(Spec{Name: "time", Arity: 1, Flags: FlagFast | FlagLoading | FlagStale, Categories: []string{CatSlow, CatFast}})
	reg(Spec{Name: "lolwut", Arity: -1, Flags: FlagReadonly | FlagFast, Categories: []string{CatRead, CatFast}})
	reg(Spec{Name: "shutdown", Arity: -1, Flags: FlagAdmin | FlagNoScript | FlagLoading | FlagStale, Categories: []string{CatAdmin, CatDangerous}})
	reg(Spec{Name: "debug", Arity: -2, Flags: FlagAdmin | FlagNoScript | FlagLoading | FlagStale, Categories: []string{CatAdmin, CatSlow, CatDangerous}})
	reg(Spec{Name: "acl", Arity: -2, Flags: FlagAdmin | FlagNoScript | FlagLoading | FlagStale, Categories: []string{CatAdmin, CatSlow, CatDangerous}})
	reg(Spec{Name: "wait", Arity: 3, Flags: FlagBlocking | FlagNoScript, Categories: []string{CatSlow, CatBlocking}})
	reg(Spec{Name: "object", Arity: -2, Flags: FlagReadonly, Categories: []string{CatKeyspace, CatRead, CatSlow}, FirstKey: 2, LastKey: 2, KeyStep: 1})
	reg(Spec{Name: "dump", Arity: 2, Flags: FlagReadonly, Categories: []string{CatKeyspace, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "restore", Arity: -4, Flags: FlagWrite, Categories: []string{CatKeyspace, CatWrite, CatSlow, CatDangerous}, FirstKey: 1, LastKey: 1, KeyStep: 1})

	// Generic keyspace.
	reg(Spec{Name: "del", Arity: -2, Flags: FlagWrite, Categories: []string{CatKeyspace, CatWrite, CatSlow}, FirstKey: 1, LastKey: -1, KeyStep: 1})
	reg(Spec{Name: "unlink", Arity: -2, Flags: FlagWrite | FlagFast, Categories: []string{CatKeyspace, CatWrite, CatFast}, FirstKey: 1, LastKey: -1, KeyStep: 1})
	reg(Spec{Name: "exists", Arity: -2, Flags: FlagReadonly | FlagFast, Categories: []string{CatKeyspace, CatRead, CatFast}, FirstKey: 1, LastKey: -1, KeyStep: 1})
	reg(Spec{Name: "type", Arity: 2, Flags: FlagReadonly | FlagFast, Categories: []string{CatKeyspace, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "keys", Arity: 2, Flags: FlagReadonly, Categories: []string{CatKeyspace, CatRead, CatSlow, CatDangerous}})
	reg(Spec{Name: "randomkey", Arity: 1, Flags: FlagReadonly, Categories: []string{CatKeyspace, CatRead, CatSlow}})
	reg(Spec{Name: "rename", Arity: 3, Flags: FlagWrite, Categories: []string{CatKeyspace, CatWrite, CatSlow}, FirstKey: 1, LastKey: 2, KeyStep: 1})
	reg(Spec{Name: "renamenx", Arity: 3, Flags: FlagWrite | FlagFast, Categories: []string{CatKeyspace, CatWrite, CatFast}, FirstKey: 1, LastKey: 2, KeyStep: 1})
	reg(Spec{Name: "copy", Arity: -3, Flags: FlagWrite, Categories: []string{CatKeyspace, CatWrite, CatSlow}, FirstKey: 1, LastKey: 2, KeyStep: 1})
	reg(Spec{Name: "move", Arity: 3, Flags: FlagWrite | FlagFast, Categories: []string{CatKeyspace, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "expire", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatKeyspace, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "pexpire", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatKeyspace, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "expireat", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatKeyspace, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "pexpireat", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatKeyspace, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "ttl", Arity: 2, Flags: FlagReadonly | FlagFast, Categories: []string{CatKeyspace, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "pttl", Arity: 2, Flags: FlagReadonly | FlagFast, Categories: []string{CatKeyspace, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "expiretime", Arity: 2, Flags: FlagReadonly | FlagFast, Categories: []string{CatKeyspace, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "pexpiretime", Arity: 2, Flags: FlagReadonly | FlagFast, Categories: []string{CatKeyspace, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "persist", Arity: 2, Flags: FlagWrite | FlagFast, Categories: []string{CatKeyspace, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "touch", Arity: -2, Flags: FlagReadonly | FlagFast, Categories: []string{CatKeyspace, CatRead, CatFast}, FirstKey: 1, LastKey: -1, KeyStep: 1})
	reg(Spec{Name: "scan", Arity: -2, Flags: FlagReadonly, Categories: []string{CatKeyspace, CatRead, CatSlow}})

	// Strings.
	reg(Spec{Name: "get", Arity: 2, Flags: FlagReadonly | FlagFast, Categories: []string{CatString, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "set", Arity: -3, Flags: FlagWrite, Categories: []string{CatString, CatWrite, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "setnx", Arity: 3, Flags: FlagWrite | FlagFast, Categories: []string{CatString, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "setex", Arity: 4, Flags: FlagWrite, Categories: []string{CatString, CatWrite, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "psetex", Arity: 4, Flags: FlagWrite, Categories: []string{CatString, CatWrite, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "getset", Arity: 3, Flags: FlagWrite | FlagFast, Categories: []string{CatString, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "getdel", Arity: 2, Flags: FlagWrite | FlagFast, Categories: []string{CatString, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "getex", Arity: -2, Flags: FlagWrite | FlagFast, Categories: []string{CatString, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "mget", Arity: -2, Flags: FlagReadonly | FlagFast, Categories: []string{CatString, CatRead, CatFast}, FirstKey: 1, LastKey: -1, KeyStep: 1})
	reg(Spec{Name: "mset", Arity: -3, Flags: FlagWrite, Categories: []string{CatString, CatWrite, CatSlow}, FirstKey: 1, LastKey: -1, KeyStep: 2})
	reg(Spec{Name: "msetnx", Arity: -3, Flags: FlagWrite, Categories: []string{CatString, CatWrite, CatSlow}, FirstKey: 1, LastKey: -1, KeyStep: 2})
	reg(Spec{Name: "append", Arity: 3, Flags: FlagWrite | FlagFast, Categories: []string{CatString, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "strlen", Arity: 2, Flags: FlagReadonly | FlagFast, Categories: []string{CatString, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "substr", Arity: 4, Flags: FlagReadonly, Categories: []string{CatString, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "getrange", Arity: 4, Flags: FlagReadonly, Categories: []string{CatString, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "setrange", Arity: 4, Flags: FlagWrite, Categories: []string{CatString, CatWrite, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "incr", Arity: 2, Flags: FlagWrite | FlagFast, Categories: []string{CatString, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "decr", Arity: 2, Flags: FlagWrite | FlagFast, Categories: []string{CatString, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "incrby", Arity: 3, Flags: FlagWrite | FlagFast, Categories: []string{CatString, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "decrby", Arity: 3, Flags: FlagWrite | FlagFast, Categories: []string{CatString, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "incrbyfloat", Arity: 3, Flags: FlagWrite | FlagFast, Categories: []string{CatString, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})

	// Bitmaps.
	reg(Spec{Name: "setbit", Arity: 4, Flags: FlagWrite, Categories: []string{CatBitmap, CatWrite, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "getbit", Arity: 3, Flags: FlagReadonly | FlagFast, Categories: []string{CatBitmap, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "bitcount", Arity: -2, Flags: FlagReadonly, Categories: []string{CatBitmap, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "bitpos", Arity: -3, Flags: FlagReadonly, Categories: []string{CatBitmap, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "bitop", Arity: -4, Flags: FlagWrite, Categories: []string{CatBitmap, CatWrite, CatSlow}, FirstKey: 2, LastKey: -1, KeyStep: 1, KeyMode: acl.KeyReadWrite})

	// Lists.
	reg(Spec{Name: "lpush", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatList, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "rpush", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatList, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "lpushx", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatList, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "rpushx", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatList, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "lpop", Arity: -2, Flags: FlagWrite | FlagFast, Categories: []string{CatList, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "rpop", Arity: -2, Flags: FlagWrite | FlagFast, Categories: []string{CatList, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "llen", Arity: 2, Flags: FlagReadonly | FlagFast, Categories: []string{CatList, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "lindex", Arity: 3, Flags: FlagReadonly, Categories: []string{CatList, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "lset", Arity: 4, Flags: FlagWrite, Categories: []string{CatList, CatWrite, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "lrange", Arity: 4, Flags: FlagReadonly, Categories: []string{CatList, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "ltrim", Arity: 4, Flags: FlagWrite, Categories: []string{CatList, CatWrite, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "linsert", Arity: 5, Flags: FlagWrite, Categories: []string{CatList, CatWrite, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "lrem", Arity: 4, Flags: FlagWrite, Categories: []string{CatList, CatWrite, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "lpos", Arity: -3, Flags: FlagReadonly, Categories: []string{CatList, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "rpoplpush", Arity: 3, Flags: FlagWrite, Categories: []string{CatList, CatWrite, CatSlow}, FirstKey: 1, LastKey: 2, KeyStep: 1})
	reg(Spec{Name: "lmove", Arity: 5, Flags: FlagWrite, Categories: []string{CatList, CatWrite, CatSlow}, FirstKey: 1, LastKey: 2, KeyStep: 1})
	reg(Spec{Name: "lmpop", Arity: -4, Flags: FlagWrite | FlagMovableKeys, Categories: []string{CatList, CatWrite, CatSlow}, KeyFinder: numkeysKeys(1, acl.KeyReadWrite)})
	reg(Spec{Name: "blpop", Arity: -3, Flags: FlagWrite | FlagBlocking | FlagNoScript, Categories: []string{CatList, CatWrite, CatBlocking, CatSlow}, FirstKey: 1, LastKey: -2, KeyStep: 1})
	reg(Spec{Name: "brpop", Arity: -3, Flags: FlagWrite | FlagBlocking | FlagNoScript, Categories: []string{CatList, CatWrite, CatBlocking, CatSlow}, FirstKey: 1, LastKey: -2, KeyStep: 1})
	reg(Spec{Name: "blmove", Arity: 6, Flags: FlagWrite | FlagBlocking | FlagNoScript, Categories: []string{CatList, CatWrite, CatBlocking, CatSlow}, FirstKey: 1, LastKey: 2, KeyStep: 1})
	reg(Spec{Name: "brpoplpush", Arity: 4, Flags: FlagWrite | FlagBlocking | FlagNoScript, Categories: []string{CatList, CatWrite, CatBlocking, CatSlow}, FirstKey: 1, LastKey: 2, KeyStep: 1})
	reg(Spec{Name: "blmpop", Arity: -5, Flags: FlagWrite | FlagBlocking | FlagNoScript | FlagMovableKeys, Categories: []string{CatList, CatWrite, CatBlocking, CatSlow}, KeyFinder: numkeysKeys(2, acl.KeyReadWrite)})

	// Hashes.
	reg(Spec{Name: "hset", Arity: -4, Flags: FlagWrite | FlagFast, Categories: []string{CatHash, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hsetnx", Arity: 4, Flags: FlagWrite | FlagFast, Categories: []string{CatHash, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hmset", Arity: -4, Flags: FlagWrite | FlagFast, Categories: []string{CatHash, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hget", Arity: 3, Flags: FlagReadonly | FlagFast, Categories: []string{CatHash, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hmget", Arity: -3, Flags: FlagReadonly | FlagFast, Categories: []string{CatHash, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hdel", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatHash, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hlen", Arity: 2, Flags: FlagReadonly | FlagFast, Categories: []string{CatHash, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hexists", Arity: 3, Flags: FlagReadonly | FlagFast, Categories: []string{CatHash, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hkeys", Arity: 2, Flags: FlagReadonly, Categories: []string{CatHash, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hvals", Arity: 2, Flags: FlagReadonly, Categories: []string{CatHash, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hgetall", Arity: 2, Flags: FlagReadonly, Categories: []string{CatHash, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hstrlen", Arity: 3, Flags: FlagReadonly | FlagFast, Categories: []string{CatHash, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hincrby", Arity: 4, Flags: FlagWrite | FlagFast, Categories: []string{CatHash, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hincrbyfloat", Arity: 4, Flags: FlagWrite | FlagFast, Categories: []string{CatHash, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hrandfield", Arity: -2, Flags: FlagReadonly, Categories: []string{CatHash, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "hscan", Arity: -3, Flags: FlagReadonly, Categories: []string{CatHash, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})

	// Sets.
	reg(Spec{Name: "sadd", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatSet, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "srem", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatSet, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "sismember", Arity: 3, Flags: FlagReadonly | FlagFast, Categories: []string{CatSet, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "smismember", Arity: -3, Flags: FlagReadonly | FlagFast, Categories: []string{CatSet, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "scard", Arity: 2, Flags: FlagReadonly | FlagFast, Categories: []string{CatSet, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "smembers", Arity: 2, Flags: FlagReadonly, Categories: []string{CatSet, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "spop", Arity: -2, Flags: FlagWrite | FlagFast, Categories: []string{CatSet, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "srandmember", Arity: -2, Flags: FlagReadonly, Categories: []string{CatSet, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "smove", Arity: 4, Flags: FlagWrite | FlagFast, Categories: []string{CatSet, CatWrite, CatFast}, FirstKey: 1, LastKey: 2, KeyStep: 1})
	reg(Spec{Name: "sunion", Arity: -2, Flags: FlagReadonly, Categories: []string{CatSet, CatRead, CatSlow}, FirstKey: 1, LastKey: -1, KeyStep: 1})
	reg(Spec{Name: "sinter", Arity: -2, Flags: FlagReadonly, Categories: []string{CatSet, CatRead, CatSlow}, FirstKey: 1, LastKey: -1, KeyStep: 1})
	reg(Spec{Name: "sdiff", Arity: -2, Flags: FlagReadonly, Categories: []string{CatSet, CatRead, CatSlow}, FirstKey: 1, LastKey: -1, KeyStep: 1})
	reg(Spec{Name: "sunionstore", Arity: -3, Flags: FlagWrite, Categories: []string{CatSet, CatWrite, CatSlow}, FirstKey: 1, LastKey: -1, KeyStep: 1})
	reg(Spec{Name: "sinterstore", Arity: -3, Flags: FlagWrite, Categories: []string{CatSet, CatWrite, CatSlow}, FirstKey: 1, LastKey: -1, KeyStep: 1})
	reg(Spec{Name: "sdiffstore", Arity: -3, Flags: FlagWrite, Categories: []string{CatSet, CatWrite, CatSlow}, FirstKey: 1, LastKey: -1, KeyStep: 1})
	reg(Spec{Name: "sintercard", Arity: -3, Flags: FlagReadonly | FlagMovableKeys, Categories: []string{CatSet, CatRead, CatSlow}, KeyFinder: numkeysKeys(1, acl.KeyRead)})
	reg(Spec{Name: "sscan", Arity: -3, Flags: FlagReadonly, Categories: []string{CatSet, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})

	// Sorted sets.
	reg(Spec{Name: "zadd", Arity: -4, Flags: FlagWrite | FlagFast, Categories: []string{CatSortedSet, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zincrby", Arity: 4, Flags: FlagWrite | FlagFast, Categories: []string{CatSortedSet, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zscore", Arity: 3, Flags: FlagReadonly | FlagFast, Categories: []string{CatSortedSet, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zmscore", Arity: -3, Flags: FlagReadonly | FlagFast, Categories: []string{CatSortedSet, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zcard", Arity: 2, Flags: FlagReadonly | FlagFast, Categories: []string{CatSortedSet, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zcount", Arity: 4, Flags: FlagReadonly | FlagFast, Categories: []string{CatSortedSet, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zlexcount", Arity: 4, Flags: FlagReadonly | FlagFast, Categories: []string{CatSortedSet, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zrank", Arity: -3, Flags: FlagReadonly | FlagFast, Categories: []string{CatSortedSet, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zrevrank", Arity: -3, Flags: FlagReadonly | FlagFast, Categories: []string{CatSortedSet, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zrange", Arity: -4, Flags: FlagReadonly, Categories: []string{CatSortedSet, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zrevrange", Arity: -4, Flags: FlagReadonly, Categories: []string{CatSortedSet, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zrangebyscore", Arity: -4, Flags: FlagReadonly, Categories: []string{CatSortedSet, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zrevrangebyscore", Arity: -4, Flags: FlagReadonly, Categories: []string{CatSortedSet, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zrangebylex", Arity: -4, Flags: FlagReadonly, Categories: []string{CatSortedSet, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zrevrangebylex", Arity: -4, Flags: FlagReadonly, Categories: []string{CatSortedSet, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zrangestore", Arity: -5, Flags: FlagWrite, Categories: []string{CatSortedSet, CatWrite, CatSlow}, FirstKey: 1, LastKey: 2, KeyStep: 1})
	reg(Spec{Name: "zrem", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatSortedSet, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zremrangebyrank", Arity: 4, Flags: FlagWrite, Categories: []string{CatSortedSet, CatWrite, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zremrangebyscore", Arity: 4, Flags: FlagWrite, Categories: []string{CatSortedSet, CatWrite, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zremrangebylex", Arity: 4, Flags: FlagWrite, Categories: []string{CatSortedSet, CatWrite, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zpopmin", Arity: -2, Flags: FlagWrite | FlagFast, Categories: []string{CatSortedSet, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zpopmax", Arity: -2, Flags: FlagWrite | FlagFast, Categories: []string{CatSortedSet, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zrandmember", Arity: -2, Flags: FlagReadonly, Categories: []string{CatSortedSet, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "zunion", Arity: -3, Flags: FlagReadonly | FlagMovableKeys, Categories: []string{CatSortedSet, CatRead, CatSlow}, KeyFinder: numkeysKeys(1, acl.KeyRead)})
	reg(Spec{Name: "zinter", Arity: -3, Flags: FlagReadonly | FlagMovableKeys, Categories: []string{CatSortedSet, CatRead, CatSlow}, KeyFinder: numkeysKeys(1, acl.KeyRead)})
	reg(Spec{Name: "zdiff", Arity: -3, Flags: FlagReadonly | FlagMovableKeys, Categories: []string{CatSortedSet, CatRead, CatSlow}, KeyFinder: numkeysKeys(1, acl.KeyRead)})
	reg(Spec{Name: "zunionstore", Arity: -4, Flags: FlagWrite | FlagMovableKeys, Categories: []string{CatSortedSet, CatWrite, CatSlow}, KeyFinder: storeNumkeysKeys})
	reg(Spec{Name: "zinterstore", Arity: -4, Flags: FlagWrite | FlagMovableKeys, Categories: []string{CatSortedSet, CatWrite, CatSlow}, KeyFinder: storeNumkeysKeys})
	reg(Spec{Name: "zdiffstore", Arity: -4, Flags: FlagWrite | FlagMovableKeys, Categories: []string{CatSortedSet, CatWrite, CatSlow}, KeyFinder: storeNumkeysKeys})
	reg(Spec{Name: "zintercard", Arity: -3, Flags: FlagReadonly | FlagMovableKeys, Categories: []string{CatSortedSet, CatRead, CatSlow}, KeyFinder: numkeysKeys(1, acl.KeyRead)})
	reg(Spec{Name: "zscan", Arity: -3, Flags: FlagReadonly, Categories: []string{CatSortedSet, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})

	// Streams.
	reg(Spec{Name: "xadd", Arity: -5, Flags: FlagWrite | FlagFast, Categories: []string{CatStream, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "xlen", Arity: 2, Flags: FlagReadonly | FlagFast, Categories: []string{CatStream, CatRead, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "xrange", Arity: -4, Flags: FlagReadonly, Categories: []string{CatStream, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "xrevrange", Arity: -4, Flags: FlagReadonly, Categories: []string{CatStream, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "xread", Arity: -4, Flags: FlagReadonly | FlagBlocking | FlagMovableKeys | FlagNoScript, Categories: []string{CatStream, CatRead, CatBlocking, CatSlow}, KeyFinder: streamsKeys})
	reg(Spec{Name: "xdel", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatStream, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "xtrim", Arity: -4, Flags: FlagWrite, Categories: []string{CatStream, CatWrite, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "xsetid", Arity: -3, Flags: FlagWrite | FlagFast, Categories: []string{CatStream, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "xgroup", Arity: -2, Flags: FlagWrite, Categories: []string{CatStream, CatWrite, CatSlow}, FirstKey: 2, LastKey: 2, KeyStep: 1})
	reg(Spec{Name: "xreadgroup", Arity: -7, Flags: FlagWrite | FlagBlocking | FlagMovableKeys | FlagNoScript, Categories: []string{CatStream, CatWrite, CatBlocking, CatSlow}, KeyFinder: streamsKeys})
	reg(Spec{Name: "xack", Arity: -4, Flags: FlagWrite | FlagFast, Categories: []string{CatStream, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "xpending", Arity: -3, Flags: FlagReadonly, Categories: []string{CatStream, CatRead, CatSlow}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "xclaim", Arity: -6, Flags: FlagWrite | FlagFast, Categories: []string{CatStream, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "xautoclaim", Arity: -7, Flags: FlagWrite | FlagFast, Categories: []string{CatStream, CatWrite, CatFast}, FirstKey: 1, LastKey: 1, KeyStep: 1})
	reg(Spec{Name: "xinfo", Arity: -2, Flags: FlagReadonly, Categories: []string{CatStream, CatRead, CatSlow}, FirstKey: 2, LastKey: 2, KeyStep: 1})

	// Pub/Sub.
	reg(Spec{Name: "subscribe", Arity: -2, Flags: FlagPubSub | FlagNoScript | FlagLoading | FlagStale, Categories: []string{CatPubSub, CatSlow}})
	reg(Spec{Name: "unsubscribe", Arity: -1, Flags: FlagPubSub | FlagNoScript | FlagLoading | FlagStale, Categories: []string{CatPubSub, CatSlow}})
	reg(Spec{Name: "psubscribe", Arity: -2, Flags: FlagPubSub | FlagNoScript | FlagLoading | FlagStale, Categories: []string{CatPubSub, CatSlow}})
	reg(Spec{Name: "punsubscribe", Arity: -1, Flags: FlagPubSub | FlagNoScript | FlagLoading | FlagStale, Categories: []string{CatPubSub, CatSlow}})
	reg(Spec{Name: "publish", Arity: 3, Flags: FlagPubSub | FlagLoading | FlagStale | FlagFast, Categories: []string{CatPubSub, CatFast}})
	reg(Spec{Name: "pubsub", Arity: -2, Flags: FlagPubSub | FlagLoading | FlagStale, Categories: []string{CatPubSub, CatSlow}})

	// Transactions.
	reg(Spec{Name: "multi", Arity: 1, Flags: FlagFast | FlagLoading | FlagStale | FlagNoScript | FlagTxCtl, Categories: []string{CatTransaction, CatFast}})
	reg(Spec{Name: "exec", Arity: 1, Flags: FlagNoScript | FlagLoading | FlagStale | FlagTxCtl, Categories: []string{CatTransaction, CatSlow}})
	reg(Spec{Name: "discard", Arity: 1, Flags: FlagFast | FlagLoading | FlagStale | FlagNoScript | FlagTxCtl, Categories: []string{CatTransaction, CatFast}})
	reg(Spec{Name: "watch", Arity: -2, Flags: FlagFast | FlagLoading | FlagStale | FlagNoScript | FlagTxCtl, Categories: []string{CatTransaction, CatFast}, FirstKey: 1, LastKey: -1, KeyStep: 1})
	reg(Spec{Name: "unwatch", Arity: 1, Flags: FlagFast | FlagLoading | FlagStale | FlagNoScript | FlagTxCtl, Categories: []string{CatTransaction, CatFast}})
}
