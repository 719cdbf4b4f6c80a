package keyspace

import (
	"github.com/yndnr/keymesh-go/internal/datatype"
	"github.com/yndnr/keymesh-go/pkg/glob"
)

// MutationHook observes every effective write to a key. The engine uses
// it to wake blocking waiters and publish keyspace notifications.
type MutationHook func(db *Database, key string)

// Database is one logical keyspace.
type Database struct {
	Index int

	items    map[string]datatype.Value
	expires  map[string]int64
	versions map[string]uint64

	onMutate MutationHook
	cursors  *CursorStore
}

// New creates an empty database with the given index.
func New(index int) *Database {
	return &Database{
		Index:    index,
		items:    make(map[string]datatype.Value),
		expires:  make(map[string]int64),
		versions: make(map[string]uint64),
		cursors:  NewCursorStore(),
	}
}

// SetMutationHook installs the engine's mutation observer.
func (db *Database) SetMutationHook(hook MutationHook) { db.onMutate = hook }

// Cursors returns the database's scan-cursor store.
func (db *Database) Cursors() *CursorStore { return db.cursors }

// expireIfDue lazily deletes a key whose deadline has passed.
func (db *Database) expireIfDue(key string, nowMs int64) bool {
	at, ok := db.expires[key]
	if !ok || at > nowMs {
		return false
	}
	delete(db.items, key)
	delete(db.expires, key)
	db.bumpVersion(key)
	return true
}

// Get returns the live value for key, applying lazy expiry.
func (db *Database) Get(key string, nowMs int64) (datatype.Value, bool) {
	if db.expireIfDue(key, nowMs) {
		return nil, false
	}
	v, ok := db.items[key]
	return v, ok
}

// Exists reports whether key is live.
func (db *Database) Exists(key string, nowMs int64) bool {
	_, ok := db.Get(key, nowMs)
	return ok
}

// Set stores a value, clearing any TTL unless keepTTL.
func (db *Database) Set(key string, v datatype.Value, keepTTL bool) {
	db.items[key] = v
	if !keepTTL {
		delete(db.expires, key)
	}
	db.Bump(key)
}

// SetWithExpiry stores a value with an absolute deadline.
func (db *Database) SetWithExpiry(key string, v datatype.Value, atMs int64) {
	db.items[key] = v
	db.expires[key] = atMs
	db.Bump(key)
}

// Delete removes a key, reporting whether it existed.
func (db *Database) Delete(key string, nowMs int64) bool {
	if db.expireIfDue(key, nowMs) {
		return false
	}
	if _, ok := db.items[key]; !ok {
		return false
	}
	delete(db.items, key)
	delete(db.expires, key)
	db.Bump(key)
	return true
}

// DeleteIfEmpty drops the key when its container value became empty,
// maintaining the no-empty-containers invariant. String values are
// never dropped here.
func (db *Database) DeleteIfEmpty(key string) {
	v, ok := db.items[key]
	if !ok {
		return
	}
	if _, isString := v.(*datatype.String); isString {
		return
	}
	if v.Len() == 0 {
		delete(db.items, key)
		delete(db.expires, key)
	}
}

// Rename moves src to dst, carrying the TTL. The caller has verified
// src exists.
func (db *Database) Rename(src, dst string) {
	v := db.items[src]
	at, hadTTL := db.expires[src]
	delete(db.items, src)
	delete(db.expires, src)
	db.items[dst] = v
	if hadTTL {
		db.expires[dst] = at
	} else {
		delete(db.expires, dst)
	}
	db.Bump(src)
	db.Bump(dst)
}

// Expire sets an absolute deadline on a live key.
func (db *Database) Expire(key string, atMs, nowMs int64) bool {
	if !db.Exists(key, nowMs) {
		return false
	}
	if atMs <= nowMs {
		// Deadline already passed: expire immediately.
		delete(db.items, key)
		delete(db.expires, key)
		db.Bump(key)
		return true
	}
	db.expires[key] = atMs
	db.Bump(key)
	return true
}

// Persist clears a key's TTL, reporting whether one was removed.
func (db *Database) Persist(key string, nowMs int64) bool {
	if !db.Exists(key, nowMs) {
		return false
	}
	if _, ok := db.expires[key]; !ok {
		return false
	}
	delete(db.expires, key)
	db.Bump(key)
	return true
}

// TTL reports a key's remaining life in milliseconds: -2 when the key
// is missing, -1 when it has no deadline.
func (db *Database) TTL(key string, nowMs int64) int64 {
	if !db.Exists(key, nowMs) {
		return -2
	}
	at, ok := db.expires[key]
	if !ok {
		return -1
	}
	return at - nowMs
}

// ExpireTime returns the absolute deadline in milliseconds, with the
// same -2/-1 convention as TTL.
func (db *Database) ExpireTime(key string, nowMs int64) int64 {
	if !db.Exists(key, nowMs) {
		return -2
	}
	at, ok := db.expires[key]
	if !ok {
		return -1
	}
	return at
}

// Size returns the number of live keys.
func (db *Database) Size(nowMs int64) int64 {
	var n int64
	for key := range db.items {
		if at, ok := db.expires[key]; ok && at <= nowMs {
			continue
		}
		n++
	}
	return n
}

// ExpiresCount returns the number of keys carrying a TTL.
func (db *Database) ExpiresCount() int64 { return int64(len(db.expires)) }

// Keys returns the live keys matching the glob pattern.
func (db *Database) Keys(pattern string, nowMs int64) []string {
	var out []string
	for key := range db.items {
		if at, ok := db.expires[key]; ok && at <= nowMs {
			continue
		}
		if glob.Match(pattern, key) {
			out = append(out, key)
		}
	}
	return out
}

// RandomKey returns a live key chosen by pick, or false when empty.
func (db *Database) RandomKey(nowMs int64, pick func(n int) int) (string, bool) {
	live := make([]string, 0, len(db.items))
	for key := range db.items {
		if at, ok := db.expires[key]; ok && at <= nowMs {
			continue
		}
		live = append(live, key)
	}
	if len(live) == 0 {
		return "", false
	}
	return live[pick(len(live))], true
}

// Flush drops every key. Each dropped key is bumped first so that
// watches on them break and their blocking waiters re-check.
func (db *Database) Flush() {
	for key := range db.items {
		db.Bump(key)
	}
	db.items = make(map[string]datatype.Value)
	db.expires = make(map[string]int64)
}

// Bump advances a key's modification version and fires the mutation
// hook. Every effective write path ends up here.
func (db *Database) Bump(key string) {
	db.bumpVersion(key)
	if db.onMutate != nil {
		db.onMutate(db, key)
	}
}

func (db *Database) bumpVersion(key string) {
	db.versions[key]++
}

// Version returns a key's current modification version.
func (db *Database) Version(key string) uint64 { return db.versions[key] }

// Swap exchanges the contents of two databases (SWAPDB). Indexes stay.
func Swap(a, b *Database) {
	a.items, b.items = b.items, a.items
	a.expires, b.expires = b.expires, a.expires
	a.versions, b.versions = b.versions, a.versions
	a.cursors, b.cursors = b.cursors, a.cursors
}
