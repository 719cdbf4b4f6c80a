package keyspace

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/keymesh-go/internal/datatype"
)

func strVal(s string) datatype.Value {
	return datatype.NewString([]byte(s))
}

func TestGetSetDelete(t *testing.T) {
	db := New(0)
	now := int64(1000)

	_, ok := db.Get("k", now)
	assert.False(t, ok)

	db.Set("k", strVal("v"), false)
	v, ok := db.Get("k", now)
	require.True(t, ok)
	assert.Equal(t, "string", v.TypeName())

	assert.True(t, db.Delete("k", now))
	assert.False(t, db.Delete("k", now))
	assert.False(t, db.Exists("k", now))
}

func TestLazyExpiry(t *testing.T) {
	db := New(0)

	db.SetWithExpiry("k", strVal("v"), 1050)
	assert.True(t, db.Exists("k", 1000))
	assert.Equal(t, int64(50), db.TTL("k", 1000))

	// Past the deadline the key is gone on access.
	assert.False(t, db.Exists("k", 1100))
	assert.Equal(t, int64(-2), db.TTL("k", 1100))
	assert.Equal(t, int64(0), db.Size(1100))
	assert.Equal(t, int64(0), db.ExpiresCount())
}

func TestExpirePersist(t *testing.T) {
	db := New(0)
	db.Set("k", strVal("v"), false)

	assert.Equal(t, int64(-1), db.TTL("k", 1000))
	assert.True(t, db.Expire("k", 2000, 1000))
	assert.Equal(t, int64(1000), db.TTL("k", 1000))

	assert.True(t, db.Persist("k", 1000))
	assert.False(t, db.Persist("k", 1000))
	assert.Equal(t, int64(-1), db.TTL("k", 1000))

	// Expiring with a past deadline deletes immediately.
	assert.True(t, db.Expire("k", 500, 1000))
	assert.False(t, db.Exists("k", 1000))
}

func TestSetClearsTTLUnlessKept(t *testing.T) {
	db := New(0)
	db.SetWithExpiry("k", strVal("a"), 2000)

	db.Set("k", strVal("b"), true)
	assert.Equal(t, int64(1000), db.TTL("k", 1000))

	db.Set("k", strVal("c"), false)
	assert.Equal(t, int64(-1), db.TTL("k", 1000))
}

func TestVersionsBumpOnMutation(t *testing.T) {
	db := New(0)
	v0 := db.Version("k")

	db.Set("k", strVal("a"), false)
	v1 := db.Version("k")
	assert.Greater(t, v1, v0)

	db.Delete("k", 0)
	assert.Greater(t, db.Version("k"), v1)
}

func TestMutationHook(t *testing.T) {
	db := New(0)
	var touched []string
	db.SetMutationHook(func(_ *Database, key string) {
		touched = append(touched, key)
	})

	db.Set("a", strVal("1"), false)
	db.Delete("a", 0)
	assert.Equal(t, []string{"a", "a"}, touched)
}

func TestRenameCarriesTTL(t *testing.T) {
	db := New(0)
	db.SetWithExpiry("src", strVal("v"), 5000)
	db.Set("dst", strVal("old"), false)

	db.Rename("src", "dst")
	assert.False(t, db.Exists("src", 1000))
	assert.Equal(t, int64(4000), db.TTL("dst", 1000))
}

func TestDeleteIfEmpty(t *testing.T) {
	db := New(0)

	l := datatype.NewList()
	db.Set("l", l, false)
	db.DeleteIfEmpty("l")
	assert.False(t, db.Exists("l", 0))

	// Strings survive even when empty.
	db.Set("s", strVal(""), false)
	db.DeleteIfEmpty("s")
	assert.True(t, db.Exists("s", 0))
}

func TestExpireCycle(t *testing.T) {
	db := New(0)
	for i := 0; i < 10; i++ {
		db.SetWithExpiry(string(rune('a'+i)), strVal("v"), 100)
	}
	db.Set("keep", strVal("v"), false)

	total := 0
	for {
		expired, again := db.ExpireCycle(200, 5)
		total += expired
		if !again {
			break
		}
	}
	// Sampling is map-order dependent; repeat until drained.
	for db.ExpiresCount() > 0 {
		expired, _ := db.ExpireCycle(200, 5)
		total += expired
	}
	assert.Equal(t, 10, total)
	assert.True(t, db.Exists("keep", 200))
}

func TestScanSnapshot(t *testing.T) {
	db := New(0)
	keys := []string{"a", "b", "c", "d", "e"}
	for _, k := range keys {
		db.Set(k, strVal("v"), false)
	}

	var seen []string
	cursor := uint64(0)
	for {
		batch, next := db.Scan(cursor, "", 2, "", 0)
		seen = append(seen, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(seen)
	assert.Equal(t, keys, seen)
}

func TestScanSkipsDeleted(t *testing.T) {
	db := New(0)
	for _, k := range []string{"a", "b", "c", "d"} {
		db.Set(k, strVal("v"), false)
	}

	batch, cursor := db.Scan(0, "", 2, "", 0)
	require.NotZero(t, cursor)
	removedMid := false
	// Delete everything not yet returned; the rest of the scan must
	// not report them.
	returned := make(map[string]bool)
	for _, k := range batch {
		returned[k] = true
	}
	for _, k := range []string{"a", "b", "c", "d"} {
		if !returned[k] {
			db.Delete(k, 0)
			removedMid = true
		}
	}
	require.True(t, removedMid)

	for cursor != 0 {
		var more []string
		more, cursor = db.Scan(cursor, "", 2, "", 0)
		assert.Empty(t, more)
	}
}

func TestScanFilters(t *testing.T) {
	db := New(0)
	db.Set("user:1", strVal("v"), false)
	db.Set("user:2", strVal("v"), false)
	db.Set("order:1", strVal("v"), false)
	l := datatype.NewList()
	l.PushTail([]byte("x"))
	db.Set("list", l, false)

	var matched []string
	cursor := uint64(0)
	for {
		batch, next := db.Scan(cursor, "user:*", 100, "", 0)
		matched = append(matched, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(matched)
	assert.Equal(t, []string{"user:1", "user:2"}, matched)

	var lists []string
	cursor = 0
	for {
		batch, next := db.Scan(cursor, "", 100, "list", 0)
		lists = append(lists, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}
	assert.Equal(t, []string{"list"}, lists)
}

func TestSwap(t *testing.T) {
	a := New(0)
	b := New(1)
	a.Set("x", strVal("in-a"), false)

	Swap(a, b)
	assert.False(t, a.Exists("x", 0))
	assert.True(t, b.Exists("x", 0))
	assert.Equal(t, 0, a.Index)
	assert.Equal(t, 1, b.Index)
}
