package keyspace

import (
	"github.com/yndnr/keymesh-go/pkg/glob"
)

// maxLiveCursors bounds abandoned scan state; the oldest snapshot is
// evicted once the store is full.
const maxLiveCursors = 128

// snapshot is one in-progress scan over a stable item list.
type snapshot struct {
	id    uint64
	items []string
	pos   int
}

// CursorStore hands out opaque scan cursors over point-in-time
// snapshots. A scan started with cursor 0 snapshots the item set; later
// calls resume where the previous one stopped. Items removed after the
// snapshot are filtered at read time by the caller's live check, and
// items added after it may or may not be seen, which is exactly the
// SCAN guarantee.
type CursorStore struct {
	next  uint64
	scans map[uint64]*snapshot
	order []uint64
}

// NewCursorStore creates an empty store.
func NewCursorStore() *CursorStore {
	return &CursorStore{next: 1, scans: make(map[uint64]*snapshot)}
}

// Begin registers a new snapshot and returns its cursor id.
func (cs *CursorStore) Begin(items []string) uint64 {
	if len(cs.order) >= maxLiveCursors {
		oldest := cs.order[0]
		cs.order = cs.order[1:]
		delete(cs.scans, oldest)
	}
	id := cs.next
	cs.next++
	cs.scans[id] = &snapshot{id: id, items: items}
	cs.order = append(cs.order, id)
	return id
}

// Advance returns up to count items from the snapshot behind cursor and
// the cursor to pass next (0 when the scan is complete). An unknown
// cursor yields a completed empty scan, matching the behavior of a
// cursor that outlived its snapshot.
func (cs *CursorStore) Advance(cursor uint64, count int) ([]string, uint64) {
	sn, ok := cs.scans[cursor]
	if !ok {
		return nil, 0
	}
	if count <= 0 {
		count = 10
	}

	end := sn.pos + count
	if end > len(sn.items) {
		end = len(sn.items)
	}
	batch := sn.items[sn.pos:end]
	sn.pos = end

	if sn.pos >= len(sn.items) {
		cs.drop(cursor)
		return batch, 0
	}
	return batch, cursor
}

func (cs *CursorStore) drop(id uint64) {
	delete(cs.scans, id)
	for i, c := range cs.order {
		if c == id {
			cs.order = append(cs.order[:i], cs.order[i+1:]...)
			break
		}
	}
}

// Scan runs one SCAN step over the database's live keys: cursor 0
// begins a new snapshot; the type filter matches TypeName; match
// filters by glob; deleted keys are skipped at read time.
func (db *Database) Scan(cursor uint64, match string, count int, typeName string, nowMs int64) ([]string, uint64) {
	if cursor == 0 {
		keys := make([]string, 0, len(db.items))
		for key := range db.items {
			keys = append(keys, key)
		}
		cursor = db.cursors.Begin(keys)
	}

	batch, next := db.cursors.Advance(cursor, count)
	out := make([]string, 0, len(batch))
	for _, key := range batch {
		v, ok := db.Get(key, nowMs)
		if !ok {
			continue
		}
		if typeName != "" && v.TypeName() != typeName {
			continue
		}
		if match != "" && !glob.Match(match, key) {
			continue
		}
		out = append(out, key)
	}
	return out, next
}
