package datatype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsKV(kv ...string) [][]byte {
	out := make([][]byte, len(kv))
	for i, s := range kv {
		out[i] = []byte(s)
	}
	return out
}

func TestStreamIDParse(t *testing.T) {
	id, err := ParseStreamID("5-3", 0)
	require.NoError(t, err)
	assert.Equal(t, StreamID{Ms: 5, Seq: 3}, id)

	id, err = ParseStreamID("7", 9)
	require.NoError(t, err)
	assert.Equal(t, StreamID{Ms: 7, Seq: 9}, id)

	_, err = ParseStreamID("x-1", 0)
	assert.ErrorIs(t, err, ErrStreamIDInvalid)

	assert.Equal(t, "5-3", StreamID{Ms: 5, Seq: 3}.String())
	assert.True(t, StreamID{Ms: 1, Seq: 5}.Less(StreamID{Ms: 2}))
	assert.True(t, StreamID{Ms: 1, Seq: 5}.Less(StreamID{Ms: 1, Seq: 6}))
}

func TestStreamAddAutoID(t *testing.T) {
	s := NewStream()

	id1, err := s.Add(nil, false, 100, fieldsKV("k", "v"))
	require.NoError(t, err)
	assert.Equal(t, StreamID{Ms: 100, Seq: 0}, id1)

	// Same millisecond bumps the sequence.
	id2, err := s.Add(nil, false, 100, fieldsKV("k", "v"))
	require.NoError(t, err)
	assert.Equal(t, StreamID{Ms: 100, Seq: 1}, id2)

	// Clock going backwards still yields increasing IDs.
	id3, err := s.Add(nil, false, 50, fieldsKV("k", "v"))
	require.NoError(t, err)
	assert.True(t, id2.Less(id3))
}

func TestStreamAddExplicitID(t *testing.T) {
	s := NewStream()

	id := StreamID{Ms: 5, Seq: 5}
	_, err := s.Add(&id, false, 0, fieldsKV("k", "v"))
	require.NoError(t, err)

	smaller := StreamID{Ms: 5, Seq: 5}
	_, err = s.Add(&smaller, false, 0, fieldsKV("k", "v"))
	assert.ErrorIs(t, err, ErrStreamIDSmall)

	zero := StreamID{}
	_, err = NewStream().Add(&zero, false, 0, fieldsKV("k", "v"))
	assert.ErrorIs(t, err, ErrStreamIDZero)

	// "ms-*" form.
	partial := StreamID{Ms: 5}
	got, err := s.Add(&partial, true, 0, fieldsKV("k", "v"))
	require.NoError(t, err)
	assert.Equal(t, StreamID{Ms: 5, Seq: 6}, got)
}

func TestStreamRange(t *testing.T) {
	s := NewStream()
	for i := uint64(1); i <= 5; i++ {
		id := StreamID{Ms: i}
		_, err := s.Add(&id, false, 0, fieldsKV("n", string(rune('0'+i))))
		require.NoError(t, err)
	}

	all := s.Range(StreamID{}, StreamID{Ms: ^uint64(0)}, 0, false)
	assert.Len(t, all, 5)

	mid := s.Range(StreamID{Ms: 2}, StreamID{Ms: 4, Seq: ^uint64(0)}, 0, false)
	require.Len(t, mid, 3)
	assert.Equal(t, StreamID{Ms: 2}, mid[0].ID)

	rev := s.Range(StreamID{}, StreamID{Ms: ^uint64(0)}, 2, true)
	require.Len(t, rev, 2)
	assert.Equal(t, StreamID{Ms: 5}, rev[0].ID)

	after := s.After(StreamID{Ms: 3}, 0)
	assert.Len(t, after, 2)
}

func TestStreamDeleteAndTrim(t *testing.T) {
	s := NewStream()
	for i := uint64(1); i <= 5; i++ {
		id := StreamID{Ms: i}
		_, _ = s.Add(&id, false, 0, fieldsKV("k", "v"))
	}

	removed := s.Delete([]StreamID{{Ms: 2}, {Ms: 99}})
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, StreamID{Ms: 2}, s.MaxDeletedID())

	assert.Equal(t, int64(2), s.TrimMaxLen(2))
	assert.Equal(t, 2, s.Len())

	assert.Equal(t, int64(1), s.TrimMinID(StreamID{Ms: 5}))
	assert.Equal(t, 1, s.Len())

	// Entries survive with lifetime counter intact.
	assert.Equal(t, uint64(5), s.EntriesAdded())
}

func TestConsumerGroups(t *testing.T) {
	s := NewStream()
	for i := uint64(1); i <= 3; i++ {
		id := StreamID{Ms: i}
		_, _ = s.Add(&id, false, 0, fieldsKV("k", "v"))
	}

	require.NoError(t, s.CreateGroup("g", StreamID{}))
	assert.Error(t, s.CreateGroup("g", StreamID{}))

	g, ok := s.Group("g")
	require.True(t, ok)

	// Deliver two entries to consumer c1.
	now := int64(1000)
	c1 := g.Consumer("c1", now)
	for _, e := range s.After(g.LastDelivered, 2) {
		g.LastDelivered = e.ID
		g.Pending[e.ID] = &PendingEntry{ID: e.ID, Consumer: "c1", DeliveryTime: now, DeliveryCount: 1}
		c1.Pending[e.ID] = struct{}{}
	}
	assert.Len(t, g.PendingIDs("c1"), 2)

	// Ack one.
	assert.True(t, g.Ack(StreamID{Ms: 1}))
	assert.False(t, g.Ack(StreamID{Ms: 1}))
	assert.Len(t, g.Pending, 1)

	// Claim the other for c2.
	pe := g.Claim(StreamID{Ms: 2}, "c2", now+500, false)
	require.NotNil(t, pe)
	assert.Equal(t, "c2", pe.Consumer)
	assert.Equal(t, int64(2), pe.DeliveryCount)
	assert.Empty(t, c1.Pending)
	assert.Len(t, g.PendingIDs("c2"), 1)

	assert.True(t, s.DestroyGroup("g"))
	assert.False(t, s.DestroyGroup("g"))
}
