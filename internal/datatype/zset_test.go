package datatype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zsetOf(pairs ...any) *SortedSet {
	z := NewSortedSet()
	for i := 0; i < len(pairs); i += 2 {
		z.Set(pairs[i].(string), float64(pairs[i+1].(int)))
	}
	return z
}

func memberNames(members []ScoredMember) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Member)
	}
	return out
}

func TestSortedSetOrdering(t *testing.T) {
	z := NewSortedSet()
	z.Set("b", 2)
	z.Set("a", 1)
	z.Set("c", 3)
	// Equal scores order lexicographically.
	z.Set("aa", 1)

	assert.Equal(t, []string{"a", "aa", "b", "c"}, memberNames(z.Members()))
}

func TestSortedSetSetUpdate(t *testing.T) {
	z := NewSortedSet()
	assert.True(t, z.Set("m", 1))
	assert.False(t, z.Set("m", 5))

	score, ok := z.Score("m")
	require.True(t, ok)
	assert.Equal(t, 5.0, score)
	assert.Equal(t, 1, z.Len())
}

func TestSortedSetRank(t *testing.T) {
	z := zsetOf("a", 1, "b", 2, "c", 3)

	r, ok := z.Rank("a", false)
	require.True(t, ok)
	assert.Equal(t, 0, r)

	r, ok = z.Rank("c", false)
	require.True(t, ok)
	assert.Equal(t, 2, r)

	r, ok = z.Rank("a", true)
	require.True(t, ok)
	assert.Equal(t, 2, r)

	_, ok = z.Rank("zz", false)
	assert.False(t, ok)
}

func TestSortedSetRangeByRank(t *testing.T) {
	z := zsetOf("a", 1, "b", 2, "c", 3, "d", 4)

	assert.Equal(t, []string{"a", "b", "c", "d"}, memberNames(z.RangeByRank(0, -1, false)))
	assert.Equal(t, []string{"b", "c"}, memberNames(z.RangeByRank(1, 2, false)))
	assert.Equal(t, []string{"d", "c"}, memberNames(z.RangeByRank(0, 1, true)))
	assert.Nil(t, z.RangeByRank(5, 10, false))
}

func TestSortedSetRangeByScore(t *testing.T) {
	z := zsetOf("a", 1, "b", 2, "c", 3)

	min, err := ParseScoreBorder("2")
	require.NoError(t, err)
	max, err := ParseScoreBorder("+inf")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, memberNames(z.RangeByScore(min, max, 0, -1, false)))

	exMin, err := ParseScoreBorder("(1")
	require.NoError(t, err)
	exMax, err := ParseScoreBorder("(3")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, memberNames(z.RangeByScore(exMin, exMax, 0, -1, false)))

	// Reverse with limit.
	all, _ := ParseScoreBorder("-inf")
	top, _ := ParseScoreBorder("+inf")
	assert.Equal(t, []string{"c", "b"}, memberNames(z.RangeByScore(all, top, 0, 2, true)))
	assert.Equal(t, []string{"b"}, memberNames(z.RangeByScore(all, top, 1, 1, true)))
}

func TestSortedSetRangeByLex(t *testing.T) {
	z := zsetOf("a", 0, "b", 0, "c", 0, "d", 0)

	min, err := ParseLexBorder("-")
	require.NoError(t, err)
	max, err := ParseLexBorder("+")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, memberNames(z.RangeByLex(min, max, 0, -1, false)))

	min, err = ParseLexBorder("[b")
	require.NoError(t, err)
	max, err = ParseLexBorder("(d")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, memberNames(z.RangeByLex(min, max, 0, -1, false)))

	assert.Equal(t, int64(2), z.LexCount(min, max))

	_, err = ParseLexBorder("b")
	assert.ErrorIs(t, err, ErrLexRange)
}

func TestSortedSetCount(t *testing.T) {
	z := zsetOf("a", 1, "b", 2, "c", 3)
	min, _ := ParseScoreBorder("-inf")
	max, _ := ParseScoreBorder("+inf")
	assert.Equal(t, int64(3), z.Count(min, max))

	min, _ = ParseScoreBorder("(1")
	max, _ = ParseScoreBorder("3")
	assert.Equal(t, int64(2), z.Count(min, max))
}

func TestSortedSetPop(t *testing.T) {
	z := zsetOf("a", 1, "b", 2, "c", 3)

	popped := z.PopMin(1)
	require.Len(t, popped, 1)
	assert.Equal(t, "a", popped[0].Member)

	popped = z.PopMax(5)
	require.Len(t, popped, 2)
	assert.Equal(t, "c", popped[0].Member)
	assert.Equal(t, "b", popped[1].Member)
	assert.Equal(t, 0, z.Len())
}

func TestSortedSetRemove(t *testing.T) {
	z := zsetOf("a", 1, "b", 2)
	assert.True(t, z.Remove("a"))
	assert.False(t, z.Remove("a"))
	assert.Equal(t, []string{"b"}, memberNames(z.Members()))
}

func TestSortedSetIncrBy(t *testing.T) {
	z := NewSortedSet()
	score, err := z.IncrBy("m", 2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, score)

	score, err = z.IncrBy("m", -0.5)
	require.NoError(t, err)
	assert.Equal(t, 2.0, score)
}

func TestSkiplistLargeInsertDelete(t *testing.T) {
	z := NewSortedSet()
	for i := 0; i < 1000; i++ {
		z.Set(string(rune('a'+i%26))+string(rune('0'+i%10))+string(rune(i)), float64(i%100))
	}
	n := z.Len()
	members := z.Members()
	require.Len(t, members, n)

	// Ranks agree with iteration order.
	for i, m := range members[:50] {
		r, ok := z.Rank(m.Member, false)
		require.True(t, ok)
		assert.Equal(t, i, r)
	}

	for _, m := range members {
		require.True(t, z.Remove(m.Member))
	}
	assert.Equal(t, 0, z.Len())
}
