package datatype

import (
	"math"
	"strconv"
)

// Hash maps fields to values. Insertion order is retained as the
// iteration hint surfaced by HGETALL and HSCAN; it is not a guarantee.
type Hash struct {
	fields map[string][]byte
	order  []string
}

// NewHash creates an empty hash.
func NewHash() *Hash {
	return &Hash{fields: make(map[string][]byte)}
}

func (h *Hash) TypeName() string { return "hash" }

func (h *Hash) Encoding() string {
	if len(h.fields) <= compactMaxEntries {
		small := true
		for f, v := range h.fields {
			if len(f) > compactMaxValue || len(v) > compactMaxValue {
				small = false
				break
			}
		}
		if small {
			return "listpack"
		}
	}
	return "hashtable"
}

func (h *Hash) Len() int { return len(h.fields) }

// Set stores a field, returning true when the field is new.
func (h *Hash) Set(field string, value []byte) bool {
	_, exists := h.fields[field]
	h.fields[field] = value
	if !exists {
		h.order = append(h.order, field)
	}
	return !exists
}

// SetNX stores a field only when absent.
func (h *Hash) SetNX(field string, value []byte) bool {
	if _, exists := h.fields[field]; exists {
		return false
	}
	h.fields[field] = value
	h.order = append(h.order, field)
	return true
}

// Get returns the value of a field.
func (h *Hash) Get(field string) ([]byte, bool) {
	v, ok := h.fields[field]
	return v, ok
}

// Has reports field existence.
func (h *Hash) Has(field string) bool {
	_, ok := h.fields[field]
	return ok
}

// Del removes a field, reporting whether it existed.
func (h *Hash) Del(field string) bool {
	if _, ok := h.fields[field]; !ok {
		return false
	}
	delete(h.fields, field)
	for i, f := range h.order {
		if f == field {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	return true
}

// IncrBy adds delta to a field's integer value, creating it at 0.
func (h *Hash) IncrBy(field string, delta int64) (int64, error) {
	cur := int64(0)
	if raw, ok := h.fields[field]; ok {
		v, isInt := parseCanonicalInt(raw)
		if !isInt {
			return 0, ErrHashNotInteger
		}
		cur = v
	}
	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		return 0, ErrIncrOverflow
	}
	cur += delta
	h.Set(field, []byte(strconv.FormatInt(cur, 10)))
	return cur, nil
}

// IncrByFloat adds delta to a field's float value, creating it at 0.
func (h *Hash) IncrByFloat(field string, delta float64) (float64, error) {
	cur := float64(0)
	if raw, ok := h.fields[field]; ok {
		v, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return 0, ErrHashNotFloat
		}
		cur = v
	}
	v := cur + delta
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNaN
	}
	h.Set(field, []byte(formatStoredFloat(v)))
	return v, nil
}

// Fields returns the field names in insertion order.
func (h *Hash) Fields() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Values returns the values in insertion order.
func (h *Hash) Values() [][]byte {
	out := make([][]byte, 0, len(h.order))
	for _, f := range h.order {
		out = append(out, h.fields[f])
	}
	return out
}

// RandomFields returns count distinct fields when count >= 0, or count
// possibly-repeating fields when negative, following HRANDFIELD. The
// pick function supplies randomness so callers control determinism.
func (h *Hash) RandomFields(count int64, pick func(n int) int) []string {
	n := len(h.order)
	if n == 0 {
		return nil
	}

	if count < 0 {
		out := make([]string, 0, -count)
		for i := int64(0); i < -count; i++ {
			out = append(out, h.order[pick(n)])
		}
		return out
	}

	if count >= int64(n) {
		return h.Fields()
	}
	perm := make([]string, n)
	copy(perm, h.order)
	for i := 0; i < int(count); i++ {
		j := i + pick(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:count]
}

