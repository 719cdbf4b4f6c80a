package cmap

import (
	"sync"
	"testing"
)

func TestSetGet(t *testing.T) {
	m := New[string, int]()

	m.Set("a", 1)
	m.Set("b", 2)

	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if v, ok := m.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = %d, %v; want 2, true", v, ok)
	}
	if _, ok := m.Get("c"); ok {
		t.Error("Get(c) should not exist")
	}
}

func TestDelete(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)
	m.Delete("a")
	if m.Has("a") {
		t.Error("key should be deleted")
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
}

func TestPop(t *testing.T) {
	m := New[int64, string]()
	m.Set(7, "x")

	v, ok := m.Pop(7)
	if !ok || v != "x" {
		t.Errorf("Pop(7) = %q, %v; want x, true", v, ok)
	}
	if _, ok := m.Pop(7); ok {
		t.Error("second Pop should report missing")
	}
}

func TestGetOrSet(t *testing.T) {
	m := New[string, int]()

	if v, existed := m.GetOrSet("k", 1); existed || v != 1 {
		t.Errorf("GetOrSet new = %d, %v; want 1, false", v, existed)
	}
	if v, existed := m.GetOrSet("k", 2); !existed || v != 1 {
		t.Errorf("GetOrSet existing = %d, %v; want 1, true", v, existed)
	}
}

func TestRangeStop(t *testing.T) {
	m := New[string, int]()
	for _, k := range []string{"a", "b", "c", "d"} {
		m.Set(k, 1)
	}

	seen := 0
	m.Range(func(_ string, _ int) bool {
		seen++
		return seen < 2
	})
	if seen != 2 {
		t.Errorf("Range visited %d entries, want 2", seen)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int64, int64]()
	var wg sync.WaitGroup

	for i := int64(0); i < 32; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			for j := int64(0); j < 100; j++ {
				key := n*100 + j
				m.Set(key, key)
				if v, ok := m.Get(key); !ok || v != key {
					t.Errorf("Get(%d) = %d, %v", key, v, ok)
				}
			}
		}(i)
	}
	wg.Wait()

	if got := m.Count(); got != 3200 {
		t.Errorf("Count() = %d, want 3200", got)
	}
}
