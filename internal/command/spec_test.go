package command

import (
	"reflect"
	"testing"

	"github.com/yndnr/keymesh-go/internal/acl"
)

func TestLookupCaseInsensitive(t *testing.T) {
	for _, name := range []string{"get", "GET", "Get"} {
		if _, ok := Default.Lookup(name); !ok {
			t.Errorf("Lookup(%q) should find the command", name)
		}
	}
	if _, ok := Default.Lookup("nosuchcmd"); ok {
		t.Error("Lookup(nosuchcmd) should fail")
	}
}

func TestCheckArity(t *testing.T) {
	get, _ := Default.Lookup("get")
	if !get.CheckArity(2) {
		t.Error("GET key has arity 2")
	}
	if get.CheckArity(3) {
		t.Error("GET with two keys should fail arity")
	}

	set, _ := Default.Lookup("set")
	if !set.CheckArity(3) || !set.CheckArity(5) {
		t.Error("SET accepts 3 or more")
	}
	if set.CheckArity(2) {
		t.Error("SET with one argument should fail arity")
	}
}

func TestFixedKeyPositions(t *testing.T) {
	mset, _ := Default.Lookup("mset")
	refs := mset.Keys(rawArgs("mset", "k1", "v1", "k2", "v2"))
	positions := keyPositions(refs)
	if !reflect.DeepEqual(positions, []int{1, 3}) {
		t.Errorf("MSET key positions = %v, want [1 3]", positions)
	}

	blpop, _ := Default.Lookup("blpop")
	refs = blpop.Keys(rawArgs("blpop", "a", "b", "0"))
	positions = keyPositions(refs)
	if !reflect.DeepEqual(positions, []int{1, 2}) {
		t.Errorf("BLPOP key positions = %v, want [1 2]", positions)
	}
}

func TestMovableKeys(t *testing.T) {
	zus, _ := Default.Lookup("zunionstore")
	refs := zus.Keys(rawArgs("zunionstore", "dest", "2", "a", "b", "WEIGHTS", "1", "2"))
	positions := keyPositions(refs)
	if !reflect.DeepEqual(positions, []int{1, 3, 4}) {
		t.Errorf("ZUNIONSTORE key positions = %v, want [1 3 4]", positions)
	}
	if refs[0].Mode != acl.KeyWrite {
		t.Error("destination needs write access")
	}

	xread, _ := Default.Lookup("xread")
	refs = xread.Keys(rawArgs("xread", "COUNT", "2", "STREAMS", "s1", "s2", "0-0", "0-0"))
	positions = keyPositions(refs)
	if !reflect.DeepEqual(positions, []int{4, 5}) {
		t.Errorf("XREAD key positions = %v, want [4 5]", positions)
	}
}

func TestCategories(t *testing.T) {
	if !Default.CommandInCategory("get", "read") {
		t.Error("get is in @read")
	}
	if Default.CommandInCategory("get", "write") {
		t.Error("get is not in @write")
	}
	if !Default.CategoryExists("sortedset") {
		t.Error("sortedset category should exist")
	}
	if Default.CategoryExists("bogus") {
		t.Error("bogus category should not exist")
	}
}

func TestWriteCommandsFlagged(t *testing.T) {
	for _, name := range []string{"set", "del", "lpush", "zadd", "xadd", "flushdb"} {
		spec, ok := Default.Lookup(name)
		if !ok {
			t.Fatalf("missing %s", name)
		}
		if !spec.Flags.Has(FlagWrite) {
			t.Errorf("%s should carry FlagWrite", name)
		}
	}
	for _, name := range []string{"get", "lrange", "zscore", "xlen"} {
		spec, _ := Default.Lookup(name)
		if spec.Flags.Has(FlagWrite) {
			t.Errorf("%s should not carry FlagWrite", name)
		}
	}
}

func keyPositions(refs []KeyRef) []int {
	out := make([]int, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Pos)
	}
	return out
}
