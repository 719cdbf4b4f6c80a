package blocking

import (
	"testing"

	"github.com/yndnr/keymesh-go/internal/resp"
)

func TestNotifySatisfiesOldestFirst(t *testing.T) {
	c := NewCoordinator()

	items := []string{"a"}
	try := func(key string) (resp.Value, bool) {
		if len(items) == 0 {
			return resp.Value{}, false
		}
		v := items[0]
		items = items[1:]
		return resp.BulkText(v), true
	}

	w1 := NewWaiter(1, 0, []string{"k"}, try)
	w2 := NewWaiter(2, 0, []string{"k"}, try)
	c.Park(w1)
	c.Park(w2)

	c.Notify(0, "k")

	select {
	case out := <-w1.Ready:
		if string(out.Reply.Bulk) != "a" {
			t.Errorf("w1 got %q, want a", out.Reply.Bulk)
		}
	default:
		t.Fatal("oldest waiter should have been satisfied")
	}

	select {
	case <-w2.Ready:
		t.Fatal("second waiter should stay parked")
	default:
	}
	if !c.IsBlocked(2) {
		t.Error("w2 should still be registered")
	}
	if c.IsBlocked(1) {
		t.Error("w1 should be gone")
	}
}

func TestNotifyDrainsMultipleItems(t *testing.T) {
	c := NewCoordinator()
	items := []string{"x", "y"}
	try := func(key string) (resp.Value, bool) {
		if len(items) == 0 {
			return resp.Value{}, false
		}
		v := items[0]
		items = items[1:]
		return resp.BulkText(v), true
	}

	w1 := NewWaiter(1, 0, []string{"k"}, try)
	w2 := NewWaiter(2, 0, []string{"k"}, try)
	c.Park(w1)
	c.Park(w2)

	c.Notify(0, "k")

	if out := <-w1.Ready; string(out.Reply.Bulk) != "x" {
		t.Errorf("w1 got %q, want x", out.Reply.Bulk)
	}
	if out := <-w2.Ready; string(out.Reply.Bulk) != "y" {
		t.Errorf("w2 got %q, want y", out.Reply.Bulk)
	}
	if c.BlockedCount() != 0 {
		t.Errorf("BlockedCount() = %d, want 0", c.BlockedCount())
	}
}

func TestReentrantNotifyDefers(t *testing.T) {
	c := NewCoordinator()
	fired := 0
	try := func(key string) (resp.Value, bool) {
		fired++
		if fired > 1 {
			return resp.Value{}, false
		}
		// Satisfying the waiter mutates the key again.
		c.Notify(0, "k")
		return resp.BulkText("v"), true
	}

	w := NewWaiter(1, 0, []string{"k"}, try)
	c.Park(w)
	c.Notify(0, "k")

	select {
	case out := <-w.Ready:
		if string(out.Reply.Bulk) != "v" {
			t.Errorf("got %q, want v", out.Reply.Bulk)
		}
	default:
		t.Fatal("waiter should be satisfied exactly once")
	}
}

func TestUnblock(t *testing.T) {
	c := NewCoordinator()
	w := NewWaiter(7, 0, []string{"k"}, nil)
	c.Park(w)

	if !c.Unblock(7, true) {
		t.Fatal("Unblock should report success")
	}
	out := <-w.Ready
	if !out.Unblocked {
		t.Error("outcome should carry the unblocked flag")
	}
	if c.Unblock(7, true) {
		t.Error("second Unblock should report nothing to do")
	}
}

func TestUnblockTimeoutFlavor(t *testing.T) {
	c := NewCoordinator()
	w := NewWaiter(7, 0, []string{"k"}, nil)
	c.Park(w)

	c.Unblock(7, false)
	out := <-w.Ready
	if !out.TimedOut || out.Unblocked {
		t.Errorf("outcome = %+v, want timed-out", out)
	}
}

func TestRemoveAndDropSession(t *testing.T) {
	c := NewCoordinator()
	w1 := NewWaiter(1, 0, []string{"a", "b"}, nil)
	w2 := NewWaiter(1, 0, []string{"c"}, nil)
	c.Park(w1)
	c.Park(w2)

	if !c.Remove(w1) {
		t.Error("Remove should succeed while parked")
	}
	if c.Remove(w1) {
		t.Error("second Remove should report already gone")
	}

	c.DropSession(1)
	if c.BlockedCount() != 0 {
		t.Errorf("BlockedCount() = %d, want 0", c.BlockedCount())
	}
	select {
	case <-w2.Ready:
		t.Error("DropSession must not send outcomes")
	default:
	}
}
