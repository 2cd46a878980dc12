package chat

import (
	"fmt"
	"testing"
)

func TestHistoryKeepsSystemMessageFirst(t *testing.T) {
	h := NewHistory("you are a shop assistant", 4)
	for i := 0; i < 20; i++ {
		h.Append(User(fmt.Sprintf("msg-%d", i)))
	}
	h.Trim()

	snap := h.Snapshot()
	if len(snap) != 5 {
		t.Fatalf("len = %d, want %d", len(snap), 5)
	}
	if snap[0].Role != RoleSystem || snap[0].Text != "you are a shop assistant" {
		t.Fatalf("first message = %+v, want original system message", snap[0])
	}
}

func TestHistoryTrimPreservesTailOrder(t *testing.T) {
	h := NewHistory("sys", 3)
	for i := 0; i < 10; i++ {
		h.Append(User(fmt.Sprintf("msg-%d", i)))
	}
	h.Trim()

	snap := h.Snapshot()
	want := []string{"sys", "msg-7", "msg-8", "msg-9"}
	if len(snap) != len(want) {
		t.Fatalf("len = %d, want %d", len(snap), len(want))
	}
	for i, text := range want {
		if snap[i].Text != text {
			t.Fatalf("snap[%d].Text = %q, want %q", i, snap[i].Text, text)
		}
	}
}

func TestHistoryTrimNoOpUnderBound(t *testing.T) {
	h := NewHistory("sys", 9)
	h.Append(User("hello"))
	h.Append(Assistant("hi"))
	h.Trim()

	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}
}

func TestHistorySnapshotIsACopy(t *testing.T) {
	h := NewHistory("sys", 9)
	h.Append(User("hello"))

	snap := h.Snapshot()
	snap[0] = User("mutated")
	if h.Snapshot()[0].Role != RoleSystem {
		t.Fatalf("mutating a snapshot must not affect the history")
	}
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory("sys", 9)
	h.Append(User("hello"))
	h.Append(Assistant("hi"))
	h.Reset()

	if h.Len() != 1 {
		t.Fatalf("Len() after Reset = %d, want 1", h.Len())
	}
	if h.Snapshot()[0].Text != "sys" {
		t.Fatalf("Reset must keep the system message")
	}
}
