package client

import (
	"container/list"
	"testing"
)

func TestIsPersistentCommand(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"SUBSCRIBE", true},
		{"subscribe", true},
		{"psubscribe", true},
		{"ssubscribe", true},
		{"monitor", true},
		{"GET", false},
		{"set", false},
	}
	for _, tt := range tests {
		if got := isPersistentCommand([]byte(tt.name)); got != tt.want {
			t.Errorf("isPersistentCommand(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSubCountFor(t *testing.T) {
	tests := []struct {
		name string
		args [][]byte
		want int
	}{
		{"subscribe", [][]byte{[]byte("subscribe"), []byte("a"), []byte("b")}, 2},
		{"monitor always zero", [][]byte{[]byte("monitor")}, 0},
		{"single channel", [][]byte{[]byte("subscribe"), []byte("a")}, 1},
	}
	for _, tt := range tests {
		if got := subCountFor(tt.args[0], tt.args); got != tt.want {
			t.Errorf("subCountFor(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPendingQueue_PushFrontRemove(t *testing.T) {
	q := newPendingQueue()
	if q.len() != 0 {
		t.Fatalf("new queue should be empty, got len %d", q.len())
	}

	e1 := &pendingEntry{}
	e2 := &pendingEntry{persist: true}
	el1 := q.pushBack(e1)
	q.pushBack(e2)

	if q.len() != 2 {
		t.Fatalf("len = %d, want 2", q.len())
	}
	if q.front().Value.(*pendingEntry) != e1 {
		t.Error("front should be e1")
	}
	if q.nonPersistentCount() != 1 {
		t.Errorf("nonPersistentCount = %d, want 1", q.nonPersistentCount())
	}

	q.remove(el1)
	if q.len() != 1 {
		t.Errorf("len after remove = %d, want 1", q.len())
	}
	if q.nonPersistentCount() != 0 {
		t.Errorf("nonPersistentCount after remove = %d, want 0", q.nonPersistentCount())
	}
}

func TestPendingQueue_Each(t *testing.T) {
	q := newPendingQueue()
	q.pushBack(&pendingEntry{})
	q.pushBack(&pendingEntry{})
	q.pushBack(&pendingEntry{})

	var seen int
	q.each(func(el *list.Element, e *pendingEntry) {
		seen++
	})
	if seen != 3 {
		t.Errorf("each visited %d entries, want 3", seen)
	}
}

func TestWaitingQueue_PushPopLen(t *testing.T) {
	q := newWaitingQueue()
	if q.len() != 0 {
		t.Fatalf("new queue should be empty")
	}

	e1 := &waitingEntry{}
	e2 := &waitingEntry{}
	q.pushBack(e1)
	q.pushBack(e2)

	if q.len() != 2 {
		t.Fatalf("len = %d, want 2", q.len())
	}
	if q.front().Value.(*waitingEntry) != e1 {
		t.Error("front should be e1")
	}

	got := q.popFront()
	if got != e1 {
		t.Error("popFront should return e1")
	}
	if q.len() != 1 {
		t.Errorf("len after pop = %d, want 1", q.len())
	}
}

func TestWaitingQueue_PopFrontEmpty(t *testing.T) {
	q := newWaitingQueue()
	if got := q.popFront(); got != nil {
		t.Errorf("popFront on empty queue = %v, want nil", got)
	}
}

func TestWaitingQueue_DrainAll(t *testing.T) {
	q := newWaitingQueue()
	q.pushBack(&waitingEntry{})
	q.pushBack(&waitingEntry{})

	drained := q.drainAll()
	if len(drained) != 2 {
		t.Fatalf("drainAll returned %d entries, want 2", len(drained))
	}
	if q.len() != 0 {
		t.Errorf("queue should be empty after drainAll, got len %d", q.len())
	}
}

func TestCopyArgs(t *testing.T) {
	orig := [][]byte{[]byte("GET"), []byte("foo")}
	cp := copyArgs(orig)

	cp[0][0] = 'X'
	if orig[0][0] == 'X' {
		t.Error("copyArgs should deep-copy each arg, not alias it")
	}
}
