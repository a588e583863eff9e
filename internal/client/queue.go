package client

import (
	"container/list"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// persistentCommands is the case-insensitive command-name set that receives
// many replies for a single submission (§4.3).
var persistentCommands = map[string]bool{
	"subscribe":  true,
	"psubscribe": true,
	"ssubscribe": true,
	"monitor":    true,
}

// isPersistentCommand reports whether args[0] names a persistent command.
func isPersistentCommand(name []byte) bool {
	return persistentCommands[strings.ToLower(string(name))]
}

// subCountFor computes §4.3's initial subCount for a persistent submission.
func subCountFor(name []byte, args [][]byte) int {
	if strings.ToLower(string(name)) == "monitor" {
		return 0
	}
	return len(args) - 1
}

// pendingEntry is an in-flight command awaiting a reply (§3).
type pendingEntry struct {
	id       ulid.ULID
	args     [][]byte // the submitted command; kept but never resent
	cb       func(Reply, error)
	persist  bool
	subCount int
	skipped  bool
}

// waitingEntry is a locally buffered command admitted while throttled (§3).
type waitingEntry struct {
	args     [][]byte
	cb       func(Reply, error)
	persist  bool
	queuedAt time.Time
}

// pendingQueue is the FIFO of entries submitted to the server.
//
// Implemented with container/list rather than a slice because persistent
// entries (subscriptions) and cancellation can remove an arbitrary element,
// which would otherwise require slice compaction on every removal.
type pendingQueue struct {
	entries *list.List // of *pendingEntry
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{entries: list.New()}
}

func (q *pendingQueue) pushBack(e *pendingEntry) *list.Element {
	return q.entries.PushBack(e)
}

func (q *pendingQueue) front() *list.Element { return q.entries.Front() }

func (q *pendingQueue) remove(el *list.Element) {
	q.entries.Remove(el)
}

func (q *pendingQueue) len() int { return q.entries.Len() }

// nonPersistentCount implements invariant 1: PendingCount counts only
// non-persistent entries.
func (q *pendingQueue) nonPersistentCount() int {
	n := 0
	for el := q.entries.Front(); el != nil; el = el.Next() {
		if !el.Value.(*pendingEntry).persist {
			n++
		}
	}
	return n
}

// each calls fn for every entry in submission order. fn may remove the
// element it is given, but no other element.
func (q *pendingQueue) each(fn func(el *list.Element, e *pendingEntry)) {
	for el := q.entries.Front(); el != nil; {
		next := el.Next()
		fn(el, el.Value.(*pendingEntry))
		el = next
	}
}

// waitingQueue is the FIFO of entries buffered locally under flow control.
type waitingQueue struct {
	entries *list.List // of *waitingEntry
}

func newWaitingQueue() *waitingQueue {
	return &waitingQueue{entries: list.New()}
}

func (q *waitingQueue) pushBack(e *waitingEntry) { q.entries.PushBack(e) }
func (q *waitingQueue) front() *list.Element     { return q.entries.Front() }
func (q *waitingQueue) popFront() *waitingEntry {
	el := q.entries.Front()
	if el == nil {
		return nil
	}
	q.entries.Remove(el)
	return el.Value.(*waitingEntry)
}
func (q *waitingQueue) len() int { return q.entries.Len() }

// drainAll removes and returns every waiting entry in FIFO order, emptying
// the queue. Used by cancellation and disconnect cleanup.
func (q *waitingQueue) drainAll() []*waitingEntry {
	out := make([]*waitingEntry, 0, q.entries.Len())
	for el := q.entries.Front(); el != nil; {
		next := el.Next()
		out = append(out, el.Value.(*waitingEntry))
		q.entries.Remove(el)
		el = next
	}
	return out
}
