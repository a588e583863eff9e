package client

import (
	"container/list"
	"time"

	"github.com/oklog/ulid/v2"
)

// Submit admits a command per §4.3. args[0] is the command name; the
// remaining elements are its arguments. An admitted command is written to
// the connection before Submit returns, so that write can block until the
// socket accepts it (bounded by CommandTimeout when set); a command placed in
// the waiting queue is not written.
func (c *Client) Submit(args [][]byte, cb func(Reply, error)) error {
	if len(args) == 0 {
		return ErrEmptyArgs
	}
	if cb == nil {
		return ErrNilCallback
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.limiter != nil && !c.limiter.Allow() {
		c.mu.Unlock()
		return ErrRateLimited
	}

	reconnecting := c.state == StateReconnectPending || c.state == StateConnecting
	if c.state != StateConnected && !reconnecting {
		c.mu.Unlock()
		return ErrNotConnected
	}

	persist := isPersistentCommand(args[0])
	throttled := c.cfg.MaxPending > 0 && c.pending.nonPersistentCount() >= c.cfg.MaxPending

	if c.state != StateConnected || throttled {
		we := &waitingEntry{args: copyArgs(args), cb: cb, persist: persist, queuedAt: time.Now()}
		c.waiting.pushBack(we)
		c.rearmWaitingTimerLocked()
		if c.metrics != nil {
			c.metrics.WaitingCount.Set(float64(c.waiting.len()))
		}
		c.mu.Unlock()
		return nil
	}

	pe := &pendingEntry{
		id:       newULID(),
		args:     args,
		cb:       cb,
		persist:  persist,
		subCount: subCountFor(args[0], args),
	}
	c.pending.pushBack(pe)
	conn := c.conn
	cmdTimeout := c.cfg.CommandTimeout
	if c.metrics != nil {
		c.metrics.PendingCount.Set(float64(c.pending.nonPersistentCount()))
		c.metrics.Submitted.Inc()
	}
	c.mu.Unlock()

	if cmdTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(cmdTimeout))
	}
	if err := c.writeCommandTo(conn, args); err != nil {
		c.mu.Lock()
		c.removePendingByID(pe.id)
		c.mu.Unlock()
		c.invoke(cb, Reply{}, err)
		return err
	}
	return nil
}

func copyArgs(args [][]byte) [][]byte {
	out := make([][]byte, len(args))
	for i, a := range args {
		cp := make([]byte, len(a))
		copy(cp, a)
		out[i] = cp
	}
	return out
}

func newULID() ulid.ULID {
	return ulid.Make()
}

func (c *Client) removePendingByID(id ulid.ULID) {
	c.pending.each(func(el *list.Element, e *pendingEntry) {
		if e.id == id {
			c.pending.remove(el)
		}
	})
}

// CancelWaiting fails every waiting entry with ErrSkipped and stops the
// waiting timer (§5).
func (c *Client) CancelWaiting() {
	c.mu.Lock()
	if c.inWaitingCleanup {
		c.mu.Unlock()
		return
	}
	c.inWaitingCleanup = true
	entries := c.waiting.drainAll()
	c.stopWaitingTimerLocked()
	c.inWaitingCleanup = false
	c.mu.Unlock()

	for _, e := range entries {
		c.invoke(e.cb, Reply{}, ErrSkipped)
	}
}

// CancelAll cancels the waiting queue, then marks every pending entry
// (except the one currently executing its callback) as skipped so its
// eventual reply is discarded without invoking the continuation again.
func (c *Client) CancelAll() {
	c.CancelWaiting()

	c.mu.Lock()
	if c.inPendingCleanup {
		c.mu.Unlock()
		return
	}
	c.inPendingCleanup = true
	toSkip := make([]*pendingEntry, 0, c.pending.len())
	c.pending.each(func(_ *list.Element, e *pendingEntry) {
		if e == c.current || e.skipped {
			return
		}
		e.skipped = true
		toSkip = append(toSkip, e)
	})
	c.inPendingCleanup = false
	c.mu.Unlock()

	for _, e := range toSkip {
		c.invoke(e.cb, Reply{}, ErrSkipped)
	}
}
