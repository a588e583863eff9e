package client

import (
	"bufio"
	"errors"
	"io"
	"net"
	"time"
)

// readLoop is the event-loop adapter (§4.1): one dedicated goroutine per
// connection, decoding replies and dispatching them inline. gen pins this
// loop to the connection attempt that started it so a superseded loop's
// exit path is a no-op (§4.6 "stale read-loop exits").
func (c *Client) readLoop(conn net.Conn, gen uint64) {
	r := bufio.NewReader(conn)
	for {
		if d := c.currentCommandTimeout(); d > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(d))
		} else {
			_ = conn.SetReadDeadline(time.Time{})
		}

		raw, err := readReply(r)
		if err != nil {
			c.handleConnLoss(gen, err)
			return
		}
		reply := decodeReply(raw)
		if reply.IsPush() {
			c.emitPush(reply)
			continue
		}
		c.dispatch(reply, reply.Type == TypeError)
	}
}

func (c *Client) currentCommandTimeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.CommandTimeout
}

// dispatch implements §4.4: match the reply to the head of pending (or the
// relevant persistent entry), decode, invoke, and advance the queues.
func (c *Client) dispatch(reply Reply, isError bool) {
	c.mu.Lock()

	el := c.pending.front()
	if el == nil {
		// Unsolicited reply with no outstanding entry (protocol desync or a
		// persistent entry already removed) — nothing to deliver to.
		c.mu.Unlock()
		return
	}
	entry := el.Value.(*pendingEntry)

	if c.closed {
		c.mu.Unlock()
		return
	}

	// Step 1: skipped short-circuit.
	if entry.skipped {
		if entry.persist {
			entry.subCount--
			if entry.subCount <= 0 {
				c.pending.remove(el)
			}
		} else {
			c.pending.remove(el)
		}
		c.mu.Unlock()
		return
	}

	// Step 3: nested-callback guard.
	c.current = entry
	c.callbackDepth++
	cb := entry.cb
	unsub := entry.persist && isUnsubscribeMarker(reply)
	c.mu.Unlock()

	// Step 4: normal path.
	var err error
	if isError {
		err = errors.New(reply.String())
	}
	c.safeCall(func() { cb(reply, err) })

	c.mu.Lock()
	// Step 5/6: remove from the queue before the post-callback drain.
	if entry.persist {
		if unsub {
			entry.subCount--
			if entry.subCount <= 0 {
				c.pending.remove(el)
			}
		}
	} else {
		c.pending.remove(el)
	}
	if c.metrics != nil {
		c.metrics.Completed.Inc()
		c.metrics.PendingCount.Set(float64(c.pending.nonPersistentCount()))
	}

	c.current = nil
	c.callbackDepth--
	deferredClose := c.closing && c.callbackDepth == 0 && !c.closed
	if deferredClose {
		c.closing = false
		c.doClose() // unlocks internally
		return
	}
	c.mu.Unlock()

	c.promoteWaiting()
}

// promoteWaiting implements the waiting-to-pending promotion loop (§4.3).
// It recomputes preconditions on every iteration because a promoted
// command's synchronous write failure invokes its continuation, which may
// re-enter the client and mutate state.
func (c *Client) promoteWaiting() {
	for {
		c.mu.Lock()
		if c.state != StateConnected || c.waiting.len() == 0 {
			c.mu.Unlock()
			return
		}
		if c.cfg.MaxPending > 0 && c.pending.nonPersistentCount() >= c.cfg.MaxPending {
			c.mu.Unlock()
			return
		}
		we := c.waiting.popFront()
		conn := c.conn
		cmdTimeout := c.cfg.CommandTimeout
		if c.metrics != nil {
			c.metrics.WaitingCount.Set(float64(c.waiting.len()))
		}
		c.mu.Unlock()

		pe := &pendingEntry{
			id:       newULID(),
			args:     we.args,
			cb:       we.cb,
			persist:  we.persist,
			subCount: subCountFor(we.args[0], we.args),
		}

		c.mu.Lock()
		c.pending.pushBack(pe)
		if c.metrics != nil {
			c.metrics.PendingCount.Set(float64(c.pending.nonPersistentCount()))
		}
		c.mu.Unlock()

		if cmdTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(cmdTimeout))
		}
		if err := c.writeCommandTo(conn, we.args); err != nil {
			c.mu.Lock()
			c.removePendingByID(pe.id)
			c.mu.Unlock()
			c.invoke(we.cb, Reply{}, err)
			// Keep draining: one bad write shouldn't stall the rest of the
			// waiting queue (the connection is likely about to be torn down
			// by the read loop anyway, which will fail the remainder).
			continue
		}
	}
}

// handleConnLoss runs on read-loop exit (EOF, reset, or timeout). It is the
// Go stand-in for the source's disconnect-callback path (§4.6).
func (c *Client) handleConnLoss(gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.generation {
		// A newer connection has already superseded this loop.
		c.mu.Unlock()
		return
	}
	if c.closed {
		c.mu.Unlock()
		return
	}

	wasIntentional := c.intentional
	c.state = StateIdle
	c.conn = nil

	pendingEntries := c.collectPending()

	willReconnect := c.cfg.ReconnectEnabled && !wasIntentional
	keepWaiting := c.cfg.ResumeWaitingOnReconnect && !wasIntentional && willReconnect
	var waitingEntries []*waitingEntry
	if !keepWaiting {
		waitingEntries = c.waiting.drainAll()
		c.stopWaitingTimerLocked()
	}

	onDisc := c.onDisconnect
	onErr := c.onError
	graceful := errors.Is(cause, io.EOF)
	c.mu.Unlock()

	c.emitVoid(onDisc)
	if !graceful {
		c.emit(onErr, connectErrorf(cause))
	}
	for _, e := range pendingEntries {
		c.invoke(e.cb, Reply{}, ErrDisconnected)
	}
	for _, e := range waitingEntries {
		c.invoke(e.cb, Reply{}, ErrDisconnected)
	}

	if willReconnect {
		c.mu.Lock()
		c.intentional = false
		c.mu.Unlock()
		c.scheduleReconnect()
	}
}

// rearmWaitingTimerLocked re-arms the single shared waiting-timeout timer
// to the earliest queuedAt+WaitingTimeout. Caller must hold c.mu.
func (c *Client) rearmWaitingTimerLocked() {
	c.stopWaitingTimerLocked()
	if c.cfg.WaitingTimeout <= 0 {
		return
	}
	el := c.waiting.front()
	if el == nil {
		return
	}
	head := el.Value.(*waitingEntry)
	deadline := head.queuedAt.Add(c.cfg.WaitingTimeout)
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	c.waitingTimer = time.AfterFunc(d, c.fireWaitingTimeout)
}

func (c *Client) stopWaitingTimer() {
	c.mu.Lock()
	c.stopWaitingTimerLocked()
	c.mu.Unlock()
}

func (c *Client) stopWaitingTimerLocked() {
	if c.waitingTimer != nil {
		c.waitingTimer.Stop()
		c.waitingTimer = nil
	}
}

// fireWaitingTimeout implements §4.5: expire every entry at the head of the
// waiting queue whose age has reached WaitingTimeout, stopping at the first
// non-expired entry (FIFO monotonicity of queuedAt).
func (c *Client) fireWaitingTimeout() {
	c.mu.Lock()
	var expired []*waitingEntry
	now := time.Now()
	for {
		el := c.waiting.front()
		if el == nil {
			break
		}
		head := el.Value.(*waitingEntry)
		if now.Sub(head.queuedAt) < c.cfg.WaitingTimeout {
			break
		}
		c.waiting.popFront()
		expired = append(expired, head)
	}
	if c.metrics != nil {
		c.metrics.WaitingCount.Set(float64(c.waiting.len()))
		c.metrics.WaitingTimeouts.Add(float64(len(expired)))
	}
	c.rearmWaitingTimerLocked()
	c.mu.Unlock()

	for _, e := range expired {
		c.invoke(e.cb, Reply{}, ErrWaitingTimeout)
	}
}
