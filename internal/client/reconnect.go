package client

import "time"

// scheduleReconnect arms the reconnect timer per §4.6's ReconnectPending row.
// It is called with c.mu unlocked.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.closed || c.intentional {
		c.mu.Unlock()
		return
	}
	if c.cfg.MaxReconnectAttempts > 0 && c.reconnectAttempts >= c.cfg.MaxReconnectAttempts {
		c.state = StateIdle
		onErr := c.onError
		waitingEntries := c.waiting.drainAll()
		c.mu.Unlock()
		for _, e := range waitingEntries {
			c.invoke(e.cb, Reply{}, ErrReconnectExhausted)
		}
		c.emit(onErr, ErrReconnectExhausted)
		return
	}

	c.state = StateReconnectPending
	c.reconnectAttempts++
	if c.metrics != nil {
		c.metrics.ReconnectAttempts.Inc()
	}
	delay := c.cfg.ReconnectDelay
	c.reconnectTimer = time.AfterFunc(delay, c.fireReconnect)
	c.mu.Unlock()
}

func (c *Client) fireReconnect() {
	c.mu.Lock()
	if c.closed || c.intentional || c.state != StateReconnectPending {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	_ = c.dial(gen)
}

func (c *Client) stopReconnectTimer() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}
