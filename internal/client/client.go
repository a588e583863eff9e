package client

import (
	"container/list"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/arwrap/aredis-go/internal/telemetry/logger"
	"github.com/arwrap/aredis-go/internal/telemetry/metric"
)

// State is one of the connection controller's states (§4.6).
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnecting
	StateReconnectPending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	case StateReconnectPending:
		return "reconnect_pending"
	default:
		return "unknown"
	}
}

// maxMillis is the spec's ~2×10⁹ ms upper bound on any configurable duration.
const maxMillis = 2_000_000_000

// Config holds the options applied at the next connection attempt (§3).
type Config struct {
	// KeepAlive is the TCP keepalive interval; 0 disables it.
	KeepAlive time.Duration
	// TCPUserTimeout bounds unacknowledged data on the wire; 0 means OS default.
	TCPUserTimeout time.Duration
	CloseOnExec    bool
	ReuseAddr      bool
	PreferIPv4     bool
	PreferIPv6     bool
	SourceAddr     string
	TLSConfig      *tls.Config

	ConnectTimeout time.Duration
	CommandTimeout time.Duration

	ReconnectEnabled    bool
	ReconnectDelay      time.Duration
	MaxReconnectAttempts int

	MaxPending               int
	WaitingTimeout           time.Duration
	ResumeWaitingOnReconnect bool

	// Priority mirrors the source's watcher priority, clamped to [-2, 2].
	// It has no OS-level effect in Go; it is stored and returned verbatim
	// for interface parity (§4.1).
	Priority int

	// SubmitRateLimit, if non-zero, throttles Submit admissions (domain
	// addition, §2.2). Burst defaults to 1 if SubmitRateLimit is set and
	// SubmitBurst is 0.
	SubmitRateLimit float64
	SubmitBurst     int

	Logger  logger.Logger
	Metrics *metric.Registry
}

// DefaultConfig returns the zero-value-safe defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 0,
		CommandTimeout: 0,
		ReconnectDelay: 0,
	}
}

// Client is an asynchronous Redis client multiplexing commands over one
// connection. See the package doc for the concurrency model.
type Client struct {
	mu sync.Mutex

	cfg Config
	log logger.Logger

	host string
	port uint16
	unix string

	state        State
	generation   uint64 // §4.6 "stale read-loop exits"
	conn         net.Conn
	closed       bool
	closing      bool // Close requested while callbackDepth > 0
	intentional  bool

	pending *pendingQueue
	waiting *waitingQueue

	waitingTimer *time.Timer
	reconnectTimer *time.Timer
	reconnectAttempts int

	callbackDepth    int
	inPendingCleanup bool
	inWaitingCleanup bool
	current          *pendingEntry

	onError      func(error)
	onConnect    func()
	onDisconnect func()
	onPush       func(Reply)

	limiter *rate.Limiter

	metrics *metric.Registry
}

// New creates a Client with the given configuration. host/port is set by a
// later Connect/ConnectUnix call.
func New(cfg Config) *Client {
	lg := cfg.Logger
	if lg == nil {
		lg = logger.Default()
	}
	c := &Client{
		cfg:     cfg,
		log:     lg,
		pending: newPendingQueue(),
		waiting: newWaitingQueue(),
		metrics: cfg.Metrics,
	}
	c.cfg.Priority = clampPriority(cfg.Priority)
	if cfg.SubmitRateLimit > 0 {
		burst := cfg.SubmitBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.SubmitRateLimit), burst)
	}
	return c
}

func clampPriority(p int) int {
	if p < -2 {
		return -2
	}
	if p > 2 {
		return 2
	}
	return p
}

// Connect dials a TCP endpoint. port defaults to 6379 when 0.
func (c *Client) Connect(host string, port uint16) error {
	if port == 0 {
		port = 6379
	}
	return c.connect(host, port, "")
}

// ConnectUnix dials a Unix-domain socket.
func (c *Client) ConnectUnix(path string) error {
	return c.connect("", 0, path)
}

func (c *Client) connect(host string, port uint16, unixPath string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateIdle && c.state != StateReconnectPending {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	if host != "" && unixPath != "" {
		c.mu.Unlock()
		return ErrBadEndpoint
	}
	if c.cfg.TLSConfig != nil && host == "" {
		c.mu.Unlock()
		return ErrBadEndpoint
	}

	c.host, c.port, c.unix = host, port, unixPath
	c.state = StateConnecting
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	return c.dial(gen)
}

func (c *Client) dial(gen uint64) error {
	conn, err := c.dialRaw()
	c.mu.Lock()
	if gen != c.generation {
		// Superseded by a newer Connect/Disconnect while dialing.
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return nil
	}
	if err != nil {
		c.state = StateIdle
		wrapped := connectErrorf(err)
		onErr := c.onError
		shouldReconnect := c.cfg.ReconnectEnabled && !c.intentional
		c.mu.Unlock()
		c.emit(onErr, wrapped)
		if shouldReconnect {
			c.scheduleReconnect()
		}
		return wrapped
	}

	c.conn = conn
	c.state = StateConnected
	c.reconnectAttempts = 0
	onConnect := c.onConnect
	c.mu.Unlock()

	c.emitVoid(onConnect)
	go c.readLoop(conn, gen)
	c.promoteWaiting()
	return nil
}

func (c *Client) dialRaw() (net.Conn, error) {
	dialer := &net.Dialer{Timeout: c.cfg.ConnectTimeout}
	if c.cfg.SourceAddr != "" {
		if addr, err := net.ResolveTCPAddr("tcp", c.cfg.SourceAddr+":0"); err == nil {
			dialer.LocalAddr = addr
		}
	}

	ctx := context.Background()
	if c.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		defer cancel()
	}

	var conn net.Conn
	var err error
	if c.unix != "" {
		conn, err = dialer.DialContext(ctx, "unix", c.unix)
	} else {
		network := "tcp"
		if c.cfg.PreferIPv4 {
			network = "tcp4"
		} else if c.cfg.PreferIPv6 {
			network = "tcp6"
		}
		addr := fmt.Sprintf("%s:%d", c.host, c.port)
		conn, err = dialer.DialContext(ctx, network, addr)
	}
	if err != nil {
		return nil, err
	}

	if c.cfg.TLSConfig != nil && c.unix == "" {
		tconn := tls.Client(conn, c.cfg.TLSConfig)
		if err := tconn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return nil, err
		}
		conn = tconn
	}

	c.applySocketOptions(conn)
	return conn, nil
}

func (c *Client) applySocketOptions(conn net.Conn) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	if c.cfg.KeepAlive > 0 {
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(c.cfg.KeepAlive)
	} else {
		_ = tc.SetKeepAlive(false)
	}
	// TCPUserTimeout, CloseOnExec, and ReuseAddr require syscall-level
	// SetsockoptInt and are applied in the platform-specific helper.
	applyPlatformSocketOptions(tc, c.cfg)
}

// Disconnect is an intentional, idempotent disconnect that suppresses
// automatic reconnection.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.intentional = true
	c.stopReconnectTimer()
	c.reconnectAttempts = 0

	if c.state == StateIdle || c.state == StateReconnectPending {
		c.state = StateIdle
		waiting := c.waiting.drainAll()
		c.mu.Unlock()
		for _, e := range waiting {
			c.invoke(e.cb, Reply{}, ErrDisconnected)
		}
		return
	}

	conn := c.conn
	c.state = StateDisconnecting
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close() // unblocks the read loop, which performs cleanup
	}
}

// Close releases the client. It is idempotent and safe to call from within
// a user continuation (§4.6 deferred close).
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed || c.closing {
		c.mu.Unlock()
		return
	}
	if c.callbackDepth > 0 {
		c.closing = true
		c.mu.Unlock()
		return
	}
	c.doClose()
}

// doClose performs the actual teardown. Caller must hold c.mu; it is
// released internally before invoking continuations and not re-acquired.
func (c *Client) doClose() {
	c.closed = true
	c.intentional = true
	c.stopReconnectTimer()
	c.stopWaitingTimerLocked()
	conn := c.conn
	pendingEntries := c.collectPending()
	waitingEntries := c.waiting.drainAll()
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	for _, e := range pendingEntries {
		c.invoke(e.cb, Reply{}, ErrDisconnected)
	}
	for _, e := range waitingEntries {
		c.invoke(e.cb, Reply{}, ErrDisconnected)
	}
}

func (c *Client) collectPending() []*pendingEntry {
	out := make([]*pendingEntry, 0, c.pending.len())
	c.pending.each(func(el *list.Element, e *pendingEntry) {
		if !e.skipped {
			out = append(out, e)
		}
		c.pending.remove(el)
	})
	return out
}

// IsConnected reports whether the connection is usable for immediate
// (non-waiting) submission.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PendingCount returns the number of non-persistent in-flight commands.
func (c *Client) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.nonPersistentCount()
}

// WaitingCount returns the number of locally buffered commands.
func (c *Client) WaitingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting.len()
}

// ReconnectEnabled reports the current reconnect policy flag.
func (c *Client) ReconnectEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.ReconnectEnabled
}

// HasTLS reports whether a TLS config is set for the next connection.
func (c *Client) HasTLS() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.TLSConfig != nil
}

// SetOnError installs the connection/reconnect error continuation, returning
// the previous one (nil if unset).
func (c *Client) SetOnError(cb func(error)) func(error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.onError
	c.onError = cb
	return prev
}

// SetOnConnect installs the on-connect continuation.
func (c *Client) SetOnConnect(cb func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.onConnect
	c.onConnect = cb
	return prev
}

// SetOnDisconnect installs the on-disconnect continuation.
func (c *Client) SetOnDisconnect(cb func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.onDisconnect
	c.onDisconnect = cb
	return prev
}

// SetOnPush installs the RESP3 push continuation.
func (c *Client) SetOnPush(cb func(Reply)) func(Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.onPush
	c.onPush = cb
	return prev
}

// SetConnectTimeout updates the dial timeout; it applies to the next
// connection attempt.
func (c *Client) SetConnectTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.ConnectTimeout = clampMillis(d)
}

// SetCommandTimeout updates the per-command deadline, taking effect on the
// live connection immediately.
func (c *Client) SetCommandTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.CommandTimeout = clampMillis(d)
}

func clampMillis(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d.Milliseconds() > maxMillis {
		return time.Duration(maxMillis) * time.Millisecond
	}
	return d
}

// SetMaxPending updates the flow-control limit; raising it (or clearing it
// to 0/unlimited) immediately drains the waiting queue.
func (c *Client) SetMaxPending(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	c.cfg.MaxPending = n
	c.mu.Unlock()
	c.promoteWaiting()
}

// SetWaitingTimeout updates the waiting-queue timeout and rearms the timer.
func (c *Client) SetWaitingTimeout(d time.Duration) {
	c.mu.Lock()
	c.cfg.WaitingTimeout = clampMillis(d)
	c.rearmWaitingTimerLocked()
	c.mu.Unlock()
}

// SetResumeWaitingOnReconnect toggles the waiting-queue carry-over policy.
func (c *Client) SetResumeWaitingOnReconnect(resume bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.ResumeWaitingOnReconnect = resume
}

// SetReconnect configures the reconnect policy, resetting the attempt counter.
func (c *Client) SetReconnect(enable bool, delay time.Duration, maxAttempts int) {
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.ReconnectEnabled = enable
	c.cfg.ReconnectDelay = clampMillis(delay)
	c.cfg.MaxReconnectAttempts = maxAttempts
	c.reconnectAttempts = 0
}

// SetPriority updates the watcher-priority hint, clamped to [-2, 2].
func (c *Client) SetPriority(p int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Priority = clampPriority(p)
	return c.cfg.Priority
}

// Priority returns the current priority hint.
func (c *Client) Priority() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Priority
}

// SetKeepAlive sets the TCP keepalive interval; 0 disables it.
func (c *Client) SetKeepAlive(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.KeepAlive = d
}

// SetTCPUserTimeout sets the duration applied as TCP_USER_TIMEOUT (converted
// to milliseconds, Linux only); 0 means OS default.
func (c *Client) SetTCPUserTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.TCPUserTimeout = d
}

// SetPreferIPv4 enables IPv4 preference, clearing IPv6 preference.
func (c *Client) SetPreferIPv4(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.PreferIPv4 = v
	if v {
		c.cfg.PreferIPv6 = false
	}
}

// SetPreferIPv6 enables IPv6 preference, clearing IPv4 preference.
func (c *Client) SetPreferIPv6(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.PreferIPv6 = v
	if v {
		c.cfg.PreferIPv4 = false
	}
}

// SetSourceAddr sets the local address used for outbound connections.
func (c *Client) SetSourceAddr(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.SourceAddr = addr
}

// SetCloseOnExec toggles close-on-exec on the socket.
func (c *Client) SetCloseOnExec(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.CloseOnExec = v
}

// SetReuseAddr toggles SO_REUSEADDR on the socket.
func (c *Client) SetReuseAddr(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.ReuseAddr = v
}

// SetTLS installs a TLS config to use for the next connection; nil disables TLS.
func (c *Client) SetTLS(cfg *tls.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.TLSConfig = cfg
}

// SetSubmitRateLimit throttles Submit admission to n commands/sec with the
// given burst (domain addition, §2.2). n <= 0 disables throttling.
func (c *Client) SetSubmitRateLimit(n float64, burst int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 {
		c.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(n), burst)
}

// emit invokes a single-argument error continuation under the lifecycle
// guard (§4.6), tolerating a nil callback.
func (c *Client) emit(cb func(error), err error) {
	if cb == nil {
		return
	}
	c.enterCallback()
	defer c.exitCallback()
	c.safeCall(func() { cb(err) })
}

func (c *Client) emitVoid(cb func()) {
	if cb == nil {
		return
	}
	c.enterCallback()
	defer c.exitCallback()
	c.safeCall(func() { cb() })
}

func (c *Client) emitPush(r Reply) {
	c.mu.Lock()
	cb := c.onPush
	c.mu.Unlock()
	if cb == nil {
		return
	}
	c.enterCallback()
	defer c.exitCallback()
	c.safeCall(func() { cb(r) })
}

// invoke calls a command continuation under the lifecycle guard.
func (c *Client) invoke(cb func(Reply, error), r Reply, err error) {
	if cb == nil {
		return
	}
	c.enterCallback()
	defer c.exitCallback()
	c.safeCall(func() { cb(r, err) })
}

func (c *Client) enterCallback() {
	c.mu.Lock()
	c.callbackDepth++
	c.mu.Unlock()
}

func (c *Client) exitCallback() {
	c.mu.Lock()
	c.callbackDepth--
	deferred := c.closing && c.callbackDepth == 0 && !c.closed
	if deferred {
		c.closing = false
		c.doClose() // unlocks internally
		return
	}
	c.mu.Unlock()
}

// safeCall recovers a panicking continuation, logging it instead of letting
// it unwind through the client's bookkeeping (§7 handler-panic policy).
func (c *Client) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("redis client callback panicked", "panic", r)
		}
	}()
	fn()
}
