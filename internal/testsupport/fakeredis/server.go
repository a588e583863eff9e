package fakeredis

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the server's listen configuration.
type Config struct {
	// Address is the plaintext listen address, e.g. "127.0.0.1:0".
	Address string
	// TLSConfig, if set, starts a second listener serving TLS.
	TLSConfig *tls.Config
	// TLSAddress is the TLS listen address; required when TLSConfig is set.
	TLSAddress string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func (c *Config) withDefaults() *Config {
	cp := *c
	if cp.ReadTimeout == 0 {
		cp.ReadTimeout = 5 * time.Second
	}
	if cp.WriteTimeout == 0 {
		cp.WriteTimeout = 5 * time.Second
	}
	if cp.IdleTimeout == 0 {
		cp.IdleTimeout = 30 * time.Second
	}
	return &cp
}

// Server is a single-process, in-memory Redis stand-in.
type Server struct {
	cfg     *Config
	handler *CommandHandler

	plainLn net.Listener
	tlsLn   net.Listener
	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a server backed by a fresh empty store.
func New(cfg Config) *Server {
	return &Server{cfg: cfg.withDefaults(), handler: NewCommandHandler(NewStore())}
}

// Store exposes the server's in-memory data, for tests that want to seed or
// assert on state directly rather than through the wire protocol.
func (s *Server) Store() *Store { return s.handler.store }

// Start opens the listener(s) and begins serving in background goroutines.
// It returns once the plaintext address (and TLS address, if configured) is
// actually bound, so callers can read Addr() immediately after.
func (s *Server) Start() error {
	s.running.Store(true)

	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.plainLn = ln
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ln)
	}()

	if s.cfg.TLSConfig != nil {
		tlsLn, err := tls.Listen("tcp", s.cfg.TLSAddress, s.cfg.TLSConfig)
		if err != nil {
			s.running.Store(false)
			_ = ln.Close()
			return err
		}
		s.tlsLn = tlsLn
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.acceptLoop(tlsLn)
		}()
	}

	return nil
}

// Addr returns the bound plaintext address.
func (s *Server) Addr() net.Addr { return s.plainLn.Addr() }

// Shutdown closes both listeners and waits, until ctx is done, for every
// connection handler to return; open connections are not closed by it.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	if s.plainLn != nil {
		if err := s.plainLn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.tlsLn != nil {
		if err := s.tlsLn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return firstErr
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(c)
		}()
	}
}

func (s *Server) serveConn(netConn net.Conn) {
	defer netConn.Close()
	conn := &Conn{netConn: netConn, br: bufio.NewReader(netConn), bw: bufio.NewWriter(netConn)}

	for {
		if err := netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		if _, err := conn.br.Peek(1); err != nil {
			return
		}
		if err := netConn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}

		args, err := ReadCommand(conn.br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			_ = netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			_ = WriteError(conn.bw, "ERR protocol error: "+err.Error())
			_ = conn.bw.Flush()
			return
		}
		if len(args) == 0 {
			continue
		}

		conn.writeMu.Lock()
		s.handler.Handle(conn, args)
		if err := netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			conn.writeMu.Unlock()
			return
		}
		err = conn.bw.Flush()
		conn.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

// Conn is a single client connection as seen by command handlers.
type Conn struct {
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer
	writeMu sync.Mutex

	subsMu sync.Mutex
	subs   map[string]bool
}

func (c *Conn) subscribe(channel string) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	if c.subs == nil {
		c.subs = make(map[string]bool)
	}
	c.subs[channel] = true
}

func (c *Conn) unsubscribe(channel string) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	delete(c.subs, channel)
}

func (c *Conn) subCount() int {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	return len(c.subs)
}

// pushMessage writes an unsolicited "message" array directly to the
// connection, bypassing the request/response loop in serveConn. Concurrent
// with the handler's own writes, so it takes the same writer.
func (c *Conn) pushMessage(channel string, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := WriteArrayHeader(c.bw, 3); err != nil {
		return err
	}
	if err := WriteBulkString(c.bw, "message"); err != nil {
		return err
	}
	if err := WriteBulkString(c.bw, channel); err != nil {
		return err
	}
	if err := WriteBulk(c.bw, payload); err != nil {
		return err
	}
	return c.bw.Flush()
}
