// Package connection manages named, independently connected Clients for the
// demonstration CLI: one Connection per saved (or ad hoc) Redis endpoint,
// registered in a Manager so the REPL can "use" whichever one is current.
package connection

import (
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/arwrap/aredis-go/internal/client"
	"github.com/arwrap/aredis-go/pkg/cmap"
)

// Connection pairs a name with the Client dialed for it.
type Connection struct {
	Name string
	Host string
	Port uint16
	Unix string
	TLS  bool

	Client *client.Client
}

// Manager tracks every Connection opened in this CLI session and which one
// is current. Connections are kept in a sharded map so concurrent REPL
// commands (e.g. a background MONITOR alongside an interactive prompt)
// never block each other's lookups.
type Manager struct {
	mu      sync.Mutex
	current string
	conns   *cmap.Map[string, *Connection]
}

// NewManager creates an empty connection manager.
func NewManager() *Manager {
	return &Manager{conns: cmap.New[string, *Connection]()}
}

// Connect dials host:port (or a Unix socket when unixPath is set) under the
// given name and makes it current.
func (m *Manager) Connect(name, host string, port uint16, unixPath string, tlsConfig *tls.Config, connectTimeout time.Duration) (*Connection, error) {
	if name == "" {
		name = host
		if unixPath != "" {
			name = unixPath
		}
	}

	cfg := client.DefaultConfig()
	cfg.ConnectTimeout = connectTimeout
	cfg.TLSConfig = tlsConfig
	c := client.New(cfg)

	var err error
	if unixPath != "" {
		err = c.ConnectUnix(unixPath)
	} else {
		err = c.Connect(host, port)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", name, err)
	}

	conn := &Connection{Name: name, Host: host, Port: port, Unix: unixPath, TLS: tlsConfig != nil, Client: c}
	m.conns.Set(name, conn)

	m.mu.Lock()
	m.current = name
	m.mu.Unlock()
	return conn, nil
}

// Use switches the current connection by name.
func (m *Manager) Use(name string) (*Connection, error) {
	conn, ok := m.conns.Get(name)
	if !ok {
		return nil, fmt.Errorf("no such connection: %s", name)
	}
	m.mu.Lock()
	m.current = name
	m.mu.Unlock()
	return conn, nil
}

// Disconnect closes and forgets the named connection. If it was current,
// no connection remains current.
func (m *Manager) Disconnect(name string) error {
	conn, ok := m.conns.Get(name)
	if !ok {
		return fmt.Errorf("no such connection: %s", name)
	}
	conn.Client.Close()
	m.conns.Delete(name)

	m.mu.Lock()
	if m.current == name {
		m.current = ""
	}
	m.mu.Unlock()
	return nil
}

// DisconnectAll closes every open connection, for shutdown.
func (m *Manager) DisconnectAll() {
	m.conns.Range(func(_ string, conn *Connection) bool {
		conn.Client.Close()
		return true
	})
	m.conns.Clear()
	m.mu.Lock()
	m.current = ""
	m.mu.Unlock()
}

// Current returns the current connection, or nil if none is set.
func (m *Manager) Current() *Connection {
	m.mu.Lock()
	name := m.current
	m.mu.Unlock()
	if name == "" {
		return nil
	}
	conn, _ := m.conns.Get(name)
	return conn
}

// IsConnected reports whether a current connection exists and is usable.
func (m *Manager) IsConnected() bool {
	conn := m.Current()
	return conn != nil && conn.Client.IsConnected()
}

// Names returns every registered connection name.
func (m *Manager) Names() []string {
	return m.conns.Keys()
}
