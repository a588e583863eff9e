package fakeredis

import (
	"context"
	"net"
	"testing"
	"time"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()
	s := New(Config{Address: "127.0.0.1:0"})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func dial(t *testing.T, s *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendAndRead(t *testing.T, conn net.Conn, cmd string) string {
	t.Helper()
	if _, err := conn.Write([]byte(cmd)); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 4096)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(buf[:n])
}

func TestServer_PingGetSet(t *testing.T) {
	s := startTestServer(t)
	conn := dial(t, s)

	if got := sendAndRead(t, conn, "PING\r\n"); got != "+PONG\r\n" {
		t.Errorf("PING reply = %q", got)
	}
	if got := sendAndRead(t, conn, "*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"); got != "+OK\r\n" {
		t.Errorf("SET reply = %q", got)
	}
	if got := sendAndRead(t, conn, "*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n"); got != "$3\r\nbar\r\n" {
		t.Errorf("GET reply = %q", got)
	}
}

func TestServer_GetMissing(t *testing.T) {
	s := startTestServer(t)
	conn := dial(t, s)

	if got := sendAndRead(t, conn, "*2\r\n$3\r\nGET\r\n$7\r\nmissing\r\n"); got != "$-1\r\n" {
		t.Errorf("GET reply = %q, want null bulk", got)
	}
}

func TestServer_ExpireAndTTL(t *testing.T) {
	s := startTestServer(t)
	s.Store().Set("k", []byte("v"), 0)

	if ttl := s.Store().TTL("k"); ttl != -1 {
		t.Errorf("TTL with no expiry = %d, want -1", ttl)
	}
	if !s.Store().Expire("k", time.Hour) {
		t.Error("Expire on existing key should succeed")
	}
	if ttl := s.Store().TTL("k"); ttl <= 0 {
		t.Errorf("TTL after Expire = %d, want positive", ttl)
	}
	if s.Store().Expire("missing", time.Hour) {
		t.Error("Expire on missing key should fail")
	}
	if ttl := s.Store().TTL("missing"); ttl != -2 {
		t.Errorf("TTL on missing key = %d, want -2", ttl)
	}
}

func TestServer_DelExists(t *testing.T) {
	s := startTestServer(t)
	s.Store().Set("a", []byte("1"), 0)
	s.Store().Set("b", []byte("2"), 0)

	if n := s.Store().Exists("a", "b", "c"); n != 2 {
		t.Errorf("Exists = %d, want 2", n)
	}
	if n := s.Store().Del("a", "c"); n != 1 {
		t.Errorf("Del = %d, want 1", n)
	}
	if n := s.Store().Exists("a"); n != 0 {
		t.Errorf("Exists after Del = %d, want 0", n)
	}
}

func TestServer_PublishNoSubscribers(t *testing.T) {
	s := startTestServer(t)
	if n := s.Store().Publish("ch", []byte("hi")); n != 0 {
		t.Errorf("Publish with no subscribers = %d, want 0", n)
	}
}

func TestServer_UnknownCommand(t *testing.T) {
	s := startTestServer(t)
	conn := dial(t, s)

	got := sendAndRead(t, conn, "*1\r\n$7\r\nNOTACMD\r\n")
	if got[0] != '-' {
		t.Errorf("unknown command reply = %q, want an error", got)
	}
}
