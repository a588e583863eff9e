package command

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/arwrap/aredis-go/internal/client"
)

// respPingServer accepts one connection and replies +PONG to any inbound
// command, enough to exercise the exec command's request/reply round trip.
func respPingServer(t *testing.T) (host string, port uint16) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if line[0] != '*' {
				continue
			}
			// Drain the rest of the array's elements before replying.
			n, err := strconv.Atoi(strings.TrimSpace(line[1:]))
			if err != nil {
				continue
			}
			for i := 0; i < n; i++ {
				reader.ReadString('\n')
				reader.ReadString('\n')
			}
			conn.Write([]byte("+PONG\r\n"))
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", uint16(addr.Port)
}

func TestRunCommand_Ping(t *testing.T) {
	host, port := respPingServer(t)

	cfg := client.DefaultConfig()
	c := client.New(cfg)
	if err := c.Connect(host, port); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	reply, err := runCommand(c, []string{"PING"}, 2*time.Second)
	if err != nil {
		t.Fatalf("runCommand failed: %v", err)
	}
	if reply.String() != "PONG" {
		t.Errorf("reply = %q, want %q", reply.String(), "PONG")
	}
}

func TestReplyToDisplay(t *testing.T) {
	r := client.Reply{Type: client.TypeArray, Array: []client.Reply{
		{Type: client.TypeInteger, Int: 1},
		{Type: client.TypeString, Str: []byte("a")},
		{Type: client.TypeNull},
	}}

	got, ok := replyToDisplay(r).([]any)
	if !ok {
		t.Fatalf("expected []any, got %T", replyToDisplay(r))
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(got))
	}
	if got[0] != int64(1) || got[1] != "a" || got[2] != nil {
		t.Errorf("unexpected converted values: %+v", got)
	}
}

func TestExecCommand(t *testing.T) {
	cmd := ExecCommand()
	if cmd == nil {
		t.Fatal("ExecCommand returned nil")
	}
	if cmd.Name != "exec" {
		t.Errorf("Name = %q, want %q", cmd.Name, "exec")
	}
	if cmd.Action == nil {
		t.Error("exec should have an action")
	}
}
