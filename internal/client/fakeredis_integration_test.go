package client

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/arwrap/aredis-go/internal/testsupport/fakeredis"
)

func startFakeRedis(t *testing.T) *fakeredis.Server {
	t.Helper()
	s := fakeredis.New(fakeredis.Config{Address: "127.0.0.1:0"})
	if err := s.Start(); err != nil {
		t.Fatalf("start fakeredis: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func TestClient_Integration_SetGetExpireAgainstFakeRedis(t *testing.T) {
	s := startFakeRedis(t)
	addr := s.Addr().(*net.TCPAddr)

	c := New(DefaultConfig())
	if err := c.Connect("127.0.0.1", uint16(addr.Port)); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	mustSubmit := func(args ...string) Reply {
		byteArgs := make([][]byte, len(args))
		for i, a := range args {
			byteArgs[i] = []byte(a)
		}
		var wg sync.WaitGroup
		wg.Add(1)
		var got Reply
		var gotErr error
		if err := c.Submit(byteArgs, func(r Reply, err error) {
			got, gotErr = r, err
			wg.Done()
		}); err != nil {
			t.Fatalf("Submit(%v): %v", args, err)
		}
		waitOrTimeout(t, &wg, 2*time.Second)
		if gotErr != nil {
			t.Fatalf("%v reply error: %v", args, gotErr)
		}
		return got
	}

	if r := mustSubmit("SET", "session:1", "payload", "EX", "60"); r.String() != "OK" {
		t.Fatalf("SET = %q, want OK", r.String())
	}
	if r := mustSubmit("GET", "session:1"); r.String() != "payload" {
		t.Fatalf("GET = %q, want payload", r.String())
	}
	if r := mustSubmit("TTL", "session:1"); r.Type != TypeInteger || r.Int <= 0 {
		t.Fatalf("TTL = %+v, want a positive integer", r)
	}
	if r := mustSubmit("DEL", "session:1"); r.Type != TypeInteger || r.Int != 1 {
		t.Fatalf("DEL = %+v, want 1", r)
	}
	if r := mustSubmit("GET", "session:1"); r.Type != TypeNull {
		t.Fatalf("GET after DEL = %+v, want null", r)
	}
}

func TestClient_Integration_PubSubAgainstFakeRedis(t *testing.T) {
	s := startFakeRedis(t)
	addr := s.Addr().(*net.TCPAddr)

	sub := New(DefaultConfig())
	if err := sub.Connect("127.0.0.1", uint16(addr.Port)); err != nil {
		t.Fatalf("Connect subscriber: %v", err)
	}
	defer sub.Close()

	pub := New(DefaultConfig())
	if err := pub.Connect("127.0.0.1", uint16(addr.Port)); err != nil {
		t.Fatalf("Connect publisher: %v", err)
	}
	defer pub.Close()

	var mu sync.Mutex
	var messages []string
	var wg sync.WaitGroup
	wg.Add(1) // confirmation only; messages arrive after that

	confirmed := false
	if err := sub.Submit([][]byte{[]byte("SUBSCRIBE"), []byte("news")}, func(r Reply, _ error) {
		mu.Lock()
		if !confirmed {
			confirmed = true
			wg.Done()
		} else {
			messages = append(messages, r.String())
		}
		mu.Unlock()
	}); err != nil {
		t.Fatalf("Submit SUBSCRIBE: %v", err)
	}

	waitOrTimeout(t, &wg, 2*time.Second)

	var pubWg sync.WaitGroup
	pubWg.Add(1)
	if err := pub.Submit([][]byte{[]byte("PUBLISH"), []byte("news"), []byte("hello")}, func(Reply, error) {
		pubWg.Done()
	}); err != nil {
		t.Fatalf("Submit PUBLISH: %v", err)
	}
	waitOrTimeout(t, &pubWg, 2*time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(messages)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(messages) == 0 {
		t.Fatal("subscriber never received the published message")
	}
}
