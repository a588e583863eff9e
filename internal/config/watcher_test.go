package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWatcher_NotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cli.yaml")
	if err := os.WriteFile(path, []byte("current_connection: a\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	var mu sync.Mutex
	var got string
	var wg sync.WaitGroup
	wg.Add(1)
	w.OnChange(func(changed string) {
		mu.Lock()
		if got == "" {
			got = changed
			wg.Done()
		}
		mu.Unlock()
	})
	w.StartAsync()

	time.Sleep(50 * time.Millisecond) // let the watcher attach before the write
	if err := os.WriteFile(path, []byte("current_connection: b\n"), 0o644); err != nil {
		t.Fatalf("rewrite file: %v", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never reported the change")
	}

	mu.Lock()
	defer mu.Unlock()
	if got != path {
		t.Errorf("changed path = %q, want %q", got, path)
	}
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if err := w.Watch(filepath.Join(t.TempDir(), "does-not-exist", "cli.yaml")); err == nil {
		t.Error("Watch should fail when the containing directory does not exist")
	}
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
