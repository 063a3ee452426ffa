package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmagar/tunegrab/internal/testutil"
)

func waitForRuns(t *testing.T, runs *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if runs.Load() >= want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected %d runs, got %d", want, runs.Load())
}

func TestWatcher_RunsOnStartAndOnExternalChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.txt")
	testutil.WriteFile(t, path, "https://a\n")

	var runs atomic.Int32
	w, err := New(path, 50*time.Millisecond, func(context.Context) error {
		n := runs.Add(1)
		// Mark the file the way a batch would.
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if n == 1 {
			data = []byte("https://a # DOWNLOADED\n")
		}
		return os.WriteFile(path, data, 0644)
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitForRuns(t, &runs, 1)

	// Give the self-write time to be debounced and ignored.
	time.Sleep(300 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Fatalf("self-write triggered a run: %d runs", got)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("https://b\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	waitForRuns(t, &runs, 2)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

// unmarkedLinks lists lines without a status marker.
func unmarkedLinks(path string) PendingFunc {
	return func() ([]string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var out []string
		for _, line := range strings.Split(string(data), "\n") {
			if line != "" && !strings.Contains(line, "#") {
				out = append(out, line)
			}
		}
		return out, nil
	}
}

func TestWatcher_LinkAddedDuringRunStartsAnotherRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.txt")
	testutil.WriteFile(t, path, "https://a\n")

	var runs atomic.Int32
	w, err := New(path, 50*time.Millisecond, func(context.Context) error {
		switch runs.Add(1) {
		case 1:
			// The user appends a link while the first run is busy.
			if err := os.WriteFile(path, []byte("https://a\nhttps://b\n"), 0644); err != nil {
				return err
			}
			return os.WriteFile(path, []byte("https://a # DOWNLOADED\nhttps://b\n"), 0644)
		case 2:
			return os.WriteFile(path, []byte("https://a # DOWNLOADED\nhttps://b # DOWNLOADED\n"), 0644)
		}
		return nil
	}, unmarkedLinks(path))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitForRuns(t, &runs, 2)
	time.Sleep(300 * time.Millisecond)
	if got := runs.Load(); got != 2 {
		t.Fatalf("expected exactly 2 runs, got %d", got)
	}
	if got := testutil.ReadFile(t, path); got != "https://a # DOWNLOADED\nhttps://b # DOWNLOADED\n" {
		t.Fatalf("link file = %q", got)
	}

	cancel()
	<-done
}

func TestWatcher_LinkLeftPendingDoesNotLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.txt")
	testutil.WriteFile(t, path, "https://a\n")

	var runs atomic.Int32
	w, err := New(path, 50*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	}, unmarkedLinks(path))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitForRuns(t, &runs, 1)
	time.Sleep(300 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Fatalf("expected a single run, got %d", got)
	}

	cancel()
	<-done
}

func TestNew_MissingFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing.txt"), time.Second, nil, nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}
