package hook

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/repsense/internal/metrics"
)

func TestDispatcher_NotifiesSubscribers(t *testing.T) {
	skipOnWindows(t)

	tmpDir := t.TempDir()
	outDir := t.TempDir()

	// Each hook appends the event it received to its own file.
	script := func(name string) string {
		return "#!/bin/sh\ncat >> " + filepath.Join(outDir, name) + "\necho '{\"success\":true}'\n"
	}
	writeHook(t, tmpDir, "reps", script("reps"), []string{EventRepCompleted})
	writeHook(t, tmpDir, "ends", script("ends"), []string{EventSessionEnded})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := metrics.NewTestManager()

	d := NewDispatcher(manager, NewExecutor(5*time.Second), logger, m)
	d.Notify(Event{Type: EventRepCompleted, SessionID: "s-1", RepCount: 1})
	d.Notify(Event{Type: EventRepCompleted, SessionID: "s-1", RepCount: 2})
	d.Wait()

	data, err := os.ReadFile(filepath.Join(outDir, "reps"))
	if err != nil {
		t.Fatalf("expected reps hook output: %v", err)
	}
	if got := strings.Count(string(data), `"event":"rep_completed"`); got != 2 {
		t.Errorf("expected 2 rep events, got %d in %s", got, data)
	}
	if _, err := os.Stat(filepath.Join(outDir, "ends")); !os.IsNotExist(err) {
		t.Error("session_ended hook should not run for rep_completed")
	}
	if !strings.Contains(logs.String(), "hook ran") {
		t.Errorf("expected debug log for hook run, got %q", logs.String())
	}

	d.Close()
	d.Notify(Event{Type: EventRepCompleted, SessionID: "s-1", RepCount: 3})
	d.Wait()

	data, _ = os.ReadFile(filepath.Join(outDir, "reps"))
	if got := strings.Count(string(data), `"event":"rep_completed"`); got != 2 {
		t.Errorf("closed dispatcher should not run hooks, got %d events", got)
	}
}

func TestDispatcher_LogsFailures(t *testing.T) {
	skipOnWindows(t)

	tmpDir := t.TempDir()
	writeHook(t, tmpDir, "bad", "#!/bin/sh\nexit 1\n", nil)

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	d := NewDispatcher(manager, NewExecutor(time.Second), logger, nil)
	defer d.Close()

	d.Notify(Event{Type: EventRepCompleted})
	d.Wait()

	if !strings.Contains(logs.String(), "hook failed") {
		t.Errorf("expected failure to be logged, got %q", logs.String())
	}
}

func TestDispatcher_CloseWhileNotifying(t *testing.T) {
	skipOnWindows(t)

	tmpDir := t.TempDir()
	writeHook(t, tmpDir, "coach", "#!/bin/sh\ncat > /dev/null\necho '{\"success\":true}'\n", []string{EventRepCompleted})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for i := 0; i < 50; i++ {
		d := NewDispatcher(manager, NewExecutor(5*time.Second), logger, nil)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for n := 1; n <= 5; n++ {
				d.Notify(Event{Type: EventRepCompleted, SessionID: "s-1", RepCount: n})
			}
		}()
		go func() {
			defer wg.Done()
			d.Close()
		}()
		wg.Wait()

		// A second Close is a no-op and later events are dropped.
		d.Close()
		d.Notify(Event{Type: EventRepCompleted, SessionID: "s-1", RepCount: 6})
		d.Wait()
	}
}
