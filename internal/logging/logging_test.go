package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
}

func newFileLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.log")
	l, err := New(Options{FilePath: path, Quiet: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.now = fixedClock
	return l, path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestLogLineFormat(t *testing.T) {
	l, path := newFileLogger(t)
	defer l.Close()

	l.Info("run starting", "job", "nightly", "backend", "archive")
	l.Error("something broke")

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2: %v", len(lines), lines)
	}
	if lines[0] != "[2026-04-01 09:30:00] [INFO] run starting job=nightly backend=archive" {
		t.Errorf("unexpected line format: %q", lines[0])
	}
	if lines[1] != "[2026-04-01 09:30:00] [ERROR] something broke" {
		t.Errorf("unexpected line format: %q", lines[1])
	}
}

func TestWith_StampsEveryLine(t *testing.T) {
	l, path := newFileLogger(t)
	defer l.Close()

	run := l.With("job", "nightly", "run", "ab12cd34")
	run.Info("state transition", "from", "init", "to", "prechecks_run")

	lines := readLines(t, path)
	want := "[2026-04-01 09:30:00] [INFO] state transition job=nightly run=ab12cd34 from=init to=prechecks_run"
	if lines[0] != want {
		t.Errorf("line = %q, want %q", lines[0], want)
	}
}

func TestAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	if err := os.WriteFile(path, []byte("[2026-03-31 23:00:00] [INFO] earlier run\n"), 0o640); err != nil {
		t.Fatal(err)
	}

	l, err := New(Options{FilePath: path, Quiet: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.now = fixedClock
	l.Info("later run")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("file has %d lines, want 2 (append, never truncate): %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "earlier run") {
		t.Error("existing content was lost")
	}
}

func TestConcurrentWrites(t *testing.T) {
	l, path := newFileLogger(t)
	defer l.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			child := l.With("worker", "w")
			for j := 0; j < 50; j++ {
				child.Info("tick")
			}
		}()
	}
	wg.Wait()

	lines := readLines(t, path)
	if len(lines) != 400 {
		t.Fatalf("wrote %d lines, want 400", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "[2026-04-01 09:30:00] [INFO] tick worker=w") {
			t.Fatalf("interleaved or malformed line: %q", line)
		}
	}
}

func TestNoFileConfigured(t *testing.T) {
	l, err := New(Options{Quiet: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// No sink at all; logging must still be safe to call.
	l.Info("dropped")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
