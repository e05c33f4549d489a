package lock

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLocalAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(LocalOptions{Dir: dir, Name: "nightly"})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	ctx := context.Background()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "nightly.lock")); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}
	if err := l.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "nightly.lock")); !os.IsNotExist(err) {
		t.Fatal("lock file still present after release")
	}
}

func TestLocalSecondAcquireBlocked(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, _ := NewLocal(LocalOptions{Dir: dir, Name: "job"})
	if err := first.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	defer first.Release(ctx)

	second, _ := NewLocal(LocalOptions{Dir: dir, Name: "job"})
	if err := second.Acquire(ctx); err == nil {
		t.Fatal("second Acquire must fail while the lock is held")
	}
}

func TestLocalStaleTakeover(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.lock")
	if err := os.WriteFile(path, []byte("12345\n"), 0o640); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	// Without a TTL the existing file always wins.
	noTTL, _ := NewLocal(LocalOptions{Dir: dir, Name: "job"})
	if err := noTTL.Acquire(ctx); err == nil {
		t.Fatal("Acquire without TTL must refuse an existing lock file")
	}

	// With a TTL shorter than the file's age the lock is stale and taken over.
	withTTL, _ := NewLocal(LocalOptions{Dir: dir, Name: "job", TTL: time.Hour})
	if err := withTTL.Acquire(ctx); err != nil {
		t.Fatalf("stale lock takeover failed: %v", err)
	}
	if err := withTTL.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestLocalFreshLockNotTakenOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.lock")
	if err := os.WriteFile(path, []byte("12345\n"), 0o640); err != nil {
		t.Fatal(err)
	}

	l, _ := NewLocal(LocalOptions{Dir: dir, Name: "job", TTL: time.Hour})
	if err := l.Acquire(context.Background()); err == nil {
		t.Fatal("a lock file younger than the TTL must not be taken over")
	}
}

func TestLocalReleaseWithoutAcquire(t *testing.T) {
	l, _ := NewLocal(LocalOptions{Dir: t.TempDir(), Name: "job"})
	if err := l.Release(context.Background()); err != nil {
		t.Fatalf("Release without Acquire must be a no-op, got %v", err)
	}
}

func TestLocalRejectsPathyName(t *testing.T) {
	l, err := NewLocal(LocalOptions{Dir: t.TempDir(), Name: "../evil"})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if filepath.Base(l.path) != "default.lock" {
		t.Errorf("path-like name not normalized: %s", l.path)
	}
}
