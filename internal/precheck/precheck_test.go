package precheck

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"backhaul/internal/backend"
	"backhaul/internal/engine"
)

type stubAdapter struct {
	tools []string
}

func (s *stubAdapter) Kind() backend.Kind      { return backend.KindArchive }
func (s *stubAdapter) RequiredTools() []string { return s.tools }

func (s *stubAdapter) Produce(ctx context.Context, job backend.Job) (backend.Artifact, error) {
	return backend.Artifact{}, nil
}

func (s *stubAdapter) ListArtifacts(ctx context.Context, job backend.Job) ([]backend.Artifact, error) {
	return nil, nil
}

func (s *stubAdapter) Delete(ctx context.Context, job backend.Job, a backend.Artifact) error {
	return nil
}

type stubRepo struct {
	stubAdapter
	initialized bool
	probeErr    error
}

func (s *stubRepo) Probe(ctx context.Context, job backend.Job) (bool, error) {
	return s.initialized, s.probeErr
}

func (s *stubRepo) Init(ctx context.Context, job backend.Job) error { return nil }

func TestCheck_AllPreconditionsMet(t *testing.T) {
	c := New(&stubAdapter{})
	res, err := c.Check(context.Background(), backend.Job{Source: t.TempDir(), Destination: t.TempDir()})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.NeedsInit {
		t.Error("non-repository backend must never report NeedsInit")
	}
}

func TestCheck_MissingTool(t *testing.T) {
	c := New(&stubAdapter{tools: []string{"restic"}})
	c.lookPath = func(name string) (string, error) {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}

	_, err := c.Check(context.Background(), backend.Job{Source: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for missing tool")
	}
	if engine.KindOf(err) != engine.KindMissingDependency {
		t.Errorf("error kind = %s, want %s", engine.KindOf(err), engine.KindMissingDependency)
	}
}

func TestCheck_MissingSource(t *testing.T) {
	c := New(&stubAdapter{})
	_, err := c.Check(context.Background(), backend.Job{Source: "/does/not/exist"})
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if engine.KindOf(err) != engine.KindSourceUnavailable {
		t.Errorf("error kind = %s, want %s", engine.KindOf(err), engine.KindSourceUnavailable)
	}
}

func TestCheck_MountCheckFailsOnPlainDir(t *testing.T) {
	// A temp dir lives on the same filesystem as its parent, so it can
	// never pass the mount liveness check.
	c := New(&stubAdapter{})
	_, err := c.Check(context.Background(), backend.Job{Source: t.TempDir(), MountCheck: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for non-mount-point mount_check path")
	}
	if engine.KindOf(err) != engine.KindDestinationUnavailable {
		t.Errorf("error kind = %s, want %s", engine.KindOf(err), engine.KindDestinationUnavailable)
	}
}

func TestCheck_RootIsAlwaysMounted(t *testing.T) {
	c := New(&stubAdapter{})
	_, err := c.Check(context.Background(), backend.Job{Source: t.TempDir(), MountCheck: "/"})
	if err != nil {
		t.Fatalf("mount check on / must pass, got %v", err)
	}
}

func TestCheck_RepositoryProbe(t *testing.T) {
	t.Run("uninitialized reports NeedsInit", func(t *testing.T) {
		c := New(&stubRepo{initialized: false})
		res, err := c.Check(context.Background(), backend.Job{Source: t.TempDir()})
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if !res.NeedsInit {
			t.Error("uninitialized repository must report NeedsInit")
		}
	})
	t.Run("initialized", func(t *testing.T) {
		c := New(&stubRepo{initialized: true})
		res, err := c.Check(context.Background(), backend.Job{Source: t.TempDir()})
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if res.NeedsInit {
			t.Error("initialized repository must not report NeedsInit")
		}
	})
	t.Run("probe failure", func(t *testing.T) {
		c := New(&stubRepo{probeErr: errors.New("connection refused")})
		_, err := c.Check(context.Background(), backend.Job{Source: t.TempDir()})
		if err == nil {
			t.Fatal("expected error for failing probe")
		}
		if engine.KindOf(err) != engine.KindDestinationUnavailable {
			t.Errorf("error kind = %s, want %s", engine.KindOf(err), engine.KindDestinationUnavailable)
		}
	})
}
