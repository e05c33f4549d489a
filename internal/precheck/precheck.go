package precheck

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"backhaul/internal/backend"
	"backhaul/internal/engine"
)

// Checker verifies every precondition of a job before the backend touches
// anything. All checks are read-only; repository initialization is signalled
// via NeedsInit and performed by the runner, never here.
type Checker struct {
	adapter backend.Adapter

	lookPath func(string) (string, error)
}

func New(adapter backend.Adapter) *Checker {
	return &Checker{adapter: adapter, lookPath: exec.LookPath}
}

func (c *Checker) Check(ctx context.Context, job backend.Job) (engine.PrecheckResult, error) {
	var res engine.PrecheckResult

	for _, tool := range c.adapter.RequiredTools() {
		if _, err := c.lookPath(tool); err != nil {
			return res, &engine.Error{
				Kind: engine.KindMissingDependency,
				Op:   "precheck",
				Err:  fmt.Errorf("required tool %q not found in PATH", tool),
			}
		}
	}

	if err := checkSource(job.Source); err != nil {
		return res, &engine.Error{Kind: engine.KindSourceUnavailable, Op: "precheck", Err: err}
	}

	// An existing directory is not enough: if the backup volume failed to
	// mount, the destination silently lands on the root filesystem.
	if job.MountCheck != "" {
		mounted, err := isMountPoint(job.MountCheck)
		if err != nil {
			return res, &engine.Error{Kind: engine.KindDestinationUnavailable, Op: "precheck", Err: err}
		}
		if !mounted {
			return res, &engine.Error{
				Kind: engine.KindDestinationUnavailable,
				Op:   "precheck",
				Err:  fmt.Errorf("%s is not a live mount point", job.MountCheck),
			}
		}
	}

	if repo, ok := c.adapter.(backend.Repository); ok {
		initialized, err := repo.Probe(ctx, job)
		if err != nil {
			return res, &engine.Error{Kind: engine.KindDestinationUnavailable, Op: "precheck", Err: err}
		}
		res.NeedsInit = !initialized
	}

	return res, nil
}

func checkSource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	// Readability, not just existence.
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	_ = f.Close()
	_ = info
	return nil
}
