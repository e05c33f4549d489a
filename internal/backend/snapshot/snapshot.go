package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backhaul/internal/backend"
)

// Adapter delegates to a restic repository. One Produce call creates one
// snapshot tagged with the job's tag; deletion uses restic's native forget
// --prune semantics, so one deleted artifact does not map 1:1 onto storage
// reclaimed (shared chunks stay until unreferenced).
type Adapter struct {
	opts Options
	run  commandRunner
}

type Options struct {
	// Binary overrides the restic executable name, mostly for tests.
	Binary string
	// PasswordFile and Env are passed through verbatim; credentials are the
	// caller's concern.
	PasswordFile string
	Env          []string
}

func New(opts Options) *Adapter {
	if opts.Binary == "" {
		opts.Binary = "restic"
	}
	return &Adapter{opts: opts, run: execRunner{}}
}

func (a *Adapter) Kind() backend.Kind      { return backend.KindSnapshot }
func (a *Adapter) RequiredTools() []string { return []string{a.opts.Binary} }

func (a *Adapter) baseArgs(job backend.Job) []string {
	args := []string{"-r", job.Destination, "--json"}
	if a.opts.PasswordFile != "" {
		args = append(args, "--password-file", a.opts.PasswordFile)
	}
	return args
}

func (a *Adapter) Produce(ctx context.Context, job backend.Job) (backend.Artifact, error) {
	args := append(a.baseArgs(job), "backup", job.Source)
	for _, p := range job.Exclusions {
		// Passed to restic verbatim; restic's own glob semantics apply on
		// this backend.
		args = append(args, "--exclude", p)
	}
	if job.Tag != "" {
		args = append(args, "--tag", job.Tag)
	}

	stdout, stderr, err := a.run.run(ctx, a.opts.Binary, args, a.opts.Env)
	if err != nil {
		return backend.Artifact{}, commandError("restic backup", err, stderr)
	}

	sum, err := parseBackupSummary(stdout)
	if err != nil {
		return backend.Artifact{}, fmt.Errorf("restic backup: %w", err)
	}
	return backend.Artifact{
		ID:        sum.SnapshotID,
		CreatedAt: time.Now().UTC(),
		SizeBytes: sum.TotalBytesProcessed,
		Tag:       job.Tag,
	}, nil
}

func (a *Adapter) ListArtifacts(ctx context.Context, job backend.Job) ([]backend.Artifact, error) {
	args := append(a.baseArgs(job), "snapshots")
	if job.Tag != "" {
		args = append(args, "--tag", job.Tag)
	}
	stdout, stderr, err := a.run.run(ctx, a.opts.Binary, args, a.opts.Env)
	if err != nil {
		return nil, commandError("restic snapshots", err, stderr)
	}
	snaps, err := parseSnapshots(stdout)
	if err != nil {
		return nil, fmt.Errorf("restic snapshots: %w", err)
	}
	out := make([]backend.Artifact, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, backend.Artifact{
			ID:        s.id(),
			CreatedAt: s.Time,
			Tag:       firstTag(s.Tags),
		})
	}
	return out, nil
}

func (a *Adapter) Delete(ctx context.Context, job backend.Job, art backend.Artifact) error {
	args := append(a.baseArgs(job), "forget", "--prune", art.ID)
	_, stderr, err := a.run.run(ctx, a.opts.Binary, args, a.opts.Env)
	if err != nil {
		if snapshotMissing(stderr) {
			return nil
		}
		return commandError("restic forget", err, stderr)
	}
	return nil
}

// Probe reports whether the repository is initialized. An unreachable
// repository is an error; a missing one is simply uninitialized.
func (a *Adapter) Probe(ctx context.Context, job backend.Job) (bool, error) {
	args := append(a.baseArgs(job), "cat", "config")
	_, stderr, err := a.run.run(ctx, a.opts.Binary, args, a.opts.Env)
	if err == nil {
		return true, nil
	}
	if repositoryMissing(stderr) {
		return false, nil
	}
	return false, commandError("restic cat config", err, stderr)
}

func (a *Adapter) Init(ctx context.Context, job backend.Job) error {
	args := append(a.baseArgs(job), "init")
	_, stderr, err := a.run.run(ctx, a.opts.Binary, args, a.opts.Env)
	if err != nil {
		if strings.Contains(string(stderr), "already initialized") {
			return nil
		}
		return commandError("restic init", err, stderr)
	}
	return nil
}

func firstTag(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return tags[0]
}

var (
	_ backend.Adapter    = (*Adapter)(nil)
	_ backend.Repository = (*Adapter)(nil)
)
