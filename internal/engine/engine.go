package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"backhaul/internal/backend"
	"backhaul/internal/logging"
	"backhaul/internal/retention"
)

type State string

const (
	StateInit         State = "init"
	StatePrechecksRun State = "prechecks_run"
	StateProducing    State = "producing"
	StateProduced     State = "produced"
	StateRetentionRun State = "retention_run"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

type PrecheckResult struct {
	NeedsInit bool
}

// Prechecker is the subset of precondition checking the runner depends on.
// *precheck.Checker implements this interface.
type Prechecker interface {
	Check(ctx context.Context, job backend.Job) (PrecheckResult, error)
}

// Runner owns the lifecycle of one backup run. Execution is strictly
// sequential: preconditions, then production, then retention. Retention
// never runs unless production succeeded, and a retention failure
// downgrades the result instead of invalidating the produced backup.
type Runner struct {
	adapter backend.Adapter
	pre     Prechecker
	log     *logging.Logger
	now     func() time.Time
}

func New(adapter backend.Adapter, pre Prechecker, log *logging.Logger) *Runner {
	return &Runner{adapter: adapter, pre: pre, log: log, now: time.Now}
}

func (r *Runner) Execute(ctx context.Context, job backend.Job) RunResult {
	runID := uuid.NewString()[:8]
	log := r.log.With("job", job.Name, "run", runID)

	state := StateInit
	transition := func(next State) {
		log.Info("state transition", "from", state, "to", next)
		state = next
	}
	fail := func(err error) RunResult {
		log.Error(err.Error(), "state", state, "kind", KindOf(err))
		transition(StateFailed)
		return RunResult{Status: StatusFailure, Err: err}
	}

	log.Info("run starting", "backend", job.Kind, "source", job.Source, "destination", job.Destination)

	transition(StatePrechecksRun)
	pre, err := r.pre.Check(ctx, job)
	if err != nil {
		return fail(classifyCancel(ctx, err))
	}

	if pre.NeedsInit {
		repo, ok := r.adapter.(backend.Repository)
		if !ok {
			return fail(&Error{
				Kind: KindRepositoryInitFailure,
				Op:   "init",
				Err:  fmt.Errorf("backend %s reported NeedsInit but cannot initialize", job.Kind),
			})
		}
		log.Info("initializing repository", "destination", job.Destination)
		if err := repo.Init(ctx, job); err != nil {
			return fail(&Error{Kind: KindRepositoryInitFailure, Op: "init", Err: err})
		}
	}

	transition(StateProducing)
	artifact, err := r.adapter.Produce(ctx, job)
	if err != nil {
		// Partial artifacts stay in place for inspection; never clean up
		// after a failed production.
		return fail(classifyCancel(ctx, wrapProduce(err)))
	}
	transition(StateProduced)
	log.Info("artifact produced", "id", artifact.ID, "size", artifact.SizeBytes)

	result := RunResult{Status: StatusSuccess, ArtifactProduced: &artifact}

	if job.Retention.Kind == backend.PolicyNone {
		transition(StateDone)
		log.Info("run complete", "status", result.Status)
		return result
	}

	transition(StateRetentionRun)
	deleted, retErr := r.enforceRetention(ctx, log, job, artifact)
	result.DeletedArtifacts = deleted
	if retErr != nil {
		result.Status = StatusPartialFailure
		result.Err = retErr
		log.Error("retention failed, backup itself succeeded", "deleted", len(deleted), "error", retErr)
	}

	transition(StateDone)
	log.Info("run complete", "status", result.Status, "deleted", len(deleted))
	return result
}

func (r *Runner) enforceRetention(ctx context.Context, log *logging.Logger, job backend.Job, produced backend.Artifact) ([]backend.Artifact, error) {
	artifacts, err := r.adapter.ListArtifacts(ctx, job)
	if err != nil {
		return nil, &Error{Kind: KindRetentionFailure, Op: "list artifacts", Err: err}
	}

	toDelete := retention.SelectForDeletion(job.Retention, artifacts, r.now())

	var deleted []backend.Artifact
	var errs []error
	for _, a := range toDelete {
		if a.ID == produced.ID {
			continue
		}
		if err := r.adapter.Delete(ctx, job, a); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", a.ID, err))
			log.Error("artifact deletion failed", "id", a.ID, "error", err)
			continue
		}
		deleted = append(deleted, a)
		log.Info("artifact deleted", "id", a.ID, "created_at", a.CreatedAt.Format(time.RFC3339))
	}
	if len(errs) > 0 {
		return deleted, &Error{Kind: KindRetentionFailure, Op: "retention", Err: errors.Join(errs...)}
	}
	return deleted, nil
}

func wrapProduce(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindBackendFailure, Op: "produce", Err: err}
}

func classifyCancel(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindCancelled, Op: "run", Err: err}
	}
	return err
}
