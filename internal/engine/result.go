package engine

import "backhaul/internal/backend"

type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
	StatusFailure        Status = "failure"
)

// ExitCode maps an outcome class to the process exit code, so calling
// schedulers can alert differently on "no backup was produced" versus
// "backup produced, cleanup failed".
func (s Status) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartialFailure:
		return 2
	default:
		return 1
	}
}

// RunResult is created once per Execute and never mutated afterward.
type RunResult struct {
	Status           Status
	ArtifactProduced *backend.Artifact
	DeletedArtifacts []backend.Artifact
	Err              error
}
