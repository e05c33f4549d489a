package engine

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the engine can surface. Precondition
// and backend errors are wrapped with a kind and propagated unchanged, never
// swallowed; the kind decides the process exit class.
type ErrorKind string

const (
	KindMissingDependency      ErrorKind = "missing_dependency"
	KindSourceUnavailable      ErrorKind = "source_unavailable"
	KindDestinationUnavailable ErrorKind = "destination_unavailable"
	KindRepositoryInitFailure  ErrorKind = "repository_init_failure"
	KindBackendFailure         ErrorKind = "backend_failure"
	KindRetentionFailure       ErrorKind = "retention_failure"
	KindCancelled              ErrorKind = "cancelled"
)

type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the error kind from anywhere in a wrapped chain. Unknown
// errors classify as backend failures.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBackendFailure
}
