package backend

import (
	"context"
	"time"
)

type Kind string

const (
	KindArchive  Kind = "archive"
	KindSnapshot Kind = "snapshot"
	KindSync     Kind = "sync"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindArchive, KindSnapshot, KindSync:
		return Kind(s), true
	default:
		return "", false
	}
}

// Job is one fully-resolved backup job. Built once by the caller and treated
// as immutable by every component that receives it.
type Job struct {
	Name        string
	Kind        Kind
	Source      string
	Destination string
	MountCheck  string
	Exclusions  []string
	Retention   RetentionPolicy
	Tag         string
}

// PolicyKind is a closed variant; free-form policy strings are parsed once
// in config, never here.
type PolicyKind string

const (
	PolicyNone       PolicyKind = ""
	PolicyMaxAgeDays PolicyKind = "max_age_days"
	PolicyKeepWithin PolicyKind = "keep_within"
)

type RetentionPolicy struct {
	Kind   PolicyKind
	Days   int           // PolicyMaxAgeDays
	Within time.Duration // PolicyKeepWithin
}

func MaxAgeDays(n int) RetentionPolicy {
	return RetentionPolicy{Kind: PolicyMaxAgeDays, Days: n}
}

func KeepWithin(d time.Duration) RetentionPolicy {
	return RetentionPolicy{Kind: PolicyKeepWithin, Within: d}
}

// Artifact is one discrete output of a backup run: an archive file, a
// snapshot, or a remote object. Enumerated transiently from the backend;
// the backend itself is the source of truth.
type Artifact struct {
	ID        string
	CreatedAt time.Time
	SizeBytes int64
	Tag       string
}

// Adapter is implemented once per backend kind. Delete must treat an
// already-absent artifact as success so that overlapping cleanups stay
// idempotent.
type Adapter interface {
	Kind() Kind
	RequiredTools() []string
	Produce(ctx context.Context, job Job) (Artifact, error)
	ListArtifacts(ctx context.Context, job Job) ([]Artifact, error)
	Delete(ctx context.Context, job Job, a Artifact) error
}

// Repository is implemented by adapters whose destination must be
// initialized before first use. Probe reports initialized=false for a
// missing repository without failing; the runner calls Init at most once
// per run, only when Probe said so.
type Repository interface {
	Probe(ctx context.Context, job Job) (initialized bool, err error)
	Init(ctx context.Context, job Job) error
}
