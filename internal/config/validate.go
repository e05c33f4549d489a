package config

import (
	"errors"
	"fmt"
	"time"

	"backhaul/internal/backend"
)

var (
	ErrInvalidBackend    = errors.New("invalid backend: must be 'archive', 'snapshot', or 'sync'")
	ErrAmbiguousPolicy   = errors.New("retention: set max_age_days or keep_within, not both")
	ErrInvalidKeepWithin = errors.New("retention: keep_within must be a positive duration")
)

func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	names := make(map[string]struct{}, len(cfg.Jobs))
	for i := range cfg.Jobs {
		if err := validateJob(cfg, &cfg.Jobs[i]); err != nil {
			return err
		}
		if _, dup := names[cfg.Jobs[i].Name]; dup {
			return fmt.Errorf("job %q: duplicate name", cfg.Jobs[i].Name)
		}
		names[cfg.Jobs[i].Name] = struct{}{}
	}
	return nil
}

func validateJob(cfg *Config, j *JobConfig) error {
	if j.Name == "" {
		return fmt.Errorf("job without a name")
	}
	kind, ok := backend.ParseKind(j.Backend)
	if !ok {
		return fmt.Errorf("job %q: %w (got %q)", j.Name, ErrInvalidBackend, j.Backend)
	}
	if j.Source == "" {
		return fmt.Errorf("job %q: source is required", j.Name)
	}
	if j.Destination == "" {
		return fmt.Errorf("job %q: destination is required", j.Name)
	}
	if kind == backend.KindSync && cfg.S3 == nil {
		return fmt.Errorf("job %q: sync backend requires an s3 section", j.Name)
	}
	if j.Retention != nil {
		if _, err := j.Retention.Policy(); err != nil {
			return fmt.Errorf("job %q: %w", j.Name, err)
		}
	}
	return nil
}

// Policy converts the loose config form into the engine's closed variant.
func (r *RetentionConfig) Policy() (backend.RetentionPolicy, error) {
	if r == nil {
		return backend.RetentionPolicy{}, nil
	}
	if r.MaxAgeDays > 0 && r.KeepWithin != "" {
		return backend.RetentionPolicy{}, ErrAmbiguousPolicy
	}
	if r.KeepWithin != "" {
		d, err := time.ParseDuration(r.KeepWithin)
		if err != nil || d <= 0 {
			return backend.RetentionPolicy{}, fmt.Errorf("%w (got %q)", ErrInvalidKeepWithin, r.KeepWithin)
		}
		return backend.KeepWithin(d), nil
	}
	if r.MaxAgeDays > 0 {
		return backend.MaxAgeDays(r.MaxAgeDays), nil
	}
	return backend.RetentionPolicy{}, nil
}
