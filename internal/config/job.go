package config

import (
	"backhaul/internal/backend"
)

// ToJob resolves a job's config into the immutable value every engine
// component consumes. Validation is assumed to have passed.
func (j *JobConfig) ToJob() (backend.Job, error) {
	kind, ok := backend.ParseKind(j.Backend)
	if !ok {
		return backend.Job{}, ErrInvalidBackend
	}
	policy, err := j.Retention.Policy()
	if err != nil {
		return backend.Job{}, err
	}
	return backend.Job{
		Name:        j.Name,
		Kind:        kind,
		Source:      j.Source,
		Destination: j.Destination,
		MountCheck:  j.MountCheck,
		Exclusions:  append([]string(nil), j.Exclude...),
		Retention:   policy,
		Tag:         j.Tag,
	}, nil
}
