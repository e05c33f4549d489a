package retention

import (
	"time"

	"backhaul/internal/backend"
)

// SelectForDeletion computes the artifacts a retention policy makes eligible
// for deletion at time now. Pure function: no I/O, input slice is never
// mutated.
//
// The most-recently-created artifact is never selected, even when it
// qualifies by age, so every run leaves at least one recoverable backup
// behind. For KeepWithin the floor applies per tag group, because tagged
// snapshot sets age independently.
func SelectForDeletion(p backend.RetentionPolicy, artifacts []backend.Artifact, now time.Time) []backend.Artifact {
	switch p.Kind {
	case backend.PolicyMaxAgeDays:
		if p.Days < 0 {
			return nil
		}
		cutoff := now.AddDate(0, 0, -p.Days)
		return selectOlder(artifacts, cutoff, newestIndex(artifacts))
	case backend.PolicyKeepWithin:
		if p.Within < 0 {
			return nil
		}
		cutoff := now.Add(-p.Within)
		var out []backend.Artifact
		for _, group := range groupByTag(artifacts) {
			out = append(out, selectOlder(group, cutoff, newestIndex(group))...)
		}
		return out
	default:
		return nil
	}
}

func selectOlder(artifacts []backend.Artifact, cutoff time.Time, protect int) []backend.Artifact {
	var out []backend.Artifact
	for i, a := range artifacts {
		if i == protect {
			continue
		}
		if a.CreatedAt.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

func newestIndex(artifacts []backend.Artifact) int {
	newest := -1
	for i, a := range artifacts {
		if newest < 0 || a.CreatedAt.After(artifacts[newest].CreatedAt) {
			newest = i
		}
	}
	return newest
}

func groupByTag(artifacts []backend.Artifact) [][]backend.Artifact {
	var order []string
	byTag := make(map[string][]backend.Artifact)
	for _, a := range artifacts {
		if _, ok := byTag[a.Tag]; !ok {
			order = append(order, a.Tag)
		}
		byTag[a.Tag] = append(byTag[a.Tag], a)
	}
	out := make([][]backend.Artifact, 0, len(order))
	for _, tag := range order {
		out = append(out, byTag[tag])
	}
	return out
}
