// Package store persists committed time overrides for calendar occurrences.
//
// The manipulation engine itself never touches storage: it hands validated
// ProposedTimes to a commit callback, and this package is the callback's
// target. Overrides are keyed per occurrence so a committed drag survives
// the next ICS refresh/re-expansion.
package store

import (
	"context"
	"time"

	"dragcal/internal/model"
)

// Override is one committed time change for a single occurrence.
type Override struct {
	SourceID    string
	UID         string
	InstanceKey string

	Start time.Time
	End   time.Time

	UpdatedAt time.Time
}

// Repository is the persistence interface for committed overrides.
type Repository interface {
	// SaveOverride inserts or replaces the override for one occurrence.
	SaveOverride(ctx context.Context, ov Override) error

	// GetOverride returns the override for one occurrence, if any.
	GetOverride(ctx context.Context, sourceID, uid, instanceKey string) (Override, bool, error)

	// ListOverrides returns all stored overrides.
	ListOverrides(ctx context.Context) ([]Override, error)

	// DeleteOverride removes the override for one occurrence.
	DeleteOverride(ctx context.Context, sourceID, uid, instanceKey string) error

	Ping(ctx context.Context) error
	Close() error
}

// ApplyOverrides replaces the times of any occurrence that has a stored
// override. InstanceKey is left untouched: it identifies the original
// instance, not the moved one.
func ApplyOverrides(occs []model.Occurrence, overrides []Override) []model.Occurrence {
	if len(overrides) == 0 {
		return occs
	}

	type key struct{ source, uid, instance string }
	byKey := make(map[key]Override, len(overrides))
	for _, ov := range overrides {
		byKey[key{ov.SourceID, ov.UID, ov.InstanceKey}] = ov
	}

	out := make([]model.Occurrence, len(occs))
	for i, occ := range occs {
		if ov, ok := byKey[key{occ.SourceID, occ.UID, occ.InstanceKey}]; ok {
			occ.Start = ov.Start.In(occ.Start.Location())
			occ.End = ov.End.In(occ.End.Location())
		}
		out[i] = occ
	}
	return out
}
