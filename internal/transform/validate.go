package transform

import (
	"errors"
	"time"

	"dragcal/internal/model"
)

// Rejection sentinels. These are recovered locally by the caller (surfaced
// as a warning, no mutation applied); nothing in this package panics.
var (
	// ErrInvalidRange rejects a proposal whose end is not strictly after
	// its start.
	ErrInvalidRange = errors.New("transform: proposed end must be after start")

	// ErrDurationTooShort rejects a proposal shorter than the configured
	// minimum duration.
	ErrDurationTooShort = errors.New("transform: proposed duration below minimum")

	// ErrProtectedResize rejects any resize of a task-backed event.
	ErrProtectedResize = errors.New("transform: task-backed event cannot be resized")
)

// Op identifies which manipulation produced a proposal.
type Op int

const (
	OpMove Op = iota
	OpResize
)

// Policy validates proposed times before they may become caller-visible.
type Policy struct {
	// MinimumDuration is the smallest committed event length allowed.
	MinimumDuration time.Duration
}

// Validate checks a proposal against the policy. A nil return accepts the
// proposal as-is; a sentinel error rejects it with no state mutated.
//
// The task protection applies to resize only: moving a task-backed event is
// deliberately left unrestricted, matching observable product behavior.
func (p Policy) Validate(ev model.Event, proposed model.ProposedTimes, op Op) error {
	if op == OpResize && ev.Protected() {
		return ErrProtectedResize
	}
	if !proposed.End.After(proposed.Start) {
		return ErrInvalidRange
	}
	if proposed.End.Sub(proposed.Start) < p.MinimumDuration {
		return ErrDurationTooShort
	}
	return nil
}
