package model

import "time"

// Event represents a logical calendar event before recurrence expansion.
// Start/End are kept in the event's own timezone; expansion normalizes
// occurrences into the configured display timezone.
type Event struct {
	SourceID string // calendar source ID (e.g., config ICS ID)
	UID      string // iCalendar UID

	Summary     string
	Description string
	Location    string

	AllDay bool

	Start time.Time
	End   time.Time

	// SourceType identifies the backing record kind ("event", "task", ...).
	// Task-backed events are protected: they must not be resized through
	// direct manipulation.
	SourceType string

	// Metadata carries extra attributes from the source. A value of "task"
	// under "activityType" marks the event as protected, same as SourceType.
	Metadata map[string]string
}

// Protected reports whether the event is backed by a task record.
// Protected events reject resize (but not move; see transform.Policy).
func (e Event) Protected() bool {
	if e.SourceType == "task" {
		return true
	}
	return e.Metadata["activityType"] == "task"
}

// Duration returns End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Occurrence represents a single concrete instance of an event
// (after recurrence expansion and timezone normalization).
type Occurrence struct {
	SourceID string
	UID      string

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	AllDay bool

	SourceType string
	Metadata   map[string]string

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}

// Event projects the occurrence back onto an Event value, which is what the
// transform/validation pipeline operates on.
func (o Occurrence) Event() Event {
	return Event{
		SourceID:    o.SourceID,
		UID:         o.UID,
		Summary:     o.Summary,
		Description: o.Description,
		Location:    o.Location,
		AllDay:      o.AllDay,
		Start:       o.Start,
		End:         o.End,
		SourceType:  o.SourceType,
		Metadata:    o.Metadata,
	}
}

// ProposedTimes is the unvalidated output of a temporal transform.
// It becomes caller-visible only after validation succeeds.
type ProposedTimes struct {
	Start time.Time
	End   time.Time
}
