package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expandCfg(start, end time.Time) ExpandConfig {
	return ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      start,
		RangeEnd:        end,
	}
}

func timedEvent(uid string, start, end time.Time) ParsedEvent {
	return ParsedEvent{
		Source:     testSource(),
		UID:        uid,
		Summary:    uid,
		Start:      start,
		End:        end,
		SourceType: "event",
	}
}

func TestExpandOccurrences_SingleEventInsideWindow(t *testing.T) {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	ev := timedEvent("single", start, end)

	res, err := ExpandOccurrences([]ParsedEvent{ev},
		expandCfg(start.AddDate(0, 0, -1), start.AddDate(0, 0, 7)))
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 1)

	occ := res.Occurrences[0]
	assert.Equal(t, "work", occ.SourceID)
	assert.Equal(t, "single", occ.UID)
	assert.True(t, start.Equal(occ.Start))
	assert.True(t, end.Equal(occ.End))
	assert.Equal(t, start.Format(time.RFC3339Nano), occ.InstanceKey)
}

func TestExpandOccurrences_SingleEventOutsideWindowDropped(t *testing.T) {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	ev := timedEvent("far", start, start.Add(time.Hour))

	res, err := ExpandOccurrences([]ParsedEvent{ev},
		expandCfg(start.AddDate(0, 1, 0), start.AddDate(0, 1, 7)))
	require.NoError(t, err)
	assert.Empty(t, res.Occurrences)
}

func TestExpandOccurrences_DailyRule(t *testing.T) {
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	ev := timedEvent("daily", start, start.Add(30*time.Minute))
	ev.RawRRule = "FREQ=DAILY;COUNT=10"

	res, err := ExpandOccurrences([]ParsedEvent{ev},
		expandCfg(start, start.AddDate(0, 0, 4)))
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 5, "five daily instances fall inside the window")

	keys := make(map[string]bool)
	for i, occ := range res.Occurrences {
		want := start.AddDate(0, 0, i)
		assert.True(t, want.Equal(occ.Start), "instance %d start", i)
		assert.True(t, want.Add(30*time.Minute).Equal(occ.End), "instance %d end", i)
		keys[occ.InstanceKey] = true
	}
	assert.Len(t, keys, 5, "instance keys are unique per occurrence")
}

func TestExpandOccurrences_ExDateRemovesInstance(t *testing.T) {
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	ev := timedEvent("with-ex", start, start.Add(time.Hour))
	ev.RawRRule = "FREQ=DAILY;COUNT=5"
	ev.ExDates = []time.Time{start.AddDate(0, 0, 2)}

	res, err := ExpandOccurrences([]ParsedEvent{ev},
		expandCfg(start, start.AddDate(0, 0, 10)))
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 4)

	for _, occ := range res.Occurrences {
		assert.False(t, start.AddDate(0, 0, 2).Equal(occ.Start), "excluded instance must not appear")
	}
}

func TestExpandOccurrences_RecurrenceIDOverrideReplacesInstance(t *testing.T) {
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	base := timedEvent("meet", start, start.Add(time.Hour))
	base.RawRRule = "FREQ=DAILY;COUNT=3"

	movedStart := start.AddDate(0, 0, 1).Add(3 * time.Hour)
	originalSlot := start.AddDate(0, 0, 1)
	override := timedEvent("meet", movedStart, movedStart.Add(time.Hour))
	override.Summary = "meet (moved)"
	override.Recurrence = &originalSlot
	override.IsOverride = true

	res, err := ExpandOccurrences([]ParsedEvent{base, override},
		expandCfg(start, start.AddDate(0, 0, 10)))
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 3)

	var moved int
	for _, occ := range res.Occurrences {
		if occ.Summary == "meet (moved)" {
			moved++
			assert.True(t, movedStart.Equal(occ.Start))
		}
	}
	assert.Equal(t, 1, moved, "exactly one instance is replaced by the override")
}

func TestExpandOccurrences_AllDayRecurring(t *testing.T) {
	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	ev := timedEvent("allday", start, start.Add(24*time.Hour))
	ev.AllDay = true
	ev.RawRRule = "FREQ=WEEKLY;COUNT=2"

	res, err := ExpandOccurrences([]ParsedEvent{ev},
		expandCfg(start, start.AddDate(0, 0, 14)))
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 2)

	for _, occ := range res.Occurrences {
		assert.True(t, occ.AllDay)
		assert.Equal(t, 0, occ.Start.Hour())
		assert.Equal(t, 24*time.Hour, occ.End.Sub(occ.Start))
	}
}

func TestExpandOccurrences_CapTruncatesRunawayRule(t *testing.T) {
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	ev := timedEvent("runaway", start, start.Add(time.Minute))
	ev.RawRRule = "FREQ=MINUTELY"

	res, err := ExpandOccurrences([]ParsedEvent{ev}, ExpandConfig{
		DisplayLocation:        time.UTC,
		RangeStart:             start,
		RangeEnd:               start.AddDate(0, 0, 1),
		MaxOccurrencesPerEvent: 50,
	})
	require.NoError(t, err)
	assert.Len(t, res.Occurrences, 50)
	assert.Equal(t, []string{"runaway"}, res.TruncatedEvents)
}

func TestExpandOccurrences_InvalidWindowRejected(t *testing.T) {
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	_, err := ExpandOccurrences(nil, expandCfg(start, start.AddDate(0, 0, -1)))
	assert.Error(t, err)
}

func TestExpandOccurrences_DisplayTimezoneNormalization(t *testing.T) {
	loc, lerr := time.LoadLocation("Asia/Seoul")
	if lerr != nil {
		t.Skip("tzdata unavailable")
	}

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	ev := timedEvent("tz", start, start.Add(time.Hour))

	res, err := ExpandOccurrences([]ParsedEvent{ev}, ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      start.AddDate(0, 0, -1),
		RangeEnd:        start.AddDate(0, 0, 1),
	})
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 1)

	occ := res.Occurrences[0]
	assert.Equal(t, loc, occ.Start.Location())
	assert.Equal(t, 19, occ.Start.Hour(), "10:00 UTC is 19:00 in Seoul")
	assert.True(t, start.Equal(occ.Start), "same instant, display zone only")
}
