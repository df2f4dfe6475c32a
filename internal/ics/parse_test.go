package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func icsBody(lines ...string) []byte {
	all := append([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
	}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

func testSource() Source {
	return Source{ID: "work", URL: "https://example.com/cal.ics", SourceType: "event"}
}

func TestParseICS_TimedEvent(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:ev-1",
		"SUMMARY:Standup",
		"DESCRIPTION:Daily sync",
		"LOCATION:Room 4",
		"DTSTART:20260310T100000Z",
		"DTEND:20260310T103000Z",
		"END:VEVENT",
	)

	events, err := ParseICS(testSource(), body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "ev-1", ev.UID)
	assert.Equal(t, "Standup", ev.Summary)
	assert.Equal(t, "Daily sync", ev.Description)
	assert.Equal(t, "Room 4", ev.Location)
	assert.Equal(t, "event", ev.SourceType)
	assert.False(t, ev.AllDay)
	assert.True(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC).Equal(ev.Start))
	assert.True(t, time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC).Equal(ev.End))
}

func TestParseICS_AllDayEvent(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:ev-2",
		"SUMMARY:Holiday",
		"DTSTART;VALUE=DATE:20260310",
		"DTEND;VALUE=DATE:20260311",
		"END:VEVENT",
	)

	events, err := ParseICS(testSource(), body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].AllDay)
}

func TestParseICS_TaskMarkerOverridesSourceType(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:ev-3",
		"SUMMARY:Pay invoice",
		"DTSTART:20260310T090000Z",
		"DTEND:20260310T091500Z",
		"X-ACTIVITY-TYPE:TASK",
		"END:VEVENT",
	)

	events, err := ParseICS(testSource(), body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "task", events[0].SourceType)
	assert.Equal(t, "task", events[0].Metadata["activityType"])
}

func TestParseICS_RecurrenceFieldsKeptRaw(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:ev-4",
		"SUMMARY:Weekly",
		"DTSTART:20260302T100000Z",
		"DTEND:20260302T110000Z",
		"RRULE:FREQ=WEEKLY;BYDAY=MO",
		"EXDATE:20260316T100000Z",
		"END:VEVENT",
	)

	events, err := ParseICS(testSource(), body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO", ev.RawRRule)
	require.Len(t, ev.ExDates, 1)
	assert.True(t, time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC).Equal(ev.ExDates[0]))
	assert.False(t, ev.IsOverride)
}

func TestParseICS_RecurrenceIDMarksOverride(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:ev-5",
		"SUMMARY:Moved instance",
		"DTSTART:20260309T140000Z",
		"DTEND:20260309T150000Z",
		"RECURRENCE-ID:20260309T100000Z",
		"END:VEVENT",
	)

	events, err := ParseICS(testSource(), body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.True(t, ev.IsOverride)
	require.NotNil(t, ev.Recurrence)
	assert.True(t, time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC).Equal(*ev.Recurrence))
}

func TestParseICS_EventWithoutUIDSkipped(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"SUMMARY:No identity",
		"DTSTART:20260310T100000Z",
		"DTEND:20260310T110000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ev-6",
		"SUMMARY:Valid",
		"DTSTART:20260310T120000Z",
		"DTEND:20260310T130000Z",
		"END:VEVENT",
	)

	events, err := ParseICS(testSource(), body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev-6", events[0].UID)
}

func TestParseICS_EmptyBodyRejected(t *testing.T) {
	_, err := ParseICS(testSource(), nil)
	assert.Error(t, err)
}
