package timeparse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markshust/pr-merge-scheduler/internal/timeparse"
)

// Fixed reference instant used across validation tests.
var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestParse_TwelveHourEquivalence(t *testing.T) {
	tests := []struct {
		name       string
		twelveHour string
		twentyFour string
	}{
		{
			name:       "afternoon",
			twelveHour: "2024-01-02 02:30PM",
			twentyFour: "2024-01-02 14:30",
		},
		{
			name:       "midnight",
			twelveHour: "2024-01-02 12:00AM",
			twentyFour: "2024-01-02 00:00",
		},
		{
			name:       "noon",
			twelveHour: "2024-01-02 12:00PM",
			twentyFour: "2024-01-02 12:00",
		},
		{
			name:       "morning single digit hour",
			twelveHour: "2024-01-02 9:15AM",
			twentyFour: "2024-01-02 09:15",
		},
		{
			name:       "lowercase meridiem",
			twelveHour: "2024-01-02 2:30pm",
			twentyFour: "2024-01-02 14:30",
		},
		{
			name:       "space before meridiem",
			twelveHour: "2024-01-02 2:30 PM",
			twentyFour: "2024-01-02 14:30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got12, err := timeparse.Parse(tt.twelveHour, "UTC", now)
			require.NoError(t, err)

			got24, err := timeparse.Parse(tt.twentyFour, "UTC", now)
			require.NoError(t, err)

			assert.True(t, got12.Equal(got24),
				"12-hour %q parsed to %v, 24-hour %q parsed to %v",
				tt.twelveHour, got12, tt.twentyFour, got24)
		})
	}
}

func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		timezone   string
		wantReason string
	}{
		{
			name:       "bare date without time",
			input:      "2024-01-02",
			timezone:   "UTC",
			wantReason: timeparse.ReasonMissingDateTime,
		},
		{
			name:       "empty input",
			input:      "   ",
			timezone:   "UTC",
			wantReason: timeparse.ReasonMissingDateTime,
		},
		{
			name:       "hour 13 with meridiem",
			input:      "2024-01-02 13:00PM",
			timezone:   "UTC",
			wantReason: timeparse.ReasonBadTime,
		},
		{
			name:       "hour 0 with meridiem",
			input:      "2024-01-02 0:30AM",
			timezone:   "UTC",
			wantReason: timeparse.ReasonBadTime,
		},
		{
			name:       "hour 25 without meridiem",
			input:      "2024-01-02 25:00",
			timezone:   "UTC",
			wantReason: timeparse.ReasonBadTime,
		},
		{
			name:       "minute 60 in 24-hour form",
			input:      "2024-01-02 14:60",
			timezone:   "UTC",
			wantReason: timeparse.ReasonBadTime,
		},
		{
			name:       "minute 60 in 12-hour form",
			input:      "2024-01-02 2:60PM",
			timezone:   "UTC",
			wantReason: timeparse.ReasonBadTime,
		},
		{
			name:       "single minute digit",
			input:      "2024-01-02 14:3",
			timezone:   "UTC",
			wantReason: timeparse.ReasonBadTime,
		},
		{
			name:       "missing colon",
			input:      "2024-01-02 1430",
			timezone:   "UTC",
			wantReason: timeparse.ReasonBadTime,
		},
		{
			name:       "three hour digits",
			input:      "2024-01-02 140:30",
			timezone:   "UTC",
			wantReason: timeparse.ReasonBadTime,
		},
		{
			name:       "not a calendar date",
			input:      "2024-02-31 14:30",
			timezone:   "UTC",
			wantReason: timeparse.ReasonBadDate,
		},
		{
			name:       "garbage date token",
			input:      "tomorrow 14:30",
			timezone:   "UTC",
			wantReason: timeparse.ReasonBadDate,
		},
		{
			name:       "unknown timezone",
			input:      "2024-01-02 14:30",
			timezone:   "Mars/Olympus",
			wantReason: timeparse.ReasonBadDate,
		},
		{
			name:       "instant in the past",
			input:      "2023-12-31 14:30",
			timezone:   "UTC",
			wantReason: timeparse.ReasonNotFuture,
		},
		{
			name:       "instant equal to now",
			input:      "2024-01-01 12:00",
			timezone:   "UTC",
			wantReason: timeparse.ReasonNotFuture,
		},
		{
			name:       "more than 30 days ahead",
			input:      "2024-02-15 14:30",
			timezone:   "UTC",
			wantReason: timeparse.ReasonBeyondWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := timeparse.Parse(tt.input, tt.timezone, now)
			require.Error(t, err)

			var parseErr *timeparse.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.wantReason, parseErr.Reason)
			assert.Equal(t, "Invalid date/time format: "+tt.wantReason, err.Error())
		})
	}
}

// A malformed date must fail on its format before any range check runs.
func TestParse_FormatErrorsPrecedeRangeErrors(t *testing.T) {
	// Past AND bad time: time format wins.
	_, err := timeparse.Parse("2023-12-31 25:00", "UTC", now)
	var parseErr *timeparse.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, timeparse.ReasonBadTime, parseErr.Reason)

	// Out of window AND bad date: date format wins.
	_, err = timeparse.Parse("2024-13-40 14:30", "UTC", now)
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, timeparse.ReasonBadDate, parseErr.Reason)
}

func TestParse_TimezoneConversion(t *testing.T) {
	got, err := timeparse.Parse("2024-01-02 14:30", "America/New_York", now)
	require.NoError(t, err)

	want := time.Date(2024, 1, 2, 19, 30, 0, 0, time.UTC)
	assert.True(t, got.Equal(want), "got %v, want %v", got.UTC(), want)
}

func TestParse_DefaultUTCBoundaries(t *testing.T) {
	// One minute after now is accepted.
	got, err := timeparse.Parse("2024-01-01 12:01", "UTC", now)
	require.NoError(t, err)
	assert.True(t, got.Equal(now.Add(time.Minute)))

	// Exactly 30 days ahead is still inside the window.
	got, err = timeparse.Parse("2024-01-31 12:00", "UTC", now)
	require.NoError(t, err)
	assert.True(t, got.Equal(now.Add(timeparse.Window)))
}
