package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestDayIndexMondayFirst(t *testing.T) {
	assert.Equal(t, 0, DayIndex(mustDate(t, "2024-01-01")))
	assert.Equal(t, 2, DayIndex(mustDate(t, "2024-01-03")))
	assert.Equal(t, 6, DayIndex(mustDate(t, "2024-01-07")))
	assert.Equal(t, "Sunday", DayName(mustDate(t, "2024-01-07")))
}

func TestWeekStartOf(t *testing.T) {
	cases := map[string]string{
		"2024-01-01": "2024-01-01",
		"2024-01-07": "2024-01-01",
		"2024-01-08": "2024-01-08",
		"2025-01-01": "2024-12-30",
	}
	for in, want := range cases {
		got, err := WeekStartString(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestParseDateAcceptsTimestamp(t *testing.T) {
	d, err := ParseDate("2024-01-03T18:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-03", FormatDate(d))

	_, err = ParseDate("01/03/2024")
	assert.Error(t, err)
}

func TestWeekIsPastBoundary(t *testing.T) {
	boundary := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	past, err := WeekIsPast("2024-01-01", boundary)
	require.NoError(t, err)
	assert.False(t, past)

	past, err = WeekIsPast("2024-01-01", time.Date(2024, 1, 4, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, past)

	past, err = WeekIsPast("2024-01-01", boundary.Add(time.Nanosecond))
	require.NoError(t, err)
	assert.True(t, past)
}

func TestWeekEnd(t *testing.T) {
	end, err := WeekEnd("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-07", end)
}
