package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkedDurationCompleted(t *testing.T) {
	clockIn := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC) // 09:00 JST
	clockOut := clockIn.Add(8 * time.Hour)

	d, inProgress := WorkedDuration(clockIn, &clockOut, 60, time.Now())
	assert.False(t, inProgress)
	assert.Equal(t, 7*time.Hour, d)
	assert.Equal(t, "7時間0分", FormatDuration(d))
}

func TestWorkedDurationInProgress(t *testing.T) {
	clockIn := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	now := clockIn.Add(3*time.Hour + 30*time.Minute)

	d, inProgress := WorkedDuration(clockIn, nil, 30, now)
	assert.True(t, inProgress)
	assert.Equal(t, 3*time.Hour, d)
	assert.Equal(t, "3時間0分（勤務中）", FormatWorked(clockIn, nil, 30, now))
}

func TestWorkedDurationClampsNegative(t *testing.T) {
	clockIn := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	clockOut := clockIn.Add(30 * time.Minute)

	d, _ := WorkedDuration(clockIn, &clockOut, 120, time.Now())
	assert.Equal(t, time.Duration(0), d)
}

func TestDayBoundsJST(t *testing.T) {
	// 2024-06-03T18:00:00Z is already 2024-06-04 03:00 JST.
	instant := time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)

	start := StartOfDayJST(instant)
	end := EndOfDayJST(instant)

	require.Equal(t, time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC), start)
	assert.True(t, end.After(start))
	assert.Equal(t, 4, end.In(JST).Day())
	assert.Equal(t, 23, end.In(JST).Hour())
}
