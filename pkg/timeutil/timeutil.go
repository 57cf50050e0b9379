package timeutil

import (
	"fmt"
	"time"
)

// JST is the display timezone. Records are stored in UTC and converted at
// the presentation edge.
var JST = loadJST()

func loadJST() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

// ToJST converts a timestamp to Japan Standard Time.
func ToJST(t time.Time) time.Time {
	return t.In(JST)
}

// StartOfDayJST returns midnight JST of the given instant, expressed in UTC.
func StartOfDayJST(t time.Time) time.Time {
	local := t.In(JST)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, JST)
	return start.UTC()
}

// EndOfDayJST returns the last representable instant of the JST day,
// expressed in UTC. Used to make range filters end-date inclusive.
func EndOfDayJST(t time.Time) time.Time {
	local := t.In(JST)
	end := time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, int(999*time.Millisecond), JST)
	return end.UTC()
}

// WorkedDuration computes the net worked duration between clockIn and
// clockOut minus break minutes. A nil clockOut means the session is still
// open and the duration is measured against now; the second return value
// reports that in-progress state. Negative results clamp to zero.
func WorkedDuration(clockIn time.Time, clockOut *time.Time, breakMinutes int, now time.Time) (time.Duration, bool) {
	end := now
	inProgress := true
	if clockOut != nil {
		end = *clockOut
		inProgress = false
	}

	d := end.Sub(clockIn) - time.Duration(breakMinutes)*time.Minute
	if d < 0 {
		d = 0
	}
	return d, inProgress
}

// FormatDuration renders a duration as "X時間Y分".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	return fmt.Sprintf("%d時間%d分", hours, minutes)
}

// FormatWorked renders the net worked duration, appending an in-progress
// marker while the session is still open.
func FormatWorked(clockIn time.Time, clockOut *time.Time, breakMinutes int, now time.Time) string {
	d, inProgress := WorkedDuration(clockIn, clockOut, breakMinutes, now)
	formatted := FormatDuration(d)
	if inProgress {
		return formatted + "（勤務中）"
	}
	return formatted
}
