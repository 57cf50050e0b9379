package models

import "time"

// Attendance represents a single work session. A record is active while
// clock_out is null; at most one active record exists per user.
type Attendance struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	ClockIn         time.Time  `db:"clock_in" json:"clock_in"`
	ClockOut        *time.Time `db:"clock_out" json:"clock_out,omitempty"`
	PlannedClockOut *time.Time `db:"planned_clock_out" json:"planned_clock_out,omitempty"`
	BreakMinutes    int        `db:"break_minutes" json:"break_minutes"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// AttendanceStatus summarises the caller's current punch state.
type AttendanceStatus struct {
	IsActive        bool       `json:"isActive"`
	LastClockIn     *time.Time `json:"lastClockIn"`
	PlannedClockOut *time.Time `json:"plannedClockOut"`
}

// AttendanceFilter scopes history listings.
type AttendanceFilter struct {
	UserID   string
	Page     int
	PageSize int
}

// WorkSummary aggregates records and hours over a date range.
type WorkSummary struct {
	Records    []Attendance `json:"records"`
	TotalHours float64      `json:"totalHours"`
}
