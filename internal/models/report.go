package models

import "time"

// ReportStatus represents the lifecycle state of a daily report.
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "DRAFT"
	ReportStatusSubmitted ReportStatus = "SUBMITTED"
	ReportStatusReviewed  ReportStatus = "REVIEWED"
)

// Valid returns true when the status is a supported value. Only membership
// is checked; the endpoint does not enforce forward-only transitions.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusDraft, ReportStatusSubmitted, ReportStatusReviewed:
		return true
	default:
		return false
	}
}

// rank orders statuses along the intended DRAFT→SUBMITTED→REVIEWED flow.
func (s ReportStatus) rank() int {
	switch s {
	case ReportStatusDraft:
		return 0
	case ReportStatusSubmitted:
		return 1
	case ReportStatusReviewed:
		return 2
	default:
		return -1
	}
}

// Backward reports whether moving from s to next walks against the
// intended flow.
func (s ReportStatus) Backward(next ReportStatus) bool {
	return s.Valid() && next.Valid() && next.rank() < s.rank()
}

// Report is a user-authored work summary for a given date.
type Report struct {
	ID         string       `db:"id" json:"id"`
	UserID     string       `db:"user_id" json:"user_id"`
	ReviewerID *string      `db:"reviewer_id" json:"reviewer_id,omitempty"`
	Title      string       `db:"title" json:"title"`
	Content    string       `db:"content" json:"content"`
	Date       time.Time    `db:"date" json:"date"`
	Status     ReportStatus `db:"status" json:"status"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// ReportRecord extends the report row with author and reviewer metadata.
type ReportRecord struct {
	Report
	AuthorName    string  `db:"author_name" json:"author_name"`
	AuthorEmail   string  `db:"author_email" json:"author_email"`
	ReviewerName  *string `db:"reviewer_name" json:"reviewer_name,omitempty"`
	ReviewerEmail *string `db:"reviewer_email" json:"reviewer_email,omitempty"`
}

// Comment is attached to a report by its owner, reviewer or an admin.
type Comment struct {
	ID        string    `db:"id" json:"id"`
	ReportID  string    `db:"report_id" json:"report_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CommentRecord extends a comment with author metadata.
type CommentRecord struct {
	Comment
	AuthorName  string `db:"author_name" json:"author_name"`
	AuthorEmail string `db:"author_email" json:"author_email"`
}
