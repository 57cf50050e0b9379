package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/kintai-api/internal/models"
)

const reportRecordColumns = `r.id, r.user_id, r.reviewer_id, r.title, r.content, r.date, r.status, r.created_at, r.updated_at,
	u.name AS author_name, u.email AS author_email,
	rev.name AS reviewer_name, rev.email AS reviewer_email`

const reportRecordJoins = `FROM reports r
	JOIN users u ON u.id = r.user_id
	LEFT JOIN users rev ON rev.id = r.reviewer_id`

// ReportRepository provides database access for daily reports and comments.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FindByID returns the bare report row.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	const query = `SELECT id, user_id, reviewer_id, title, content, date, status, created_at, updated_at FROM reports WHERE id = $1 LIMIT 1`
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find report by id: %w", err)
	}
	return &report, nil
}

// GetRecord returns the report with author and reviewer metadata joined in.
func (r *ReportRepository) GetRecord(ctx context.Context, id string) (*models.ReportRecord, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE r.id = $1 LIMIT 1`, reportRecordColumns, reportRecordJoins)
	var record models.ReportRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get report record: %w", err)
	}
	return &record, nil
}

// ListByUser returns the user's reports newest first with total count.
func (r *ReportRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.ReportRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT %s %s WHERE r.user_id = $1 ORDER BY r.created_at DESC LIMIT %d OFFSET %d`, reportRecordColumns, reportRecordJoins, pageSize, offset)
	var records []models.ReportRecord
	if err := r.db.SelectContext(ctx, &records, listQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM reports WHERE user_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	return records, total, nil
}

// Create inserts a new report.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	const query = `INSERT INTO reports (id, user_id, reviewer_id, title, content, date, status, created_at, updated_at) VALUES (:id, :user_id, :reviewer_id, :title, :content, :date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// Update overwrites title, content, status and reviewer assignment.
func (r *ReportRepository) Update(ctx context.Context, report *models.Report) error {
	report.UpdatedAt = time.Now().UTC()

	const query = `UPDATE reports SET title = :title, content = :content, status = :status, reviewer_id = :reviewer_id, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, report)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteWithComments removes a report and its comments in one transaction;
// both succeed or both fail.
func (r *ReportRepository) DeleteWithComments(ctx context.Context, reportID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete report tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE report_id = $1`, reportID); err != nil {
		return fmt.Errorf("delete report comments: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, reportID)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete report tx: %w", err)
	}
	return nil
}

// CreateComment attaches a comment to a report.
func (r *ReportRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO comments (id, report_id, user_id, content, created_at) VALUES (:id, :report_id, :user_id, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListComments returns a report's comments newest first with author info.
func (r *ReportRepository) ListComments(ctx context.Context, reportID string) ([]models.CommentRecord, error) {
	const query = `SELECT c.id, c.report_id, c.user_id, c.content, c.created_at, u.name AS author_name, u.email AS author_email FROM comments c JOIN users u ON u.id = c.user_id WHERE c.report_id = $1 ORDER BY c.created_at DESC`
	var comments []models.CommentRecord
	if err := r.db.SelectContext(ctx, &comments, query, reportID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
