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

const attendanceColumns = "id, user_id, clock_in, clock_out, planned_clock_out, break_minutes, is_active, created_at, updated_at"

// AttendanceRepository provides database access for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindByID returns a single attendance record.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE id = $1 LIMIT 1`, attendanceColumns)
	var record models.Attendance
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance by id: %w", err)
	}
	return &record, nil
}

// FindActiveByUser returns the user's open session, newest first in case
// legacy data violated the single-active invariant.
func (r *AttendanceRepository) FindActiveByUser(ctx context.Context, userID string) (*models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE user_id = $1 AND is_active = TRUE ORDER BY created_at DESC LIMIT 1`, attendanceColumns)
	var record models.Attendance
	if err := r.db.GetContext(ctx, &record, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active attendance: %w", err)
	}
	return &record, nil
}

// Create inserts a new attendance record.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.Attendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO attendances (id, user_id, clock_in, clock_out, planned_clock_out, break_minutes, is_active, created_at, updated_at) VALUES (:id, :user_id, :clock_in, :clock_out, :planned_clock_out, :break_minutes, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a record.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.Attendance) error {
	record.UpdatedAt = time.Now().UTC()

	const query = `UPDATE attendances SET clock_in = :clock_in, clock_out = :clock_out, planned_clock_out = :planned_clock_out, break_minutes = :break_minutes, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Close stamps the clock-out time and deactivates the record.
func (r *AttendanceRepository) Close(ctx context.Context, id string, clockOut time.Time) error {
	const query = `UPDATE attendances SET clock_out = $2, is_active = FALSE, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, clockOut, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("close attendance: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a record unconditionally. No soft delete.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM attendances WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteActiveSince removes the caller's active records clocked in at or
// after the given instant. Used for erroneous same-day entry cleanup.
func (r *AttendanceRepository) DeleteActiveSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	const query = `DELETE FROM attendances WHERE user_id = $1 AND is_active = TRUE AND clock_in >= $2`
	result, err := r.db.ExecContext(ctx, query, userID, since)
	if err != nil {
		return 0, fmt.Errorf("delete active attendance since: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// ListByUser returns a user's records newest first with total count.
func (r *AttendanceRepository) ListByUser(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT %s FROM attendances WHERE user_id = $1 ORDER BY clock_in DESC LIMIT %d OFFSET %d`, attendanceColumns, pageSize, offset)
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, listQuery, filter.UserID); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM attendances WHERE user_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, filter.UserID); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	return records, total, nil
}

// ListRange returns a user's records with clock-in inside [from, to],
// oldest first for report rendering.
func (r *AttendanceRepository) ListRange(ctx context.Context, userID string, from, to time.Time) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE user_id = $1 AND clock_in >= $2 AND clock_in <= $3 ORDER BY clock_in ASC`, attendanceColumns)
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, userID, from, to); err != nil {
		return nil, fmt.Errorf("list attendance range: %w", err)
	}
	return records, nil
}

// ListOverdue returns active records whose planned clock-out elapsed at or
// before the cutoff. Feeds the auto clock-out sweeper.
func (r *AttendanceRepository) ListOverdue(ctx context.Context, cutoff time.Time) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE is_active = TRUE AND planned_clock_out IS NOT NULL AND planned_clock_out <= $1`, attendanceColumns)
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, cutoff); err != nil {
		return nil, fmt.Errorf("list overdue attendance: %w", err)
	}
	return records, nil
}
