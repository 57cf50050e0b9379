package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/kintai-api/internal/models"
	appErrors "github.com/noah-isme/kintai-api/pkg/errors"
	"github.com/noah-isme/kintai-api/pkg/timeutil"
)

type attendanceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	FindActiveByUser(ctx context.Context, userID string) (*models.Attendance, error)
	Create(ctx context.Context, record *models.Attendance) error
	Update(ctx context.Context, record *models.Attendance) error
	Close(ctx context.Context, id string, clockOut time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteActiveSince(ctx context.Context, userID string, since time.Time) (int64, error)
	ListByUser(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error)
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]models.Attendance, error)
	ListOverdue(ctx context.Context, cutoff time.Time) ([]models.Attendance, error)
}

// AttendanceConfig tunes the attendance rules.
type AttendanceConfig struct {
	MaxShiftHours  int
	StatusCacheTTL time.Duration
	SweepGrace     time.Duration
}

// AttendanceService enforces the clock-in/clock-out state rules.
type AttendanceService struct {
	repo      attendanceRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    AttendanceConfig

	// now is swappable for tests.
	now func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config AttendanceConfig) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxShiftHours <= 0 {
		config.MaxShiftHours = 24
	}
	return &AttendanceService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ClockInRequest is the clock-in payload.
type ClockInRequest struct {
	PlannedClockOut *time.Time `json:"plannedClockOut" validate:"required"`
	BreakMinutes    int        `json:"breakMinutes" validate:"gte=0"`
}

// EditAttendanceRequest is the full-edit payload.
type EditAttendanceRequest struct {
	ClockIn         time.Time  `json:"clockIn" validate:"required"`
	ClockOut        *time.Time `json:"clockOut"`
	PlannedClockOut *time.Time `json:"plannedClockOut" validate:"required"`
	BreakMinutes    int        `json:"breakMinutes" validate:"gte=0"`
}

func statusCacheKey(userID string) string {
	return fmt.Sprintf("attendance:status:%s", userID)
}

// ClockIn opens a new work session. At most one active session may exist
// per user.
func (s *AttendanceService) ClockIn(ctx context.Context, userID string, req ClockInRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "予定退勤時間は必須です")
	}

	now := s.now()
	if !req.PlannedClockOut.After(now) {
		return nil, appErrors.ErrInvalidPlannedTime
	}

	if _, err := s.repo.FindActiveByUser(ctx, userID); err == nil {
		return nil, appErrors.ErrAlreadyClockedIn
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	record := &models.Attendance{
		UserID:          userID,
		ClockIn:         now,
		PlannedClockOut: req.PlannedClockOut,
		BreakMinutes:    req.BreakMinutes,
		IsActive:        true,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	s.invalidateStatus(ctx, userID)
	return record, nil
}

// ClockOut closes the user's active session at the current time.
func (s *AttendanceService) ClockOut(ctx context.Context, userID string) (*models.Attendance, error) {
	record, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNoActiveSession
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	now := s.now()
	if err := s.repo.Close(ctx, record.ID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	record.ClockOut = &now
	record.IsActive = false

	s.invalidateStatus(ctx, userID)
	return record, nil
}

// Status reports the caller's current punch state. Served from cache when
// possible; every mutation invalidates the entry.
func (s *AttendanceService) Status(ctx context.Context, userID string) (*models.AttendanceStatus, error) {
	key := statusCacheKey(userID)

	var cached models.AttendanceStatus
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	status := &models.AttendanceStatus{}
	record, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
		}
	} else {
		status.IsActive = true
		status.LastClockIn = &record.ClockIn
		status.PlannedClockOut = record.PlannedClockOut
	}

	if err := s.cache.Set(ctx, key, status, s.config.StatusCacheTTL); err != nil {
		s.logger.Warn("failed to cache attendance status", zap.Error(err))
	}
	return status, nil
}

// History lists the caller's records newest first.
func (s *AttendanceService) History(ctx context.Context, userID string, page, pageSize int) ([]models.Attendance, *models.Pagination, error) {
	records, total, err := s.repo.ListByUser(ctx, models.AttendanceFilter{UserID: userID, Page: page, PageSize: pageSize})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return records, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ApprovePlanned accepts the pre-committed planned clock-out as the actual
// clock-out time without re-entering it.
func (s *AttendanceService) ApprovePlanned(ctx context.Context, recordID, userID string) (*models.Attendance, error) {
	record, err := s.findOwned(ctx, recordID, userID)
	if err != nil {
		return nil, err
	}

	if record.ClockOut != nil {
		return nil, appErrors.ErrAlreadyClockedOut
	}
	if record.PlannedClockOut == nil {
		return nil, appErrors.ErrNoPlannedTime
	}

	if err := s.repo.Close(ctx, record.ID, *record.PlannedClockOut); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	clockOut := *record.PlannedClockOut
	record.ClockOut = &clockOut
	record.IsActive = false

	s.invalidateStatus(ctx, userID)
	return record, nil
}

// Edit overwrites an owned record. The active flag is recomputed from the
// presence of a clock-out time.
func (s *AttendanceService) Edit(ctx context.Context, recordID, userID string, req EditAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}

	record, err := s.findOwned(ctx, recordID, userID)
	if err != nil {
		return nil, err
	}

	if !req.PlannedClockOut.After(req.ClockIn) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "予定退勤時間は出勤時間より後である必要があります")
	}
	if req.ClockOut != nil {
		if !req.ClockOut.After(req.ClockIn) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "退勤時間は出勤時間より後である必要があります")
		}
		elapsed := req.ClockOut.Sub(req.ClockIn)
		if elapsed > time.Duration(s.config.MaxShiftHours)*time.Hour {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("勤務時間は%d時間以内である必要があります", s.config.MaxShiftHours))
		}
		if time.Duration(req.BreakMinutes)*time.Minute > elapsed {
			return nil, appErrors.Clone(appErrors.ErrValidation, "休憩時間が勤務時間を超えています")
		}
	}

	record.ClockIn = req.ClockIn
	record.ClockOut = req.ClockOut
	record.PlannedClockOut = req.PlannedClockOut
	record.BreakMinutes = req.BreakMinutes
	record.IsActive = req.ClockOut == nil

	if err := s.repo.Update(ctx, record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "勤怠記録が見つかりません")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	s.invalidateStatus(ctx, userID)
	return record, nil
}

// Delete removes an owned record. Hard delete, no recovery.
func (s *AttendanceService) Delete(ctx context.Context, recordID, userID string) error {
	record, err := s.findOwned(ctx, recordID, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, record.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "勤怠記録が見つかりません")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	s.invalidateStatus(ctx, userID)
	return nil
}

// DeleteToday removes the caller's active records clocked in today (JST).
// Lets users clean up erroneous same-day punches.
func (s *AttendanceService) DeleteToday(ctx context.Context, userID string) (int64, error) {
	since := timeutil.StartOfDayJST(s.now())
	deleted, err := s.repo.DeleteActiveSince(ctx, userID, since)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	s.invalidateStatus(ctx, userID)
	return deleted, nil
}

// RangeSummary aggregates the caller's records and total worked hours over
// an inclusive date range. Open sessions contribute no hours.
func (s *AttendanceService) RangeSummary(ctx context.Context, userID string, start, end time.Time) (*models.WorkSummary, error) {
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "終了日は開始日より後である必要があります")
	}

	records, err := s.repo.ListRange(ctx, userID, start, timeutil.EndOfDayJST(end))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	var totalHours float64
	for _, record := range records {
		if record.ClockOut == nil {
			continue
		}
		totalHours += record.ClockOut.Sub(record.ClockIn).Hours()
	}

	return &models.WorkSummary{
		Records:    records,
		TotalHours: math.Round(totalHours*100) / 100,
	}, nil
}

// SweepOverdue closes active sessions whose planned clock-out elapsed more
// than the configured grace period ago, stamping the planned time as the
// actual clock-out. Returns the number of records closed.
func (s *AttendanceService) SweepOverdue(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.config.SweepGrace)
	overdue, err := s.repo.ListOverdue(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, record := range overdue {
		if record.PlannedClockOut == nil {
			continue
		}
		if err := s.repo.Close(ctx, record.ID, *record.PlannedClockOut); err != nil {
			s.logger.Warn("auto clock-out failed",
				zap.String("record_id", record.ID),
				zap.String("user_id", record.UserID),
				zap.Error(err))
			continue
		}
		closed++
		s.invalidateStatus(ctx, record.UserID)
		s.logger.Info("auto clock-out applied",
			zap.String("record_id", record.ID),
			zap.String("user_id", record.UserID),
			zap.Time("planned_clock_out", *record.PlannedClockOut))
	}

	s.metrics.RecordAutoClockOut(closed)
	return closed, nil
}

// FormatWorked renders the net worked duration for a record.
func (s *AttendanceService) FormatWorked(record *models.Attendance) string {
	return timeutil.FormatWorked(record.ClockIn, record.ClockOut, record.BreakMinutes, s.now())
}

func (s *AttendanceService) findOwned(ctx context.Context, recordID, userID string) (*models.Attendance, error) {
	record, err := s.repo.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "勤怠記録が見つかりません")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if record.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "この勤怠記録を編集する権限がありません")
	}
	return record, nil
}

func (s *AttendanceService) invalidateStatus(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, statusCacheKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate attendance status cache", zap.String("user_id", userID), zap.Error(err))
	}
}
