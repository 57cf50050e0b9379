package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/kintai-api/internal/models"
	appErrors "github.com/noah-isme/kintai-api/pkg/errors"
)

type reportRepository interface {
	FindByID(ctx context.Context, id string) (*models.Report, error)
	GetRecord(ctx context.Context, id string) (*models.ReportRecord, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.ReportRecord, int, error)
	Create(ctx context.Context, report *models.Report) error
	Update(ctx context.Context, report *models.Report) error
	DeleteWithComments(ctx context.Context, reportID string) error
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, reportID string) ([]models.CommentRecord, error)
}

// ReportService manages daily work reports and their comment threads.
type ReportService struct {
	repo      reportRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(repo reportRepository, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, validator: validate, logger: logger}
}

// CreateReportRequest is the report creation payload. Status is optional
// and defaults to DRAFT, letting callers write-and-submit in one call.
type CreateReportRequest struct {
	Title   string    `json:"title" validate:"required"`
	Content string    `json:"content" validate:"required"`
	Date    time.Time `json:"date" validate:"required"`
	Status  string    `json:"status"`
}

// UpdateReportRequest is the report update payload. Zero-value fields keep
// their stored value.
type UpdateReportRequest struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	Status     *string `json:"status"`
	ReviewerID *string `json:"reviewerId"`
}

// List returns the caller's reports newest first.
func (s *ReportService) List(ctx context.Context, userID string, page, pageSize int) ([]models.ReportRecord, *models.Pagination, error) {
	records, total, err := s.repo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	return records, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Create inserts a new draft report owned by the caller.
func (s *ReportService) Create(ctx context.Context, userID string, req CreateReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "タイトルと内容は必須です")
	}

	status := models.ReportStatusDraft
	if req.Status != "" {
		status = models.ReportStatus(req.Status)
		if !status.Valid() {
			return nil, appErrors.ErrInvalidStatus
		}
	}

	report := &models.Report{
		UserID:  userID,
		Title:   strings.TrimSpace(req.Title),
		Content: req.Content,
		Date:    req.Date,
		Status:  status,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return report, nil
}

// Get returns a single report with author metadata, subject to access rules.
func (s *ReportService) Get(ctx context.Context, reportID, userID string, role models.UserRole) (*models.ReportRecord, error) {
	record, err := s.getRecord(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := checkReportAccess(&record.Report, userID, role); err != nil {
		return nil, err
	}
	return record, nil
}

// Update applies the provided fields. Status values are checked for
// membership only; a backward move is logged, not rejected.
func (s *ReportService) Update(ctx context.Context, reportID, userID string, role models.UserRole, req UpdateReportRequest) (*models.ReportRecord, error) {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := checkReportAccess(report, userID, role); err != nil {
		return nil, err
	}

	if req.Title != nil {
		report.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		report.Content = *req.Content
	}
	if req.ReviewerID != nil {
		report.ReviewerID = req.ReviewerID
	}
	if req.Status != nil {
		next := models.ReportStatus(*req.Status)
		if !next.Valid() {
			return nil, appErrors.ErrInvalidStatus
		}
		if report.Status.Backward(next) {
			s.logger.Warn("report status moved backward",
				zap.String("report_id", report.ID),
				zap.String("user_id", userID),
				zap.String("from", string(report.Status)),
				zap.String("to", string(next)))
		}
		report.Status = next
	}

	if err := s.repo.Update(ctx, report); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "レポートが見つかりません")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	return s.getRecord(ctx, reportID)
}

// Delete removes a report together with its comments.
func (s *ReportService) Delete(ctx context.Context, reportID, userID string, role models.UserRole) error {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return err
	}
	if err := checkReportAccess(report, userID, role); err != nil {
		return err
	}

	if err := s.repo.DeleteWithComments(ctx, reportID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "レポートが見つかりません")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return nil
}

// Comments returns the report's comment thread newest first.
func (s *ReportService) Comments(ctx context.Context, reportID, userID string, role models.UserRole) ([]models.CommentRecord, error) {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := checkReportAccess(report, userID, role); err != nil {
		return nil, err
	}

	comments, err := s.repo.ListComments(ctx, reportID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return comments, nil
}

// AddComment attaches a comment to a report the caller can access.
func (s *ReportService) AddComment(ctx context.Context, reportID, userID string, role models.UserRole, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "コメント内容は必須です")
	}

	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := checkReportAccess(report, userID, role); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReportID: reportID,
		UserID:   userID,
		Content:  content,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return comment, nil
}

// checkReportAccess allows the owner, the assigned reviewer and admins.
func checkReportAccess(report *models.Report, userID string, role models.UserRole) error {
	if role == models.RoleAdmin {
		return nil
	}
	if report.UserID == userID {
		return nil
	}
	if report.ReviewerID != nil && *report.ReviewerID == userID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "このレポートにアクセスする権限がありません")
}

func (s *ReportService) getReport(ctx context.Context, reportID string) (*models.Report, error) {
	report, err := s.repo.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "レポートが見つかりません")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return report, nil
}

func (s *ReportService) getRecord(ctx context.Context, reportID string) (*models.ReportRecord, error) {
	record, err := s.repo.GetRecord(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "レポートが見つかりません")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return record, nil
}
