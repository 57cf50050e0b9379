package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/kintai-api/internal/models"
	appErrors "github.com/noah-isme/kintai-api/pkg/errors"
)

type mockReportRepo struct {
	report         *models.Report
	reportErr      error
	record         *models.ReportRecord
	recordErr      error
	listed         []models.ReportRecord
	listedTotal    int
	created        *models.Report
	updated        *models.Report
	updateErr      error
	deletedID      string
	deleteErr      error
	comments       []models.CommentRecord
	createdComment *models.Comment
}

func (m *mockReportRepo) FindByID(ctx context.Context, id string) (*models.Report, error) {
	if m.reportErr != nil {
		return nil, m.reportErr
	}
	return m.report, nil
}

func (m *mockReportRepo) GetRecord(ctx context.Context, id string) (*models.ReportRecord, error) {
	if m.recordErr != nil {
		return nil, m.recordErr
	}
	return m.record, nil
}

func (m *mockReportRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.ReportRecord, int, error) {
	return m.listed, m.listedTotal, nil
}

func (m *mockReportRepo) Create(ctx context.Context, report *models.Report) error {
	report.ID = "generated"
	m.created = report
	return nil
}

func (m *mockReportRepo) Update(ctx context.Context, report *models.Report) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = report
	return nil
}

func (m *mockReportRepo) DeleteWithComments(ctx context.Context, reportID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedID = reportID
	return nil
}

func (m *mockReportRepo) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.ID = "generated"
	m.createdComment = comment
	return nil
}

func (m *mockReportRepo) ListComments(ctx context.Context, reportID string) ([]models.CommentRecord, error) {
	return m.comments, nil
}

func newReportService(repo *mockReportRepo) *ReportService {
	return NewReportService(repo, validator.New(), zap.NewNop())
}

func ownedReport(userID string) *models.Report {
	return &models.Report{
		ID:      "r1",
		UserID:  userID,
		Title:   "日報",
		Content: "本日の作業内容",
		Date:    time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Status:  models.ReportStatusDraft,
	}
}

func TestCreateReportDefaultsToDraft(t *testing.T) {
	repo := &mockReportRepo{}
	svc := newReportService(repo)

	report, err := svc.Create(context.Background(), "u1", CreateReportRequest{
		Title:   "日報",
		Content: "本日の作業内容",
		Date:    time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDraft, report.Status)
	assert.Equal(t, "u1", report.UserID)
	require.NotNil(t, repo.created)
}

func TestCreateReportSubmittedInOneCall(t *testing.T) {
	repo := &mockReportRepo{}
	svc := newReportService(repo)

	report, err := svc.Create(context.Background(), "u1", CreateReportRequest{
		Title:   "日報",
		Content: "本日の作業内容",
		Date:    time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Status:  string(models.ReportStatusSubmitted),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusSubmitted, report.Status)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.ReportStatusSubmitted, repo.created.Status)
}

func TestCreateReportInvalidStatus(t *testing.T) {
	repo := &mockReportRepo{}
	svc := newReportService(repo)

	_, err := svc.Create(context.Background(), "u1", CreateReportRequest{
		Title:   "日報",
		Content: "本日の作業内容",
		Date:    time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Status:  "DONE",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidStatus)
	assert.Nil(t, repo.created)
}

func TestCreateReportMissingTitle(t *testing.T) {
	repo := &mockReportRepo{}
	svc := newReportService(repo)

	_, err := svc.Create(context.Background(), "u1", CreateReportRequest{
		Content: "内容だけ",
		Date:    time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGetReportAccessDenied(t *testing.T) {
	report := ownedReport("owner")
	repo := &mockReportRepo{
		report: report,
		record: &models.ReportRecord{Report: *report, AuthorName: "Owner"},
	}
	svc := newReportService(repo)

	_, err := svc.Get(context.Background(), "r1", "stranger", models.RoleEmployee)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "このレポートにアクセスする権限がありません", appErr.Message)
}

func TestGetReportAdminBypassesOwnership(t *testing.T) {
	report := ownedReport("owner")
	repo := &mockReportRepo{
		report: report,
		record: &models.ReportRecord{Report: *report, AuthorName: "Owner"},
	}
	svc := newReportService(repo)

	record, err := svc.Get(context.Background(), "r1", "admin-user", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "r1", record.ID)
}

func TestGetReportReviewerAccess(t *testing.T) {
	report := ownedReport("owner")
	reviewer := "rev1"
	report.ReviewerID = &reviewer
	repo := &mockReportRepo{
		report: report,
		record: &models.ReportRecord{Report: *report, AuthorName: "Owner"},
	}
	svc := newReportService(repo)

	_, err := svc.Get(context.Background(), "r1", "rev1", models.RoleReviewer)
	require.NoError(t, err)
}

func TestGetReportNotFound(t *testing.T) {
	repo := &mockReportRepo{reportErr: sql.ErrNoRows, recordErr: sql.ErrNoRows}
	svc := newReportService(repo)

	_, err := svc.Get(context.Background(), "missing", "u1", models.RoleEmployee)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "レポートが見つかりません", appErr.Message)
}

func TestUpdateReportInvalidStatus(t *testing.T) {
	report := ownedReport("u1")
	repo := &mockReportRepo{report: report}
	svc := newReportService(repo)

	bad := "DONE"
	_, err := svc.Update(context.Background(), "r1", "u1", models.RoleEmployee, UpdateReportRequest{Status: &bad})
	assert.ErrorIs(t, err, appErrors.ErrInvalidStatus)
	assert.Nil(t, repo.updated)
}

func TestUpdateReportBackwardTransitionAllowed(t *testing.T) {
	report := ownedReport("u1")
	report.Status = models.ReportStatusReviewed
	repo := &mockReportRepo{
		report: report,
		record: &models.ReportRecord{Report: *report, AuthorName: "User"},
	}
	svc := newReportService(repo)

	draft := string(models.ReportStatusDraft)
	_, err := svc.Update(context.Background(), "r1", "u1", models.RoleEmployee, UpdateReportRequest{Status: &draft})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.Equal(t, models.ReportStatusDraft, repo.updated.Status)
}

func TestUpdateReportPartialFields(t *testing.T) {
	report := ownedReport("u1")
	repo := &mockReportRepo{
		report: report,
		record: &models.ReportRecord{Report: *report, AuthorName: "User"},
	}
	svc := newReportService(repo)

	title := "  修正版日報  "
	_, err := svc.Update(context.Background(), "r1", "u1", models.RoleEmployee, UpdateReportRequest{Title: &title})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.Equal(t, "修正版日報", repo.updated.Title)
	assert.Equal(t, "本日の作業内容", repo.updated.Content)
}

func TestDeleteReportCascade(t *testing.T) {
	report := ownedReport("u1")
	repo := &mockReportRepo{report: report}
	svc := newReportService(repo)

	err := svc.Delete(context.Background(), "r1", "u1", models.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, "r1", repo.deletedID)
}

func TestDeleteReportForbiddenForStranger(t *testing.T) {
	report := ownedReport("owner")
	repo := &mockReportRepo{report: report}
	svc := newReportService(repo)

	err := svc.Delete(context.Background(), "r1", "stranger", models.RoleEmployee)
	require.Error(t, err)
	assert.Empty(t, repo.deletedID)
}

func TestAddCommentRejectsBlankContent(t *testing.T) {
	report := ownedReport("u1")
	repo := &mockReportRepo{report: report}
	svc := newReportService(repo)

	_, err := svc.AddComment(context.Background(), "r1", "u1", models.RoleEmployee, "   ")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "コメント内容は必須です", appErr.Message)
	assert.Nil(t, repo.createdComment)
}

func TestAddCommentTrimsContent(t *testing.T) {
	report := ownedReport("u1")
	repo := &mockReportRepo{report: report}
	svc := newReportService(repo)

	comment, err := svc.AddComment(context.Background(), "r1", "u1", models.RoleEmployee, "  お疲れさまです  ")
	require.NoError(t, err)
	assert.Equal(t, "お疲れさまです", comment.Content)
	assert.Equal(t, "r1", comment.ReportID)
}

func TestCommentsRequireAccess(t *testing.T) {
	report := ownedReport("owner")
	repo := &mockReportRepo{report: report, comments: []models.CommentRecord{{Comment: models.Comment{ID: "c1"}}}}
	svc := newReportService(repo)

	_, err := svc.Comments(context.Background(), "r1", "stranger", models.RoleEmployee)
	require.Error(t, err)

	comments, err := svc.Comments(context.Background(), "r1", "owner", models.RoleEmployee)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}
