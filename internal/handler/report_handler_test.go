package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/kintai-api/internal/middleware"
	"github.com/noah-isme/kintai-api/internal/models"
	"github.com/noah-isme/kintai-api/internal/service"
)

type reportRepoMock struct {
	report    *models.Report
	reportErr error
	record    *models.ReportRecord
	recordErr error
	created   *models.Report
	deletedID string
	comment   *models.Comment
}

func (m *reportRepoMock) FindByID(ctx context.Context, id string) (*models.Report, error) {
	if m.reportErr != nil {
		return nil, m.reportErr
	}
	return m.report, nil
}

func (m *reportRepoMock) GetRecord(ctx context.Context, id string) (*models.ReportRecord, error) {
	if m.recordErr != nil {
		return nil, m.recordErr
	}
	return m.record, nil
}

func (m *reportRepoMock) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.ReportRecord, int, error) {
	if m.record != nil {
		return []models.ReportRecord{*m.record}, 1, nil
	}
	return nil, 0, nil
}

func (m *reportRepoMock) Create(ctx context.Context, report *models.Report) error {
	report.ID = "r1"
	m.created = report
	return nil
}

func (m *reportRepoMock) Update(ctx context.Context, report *models.Report) error {
	return nil
}

func (m *reportRepoMock) DeleteWithComments(ctx context.Context, reportID string) error {
	m.deletedID = reportID
	return nil
}

func (m *reportRepoMock) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.ID = "c1"
	m.comment = comment
	return nil
}

func (m *reportRepoMock) ListComments(ctx context.Context, reportID string) ([]models.CommentRecord, error) {
	return nil, nil
}

func newReportHandler(repo *reportRepoMock) *ReportHandler {
	return NewReportHandler(service.NewReportService(repo, validator.New(), zap.NewNop()))
}

func TestReportHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &reportRepoMock{}
	handler := newReportHandler(repo)

	payload, _ := json.Marshal(gin.H{
		"title":   "日報",
		"content": "本日の作業内容",
		"date":    time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
	})
	c, w := newGinContext(http.MethodPost, "/reports", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleEmployee})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "レポートを作成しました", env.Message)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.ReportStatusDraft, repo.created.Status)
}

func TestReportHandlerGetForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	report := &models.Report{ID: "r1", UserID: "owner", Status: models.ReportStatusDraft}
	repo := &reportRepoMock{report: report, record: &models.ReportRecord{Report: *report}}
	handler := newReportHandler(repo)

	c, w := newGinContext(http.MethodGet, "/reports/r1", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stranger", Role: models.RoleEmployee})

	handler.Get(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "このレポートにアクセスする権限がありません", env.Message)
}

func TestReportHandlerGetAsAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	report := &models.Report{ID: "r1", UserID: "owner", Status: models.ReportStatusDraft}
	repo := &reportRepoMock{report: report, record: &models.ReportRecord{Report: *report, AuthorName: "Owner"}}
	handler := newReportHandler(repo)

	c, w := newGinContext(http.MethodGet, "/reports/r1", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestReportHandlerUpdateInvalidStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	report := &models.Report{ID: "r1", UserID: "u1", Status: models.ReportStatusDraft}
	repo := &reportRepoMock{report: report, record: &models.ReportRecord{Report: *report}}
	handler := newReportHandler(repo)

	payload, _ := json.Marshal(gin.H{"status": "DONE"})
	c, w := newGinContext(http.MethodPut, "/reports/r1", payload)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleEmployee})

	handler.Update(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "無効なステータスです", env.Message)
}

func TestReportHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	report := &models.Report{ID: "r1", UserID: "u1", Status: models.ReportStatusDraft}
	repo := &reportRepoMock{report: report}
	handler := newReportHandler(repo)

	c, w := newGinContext(http.MethodDelete, "/reports/r1", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleEmployee})

	handler.Delete(c)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "レポートを削除しました", env.Message)
	assert.Equal(t, "r1", repo.deletedID)
}

func TestReportHandlerAddCommentBlank(t *testing.T) {
	gin.SetMode(gin.TestMode)
	report := &models.Report{ID: "r1", UserID: "u1", Status: models.ReportStatusDraft}
	repo := &reportRepoMock{report: report}
	handler := newReportHandler(repo)

	payload, _ := json.Marshal(gin.H{"content": "   "})
	c, w := newGinContext(http.MethodPost, "/reports/r1/comments", payload)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleEmployee})

	handler.AddComment(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "コメント内容は必須です", env.Message)
}

func TestReportHandlerAddComment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	report := &models.Report{ID: "r1", UserID: "u1", Status: models.ReportStatusDraft}
	repo := &reportRepoMock{report: report}
	handler := newReportHandler(repo)

	payload, _ := json.Marshal(gin.H{"content": "お疲れさまです"})
	c, w := newGinContext(http.MethodPost, "/reports/r1/comments", payload)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleEmployee})

	handler.AddComment(c)
	require.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "コメントを追加しました", env.Message)
	require.NotNil(t, repo.comment)
	assert.Equal(t, "お疲れさまです", repo.comment.Content)
}
