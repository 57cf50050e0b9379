package handler

import (
	"context"
	"net/http"
	"strings"
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

type rangedAttendanceRepo struct {
	attendanceRepoMock
	ranged []models.Attendance
}

func (m *rangedAttendanceRepo) ListRange(ctx context.Context, userID string, from, to time.Time) ([]models.Attendance, error) {
	return m.ranged, nil
}

func newSummaryHandler(repo *rangedAttendanceRepo) *SummaryHandler {
	svc := service.NewAttendanceService(repo, nil, nil, validator.New(), zap.NewNop(), service.AttendanceConfig{MaxShiftHours: 24})
	return NewSummaryHandler(svc, service.NewExportService(svc, zap.NewNop()))
}

func TestSummaryMissingDates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSummaryHandler(&rangedAttendanceRepo{})

	c, w := newGinContext(http.MethodGet, "/report", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleEmployee})

	handler.Summary(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "開始日と終了日は必須です", env.Message)
}

func TestSummaryTotals(t *testing.T) {
	gin.SetMode(gin.TestMode)
	in := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)
	handler := newSummaryHandler(&rangedAttendanceRepo{ranged: []models.Attendance{
		{ID: "a1", UserID: "u1", ClockIn: in, ClockOut: &out},
	}})

	c, w := newGinContext(http.MethodGet, "/report?startDate=2024-06-01&endDate=2024-06-30", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleEmployee})

	handler.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	data := env.Data.(map[string]interface{})
	assert.Equal(t, 8.0, data["totalHours"])
}

func TestExportCSVDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	in := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)
	handler := newSummaryHandler(&rangedAttendanceRepo{ranged: []models.Attendance{
		{ID: "a1", UserID: "u1", ClockIn: in, ClockOut: &out},
	}})

	c, w := newGinContext(http.MethodGet, "/report/export?startDate=2024-06-01&endDate=2024-06-30&format=csv", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleEmployee})

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "working_hours_")
	assert.True(t, strings.Contains(w.Body.String(), "Clock In"))
}
