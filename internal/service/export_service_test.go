package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/kintai-api/internal/models"
	appErrors "github.com/noah-isme/kintai-api/pkg/errors"
)

func TestExportRangeCSV(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	in := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC) // 09:00 JST
	out := in.Add(9 * time.Hour)
	repo := &mockAttendanceRepo{ranged: []models.Attendance{
		{ID: "a1", UserID: "u1", ClockIn: in, ClockOut: &out, BreakMinutes: 60},
	}}
	svc := NewExportService(newAttendanceService(repo, nil, now), zap.NewNop())

	result, err := svc.ExportRange(context.Background(), "u1", in, in.AddDate(0, 0, 4), ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "working_hours_20240603_20240607.csv", result.Filename)

	body := string(result.Content)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Clock In")
	assert.Contains(t, lines[1], "2024-06-03")
	assert.Contains(t, lines[1], "09:00")
	assert.Contains(t, lines[1], "8時間0分")
}

func TestExportRangePDF(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	in := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)
	repo := &mockAttendanceRepo{ranged: []models.Attendance{
		{ID: "a1", UserID: "u1", ClockIn: in, ClockOut: &out},
	}}
	svc := NewExportService(newAttendanceService(repo, nil, now), zap.NewNop())

	result, err := svc.ExportRange(context.Background(), "u1", in, in, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportRangeUnsupportedFormat(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	repo := &mockAttendanceRepo{}
	svc := NewExportService(newAttendanceService(repo, nil, now), zap.NewNop())

	_, err := svc.ExportRange(context.Background(), "u1", now, now, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
