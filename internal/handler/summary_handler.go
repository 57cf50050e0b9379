package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kintai-api/internal/service"
	appErrors "github.com/noah-isme/kintai-api/pkg/errors"
	"github.com/noah-isme/kintai-api/pkg/response"
	"github.com/noah-isme/kintai-api/pkg/timeutil"
)

// SummaryHandler serves working-hours summaries and exports.
type SummaryHandler struct {
	attendance *service.AttendanceService
	export     *service.ExportService
}

// NewSummaryHandler creates a new handler.
func NewSummaryHandler(attendance *service.AttendanceService, export *service.ExportService) *SummaryHandler {
	return &SummaryHandler{attendance: attendance, export: export}
}

// parseRange reads startDate/endDate query params as JST calendar dates.
func parseRange(c *gin.Context) (time.Time, time.Time, error) {
	startRaw := c.Query("startDate")
	endRaw := c.Query("endDate")
	if startRaw == "" || endRaw == "" {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "開始日と終了日は必須です")
	}

	start, err := time.ParseInLocation("2006-01-02", startRaw, timeutil.JST)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "開始日の形式が正しくありません")
	}
	end, err := time.ParseInLocation("2006-01-02", endRaw, timeutil.JST)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "終了日の形式が正しくありません")
	}
	return start.UTC(), end.UTC(), nil
}

// Summary godoc
// @Summary Working hours summary
// @Description Aggregates attendance records and total hours over a date range
// @Tags Report
// @Produce json
// @Param startDate query string true "Range start (YYYY-MM-DD)"
// @Param endDate query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /report [get]
func (h *SummaryHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	start, end, err := parseRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.attendance.RangeSummary(c.Request.Context(), claims.UserID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export working hours
// @Description Downloads the range summary as CSV or PDF
// @Tags Report
// @Produce octet-stream
// @Param startDate query string true "Range start (YYYY-MM-DD)"
// @Param endDate query string true "Range end (YYYY-MM-DD)"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /report/export [get]
func (h *SummaryHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	start, end, err := parseRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.export.ExportRange(c.Request.Context(), claims.UserID, start, end, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
