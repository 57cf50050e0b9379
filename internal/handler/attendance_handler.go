package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kintai-api/internal/service"
	appErrors "github.com/noah-isme/kintai-api/pkg/errors"
	"github.com/noah-isme/kintai-api/pkg/response"
)

// AttendanceHandler wires punch clock endpoints to the attendance service.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

type punchRequest struct {
	Action          string     `json:"action" binding:"required"`
	PlannedClockOut *time.Time `json:"plannedClockOut"`
	BreakMinutes    int        `json:"breakMinutes"`
}

// Wire values are hyphenated; the underscore forms are kept as aliases.
func normalizePunchAction(action string) string {
	switch action {
	case "clock-in", "clock_in":
		return "clock-in"
	case "clock-out", "clock_out":
		return "clock-out"
	default:
		return ""
	}
}

// Punch godoc
// @Summary Clock in or clock out
// @Description Records a punch. action is "clock-in" or "clock-out".
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body object true "Punch payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Punch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req punchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "アクションは必須です"))
		return
	}

	switch normalizePunchAction(req.Action) {
	case "clock-in":
		in := service.ClockInRequest{PlannedClockOut: req.PlannedClockOut, BreakMinutes: req.BreakMinutes}
		record, err := h.service.ClockIn(c.Request.Context(), claims.UserID, in)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, record, "打刻しました")
	case "clock-out":
		record, err := h.service.ClockOut(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Message(c, http.StatusOK, record, "退勤しました")
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "無効なアクションです"))
	}
}

// Status godoc
// @Summary Current punch state
// @Description Reports whether the caller has an open work session
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance/status [get]
func (h *AttendanceHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	status, err := h.service.Status(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, status, nil)
}

// History godoc
// @Summary Attendance history
// @Description Lists the caller's attendance records newest first
// @Tags Attendance
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, pagination, err := h.service.History(c.Request.Context(), claims.UserID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, records, pagination)
}

// Update godoc
// @Summary Edit attendance record
// @Description Full edit of an owned attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body service.EditAttendanceRequest true "Edit payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/{id} [put]
func (h *AttendanceHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.EditAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "入力内容に誤りがあります"))
		return
	}

	record, err := h.service.Edit(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, record, "勤怠記録を更新しました")
}

// Delete godoc
// @Summary Delete attendance record
// @Description Removes an owned attendance record
// @Tags Attendance
// @Produce json
// @Param id path string true "Record ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/{id} [delete]
func (h *AttendanceHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// DeleteToday godoc
// @Summary Delete today's active records
// @Description Removes the caller's active records clocked in today (JST)
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance [delete]
func (h *AttendanceHandler) DeleteToday(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	deleted, err := h.service.DeleteToday(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}

// Approve godoc
// @Summary Approve planned clock-out
// @Description Adopts the planned clock-out as the actual clock-out
// @Tags Attendance
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/{id}/approve [post]
func (h *AttendanceHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	record, err := h.service.ApprovePlanned(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, record, "予定退勤時間を実際の退勤時間として承認しました")
}
