package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/service"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
	"github.com/noah-isme/academic-portal-api/pkg/response"
)

// AttendanceHandler exposes attendance listing, roster and batch
// recording endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
	export  *service.ExportService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService, export *service.ExportService) *AttendanceHandler {
	return &AttendanceHandler{service: svc, export: export}
}

// List godoc
// @Summary List attendance records
// @Description Attendance visible to the caller, newest session first
// @Tags Attendance
// @Produce json
// @Param courseId query string false "Filter by course"
// @Param from query string false "Earliest session date (YYYY-MM-DD)"
// @Param to query string false "Latest session date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := service.AttendanceFilterRequest{
		CourseID: c.Query("courseId"),
		From:     c.Query("from"),
		To:       c.Query("to"),
	}
	records, err := h.service.List(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, records, nil)
}

// Roster godoc
// @Summary Course roster for a new attendance session
// @Description Enrolled students with status defaulted to present
// @Tags Attendance
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/attendance/roster [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	roster, err := h.service.Roster(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, roster, nil)
}

// SubmitBatch godoc
// @Summary Record an attendance session
// @Description Persist one status per student as a single batch
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.SubmitAttendanceRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) SubmitBatch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidBatch.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	records, err := h.service.SubmitBatch(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, records, nil)
}

// Export godoc
// @Summary Export attendance records
// @Description Stream the caller's visible attendance as CSV or PDF
// @Tags Attendance
// @Produce text/csv
// @Produce application/pdf
// @Param courseId query string false "Filter by course"
// @Param format query string true "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /attendance/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	result, err := h.export.Attendance(c.Request.Context(), claims, c.Query("courseId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
