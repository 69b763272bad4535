package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
	"github.com/noah-isme/academic-portal-api/pkg/export"
)

// ExportFormat enumerates supported report formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries a rendered report payload.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type attendanceLister interface {
	List(ctx context.Context, claims *models.JWTClaims, req AttendanceFilterRequest) ([]models.AttendanceDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders role-scoped attendance reports. Reports are
// generated synchronously and streamed back to the caller.
type ExportService struct {
	attendance attendanceLister
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(attendance attendanceLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{attendance: attendance, csv: csv, pdf: pdf, logger: logger}
}

// Attendance renders the caller's visible attendance records in the
// requested format. Scoping is delegated to the attendance listing, so
// an export never contains rows the caller could not see.
func (s *ExportService) Attendance(ctx context.Context, claims *models.JWTClaims, courseID string, format ExportFormat) (*ExportResult, error) {
	records, err := s.attendance.List(ctx, claims, AttendanceFilterRequest{CourseID: courseID})
	if err != nil {
		return nil, err
	}

	dataset := buildAttendanceDataset(records)
	title := "Attendance Report"
	if courseID != "" {
		title = fmt.Sprintf("Attendance Report %s", courseID)
	}

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render attendance export")
	}

	return &ExportResult{
		Filename:    buildExportFilename("attendance", courseID, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func buildAttendanceDataset(records []models.AttendanceDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, map[string]string{
			"Date":    record.SessionDate.Format("2006-01-02"),
			"Course":  record.CourseName,
			"Student": record.StudentName,
			"Status":  string(record.Status),
		})
	}
	return export.Dataset{
		Headers: []string{"Date", "Course", "Student", "Status"},
		Rows:    rows,
	}
}

func buildExportFilename(kind, courseID string, format ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	coursePart := sanitizeFilename(courseID)
	return fmt.Sprintf("%s_%s_%s.%s", kind, coursePart, timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
