package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/kintai-api/pkg/errors"
	"github.com/noah-isme/kintai-api/pkg/export"
	"github.com/noah-isme/kintai-api/pkg/timeutil"
)

// ExportFormat identifies a supported download format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus the response metadata the
// handler needs to serve the download.
type ExportResult struct {
	Content     []byte
	Filename    string
	ContentType string
}

// ExportService renders working-hours summaries as CSV or PDF downloads.
type ExportService struct {
	attendance *AttendanceService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(attendance *AttendanceService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		attendance: attendance,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

var workingHoursHeaders = []string{"Date", "Clock In", "Clock Out", "Break (min)", "Worked"}

// ExportRange renders the caller's attendance records for the range into
// the requested format.
func (s *ExportService) ExportRange(ctx context.Context, userID string, start, end time.Time, format ExportFormat) (*ExportResult, error) {
	summary, err := s.attendance.RangeSummary(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: workingHoursHeaders}
	for _, record := range summary.Records {
		row := map[string]string{
			"Date":        timeutil.ToJST(record.ClockIn).Format("2006-01-02"),
			"Clock In":    timeutil.ToJST(record.ClockIn).Format("15:04"),
			"Clock Out":   "",
			"Break (min)": fmt.Sprintf("%d", record.BreakMinutes),
			"Worked":      s.attendance.FormatWorked(&record),
		}
		if record.ClockOut != nil {
			row["Clock Out"] = timeutil.ToJST(*record.ClockOut).Format("15:04")
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	stamp := fmt.Sprintf("%s_%s", start.Format("20060102"), end.Format("20060102"))
	title := fmt.Sprintf("Working Hours %s - %s", start.Format("2006-01-02"), end.Format("2006-01-02"))

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			s.logger.Error("csv export failed", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
		}
		return &ExportResult{
			Content:     content,
			Filename:    fmt.Sprintf("working_hours_%s.csv", stamp),
			ContentType: "text/csv",
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			s.logger.Error("pdf export failed", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
		}
		return &ExportResult{
			Content:     content,
			Filename:    fmt.Sprintf("working_hours_%s.pdf", stamp),
			ContentType: "application/pdf",
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "サポートされていない形式です")
	}
}
