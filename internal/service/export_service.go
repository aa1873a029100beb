package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/participium/participium-api/internal/models"
	appErrors "github.com/participium/participium-api/pkg/errors"
	"github.com/participium/participium-api/pkg/export"
)

// ExportFormat selects the rendering backend.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus transport metadata.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders report listings for PR-officer review meetings.
type ExportService struct {
	reports reportStore
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService creates a service instance.
func NewExportService(reports reportStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reports: reports,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// Export renders reports matching the filter into the requested format.
func (s *ExportService) Export(ctx context.Context, filter models.ReportFilter, format ExportFormat) (*ExportResult, error) {
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format '%s'", format))
	}

	filter.Page = 1
	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}
	reports, _, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reports for export")
	}

	dataset := buildReportDataset(reports)
	stamp := time.Now().UTC().Format("20060102-150405")

	switch format {
	case FormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("reports-%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	default:
		data, err := s.pdf.Render(dataset, "Municipal reports")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("reports-%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	}
}

func buildReportDataset(reports []models.Report) export.Dataset {
	headers := []string{"ID", "Title", "Status", "Category", "Latitude", "Longitude", "Created"}
	rows := make([]map[string]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, map[string]string{
			"ID":        r.ID,
			"Title":     r.Title,
			"Status":    string(r.Status),
			"Category":  r.CategoryID,
			"Latitude":  strconv.FormatFloat(r.Latitude, 'f', 6, 64),
			"Longitude": strconv.FormatFloat(r.Longitude, 'f', 6, 64),
			"Created":   r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
