package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/opencenters/catalog-api/pkg/errors"
	"github.com/opencenters/catalog-api/pkg/export"
)

// ExportService renders query results as downloadable CSV or PDF.
type ExportService struct {
	query  *QueryService
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// ExportResult is a rendered document.
type ExportResult struct {
	ContentType string
	Filename    string
	Data        []byte
}

// NewExportService constructs the service.
func NewExportService(query *QueryService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		query:  query,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

var exportHeaders = []string{"ID", "Title", "Center", "Start", "End", "City"}

// Render runs the query and renders the rows in the requested format
// ("csv" or "pdf").
func (s *ExportService) Render(ctx context.Context, req QueryRequest, format string) (*ExportResult, error) {
	result, err := s.query.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(result.Events))}
	for _, ev := range result.Events {
		data.Rows = append(data.Rows, map[string]string{
			"ID":     fmt.Sprintf("%d", ev.ID),
			"Title":  ev.Title,
			"Center": ev.Center,
			"Start":  ev.StartDate,
			"End":    ev.EndDate,
			"City":   ev.Fullcity,
		})
	}

	switch strings.ToLower(format) {
	case "csv", "":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv export failed")
		}
		return &ExportResult{ContentType: "text/csv", Filename: "events.csv", Data: payload}, nil
	case "pdf":
		payload, err := s.pdf.Render(data, "Events")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf export failed")
		}
		return &ExportResult{ContentType: "application/pdf", Filename: "events.pdf", Data: payload}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format "+format)
	}
}
