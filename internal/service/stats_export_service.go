package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/unirate/internal/models"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
	"github.com/noah-isme/unirate/pkg/export"
)

// Supported stats export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type statsRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset, title string) ([]byte, error)
}

type subjectByID interface {
	GetByID(ctx context.Context, id string) (*models.Subject, error)
}

type subjectStats interface {
	Stats(ctx context.Context, subjectID string) (*models.ReviewStats, error)
}

// StatsExport is a rendered statistics document ready for download.
type StatsExport struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// StatsExportService renders subject review statistics as CSV or PDF tables.
type StatsExportService struct {
	subjects  subjectByID
	stats     subjectStats
	renderers map[string]statsRenderer
	logger    *zap.Logger
}

// NewStatsExportService constructs a StatsExportService with the CSV and PDF renderers.
func NewStatsExportService(subjects subjectByID, stats subjectStats, logger *zap.Logger) *StatsExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsExportService{
		subjects: subjects,
		stats:    stats,
		renderers: map[string]statsRenderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
	}
}

// Export renders the statistics of subjectID in the requested format.
func (s *StatsExportService) Export(ctx context.Context, subjectID, format string) (*StatsExport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	subject, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats.Stats(ctx, subject.ID)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s (%s) review statistics, %d reviews", subject.Name, subject.Code, stats.TotalReviews)
	payload, err := renderer.Render(StatsDataset(*stats), title)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render statistics export")
	}

	return &StatsExport{
		Filename:    fmt.Sprintf("%s-stats.%s", subject.Code, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

// StatsDataset lays stats out as one row per rating dimension.
func StatsDataset(stats models.ReviewStats) export.Dataset {
	headers := []string{"Dimension", "Average"}
	for v := models.MinRating; v <= models.MaxRating; v++ {
		headers = append(headers, strconv.Itoa(v))
	}
	headers = append(headers, "Reviews")

	rows := make([]map[string]string, 0, len(models.Dimensions))
	for _, dim := range models.Dimensions {
		row := map[string]string{
			"Dimension": string(dim),
			"Average":   strconv.FormatFloat(stats.AverageRatings.Get(dim), 'f', 2, 64),
			"Reviews":   strconv.Itoa(stats.TotalReviews),
		}
		dist := stats.RatingDistribution.Get(dim)
		for v := models.MinRating; v <= models.MaxRating; v++ {
			row[strconv.Itoa(v)] = strconv.Itoa(dist[v])
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
