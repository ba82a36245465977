package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/atelier-apps/atelier-admin-api/internal/dto"
	"github.com/atelier-apps/atelier-admin-api/pkg/export"
	appErrors "github.com/atelier-apps/atelier-admin-api/pkg/errors"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type statsProvider interface {
	Monthly(ctx context.Context, year int) (*dto.MonthlyStatsResponse, error)
	Yearly(ctx context.Context) (*dto.YearlyStatsResponse, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered statistics file ready to stream.
type ExportResult struct {
	Payload     []byte
	Filename    string
	ContentType string
}

// ExportService renders the statistics rollups as downloadable files.
type ExportService struct {
	stats  statsProvider
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(stats statsProvider, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{stats: stats, csv: csv, pdf: pdf, logger: logger}
}

var statsHeaders = []string{"Period", "Sessions", "Lessons", "New Students", "New Packs", "New Members", "Revenue"}

// MonthlyReport renders one year's monthly rollups.
func (s *ExportService) MonthlyReport(ctx context.Context, year int, format ExportFormat) (*ExportResult, error) {
	stats, err := s.stats.Monthly(ctx, year)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: statsHeaders}
	for _, m := range stats.Months {
		dataset.Rows = append(dataset.Rows, statsRow(m.Key, m.Sessions, m.LessonParticipations, m.NewStudents, m.NewPacks, m.NewMembers, m.Revenue))
	}
	if stats.Unknown != nil {
		u := stats.Unknown
		dataset.Rows = append(dataset.Rows, statsRow(u.Key, u.Sessions, u.LessonParticipations, u.NewStudents, u.NewPacks, u.NewMembers, u.Revenue))
	}

	title := fmt.Sprintf("Monthly statistics %d", year)
	filename := fmt.Sprintf("stats-monthly-%d-%s.%s", year, time.Now().UTC().Format("20060102"), format)
	return s.render(dataset, title, filename, format)
}

// YearlyReport renders the all-time yearly rollups.
func (s *ExportService) YearlyReport(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	stats, err := s.stats.Yearly(ctx)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: statsHeaders}
	for _, y := range stats.Years {
		dataset.Rows = append(dataset.Rows, statsRow(strconv.Itoa(y.Year), y.Sessions, y.LessonParticipations, y.NewStudents, y.NewPacks, y.NewMembers, y.Revenue))
	}
	if stats.Unknown != nil {
		u := stats.Unknown
		dataset.Rows = append(dataset.Rows, statsRow("unknown", u.Sessions, u.LessonParticipations, u.NewStudents, u.NewPacks, u.NewMembers, u.Revenue))
	}

	filename := fmt.Sprintf("stats-yearly-%s.%s", time.Now().UTC().Format("20060102"), format)
	return s.render(dataset, "Yearly statistics", filename, format)
}

func (s *ExportService) render(dataset export.Dataset, title, filename string, format ExportFormat) (*ExportResult, error) {
	var payload []byte
	var contentType string
	var err error

	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("statistics export rendered",
		zap.String("filename", filename),
		zap.Int("rows", len(dataset.Rows)))
	return &ExportResult{Payload: payload, Filename: filename, ContentType: contentType}, nil
}

func statsRow(period string, sessions, lessons, students, packs, members, revenue int) map[string]string {
	return map[string]string{
		"Period":       period,
		"Sessions":     strconv.Itoa(sessions),
		"Lessons":      strconv.Itoa(lessons),
		"New Students": strconv.Itoa(students),
		"New Packs":    strconv.Itoa(packs),
		"New Members":  strconv.Itoa(members),
		"Revenue":      strconv.Itoa(revenue),
	}
}
