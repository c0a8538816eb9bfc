package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/gyh/gyh-api/internal/dto"
	"github.com/gyh/gyh-api/internal/models"
	"github.com/gyh/gyh-api/pkg/config"
	appErrors "github.com/gyh/gyh-api/pkg/errors"
	"github.com/gyh/gyh-api/pkg/export"
)

type studioLister interface {
	List(ctx context.Context, query dto.NailStudioListQuery) (*dto.NailStudioListResult, error)
}

// TableRenderer turns a table into a document of one export format.
type TableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

var studioExportColumns = []export.Column{
	{Header: "ID", Weight: 2.2},
	{Header: "Nama", Weight: 2.5},
	{Header: "Desa", Weight: 1.5},
	{Header: "Alamat", Weight: 3},
	{Header: "No. Telp", Weight: 1.5},
	{Header: "Rating", Weight: 0.8},
	{Header: "Ulasan", Weight: 0.8},
	{Header: "Disurvei", Weight: 0.9},
	{Header: "Hari Ini", Weight: 1.4},
}

// ExportService renders the filtered nail studio directory as CSV, PDF or XLSX.
type ExportService struct {
	studios   studioLister
	renderers map[export.Format]TableRenderer
	loc       *time.Location
	pageSize  int
	maxRows   int
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Formats missing from renderers use the
// default exporters.
func NewExportService(studios studioLister, cfg config.StudiosConfig, loc *time.Location, logger *zap.Logger, renderers map[export.Format]TableRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	defaults := map[export.Format]TableRenderer{
		export.FormatCSV:  export.NewCSVExporter(),
		export.FormatPDF:  export.NewPDFExporter("GyH API"),
		export.FormatXLSX: export.NewXLSXExporter("Nail Studios"),
	}
	for format, renderer := range renderers {
		if renderer != nil {
			defaults[format] = renderer
		}
	}
	pageSize := cfg.MaxSearchResults
	if pageSize <= 0 {
		pageSize = 100
	}
	maxRows := cfg.ExportMaxRows
	if maxRows <= 0 {
		maxRows = 5000
	}
	return &ExportService{
		studios:   studios,
		renderers: defaults,
		loc:       loc,
		pageSize:  pageSize,
		maxRows:   maxRows,
		logger:    logger,
		now:       time.Now,
	}
}

// ExportStudios collects every studio matching the query, up to the row limit, and renders it.
func (s *ExportService) ExportStudios(ctx context.Context, query dto.NailStudioExportQuery) (*dto.ExportFile, error) {
	format, err := export.ParseFormat(query.Format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	}

	studios, truncated, err := s.collect(ctx, query.NailStudioListQuery)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	table := export.Table{
		Title:   fmt.Sprintf("Daftar Nail Studio (%s)", now.Format("02-01-2006 15:04")),
		Columns: studioExportColumns,
		Rows:    make([][]string, 0, len(studios)),
	}
	for _, studio := range studios {
		table.Rows = append(table.Rows, studioRow(studio))
	}

	content, err := s.renderers[format].Render(table)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}

	s.logger.Info("nail studios exported", zap.String("format", string(format)), zap.Int("rows", len(studios)), zap.Bool("truncated", truncated))
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("nail-studios-%s.%s", now.Format("20060102"), format),
		ContentType: format.ContentType(),
		Content:     content,
		Rows:        len(studios),
		Truncated:   truncated,
	}, nil
}

func (s *ExportService) collect(ctx context.Context, query dto.NailStudioListQuery) ([]models.NailStudioView, bool, error) {
	var studios []models.NailStudioView
	query.PerPage = s.pageSize
	for page := 1; ; page++ {
		query.Page = page
		result, err := s.studios.List(ctx, query)
		if err != nil {
			return nil, false, err
		}
		studios = append(studios, result.Data...)
		hasNext := result.Pagination != nil && result.Pagination.HasNext && len(result.Data) > 0
		if len(studios) >= s.maxRows {
			return studios[:s.maxRows], len(studios) > s.maxRows || hasNext, nil
		}
		if !hasNext {
			return studios, false, nil
		}
	}
}

func studioRow(studio models.NailStudioView) []string {
	today := models.ClosedLabel
	if studio.TodayHours.IsOpen && studio.TodayHours.OpenTime != nil && studio.TodayHours.CloseTime != nil {
		today = studio.TodayHours.OpenTime.String() + " - " + studio.TodayHours.CloseTime.String()
	}
	surveyed := "Tidak"
	if studio.SurveyStatus {
		surveyed = "Ya"
	}
	return []string{
		studio.ID,
		studio.Name,
		deref(studio.Locality),
		deref(studio.Address),
		deref(studio.Phone),
		strconv.FormatFloat(studio.Rating, 'f', 1, 64),
		strconv.Itoa(studio.TotalReviews),
		surveyed,
		today,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
