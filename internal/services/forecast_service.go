package services

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"crimecast/internal/chart"
	apperrors "crimecast/internal/errors"
	"crimecast/internal/exporter"
	"crimecast/internal/infrastructure"
	"crimecast/internal/pipeline"
	"crimecast/pkg/contracts/domain"
)

// ForecastService exposes the pipeline and its renderings to the transport
// layer
type ForecastService struct {
	pipeline *pipeline.Pipeline
	exporter *exporter.ReportExporter
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewForecastService creates a forecast service
func NewForecastService(p *pipeline.Pipeline, exp *exporter.ReportExporter, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *ForecastService {
	if logger == nil {
		logger = slog.Default()
	}
	if exp == nil {
		exp = exporter.NewReportExporter(nil, logger)
	}
	return &ForecastService{
		pipeline: p,
		exporter: exp,
		metrics:  metrics,
		logger:   logger.With(slog.String("service", "forecast")),
	}
}

// States lists the selectable states
func (s *ForecastService) States(ctx context.Context) []string {
	return s.pipeline.States()
}

// Categories lists the crime categories of a state
func (s *ForecastService) Categories(ctx context.Context, state string) ([]string, error) {
	return s.pipeline.Categories(state)
}

// Forecast runs the pipeline for one selection
func (s *ForecastService) Forecast(ctx context.Context, sel domain.Selection) (*domain.Report, error) {
	report, err := s.pipeline.Run(ctx, sel)
	if err != nil {
		s.logger.DebugContext(ctx, "forecast request failed",
			slog.String("state", sel.State),
			slog.String("error", err.Error()))
		return nil, err
	}
	return report, nil
}

// Chart renders one chart of the selection as PNG
func (s *ForecastService) Chart(ctx context.Context, sel domain.Selection, kind chart.Kind, opts chart.Options, w io.Writer) error {
	report, err := s.Forecast(ctx, sel)
	if err != nil {
		return err
	}
	if err := chart.Render(w, kind, report, opts); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			return apperrors.NewAppError(apperrors.ErrTypeInsufficientData, "not enough data to render the "+string(kind)+" chart", err)
		}
		infrastructure.RecordError(ctx, err)
		infrastructure.RecordSystemError(ctx, s.metrics, "chart")
		return err
	}
	infrastructure.RecordExport(ctx, s.metrics, "png")
	return nil
}

// ExportCSV writes the forecast summary of the selection
func (s *ForecastService) ExportCSV(ctx context.Context, sel domain.Selection, w io.Writer) error {
	report, err := s.Forecast(ctx, sel)
	if err != nil {
		return err
	}
	if err := s.exporter.WriteCSV(w, report); err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.RecordSystemError(ctx, s.metrics, "exporter")
		return err
	}
	infrastructure.RecordExport(ctx, s.metrics, "csv")
	return nil
}

// ExportXLSX writes the full report of the selection as a workbook
func (s *ForecastService) ExportXLSX(ctx context.Context, sel domain.Selection, w io.Writer) error {
	report, err := s.Forecast(ctx, sel)
	if err != nil {
		return err
	}
	if err := s.exporter.WriteXLSX(w, report); err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.RecordSystemError(ctx, s.metrics, "exporter")
		return err
	}
	infrastructure.RecordExport(ctx, s.metrics, "xlsx")
	return nil
}
