package http

import (
	"context"
	"io"

	"crimecast/internal/chart"
	"crimecast/pkg/contracts/domain"
)

// ForecastServiceInterface defines the operations the forecast handler needs
type ForecastServiceInterface interface {
	States(ctx context.Context) []string
	Categories(ctx context.Context, state string) ([]string, error)
	Forecast(ctx context.Context, sel domain.Selection) (*domain.Report, error)
	Chart(ctx context.Context, sel domain.Selection, kind chart.Kind, opts chart.Options, w io.Writer) error
	ExportCSV(ctx context.Context, sel domain.Selection, w io.Writer) error
	ExportXLSX(ctx context.Context, sel domain.Selection, w io.Writer) error
}
