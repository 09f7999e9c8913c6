// Command forecast runs the crime-trial forecasting pipeline for one
// selection, logs a summary and writes CSV and XLSX reports.
//
//	forecast -data data/crime_by_state.csv -state "Andhra Pradesh" -horizon 5
//	forecast -data data/crime_by_state.csv -list
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"crimecast/internal/chart"
	"crimecast/internal/config"
	"crimecast/internal/dataset"
	"crimecast/internal/exporter"
	"crimecast/internal/infrastructure"
	"crimecast/internal/pipeline"
	"crimecast/pkg/contracts"
	"crimecast/pkg/contracts/domain"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("forecast failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// options holds the parsed command line
type options struct {
	dataPath string
	state    string
	category string
	horizon  int
	outDir   string
	chart    string
	list     bool
	noExport bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("forecast", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&o.dataPath, "data", "", "dataset CSV or XLSX (default: data.path from config)")
	fs.StringVar(&o.state, "state", "", "state to forecast")
	fs.StringVar(&o.category, "category", "", "optional crime group; empty forecasts all groups")
	fs.IntVar(&o.horizon, "horizon", 0, "years to forecast, 1..10 (default: forecast.default_horizon)")
	fs.StringVar(&o.outDir, "out", "", "reports directory (default: data.reports_dir)")
	fs.StringVar(&o.chart, "chart", "", "also render a PNG chart: forecast, yoy or distribution")
	fs.BoolVar(&o.list, "list", false, "list states and their crime groups, then exit")
	fs.BoolVar(&o.noExport, "no-export", false, "log the summary only, write no files")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if !o.list && o.state == "" {
		return o, fmt.Errorf("-state is required")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.dataPath != "" {
		cfg.Data.Path = opts.dataPath
		cfg.Data.DSN = ""
	}
	if opts.outDir != "" {
		cfg.Data.ReportsDir = opts.outDir
	}
	if opts.horizon == 0 {
		opts.horizon = cfg.Forecast.DefaultHorizon
	}

	// Reports go to files; the log stays on the console.
	cfg.Logging.Output = "console"
	logger, err := infrastructure.NewLogger(cfg.Logging, stdout)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	ctx = infrastructure.EnsureTraceID(ctx)

	paths, err := cfg.GetPaths("")
	if err != nil {
		return err
	}

	ds, err := dataset.Open(ctx, paths.DataFile, cfg.Data.DSN, cfg.Data.Table, dataset.Options{
		Columns: cfg.Data.Columns,
		Sheet:   cfg.Data.Sheet,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if opts.list {
		return listStates(ctx, logger, ds)
	}

	p := pipeline.New(ds, cfg.Forecast, pipeline.WithLogger(logger))
	start := time.Now()
	report, err := p.Run(ctx, domain.Selection{State: opts.state, Category: opts.category, Horizon: opts.horizon})
	if err != nil {
		return err
	}
	logSummary(ctx, logger, report, time.Since(start))

	if opts.noExport {
		return nil
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	exp := exporter.NewReportExporter(paths, logger)
	if report.HasForecast() {
		csvPath, err := exp.SaveCSV(report)
		if err != nil {
			return fmt.Errorf("failed to write CSV report: %w", err)
		}
		logger.InfoContext(ctx, "wrote CSV report", slog.String("path", csvPath))
	}
	xlsxPath, err := exp.SaveXLSX(report)
	if err != nil {
		return fmt.Errorf("failed to write XLSX report: %w", err)
	}
	logger.InfoContext(ctx, "wrote XLSX report", slog.String("path", xlsxPath))

	if opts.chart != "" {
		chartPath, err := saveChart(paths, report, opts.chart)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "wrote chart", slog.String("path", chartPath))
	}
	return nil
}

func listStates(ctx context.Context, logger *slog.Logger, ds *dataset.Dataset) error {
	for _, state := range ds.States() {
		categories, err := ds.Categories(state)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "state",
			slog.String("state", state),
			slog.Any("categories", categories))
	}
	return nil
}

func logSummary(ctx context.Context, logger *slog.Logger, r *domain.Report, elapsed time.Duration) {
	attrs := []any{
		slog.String("state", r.Selection.State),
		slog.String("category", r.Selection.Category),
		slog.Int("horizon", r.Selection.Horizon),
		slog.Int("history_points", r.Series.Len()),
		slog.String("model", contracts.ModelVersion),
		slog.Duration("elapsed", elapsed),
	}
	if r.Insight != nil {
		attrs = append(attrs,
			slog.String("trend", string(r.Insight.Direction)),
			slog.Float64("projected_change_pct", r.Insight.ProjectedChangePct),
			slog.String("insight", r.Insight.Message))
	}
	logger.InfoContext(ctx, "forecast summary", attrs...)

	for _, pt := range r.FutureForecast() {
		logger.InfoContext(ctx, "forecast",
			slog.Int("year", pt.Timestamp.Year()),
			slog.Float64("predicted", pt.Predicted),
			slog.Float64("lower", pt.Lower),
			slog.Float64("upper", pt.Upper))
	}
	for _, w := range r.Warnings {
		logger.WarnContext(ctx, "forecast warning",
			slog.String("kind", string(w.Kind)),
			slog.String("message", w.Message))
	}
}

func saveChart(paths *config.Paths, r *domain.Report, kindName string) (string, error) {
	kind, err := chart.ParseKind(kindName)
	if err != nil {
		return "", err
	}
	path := paths.ReportPath(r.Selection.State, r.Selection.Category, r.Selection.Horizon, string(kind)+".png")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := chart.Render(f, kind, r, chart.DefaultOptions()); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to render %s chart: %w", kind, err)
	}
	return path, f.Close()
}
