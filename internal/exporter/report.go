package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"crimecast/internal/config"
	"crimecast/pkg/contracts/domain"
)

// ReportExporter writes pipeline reports to files or streams
type ReportExporter struct {
	paths  *config.Paths
	csv    *CSVWriter
	logger *slog.Logger
}

// NewReportExporter creates an exporter writing into paths.ReportsDir
func NewReportExporter(paths *config.Paths, logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExporter{
		paths:  paths,
		csv:    NewCSVWriter(paths),
		logger: logger.With(slog.String("component", "exporter")),
	}
}

// WriteCSV streams the forecast summary (future rows only) as CSV
func (e *ReportExporter) WriteCSV(w io.Writer, r *domain.Report) error {
	t := ForecastTable(r)
	return Encode(w, WriteOptions{
		Headers:   t.Headers,
		Records:   t.Strings(),
		BOMPrefix: true,
	})
}

// WriteXLSX streams the full report as a workbook
func (e *ReportExporter) WriteXLSX(w io.Writer, r *domain.Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveCSV writes the forecast summary into the reports directory and
// returns the file path
func (e *ReportExporter) SaveCSV(r *domain.Report) (string, error) {
	path := e.reportPath(r, "csv")
	t := ForecastTable(r)
	if err := e.csv.WriteSimpleCSV(path, t.Headers, t.Strings()); err != nil {
		return "", err
	}
	return path, nil
}

// SaveXLSX writes the workbook into the reports directory and returns the
// file path
func (e *ReportExporter) SaveXLSX(r *domain.Report) (string, error) {
	path := e.reportPath(r, "xlsx")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := Workbook(r)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	e.logger.Info("Wrote XLSX report", slog.String("path", path))
	return path, nil
}

func (e *ReportExporter) reportPath(r *domain.Report, ext string) string {
	sel := r.Selection
	if e.paths == nil {
		return (&config.Paths{}).ReportPath(sel.State, sel.Category, sel.Horizon, ext)
	}
	return e.paths.ReportPath(sel.State, sel.Category, sel.Horizon, ext)
}

// Workbook builds an in-memory workbook with one sheet per table. The
// caller closes the returned file.
func Workbook(r *domain.Report) (*excelize.File, error) {
	tables := []Table{
		SummaryTable(r),
		ForecastTable(r),
		HistoryTable(r),
		YoYTable(r),
		DistributionTable(r),
		SeasonalityTable(r),
	}

	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to add sheet %s: %w", t.Name, err)
		}
		if err := writeSheet(f, t, header); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	headers := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s header: %w", t.Name, err)
	}

	last, err := excelize.ColumnNumberToName(len(t.Headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Name, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", t.Name, err)
	}
	if err := f.SetColWidth(t.Name, "A", last, 18); err != nil {
		return err
	}

	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, c := range row {
			cells[j] = xlsxCell(c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &cells); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", t.Name, i+1, err)
		}
	}
	return nil
}

// xlsxCell keeps numbers numeric; blank cells stay empty
func xlsxCell(v any) any {
	switch c := v.(type) {
	case count:
		return math.Round(float64(c))
	case *float64:
		if c == nil {
			return nil
		}
		return *c
	default:
		return v
	}
}
