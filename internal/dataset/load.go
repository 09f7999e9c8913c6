package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "crimecast/internal/errors"
	"crimecast/pkg/contracts/domain"
)

// Options controls how a source file is read
type Options struct {
	// Columns adds or overrides header aliases (source header -> canonical)
	Columns map[string]string
	// Sheet selects the XLSX worksheet; empty means the first sheet
	Sheet  string
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Load reads the dataset at path, choosing the format from the extension
func Load(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open dataset %s", path), err)
	}
	defer f.Close()

	var ds *Dataset
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		ds, err = LoadCSV(f, path, opts)
	case ".xlsx", ".xlsm":
		ds, err = LoadXLSX(f, path, opts)
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported dataset format %q", ext), nil)
	}
	if err != nil {
		return nil, err
	}

	stats := ds.Stats()
	opts.logger().Info("dataset loaded",
		slog.String("source", stats.Source),
		slog.Int("records", stats.Records),
		slog.Int("states", stats.States),
		slog.Int("categories", stats.Categories),
		slog.Int("min_year", stats.MinYear),
		slog.Int("max_year", stats.MaxYear),
		slog.Int("skipped_rows", stats.SkippedRows),
		slog.Int("coerced_counts", stats.CoercedCounts))
	return ds, nil
}

// LoadCSV reads a comma-separated dataset with a header row
func LoadCSV(r io.Reader, source string, opts Options) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewParsingError("dataset is empty", nil)
		}
		return nil, apperrors.NewParsingError("failed to read header", err)
	}

	idx, err := resolveColumns(header, opts.Columns)
	if err != nil {
		return nil, err
	}

	p := &rowParser{idx: idx, logger: opts.logger()}
	records := make([]domain.RawRecord, 0, 1024)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read line %d", line), err).
				WithContext("line", line)
		}
		if rec, ok := p.parse(line, row); ok {
			records = append(records, rec)
		}
	}

	return New(source, records).withLoadStats(p.skipped, p.coerced), nil
}

// LoadXLSX reads the dataset from an Excel workbook. The first non-empty
// row of the sheet is the header.
func LoadXLSX(r io.Reader, source string, opts Options) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}

	headerRow := -1
	for i, row := range rows {
		if !isBlank(row) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %q is empty", sheet), nil)
	}

	idx, err := resolveColumns(rows[headerRow], opts.Columns)
	if err != nil {
		return nil, err
	}

	p := &rowParser{idx: idx, logger: opts.logger()}
	records := make([]domain.RawRecord, 0, len(rows))
	for i := headerRow + 1; i < len(rows); i++ {
		if rec, ok := p.parse(i+1, rows[i]); ok {
			records = append(records, rec)
		}
	}

	return New(source, records).withLoadStats(p.skipped, p.coerced), nil
}
