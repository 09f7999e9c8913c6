package dataset

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"crimecast/pkg/contracts/domain"
)

// UnspecifiedCategory labels rows whose category cell is empty or missing
const UnspecifiedCategory = "Unspecified"

// Accepted year range; rows outside it are skipped. Series are zero-filled
// between their first and last year.
const (
	MinYear = 1000
	MaxYear = 9999
)

// rowParser turns raw string rows into records and tracks skipped and
// coerced cells.
type rowParser struct {
	idx     columnIndex
	logger  *slog.Logger
	skipped int
	coerced int
}

// parse converts one data row. ok is false when the row is skipped.
func (p *rowParser) parse(line int, row []string) (domain.RawRecord, bool) {
	if isBlank(row) {
		return domain.RawRecord{}, false
	}

	state := strings.TrimSpace(cell(row, p.idx.state))
	if state == "" {
		p.skip(line, "empty state")
		return domain.RawRecord{}, false
	}

	year, ok := parseYear(cell(row, p.idx.year))
	if !ok {
		p.skip(line, "unparseable year", slog.String("year", cell(row, p.idx.year)))
		return domain.RawRecord{}, false
	}
	if year < MinYear || year > MaxYear {
		p.skip(line, "year out of range", slog.Int("year", year))
		return domain.RawRecord{}, false
	}

	category := UnspecifiedCategory
	if p.idx.category >= 0 {
		if c := strings.TrimSpace(cell(row, p.idx.category)); c != "" {
			category = c
		}
	}

	count, ok := parseCount(cell(row, p.idx.count))
	if !ok {
		p.coerced++
	}

	return domain.RawRecord{State: state, Year: year, Category: category, Count: count}, true
}

func (p *rowParser) skip(line int, reason string, attrs ...any) {
	p.skipped++
	p.logger.Debug("skipping row", append([]any{slog.Int("line", line), slog.String("reason", reason)}, attrs...)...)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseYear accepts "2005" as well as spreadsheet renderings like "2005.0"
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if y, err := strconv.Atoi(s); err == nil {
		return y, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// parseCount returns the numeric count, or 0 and false when the cell is
// non-numeric, non-finite or negative.
func parseCount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
