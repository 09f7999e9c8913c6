package dataset

import (
	"fmt"
	"strings"

	apperrors "crimecast/internal/errors"
)

// Canonical column identifiers
const (
	ColumnState    = "state"
	ColumnYear     = "year"
	ColumnCategory = "category"
	ColumnCount    = "count"
)

// DefaultColumnAliases maps known source headers (lowercased) to canonical
// columns.
var DefaultColumnAliases = map[string]string{
	"area_name":    ColumnState,
	"state":        ColumnState,
	"state/ut":     ColumnState,
	"year":         ColumnYear,
	"group_name":   ColumnCategory,
	"crime_group":  ColumnCategory,
	"category":     ColumnCategory,
	"total_crimes": ColumnCount,
	"count":        ColumnCount,

	"trial_of_violent_crimes_by_courts_total": ColumnCount,
}

// columnIndex holds the position of each canonical column in a header row.
// category is optional; -1 means absent.
type columnIndex struct {
	state, year, category, count int
}

// resolveColumns maps a header row onto the canonical columns
func resolveColumns(header []string, overrides map[string]string) (columnIndex, error) {
	aliases := make(map[string]string, len(DefaultColumnAliases)+len(overrides))
	for k, v := range DefaultColumnAliases {
		aliases[k] = v
	}
	for k, v := range overrides {
		aliases[normalizeHeader(k)] = strings.ToLower(strings.TrimSpace(v))
	}

	idx := columnIndex{state: -1, year: -1, category: -1, count: -1}
	for i, h := range header {
		canonical, ok := aliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		switch canonical {
		case ColumnState:
			setOnce(&idx.state, i)
		case ColumnYear:
			setOnce(&idx.year, i)
		case ColumnCategory:
			setOnce(&idx.category, i)
		case ColumnCount:
			setOnce(&idx.count, i)
		}
	}

	var missing []string
	if idx.state < 0 {
		missing = append(missing, ColumnState)
	}
	if idx.year < 0 {
		missing = append(missing, ColumnYear)
	}
	if idx.count < 0 {
		missing = append(missing, ColumnCount)
	}
	if len(missing) > 0 {
		return idx, apperrors.NewParsingError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil).
			WithContext("header", header)
	}
	return idx, nil
}

func setOnce(dst *int, i int) {
	if *dst < 0 {
		*dst = i
	}
}

// normalizeHeader trims whitespace, a UTF-8 BOM and surrounding quotes
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(strings.Trim(strings.TrimSpace(h), "\""))
	return strings.ToLower(h)
}
