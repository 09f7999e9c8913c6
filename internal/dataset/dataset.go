package dataset

import (
	"fmt"
	"sort"

	apperrors "crimecast/internal/errors"
	"crimecast/pkg/contracts/domain"
)

// Dataset is the in-memory, read-only crime-trial dataset
type Dataset struct {
	source     string
	records    []domain.RawRecord
	byState    map[string][]domain.RawRecord
	categories map[string][]string
	states     []string
	stats      domain.DatasetStats
}

// New indexes records into a Dataset. The records slice is owned by the
// dataset afterwards.
func New(source string, records []domain.RawRecord) *Dataset {
	ds := &Dataset{
		source:     source,
		records:    records,
		byState:    make(map[string][]domain.RawRecord),
		categories: make(map[string][]string),
	}

	catSeen := make(map[string]map[string]struct{})
	allCategories := make(map[string]struct{})
	minYear, maxYear := 0, 0

	for i, r := range records {
		ds.byState[r.State] = append(ds.byState[r.State], r)

		seen, ok := catSeen[r.State]
		if !ok {
			seen = make(map[string]struct{})
			catSeen[r.State] = seen
		}
		if _, dup := seen[r.Category]; !dup {
			seen[r.Category] = struct{}{}
			ds.categories[r.State] = append(ds.categories[r.State], r.Category)
		}
		allCategories[r.Category] = struct{}{}

		if i == 0 || r.Year < minYear {
			minYear = r.Year
		}
		if i == 0 || r.Year > maxYear {
			maxYear = r.Year
		}
	}

	for state := range ds.byState {
		ds.states = append(ds.states, state)
		sort.Strings(ds.categories[state])
	}
	sort.Strings(ds.states)

	ds.stats = domain.DatasetStats{
		Source:     source,
		Records:    len(records),
		States:     len(ds.states),
		Categories: len(allCategories),
		MinYear:    minYear,
		MaxYear:    maxYear,
	}
	return ds
}

// Source returns where the dataset was loaded from
func (d *Dataset) Source() string {
	return d.source
}

// Records returns every record. Callers must not modify the slice.
func (d *Dataset) Records() []domain.RawRecord {
	return d.records
}

// RecordsFor returns the records of one state. Callers must not modify the
// slice.
func (d *Dataset) RecordsFor(state string) []domain.RawRecord {
	return d.byState[state]
}

// States returns the distinct states in ascending order
func (d *Dataset) States() []string {
	out := make([]string, len(d.states))
	copy(out, d.states)
	return out
}

// HasState reports whether the state appears in the dataset
func (d *Dataset) HasState(state string) bool {
	_, ok := d.byState[state]
	return ok
}

// Categories returns the distinct crime categories recorded for a state
func (d *Dataset) Categories(state string) ([]string, error) {
	cats, ok := d.categories[state]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("state %q", state))
	}
	out := make([]string, len(cats))
	copy(out, cats)
	return out, nil
}

// HasCategory reports whether the category is recorded for the state
func (d *Dataset) HasCategory(state, category string) bool {
	cats := d.categories[state]
	i := sort.SearchStrings(cats, category)
	return i < len(cats) && cats[i] == category
}

// Aggregate sums counts across categories for every (state, year) present
func (d *Dataset) Aggregate() domain.AggregatedSeries {
	agg := make(domain.AggregatedSeries)
	for _, r := range d.records {
		agg[domain.StateYear{State: r.State, Year: r.Year}] += r.Count
	}
	return agg
}

// Stats returns load statistics
func (d *Dataset) Stats() domain.DatasetStats {
	return d.stats
}

func (d *Dataset) withLoadStats(skipped, coerced int) *Dataset {
	d.stats.SkippedRows = skipped
	d.stats.CoercedCounts = coerced
	return d
}
