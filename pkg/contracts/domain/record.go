package domain

// RawRecord is one row of the source dataset: the trial count of a single
// crime category in a state for one year.
type RawRecord struct {
	State    string  `json:"state"`
	Year     int     `json:"year"`
	Category string  `json:"category"`
	Count    float64 `json:"count"`
}

// StateYear identifies one entry of the aggregated series.
type StateYear struct {
	State string `json:"state"`
	Year  int    `json:"year"`
}

// AggregatedSeries maps (state, year) to the total count summed across
// categories.
type AggregatedSeries map[StateYear]float64

// DatasetStats summarizes a loaded dataset
type DatasetStats struct {
	Source      string `json:"source"`
	Records     int    `json:"records"`
	SkippedRows int    `json:"skipped_rows"`
	// CoercedCounts is the number of non-numeric or negative counts read as 0
	CoercedCounts int `json:"coerced_counts"`
	States      int    `json:"states"`
	Categories  int    `json:"categories"`
	MinYear     int    `json:"min_year"`
	MaxYear     int    `json:"max_year"`
}
