package testutil

import "crimecast/pkg/contracts/domain"

// AlphaCounts are the yearly totals of the "Alpha" fixture state for
// 2000..2005.
var AlphaCounts = []float64{5, 6, 5, 7, 8, 9}

// SampleRecords returns a small multi-state dataset.
//
//   - Alpha: 2000..2005, two categories whose sums equal AlphaCounts.
//   - Beta: 2000..2009 with a missing 2004 and a zero-count category.
//   - Gamma: only two years, too short to forecast.
func SampleRecords() []domain.RawRecord {
	var records []domain.RawRecord

	murder := []float64{2, 3, 2, 3, 3, 4}
	for i, total := range AlphaCounts {
		year := 2000 + i
		records = append(records,
			domain.RawRecord{State: "Alpha", Year: year, Category: "Murder", Count: murder[i]},
			domain.RawRecord{State: "Alpha", Year: year, Category: "Rape", Count: total - murder[i]},
		)
	}

	for year := 2000; year <= 2009; year++ {
		if year == 2004 {
			continue
		}
		base := float64(100 + (year-2000)*12)
		records = append(records,
			domain.RawRecord{State: "Beta", Year: year, Category: "Murder", Count: base * 0.6},
			domain.RawRecord{State: "Beta", Year: year, Category: "Kidnapping", Count: base * 0.4},
			domain.RawRecord{State: "Beta", Year: year, Category: "Dacoity", Count: 0},
		)
	}

	records = append(records,
		domain.RawRecord{State: "Gamma", Year: 2008, Category: "Murder", Count: 1},
		domain.RawRecord{State: "Gamma", Year: 2009, Category: "Murder", Count: 2},
	)
	return records
}

// AlphaRecords returns only the Alpha state records from SampleRecords.
func AlphaRecords() []domain.RawRecord {
	var out []domain.RawRecord
	for _, r := range SampleRecords() {
		if r.State == "Alpha" {
			out = append(out, r)
		}
	}
	return out
}

// SeriesOf builds a yearly series from consecutive values starting at
// startYear.
func SeriesOf(name string, startYear int, values ...float64) domain.TimeSeries {
	points := make([]domain.Point, len(values))
	for i, v := range values {
		points[i] = domain.Point{Timestamp: domain.YearStart(startYear + i), Value: v}
	}
	return domain.TimeSeries{Name: name, Points: points}
}

// SampleCSV is the Alpha fixture in the source column layout.
const SampleCSV = `Area_Name,Year,Group_Name,Trial_of_Violent_Crimes_by_Courts_Total
Alpha,2000,Murder,2
Alpha,2000,Rape,3
Alpha,2001,Murder,3
Alpha,2001,Rape,3
Alpha,2002,Murder,2
Alpha,2002,Rape,3
Alpha,2003,Murder,3
Alpha,2003,Rape,4
Alpha,2004,Murder,3
Alpha,2004,Rape,5
Alpha,2005,Murder,4
Alpha,2005,Rape,5
`
