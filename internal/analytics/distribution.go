package analytics

import (
	"sort"

	"crimecast/internal/dataset"
	apperrors "crimecast/internal/errors"
	"crimecast/pkg/contracts/domain"
)

// CategoryDistribution returns the category shares of a state's most recent
// year in the unfiltered dataset. Categories with no cases are left out, so
// Shares is empty when that year has no counts at all.
func CategoryDistribution(ds *dataset.Dataset, state string) (domain.CategoryDistribution, error) {
	if !ds.HasState(state) {
		return domain.CategoryDistribution{}, apperrors.NewNotFoundError("state").WithContext("state", state)
	}

	records := ds.RecordsFor(state)
	latest := records[0].Year
	for _, r := range records[1:] {
		if r.Year > latest {
			latest = r.Year
		}
	}

	counts := make(map[string]float64)
	for _, r := range records {
		if r.Year == latest {
			counts[r.Category] += r.Count
		}
	}

	dist := domain.CategoryDistribution{State: state, Year: latest}
	for category, count := range counts {
		if count <= 0 {
			continue
		}
		dist.Shares = append(dist.Shares, domain.CategoryShare{Category: category, Count: count})
		dist.Total += count
	}

	sort.Slice(dist.Shares, func(i, j int) bool {
		a, b := dist.Shares[i], dist.Shares[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})
	for i := range dist.Shares {
		dist.Shares[i].Percentage = dist.Shares[i].Count / dist.Total * 100
	}

	return dist, nil
}
