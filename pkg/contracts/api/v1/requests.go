// Package api contains API contract definitions for the CrimeCast HTTP API.
// Version v1 represents the current stable API version.
package api

import (
	"crimecast/pkg/contracts/domain"
)

// ForecastQuery carries the query parameters of the forecast endpoints.
type ForecastQuery struct {
	State    string `json:"state" query:"state" validate:"required,max=128"`
	Category string `json:"category,omitempty" query:"category" validate:"omitempty,max=128"`
	Horizon  int    `json:"horizon" query:"horizon" validate:"min=1,max=10"`
}

// Selection converts the query into a pipeline selection.
func (q ForecastQuery) Selection() domain.Selection {
	return domain.Selection{State: q.State, Category: q.Category, Horizon: q.Horizon}
}

