// Package chart renders report charts as PNG with go-chart: the forecast
// with its uncertainty bounds, the year-over-year bar chart and the category
// distribution pie.
package chart
