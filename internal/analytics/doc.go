// Package analytics derives the secondary metrics shown next to a forecast:
// year-over-year change, category distribution, trend direction, the
// textual insight and the yearly seasonality profile.
//
// Everything here is a pure function of a series, a dataset or a
// ForecastResult. Nothing refits the model.
package analytics
