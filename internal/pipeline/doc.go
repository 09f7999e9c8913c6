// Package pipeline runs one selection through the three stages (series
// builder, forecast engine and derived metrics) and assembles the Report
// handed to the presentation layer.
//
// The pipeline owns the forecast cache. Failures that only affect part of
// the result (a series too short to forecast, a model that cannot be fitted,
// a state without category counts) become Report warnings. Only unknown
// selections, invalid input and cancellation are returned as errors.
package pipeline
