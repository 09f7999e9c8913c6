// Package http implements the HTTP handlers of the CrimeCast web service.
// Handlers stay thin: they parse and validate query parameters, call the
// services layer and format the response.
//
// # Routes
//
//	GET /api/states                       selectable states
//	GET /api/states/{state}/categories    crime categories of a state
//	GET /api/forecast                     full pipeline Report as JSON
//	GET /api/forecast/chart.png           forecast, yoy or distribution chart
//	GET /api/forecast/export.csv          future forecast rows
//	GET /api/forecast/export.xlsx         workbook with every report table
//	GET /api/health[/ready|/live]         health probes
//	GET /api/version                      build and model version
//
// The forecast endpoints share the selection parameters state, category
// (optional) and horizon (1..10).
//
// # Error Handling
//
// Every failure is written as RFC 7807 Problem Details by
// errors.ErrorHandler. Degraded pipeline results (too little data, a model
// that could not be fitted) are not failures: the Report is returned with
// warnings and only binary renderings that need the missing piece answer
// 422.
package http
