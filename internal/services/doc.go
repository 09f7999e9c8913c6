// Package services sits between the HTTP handlers and the forecasting
// pipeline.
//
// # Available Services
//
//	- ForecastService: state and category lookups, forecasts, charts and
//	  CSV/XLSX exports for one selection
//	- HealthService: health, readiness and liveness reports built from the
//	  dataset statistics and the forecast cache
//
// Services take their collaborators and a *slog.Logger through the
// constructor and return domain errors from internal/errors unchanged, so
// the transport layer can map them onto problem responses:
//
//	fs := services.NewForecastService(p, exporter, metrics, logger)
//	report, err := fs.Forecast(ctx, domain.Selection{State: "Kerala", Horizon: 5})
//
// Exports and charts are written to the caller's io.Writer. Nothing is
// written when the underlying forecast fails.
package services
