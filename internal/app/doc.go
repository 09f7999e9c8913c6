// Package app wires the CrimeCast web service together and manages its
// lifecycle.
//
// NewApplication loads configuration (environment plus optional YAML), the
// logger, the crime-trial dataset and OpenTelemetry, then builds the
// forecasting pipeline, the services and the chi router. New does the same
// around an already loaded dataset and is what tests use.
//
// Run serves until its context is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests within Server.ShutdownTimeout and flushes
// telemetry. The package never calls os.Exit; main decides the exit code.
package app
