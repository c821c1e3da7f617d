// Package logging assembles structured slog loggers and formatting helpers used
// across tankobon services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so resolver and job code can
// tag log lines with job IDs, series IDs, providers, and correlation IDs. A
// bounded StreamHub mirrors recent log lines for the HTTP API, and a no-op
// logger serves tests and wiring code that cannot fail.
package logging
