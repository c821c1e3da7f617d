// Package services defines shared utilities consumed by the resolver,
// providers, and job tracking.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, series IDs, provider names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can tell
//     "unsupported here" apart from "not found" or a transient failure.
//
// Use these helpers when wiring new provider logic so error handling and
// observability stay uniform across sources.
package services
