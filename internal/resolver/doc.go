// Package resolver runs one metadata resolution across the configured
// providers.
//
// Providers are queried in priority order. The first match wins unless
// aggregation is on, in which case later matches fill the gaps left by
// earlier ones. Every step is reported on a jobs.EventFlow so the tracker
// and API clients can follow progress; every run ends with exactly one
// terminal event.
package resolver
