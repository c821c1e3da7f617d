// Package mangaupdates implements a metadata provider backed by the
// MangaUpdates v1 REST API.
//
// The Client performs raw search, series, and image requests; Provider maps
// those payloads onto the metadata model and runs the shared series matcher.
// MangaUpdates has no per-volume records, so book lookups are unsupported.
package mangaupdates
