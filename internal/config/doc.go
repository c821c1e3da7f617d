// Package config loads, normalizes, and validates tankobon configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TANKOBON_API_TOKEN. Each metadata provider owns a section carrying its
// priority, media type, name matching mode, and the series/book field masks
// that decide which fields it may contribute.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum spellings, and clear validation errors.
package config
