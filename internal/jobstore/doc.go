// Package jobstore persists metadata jobs in SQLite.
//
// The database lives at config.DatabasePath and carries a single-row
// schema_version table. A version mismatch is reported as ErrSchemaMismatch
// instead of being migrated; when the schema changes, update schema.sql and
// bump schemaVersion. Writes retry briefly on SQLITE_BUSY so the daemon and
// CLI can share the file.
package jobstore
