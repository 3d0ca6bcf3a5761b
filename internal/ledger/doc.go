// Package ledger persists one history row per finished run in SQLite.
//
// The schema is embedded and versioned; a database written by an incompatible
// version is rejected with ErrSchemaMismatch rather than migrated in place.
// History is append-only apart from Clear.
package ledger
