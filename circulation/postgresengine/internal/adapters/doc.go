// Package adapters provide database adapter implementations for the PostgreSQL circulation store.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgx.Pool, sql.DB, and sqlx.DB. All adapters open transactions through a common DBAdapter
// interface, so the store runs the same statements regardless of the connection type.
package adapters
