// Package store provides access to the PostgreSQL database for API client
// records and their per-client threshold overrides.
package store

import "database/sql"

// Store is backed by a database/sql pool using the pgx driver.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}
