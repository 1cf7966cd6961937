// Package store owns the storage connection and exposes the typed
// CRUD/upsert operations over the unified item model. It is the only writer.
//
// The store starts uninitialized: every operation other than Initialize is a
// no-op returning its empty/zero default until the schema has been created.
// This is a deliberate soft-fail gate, not an error. Storage engine failures
// never propagate to callers either; they are converted to a StorageError,
// handed to the injected ErrorHandler and replaced by the default return.
package store

import (
	"sync"

	"github.com/jmoiron/sqlx"
)

// Store is the persistence service. Create one with New, then call
// Initialize before use.
type Store struct {
	db           *sqlx.DB
	errorHandler ErrorHandler

	mu          sync.RWMutex
	initialized bool

	subscribers subscribers
}

// New creates a Store over an open database connection. The store takes
// ownership of the connection; close it through Close.
func New(db *sqlx.DB, errorHandler ErrorHandler) *Store {
	return &Store{
		db:           db,
		errorHandler: errorHandler,
	}
}

// IsInitialized reports whether the schema gate is open
func (s *Store) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// fail reports a storage failure to the error handler. It never returns the
// error: callers fall back to their defined default result.
func (s *Store) fail(op string, err error) {
	if s.errorHandler != nil {
		s.errorHandler.HandleError(&StorageError{Op: op, Err: err})
	}
}
