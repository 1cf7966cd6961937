package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Connect opens the SQLite database at the given path, creating the folder if
// needed. WAL mode allows concurrent reads while a write is in flight.
// Ownership of the returned connection is handed to the store, which is the
// only component that writes to it.
func Connect(dbPath string) (*sqlx.DB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	// Ensure the folder exists
	dbPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
		return nil, fmt.Errorf("could not create the folder for the database: %w", err)
	}

	dsn := "file:" + dbPath + "?cache=shared&_journal=WAL&_busy_timeout=5000"
	conn, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open the database: %w", err)
	}

	// A single writer connection keeps SQLite happy with statements issued
	// concurrently from the store
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		log.Warn().Err(err).Msg("Failed to enable foreign keys")
	}

	log.Info().Str("path", dbPath).Msg("Opened database")
	return conn, nil
}
