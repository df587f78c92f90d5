package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timeLayout is fixed width so that TEXT columns sort chronologically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// TimeToString converts a time.Time to a UTC string for database storage
func TimeToString(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// StringToTime parses a time stored by TimeToString
func StringToTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// OpenSQLite opens (and creates if needed) a SQLite database file.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// One writer at a time keeps SQLite from returning "database is locked" under concurrent uploads
	database.SetMaxOpenConns(1)

	return database, nil
}

// NewInMemoryDB creates a new in-memory SQLite database for testing
func NewInMemoryDB() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}

	// Every pooled connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
