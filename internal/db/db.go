// Package db provides the scenario library store
package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	libraryDir  = ".dialogue"
	libraryFile = "scenarios.db"
)

// DB wraps the database connection
type DB struct {
	*sqlx.DB
	path string
}

// DefaultDBPath prefers a .dialogue directory in the working directory and
// falls back to the one in the user's home
func DefaultDBPath() string {
	local := filepath.Join(libraryDir, libraryFile)
	if info, err := os.Stat(libraryDir); err == nil && info.IsDir() {
		return local
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return local
	}
	return filepath.Join(home, libraryDir, libraryFile)
}

// Open opens or creates the library at path and brings its schema up to date
func Open(path string) (*DB, error) {
	if path == "" {
		path = DefaultDBPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY under the API
	conn.SetMaxOpenConns(1)

	d := &DB{DB: conn, path: path}
	if err := d.init(); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) init() error {
	if err := d.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := d.migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}

// SchemaVersion reports how many migrations have been applied
func (d *DB) SchemaVersion() (int, error) {
	var v int
	if err := d.Get(&v, "PRAGMA user_version"); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// migrate applies the migrations newer than the stored user_version, each
// in its own transaction
func (d *DB) migrate() error {
	current, err := d.SchemaVersion()
	if err != nil {
		return err
	}
	for i := current; i < len(migrations); i++ {
		tx, err := d.Beginx()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		// PRAGMA does not take bind parameters
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

// timestamp returns unix seconds with millisecond precision
func timestamp() float64 {
	return float64(time.Now().UnixMilli()) / 1000.0
}

// migrations run in order; append only
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS scenarios (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    country TEXT NOT NULL DEFAULT '',
    created_timestamp REAL NOT NULL,
    updated_timestamp REAL NOT NULL,
    scenario_data TEXT NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS idx_scenarios_country ON scenarios(country);
CREATE INDEX IF NOT EXISTS idx_scenarios_updated ON scenarios(updated_timestamp);`,
}
