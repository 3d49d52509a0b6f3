// Package db persists the assistant's state in SQLite: an append-only raw
// log of every user utterance, and an opaque key-value table holding each
// logical collection as one JSON blob.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database connection
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	conn.SetMaxOpenConns(1) // SQLite works best with single connection
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn}

	// Run migrations
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate runs database migrations
func (db *DB) migrate() error {
	migrations := []string{
		// Raw log table: immutable capture of every user utterance
		`CREATE TABLE IF NOT EXISTS raw_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			text TEXT NOT NULL
		)`,

		// One row per logical collection, value is the full JSON blob
		`CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// FTS5 virtual table for full-text search over the raw log
		`CREATE VIRTUAL TABLE IF NOT EXISTS raw_logs_fts USING fts5(
			text,
			content=raw_logs,
			content_rowid=id
		)`,

		// Triggers to keep FTS in sync
		`CREATE TRIGGER IF NOT EXISTS raw_logs_ai AFTER INSERT ON raw_logs BEGIN
			INSERT INTO raw_logs_fts(rowid, text) VALUES (new.id, new.text);
		END`,

		`CREATE TRIGGER IF NOT EXISTS raw_logs_ad AFTER DELETE ON raw_logs BEGIN
			DELETE FROM raw_logs_fts WHERE rowid = old.id;
		END`,

		`CREATE TRIGGER IF NOT EXISTS raw_logs_au AFTER UPDATE ON raw_logs BEGIN
			UPDATE raw_logs_fts SET text = new.text WHERE rowid = new.id;
		END`,

		// Indexes for better performance
		`CREATE INDEX IF NOT EXISTS idx_raw_logs_timestamp ON raw_logs(timestamp)`,
	}

	for _, migration := range migrations {
		if _, err := db.conn.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, migration)
		}
	}

	return nil
}

// DBStats represents database statistics
type DBStats struct {
	RawLogCount int64
	StateCount  int64
	DBSizeBytes int64
}

// GetStats returns database statistics
func (db *DB) GetStats() (*DBStats, error) {
	stats := &DBStats{}

	err := db.conn.QueryRow("SELECT COUNT(*) FROM raw_logs").Scan(&stats.RawLogCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count raw logs: %w", err)
	}

	err = db.conn.QueryRow("SELECT COUNT(*) FROM app_state").Scan(&stats.StateCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count state rows: %w", err)
	}

	// Get database size (page_count * page_size)
	var pageCount, pageSize int64
	err = db.conn.QueryRow("PRAGMA page_count").Scan(&pageCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	err = db.conn.QueryRow("PRAGMA page_size").Scan(&pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get page size: %w", err)
	}

	stats.DBSizeBytes = pageCount * pageSize

	return stats, nil
}

// Vacuum optimizes the database file
func (db *DB) Vacuum() error {
	_, err := db.conn.Exec("VACUUM")
	if err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}
