// Package storage provides the embedded SQLite database behind calendar sync.
//
// The database runs in embedded mode using SQLite with WAL for concurrency
// support. It holds three tables:
//   - workspaces: per-tenant OAuth credentials and sync bookkeeping
//   - calendar_events: provider-sourced event rows, keyed by
//     (ws_id, google_event_id)
//   - sync_tokens: one continuation cursor per (ws_id, calendar_id)
//
// Workflow:
//  1. The fan-out enumerates syncable workspaces from the workspaces table
//  2. Sync orchestrators fetch provider deltas and write event rows in batches
//  3. Continuation cursors are advanced through a single atomic token
//     operation, never a read-then-write pair
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB wraps the SQLite database connection with sync-specific functionality.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates a new database connection at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// If the database doesn't exist, it will be created; call InitSchema to
// create the tables.
//
// The caller MUST call Close() when done to ensure proper cleanup.
//
// Example:
//
//	db, err := storage.Open(".calsync/calsync.db")
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
func Open(path string) (*DB, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s", path)
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{
		conn: conn,
		path: path,
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout to 5 seconds
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// RawDB returns the underlying sql.DB connection.
// This is useful for integrating with other libraries that expect *sql.DB.
func (db *DB) RawDB() *sql.DB {
	return db.conn
}

// Close closes the database connection.
// Performs a WAL checkpoint to ensure all changes are persisted.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	// Checkpoint WAL before closing
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// InitSchema creates the database schema if it doesn't exist.
//
// This is idempotent - safe to call multiple times.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the database schema with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	schema := `
	-- Per-tenant sync credentials and bookkeeping
	CREATE TABLE IF NOT EXISTS workspaces (
		ws_id TEXT PRIMARY KEY,
		access_token TEXT,
		refresh_token TEXT,
		last_upsert_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Provider-sourced event rows
	CREATE TABLE IF NOT EXISTS calendar_events (
		ws_id TEXT NOT NULL,
		google_event_id TEXT NOT NULL,
		google_calendar_id TEXT NOT NULL DEFAULT 'primary',
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT 'BLUE',
		locked INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (ws_id, google_event_id)
	);

	-- One continuation cursor per (workspace, calendar)
	CREATE TABLE IF NOT EXISTS sync_tokens (
		ws_id TEXT NOT NULL,
		calendar_id TEXT NOT NULL DEFAULT 'primary',
		sync_token TEXT NOT NULL,
		last_synced_at TEXT NOT NULL,
		PRIMARY KEY (ws_id, calendar_id)
	);

	-- Indexes for common queries
	CREATE INDEX IF NOT EXISTS idx_events_ws ON calendar_events(ws_id);
	CREATE INDEX IF NOT EXISTS idx_events_calendar ON calendar_events(ws_id, google_calendar_id);
	CREATE INDEX IF NOT EXISTS idx_events_start ON calendar_events(start_at);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}
