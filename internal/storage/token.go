package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Token operation discriminators accepted by SyncTokenOp.
const (
	TokenOpGet    = "get"
	TokenOpUpdate = "update"
	TokenOpClear  = "clear"
)

// TokenOpResult is one result row from the atomic token operation. The
// shape mirrors a stored-procedure status row: a success flag, an optional
// message, and the token when the operation yields one.
type TokenOpResult struct {
	Success   bool
	Message   string
	SyncToken string
}

// SyncTokenOp executes one atomic sync-token operation for a
// (workspace, calendar) pair.
//
// This is the single backing primitive for all cursor state: callers must
// never read a token and write it back in two calls, because a concurrent
// sync for the same workspace could interleave between them. Each
// operation here is one SQL statement, so the lost-update race cannot
// occur even if the per-workspace concurrency limit is bypassed.
//
// Semantics by operation:
//   - "get": returns zero rows when no cursor exists, else one successful
//     row carrying the token
//   - "update": upserts the cursor in a single INSERT ... ON CONFLICT
//     statement and returns one successful row carrying the stored token
//   - "clear": deletes the cursor and returns one successful status row,
//     whether or not a cursor existed
//
// An unknown operation returns one unsuccessful row rather than an error,
// matching the status-row contract.
func (db *DB) SyncTokenOp(ctx context.Context, wsID, calendarID, op, token string) ([]TokenOpResult, error) {
	if wsID == "" {
		return nil, errors.New("ws_id is required")
	}
	if calendarID == "" {
		calendarID = "primary"
	}

	switch op {
	case TokenOpGet:
		return db.tokenGet(ctx, wsID, calendarID)
	case TokenOpUpdate:
		return db.tokenUpdate(ctx, wsID, calendarID, token)
	case TokenOpClear:
		return db.tokenClear(ctx, wsID, calendarID)
	default:
		return []TokenOpResult{{Success: false, Message: fmt.Sprintf("unknown operation: %s", op)}}, nil
	}
}

func (db *DB) tokenGet(ctx context.Context, wsID, calendarID string) ([]TokenOpResult, error) {
	var token string
	err := db.conn.QueryRowContext(ctx,
		`SELECT sync_token FROM sync_tokens WHERE ws_id = ? AND calendar_id = ?`,
		wsID, calendarID,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		// No cursor yet: zero rows, not an error.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync token: %w", err)
	}

	return []TokenOpResult{{Success: true, SyncToken: token}}, nil
}

func (db *DB) tokenUpdate(ctx context.Context, wsID, calendarID, token string) ([]TokenOpResult, error) {
	if token == "" {
		return []TokenOpResult{{Success: false, Message: "sync token is required for update"}}, nil
	}

	// Single-statement upsert keeps the read-modify-write atomic.
	var stored string
	err := db.conn.QueryRowContext(ctx, `
	INSERT INTO sync_tokens (ws_id, calendar_id, sync_token, last_synced_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(ws_id, calendar_id) DO UPDATE SET
		sync_token = excluded.sync_token,
		last_synced_at = excluded.last_synced_at
	RETURNING sync_token
	`, wsID, calendarID, token, time.Now().UTC().Format(time.RFC3339)).Scan(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to store sync token: %w", err)
	}

	return []TokenOpResult{{Success: true, SyncToken: stored}}, nil
}

func (db *DB) tokenClear(ctx context.Context, wsID, calendarID string) ([]TokenOpResult, error) {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM sync_tokens WHERE ws_id = ? AND calendar_id = ?`,
		wsID, calendarID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to clear sync token: %w", err)
	}

	return []TokenOpResult{{Success: true}}, nil
}

// TokenAge returns how long ago the cursor for a (workspace, calendar)
// pair was last advanced. Returns false when no cursor exists.
func (db *DB) TokenAge(ctx context.Context, wsID, calendarID string) (time.Duration, bool, error) {
	if calendarID == "" {
		calendarID = "primary"
	}

	var lastSynced string
	err := db.conn.QueryRowContext(ctx,
		`SELECT last_synced_at FROM sync_tokens WHERE ws_id = ? AND calendar_id = ?`,
		wsID, calendarID,
	).Scan(&lastSynced)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read sync token age: %w", err)
	}

	t, err := time.Parse(time.RFC3339, lastSynced)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse last_synced_at: %w", err)
	}

	return time.Since(t), true, nil
}
