package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tuturuuu/calsync/internal/schema"
)

// UpsertWorkspace inserts or updates a workspace credential record.
func (db *DB) UpsertWorkspace(ctx context.Context, ws schema.Workspace) error {
	if err := ws.Validate(); err != nil {
		return fmt.Errorf("invalid workspace: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	query := `
	INSERT INTO workspaces (ws_id, access_token, refresh_token, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(ws_id) DO UPDATE SET
		access_token = excluded.access_token,
		refresh_token = excluded.refresh_token,
		updated_at = excluded.updated_at
	`

	_, err := db.conn.ExecContext(ctx, query,
		ws.WSID,
		nullIfEmpty(ws.AccessToken),
		nullIfEmpty(ws.RefreshToken),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert workspace %s: %w", ws.WSID, err)
	}

	return nil
}

// ListSyncableWorkspaces returns all workspaces eligible for calendar sync,
// ordered by creation time with ws_id as the tie-break (created_at has
// second granularity). Eligibility is presence of a non-null access token.
func (db *DB) ListSyncableWorkspaces(ctx context.Context) ([]schema.Workspace, error) {
	query := `
	SELECT ws_id, access_token, refresh_token, last_upsert_at
	FROM workspaces
	WHERE access_token IS NOT NULL AND access_token != ''
	ORDER BY created_at ASC, ws_id ASC
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []schema.Workspace
	for rows.Next() {
		var ws schema.Workspace
		var access, refresh, lastUpsert sql.NullString

		if err := rows.Scan(&ws.WSID, &access, &refresh, &lastUpsert); err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}

		ws.AccessToken = access.String
		ws.RefreshToken = refresh.String
		ws.LastUpsertAt = nullStringToTime(lastUpsert)

		workspaces = append(workspaces, ws)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workspaces: %w", err)
	}

	return workspaces, nil
}

// GetWorkspace retrieves a single workspace by ID.
// Returns sql.ErrNoRows if the workspace is not found.
func (db *DB) GetWorkspace(ctx context.Context, wsID string) (*schema.Workspace, error) {
	query := `
	SELECT ws_id, access_token, refresh_token, last_upsert_at
	FROM workspaces
	WHERE ws_id = ?
	`

	var ws schema.Workspace
	var access, refresh, lastUpsert sql.NullString

	err := db.conn.QueryRowContext(ctx, query, wsID).Scan(&ws.WSID, &access, &refresh, &lastUpsert)
	if err != nil {
		return nil, err
	}

	ws.AccessToken = access.String
	ws.RefreshToken = refresh.String
	ws.LastUpsertAt = nullStringToTime(lastUpsert)

	return &ws, nil
}

// TouchLastUpsert records the time of the last successful event upsert for
// a workspace. This is courtesy bookkeeping; sync correctness does not
// depend on it.
func (db *DB) TouchLastUpsert(ctx context.Context, wsID string, at time.Time) error {
	query := `UPDATE workspaces SET last_upsert_at = ?, updated_at = ? WHERE ws_id = ?`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.conn.ExecContext(ctx, query, at.UTC().Format(time.RFC3339), now, wsID)
	if err != nil {
		return fmt.Errorf("failed to update last upsert time for %s: %w", wsID, err)
	}

	return nil
}

// GetWorkspaceCount returns the total number of registered workspaces.
func (db *DB) GetWorkspaceCount(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM workspaces").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get workspace count: %w", err)
	}
	return count, nil
}

// nullIfEmpty converts an empty string to a SQL NULL.
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringToTime converts a nullable SQL string to a time pointer.
func nullStringToTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
