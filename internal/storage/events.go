package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tuturuuu/calsync/internal/schema"
)

// UpsertEvents writes a batch of event rows in one statement.
//
// The conflict target is the (ws_id, google_event_id) natural key; a
// conflicting row is fully overwritten, no partial-field merge. Callers are
// expected to bound the batch size themselves (the sync engine uses 100).
func (db *DB) UpsertEvents(ctx context.Context, rows []schema.EventRow) error {
	if len(rows) == 0 {
		return nil
	}

	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return fmt.Errorf("invalid event row: %w", err)
		}
	}

	var sb strings.Builder
	sb.WriteString(`
	INSERT INTO calendar_events (
		ws_id, google_event_id, google_calendar_id, title,
		description, location, start_at, end_at, color, locked
	) VALUES `)

	args := make([]interface{}, 0, len(rows)*10)
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		locked := 0
		if row.Locked {
			locked = 1
		}
		args = append(args,
			row.WSID,
			row.GoogleEventID,
			row.GoogleCalendarID,
			row.Title,
			row.Description,
			row.Location,
			row.StartAt,
			row.EndAt,
			string(row.Color),
			locked,
		)
	}

	sb.WriteString(`
	ON CONFLICT(ws_id, google_event_id) DO UPDATE SET
		google_calendar_id = excluded.google_calendar_id,
		title = excluded.title,
		description = excluded.description,
		location = excluded.location,
		start_at = excluded.start_at,
		end_at = excluded.end_at,
		color = excluded.color,
		locked = excluded.locked
	`)

	if _, err := db.conn.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to upsert events: %w", err)
	}

	return nil
}

// DeleteEvents removes a batch of events in one statement.
//
// The delete predicate is an OR-composed set of
// (ws_id = X AND google_event_id = Y) clauses, one per key. Missing rows
// are ignored (idempotent). Callers bound the batch size (the sync engine
// uses 50).
func (db *DB) DeleteEvents(ctx context.Context, keys []schema.EventKey) error {
	if len(keys) == 0 {
		return nil
	}

	clauses := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys)*2)
	for _, key := range keys {
		clauses = append(clauses, "(ws_id = ? AND google_event_id = ?)")
		args = append(args, key.WSID, key.GoogleEventID)
	}

	query := "DELETE FROM calendar_events WHERE " + strings.Join(clauses, " OR ")

	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete events: %w", err)
	}

	return nil
}

// ListEvents returns all event rows for a workspace ordered by start time.
func (db *DB) ListEvents(ctx context.Context, wsID string) ([]schema.EventRow, error) {
	query := `
	SELECT ws_id, google_event_id, google_calendar_id, title,
	       description, location, start_at, end_at, color, locked
	FROM calendar_events
	WHERE ws_id = ?
	ORDER BY start_at ASC
	`

	rows, err := db.conn.QueryContext(ctx, query, wsID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetEventCount returns the number of event rows for a workspace.
// An empty wsID counts rows across all workspaces.
func (db *DB) GetEventCount(ctx context.Context, wsID string) (int, error) {
	var (
		count int
		err   error
	)
	if wsID == "" {
		err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendar_events").Scan(&count)
	} else {
		err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendar_events WHERE ws_id = ?", wsID).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get event count: %w", err)
	}
	return count, nil
}

// scanEvents is a helper function to scan multiple event rows from query results.
func scanEvents(rows *sql.Rows) ([]schema.EventRow, error) {
	var events []schema.EventRow

	for rows.Next() {
		var row schema.EventRow
		var color string
		var locked int

		err := rows.Scan(
			&row.WSID,
			&row.GoogleEventID,
			&row.GoogleCalendarID,
			&row.Title,
			&row.Description,
			&row.Location,
			&row.StartAt,
			&row.EndAt,
			&color,
			&locked,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		row.Color = schema.EventColor(color)
		row.Locked = locked != 0

		events = append(events, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}
