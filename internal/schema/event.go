// Package schema provides data structures for synced calendar state.
package schema

import (
	"fmt"
	"time"
)

// EventColor is the closed set of colors an internal calendar event can carry.
// Provider color codes are mapped onto this set by the sync formatter.
type EventColor string

const (
	ColorRed    EventColor = "RED"
	ColorGreen  EventColor = "GREEN"
	ColorGray   EventColor = "GRAY"
	ColorPink   EventColor = "PINK"
	ColorYellow EventColor = "YELLOW"
	ColorOrange EventColor = "ORANGE"
	ColorCyan   EventColor = "CYAN"
	ColorPurple EventColor = "PURPLE"
	ColorIndigo EventColor = "INDIGO"
	ColorBlue   EventColor = "BLUE"
)

// DefaultCalendarID is the sentinel calendar identifier used when a caller
// does not name a specific provider calendar.
const DefaultCalendarID = "primary"

// UntitledEventTitle is the placeholder used when a provider event carries
// no summary.
const UntitledEventTitle = "Untitled Event"

// EventRow represents one provider-sourced event as stored in the
// calendar_events table. The natural key is (ws_id, google_event_id):
// two syncs of the same provider event must collapse to one row.
type EventRow struct {
	WSID             string     `json:"ws_id"`
	GoogleEventID    string     `json:"google_event_id"`
	GoogleCalendarID string     `json:"google_calendar_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Location         string     `json:"location"`
	StartAt          string     `json:"start_at"`
	EndAt            string     `json:"end_at"`
	Color            EventColor `json:"color"`

	// Locked is always true for provider-sourced rows: user edits must not
	// diverge from the provider's copy.
	Locked bool `json:"locked"`
}

// Validate checks that the row carries the fields storage requires.
// GoogleEventID may be empty: cancelled provider events occasionally arrive
// without an identifier and are stored as the workspace's (ws_id, "") row.
func (e *EventRow) Validate() error {
	if e.WSID == "" {
		return fmt.Errorf("ws_id is required")
	}
	if e.GoogleCalendarID == "" {
		return fmt.Errorf("google_calendar_id is required")
	}
	return nil
}

// EventKey identifies one provider event within one workspace. Delete
// batches are expressed as lists of these keys.
type EventKey struct {
	WSID          string
	GoogleEventID string
}

// Workspace holds one tenant's sync credential. The credential lifecycle is
// owned by the OAuth flow; this subsystem reads it to decide sync
// eligibility (non-empty access token) and to construct provider clients.
type Workspace struct {
	WSID         string     `json:"ws_id" yaml:"ws_id"`
	AccessToken  string     `json:"access_token" yaml:"access_token"`
	RefreshToken string     `json:"refresh_token" yaml:"refresh_token"`
	LastUpsertAt *time.Time `json:"last_upsert_at,omitempty" yaml:"-"`
}

// Syncable reports whether this workspace is eligible for calendar sync.
func (w *Workspace) Syncable() bool {
	return w.AccessToken != ""
}

// Validate checks that the workspace record is well-formed.
func (w *Workspace) Validate() error {
	if w.WSID == "" {
		return fmt.Errorf("ws_id is required")
	}
	return nil
}
