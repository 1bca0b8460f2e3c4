// Package gcal wraps the Google Calendar API behind a narrow interface.
//
// Orchestration code depends only on EventLister, so the concrete vendor
// SDK can be swapped or faked without touching sync logic. The types here
// mirror the subset of the provider's events.list contract this subsystem
// actually consumes.
package gcal

import (
	"context"
	"time"
)

// EventStatusCancelled is the provider's cancellation sentinel. An event
// carrying this status in an incremental sync represents a deletion.
const EventStatusCancelled = "cancelled"

// EventTime is the provider's start/end representation: either a precise
// timestamp or an all-day date, never both meaningful at once.
type EventTime struct {
	// DateTime is an RFC3339 timestamp for timed events.
	DateTime string `json:"dateTime,omitempty"`

	// Date is a YYYY-MM-DD date for all-day events.
	Date string `json:"date,omitempty"`
}

// ExternalEvent is one event as returned by the provider. Read-only to
// this subsystem.
type ExternalEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	ColorID     string    `json:"colorId,omitempty"`
	Status      string    `json:"status,omitempty"`
}

// Cancelled reports whether the provider marked this event as cancelled.
func (e *ExternalEvent) Cancelled() bool {
	return e.Status == EventStatusCancelled
}

// ListParams configures one events.list call.
//
// When SyncToken is set, the provider rejects time bounds; callers set
// either SyncToken or TimeMin/TimeMax, never both.
type ListParams struct {
	CalendarID   string
	SyncToken    string
	TimeMin      time.Time
	TimeMax      time.Time
	ShowDeleted  bool
	SingleEvents bool
	MaxResults   int64
	PageToken    string
}

// EventPage is one page of an events.list response.
type EventPage struct {
	Items []ExternalEvent

	// NextSyncToken is the fresh continuation cursor, present only on the
	// final page of a listing.
	NextSyncToken string

	// NextPageToken continues the same listing when more pages remain.
	NextPageToken string
}

// EventLister is the narrow provider surface the sync orchestrators use.
type EventLister interface {
	ListEvents(ctx context.Context, params ListParams) (*EventPage, error)
}

// ListerProvider constructs a per-workspace EventLister from that
// workspace's OAuth credential pair.
type ListerProvider interface {
	ListerFor(ctx context.Context, accessToken, refreshToken string) (EventLister, error)
}
