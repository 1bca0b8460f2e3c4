// Package sync implements Google Calendar synchronization for workspaces:
// event formatting, batched storage writes, continuation-cursor management,
// and the full and incremental sync orchestrators.
package sync

import (
	"context"

	"github.com/tuturuuu/calsync/internal/schema"
)

// SyncResult summarizes one sync invocation for one workspace.
type SyncResult struct {
	Success       bool   `json:"success"`
	EventsSynced  int    `json:"events_synced"`
	EventsDeleted int    `json:"events_deleted"`
	Error         string `json:"error,omitempty"`
}

// Syncer runs calendar syncs for individual workspaces.
//
// Both sync kinds are designed to be invoked by an external scheduler with
// a per-workspace concurrency limit of one: two syncs for the same
// workspace queue rather than race. Across workspaces there is no ordering
// guarantee.
//
// A sync that fails mid-way leaves storage in a superset state (stale rows
// may remain) until the next successful sync reconciles them; no
// transaction spans a whole sync. The continuation cursor is never
// advanced past a failed sync, so no event window is silently skipped.
type Syncer interface {
	// FullSync fetches all events in a bounded window around now, ignoring
	// any stored cursor, writes them through the batch engine, and seeds a
	// fresh continuation cursor if the provider returns one.
	//
	// Absence of a returned cursor is tolerated (logged, not an error).
	FullSync(ctx context.Context, ws schema.Workspace) (*SyncResult, error)

	// IncrementalSync resolves the stored continuation cursor (absence is
	// valid) and pages through provider deltas until exhausted, then
	// writes accumulated events and persists the newest cursor observed.
	//
	// Failure to persist the new cursor aborts with an error: an
	// incremental sync that cannot record where to resume must not claim
	// success, or the next run would re-deliver or lose events.
	IncrementalSync(ctx context.Context, ws schema.Workspace) (*SyncResult, error)
}
