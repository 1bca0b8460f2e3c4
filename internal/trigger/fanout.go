package trigger

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/tuturuuu/calsync/internal/schema"
	calsync "github.com/tuturuuu/calsync/internal/sync"
)

// SyncKind selects which orchestrator a fan-out pass runs.
type SyncKind string

const (
	KindFull        SyncKind = "full"
	KindIncremental SyncKind = "incremental"
)

// Workspace outcome statuses.
const (
	StatusTriggered = "triggered"
	StatusFailed    = "failed"
)

// WorkspaceOutcome records one workspace's slot in a fan-out pass.
type WorkspaceOutcome struct {
	WSID   string `json:"ws_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// FanOutResult aggregates one fan-out pass over all syncable workspaces.
type FanOutResult struct {
	TotalWorkspaces int                `json:"total_workspaces"`
	Triggered       int                `json:"triggered"`
	Failed          int                `json:"failed"`
	Results         []WorkspaceOutcome `json:"results"`
}

// WorkspaceSource enumerates workspaces eligible for sync.
// Implemented by *storage.DB.
type WorkspaceSource interface {
	ListSyncableWorkspaces(ctx context.Context) ([]schema.Workspace, error)
}

// FanOut triggers isolated per-workspace sync units.
//
// One workspace's failure is recorded in its own result slot and never
// prevents triggering the next workspace; only a failure to enumerate the
// workspace list propagates as an error. Workspaces run in enumeration
// order with no priority applied.
type FanOut struct {
	workspaces WorkspaceSource
	syncer     calsync.Syncer
	limiter    *KeyedLimiter
	logger     *log.Logger
}

// NewFanOut creates a fan-out runner. If limiter is nil a fresh one is
// created; if logger is nil a default stderr logger is used.
func NewFanOut(workspaces WorkspaceSource, syncer calsync.Syncer, limiter *KeyedLimiter, logger *log.Logger) *FanOut {
	if limiter == nil {
		limiter = NewKeyedLimiter()
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[fanout] ", log.LstdFlags)
	}
	return &FanOut{
		workspaces: workspaces,
		syncer:     syncer,
		limiter:    limiter,
		logger:     logger,
	}
}

// ConcurrencyKey derives the serialization key for one workspace's sync.
// Two runs sharing a key queue rather than race.
func ConcurrencyKey(kind SyncKind, wsID string) string {
	return fmt.Sprintf("google-calendar-%s-sync-%s", kind, wsID)
}

// Run performs one fan-out pass of the given kind.
func (f *FanOut) Run(ctx context.Context, kind SyncKind) (*FanOutResult, error) {
	workspaces, err := f.workspaces.ListSyncableWorkspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate workspaces: %w", err)
	}

	result := &FanOutResult{
		TotalWorkspaces: len(workspaces),
		Results:         make([]WorkspaceOutcome, 0, len(workspaces)),
	}

	for _, ws := range workspaces {
		outcome := f.runOne(ctx, kind, ws)
		if outcome.Status == StatusTriggered {
			result.Triggered++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, outcome)
	}

	f.logger.Printf("Fan-out (%s) complete: %d workspaces, %d triggered, %d failed",
		kind, result.TotalWorkspaces, result.Triggered, result.Failed)

	return result, nil
}

// runOne runs a single workspace's sync under its concurrency key,
// converting any failure into that workspace's outcome slot.
func (f *FanOut) runOne(ctx context.Context, kind SyncKind, ws schema.Workspace) WorkspaceOutcome {
	key := ConcurrencyKey(kind, ws.WSID)

	err := f.limiter.Do(key, func() error {
		var err error
		switch kind {
		case KindFull:
			_, err = f.syncer.FullSync(ctx, ws)
		case KindIncremental:
			_, err = f.syncer.IncrementalSync(ctx, ws)
		default:
			err = fmt.Errorf("unknown sync kind: %s", kind)
		}
		return err
	})
	if err != nil {
		f.logger.Printf("Sync (%s) failed for workspace %s: %v", kind, ws.WSID, err)
		return WorkspaceOutcome{WSID: ws.WSID, Status: StatusFailed, Error: err.Error()}
	}

	return WorkspaceOutcome{WSID: ws.WSID, Status: StatusTriggered}
}
