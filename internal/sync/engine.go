package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tuturuuu/calsync/internal/gcal"
	"github.com/tuturuuu/calsync/internal/schema"
)

// Batch sizes for storage writes. Upserts carry full rows and are chunked
// at 100; deletes carry only keys but expand into OR-composed predicates,
// so they are chunked tighter at 50.
const (
	upsertBatchSize = 100
	deleteBatchSize = 50
)

// EventStore is the storage surface the batch engine writes through.
// Implemented by *storage.DB.
type EventStore interface {
	UpsertEvents(ctx context.Context, rows []schema.EventRow) error
	DeleteEvents(ctx context.Context, keys []schema.EventKey) error
	TouchLastUpsert(ctx context.Context, wsID string, at time.Time) error
}

// Engine partitions provider events into upsert and delete sets and
// commits both sides to storage in bounded sequential batches.
type Engine struct {
	store      EventStore
	normalizer AllDayNormalizer
	logger     *log.Logger
	now        func() time.Time
}

// NewEngine creates a batch engine. If normalizer is nil the default UTC
// all-day normalizer is used; if logger is nil a default stderr logger is
// used.
func NewEngine(store EventStore, normalizer AllDayNormalizer, logger *log.Logger) *Engine {
	if normalizer == nil {
		normalizer = NewUTCNormalizer()
	}
	if logger == nil {
		logger = defaultLogger()
	}
	return &Engine{
		store:      store,
		normalizer: normalizer,
		logger:     logger,
		now:        time.Now,
	}
}

// SyncEvents writes one workspace's provider events to storage.
//
// An event routes to the delete set only when its status is the
// cancellation sentinel AND it carries a non-empty identifier; a cancelled
// event without an identifier is treated as an upsert candidate. Batches
// execute strictly sequentially; the first failed batch aborts the
// remaining ones, leaving earlier batches committed (reconciled by the
// next successful sync).
//
// All failures are folded into the returned result; this never panics past
// its own boundary.
func (e *Engine) SyncEvents(ctx context.Context, wsID, calendarID string, events []gcal.ExternalEvent) *SyncResult {
	var upserts []schema.EventRow
	var deletes []schema.EventKey

	for _, ev := range events {
		if ev.Cancelled() && ev.ID != "" {
			deletes = append(deletes, schema.EventKey{WSID: wsID, GoogleEventID: ev.ID})
			continue
		}
		upserts = append(upserts, FormatEvent(ev, wsID, calendarID, e.normalizer))
	}

	for start := 0; start < len(upserts); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(upserts))
		if err := e.store.UpsertEvents(ctx, upserts[start:end]); err != nil {
			e.logger.Printf("Upsert batch %d-%d failed for workspace %s: %v", start, end, wsID, err)
			return &SyncResult{Success: false, Error: fmt.Sprintf("failed to upsert events: %v", err)}
		}
	}

	for start := 0; start < len(deletes); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(deletes))
		if err := e.store.DeleteEvents(ctx, deletes[start:end]); err != nil {
			e.logger.Printf("Delete batch %d-%d failed for workspace %s: %v", start, end, wsID, err)
			return &SyncResult{Success: false, Error: fmt.Sprintf("failed to delete events: %v", err)}
		}
	}

	// Courtesy bookkeeping; a failure here is logged separately and does
	// not fail the sync, since event data is already committed.
	if len(upserts) > 0 {
		if err := e.store.TouchLastUpsert(ctx, wsID, e.now().UTC()); err != nil {
			e.logger.Printf("Warning: failed to record last upsert time for workspace %s: %v", wsID, err)
		}
	}

	e.logger.Printf("Synced workspace %s: %d upserted, %d deleted", wsID, len(upserts), len(deletes))

	return &SyncResult{
		Success:       true,
		EventsSynced:  len(upserts),
		EventsDeleted: len(deletes),
	}
}
