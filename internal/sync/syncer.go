package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tuturuuu/calsync/internal/gcal"
	"github.com/tuturuuu/calsync/internal/schema"
)

// Full-sync window: 90 days back through 180 days forward of now.
const (
	fullSyncLookbackDays  = 90
	fullSyncLookaheadDays = 180
)

// maxResultsPerFetch is the provider-side result cap per request. The full
// sync performs a single capped fetch with no pagination loop; a workspace
// with more events than the cap in the window is truncated for that pass.
const maxResultsPerFetch = 2500

// syncer implements the Syncer interface.
type syncer struct {
	provider gcal.ListerProvider
	engine   *Engine
	tokens   *TokenStore
	logger   *log.Logger
	now      func() time.Time
}

// New creates a new Syncer instance.
//
// If logger is nil, a default logger writing to stderr is used.
//
// Example:
//
//	db, err := storage.Open(".calsync/calsync.db")
//	if err != nil {
//	    return err
//	}
//	if err := db.InitSchema(); err != nil {
//	    return err
//	}
//	engine := sync.NewEngine(db, nil, nil)
//	tokens := sync.NewTokenStore(db, nil)
//	syncer := sync.New(provider, engine, tokens, nil)
func New(provider gcal.ListerProvider, engine *Engine, tokens *TokenStore, logger *log.Logger) Syncer {
	if logger == nil {
		logger = defaultLogger()
	}
	return &syncer{
		provider: provider,
		engine:   engine,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

func defaultLogger() *log.Logger {
	return log.New(os.Stderr, "[sync] ", log.LstdFlags)
}

// FullSync implements Syncer.FullSync.
func (s *syncer) FullSync(ctx context.Context, ws schema.Workspace) (*SyncResult, error) {
	lister, err := s.provider.ListerFor(ctx, ws.AccessToken, ws.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	now := s.now().UTC()
	page, err := lister.ListEvents(ctx, gcal.ListParams{
		CalendarID:   schema.DefaultCalendarID,
		TimeMin:      now.AddDate(0, 0, -fullSyncLookbackDays),
		TimeMax:      now.AddDate(0, 0, fullSyncLookaheadDays),
		ShowDeleted:  true,
		SingleEvents: true,
		MaxResults:   maxResultsPerFetch,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	s.logger.Printf("Full sync fetched %d events for workspace %s", len(page.Items), ws.WSID)

	result := s.engine.SyncEvents(ctx, ws.WSID, schema.DefaultCalendarID, page.Items)
	if !result.Success {
		return result, errors.New(result.Error)
	}

	if page.NextSyncToken != "" {
		if err := s.tokens.Update(ctx, ws.WSID, page.NextSyncToken, schema.DefaultCalendarID); err != nil {
			return result, err
		}
		s.logger.Printf("Seeded sync token for workspace %s", ws.WSID)
	} else {
		s.logger.Printf("No sync token returned for workspace %s; next incremental sync will fetch without a cursor", ws.WSID)
	}

	return result, nil
}

// IncrementalSync implements Syncer.IncrementalSync.
func (s *syncer) IncrementalSync(ctx context.Context, ws schema.Workspace) (*SyncResult, error) {
	lister, err := s.provider.ListerFor(ctx, ws.AccessToken, ws.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	// Absence of a cursor is valid: fetch whatever the provider is
	// willing to give without one.
	syncToken := s.tokens.Get(ctx, ws.WSID, schema.DefaultCalendarID)

	var (
		events       []gcal.ExternalEvent
		newSyncToken string
		pageToken    string
		pages        int
	)

	// Always fetch at least once: the presence or absence of a returned
	// sync token is itself state worth persisting.
	for {
		page, err := lister.ListEvents(ctx, gcal.ListParams{
			CalendarID:   schema.DefaultCalendarID,
			SyncToken:    syncToken,
			ShowDeleted:  true,
			SingleEvents: true,
			MaxResults:   maxResultsPerFetch,
			PageToken:    pageToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch events: %w", err)
		}

		pages++
		events = append(events, page.Items...)

		// Keep the most recent non-empty token; a later page returning
		// none must not wipe it, or the next run would be forced into a
		// full resync.
		if page.NextSyncToken != "" {
			newSyncToken = page.NextSyncToken
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	s.logger.Printf("Incremental sync fetched %d events over %d pages for workspace %s", len(events), pages, ws.WSID)

	result := &SyncResult{Success: true}
	if len(events) > 0 {
		result = s.engine.SyncEvents(ctx, ws.WSID, schema.DefaultCalendarID, events)
		if !result.Success {
			return result, errors.New(result.Error)
		}
	}

	if newSyncToken != "" {
		if err := s.tokens.Update(ctx, ws.WSID, newSyncToken, schema.DefaultCalendarID); err != nil {
			return result, err
		}
	}

	return result, nil
}
