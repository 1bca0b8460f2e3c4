package sync

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tuturuuu/calsync/internal/schema"
	"github.com/tuturuuu/calsync/internal/storage"
)

// TokenBackend is the single atomic primitive behind all cursor state.
// Implemented by *storage.DB.
type TokenBackend interface {
	SyncTokenOp(ctx context.Context, wsID, calendarID, op, token string) ([]storage.TokenOpResult, error)
}

// TokenStore tracks per-(workspace, calendar) continuation cursors.
//
// Every operation goes through one atomic backend call parameterized by an
// operation discriminator; the store never reads a token and writes it
// back in two calls.
type TokenStore struct {
	backend TokenBackend
	logger  *log.Logger
}

// NewTokenStore creates a TokenStore. If logger is nil a default stderr
// logger is used.
func NewTokenStore(backend TokenBackend, logger *log.Logger) *TokenStore {
	if logger == nil {
		logger = defaultLogger()
	}
	return &TokenStore{backend: backend, logger: logger}
}

// Get returns the stored continuation cursor, or "" when none exists.
//
// Get never fails: backend errors, unsuccessful result rows, and empty
// result sets all collapse to "no cursor". Inside a sync loop that means
// "do a larger fetch", which is always safe.
func (s *TokenStore) Get(ctx context.Context, wsID, calendarID string) string {
	if calendarID == "" {
		calendarID = schema.DefaultCalendarID
	}

	results, err := s.backend.SyncTokenOp(ctx, wsID, calendarID, storage.TokenOpGet, "")
	if err != nil {
		s.logger.Printf("Warning: failed to read sync token for %s/%s: %v", wsID, calendarID, err)
		return ""
	}
	if len(results) == 0 || !results[0].Success {
		return ""
	}
	return results[0].SyncToken
}

// Update persists a new continuation cursor.
//
// Unlike Get, failures propagate: a sync that cannot persist its new
// cursor must not claim success, or the next run will not know where to
// resume.
func (s *TokenStore) Update(ctx context.Context, wsID, token, calendarID string) error {
	if calendarID == "" {
		calendarID = schema.DefaultCalendarID
	}

	results, err := s.backend.SyncTokenOp(ctx, wsID, calendarID, storage.TokenOpUpdate, token)
	if err != nil {
		return fmt.Errorf("failed to store sync token: %w", err)
	}
	return checkTokenOpResults(results, "failed to store sync token")
}

// Clear removes the stored cursor, forcing the next sync to fall back to a
// full sync. Same failure contract as Update.
func (s *TokenStore) Clear(ctx context.Context, wsID, calendarID string) error {
	if calendarID == "" {
		calendarID = schema.DefaultCalendarID
	}

	results, err := s.backend.SyncTokenOp(ctx, wsID, calendarID, storage.TokenOpClear, "")
	if err != nil {
		return fmt.Errorf("failed to clear sync token: %w", err)
	}
	return checkTokenOpResults(results, "failed to clear sync token")
}

// checkTokenOpResults converts a status-row response into an error,
// preferring the backend-supplied message over the generic fallback.
func checkTokenOpResults(results []storage.TokenOpResult, generic string) error {
	if len(results) == 0 {
		return errors.New(generic)
	}
	if !results[0].Success {
		if results[0].Message != "" {
			return errors.New(results[0].Message)
		}
		return errors.New(generic)
	}
	return nil
}
