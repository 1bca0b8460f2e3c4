package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tuturuuu/calsync/internal/gcal"
	"github.com/tuturuuu/calsync/internal/schema"
	"github.com/tuturuuu/calsync/internal/storage"
)

// fakeLister scripts a sequence of pages, recording the params of each
// fetch.
type fakeLister struct {
	pages []*gcal.EventPage
	err   error
	calls []gcal.ListParams
}

func (l *fakeLister) ListEvents(ctx context.Context, params gcal.ListParams) (*gcal.EventPage, error) {
	l.calls = append(l.calls, params)
	if l.err != nil {
		return nil, l.err
	}
	idx := len(l.calls) - 1
	if idx >= len(l.pages) {
		return &gcal.EventPage{}, nil
	}
	return l.pages[idx], nil
}

// fakeProvider hands out one fixed lister regardless of credentials.
type fakeProvider struct {
	lister *fakeLister
	err    error
}

func (p *fakeProvider) ListerFor(ctx context.Context, accessToken, refreshToken string) (gcal.EventLister, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.lister, nil
}

// memoryTokenBackend keeps cursors in a map behind the atomic-op contract.
type memoryTokenBackend struct {
	tokens    map[string]string
	failOps   map[string]bool
	updateLog []string
}

func newMemoryTokenBackend() *memoryTokenBackend {
	return &memoryTokenBackend{
		tokens:  make(map[string]string),
		failOps: make(map[string]bool),
	}
}

func (b *memoryTokenBackend) SyncTokenOp(ctx context.Context, wsID, calendarID, op, token string) ([]storage.TokenOpResult, error) {
	if b.failOps[op] {
		return nil, errors.New("backend unavailable")
	}

	key := wsID + "/" + calendarID
	switch op {
	case storage.TokenOpGet:
		tok, ok := b.tokens[key]
		if !ok {
			return nil, nil
		}
		return []storage.TokenOpResult{{Success: true, SyncToken: tok}}, nil
	case storage.TokenOpUpdate:
		b.tokens[key] = token
		b.updateLog = append(b.updateLog, token)
		return []storage.TokenOpResult{{Success: true, SyncToken: token}}, nil
	case storage.TokenOpClear:
		delete(b.tokens, key)
		return []storage.TokenOpResult{{Success: true}}, nil
	}
	return []storage.TokenOpResult{{Success: false, Message: "unknown operation"}}, nil
}

func newTestSyncer(t *testing.T, provider gcal.ListerProvider, store EventStore, backend TokenBackend) Syncer {
	t.Helper()
	engine := NewEngine(store, nil, nil)
	tokens := NewTokenStore(backend, nil)
	return New(provider, engine, tokens, nil)
}

func testWorkspace() schema.Workspace {
	return schema.Workspace{WSID: "w1", AccessToken: "at", RefreshToken: "rt"}
}

func TestFullSync_WindowAndParams(t *testing.T) {
	lister := &fakeLister{pages: []*gcal.EventPage{
		{Items: makeEvents(2), NextSyncToken: "tok-1"},
	}}
	backend := newMemoryTokenBackend()
	syncer := newTestSyncer(t, &fakeProvider{lister: lister}, &recordingStore{}, backend)

	before := time.Now().UTC()
	result, err := syncer.FullSync(context.Background(), testWorkspace())
	if err != nil {
		t.Fatalf("FullSync() failed: %v", err)
	}
	if !result.Success || result.EventsSynced != 2 {
		t.Errorf("result = %+v, want 2 events synced", result)
	}

	if len(lister.calls) != 1 {
		t.Fatalf("fetch calls = %d, want 1 (no pagination on full sync)", len(lister.calls))
	}

	p := lister.calls[0]
	if !p.ShowDeleted || !p.SingleEvents {
		t.Error("full sync must request showDeleted and singleEvents")
	}
	if p.MaxResults != 2500 {
		t.Errorf("MaxResults = %d, want 2500", p.MaxResults)
	}
	if p.SyncToken != "" {
		t.Errorf("SyncToken = %q, want empty on full sync", p.SyncToken)
	}

	// Window: roughly 90 days back, 180 days forward.
	wantMin := before.AddDate(0, 0, -90)
	if p.TimeMin.Before(wantMin.Add(-time.Minute)) || p.TimeMin.After(wantMin.Add(time.Minute)) {
		t.Errorf("TimeMin = %v, want ~%v", p.TimeMin, wantMin)
	}
	wantMax := before.AddDate(0, 0, 180)
	if p.TimeMax.Before(wantMax.Add(-time.Minute)) || p.TimeMax.After(wantMax.Add(time.Minute)) {
		t.Errorf("TimeMax = %v, want ~%v", p.TimeMax, wantMax)
	}

	// Fresh token seeded
	if got := backend.tokens["w1/primary"]; got != "tok-1" {
		t.Errorf("stored token = %q, want %q", got, "tok-1")
	}
}

// A full sync that gets no continuation token back still succeeds; the
// absence is logged, not an error.
func TestFullSync_MissingTokenTolerated(t *testing.T) {
	lister := &fakeLister{pages: []*gcal.EventPage{{Items: makeEvents(1)}}}
	backend := newMemoryTokenBackend()
	syncer := newTestSyncer(t, &fakeProvider{lister: lister}, &recordingStore{}, backend)

	result, err := syncer.FullSync(context.Background(), testWorkspace())
	if err != nil {
		t.Fatalf("FullSync() failed: %v", err)
	}
	if !result.Success {
		t.Errorf("result = %+v, want success", result)
	}
	if len(backend.updateLog) != 0 {
		t.Errorf("token updates = %v, want none", backend.updateLog)
	}
}

func TestFullSync_FetchErrorPropagates(t *testing.T) {
	lister := &fakeLister{err: errors.New("rate limited")}
	syncer := newTestSyncer(t, &fakeProvider{lister: lister}, &recordingStore{}, newMemoryTokenBackend())

	if _, err := syncer.FullSync(context.Background(), testWorkspace()); err == nil {
		t.Fatal("FullSync() succeeded, want error")
	}
}

func TestFullSync_EngineFailurePropagates(t *testing.T) {
	lister := &fakeLister{pages: []*gcal.EventPage{{Items: makeEvents(5), NextSyncToken: "tok-1"}}}
	store := &recordingStore{failUpsertBatch: 1}
	backend := newMemoryTokenBackend()
	syncer := newTestSyncer(t, &fakeProvider{lister: lister}, store, backend)

	result, err := syncer.FullSync(context.Background(), testWorkspace())
	if err == nil {
		t.Fatal("FullSync() succeeded, want error")
	}
	if result == nil || result.Success {
		t.Errorf("result = %+v, want failed result", result)
	}

	// The token must not advance past a failed sync.
	if len(backend.updateLog) != 0 {
		t.Errorf("token updates = %v, want none after engine failure", backend.updateLog)
	}
}

// Incremental sync with a stored cursor: two pages, where only the second
// carries the fresh cursor. Exactly 2 fetches, events accumulated across
// both, and "tok-2" persisted.
func TestIncrementalSync_Pagination(t *testing.T) {
	lister := &fakeLister{pages: []*gcal.EventPage{
		{Items: makeEvents(2), NextPageToken: "page-2"},
		{Items: makeEvents(1), NextSyncToken: "tok-2"},
	}}
	backend := newMemoryTokenBackend()
	backend.tokens["w1/primary"] = "tok-1"
	store := &recordingStore{}
	syncer := newTestSyncer(t, &fakeProvider{lister: lister}, store, backend)

	result, err := syncer.IncrementalSync(context.Background(), testWorkspace())
	if err != nil {
		t.Fatalf("IncrementalSync() failed: %v", err)
	}

	if len(lister.calls) != 2 {
		t.Fatalf("fetch calls = %d, want 2", len(lister.calls))
	}
	if lister.calls[0].SyncToken != "tok-1" {
		t.Errorf("first fetch SyncToken = %q, want %q", lister.calls[0].SyncToken, "tok-1")
	}
	if lister.calls[1].PageToken != "page-2" {
		t.Errorf("second fetch PageToken = %q, want %q", lister.calls[1].PageToken, "page-2")
	}

	if result.EventsSynced != 3 {
		t.Errorf("EventsSynced = %d, want 3 (accumulated across pages)", result.EventsSynced)
	}

	if got := backend.tokens["w1/primary"]; got != "tok-2" {
		t.Errorf("stored token = %q, want %q", got, "tok-2")
	}
}

// The page loop keeps the most recent non-empty cursor: a later page
// without one must not wipe an earlier page's token.
func TestIncrementalSync_TokenCarryForward(t *testing.T) {
	lister := &fakeLister{pages: []*gcal.EventPage{
		{Items: makeEvents(1), NextSyncToken: "tok-early", NextPageToken: "page-2"},
		{Items: makeEvents(1), NextPageToken: "page-3"},
		{Items: makeEvents(1)},
	}}
	backend := newMemoryTokenBackend()
	syncer := newTestSyncer(t, &fakeProvider{lister: lister}, &recordingStore{}, backend)

	if _, err := syncer.IncrementalSync(context.Background(), testWorkspace()); err != nil {
		t.Fatalf("IncrementalSync() failed: %v", err)
	}

	if got := backend.tokens["w1/primary"]; got != "tok-early" {
		t.Errorf("stored token = %q, want carried-forward %q", got, "tok-early")
	}
}

// The loop always fetches at least once, even with no stored cursor and
// nothing to sync.
func TestIncrementalSync_AlwaysFetchesOnce(t *testing.T) {
	lister := &fakeLister{pages: []*gcal.EventPage{{}}}
	store := &recordingStore{}
	syncer := newTestSyncer(t, &fakeProvider{lister: lister}, store, newMemoryTokenBackend())

	result, err := syncer.IncrementalSync(context.Background(), testWorkspace())
	if err != nil {
		t.Fatalf("IncrementalSync() failed: %v", err)
	}
	if len(lister.calls) != 1 {
		t.Errorf("fetch calls = %d, want 1", len(lister.calls))
	}
	if !result.Success {
		t.Errorf("result = %+v, want success", result)
	}
	// No events, no writes
	if len(store.upsertBatches) != 0 || len(store.deleteBatches) != 0 {
		t.Error("expected no storage writes for an empty delta")
	}
}

// A cursor read failure is treated as "no cursor, larger fetch", not an
// abort.
func TestIncrementalSync_TokenGetFailureTolerated(t *testing.T) {
	lister := &fakeLister{pages: []*gcal.EventPage{{Items: makeEvents(1)}}}
	backend := newMemoryTokenBackend()
	backend.failOps[storage.TokenOpGet] = true
	syncer := newTestSyncer(t, &fakeProvider{lister: lister}, &recordingStore{}, backend)

	result, err := syncer.IncrementalSync(context.Background(), testWorkspace())
	if err != nil {
		t.Fatalf("IncrementalSync() failed: %v", err)
	}
	if !result.Success {
		t.Errorf("result = %+v, want success", result)
	}
	if lister.calls[0].SyncToken != "" {
		t.Errorf("SyncToken = %q, want empty after failed cursor read", lister.calls[0].SyncToken)
	}
}

// A cursor write failure aborts: claiming success without persisting the
// new cursor would re-deliver or lose events on the next run.
func TestIncrementalSync_TokenUpdateFailurePropagates(t *testing.T) {
	lister := &fakeLister{pages: []*gcal.EventPage{{Items: makeEvents(1), NextSyncToken: "tok-9"}}}
	backend := newMemoryTokenBackend()
	backend.failOps[storage.TokenOpUpdate] = true
	syncer := newTestSyncer(t, &fakeProvider{lister: lister}, &recordingStore{}, backend)

	if _, err := syncer.IncrementalSync(context.Background(), testWorkspace()); err == nil {
		t.Fatal("IncrementalSync() succeeded, want error on cursor write failure")
	}
}

func TestIncrementalSync_ProviderClientError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("bad credentials")}
	syncer := newTestSyncer(t, provider, &recordingStore{}, newMemoryTokenBackend())

	if _, err := syncer.IncrementalSync(context.Background(), testWorkspace()); err == nil {
		t.Fatal("IncrementalSync() succeeded, want error")
	}
}
