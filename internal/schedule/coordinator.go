// Package schedule implements the unified schedule coordinator: it fans an
// HTTP call out to the per-workspace scheduling endpoint that places habit
// and task events with bump/reschedule rules.
package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tuturuuu/calsync/internal/trigger"
)

// SecretHeader carries the shared secret authenticating internal trigger
// calls to the scheduling endpoint.
const SecretHeader = "x-internal-trigger-secret-key"

// ErrSecretNotSet is the precondition failure raised before any network
// call when the shared secret is absent from the runtime environment.
var ErrSecretNotSet = errors.New("INTERNAL_TRIGGER_SECRET_KEY is not set")

// defaultWindowDays is the scheduling window applied when a caller does
// not specify one.
const defaultWindowDays = 30

// Options configures one scheduling call.
type Options struct {
	WindowDays      int  `json:"windowDays"`
	ForceReschedule bool `json:"forceReschedule"`
}

// DefaultCronOptions returns the conservative options used on scheduled
// runs: already-placed events are not disturbed.
func DefaultCronOptions() Options {
	return Options{WindowDays: defaultWindowDays, ForceReschedule: false}
}

// DefaultManualOptions returns the options used on operator-invoked runs:
// an operator triggering this explicitly wants a full recompute.
func DefaultManualOptions() Options {
	return Options{WindowDays: defaultWindowDays, ForceReschedule: true}
}

// RunSummary is the scheduling endpoint's per-invocation summary.
type RunSummary struct {
	HabitsScheduled   int `json:"habitsScheduled"`
	TasksScheduled    int `json:"tasksScheduled"`
	EventsCreated     int `json:"eventsCreated"`
	BumpedHabits      int `json:"bumpedHabits"`
	RescheduledHabits int `json:"rescheduledHabits"`
	WindowDays        int `json:"windowDays"`
}

// RunResponse is the scheduling endpoint's response body. Ephemeral:
// returned to the caller, never persisted here.
type RunResponse struct {
	Summary  RunSummary `json:"summary"`
	Warnings []string   `json:"warnings"`
}

// WorkspaceOutcome records one workspace's slot in a coordinator pass.
type WorkspaceOutcome struct {
	WSID     string       `json:"ws_id"`
	Status   string       `json:"status"`
	Error    string       `json:"error,omitempty"`
	Response *RunResponse `json:"response,omitempty"`
}

// AggregateResult reports one coordinator pass over all workspaces.
type AggregateResult struct {
	TotalWorkspaces int                `json:"total_workspaces"`
	Triggered       int                `json:"triggered"`
	Failed          int                `json:"failed"`
	Results         []WorkspaceOutcome `json:"results"`
}

// Coordinator calls the scheduling endpoint per workspace with isolated
// per-workspace failures, mirroring the sync fan-out's contract.
type Coordinator struct {
	baseURL    string
	secret     string
	workspaces trigger.WorkspaceSource
	client     *http.Client
	logger     *log.Logger
}

// NewCoordinator creates a schedule coordinator.
//
// baseURL is the deployment root the scheduling endpoint lives under
// (production: https://tuturuuu.com, development: http://localhost:3000).
// secret may be empty; every call then fails the precondition check
// before touching the network.
func NewCoordinator(baseURL, secret string, workspaces trigger.WorkspaceSource, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(os.Stderr, "[schedule] ", log.LstdFlags)
	}
	return &Coordinator{
		baseURL:    baseURL,
		secret:     secret,
		workspaces: workspaces,
		client:     &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// ScheduleWorkspace calls the scheduling endpoint for one workspace.
func (c *Coordinator) ScheduleWorkspace(ctx context.Context, wsID string, opts Options) (*RunResponse, error) {
	if c.secret == "" {
		return nil, ErrSecretNotSet
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = defaultWindowDays
	}

	url := fmt.Sprintf("%s/api/v1/workspaces/%s/calendar/schedule", c.baseURL, wsID)

	body, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schedule options: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SecretHeader, c.secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call scheduling endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Embed both status code and body text to aid operator diagnosis.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("scheduling endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	var run RunResponse
	if err := json.Unmarshal(respBody, &run); err != nil {
		return nil, fmt.Errorf("failed to decode schedule response: %w", err)
	}

	return &run, nil
}

// ScheduleWorkspaceLegacy calls the legacy auto-schedule endpoint for one
// workspace. The response JSON is passed through unopinionated.
func (c *Coordinator) ScheduleWorkspaceLegacy(ctx context.Context, wsID string) (json.RawMessage, error) {
	if c.secret == "" {
		return nil, ErrSecretNotSet
	}

	url := fmt.Sprintf("%s/api/%s/calendar/auto-schedule?stream=false", c.baseURL, wsID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(SecretHeader, c.secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call auto-schedule endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("auto-schedule endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// RunAll schedules every eligible workspace with the given options.
//
// Per-workspace failures land in that workspace's result slot; only an
// enumeration failure propagates.
func (c *Coordinator) RunAll(ctx context.Context, opts Options) (*AggregateResult, error) {
	workspaces, err := c.workspaces.ListSyncableWorkspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate workspaces: %w", err)
	}

	result := &AggregateResult{
		TotalWorkspaces: len(workspaces),
		Results:         make([]WorkspaceOutcome, 0, len(workspaces)),
	}

	for _, ws := range workspaces {
		run, err := c.ScheduleWorkspace(ctx, ws.WSID, opts)
		if err != nil {
			c.logger.Printf("Schedule failed for workspace %s: %v", ws.WSID, err)
			result.Failed++
			result.Results = append(result.Results, WorkspaceOutcome{
				WSID:   ws.WSID,
				Status: trigger.StatusFailed,
				Error:  err.Error(),
			})
			continue
		}

		result.Triggered++
		result.Results = append(result.Results, WorkspaceOutcome{
			WSID:     ws.WSID,
			Status:   trigger.StatusTriggered,
			Response: run,
		})
	}

	c.logger.Printf("Schedule pass complete: %d workspaces, %d triggered, %d failed",
		result.TotalWorkspaces, result.Triggered, result.Failed)

	return result, nil
}
