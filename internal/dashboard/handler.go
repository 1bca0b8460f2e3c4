// Package dashboard provides event handling and message formatting for the dashboard.
package dashboard

import (
	"encoding/json"
	"log"
	"time"

	"github.com/tuturuuu/calsync/internal/schedule"
	"github.com/tuturuuu/calsync/internal/trigger"
)

// Handler formats daemon events as dashboard messages.
// It bridges between the sync/schedule fan-outs and the WebSocket server.
type Handler struct {
	server *Server
	logger *log.Logger

	// Statistics tracking
	stats *StatsData
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		server: server,
		logger: logger,
		stats:  &StatsData{},
	}
}

// OnSyncComplete handles completion of one fan-out sync pass
func (h *Handler) OnSyncComplete(kind trigger.SyncKind, result *trigger.FanOutResult, duration time.Duration) {
	h.logger.Printf("Sync pass (%s): %d workspaces, %d triggered, %d failed in %v",
		kind, result.TotalWorkspaces, result.Triggered, result.Failed, duration)

	// Update statistics
	h.stats.SyncPasses++
	h.stats.FailedSyncs += result.Failed
	h.stats.LastSyncAt = time.Now()

	data := SyncResultData{
		Kind:            string(kind),
		TotalWorkspaces: result.TotalWorkspaces,
		Triggered:       result.Triggered,
		Failed:          result.Failed,
		Duration:        duration,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal sync data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeSyncResult,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})

	// Surface each failed workspace individually
	for _, outcome := range result.Results {
		if outcome.Status != trigger.StatusFailed {
			continue
		}
		h.onWorkspaceFailed(outcome.WSID, string(kind), outcome.Error)
	}

	// Also broadcast updated stats
	h.broadcastStats()
}

// OnScheduleRun handles completion of one unified schedule pass
func (h *Handler) OnScheduleRun(result *schedule.AggregateResult, manual bool) {
	h.logger.Printf("Schedule pass: %d workspaces, %d triggered, %d failed (manual=%v)",
		result.TotalWorkspaces, result.Triggered, result.Failed, manual)

	data := ScheduleRunData{
		TotalWorkspaces: result.TotalWorkspaces,
		Triggered:       result.Triggered,
		Failed:          result.Failed,
		Manual:          manual,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal schedule data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeScheduleRun,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// OnTokenUpdated handles sync cursor advances
func (h *Handler) OnTokenUpdated(wsID, calendarID string) {
	data := TokenUpdateData{WSID: wsID, CalendarID: calendarID}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal token data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeTokenUpdate,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// onWorkspaceFailed broadcasts one workspace's sync failure
func (h *Handler) onWorkspaceFailed(wsID, kind, errMsg string) {
	data := WorkspaceFailedData{WSID: wsID, Kind: kind, Error: errMsg}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal failure data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeWorkspaceFailed,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// UpdateStats manually updates fleet statistics
// This is useful for initialization or periodic refresh
func (h *Handler) UpdateStats(workspaces, totalEvents int) {
	h.stats.Workspaces = workspaces
	h.stats.TotalEvents = totalEvents

	h.broadcastStats()
}

// broadcastStats sends current statistics to all clients
func (h *Handler) broadcastStats() {
	dataJSON, err := json.Marshal(h.stats)
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// GetStats returns the current statistics
func (h *Handler) GetStats() StatsData {
	return *h.stats
}
