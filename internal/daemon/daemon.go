// Package daemon provides the long-running process that orchestrates
// periodic calendar sync and unified scheduling.
//
// The daemon:
// 1. Runs an incremental sync fan-out on a minute cron
// 2. Runs the unified schedule fan-out on an hourly cron
// 3. Broadcasts results to the observability dashboard
// 4. Handles graceful shutdown
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tuturuuu/calsync/internal/dashboard"
	"github.com/tuturuuu/calsync/internal/schedule"
	"github.com/tuturuuu/calsync/internal/storage"
	"github.com/tuturuuu/calsync/internal/trigger"
)

// Config holds configuration for the daemon.
type Config struct {
	// IncrementalCron fires the incremental sync fan-out.
	IncrementalCron string

	// ScheduleCron fires the unified schedule fan-out.
	ScheduleCron string

	// StatsRefreshInterval is how often dashboard fleet stats refresh.
	StatsRefreshInterval time.Duration

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		IncrementalCron:      "* * * * *",
		ScheduleCron:         "0 * * * *",
		StatsRefreshInterval: 30 * time.Second,
		Logger:               log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon wires the cron scheduler to the sync and schedule fan-outs.
type Daemon struct {
	db          *storage.DB
	sched       trigger.Scheduler
	fanout      *trigger.FanOut
	coordinator *schedule.Coordinator
	handler     *dashboard.Handler
	config      *Config
}

// New creates a new Daemon instance.
//
// The dashboard handler may be nil when running without the dashboard
// server. Use Start() to begin scheduling.
func New(db *storage.DB, sched trigger.Scheduler, fanout *trigger.FanOut, coordinator *schedule.Coordinator, handler *dashboard.Handler, config *Config) (*Daemon, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if sched == nil {
		return nil, fmt.Errorf("scheduler cannot be nil")
	}
	if fanout == nil {
		return nil, fmt.Errorf("fanout cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Daemon{
		db:          db,
		sched:       sched,
		fanout:      fanout,
		coordinator: coordinator,
		handler:     handler,
		config:      config,
	}, nil
}

// Start registers the cron handlers and blocks until ctx is cancelled.
//
// The external cron contract only fires handlers on schedule; per-workspace
// serialization is handled inside the fan-out's concurrency keys, so an
// invocation overlapping a still-running predecessor queues per workspace
// rather than racing it.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if err := d.sched.Schedule(d.config.IncrementalCron, func() {
		d.runIncrementalSync(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule incremental sync: %w", err)
	}

	if d.coordinator != nil {
		if err := d.sched.Schedule(d.config.ScheduleCron, func() {
			d.runSchedulePass(ctx)
		}); err != nil {
			return fmt.Errorf("failed to schedule unified scheduling: %w", err)
		}
	}

	d.sched.Start()
	d.config.Logger.Printf("Scheduled: incremental sync %q, schedule pass %q",
		d.config.IncrementalCron, d.config.ScheduleCron)

	statsTicker := time.NewTicker(d.config.StatsRefreshInterval)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.config.Logger.Println("Shutdown signal received")
			d.sched.Stop()
			d.config.Logger.Println("Daemon stopped")
			return nil

		case <-statsTicker.C:
			d.refreshStats(ctx)
		}
	}
}

// RunFullSync performs one full-sync fan-out pass immediately.
// Used by the CLI and for initial seeding.
func (d *Daemon) RunFullSync(ctx context.Context) (*trigger.FanOutResult, error) {
	start := time.Now()
	result, err := d.fanout.Run(ctx, trigger.KindFull)
	if err != nil {
		return nil, err
	}
	if d.handler != nil {
		d.handler.OnSyncComplete(trigger.KindFull, result, time.Since(start))
	}
	return result, nil
}

// runIncrementalSync performs one incremental fan-out pass.
func (d *Daemon) runIncrementalSync(ctx context.Context) {
	start := time.Now()
	result, err := d.fanout.Run(ctx, trigger.KindIncremental)
	if err != nil {
		d.config.Logger.Printf("Error running incremental sync: %v", err)
		return
	}
	if d.handler != nil {
		d.handler.OnSyncComplete(trigger.KindIncremental, result, time.Since(start))
	}
}

// runSchedulePass performs one unified schedule pass with cron defaults.
func (d *Daemon) runSchedulePass(ctx context.Context) {
	result, err := d.coordinator.RunAll(ctx, schedule.DefaultCronOptions())
	if err != nil {
		d.config.Logger.Printf("Error running schedule pass: %v", err)
		return
	}
	if d.handler != nil {
		d.handler.OnScheduleRun(result, false)
	}
}

// refreshStats pushes current fleet statistics to the dashboard.
func (d *Daemon) refreshStats(ctx context.Context) {
	if d.handler == nil {
		return
	}

	workspaces, err := d.db.GetWorkspaceCount(ctx)
	if err != nil {
		d.config.Logger.Printf("Error reading workspace count: %v", err)
		return
	}

	events, err := d.db.GetEventCount(ctx, "")
	if err != nil {
		d.config.Logger.Printf("Error reading event count: %v", err)
		return
	}

	d.handler.UpdateStats(workspaces, events)
}
