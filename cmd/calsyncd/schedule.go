package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tuturuuu/calsync/internal/schedule"
	"github.com/tuturuuu/calsync/internal/trigger"
	"github.com/tuturuuu/calsync/internal/ui"
)

var (
	scheduleWindowDays int
	scheduleNoForce    bool
	scheduleWorkspace  string
	scheduleLegacy     bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Trigger the unified scheduler",
	Long: `Trigger the unified scheduling endpoint for one workspace or all of
them.

Manual runs force a full recompute by default (the hourly cron run does
not); pass --no-force to keep already-placed events undisturbed.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		db, err := openDB(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		coordinator := schedule.NewCoordinator(cfg.InternalBaseURL(), cfg.InternalTriggerSecret, db, nil)

		opts := schedule.DefaultManualOptions()
		if scheduleWindowDays > 0 {
			opts.WindowDays = scheduleWindowDays
		}
		if scheduleNoForce {
			opts.ForceReschedule = false
		}

		ctx := context.Background()

		if scheduleWorkspace != "" {
			runScheduleOne(ctx, coordinator, scheduleWorkspace, opts)
			return
		}

		result, err := coordinator.RunAll(ctx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Schedule pass complete\n", ui.RenderPass("✓"))
		fmt.Printf("   Workspaces: %d\n", result.TotalWorkspaces)
		fmt.Printf("   Triggered:  %d\n", result.Triggered)
		fmt.Printf("   Failed:     %d\n", result.Failed)

		for _, outcome := range result.Results {
			if outcome.Status == trigger.StatusFailed {
				fmt.Printf("   %s %s: %s\n", ui.RenderFail("✗"), outcome.WSID, outcome.Error)
			}
		}

		if result.Failed > 0 {
			os.Exit(1)
		}
	},
}

func runScheduleOne(ctx context.Context, coordinator *schedule.Coordinator, wsID string, opts schedule.Options) {
	if scheduleLegacy {
		raw, err := coordinator.ScheduleWorkspaceLegacy(ctx, wsID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Legacy auto-schedule triggered for %s\n", ui.RenderPass("✓"), wsID)
		fmt.Println(string(raw))
		return
	}

	run, err := coordinator.ScheduleWorkspace(ctx, wsID, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s Scheduled workspace %s\n", ui.RenderPass("✓"), wsID)
	fmt.Printf("   Habits scheduled:    %d\n", run.Summary.HabitsScheduled)
	fmt.Printf("   Tasks scheduled:     %d\n", run.Summary.TasksScheduled)
	fmt.Printf("   Events created:      %d\n", run.Summary.EventsCreated)
	fmt.Printf("   Habits bumped:       %d\n", run.Summary.BumpedHabits)
	fmt.Printf("   Habits rescheduled:  %d\n", run.Summary.RescheduledHabits)
	fmt.Printf("   Window (days):       %d\n", run.Summary.WindowDays)

	for _, warning := range run.Warnings {
		fmt.Printf("   %s %s\n", ui.RenderWarn("⚠"), warning)
	}
}

func init() {
	scheduleCmd.Flags().IntVar(&scheduleWindowDays, "window-days", 0, "Scheduling window in days (default 30)")
	scheduleCmd.Flags().BoolVar(&scheduleNoForce, "no-force", false, "Do not force a full reschedule")
	scheduleCmd.Flags().StringVar(&scheduleWorkspace, "workspace", "", "Schedule a single workspace instead of all")
	scheduleCmd.Flags().BoolVar(&scheduleLegacy, "legacy", false, "Use the legacy auto-schedule endpoint (requires --workspace)")
}
