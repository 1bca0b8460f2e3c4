package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tuturuuu/calsync/internal/trigger"
	"github.com/tuturuuu/calsync/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a sync fan-out across all workspaces",
	Long: `Run one sync pass over every workspace with stored credentials.

Use 'sync full' to (re)seed state with a bounded-window full sync, or
'sync incr' for a cursor-driven incremental sync.`,
}

var syncFullCmd = &cobra.Command{
	Use:   "full",
	Short: "Full sync: bounded window, reseeds the sync cursor",
	Long: `Fetch all events in the 90-days-back / 180-days-forward window for
each workspace, ignoring any stored cursor, and seed a fresh cursor from
the provider's response.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSyncFanOut(trigger.KindFull)
	},
}

var syncIncrCmd = &cobra.Command{
	Use:   "incr",
	Short: "Incremental sync: cursor-driven deltas only",
	Run: func(cmd *cobra.Command, args []string) {
		runSyncFanOut(trigger.KindIncremental)
	},
}

func init() {
	syncCmd.AddCommand(syncFullCmd)
	syncCmd.AddCommand(syncIncrCmd)
}

func runSyncFanOut(kind trigger.SyncKind) {
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

	syncer := buildSyncer(cfg, db)
	fanout := trigger.NewFanOut(db, syncer, nil, nil)

	fmt.Printf("%s Running %s sync fan-out...\n", ui.RenderAccent("🔄"), kind)
	start := time.Now()

	result, err := fanout.Run(context.Background(), kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error during sync: %v\n", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), elapsed.Round(time.Millisecond))
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
}
