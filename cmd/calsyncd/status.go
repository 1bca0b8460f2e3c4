package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tuturuuu/calsync/internal/schema"
	"github.com/tuturuuu/calsync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync database status",
	Long: `Display the current state of the sync database.

Shows:
  - Database location
  - Registered and syncable workspace counts
  - Synced event counts and cursor ages per workspace`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		// Check if database exists before opening (opening creates it)
		if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
			fmt.Printf("\n%s Sync database not initialized\n", ui.RenderWarn("⚠"))
			fmt.Printf("   Run 'calsyncd workspace import' to register workspaces\n\n")
			return
		}

		db, err := openDB(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		ctx := context.Background()

		total, err := db.GetWorkspaceCount(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		syncable, err := db.ListSyncableWorkspaces(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		events, err := db.GetEventCount(ctx, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s Sync database status\n", ui.RenderAccent("●"))
		fmt.Printf("   Database:   %s\n", cfg.DBPath)
		fmt.Printf("   Workspaces: %d registered, %d syncable\n", total, len(syncable))
		fmt.Printf("   Events:     %d\n\n", events)

		for _, ws := range syncable {
			count, err := db.GetEventCount(ctx, ws.WSID)
			if err != nil {
				fmt.Printf("   %s %s: %v\n", ui.RenderFail("✗"), ws.WSID, err)
				continue
			}

			age, hasToken, err := db.TokenAge(ctx, ws.WSID, schema.DefaultCalendarID)
			cursor := "no cursor"
			if err == nil && hasToken {
				cursor = fmt.Sprintf("cursor %s old", age.Round(time.Second))
			}

			fmt.Printf("   %s %s: %d events, %s\n", ui.RenderPass("✓"), ws.WSID, count, cursor)
		}
		fmt.Println()
	},
}
