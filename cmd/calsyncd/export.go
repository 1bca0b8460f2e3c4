package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tuturuuu/calsync/internal/ics"
	"github.com/tuturuuu/calsync/internal/ui"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <ws_id>",
	Short: "Export a workspace's synced events as iCalendar",
	Long: `Export all synced events for a workspace as an iCalendar (.ics)
document, written to stdout or to a file with --output.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		wsID := args[0]

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

		events, err := db.ListEvents(context.Background(), wsID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		doc, skipped, err := ics.Export(events)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if exportOutput == "" {
			fmt.Print(doc)
		} else {
			if err := os.WriteFile(exportOutput, []byte(doc), 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", exportOutput, err)
				os.Exit(1)
			}
			fmt.Printf("%s Exported %d events to %s\n", ui.RenderPass("✓"), len(events)-skipped, exportOutput)
		}

		if skipped > 0 {
			fmt.Fprintf(os.Stderr, "%s Skipped %d events with unparseable timestamps\n", ui.RenderWarn("⚠"), skipped)
		}
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write the .ics document to a file")
}
