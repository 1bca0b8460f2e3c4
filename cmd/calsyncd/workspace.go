package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tuturuuu/calsync/internal/schema"
	"github.com/tuturuuu/calsync/internal/ui"
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage workspace sync credentials",
}

var workspaceImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bulk-register workspace credentials from a YAML file",
	Long: `Register workspace OAuth credentials from a YAML file.

File format:

  workspaces:
    - ws_id: w1
      access_token: ya29...
      refresh_token: 1//...

Existing workspaces are updated; workspaces without an access token are
stored but skipped by sync enumeration.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		workspaces, err := schema.ReadCredentialsFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		db, err := openDB(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		ctx := context.Background()
		imported := 0
		for _, ws := range workspaces {
			if err := db.UpsertWorkspace(ctx, ws); err != nil {
				fmt.Fprintf(os.Stderr, "%s %s: %v\n", ui.RenderFail("✗"), ws.WSID, err)
				continue
			}
			imported++
		}

		fmt.Printf("%s Imported %d of %d workspaces\n", ui.RenderPass("✓"), imported, len(workspaces))
		if imported < len(workspaces) {
			os.Exit(1)
		}
	},
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List syncable workspaces",
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

		workspaces, err := db.ListSyncableWorkspaces(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(workspaces) == 0 {
			fmt.Printf("%s No syncable workspaces registered\n", ui.RenderWarn("⚠"))
			return
		}

		for _, ws := range workspaces {
			last := "never synced"
			if ws.LastUpsertAt != nil {
				last = "last upsert " + ws.LastUpsertAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%s %s (%s)\n", ui.RenderPass("✓"), ws.WSID, last)
		}
	},
}

func init() {
	workspaceCmd.AddCommand(workspaceImportCmd)
	workspaceCmd.AddCommand(workspaceListCmd)
}
