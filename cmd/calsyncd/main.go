// Command calsyncd runs Google Calendar sync and unified scheduling for
// workspaces: a long-running daemon plus on-demand management subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tuturuuu/calsync/internal/config"
	"github.com/tuturuuu/calsync/internal/gcal"
	"github.com/tuturuuu/calsync/internal/logging"
	"github.com/tuturuuu/calsync/internal/storage"
	calsync "github.com/tuturuuu/calsync/internal/sync"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "calsyncd",
	Short: "Calendar sync and unified scheduling daemon",
	Long: `calsyncd keeps workspace calendars in sync with Google Calendar and
coordinates the unified scheduler.

It maintains a local SQLite database (.calsync/calsync.db) holding synced
event rows, per-workspace OAuth credentials, and incremental sync cursors.`,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (optional)")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(workspaceCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// openDB opens and initializes the sync database from config.
func openDB(cfg *config.Config) (*storage.DB, error) {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.InitSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// buildSyncer wires the provider, batch engine, and token store into a
// Syncer backed by the given database.
func buildSyncer(cfg *config.Config, db *storage.DB) calsync.Syncer {
	provider := gcal.NewProvider(gcal.OAuthCredentials{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURI:  cfg.Google.RedirectURI,
	})

	logger := logging.NewWithFile("sync", cfg.LogFile)
	engine := calsync.NewEngine(db, nil, logger)
	tokens := calsync.NewTokenStore(db, logger)

	return calsync.New(provider, engine, tokens, logger)
}
