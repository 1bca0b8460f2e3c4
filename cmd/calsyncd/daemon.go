package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tuturuuu/calsync/internal/daemon"
	"github.com/tuturuuu/calsync/internal/dashboard"
	"github.com/tuturuuu/calsync/internal/logging"
	"github.com/tuturuuu/calsync/internal/schedule"
	"github.com/tuturuuu/calsync/internal/trigger"
)

var daemonNoDashboard bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the sync daemon",
	Long: `Run the long-lived sync daemon.

The daemon:
  1. Runs an incremental sync fan-out every minute
  2. Runs the unified schedule fan-out hourly
  3. Serves a WebSocket dashboard with live sync results
  4. Shuts down cleanly on SIGINT/SIGTERM`,
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

		logger := logging.NewWithFile("daemon", cfg.LogFile)

		syncer := buildSyncer(cfg, db)
		fanout := trigger.NewFanOut(db, syncer, nil, logging.NewWithFile("fanout", cfg.LogFile))
		coordinator := schedule.NewCoordinator(
			cfg.InternalBaseURL(),
			cfg.InternalTriggerSecret,
			db,
			logging.NewWithFile("schedule", cfg.LogFile),
		)

		var handler *dashboard.Handler
		var server *dashboard.Server
		if !daemonNoDashboard {
			server = dashboard.NewServer(&dashboard.Config{
				Port:   cfg.DashboardPort,
				Logger: logging.NewWithFile("dashboard", cfg.LogFile),
			})
			if err := server.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error starting dashboard: %v\n", err)
				os.Exit(1)
			}
			defer func() { _ = server.Stop() }()
			handler = dashboard.NewHandler(server, logger)
		}

		dcfg := daemon.DefaultConfig()
		dcfg.IncrementalCron = cfg.IncrementalCron
		dcfg.ScheduleCron = cfg.ScheduleCron
		dcfg.Logger = logger

		d, err := daemon.New(db, trigger.NewCronScheduler(), fanout, coordinator, handler, dcfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
			os.Exit(1)
		}

		// Root context with cancellation on SIGINT/SIGTERM.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			logger.Printf("Signal received: %s", sig)
			cancel()
		}()

		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonNoDashboard, "no-dashboard", false, "Disable the WebSocket dashboard server")
}
