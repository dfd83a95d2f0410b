package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sfpark-collector/config"
	"sfpark-collector/internal/collector"
	"sfpark-collector/internal/db"
	"sfpark-collector/internal/sfpark"
	"sfpark-collector/internal/store"
	"sfpark-collector/internal/tracker"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sfparkd <connection-string>",
	Short: "Collect SFpark parking availability into a relational store",
	Long: `Polls the SFpark availability service at a fixed interval and appends the
normalized locations, occupancy, rates and operating hours to the database
named by the connection string (postgres:// URL, key=value DSN or a SQLite
file). Press Enter to stop.`,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "./config/config.yaml"
		}

		c, err := config.Load(configPath)
		if err != nil {
			return eris.Wrapf(err, "load config from %s", configPath)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Past argument validation, errors are runtime failures, not usage mistakes.
	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	gormDB, err := db.Init(args[0], &cfg.Database)
	if err != nil {
		return err
	}
	appStore := store.NewGormStore(gormDB, cfg.Collector.BatchSize)
	defer func() {
		if err := appStore.Close(); err != nil {
			zap.L().Warn("close database", zap.Error(err))
		}
	}()

	tr, err := tracker.New(ctx, appStore, tracker.Options{EagerLocations: cfg.Collector.EagerLocationsEnabled()})
	if err != nil {
		return err
	}
	zap.L().Info("tracker bootstrapped",
		zap.Int("known_locations", tr.KnownCount()),
		zap.Bool("eager_locations", cfg.Collector.EagerLocationsEnabled()),
	)

	svc := collector.NewService(cfg.Collector, sfpark.NewClient(cfg.Collector), appStore, tr)
	out := cmd.OutOrStdout()
	svc.OnCycle(func(r collector.Report) { printReport(out, r) })

	if cfg.Server.Enabled {
		srv := startServer(cfg.Server, appStore, svc)
		defer stopServer(srv)
	}

	go watchStdin(cmd.InOrStdin(), cancel)

	fmt.Fprintf(out, "collecting from %s every %s; press Enter to stop\n", cfg.Collector.URL, cfg.Collector.Interval)
	svc.Run(ctx)
	fmt.Fprintln(out, "stopped")
	return nil
}

// printReport writes the one-line progress summary of a cycle.
func printReport(w io.Writer, r collector.Report) {
	stamp := r.Started.Format("2006-01-02 15:04:05")
	if r.Error != "" {
		fmt.Fprintf(w, "%s cycle failed: %s\n", stamp, r.Error)
		return
	}
	fmt.Fprintf(w, "%s date=%d locations=%d availability=%d rates=%d hours=%d rejected=%d known=%d took=%s\n",
		stamp, r.DateID, r.Locations, r.Availability, r.Rates, r.Hours, r.Rejected, r.KnownLocations,
		r.Duration.Round(time.Millisecond))
}
