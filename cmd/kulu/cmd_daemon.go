package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kulucloud/kulu/config"
	"github.com/kulucloud/kulu/internal/daemon"
	"github.com/kulucloud/kulu/telemetry"
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Scan continuously and serve metrics",
	Long: `Run scans on the configured interval, persist every report,
log scan-over-scan cost drift, and serve Prometheus metrics plus a
health probe over HTTP. Stops cleanly on SIGINT/SIGTERM.`,
	Example: `  kulu daemon                     # Hourly scans, metrics on :9090
  kulu daemon -c prod.yaml`,
	RunE: runDaemonCmd,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemonCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:  "kulu",
		Environment:  cfg.Telemetry.Environment,
		OTELEndpoint: cfg.Telemetry.OTELEndpoint,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	orch, store, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	d := daemon.New(orch, store, cfg.ScanRequest(), daemon.Config{
		Interval:    cfg.Daemon.ScanInterval,
		MetricsAddr: cfg.Daemon.MetricsAddr,
		KeepReports: cfg.KeepReports,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.Run(gctx) })
	if cfg.Daemon.MetricsAddr != "" {
		metricsServer := daemon.NewMetricsServer(cfg.Daemon.MetricsAddr, d)
		g.Go(func() error { return metricsServer.Start(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
