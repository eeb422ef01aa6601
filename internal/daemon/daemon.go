// Package daemon runs the scan pipeline on a fixed interval and serves
// operational metrics over HTTP.
package daemon

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kulucloud/kulu/orchestrator"
	"github.com/kulucloud/kulu/storage"
	"github.com/kulucloud/kulu/telemetry"
	"github.com/kulucloud/kulu/types"
)

// Config holds daemon configuration.
type Config struct {
	Interval    time.Duration
	MetricsAddr string
	KeepReports int
}

// Daemon manages the continuous scan loop.
type Daemon struct {
	orch     *orchestrator.Orchestrator
	store    *storage.ReportStore
	request  types.ScanRequest
	interval time.Duration
	keep     int

	logger    *telemetry.Logger
	startTime time.Time
	scanCount atomic.Int64
}

// New creates a daemon around an orchestrator, report store, and the
// scan request it repeats.
func New(orch *orchestrator.Orchestrator, store *storage.ReportStore, request types.ScanRequest, cfg Config) *Daemon {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &Daemon{
		orch:      orch,
		store:     store,
		request:   request,
		interval:  interval,
		keep:      cfg.KeepReports,
		logger:    telemetry.NewLogger("daemon"),
		startTime: time.Now(),
	}
}

// Run scans immediately, then on every tick until the context ends.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.WithContext(ctx).Info().
		Dur("interval", d.interval).
		Int("accounts", len(d.request.Accounts)).
		Msg("daemon started")

	d.runScan(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.logger.WithContext(ctx).Info().Msg("daemon stopping")
			return ctx.Err()
		case <-ticker.C:
			d.runScan(ctx)
		}
	}
}

func (d *Daemon) runScan(ctx context.Context) {
	d.scanCount.Add(1)

	// Window slides with each run.
	request := d.request
	if days := int(request.Window.Duration().Hours() / 24); days > 0 {
		request.Window = types.LastDays(days)
	}

	report, err := d.orch.Run(ctx, request)
	if err != nil {
		d.logger.WithContext(ctx).Error().
			Err(err).
			Msg("scan failed")
		return
	}

	d.logCostDrift(ctx, report)

	if d.keep > 0 {
		if err := d.store.Prune(d.keep); err != nil {
			d.logger.WithContext(ctx).Warn().
				Err(err).
				Msg("pruning old reports failed")
		}
	}
}

// logCostDrift compares the finished scan against its predecessor and
// logs the movement. Webhook-style eventing on these deltas lives in
// the consuming layer, not here.
func (d *Daemon) logCostDrift(ctx context.Context, report *types.ScanReport) {
	previous, ok := d.store.Previous(report)
	if !ok {
		return
	}
	diff := storage.Diff(previous, report)
	if diff.TotalCostDelta.Amount == 0 && len(diff.Resources) == 0 {
		return
	}
	d.logger.WithContext(ctx).Info().
		Str("scan_id", report.ScanID).
		Str("previous_scan_id", previous.ScanID).
		Float64("cost_delta", diff.TotalCostDelta.Amount).
		Int("changed_resources", len(diff.Resources)).
		Msg("cost drift since last scan")
}

// Health returns daemon health status.
func (d *Daemon) Health() HealthStatus {
	return HealthStatus{
		Status: "healthy",
		Uptime: int64(time.Since(d.startTime).Seconds()),
	}
}

// HealthStatus represents daemon health.
type HealthStatus struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime_seconds"`
}

// ScanCount returns total scans started.
func (d *Daemon) ScanCount() int64 {
	return d.scanCount.Load()
}
