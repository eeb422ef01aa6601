// Package orchestrator sequences the scan pipeline: discovery, metric
// enrichment, pricing, recommendation, report assembly. It enforces
// per-stage timeouts and aggregates partial failures; retrying is the
// adapters' job, never done here.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kulucloud/kulu/discovery"
	"github.com/kulucloud/kulu/metrics"
	"github.com/kulucloud/kulu/pricing"
	"github.com/kulucloud/kulu/recommend"
	"github.com/kulucloud/kulu/telemetry"
	"github.com/kulucloud/kulu/types"
)

// DefaultStageTimeout bounds each pipeline stage.
const DefaultStageTimeout = 5 * time.Minute

// ReportStore persists completed scan reports. The orchestrator treats
// persistence as best effort; a store failure is a StageError, not a
// scan failure.
type ReportStore interface {
	Put(report *types.ScanReport) error
}

// Orchestrator runs scans end to end.
type Orchestrator struct {
	discoverer  *discovery.Discoverer
	enricher    *metrics.Enricher
	pricer      *pricing.Engine
	recommender *recommend.Engine
	store       ReportStore
	logger      *telemetry.Logger
}

// New wires an orchestrator from its stage engines.
func New(d *discovery.Discoverer, e *metrics.Enricher, p *pricing.Engine, r *recommend.Engine) *Orchestrator {
	return &Orchestrator{
		discoverer:  d,
		enricher:    e,
		pricer:      p,
		recommender: r,
		logger:      telemetry.NewLogger("orchestrator"),
	}
}

// WithStore adds report persistence.
func (o *Orchestrator) WithStore(store ReportStore) *Orchestrator {
	o.store = store
	return o
}

// Run executes one scan. The returned report is always populated, even
// on ErrScanFailed; partial failures never surface as an error.
func (o *Orchestrator) Run(ctx context.Context, req types.ScanRequest) (*types.ScanReport, error) {
	if req.Options.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Options.ScanTimeout)
		defer cancel()
	}

	scan := &scanRun{
		state:        StatePending,
		stageTimeout: req.Options.StageTimeout,
		report: &types.ScanReport{
			ScanID:      uuid.New().String(),
			Accounts:    req.Accounts,
			StageStatus: make(map[types.Stage]types.StageStatus),
			StartedAt:   time.Now().UTC(),
		},
	}
	if scan.stageTimeout <= 0 {
		scan.stageTimeout = DefaultStageTimeout
	}
	log := o.logger.WithContext(ctx)
	log.Info().
		Str("scan_id", scan.report.ScanID).
		Int("accounts", len(req.Accounts)).
		Msg("starting scan")

	resources, err := o.runDiscovery(ctx, scan, req)
	if err != nil {
		return o.finish(ctx, scan, StateFailed), err
	}

	set := o.runMetrics(ctx, scan, req, resources)
	resources = metrics.Annotate(resources, set)

	o.runPricing(ctx, scan, resources)
	o.runRecommendation(ctx, scan, set)

	return o.finish(ctx, scan, StateCompleted), nil
}

// scanRun carries one scan's mutable state through the stages.
type scanRun struct {
	state        ScanState
	stageTimeout time.Duration
	report       *types.ScanReport
}

// recordStage stores a stage's outcome and folds its errors into the
// report. Errors are aggregated, never thrown past stage boundaries.
func (s *scanRun) recordStage(stage types.Stage, errs []types.StageError, producedAnything bool) {
	s.report.Errors = append(s.report.Errors, errs...)
	switch {
	case len(errs) == 0:
		s.report.StageStatus[stage] = types.StageSucceeded
	case producedAnything:
		s.report.StageStatus[stage] = types.StagePartialFailure
	default:
		s.report.StageStatus[stage] = types.StageFailed
	}
}

func (o *Orchestrator) runDiscovery(ctx context.Context, scan *scanRun, req types.ScanRequest) ([]types.NormalizedResource, error) {
	scan.state = advance(scan.state, StateDiscovering)
	stageCtx, cancel := context.WithTimeout(ctx, scan.stageTimeout)
	defer cancel()

	resources, errs := o.discoverer.Discover(stageCtx, req.Accounts)
	errs = appendTimeoutError(errs, stageCtx, types.StageDiscovery)
	scan.recordStage(types.StageDiscovery, errs, len(resources) > 0)
	scan.report.DiscoveredCount = len(resources)
	telemetry.ResourcesDiscovered.Add(ctx, int64(len(resources)))

	if len(resources) == 0 && len(errs) > 0 {
		return nil, ErrScanFailed
	}
	return resources, nil
}

func (o *Orchestrator) runMetrics(ctx context.Context, scan *scanRun, req types.ScanRequest, resources []types.NormalizedResource) *types.MetricSet {
	scan.state = advance(scan.state, StateMetering)
	stageCtx, cancel := context.WithTimeout(ctx, scan.stageTimeout)
	defer cancel()

	window := req.Window
	if window.Duration() <= 0 {
		window = types.LastDays(14)
	}
	enricher := o.enricher
	if req.Options.MetricsConcurrency > 0 {
		clone := *o.enricher
		enricher = clone.WithConcurrency(req.Options.MetricsConcurrency)
	}
	set, errs := enricher.Enrich(stageCtx, resources, req.Accounts, window)
	errs = appendTimeoutError(errs, stageCtx, types.StageMetrics)
	scan.recordStage(types.StageMetrics, errs, len(set.Samples) > 0 || len(errs) == 0)
	return set
}

func (o *Orchestrator) runPricing(ctx context.Context, scan *scanRun, resources []types.NormalizedResource) {
	scan.state = advance(scan.state, StatePricing)

	// Pure function over static tables; no timeout context needed, it
	// cannot block.
	priced, total := o.pricer.PriceAll(resources)
	scan.report.Resources = priced
	scan.report.TotalMonthlyCost = total
	scan.recordStage(types.StagePricing, nil, true)
	telemetry.EstimatedMonthlyCost.Record(ctx, total.Amount)
}

func (o *Orchestrator) runRecommendation(ctx context.Context, scan *scanRun, set *types.MetricSet) {
	scan.state = advance(scan.state, StateRecommending)

	recs := o.recommender.Recommend(scan.report.Resources, set)
	scan.report.Recommendations = recs
	scan.recordStage(types.StageRecommendation, nil, true)
	telemetry.ProjectedSavings.Record(ctx, scan.report.TotalProjectedSavings().Amount)
}

func (o *Orchestrator) finish(ctx context.Context, scan *scanRun, terminal ScanState) *types.ScanReport {
	if scan.state != terminal {
		scan.state = advance(scan.state, terminal)
	}
	report := scan.report
	report.Duration = time.Since(report.StartedAt)
	report.Status = overallStatus(scan)

	telemetry.ScanDuration.Record(ctx, report.Duration.Seconds())
	telemetry.StageErrors.Add(ctx, int64(len(report.Errors)))

	if o.store != nil && scan.state != StateFailed {
		if err := o.store.Put(report); err != nil {
			o.logger.WithContext(ctx).Error().
				Err(err).
				Str("scan_id", report.ScanID).
				Msg("failed to persist report")
		} else {
			telemetry.ReportsPersisted.Add(ctx, 1)
		}
	}

	o.logger.WithContext(ctx).Info().
		Str("scan_id", report.ScanID).
		Str("status", string(report.Status)).
		Int("resources", len(report.Resources)).
		Int("recommendations", len(report.Recommendations)).
		Int("errors", len(report.Errors)).
		Dur("duration", report.Duration).
		Msg("scan finished")
	return report
}

func overallStatus(scan *scanRun) types.ScanStatus {
	if scan.state == StateFailed {
		return types.ScanFailed
	}
	if len(scan.report.Errors) > 0 {
		return types.ScanPartialFailure
	}
	return types.ScanSucceeded
}

// appendTimeoutError records a stage deadline hit. In-flight work was
// already cancelled through the stage context.
func appendTimeoutError(errs []types.StageError, stageCtx context.Context, stage types.Stage) []types.StageError {
	if stageCtx.Err() != context.DeadlineExceeded {
		return errs
	}
	return append(errs, types.StageError{
		Stage:     stage,
		Message:   "stage deadline exceeded; in-flight work cancelled",
		Timestamp: time.Now().UTC(),
	})
}
