// Package metrics implements the enrichment stage: per-resource
// utilization fetches against provider telemetry APIs under a bounded
// worker pool.
package metrics

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/telemetry"
	"github.com/kulucloud/kulu/types"
)

// DefaultConcurrency bounds in-flight metric fetches. Metrics APIs rate
// limit far harder than listing APIs, and resource counts reach the
// thousands.
const DefaultConcurrency = 20

// DefaultMetricNames is what the stage asks every adapter for. Adapters
// return empty sets for series their provider does not track.
var DefaultMetricNames = []types.MetricName{
	types.MetricCPUUtilization,
	types.MetricMemoryUtilization,
	types.MetricNetworkIn,
	types.MetricNetworkOut,
	types.MetricIOPS,
}

// Enricher runs the metrics stage.
type Enricher struct {
	adapterFor  func(ctx context.Context, account types.CloudAccount) (adapters.Adapter, error)
	concurrency int
	names       []types.MetricName
	logger      *telemetry.Logger
}

// NewEnricher creates an enricher using the adapter registry.
func NewEnricher() *Enricher {
	return &Enricher{
		adapterFor:  adapters.ForAccount,
		concurrency: DefaultConcurrency,
		names:       DefaultMetricNames,
		logger:      telemetry.NewLogger("metrics"),
	}
}

// WithAdapterFunc overrides adapter resolution.
func (e *Enricher) WithAdapterFunc(fn func(ctx context.Context, account types.CloudAccount) (adapters.Adapter, error)) *Enricher {
	e.adapterFor = fn
	return e
}

// WithConcurrency overrides the worker pool bound. Zero or negative
// falls back to the default.
func (e *Enricher) WithConcurrency(n int) *Enricher {
	if n > 0 {
		e.concurrency = n
	}
	return e
}

// Enrich fetches utilization samples for every resource over the window.
// Resources whose fetch fails (or is abandoned on cancellation) stay in
// the output without samples; missing telemetry is recorded per resource
// as a StageError only for real fetch failures, never for empty series.
func (e *Enricher) Enrich(ctx context.Context, resources []types.NormalizedResource, accounts []types.CloudAccount, window types.TimeRange) (*types.MetricSet, []types.StageError) {
	set := types.NewMetricSet()
	var (
		mu       sync.Mutex
		stageErr []types.StageError
	)

	adaptersByAccount := e.resolveAdapters(ctx, accounts, &stageErr)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range resources {
		resource := resources[i]
		adapter, ok := adaptersByAccount[resource.AccountKey]
		if !ok {
			continue // adapter resolution already recorded the error
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				// Cancellation abandons unfetched resources; they stay
				// in the list without enrichment.
				return nil
			}
			samples, err := adapter.GetMetrics(gctx, resource, e.names, window)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stageErr = append(stageErr, types.StageError{
					Stage:      types.StageMetrics,
					AccountKey: resource.AccountKey,
					ResourceID: resource.ID,
					Message:    err.Error(),
					Timestamp:  time.Now().UTC(),
				})
				return nil
			}
			set.Add(resource.ID, samples...)
			return nil
		})
	}
	_ = g.Wait()

	e.logger.LogStageEnd(ctx, string(types.StageMetrics), len(set.Samples), len(stageErr))
	return set, stageErr
}

// Annotate records which metric series were attached to each resource.
// Enrichment never replaces a resource, it only adds references.
func Annotate(resources []types.NormalizedResource, set *types.MetricSet) []types.NormalizedResource {
	out := make([]types.NormalizedResource, len(resources))
	for i, r := range resources {
		seen := map[types.MetricName]bool{}
		for _, s := range set.For(r.ID) {
			if !seen[s.Name] {
				seen[s.Name] = true
				r.MetricRefs = append(r.MetricRefs, s.Name)
			}
		}
		out[i] = r
	}
	return out
}

func (e *Enricher) resolveAdapters(ctx context.Context, accounts []types.CloudAccount, stageErr *[]types.StageError) map[string]adapters.Adapter {
	out := make(map[string]adapters.Adapter, len(accounts))
	for _, account := range accounts {
		adapter, err := e.adapterFor(ctx, account)
		if err != nil {
			*stageErr = append(*stageErr, types.StageError{
				Stage:      types.StageMetrics,
				AccountKey: account.Key(),
				Message:    err.Error(),
				Timestamp:  time.Now().UTC(),
			})
			continue
		}
		out[account.Key()] = adapter
	}
	return out
}
