package discovery

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/telemetry"
	"github.com/kulucloud/kulu/types"
)

// AdapterFunc resolves the adapter for an account. Defaults to the
// package registry; tests substitute fixed adapters.
type AdapterFunc func(ctx context.Context, account types.CloudAccount) (adapters.Adapter, error)

// Discoverer runs the discovery stage: one task per account, dedup by
// (provider, native ID), normalization into the canonical schema.
type Discoverer struct {
	adapterFor AdapterFunc
	filter     adapters.Filter
	logger     *telemetry.Logger
}

// NewDiscoverer creates a discoverer using the adapter registry.
func NewDiscoverer() *Discoverer {
	return &Discoverer{
		adapterFor: adapters.ForAccount,
		logger:     telemetry.NewLogger("discovery"),
	}
}

// WithAdapterFunc overrides adapter resolution.
func (d *Discoverer) WithAdapterFunc(fn AdapterFunc) *Discoverer {
	d.adapterFor = fn
	return d
}

// WithFilter narrows discovery by region or vendor kind.
func (d *Discoverer) WithFilter(filter adapters.Filter) *Discoverer {
	d.filter = filter
	return d
}

// Discover enumerates resources across all accounts. One failed account
// becomes a StageError; discovery only comes back empty-handed when every
// account fails. Output order is unspecified - consumers key by ID.
func (d *Discoverer) Discover(ctx context.Context, accounts []types.CloudAccount) ([]types.NormalizedResource, []types.StageError) {
	var (
		mu       sync.Mutex
		byID     = make(map[types.ResourceID]*types.NormalizedResource)
		order    []types.ResourceID
		stageErr []types.StageError
	)

	// Account counts are small; fan-out is deliberately unbounded here,
	// unlike the per-resource metrics stage.
	g, ctx := errgroup.WithContext(ctx)
	for _, account := range accounts {
		g.Go(func() error {
			records, err := d.discoverAccount(ctx, account)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stageErr = append(stageErr, types.StageError{
					Stage:      types.StageDiscovery,
					AccountKey: account.Key(),
					Message:    err.Error(),
					Timestamp:  time.Now().UTC(),
				})
				return nil // other accounts keep going
			}
			for _, record := range records {
				d.merge(byID, &order, record, account.Key())
			}
			return nil
		})
	}
	_ = g.Wait()

	resources := make([]types.NormalizedResource, 0, len(order))
	for _, id := range order {
		resources = append(resources, *byID[id])
	}

	d.logger.LogStageEnd(ctx, string(types.StageDiscovery), len(resources), len(stageErr))
	return resources, stageErr
}

func (d *Discoverer) discoverAccount(ctx context.Context, account types.CloudAccount) ([]types.RawResourceRecord, error) {
	adapter, err := d.adapterFor(ctx, account)
	if err != nil {
		return nil, err
	}

	d.logger.WithContext(ctx).Info().
		Str("account", account.Key()).
		Msg("discovering account")

	return adapter.ListResources(ctx, account, d.filter)
}

// merge deduplicates by composite key. Overlapping adapter results (e.g.
// a paginated listing and a tag listing returning the same resource) keep
// the first-seen record's fields; only unseen tags are folded in.
func (d *Discoverer) merge(byID map[types.ResourceID]*types.NormalizedResource, order *[]types.ResourceID, record types.RawResourceRecord, accountKey string) {
	normalized := Normalize(record, accountKey)

	existing, ok := byID[normalized.ID]
	if !ok {
		byID[normalized.ID] = &normalized
		*order = append(*order, normalized.ID)
		return
	}

	if existing.Kind != normalized.Kind || existing.State != normalized.State {
		d.logger.Warn().
			Str("resource", string(normalized.ID)).
			Str("kept_kind", existing.Kind).
			Str("dropped_kind", normalized.Kind).
			Msg("duplicate discovery records disagree; keeping first-seen fields")
	}
	existing.MergeTags(normalized.Tags)
}
