package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/types"
)

type stubMetricsAdapter struct {
	provider types.Provider

	mu       sync.Mutex
	inflight int32
	peak     int32

	samplesFor func(r types.NormalizedResource) ([]types.MetricSample, error)
}

func (s *stubMetricsAdapter) Provider() types.Provider { return s.provider }

func (s *stubMetricsAdapter) ListResources(ctx context.Context, account types.CloudAccount, filter adapters.Filter) ([]types.RawResourceRecord, error) {
	return nil, nil
}

func (s *stubMetricsAdapter) GetMetrics(ctx context.Context, r types.NormalizedResource, names []types.MetricName, window types.TimeRange) ([]types.MetricSample, error) {
	n := atomic.AddInt32(&s.inflight, 1)
	defer atomic.AddInt32(&s.inflight, -1)
	s.mu.Lock()
	if n > s.peak {
		s.peak = n
	}
	s.mu.Unlock()
	time.Sleep(2 * time.Millisecond)
	return s.samplesFor(r)
}

func testAccount() types.CloudAccount {
	return types.CloudAccount{Provider: types.ProviderAWS, AccountID: "123456789012"}
}

func testResources(n int) []types.NormalizedResource {
	account := testAccount()
	out := make([]types.NormalizedResource, 0, n)
	for i := 0; i < n; i++ {
		id := types.MakeResourceID(types.ProviderAWS, fmt.Sprintf("i-%03d", i))
		out = append(out, types.NormalizedResource{
			ID:         id,
			Provider:   types.ProviderAWS,
			AccountKey: account.Key(),
			Type:       types.ResourceCompute,
		})
	}
	return out
}

func cpuSample(id types.ResourceID, v float64) types.MetricSample {
	return types.MetricSample{
		ResourceID: id,
		Name:       types.MetricCPUUtilization,
		Timestamp:  time.Now().UTC(),
		Value:      v,
		Unit:       types.UnitPercent,
	}
}

func TestEnrich_AttachesSamples(t *testing.T) {
	account := testAccount()
	resources := testResources(3)
	adapter := &stubMetricsAdapter{
		provider: types.ProviderAWS,
		samplesFor: func(r types.NormalizedResource) ([]types.MetricSample, error) {
			return []types.MetricSample{cpuSample(r.ID, 42)}, nil
		},
	}

	e := NewEnricher().WithAdapterFunc(func(ctx context.Context, a types.CloudAccount) (adapters.Adapter, error) {
		return adapter, nil
	})

	set, errs := e.Enrich(context.Background(), resources, []types.CloudAccount{account}, types.LastDays(14))
	require.Empty(t, errs)

	for _, r := range resources {
		avg, ok := set.Average(r.ID, types.MetricCPUUtilization)
		require.True(t, ok, "resource %s has no samples", r.ID)
		assert.Equal(t, 42.0, avg)
	}

	annotated := Annotate(resources, set)
	for _, r := range annotated {
		assert.Equal(t, []types.MetricName{types.MetricCPUUtilization}, r.MetricRefs)
	}
}

func TestEnrich_EmptySeriesIsNotAnError(t *testing.T) {
	account := testAccount()
	resources := testResources(2)
	adapter := &stubMetricsAdapter{
		provider:   types.ProviderAWS,
		samplesFor: func(r types.NormalizedResource) ([]types.MetricSample, error) { return nil, nil },
	}

	e := NewEnricher().WithAdapterFunc(func(ctx context.Context, a types.CloudAccount) (adapters.Adapter, error) {
		return adapter, nil
	})

	set, errs := e.Enrich(context.Background(), resources, []types.CloudAccount{account}, types.LastDays(14))
	assert.Empty(t, errs)

	_, ok := set.Average(resources[0].ID, types.MetricCPUUtilization)
	assert.False(t, ok)

	// Unenriched resources stay in the list with no refs.
	annotated := Annotate(resources, set)
	require.Len(t, annotated, 2)
	assert.Empty(t, annotated[0].MetricRefs)
}

func TestEnrich_FetchFailureRecordedPerResource(t *testing.T) {
	account := testAccount()
	resources := testResources(4)
	broken := resources[1].ID
	adapter := &stubMetricsAdapter{
		provider: types.ProviderAWS,
		samplesFor: func(r types.NormalizedResource) ([]types.MetricSample, error) {
			if r.ID == broken {
				return nil, errors.New("throttled past budget")
			}
			return []types.MetricSample{cpuSample(r.ID, 10)}, nil
		},
	}

	e := NewEnricher().WithAdapterFunc(func(ctx context.Context, a types.CloudAccount) (adapters.Adapter, error) {
		return adapter, nil
	})

	set, errs := e.Enrich(context.Background(), resources, []types.CloudAccount{account}, types.LastDays(14))
	require.Len(t, errs, 1)
	assert.Equal(t, types.StageMetrics, errs[0].Stage)
	assert.Equal(t, broken, errs[0].ResourceID)

	// The other three still got enriched.
	enriched := 0
	for _, r := range resources {
		if _, ok := set.Average(r.ID, types.MetricCPUUtilization); ok {
			enriched++
		}
	}
	assert.Equal(t, 3, enriched)
}

func TestEnrich_RespectsConcurrencyBound(t *testing.T) {
	account := testAccount()
	resources := testResources(20)
	adapter := &stubMetricsAdapter{
		provider: types.ProviderAWS,
		samplesFor: func(r types.NormalizedResource) ([]types.MetricSample, error) {
			return []types.MetricSample{cpuSample(r.ID, 1)}, nil
		},
	}

	e := NewEnricher().
		WithAdapterFunc(func(ctx context.Context, a types.CloudAccount) (adapters.Adapter, error) {
			return adapter, nil
		}).
		WithConcurrency(3)

	_, errs := e.Enrich(context.Background(), resources, []types.CloudAccount{account}, types.LastDays(14))
	require.Empty(t, errs)

	adapter.mu.Lock()
	peak := adapter.peak
	adapter.mu.Unlock()
	assert.LessOrEqual(t, peak, int32(3))
}

func TestEnrich_AdapterResolutionFailure(t *testing.T) {
	account := testAccount()
	resources := testResources(2)

	e := NewEnricher().WithAdapterFunc(func(ctx context.Context, a types.CloudAccount) (adapters.Adapter, error) {
		return nil, errors.New("no credentials")
	})

	set, errs := e.Enrich(context.Background(), resources, []types.CloudAccount{account}, types.LastDays(14))
	require.Len(t, errs, 1)
	assert.Equal(t, account.Key(), errs[0].AccountKey)
	assert.Empty(t, set.Samples)
}
