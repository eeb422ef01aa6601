package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/discovery"
	"github.com/kulucloud/kulu/metrics"
	"github.com/kulucloud/kulu/orchestrator"
	"github.com/kulucloud/kulu/pricing"
	"github.com/kulucloud/kulu/recommend"
	"github.com/kulucloud/kulu/storage"
	"github.com/kulucloud/kulu/types"
)

type stubAdapter struct{}

func (s *stubAdapter) Provider() types.Provider { return types.ProviderAWS }

func (s *stubAdapter) ListResources(ctx context.Context, account types.CloudAccount, filter adapters.Filter) ([]types.RawResourceRecord, error) {
	return []types.RawResourceRecord{{
		Provider:     types.ProviderAWS,
		Kind:         "ec2_instance",
		NativeID:     "i-1",
		Region:       "us-east-1",
		Attributes:   map[string]string{types.AttrInstanceType: "t3.micro"},
		State:        types.StateRunning,
		DiscoveredAt: time.Now().UTC(),
	}}, nil
}

func (s *stubAdapter) GetMetrics(ctx context.Context, r types.NormalizedResource, names []types.MetricName, window types.TimeRange) ([]types.MetricSample, error) {
	return nil, nil
}

func testDaemon(t *testing.T) (*Daemon, *storage.ReportStore) {
	t.Helper()
	adapterFn := func(ctx context.Context, account types.CloudAccount) (adapters.Adapter, error) {
		return &stubAdapter{}, nil
	}
	pricer, err := pricing.NewDefaultEngine()
	require.NoError(t, err)

	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	orch := orchestrator.New(
		discovery.NewDiscoverer().WithAdapterFunc(adapterFn),
		metrics.NewEnricher().WithAdapterFunc(adapterFn),
		pricer,
		recommend.NewEngine(pricer),
	).WithStore(store)

	request := types.ScanRequest{
		Accounts: []types.CloudAccount{{Provider: types.ProviderAWS, AccountID: "1"}},
		Window:   types.LastDays(14),
	}
	return New(orch, store, request, Config{Interval: time.Hour, KeepReports: 5}), store
}

func TestRun_ScansImmediately(t *testing.T) {
	d, store := testDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := store.Latest()
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.GreaterOrEqual(t, d.ScanCount(), int64(1))
	report, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, 1, report.DiscoveredCount)
}

func TestHealth(t *testing.T) {
	d, _ := testDaemon(t)

	health := d.Health()
	assert.Equal(t, "healthy", health.Status)
	assert.GreaterOrEqual(t, health.Uptime, int64(0))
}

func TestMetricsServer_Health(t *testing.T) {
	d, _ := testDaemon(t)
	m := NewMetricsServer(":0", d)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	m.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
}
