package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulucloud/kulu/types"
)

func testReport(scanID string, startedAt time.Time, totalCost float64) *types.ScanReport {
	return &types.ScanReport{
		ScanID:           scanID,
		Status:           types.ScanSucceeded,
		StageStatus:      map[types.Stage]types.StageStatus{types.StageDiscovery: types.StageSucceeded},
		TotalMonthlyCost: types.USD(totalCost),
		StartedAt:        startedAt,
		Duration:         42 * time.Second,
	}
}

func openTestStore(t *testing.T) *ReportStore {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutAndGet(t *testing.T) {
	store := openTestStore(t)

	report := testReport("scan-1", time.Now().UTC(), 120.50)
	report.Resources = []types.PricedResource{{
		Resource:     types.NormalizedResource{ID: "aws/i-1", Type: types.ResourceCompute},
		MonthlyCost:  types.USD(70.08),
		PricingModel: types.PricingOnDemand,
		Confidence:   types.ConfidenceExact,
	}}
	require.NoError(t, store.Put(report))

	loaded, err := store.Get("scan-1")
	require.NoError(t, err)
	assert.Equal(t, report.ScanID, loaded.ScanID)
	assert.Equal(t, report.TotalMonthlyCost, loaded.TotalMonthlyCost)
	require.Len(t, loaded.Resources, 1)
	assert.Equal(t, types.ResourceID("aws/i-1"), loaded.Resources[0].Resource.ID)
}

func TestGet_Missing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get("no-such-scan")
	assert.Error(t, err)
}

func TestLatestAndList(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(testReport("scan-old", base, 100)))
	require.NoError(t, store.Put(testReport("scan-mid", base.Add(time.Hour), 110)))
	require.NoError(t, store.Put(testReport("scan-new", base.Add(2*time.Hour), 120)))

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, "scan-new", latest.ScanID)

	reports, err := store.List(2)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "scan-new", reports[0].ScanID)
	assert.Equal(t, "scan-mid", reports[1].ScanID)
}

func TestLatest_Empty(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Latest()
	assert.Error(t, err)
}

func TestIndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(testReport("scan-1", base, 100)))
	require.NoError(t, store.Put(testReport("scan-2", base.Add(time.Hour), 105)))
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	latest, err := reopened.Latest()
	require.NoError(t, err)
	assert.Equal(t, "scan-2", latest.ScanID)
}

func TestPrevious(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	first := testReport("scan-1", base, 100)
	second := testReport("scan-2", base.Add(time.Hour), 130)
	require.NoError(t, store.Put(first))
	require.NoError(t, store.Put(second))

	prev, ok := store.Previous(second)
	require.True(t, ok)
	assert.Equal(t, "scan-1", prev.ScanID)

	_, ok = store.Previous(first)
	assert.False(t, ok)
}

func TestPrune(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"scan-a", "scan-b", "scan-c", "scan-d"} {
		require.NoError(t, store.Put(testReport(id, base.Add(time.Duration(i)*time.Hour), 100)))
	}

	require.NoError(t, store.Prune(2))

	reports, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "scan-d", reports[0].ScanID)
	assert.Equal(t, "scan-c", reports[1].ScanID)

	_, err = store.Get("scan-a")
	assert.Error(t, err)
}
