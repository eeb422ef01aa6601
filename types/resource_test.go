package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeResourceID(t *testing.T) {
	id := MakeResourceID(ProviderAWS, "i-0abc123")
	assert.Equal(t, ResourceID("aws/i-0abc123"), id)
}

func TestMergeTags_ExistingKeysWin(t *testing.T) {
	r := NormalizedResource{
		Tags: map[string]string{"team": "platform"},
	}

	r.MergeTags(map[string]string{"team": "data", "env": "prod"})

	assert.Equal(t, "platform", r.Tags["team"])
	assert.Equal(t, "prod", r.Tags["env"])
}

func TestMergeTags_NilMap(t *testing.T) {
	var r NormalizedResource
	r.MergeTags(map[string]string{"env": "dev"})
	require.NotNil(t, r.Tags)
	assert.Equal(t, "dev", r.Tags["env"])
}

func TestMetricSetAverage(t *testing.T) {
	ms := NewMetricSet()
	id := MakeResourceID(ProviderAWS, "i-1")
	ms.Add(id,
		MetricSample{ResourceID: id, Name: MetricCPUUtilization, Value: 10, Unit: UnitPercent},
		MetricSample{ResourceID: id, Name: MetricCPUUtilization, Value: 30, Unit: UnitPercent},
		MetricSample{ResourceID: id, Name: MetricNetworkIn, Value: 999, Unit: UnitBytes},
	)

	avg, ok := ms.Average(id, MetricCPUUtilization)
	require.True(t, ok)
	assert.InDelta(t, 20.0, avg, 0.001)

	_, ok = ms.Average(id, MetricMemoryUtilization)
	assert.False(t, ok, "missing metric must report no data, not zero data")
}

func TestScanReportTotals(t *testing.T) {
	report := ScanReport{
		TotalMonthlyCost: USD(100),
		Recommendations: []Recommendation{
			{ProjectedSavings: USD(12.5)},
			{ProjectedSavings: USD(7.5)},
		},
	}

	savings := report.TotalProjectedSavings()
	assert.Equal(t, "USD", savings.Currency)
	assert.InDelta(t, 20.0, savings.Amount, 0.001)
}
