package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulucloud/kulu/types"
)

func pricedResource(id string, monthly float64) types.PricedResource {
	return types.PricedResource{
		Resource:     types.NormalizedResource{ID: types.ResourceID(id), Type: types.ResourceCompute},
		MonthlyCost:  types.USD(monthly),
		PricingModel: types.PricingOnDemand,
		Confidence:   types.ConfidenceExact,
	}
}

func TestDiff(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	previous := testReport("scan-1", base, 170)
	previous.Resources = []types.PricedResource{
		pricedResource("aws/i-stable", 70),
		pricedResource("aws/i-gone", 50),
		pricedResource("aws/vol-grew", 50),
	}

	current := testReport("scan-2", base.Add(time.Hour), 200)
	current.Resources = []types.PricedResource{
		pricedResource("aws/i-stable", 70),
		pricedResource("aws/vol-grew", 80),
		pricedResource("aws/i-new", 50),
	}

	diff := Diff(previous, current)
	assert.Equal(t, "scan-1", diff.PreviousScanID)
	assert.Equal(t, "scan-2", diff.CurrentScanID)
	assert.InDelta(t, 30.0, diff.TotalCostDelta.Amount, 0.001)

	byID := make(map[types.ResourceID]ResourceDiff)
	for _, rd := range diff.Resources {
		byID[rd.ResourceID] = rd
	}
	require.Len(t, byID, 3, "stable resource must not appear in the diff")

	assert.Equal(t, DiffAdded, byID["aws/i-new"].Type)
	assert.InDelta(t, 50.0, byID["aws/i-new"].CostDelta.Amount, 0.001)

	assert.Equal(t, DiffRemoved, byID["aws/i-gone"].Type)
	assert.InDelta(t, -50.0, byID["aws/i-gone"].CostDelta.Amount, 0.001)

	assert.Equal(t, DiffRepriced, byID["aws/vol-grew"].Type)
	assert.InDelta(t, 30.0, byID["aws/vol-grew"].CostDelta.Amount, 0.001)
}

func TestDiff_NoChanges(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	previous := testReport("scan-1", base, 70)
	previous.Resources = []types.PricedResource{pricedResource("aws/i-1", 70)}
	current := testReport("scan-2", base.Add(time.Hour), 70)
	current.Resources = []types.PricedResource{pricedResource("aws/i-1", 70)}

	diff := Diff(previous, current)
	assert.Zero(t, diff.TotalCostDelta.Amount)
	assert.Empty(t, diff.Resources)
}
