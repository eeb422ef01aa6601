package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulucloud/kulu/types"
)

func sampleReport() *types.ScanReport {
	return &types.ScanReport{
		ScanID: "scan-test",
		Status: types.ScanPartialFailure,
		StageStatus: map[types.Stage]types.StageStatus{
			types.StageDiscovery: types.StagePartialFailure,
		},
		Errors: []types.StageError{{
			Stage:      types.StageDiscovery,
			AccountKey: "aws/222222222222",
			Message:    "access denied",
			Timestamp:  time.Now().UTC(),
		}},
		Resources: []types.PricedResource{{
			Resource: types.NormalizedResource{
				ID:     "aws/i-1",
				Type:   types.ResourceCompute,
				Region: "us-east-1",
				State:  types.StateRunning,
			},
			MonthlyCost:  types.USD(70.08),
			PricingModel: types.PricingOnDemand,
			Confidence:   types.ConfidenceExact,
		}},
		Recommendations: []types.Recommendation{{
			ID:               "rec-1",
			ResourceID:       "aws/i-1",
			Action:           types.ActionRightsize,
			ProjectedSavings: types.USD(35.04),
			Risk:             types.RiskMedium,
			Rationale:        "low utilization",
		}},
		DiscoveredCount:  1,
		TotalMonthlyCost: types.USD(70.08),
		StartedAt:        time.Now().UTC(),
		Duration:         3 * time.Second,
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "scan-test")
	assert.Contains(t, out, "aws/i-1")
	assert.Contains(t, out, "rightsize")
	assert.Contains(t, out, "access denied")
	assert.True(t, strings.Contains(out, "$70.08"))
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderJSON(&buf, sampleReport()))

	var decoded types.ScanReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "scan-test", decoded.ScanID)
	assert.Len(t, decoded.Recommendations, 1)
}
