package storage

import (
	"github.com/kulucloud/kulu/types"
)

// DiffType classifies one resource's change between two scans.
type DiffType string

const (
	DiffAdded   DiffType = "added"
	DiffRemoved DiffType = "removed"
	DiffRepriced  DiffType = "repriced"
)

// ResourceDiff is one resource-level change between two reports.
type ResourceDiff struct {
	Type       DiffType         `json:"type"`
	ResourceID types.ResourceID `json:"resource_id"`
	// CostDelta is the monthly cost change this resource contributes;
	// negative means it got cheaper or disappeared.
	CostDelta types.Money `json:"cost_delta"`
}

// ReportDiff summarizes scan-over-scan drift: what appeared, what went
// away, and how the total estimate moved. Consumed by the daemon's
// cost-delta logging; webhook dispatch happens outside this module.
type ReportDiff struct {
	PreviousScanID string         `json:"previous_scan_id"`
	CurrentScanID  string         `json:"current_scan_id"`
	TotalCostDelta types.Money    `json:"total_cost_delta"`
	Resources      []ResourceDiff `json:"resources,omitempty"`
}

// Diff compares two reports resource by resource. Order of the diff list
// follows the current report's resource order, removals last.
func Diff(previous, current *types.ScanReport) *ReportDiff {
	out := &ReportDiff{
		PreviousScanID: previous.ScanID,
		CurrentScanID:  current.ScanID,
		TotalCostDelta: types.Money{
			Amount:   current.TotalMonthlyCost.Amount - previous.TotalMonthlyCost.Amount,
			Currency: currencyOf(current),
		},
	}

	prevByID := make(map[types.ResourceID]types.PricedResource, len(previous.Resources))
	for _, pr := range previous.Resources {
		prevByID[pr.Resource.ID] = pr
	}

	currency := currencyOf(current)
	for _, pr := range current.Resources {
		prev, existed := prevByID[pr.Resource.ID]
		if !existed {
			out.Resources = append(out.Resources, ResourceDiff{
				Type:       DiffAdded,
				ResourceID: pr.Resource.ID,
				CostDelta:  types.Money{Amount: pr.MonthlyCost.Amount, Currency: currency},
			})
			continue
		}
		delete(prevByID, pr.Resource.ID)
		if delta := pr.MonthlyCost.Amount - prev.MonthlyCost.Amount; delta != 0 {
			out.Resources = append(out.Resources, ResourceDiff{
				Type:       DiffRepriced,
				ResourceID: pr.Resource.ID,
				CostDelta:  types.Money{Amount: delta, Currency: currency},
			})
		}
	}

	for id, prev := range prevByID {
		out.Resources = append(out.Resources, ResourceDiff{
			Type:       DiffRemoved,
			ResourceID: id,
			CostDelta:  types.Money{Amount: -prev.MonthlyCost.Amount, Currency: currency},
		})
	}

	return out
}

func currencyOf(report *types.ScanReport) string {
	if report.TotalMonthlyCost.Currency != "" {
		return report.TotalMonthlyCost.Currency
	}
	return "USD"
}
