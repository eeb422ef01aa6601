package types

import (
	"fmt"
	"time"
)

// Stage names the pipeline phases.
type Stage string

const (
	StageDiscovery      Stage = "discovery"
	StageMetrics        Stage = "metrics"
	StagePricing        Stage = "pricing"
	StageRecommendation Stage = "recommendation"
)

// StageStatus is the outcome of one stage.
type StageStatus string

const (
	StageSucceeded      StageStatus = "succeeded"
	StagePartialFailure StageStatus = "partial_failure"
	StageFailed         StageStatus = "failed"
)

// StageError records one failure scoped to an account or a resource within
// a stage. Always recorded, never silently dropped.
type StageError struct {
	Stage      Stage      `json:"stage"`
	AccountKey string     `json:"account_key,omitempty"`
	ResourceID ResourceID `json:"resource_id,omitempty"`
	Message    string     `json:"message"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Error implements error.
func (e StageError) Error() string {
	scope := e.AccountKey
	if scope == "" {
		scope = string(e.ResourceID)
	}
	return fmt.Sprintf("%s stage: %s: %s", e.Stage, scope, e.Message)
}

// ScanStatus is the terminal status of a whole scan.
type ScanStatus string

const (
	ScanSucceeded      ScanStatus = "succeeded"
	ScanPartialFailure ScanStatus = "partial_failure"
	ScanFailed         ScanStatus = "failed"
)

// ScanReport is the sole object crossing the pipeline's external boundary.
type ScanReport struct {
	ScanID           string                `json:"scan_id"`
	Accounts         []CloudAccount        `json:"accounts"`
	Status           ScanStatus            `json:"status"`
	StageStatus      map[Stage]StageStatus `json:"stage_status"`
	Errors           []StageError          `json:"errors,omitempty"`
	Resources        []PricedResource      `json:"resources"`
	Recommendations  []Recommendation      `json:"recommendations"`
	DiscoveredCount  int                   `json:"discovered_count"`
	TotalMonthlyCost Money                 `json:"total_monthly_cost"`
	StartedAt        time.Time             `json:"started_at"`
	Duration         time.Duration         `json:"duration"`
}

// TotalProjectedSavings sums the projected savings of all recommendations.
func (r *ScanReport) TotalProjectedSavings() Money {
	total := Money{Currency: r.TotalMonthlyCost.Currency}
	if total.Currency == "" {
		total.Currency = "USD"
	}
	for _, rec := range r.Recommendations {
		total.Amount += rec.ProjectedSavings.Amount
	}
	return total
}

// FindResource looks a priced resource up by ID. Report consumers must
// treat the resource list as a set keyed by ID, never by position.
func (r *ScanReport) FindResource(id ResourceID) (PricedResource, bool) {
	for _, pr := range r.Resources {
		if pr.Resource.ID == id {
			return pr, true
		}
	}
	return PricedResource{}, false
}
