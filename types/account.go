package types

import "time"

// Provider identifies a cloud vendor.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderAzure Provider = "azure"
	ProviderGCP   Provider = "gcp"
)

// Valid reports whether the provider is one we can scan.
func (p Provider) Valid() bool {
	switch p {
	case ProviderAWS, ProviderAzure, ProviderGCP:
		return true
	}
	return false
}

// CloudAccount identifies one scan target. Credentials are referenced by
// an opaque handle resolved by the credential store, never embedded here.
// Immutable for the lifetime of a scan.
type CloudAccount struct {
	Provider      Provider `json:"provider" yaml:"provider"`
	AccountID     string   `json:"account_id" yaml:"account_id"`
	CredentialRef string   `json:"credential_ref" yaml:"credential_ref"`
	Regions       []string `json:"regions,omitempty" yaml:"regions,omitempty"`
}

// Key returns a stable identity for the account within a scan.
func (a CloudAccount) Key() string {
	return string(a.Provider) + "/" + a.AccountID
}

// TimeRange is the metric query window, inclusive of Start, exclusive of End.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LastDays returns a window covering the last n days ending now.
func LastDays(n int) TimeRange {
	now := time.Now().UTC()
	return TimeRange{Start: now.AddDate(0, 0, -n), End: now}
}

// Duration returns the window length.
func (t TimeRange) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// ScanRequest is the inbound boundary object submitted by the API layer.
type ScanRequest struct {
	Accounts []CloudAccount `json:"accounts"`
	Window   TimeRange      `json:"window"`
	Options  ScanOptions    `json:"options"`
}

// ScanOptions tunes a single scan run.
type ScanOptions struct {
	// MetricsConcurrency bounds in-flight metric fetches. Zero means default.
	MetricsConcurrency int `json:"metrics_concurrency,omitempty"`
	// StageTimeout applies to each pipeline stage. Zero means default.
	StageTimeout time.Duration `json:"stage_timeout,omitempty"`
	// ScanTimeout bounds the whole scan. Zero means no overall limit.
	ScanTimeout time.Duration `json:"scan_timeout,omitempty"`
	// Regions narrows discovery; empty means all configured regions.
	Regions []string `json:"regions,omitempty"`
	// Kinds narrows discovery by vendor resource kind; empty means all.
	Kinds []string `json:"kinds,omitempty"`
}
