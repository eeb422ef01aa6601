package types

// Money is a currency-tagged amount. Amounts in reports are monthly figures.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// USD builds a dollar amount.
func USD(amount float64) Money {
	return Money{Amount: amount, Currency: "USD"}
}

// PricingModel is the purchase model a cost estimate assumed.
type PricingModel string

const (
	PricingOnDemand PricingModel = "on_demand"
	PricingReserved PricingModel = "reserved"
	PricingSpot     PricingModel = "spot"
)

// Confidence qualifies how a cost estimate was produced.
type Confidence string

const (
	// ConfidenceExact means the pricing table had an exact SKU match.
	ConfidenceExact Confidence = "exact"
	// ConfidenceEstimated means a same-family size class was substituted.
	ConfidenceEstimated Confidence = "estimated"
	// ConfidenceLow means a family-average or no pricing data was used.
	ConfidenceLow Confidence = "low"
)

// PricedResource is a NormalizedResource plus its monthly cost estimate.
// MonthlyCost.Amount is always >= 0; a pricing miss yields zero cost and
// ConfidenceLow rather than an error.
type PricedResource struct {
	Resource     NormalizedResource `json:"resource"`
	MonthlyCost  Money              `json:"monthly_cost"`
	PricingModel PricingModel       `json:"pricing_model"`
	Confidence   Confidence         `json:"confidence"`
}
