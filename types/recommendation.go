package types

// ActionKind is the kind of optimization action a recommendation proposes.
type ActionKind string

const (
	ActionDelete               ActionKind = "delete"
	ActionReserve              ActionKind = "reserve"
	ActionRightsize            ActionKind = "rightsize"
	ActionApplyLifecyclePolicy ActionKind = "apply_lifecycle_policy"
	ActionEnableAutoScaling    ActionKind = "enable_auto_scaling"
)

// RiskLevel grades how disruptive an action is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Recommendation is one ranked optimization action. Created once per
// qualifying resource per scan; never mutated after creation.
type Recommendation struct {
	ID               string     `json:"id"`
	ResourceID       ResourceID `json:"resource_id"`
	Action           ActionKind `json:"action"`
	ProjectedSavings Money      `json:"projected_savings"`
	Risk             RiskLevel  `json:"risk"`
	Rationale        string     `json:"rationale"`
}
