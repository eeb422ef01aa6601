// Package recommend evaluates priced resources against an ordered rule
// set and emits optimization recommendations. Rule order is priority:
// the first rule that fires on a resource wins and no later rule runs on
// it, so a resource never carries both a delete and a rightsize action.
package recommend

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kulucloud/kulu/pricing"
	"github.com/kulucloud/kulu/types"
)

// IdleCPUThreshold is the average CPU percentage below which a running
// instance counts as idle over the metric window.
const IdleCPUThreshold = 10.0

// burstRatio is the peak-to-average CPU ratio past which a workload
// looks spiky enough for autoscaling to pay off.
const burstRatio = 2.0

// Rule evaluates one resource. It returns the proposal and true when the
// rule fires. Rules needing utilization data must not fire when the
// resource has no samples; missing metrics is not a fault.
type Rule interface {
	Action() types.ActionKind
	Evaluate(r types.PricedResource, set *types.MetricSet) (Proposal, bool)
}

// Proposal is a rule's raw output before savings clamping and ID
// assignment.
type Proposal struct {
	Savings   types.Money
	Risk      types.RiskLevel
	Rationale string
}

// Engine holds the rule set in priority order.
type Engine struct {
	rules []Rule
}

// NewEngine builds the default rule set over a pricing engine:
// Delete > Reserve > Rightsize > ApplyLifecyclePolicy > EnableAutoScaling.
func NewEngine(pricer *pricing.Engine) *Engine {
	return &Engine{rules: []Rule{
		&deleteRule{},
		&reserveRule{pricer: pricer},
		&rightsizeRule{pricer: pricer},
		&lifecycleRule{},
		&autoScalingRule{},
	}}
}

// NewEngineWithRules builds an engine over an explicit ordering. The
// slice order is the priority order.
func NewEngineWithRules(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Recommend evaluates every resource against the rule set. At most one
// recommendation per resource; proposals whose projected savings come
// out negative are suppressed rather than clamped into nonsense.
func (e *Engine) Recommend(priced []types.PricedResource, set *types.MetricSet) []types.Recommendation {
	out := make([]types.Recommendation, 0)
	for _, pr := range priced {
		for _, rule := range e.rules {
			proposal, ok := rule.Evaluate(pr, set)
			if !ok {
				continue
			}
			if proposal.Savings.Amount < 0 {
				break // costs more than it saves; emit nothing for this resource
			}
			if proposal.Savings.Currency == "" {
				proposal.Savings.Currency = "USD"
			}
			out = append(out, types.Recommendation{
				ID:               uuid.New().String(),
				ResourceID:       pr.Resource.ID,
				Action:           rule.Action(),
				ProjectedSavings: proposal.Savings,
				Risk:             proposal.Risk,
				Rationale:        proposal.Rationale,
			})
			break
		}
	}
	return out
}

// deleteRule flags resources that accrue cost without doing work:
// unattached block storage and long-stopped instances. Metric
// independent, so it still fires on resources with no samples.
type deleteRule struct{}

func (r *deleteRule) Action() types.ActionKind { return types.ActionDelete }

func (r *deleteRule) Evaluate(pr types.PricedResource, _ *types.MetricSet) (Proposal, bool) {
	res := pr.Resource
	switch {
	case res.Type == types.ResourceBlockStorage && !res.Attributes.Attached:
		return Proposal{
			Savings: pr.MonthlyCost,
			Risk:    types.RiskMedium,
			Rationale: fmt.Sprintf("volume %s is not attached to any instance; deleting it recovers its full monthly cost",
				res.NativeID),
		}, true
	case res.Type == types.ResourceCompute && res.State == types.StateStopped:
		return Proposal{
			Savings: pr.MonthlyCost,
			Risk:    types.RiskHigh,
			Rationale: fmt.Sprintf("instance %s is stopped; terminate it (and its disks) if it is no longer needed",
				res.NativeID),
		}, true
	}
	return Proposal{}, false
}

// reserveRule proposes a 1-year reservation for running instances whose
// utilization shows they are kept on despite being idle: the workload is
// steady, so a reserved rate beats on-demand.
type reserveRule struct {
	pricer *pricing.Engine
}

func (r *reserveRule) Action() types.ActionKind { return types.ActionReserve }

func (r *reserveRule) Evaluate(pr types.PricedResource, set *types.MetricSet) (Proposal, bool) {
	res := pr.Resource
	if res.Type != types.ResourceCompute || res.State != types.StateRunning {
		return Proposal{}, false
	}
	avg, ok := set.Average(res.ID, types.MetricCPUUtilization)
	if !ok || avg >= IdleCPUThreshold {
		return Proposal{}, false
	}
	reserved, ok := r.pricer.ReservedMonthly(res)
	if !ok {
		return Proposal{}, false
	}
	savings := pr.MonthlyCost
	savings.Amount -= reserved.Amount
	return Proposal{
		Savings: savings,
		Risk:    types.RiskLow,
		Rationale: fmt.Sprintf("instance %s averaged %.1f%% CPU over the window; a 1-year reservation cuts its steady-state cost",
			res.NativeID, avg),
	}, true
}

// rightsizeRule proposes stepping an idle instance down one size within
// its family. Savings come from pricing the downsized configuration.
type rightsizeRule struct {
	pricer *pricing.Engine
}

func (r *rightsizeRule) Action() types.ActionKind { return types.ActionRightsize }

func (r *rightsizeRule) Evaluate(pr types.PricedResource, set *types.MetricSet) (Proposal, bool) {
	res := pr.Resource
	if res.Type != types.ResourceCompute || res.State != types.StateRunning {
		return Proposal{}, false
	}
	avg, ok := set.Average(res.ID, types.MetricCPUUtilization)
	if !ok || avg >= IdleCPUThreshold {
		return Proposal{}, false
	}
	smaller, ok := r.pricer.Table().FamilyStepDown(res.Provider, types.ResourceCompute, res.Attributes.InstanceType)
	if !ok {
		return Proposal{}, false
	}
	target := res
	target.Attributes.InstanceType = smaller
	targetCost := r.pricer.Price(target).MonthlyCost

	savings := pr.MonthlyCost
	savings.Amount -= targetCost.Amount
	return Proposal{
		Savings: savings,
		Risk:    types.RiskMedium,
		Rationale: fmt.Sprintf("instance %s averaged %.1f%% CPU over the window; downsizing %s to %s fits the observed load",
			res.NativeID, avg, res.Attributes.InstanceType, smaller),
	}, true
}

// lifecycleRule proposes storage-class lifecycle transitions for object
// stores sitting in a hot tier. Metric independent.
type lifecycleRule struct{}

// hotTiers are the storage classes a lifecycle policy can transition out of.
var hotTiers = map[string]bool{
	"STANDARD":     true,
	"Standard_LRS": true,
	"Standard_GRS": true,
}

func (r *lifecycleRule) Action() types.ActionKind { return types.ActionApplyLifecyclePolicy }

func (r *lifecycleRule) Evaluate(pr types.PricedResource, _ *types.MetricSet) (Proposal, bool) {
	res := pr.Resource
	if res.Type != types.ResourceObjectStorage || !hotTiers[res.Attributes.StorageClass] {
		return Proposal{}, false
	}
	// Roughly half the hot-tier rate after transitioning cold objects.
	savings := pr.MonthlyCost
	savings.Amount *= 0.5
	return Proposal{
		Savings: savings,
		Risk:    types.RiskLow,
		Rationale: fmt.Sprintf("bucket %s stores everything in the %s tier; a lifecycle policy moving cold objects to an archival class halves storage cost",
			res.NativeID, res.Attributes.StorageClass),
	}, true
}

// autoScalingRule flags running instances whose CPU is spiky: peak well
// above average means capacity is sized for bursts it rarely serves.
type autoScalingRule struct{}

func (r *autoScalingRule) Action() types.ActionKind { return types.ActionEnableAutoScaling }

func (r *autoScalingRule) Evaluate(pr types.PricedResource, set *types.MetricSet) (Proposal, bool) {
	res := pr.Resource
	if res.Type != types.ResourceCompute || res.State != types.StateRunning {
		return Proposal{}, false
	}
	avg, ok := set.Average(res.ID, types.MetricCPUUtilization)
	if !ok || avg <= 0 {
		return Proposal{}, false
	}
	var peak float64
	for _, s := range set.For(res.ID) {
		if s.Name == types.MetricCPUUtilization && s.Value > peak {
			peak = s.Value
		}
	}
	if peak/avg < burstRatio {
		return Proposal{}, false
	}
	return Proposal{
		Savings: types.USD(0),
		Risk:    types.RiskMedium,
		Rationale: fmt.Sprintf("instance %s peaks at %.0f%% CPU against a %.1f%% average; an autoscaling group sized to the average would absorb the bursts",
			res.NativeID, peak, avg),
	}, true
}
