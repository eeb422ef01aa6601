// Package pricing converts normalized resources into monthly cost
// estimates through per-type calculators over static rate tables. Pure
// lookups only; nothing here touches the network.
package pricing

import (
	"fmt"
	"sync"

	"github.com/kulucloud/kulu/types"
)

// hoursPerMonth is the industry-standard flat month used for hourly rates.
const hoursPerMonth = 730

// reservedFactor approximates a 1-year no-upfront reservation against the
// on-demand rate.
const reservedFactor = 0.62

// Calculator turns one resource's attributes into a monthly estimate.
// Implementations must be deterministic and free of I/O.
type Calculator interface {
	Calculate(r types.NormalizedResource) (types.Money, types.PricingModel, types.Confidence)
}

type calcKey struct {
	provider types.Provider
	kind     types.ResourceType
}

// Engine dispatches resources to registered calculators by provider and
// resource type. The registry is the extension point for new resource
// types; orchestration code never changes when one is added.
type Engine struct {
	table *Table

	mu          sync.RWMutex
	calculators map[calcKey]Calculator
}

// NewEngine builds an engine over a rate table with the default
// calculator set registered for every provider.
func NewEngine(table *Table) *Engine {
	e := &Engine{
		table:       table,
		calculators: make(map[calcKey]Calculator),
	}
	for _, p := range []types.Provider{types.ProviderAWS, types.ProviderAzure, types.ProviderGCP} {
		e.Register(p, types.ResourceCompute, &computeCalculator{table: table, provider: p})
		e.Register(p, types.ResourceBlockStorage, &storageCalculator{table: table, provider: p, kind: types.ResourceBlockStorage})
		e.Register(p, types.ResourceObjectStorage, &storageCalculator{table: table, provider: p, kind: types.ResourceObjectStorage})
		e.Register(p, types.ResourceManagedDatabase, &databaseCalculator{table: table, provider: p})
		e.Register(p, types.ResourceLoadBalancer, &loadBalancerCalculator{table: table, provider: p})
	}
	return e
}

// NewDefaultEngine builds an engine over the embedded rate tables.
func NewDefaultEngine() (*Engine, error) {
	table, err := LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("loading pricing tables: %w", err)
	}
	return NewEngine(table), nil
}

// Register installs a calculator for one provider and resource type,
// replacing any previous registration.
func (e *Engine) Register(provider types.Provider, kind types.ResourceType, calc Calculator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calculators[calcKey{provider, kind}] = calc
}

// Table exposes the engine's read-only rate table.
func (e *Engine) Table() *Table { return e.table }

// Price estimates one resource's monthly cost. A missing calculator or a
// total pricing miss yields zero cost at low confidence, never an error.
func (e *Engine) Price(r types.NormalizedResource) types.PricedResource {
	e.mu.RLock()
	calc, ok := e.calculators[calcKey{r.Provider, r.Type}]
	e.mu.RUnlock()
	if !ok {
		return types.PricedResource{
			Resource:     r,
			MonthlyCost:  types.USD(0),
			PricingModel: types.PricingOnDemand,
			Confidence:   types.ConfidenceLow,
		}
	}
	cost, model, confidence := calc.Calculate(r)
	if cost.Amount < 0 {
		cost.Amount = 0
	}
	return types.PricedResource{
		Resource:     r,
		MonthlyCost:  cost,
		PricingModel: model,
		Confidence:   confidence,
	}
}

// PriceAll prices every resource and totals the estimates.
func (e *Engine) PriceAll(resources []types.NormalizedResource) ([]types.PricedResource, types.Money) {
	out := make([]types.PricedResource, 0, len(resources))
	total := types.USD(0)
	for _, r := range resources {
		priced := e.Price(r)
		out = append(out, priced)
		total.Amount += priced.MonthlyCost.Amount
	}
	return out, total
}

// ReservedMonthly estimates the resource's monthly cost under a 1-year
// reservation. Only meaningful for compute and managed databases priced
// above zero; ok=false otherwise.
func (e *Engine) ReservedMonthly(r types.NormalizedResource) (types.Money, bool) {
	if r.Type != types.ResourceCompute && r.Type != types.ResourceManagedDatabase {
		return types.Money{}, false
	}
	onDemand := e.Price(r)
	if onDemand.MonthlyCost.Amount <= 0 {
		return types.Money{}, false
	}
	reserved := onDemand.MonthlyCost
	reserved.Amount *= reservedFactor
	return reserved, true
}

// resolveRate walks the fallback chain for a SKU: exact match, then same
// family rounded up, then family average. Deterministic for a fixed table.
func resolveRate(table *Table, provider types.Provider, kind types.ResourceType, sku, region string) (float64, types.Confidence, bool) {
	if rate, ok := table.Rate(provider, kind, sku, region); ok {
		return rate, types.ConfidenceExact, true
	}
	if rate, _, ok := table.FamilyRoundUp(provider, kind, sku, region); ok {
		return rate, types.ConfidenceEstimated, true
	}
	if rate, ok := table.FamilyAverage(provider, kind, sku, region); ok {
		return rate, types.ConfidenceLow, true
	}
	return 0, types.ConfidenceLow, false
}

// computeCalculator prices instances at hourly rate x 730. Stopped
// instances accrue no compute charge; their disks are priced separately
// as block storage.
type computeCalculator struct {
	table    *Table
	provider types.Provider
}

func (c *computeCalculator) Calculate(r types.NormalizedResource) (types.Money, types.PricingModel, types.Confidence) {
	if r.State != types.StateRunning {
		return types.USD(0), types.PricingOnDemand, types.ConfidenceExact
	}
	rate, confidence, ok := resolveRate(c.table, c.provider, types.ResourceCompute, r.Attributes.InstanceType, r.Region)
	if !ok {
		return types.USD(0), types.PricingOnDemand, types.ConfidenceLow
	}
	return types.USD(rate * hoursPerMonth), types.PricingOnDemand, confidence
}

// storageCalculator prices block and object storage at a per GB-month
// rate keyed by volume type or storage class.
type storageCalculator struct {
	table    *Table
	provider types.Provider
	kind     types.ResourceType
}

func (c *storageCalculator) Calculate(r types.NormalizedResource) (types.Money, types.PricingModel, types.Confidence) {
	sku := r.Attributes.VolumeType
	if c.kind == types.ResourceObjectStorage {
		sku = r.Attributes.StorageClass
	}
	rate, ok := c.table.Rate(c.provider, c.kind, sku, r.Region)
	if !ok {
		return types.USD(0), types.PricingOnDemand, types.ConfidenceLow
	}
	if r.Attributes.StorageGB <= 0 {
		// Size unknown (object stores do not report it from listing
		// calls); rate exists but the estimate cannot.
		return types.USD(0), types.PricingOnDemand, types.ConfidenceLow
	}
	return types.USD(rate * float64(r.Attributes.StorageGB)), types.PricingOnDemand, types.ConfidenceExact
}

// databaseCalculator prices managed database instances hourly, doubled
// for multi-AZ deployments.
type databaseCalculator struct {
	table    *Table
	provider types.Provider
}

func (c *databaseCalculator) Calculate(r types.NormalizedResource) (types.Money, types.PricingModel, types.Confidence) {
	if r.State != types.StateRunning {
		return types.USD(0), types.PricingOnDemand, types.ConfidenceExact
	}
	rate, confidence, ok := resolveRate(c.table, c.provider, types.ResourceManagedDatabase, r.Attributes.InstanceType, r.Region)
	if !ok {
		return types.USD(0), types.PricingOnDemand, types.ConfidenceLow
	}
	monthly := rate * hoursPerMonth
	if r.Attributes.MultiAZ {
		monthly *= 2
	}
	// Storage rides on the block storage rate when the size is known.
	if r.Attributes.StorageGB > 0 {
		if gbRate, ok := c.table.Rate(c.provider, types.ResourceBlockStorage, "default", r.Region); ok {
			monthly += gbRate * float64(r.Attributes.StorageGB)
		}
	}
	return types.USD(monthly), types.PricingOnDemand, confidence
}

// loadBalancerCalculator prices load balancers at a flat monthly base
// rate per type, excluding per-LCU traffic charges.
type loadBalancerCalculator struct {
	table    *Table
	provider types.Provider
}

func (c *loadBalancerCalculator) Calculate(r types.NormalizedResource) (types.Money, types.PricingModel, types.Confidence) {
	sku := r.Attributes.LBType
	if sku == "" {
		sku = "default"
	}
	rate, ok := c.table.Rate(c.provider, types.ResourceLoadBalancer, sku, r.Region)
	if !ok {
		rate, ok = c.table.Rate(c.provider, types.ResourceLoadBalancer, "default", r.Region)
		if !ok {
			return types.USD(0), types.PricingOnDemand, types.ConfidenceLow
		}
		return types.USD(rate), types.PricingOnDemand, types.ConfidenceEstimated
	}
	return types.USD(rate), types.PricingOnDemand, types.ConfidenceExact
}
