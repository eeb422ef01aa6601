package adapters

import (
	"context"
	"fmt"
	"sync"

	"github.com/kulucloud/kulu/types"
)

// Filter narrows a ListResources call. Empty fields mean no narrowing.
type Filter struct {
	Regions []string
	Kinds   []string
}

// MatchesRegion reports whether a region passes the filter.
func (f Filter) MatchesRegion(region string) bool {
	if len(f.Regions) == 0 {
		return true
	}
	for _, r := range f.Regions {
		if r == region {
			return true
		}
	}
	return false
}

// MatchesKind reports whether a vendor resource kind passes the filter.
func (f Filter) MatchesKind(kind string) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Adapter wraps one vendor SDK behind the normalized scan contract.
// Adapters are stateless between calls beyond the credential handle and
// apply their own retry/backoff on transient failures.
type Adapter interface {
	// ListResources enumerates provider-native records for the account.
	ListResources(ctx context.Context, account types.CloudAccount, filter Filter) ([]types.RawResourceRecord, error)

	// GetMetrics fetches utilization samples for one resource over the
	// window. A resource with no telemetry returns an empty slice, not
	// an error.
	GetMetrics(ctx context.Context, resource types.NormalizedResource, names []types.MetricName, window types.TimeRange) ([]types.MetricSample, error)

	// Provider reports which cloud this adapter talks to.
	Provider() types.Provider
}

// Factory builds an adapter for one account, resolving the credential
// handle through the environment's default SDK chain.
type Factory func(ctx context.Context, account types.CloudAccount) (Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[types.Provider]Factory)
)

// Register installs a factory for a provider. Adapter packages call this
// from init.
func Register(provider types.Provider, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[provider] = factory
}

// ForAccount builds the adapter matching the account's provider.
func ForAccount(ctx context.Context, account types.CloudAccount) (Adapter, error) {
	registryMu.RLock()
	factory, ok := registry[account.Provider]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %q", account.Provider)
	}
	return factory(ctx, account)
}

// Registered returns the providers with an installed adapter factory.
func Registered() []types.Provider {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]types.Provider, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	return out
}
