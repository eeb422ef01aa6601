package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/types"
)

type stubAdapter struct {
	provider types.Provider
	records  []types.RawResourceRecord
	err      error
}

func (s *stubAdapter) ListResources(ctx context.Context, account types.CloudAccount, filter adapters.Filter) ([]types.RawResourceRecord, error) {
	return s.records, s.err
}

func (s *stubAdapter) GetMetrics(ctx context.Context, resource types.NormalizedResource, names []types.MetricName, window types.TimeRange) ([]types.MetricSample, error) {
	return nil, nil
}

func (s *stubAdapter) Provider() types.Provider { return s.provider }

func adapterMap(m map[string]adapters.Adapter) AdapterFunc {
	return func(ctx context.Context, account types.CloudAccount) (adapters.Adapter, error) {
		a, ok := m[account.Key()]
		if !ok {
			return nil, errors.New("no adapter")
		}
		return a, nil
	}
}

func record(provider types.Provider, kind, id string, tags map[string]string) types.RawResourceRecord {
	return types.RawResourceRecord{
		Provider:     provider,
		Kind:         kind,
		NativeID:     id,
		Region:       "us-east-1",
		Tags:         tags,
		State:        types.StateRunning,
		DiscoveredAt: time.Now().UTC(),
	}
}

func TestDiscover_NormalizesKinds(t *testing.T) {
	account := types.CloudAccount{Provider: types.ProviderAWS, AccountID: "111"}
	d := NewDiscoverer().WithAdapterFunc(adapterMap(map[string]adapters.Adapter{
		account.Key(): &stubAdapter{provider: types.ProviderAWS, records: []types.RawResourceRecord{
			record(types.ProviderAWS, "ec2_instance", "i-1", nil),
			record(types.ProviderAWS, "ebs_volume", "vol-1", nil),
			record(types.ProviderAWS, "something_new", "x-1", nil),
		}},
	}))

	resources, errs := d.Discover(context.Background(), []types.CloudAccount{account})
	require.Empty(t, errs)
	require.Len(t, resources, 3)

	byID := map[types.ResourceID]types.NormalizedResource{}
	for _, r := range resources {
		byID[r.ID] = r
	}
	assert.Equal(t, types.ResourceCompute, byID["aws/i-1"].Type)
	assert.Equal(t, types.ResourceBlockStorage, byID["aws/vol-1"].Type)
	assert.Equal(t, types.ResourceOther, byID["aws/x-1"].Type, "unknown kinds map to Other, never fail")
	assert.Equal(t, account.Key(), byID["aws/i-1"].AccountKey)
}

func TestDiscover_DeduplicatesAndMergesTags(t *testing.T) {
	account := types.CloudAccount{Provider: types.ProviderAWS, AccountID: "111"}
	d := NewDiscoverer().WithAdapterFunc(adapterMap(map[string]adapters.Adapter{
		account.Key(): &stubAdapter{provider: types.ProviderAWS, records: []types.RawResourceRecord{
			record(types.ProviderAWS, "ec2_instance", "i-1", map[string]string{"team": "platform"}),
			record(types.ProviderAWS, "ec2_instance", "i-1", map[string]string{"team": "data", "env": "prod"}),
		}},
	}))

	resources, errs := d.Discover(context.Background(), []types.CloudAccount{account})
	require.Empty(t, errs)
	require.Len(t, resources, 1, "at most one resource per (provider, native ID)")

	got := resources[0]
	assert.Equal(t, "platform", got.Tags["team"], "first-seen tag value wins")
	assert.Equal(t, "prod", got.Tags["env"], "later-arriving tags are merged in")
}

func TestDiscover_PartialFailureKeepsHealthyAccounts(t *testing.T) {
	healthy1 := types.CloudAccount{Provider: types.ProviderAWS, AccountID: "111"}
	broken := types.CloudAccount{Provider: types.ProviderAzure, AccountID: "222"}
	healthy2 := types.CloudAccount{Provider: types.ProviderGCP, AccountID: "333"}

	d := NewDiscoverer().WithAdapterFunc(adapterMap(map[string]adapters.Adapter{
		healthy1.Key(): &stubAdapter{provider: types.ProviderAWS, records: []types.RawResourceRecord{
			record(types.ProviderAWS, "ec2_instance", "i-1", nil),
		}},
		broken.Key(): &stubAdapter{provider: types.ProviderAzure, err: &adapters.AdapterError{
			Provider: types.ProviderAzure, Op: "list", Cause: errors.New("403 forbidden"),
		}},
		healthy2.Key(): &stubAdapter{provider: types.ProviderGCP, records: []types.RawResourceRecord{
			record(types.ProviderGCP, "compute_instance", "42", nil),
		}},
	}))

	resources, errs := d.Discover(context.Background(),
		[]types.CloudAccount{healthy1, broken, healthy2})

	assert.Len(t, resources, 2)
	require.Len(t, errs, 1)
	assert.Equal(t, broken.Key(), errs[0].AccountKey)
	assert.Equal(t, types.StageDiscovery, errs[0].Stage)
}

func TestDiscover_AllAccountsFail(t *testing.T) {
	account := types.CloudAccount{Provider: types.ProviderAWS, AccountID: "111"}
	d := NewDiscoverer().WithAdapterFunc(adapterMap(map[string]adapters.Adapter{}))

	resources, errs := d.Discover(context.Background(), []types.CloudAccount{account})
	assert.Empty(t, resources)
	assert.Len(t, errs, 1)
}
