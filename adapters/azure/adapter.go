package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/sql/armsql"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/telemetry"
	"github.com/kulucloud/kulu/types"
)

// Vendor resource kinds this adapter emits.
const (
	KindVirtualMachine = "virtual_machine"
	KindManagedDisk    = "managed_disk"
	KindStorageAccount = "storage_account"
	KindSQLServer      = "sql_server"
)

func init() {
	adapters.Register(types.ProviderAzure, NewFactory)
}

// NewFactory builds an Azure adapter for the subscription named by the
// account ID, authenticating through the default credential chain.
func NewFactory(ctx context.Context, account types.CloudAccount) (adapters.Adapter, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	subscriptionID := account.AccountID

	// The backoff wrapper owns the retry budget; the SDK's built-in retry
	// policy would stack on top of it, so it is switched off.
	clientOpts := &arm.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: -1},
		},
	}

	vmClient, err := armcompute.NewVirtualMachinesClient(subscriptionID, cred, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create VM client: %w", err)
	}
	diskClient, err := armcompute.NewDisksClient(subscriptionID, cred, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk client: %w", err)
	}
	storageClient, err := armstorage.NewAccountsClient(subscriptionID, cred, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	sqlClient, err := armsql.NewServersClient(subscriptionID, cred, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQL client: %w", err)
	}
	metricsClient, err := armmonitor.NewMetricsClient(subscriptionID, cred, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %w", err)
	}

	return &Adapter{
		account: account,
		vms:     &vmPagerLister{client: vmClient},
		disks:   &diskPagerLister{client: diskClient},
		storage: &storagePagerLister{client: storageClient},
		sql:     &sqlPagerLister{client: sqlClient},
		metrics: &monitorMetricsAPI{client: metricsClient},
		notify:  telemetry.ObserveRetry,
	}, nil
}

// Listing interfaces flatten the ARM pagers so tests can substitute fixed
// result sets.
type (
	vmLister interface {
		ListAll(ctx context.Context) ([]*armcompute.VirtualMachine, error)
	}
	diskLister interface {
		ListAll(ctx context.Context) ([]*armcompute.Disk, error)
	}
	storageLister interface {
		ListAll(ctx context.Context) ([]*armstorage.Account, error)
	}
	sqlLister interface {
		ListAll(ctx context.Context) ([]*armsql.Server, error)
	}
)

// Adapter implements the scan contract over the Azure resource managers.
type Adapter struct {
	account types.CloudAccount
	vms     vmLister
	disks   diskLister
	storage storageLister
	sql     sqlLister
	metrics metricsAPI
	notify  adapters.RetryNotify
}

// Provider reports azure.
func (a *Adapter) Provider() types.Provider {
	return types.ProviderAzure
}

// SetRetryNotify installs a backoff observer, used by telemetry.
func (a *Adapter) SetRetryNotify(fn adapters.RetryNotify) {
	a.notify = fn
}

// ListResources enumerates VMs, managed disks, storage accounts, and SQL
// servers across the subscription.
func (a *Adapter) ListResources(ctx context.Context, account types.CloudAccount, filter adapters.Filter) ([]types.RawResourceRecord, error) {
	var records []types.RawResourceRecord

	collect := func(kind string, list func(ctx context.Context) ([]types.RawResourceRecord, error)) error {
		if !filter.MatchesKind(kind) {
			return nil
		}
		recs, err := adapters.WithRetry(ctx, types.ProviderAzure, kind+".list", a.notify, list)
		if err != nil {
			return err
		}
		for _, r := range recs {
			if filter.MatchesRegion(r.Region) {
				records = append(records, r)
			}
		}
		return nil
	}

	if err := collect(KindVirtualMachine, a.listVirtualMachines); err != nil {
		return nil, err
	}
	if err := collect(KindManagedDisk, a.listDisks); err != nil {
		return nil, err
	}
	if err := collect(KindStorageAccount, a.listStorageAccounts); err != nil {
		return nil, err
	}
	if err := collect(KindSQLServer, a.listSQLServers); err != nil {
		return nil, err
	}
	return records, nil
}

func convertAzureTags(tags map[string]*string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
