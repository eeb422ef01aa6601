package azure

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/sql/armsql"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"

	"github.com/kulucloud/kulu/types"
)

type storagePagerLister struct {
	client *armstorage.AccountsClient
}

func (l *storagePagerLister) ListAll(ctx context.Context) ([]*armstorage.Account, error) {
	var out []*armstorage.Account
	pager := l.client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Value...)
	}
	return out, nil
}

type sqlPagerLister struct {
	client *armsql.ServersClient
}

func (l *sqlPagerLister) ListAll(ctx context.Context) ([]*armsql.Server, error) {
	var out []*armsql.Server
	pager := l.client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Value...)
	}
	return out, nil
}

func (a *Adapter) listStorageAccounts(ctx context.Context) ([]types.RawResourceRecord, error) {
	accounts, err := a.storage.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]types.RawResourceRecord, 0, len(accounts))
	for _, acct := range accounts {
		if acct == nil || acct.ID == nil {
			continue
		}
		attrs := map[string]string{}
		if acct.SKU != nil && acct.SKU.Name != nil {
			attrs[types.AttrStorageClass] = string(*acct.SKU.Name)
		}

		records = append(records, types.RawResourceRecord{
			Provider:     types.ProviderAzure,
			Kind:         KindStorageAccount,
			NativeID:     deref(acct.ID),
			Region:       deref(acct.Location),
			Attributes:   attrs,
			Tags:         convertAzureTags(acct.Tags),
			State:        types.StateRunning,
			DiscoveredAt: time.Now().UTC(),
		})
	}
	return records, nil
}

func (a *Adapter) listSQLServers(ctx context.Context) ([]types.RawResourceRecord, error) {
	servers, err := a.sql.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]types.RawResourceRecord, 0, len(servers))
	for _, srv := range servers {
		if srv == nil || srv.ID == nil {
			continue
		}
		attrs := map[string]string{
			types.AttrEngine: "sqlserver",
		}

		state := types.StateUnknown
		if srv.Properties != nil && srv.Properties.State != nil {
			switch *srv.Properties.State {
			case "Ready":
				state = types.StateRunning
			case "Disabled":
				state = types.StateStopped
			}
		}

		records = append(records, types.RawResourceRecord{
			Provider:     types.ProviderAzure,
			Kind:         KindSQLServer,
			NativeID:     deref(srv.ID),
			Region:       deref(srv.Location),
			Attributes:   attrs,
			Tags:         convertAzureTags(srv.Tags),
			State:        state,
			DiscoveredAt: time.Now().UTC(),
		})
	}
	return records, nil
}
