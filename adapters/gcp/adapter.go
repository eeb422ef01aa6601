package gcp

import (
	"context"
	"fmt"
	"strings"

	compute "cloud.google.com/go/compute/apiv1"
	gcs "cloud.google.com/go/storage"
	monitoring "google.golang.org/api/monitoring/v3"
	sqladmin "google.golang.org/api/sqladmin/v1beta4"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/telemetry"
	"github.com/kulucloud/kulu/types"
)

// Vendor resource kinds this adapter emits.
const (
	KindComputeInstance = "compute_instance"
	KindPersistentDisk  = "persistent_disk"
	KindStorageBucket   = "storage_bucket"
	KindCloudSQL        = "cloudsql_instance"
)

func init() {
	adapters.Register(types.ProviderGCP, NewFactory)
}

// NewFactory builds a GCP adapter for the project named by the account ID
// using application default credentials.
func NewFactory(ctx context.Context, account types.CloudAccount) (adapters.Adapter, error) {
	projectID := account.AccountID

	instancesClient, err := compute.NewInstancesRESTClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute instances client: %w", err)
	}
	disksClient, err := compute.NewDisksRESTClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute disks client: %w", err)
	}
	storageClient, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	sqlService, err := sqladmin.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create sqladmin service: %w", err)
	}
	monitoringService, err := monitoring.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create monitoring service: %w", err)
	}

	return &Adapter{
		account:   account,
		projectID: projectID,
		instances: &instancesAggregatedLister{client: instancesClient, projectID: projectID},
		disks:     &disksAggregatedLister{client: disksClient, projectID: projectID},
		buckets:   &bucketIteratorLister{client: storageClient, projectID: projectID},
		sql:       &sqlServiceLister{service: sqlService, projectID: projectID},
		series:    &monitoringSeriesAPI{service: monitoringService, projectID: projectID},
		notify:    telemetry.ObserveRetry,
	}, nil
}

// Adapter implements the scan contract over the GCP client libraries.
type Adapter struct {
	account   types.CloudAccount
	projectID string
	instances instanceLister
	disks     diskLister
	buckets   bucketLister
	sql       sqlLister
	series    seriesAPI
	notify    adapters.RetryNotify
}

// Provider reports gcp.
func (a *Adapter) Provider() types.Provider {
	return types.ProviderGCP
}

// SetRetryNotify installs a backoff observer, used by telemetry.
func (a *Adapter) SetRetryNotify(fn adapters.RetryNotify) {
	a.notify = fn
}

// ListResources enumerates compute instances, persistent disks, storage
// buckets, and Cloud SQL instances in the project.
func (a *Adapter) ListResources(ctx context.Context, account types.CloudAccount, filter adapters.Filter) ([]types.RawResourceRecord, error) {
	var records []types.RawResourceRecord

	collect := func(kind string, list func(ctx context.Context) ([]types.RawResourceRecord, error)) error {
		if !filter.MatchesKind(kind) {
			return nil
		}
		recs, err := adapters.WithRetry(ctx, types.ProviderGCP, kind+".list", a.notify, list)
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

	if err := collect(KindComputeInstance, a.listInstances); err != nil {
		return nil, err
	}
	if err := collect(KindPersistentDisk, a.listDisks); err != nil {
		return nil, err
	}
	if err := collect(KindStorageBucket, a.listBuckets); err != nil {
		return nil, err
	}
	if err := collect(KindCloudSQL, a.listSQLInstances); err != nil {
		return nil, err
	}
	return records, nil
}

// regionFromZone maps "us-central1-a" to "us-central1".
func regionFromZone(zone string) string {
	if idx := strings.LastIndex(zone, "-"); idx > 0 {
		return zone[:idx]
	}
	return zone
}

// lastPathSegment strips the URL prefix GCE puts on zone and machine-type
// references.
func lastPathSegment(url string) string {
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		return url[idx+1:]
	}
	return url
}
