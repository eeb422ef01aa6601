package gcp

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/compute/apiv1/computepb"
	gcs "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	monitoring "google.golang.org/api/monitoring/v3"
	sqladmin "google.golang.org/api/sqladmin/v1beta4"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/types"
)

func ptr[T any](v T) *T { return &v }

type fakeInstances struct{ instances []*computepb.Instance }

func (f *fakeInstances) List(ctx context.Context) ([]*computepb.Instance, error) {
	return f.instances, nil
}

type fakeDisks struct{ disks []*computepb.Disk }

func (f *fakeDisks) List(ctx context.Context) ([]*computepb.Disk, error) {
	return f.disks, nil
}

type fakeBuckets struct{ buckets []*gcs.BucketAttrs }

func (f *fakeBuckets) List(ctx context.Context) ([]*gcs.BucketAttrs, error) {
	return f.buckets, nil
}

type fakeSQL struct{ instances []*sqladmin.DatabaseInstance }

func (f *fakeSQL) List(ctx context.Context) ([]*sqladmin.DatabaseInstance, error) {
	return f.instances, nil
}

type fakeSeries struct{ series []*monitoring.TimeSeries }

func (f *fakeSeries) List(ctx context.Context, filter string, window types.TimeRange) ([]*monitoring.TimeSeries, error) {
	return f.series, nil
}

func testAdapter() *Adapter {
	return &Adapter{
		account:   types.CloudAccount{Provider: types.ProviderGCP, AccountID: "proj-1"},
		projectID: "proj-1",
		instances: &fakeInstances{instances: []*computepb.Instance{{
			Id:          ptr(uint64(12345)),
			Name:        ptr("web-1"),
			MachineType: ptr("https://compute.googleapis.com/v1/projects/proj-1/zones/us-central1-a/machineTypes/e2-standard-4"),
			Zone:        ptr("https://compute.googleapis.com/v1/projects/proj-1/zones/us-central1-a"),
			Status:      ptr("RUNNING"),
			Labels:      map[string]string{"env": "prod"},
		}}},
		disks: &fakeDisks{disks: []*computepb.Disk{{
			Id:     ptr(uint64(67890)),
			Name:   ptr("data-1"),
			SizeGb: ptr(int64(200)),
			Type:   ptr("https://compute.googleapis.com/v1/projects/proj-1/zones/us-central1-a/diskTypes/pd-ssd"),
			Zone:   ptr("https://compute.googleapis.com/v1/projects/proj-1/zones/us-central1-a"),
		}}},
		buckets: &fakeBuckets{buckets: []*gcs.BucketAttrs{{
			Name:         "logs-bucket",
			Location:     "US-CENTRAL1",
			StorageClass: "STANDARD",
		}}},
		sql:    &fakeSQL{},
		series: &fakeSeries{},
	}
}

func TestListResources_ConvertsAllKinds(t *testing.T) {
	a := testAdapter()

	records, err := a.ListResources(context.Background(), a.account, adapters.Filter{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	byKind := map[string]types.RawResourceRecord{}
	for _, r := range records {
		byKind[r.Kind] = r
	}

	inst := byKind[KindComputeInstance]
	assert.Equal(t, "12345", inst.NativeID)
	assert.Equal(t, "e2-standard-4", inst.Attributes[types.AttrInstanceType])
	assert.Equal(t, "us-central1", inst.Region)
	assert.Equal(t, types.StateRunning, inst.State)

	disk := byKind[KindPersistentDisk]
	assert.Equal(t, "pd-ssd", disk.Attributes[types.AttrVolumeType])
	assert.Equal(t, "200", disk.Attributes[types.AttrStorageGB])
	assert.Equal(t, "false", disk.Attributes[types.AttrAttached])

	bucket := byKind[KindStorageBucket]
	assert.Equal(t, "us-central1", bucket.Region)
	assert.Equal(t, "STANDARD", bucket.Attributes[types.AttrStorageClass])
}

func TestGetMetrics_ScalesCPUFractionToPercent(t *testing.T) {
	a := testAdapter()
	a.series = &fakeSeries{series: []*monitoring.TimeSeries{{
		Points: []*monitoring.Point{{
			Interval: &monitoring.TimeInterval{EndTime: "2025-06-01T12:00:00Z"},
			Value:    &monitoring.TypedValue{DoubleValue: ptr(0.02)},
		}},
	}}}

	resource := types.NormalizedResource{
		ID:       types.MakeResourceID(types.ProviderGCP, "12345"),
		Kind:     KindComputeInstance,
		NativeID: "12345",
	}

	samples, err := a.GetMetrics(context.Background(), resource,
		[]types.MetricName{types.MetricCPUUtilization}, types.LastDays(14))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.InDelta(t, 2.0, samples[0].Value, 0.001)
	assert.Equal(t, types.UnitPercent, samples[0].Unit)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), samples[0].Timestamp)
}

func TestGetMetrics_BucketHasNoTelemetry(t *testing.T) {
	a := testAdapter()
	resource := types.NormalizedResource{Kind: KindStorageBucket}

	samples, err := a.GetMetrics(context.Background(), resource,
		[]types.MetricName{types.MetricCPUUtilization}, types.LastDays(14))
	require.NoError(t, err)
	assert.Empty(t, samples)
}
