package gcp

import (
	"context"
	"strconv"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	sqladmin "google.golang.org/api/sqladmin/v1beta4"

	"github.com/kulucloud/kulu/types"
)

type (
	bucketLister interface {
		List(ctx context.Context) ([]*gcs.BucketAttrs, error)
	}
	sqlLister interface {
		List(ctx context.Context) ([]*sqladmin.DatabaseInstance, error)
	}
)

type bucketIteratorLister struct {
	client    *gcs.Client
	projectID string
}

func (l *bucketIteratorLister) List(ctx context.Context) ([]*gcs.BucketAttrs, error) {
	var out []*gcs.BucketAttrs
	it := l.client.Buckets(ctx, l.projectID)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs)
	}
	return out, nil
}

type sqlServiceLister struct {
	service   *sqladmin.Service
	projectID string
}

func (l *sqlServiceLister) List(ctx context.Context) ([]*sqladmin.DatabaseInstance, error) {
	resp, err := l.service.Instances.List(l.projectID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *Adapter) listBuckets(ctx context.Context) ([]types.RawResourceRecord, error) {
	buckets, err := a.buckets.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]types.RawResourceRecord, 0, len(buckets))
	for _, bucket := range buckets {
		if bucket == nil {
			continue
		}
		records = append(records, types.RawResourceRecord{
			Provider: types.ProviderGCP,
			Kind:     KindStorageBucket,
			NativeID: bucket.Name,
			Region:   strings.ToLower(bucket.Location),
			Attributes: map[string]string{
				types.AttrStorageClass: bucket.StorageClass,
			},
			Tags:         bucket.Labels,
			State:        types.StateRunning,
			DiscoveredAt: time.Now().UTC(),
		})
	}
	return records, nil
}

func (a *Adapter) listSQLInstances(ctx context.Context) ([]types.RawResourceRecord, error) {
	instances, err := a.sql.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]types.RawResourceRecord, 0, len(instances))
	for _, inst := range instances {
		if inst == nil {
			continue
		}
		attrs := map[string]string{
			types.AttrEngine: strings.ToLower(inst.DatabaseVersion),
		}
		if inst.Settings != nil {
			attrs[types.AttrInstanceType] = inst.Settings.Tier
			attrs[types.AttrStorageGB] = strconv.FormatInt(inst.Settings.DataDiskSizeGb, 10)
		}

		state := types.StateUnknown
		switch inst.State {
		case "RUNNABLE":
			state = types.StateRunning
		case "SUSPENDED", "STOPPED":
			state = types.StateStopped
		case "PENDING_DELETE":
			state = types.StateTerminated
		}

		records = append(records, types.RawResourceRecord{
			Provider:     types.ProviderGCP,
			Kind:         KindCloudSQL,
			NativeID:     inst.Name,
			Region:       inst.Region,
			Attributes:   attrs,
			State:        state,
			DiscoveredAt: time.Now().UTC(),
		})
	}
	return records, nil
}
