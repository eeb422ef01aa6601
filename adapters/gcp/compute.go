package gcp

import (
	"context"
	"strconv"
	"time"

	compute "cloud.google.com/go/compute/apiv1"
	"cloud.google.com/go/compute/apiv1/computepb"
	"google.golang.org/api/iterator"

	"github.com/kulucloud/kulu/types"
)

// Listing interfaces flatten the aggregated-list iterators so tests can
// substitute fixed result sets.
type (
	instanceLister interface {
		List(ctx context.Context) ([]*computepb.Instance, error)
	}
	diskLister interface {
		List(ctx context.Context) ([]*computepb.Disk, error)
	}
)

type instancesAggregatedLister struct {
	client    *compute.InstancesClient
	projectID string
}

func (l *instancesAggregatedLister) List(ctx context.Context) ([]*computepb.Instance, error) {
	var out []*computepb.Instance
	it := l.client.AggregatedList(ctx, &computepb.AggregatedListInstancesRequest{
		Project: l.projectID,
	})
	for {
		pair, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, pair.Value.GetInstances()...)
	}
	return out, nil
}

type disksAggregatedLister struct {
	client    *compute.DisksClient
	projectID string
}

func (l *disksAggregatedLister) List(ctx context.Context) ([]*computepb.Disk, error) {
	var out []*computepb.Disk
	it := l.client.AggregatedList(ctx, &computepb.AggregatedListDisksRequest{
		Project: l.projectID,
	})
	for {
		pair, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, pair.Value.GetDisks()...)
	}
	return out, nil
}

func (a *Adapter) listInstances(ctx context.Context) ([]types.RawResourceRecord, error) {
	instances, err := a.instances.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]types.RawResourceRecord, 0, len(instances))
	for _, inst := range instances {
		if inst == nil {
			continue
		}
		attrs := map[string]string{
			types.AttrInstanceType: lastPathSegment(inst.GetMachineType()),
		}

		// GCE reports stopped instances as TERMINATED; the billing
		// distinction is whether the VM still holds capacity.
		state := types.StateUnknown
		switch inst.GetStatus() {
		case "RUNNING":
			state = types.StateRunning
		case "TERMINATED", "STOPPED", "SUSPENDED", "STOPPING":
			state = types.StateStopped
		}

		records = append(records, types.RawResourceRecord{
			Provider:     types.ProviderGCP,
			Kind:         KindComputeInstance,
			NativeID:     strconv.FormatUint(inst.GetId(), 10),
			Region:       regionFromZone(lastPathSegment(inst.GetZone())),
			Attributes:   attrs,
			Tags:         inst.GetLabels(),
			State:        state,
			DiscoveredAt: time.Now().UTC(),
		})
	}
	return records, nil
}

func (a *Adapter) listDisks(ctx context.Context) ([]types.RawResourceRecord, error) {
	disks, err := a.disks.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]types.RawResourceRecord, 0, len(disks))
	for _, disk := range disks {
		if disk == nil {
			continue
		}
		attached := len(disk.GetUsers()) > 0
		attrs := map[string]string{
			types.AttrVolumeType: lastPathSegment(disk.GetType()),
			types.AttrStorageGB:  strconv.FormatInt(disk.GetSizeGb(), 10),
			types.AttrAttached:   strconv.FormatBool(attached),
		}

		state := types.StateStopped
		if attached {
			state = types.StateRunning
		}

		records = append(records, types.RawResourceRecord{
			Provider:     types.ProviderGCP,
			Kind:         KindPersistentDisk,
			NativeID:     strconv.FormatUint(disk.GetId(), 10),
			Region:       regionFromZone(lastPathSegment(disk.GetZone())),
			Attributes:   attrs,
			Tags:         disk.GetLabels(),
			State:        state,
			DiscoveredAt: time.Now().UTC(),
		})
	}
	return records, nil
}
