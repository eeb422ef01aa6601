package azure

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v4"

	"github.com/kulucloud/kulu/types"
)

type vmPagerLister struct {
	client *armcompute.VirtualMachinesClient
}

func (l *vmPagerLister) ListAll(ctx context.Context) ([]*armcompute.VirtualMachine, error) {
	var out []*armcompute.VirtualMachine
	pager := l.client.NewListAllPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Value...)
	}
	return out, nil
}

type diskPagerLister struct {
	client *armcompute.DisksClient
}

func (l *diskPagerLister) ListAll(ctx context.Context) ([]*armcompute.Disk, error) {
	var out []*armcompute.Disk
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

func (a *Adapter) listVirtualMachines(ctx context.Context) ([]types.RawResourceRecord, error) {
	vms, err := a.vms.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]types.RawResourceRecord, 0, len(vms))
	for _, vm := range vms {
		if vm == nil || vm.ID == nil {
			continue
		}
		attrs := map[string]string{}
		if vm.Properties != nil && vm.Properties.HardwareProfile != nil && vm.Properties.HardwareProfile.VMSize != nil {
			attrs[types.AttrInstanceType] = string(*vm.Properties.HardwareProfile.VMSize)
		}

		state := types.StateUnknown
		if vm.Properties != nil && vm.Properties.ProvisioningState != nil {
			switch strings.ToLower(*vm.Properties.ProvisioningState) {
			case "succeeded":
				state = types.StateRunning
			case "deleting":
				state = types.StateTerminated
			case "failed":
				state = types.StateStopped
			}
		}

		records = append(records, types.RawResourceRecord{
			Provider:     types.ProviderAzure,
			Kind:         KindVirtualMachine,
			NativeID:     deref(vm.ID),
			Region:       deref(vm.Location),
			Attributes:   attrs,
			Tags:         convertAzureTags(vm.Tags),
			State:        state,
			DiscoveredAt: time.Now().UTC(),
		})
	}
	return records, nil
}

func (a *Adapter) listDisks(ctx context.Context) ([]types.RawResourceRecord, error) {
	disks, err := a.disks.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]types.RawResourceRecord, 0, len(disks))
	for _, disk := range disks {
		if disk == nil || disk.ID == nil {
			continue
		}
		attached := disk.ManagedBy != nil && *disk.ManagedBy != ""
		attrs := map[string]string{
			types.AttrAttached: strconv.FormatBool(attached),
		}
		if disk.Properties != nil && disk.Properties.DiskSizeGB != nil {
			attrs[types.AttrStorageGB] = strconv.FormatInt(int64(*disk.Properties.DiskSizeGB), 10)
		}
		if disk.SKU != nil && disk.SKU.Name != nil {
			attrs[types.AttrVolumeType] = string(*disk.SKU.Name)
		}

		state := types.StateStopped
		if attached {
			state = types.StateRunning
		}

		records = append(records, types.RawResourceRecord{
			Provider:     types.ProviderAzure,
			Kind:         KindManagedDisk,
			NativeID:     deref(disk.ID),
			Region:       deref(disk.Location),
			Attributes:   attrs,
			Tags:         convertAzureTags(disk.Tags),
			State:        state,
			DiscoveredAt: time.Now().UTC(),
		})
	}
	return records, nil
}
