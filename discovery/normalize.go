package discovery

import (
	"strconv"

	"github.com/kulucloud/kulu/types"
)

// Normalize converts a provider-native record into the canonical entity.
// The raw attribute bag is lifted into the typed attribute set; keys the
// canonical schema does not know are discarded with the raw record.
func Normalize(record types.RawResourceRecord, accountKey string) types.NormalizedResource {
	return types.NormalizedResource{
		ID:           types.MakeResourceID(record.Provider, record.NativeID),
		Provider:     record.Provider,
		NativeID:     record.NativeID,
		Type:         CanonicalType(record.Provider, record.Kind),
		Kind:         record.Kind,
		Region:       record.Region,
		AccountKey:   accountKey,
		Attributes:   liftAttributes(record.Attributes),
		Tags:         copyTags(record.Tags),
		State:        normalizeState(record.State),
		DiscoveredAt: record.DiscoveredAt,
	}
}

func liftAttributes(bag map[string]string) types.ResourceAttributes {
	var attrs types.ResourceAttributes
	if len(bag) == 0 {
		return attrs
	}

	attrs.InstanceType = bag[types.AttrInstanceType]
	attrs.VolumeType = bag[types.AttrVolumeType]
	attrs.IOPSClass = bag[types.AttrIOPS]
	attrs.Engine = bag[types.AttrEngine]
	attrs.StorageClass = bag[types.AttrStorageClass]
	attrs.LBType = bag[types.AttrLBType]

	if v, ok := bag[types.AttrStorageGB]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			attrs.StorageGB = n
		}
	}
	if v, ok := bag[types.AttrMultiAZ]; ok {
		attrs.MultiAZ, _ = strconv.ParseBool(v)
	}
	if v, ok := bag[types.AttrAttached]; ok {
		attrs.Attached, _ = strconv.ParseBool(v)
	}
	return attrs
}

func copyTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}

func normalizeState(state types.LifecycleState) types.LifecycleState {
	switch state {
	case types.StateRunning, types.StateStopped, types.StateTerminated:
		return state
	}
	return types.StateUnknown
}
