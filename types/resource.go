package types

import "time"

// ResourceType is the canonical cross-provider resource taxonomy.
type ResourceType string

const (
	ResourceCompute         ResourceType = "compute"
	ResourceBlockStorage    ResourceType = "block_storage"
	ResourceObjectStorage   ResourceType = "object_storage"
	ResourceManagedDatabase ResourceType = "managed_database"
	ResourceLoadBalancer    ResourceType = "load_balancer"
	ResourceOther           ResourceType = "other"
)

// LifecycleState is the normalized resource lifecycle.
type LifecycleState string

const (
	StateRunning    LifecycleState = "running"
	StateStopped    LifecycleState = "stopped"
	StateTerminated LifecycleState = "terminated"
	StateUnknown    LifecycleState = "unknown"
)

// RawResourceRecord is the provider-native shape an adapter returns before
// normalization. Consumed immediately by Discovery and discarded.
type RawResourceRecord struct {
	Provider     Provider          `json:"provider"`
	Kind         string            `json:"kind"` // vendor-specific string
	NativeID     string            `json:"native_id"`
	Region       string            `json:"region"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
	State        LifecycleState    `json:"state"`
	DiscoveredAt time.Time         `json:"discovered_at"`
}

// Canonical attribute keys adapters populate in RawResourceRecord.Attributes.
// Normalization lifts these into ResourceAttributes; anything else stays in
// the bag and is dropped with the raw record.
const (
	AttrInstanceType = "instance_type"
	AttrVolumeType   = "volume_type"
	AttrStorageGB    = "storage_gb"
	AttrIOPS         = "iops"
	AttrEngine       = "engine"
	AttrMultiAZ      = "multi_az"
	AttrAttached     = "attached"
	AttrStorageClass = "storage_class"
	AttrLBType       = "lb_type"
)

// ResourceID is the stable composite key: provider + "/" + native ID.
// Globally unique within a scan.
type ResourceID string

// MakeResourceID builds the composite resource key.
func MakeResourceID(provider Provider, nativeID string) ResourceID {
	return ResourceID(string(provider) + "/" + nativeID)
}

// ResourceAttributes holds the normalized attribute set. Only fields
// meaningful to the resource's type are populated.
type ResourceAttributes struct {
	InstanceType string `json:"instance_type,omitempty"`
	VolumeType   string `json:"volume_type,omitempty"`
	StorageGB    int64  `json:"storage_gb,omitempty"`
	IOPSClass    string `json:"iops_class,omitempty"`
	Engine       string `json:"engine,omitempty"`
	MultiAZ      bool   `json:"multi_az,omitempty"`
	Attached     bool   `json:"attached,omitempty"`
	StorageClass string `json:"storage_class,omitempty"`
	LBType       string `json:"lb_type,omitempty"`
}

// NormalizedResource is the canonical cross-provider entity. Created by
// Discovery, enriched (never replaced) by later stages.
type NormalizedResource struct {
	ID           ResourceID         `json:"id"`
	Provider     Provider           `json:"provider"`
	NativeID     string             `json:"native_id"`
	Type         ResourceType       `json:"type"`
	Kind         string             `json:"kind"` // original vendor kind
	Region       string             `json:"region"`
	AccountKey   string             `json:"account_key"`
	Attributes   ResourceAttributes `json:"attributes"`
	Tags         map[string]string  `json:"tags,omitempty"`
	State        LifecycleState     `json:"state"`
	DiscoveredAt time.Time          `json:"discovered_at"`

	// MetricRefs holds the IDs of metric series attached by the Metrics
	// stage. Samples live alongside the resource list, not inside it, so
	// normalization and metric fetches stay independently retryable.
	MetricRefs []MetricName `json:"metric_refs,omitempty"`
}

// MergeTags folds later-arriving tags into the resource. Existing keys win;
// only unseen keys are added. Non-tag fields are never touched by merging.
func (r *NormalizedResource) MergeTags(tags map[string]string) {
	if len(tags) == 0 {
		return
	}
	if r.Tags == nil {
		r.Tags = make(map[string]string, len(tags))
	}
	for k, v := range tags {
		if _, ok := r.Tags[k]; !ok {
			r.Tags[k] = v
		}
	}
}
