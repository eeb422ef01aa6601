package discovery

import "github.com/kulucloud/kulu/types"

// kindTable is the fixed per-provider mapping from vendor resource kinds
// to the canonical taxonomy. Unknown kinds map to Other; a new vendor kind
// never fails a scan.
var kindTable = map[types.Provider]map[string]types.ResourceType{
	types.ProviderAWS: {
		"ec2_instance":        types.ResourceCompute,
		"ebs_volume":          types.ResourceBlockStorage,
		"s3_bucket":           types.ResourceObjectStorage,
		"rds_instance":        types.ResourceManagedDatabase,
		"elbv2_load_balancer": types.ResourceLoadBalancer,
	},
	types.ProviderAzure: {
		"virtual_machine": types.ResourceCompute,
		"managed_disk":    types.ResourceBlockStorage,
		"storage_account": types.ResourceObjectStorage,
		"sql_server":      types.ResourceManagedDatabase,
		"load_balancer":   types.ResourceLoadBalancer,
	},
	types.ProviderGCP: {
		"compute_instance":  types.ResourceCompute,
		"persistent_disk":   types.ResourceBlockStorage,
		"storage_bucket":    types.ResourceObjectStorage,
		"cloudsql_instance": types.ResourceManagedDatabase,
		"forwarding_rule":   types.ResourceLoadBalancer,
	},
}

// CanonicalType maps a vendor kind to the canonical resource type.
func CanonicalType(provider types.Provider, kind string) types.ResourceType {
	if kinds, ok := kindTable[provider]; ok {
		if t, ok := kinds[kind]; ok {
			return t
		}
	}
	return types.ResourceOther
}
