package aws

import (
	"context"
	"strconv"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/types"
)

// listDBInstances discovers RDS instances in one region.
func (a *Adapter) listDBInstances(ctx context.Context, c regionClients, region string) ([]types.RawResourceRecord, error) {
	var records []types.RawResourceRecord
	var marker *string

	for {
		input := &rds.DescribeDBInstancesInput{Marker: marker}
		out, err := adapters.WithRetry(ctx, types.ProviderAWS, "rds.DescribeDBInstances", a.notify,
			func(ctx context.Context) (*rds.DescribeDBInstancesOutput, error) {
				return c.rds.DescribeDBInstances(ctx, input)
			})
		if err != nil {
			return nil, err
		}

		for _, db := range out.DBInstances {
			records = append(records, convertDBInstance(db, region))
		}

		if out.Marker == nil {
			break
		}
		marker = out.Marker
	}
	return records, nil
}

func convertDBInstance(db rdstypes.DBInstance, region string) types.RawResourceRecord {
	attrs := map[string]string{
		types.AttrInstanceType: awssdk.ToString(db.DBInstanceClass),
		types.AttrEngine:       awssdk.ToString(db.Engine),
		types.AttrStorageGB:    strconv.FormatInt(int64(awssdk.ToInt32(db.AllocatedStorage)), 10),
		types.AttrMultiAZ:      strconv.FormatBool(awssdk.ToBool(db.MultiAZ)),
	}

	state := types.StateUnknown
	switch awssdk.ToString(db.DBInstanceStatus) {
	case "available", "backing-up", "modifying":
		state = types.StateRunning
	case "stopped", "stopping":
		state = types.StateStopped
	case "deleting":
		state = types.StateTerminated
	}

	tags := make(map[string]string, len(db.TagList))
	for _, tag := range db.TagList {
		tags[awssdk.ToString(tag.Key)] = awssdk.ToString(tag.Value)
	}

	return types.RawResourceRecord{
		Provider:     types.ProviderAWS,
		Kind:         KindRDSInstance,
		NativeID:     awssdk.ToString(db.DBInstanceIdentifier),
		Region:       region,
		Attributes:   attrs,
		Tags:         tags,
		State:        state,
		DiscoveredAt: time.Now().UTC(),
	}
}
