package aws

import (
	"context"
	"strconv"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/types"
)

// listInstances discovers EC2 instances in one region.
func (a *Adapter) listInstances(ctx context.Context, c regionClients, region string) ([]types.RawResourceRecord, error) {
	var records []types.RawResourceRecord
	var nextToken *string

	for {
		input := &ec2.DescribeInstancesInput{NextToken: nextToken}
		out, err := adapters.WithRetry(ctx, types.ProviderAWS, "ec2.DescribeInstances", a.notify,
			func(ctx context.Context) (*ec2.DescribeInstancesOutput, error) {
				return c.ec2.DescribeInstances(ctx, input)
			})
		if err != nil {
			return nil, err
		}

		for _, reservation := range out.Reservations {
			for _, instance := range reservation.Instances {
				records = append(records, convertInstance(instance, region))
			}
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return records, nil
}

// listVolumes discovers EBS volumes in one region.
func (a *Adapter) listVolumes(ctx context.Context, c regionClients, region string) ([]types.RawResourceRecord, error) {
	var records []types.RawResourceRecord
	var nextToken *string

	for {
		input := &ec2.DescribeVolumesInput{NextToken: nextToken}
		out, err := adapters.WithRetry(ctx, types.ProviderAWS, "ec2.DescribeVolumes", a.notify,
			func(ctx context.Context) (*ec2.DescribeVolumesOutput, error) {
				return c.ec2.DescribeVolumes(ctx, input)
			})
		if err != nil {
			return nil, err
		}

		for _, volume := range out.Volumes {
			records = append(records, convertVolume(volume, region))
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return records, nil
}

func convertInstance(instance ec2types.Instance, region string) types.RawResourceRecord {
	attrs := map[string]string{
		types.AttrInstanceType: string(instance.InstanceType),
	}

	state := types.StateUnknown
	if instance.State != nil {
		switch instance.State.Name {
		case ec2types.InstanceStateNameRunning:
			state = types.StateRunning
		case ec2types.InstanceStateNameStopped, ec2types.InstanceStateNameStopping:
			state = types.StateStopped
		case ec2types.InstanceStateNameTerminated, ec2types.InstanceStateNameShuttingDown:
			state = types.StateTerminated
		}
	}

	return types.RawResourceRecord{
		Provider:     types.ProviderAWS,
		Kind:         KindEC2Instance,
		NativeID:     awssdk.ToString(instance.InstanceId),
		Region:       region,
		Attributes:   attrs,
		Tags:         convertTags(instance.Tags),
		State:        state,
		DiscoveredAt: time.Now().UTC(),
	}
}

func convertVolume(volume ec2types.Volume, region string) types.RawResourceRecord {
	attrs := map[string]string{
		types.AttrVolumeType: string(volume.VolumeType),
		types.AttrStorageGB:  strconv.FormatInt(int64(awssdk.ToInt32(volume.Size)), 10),
		types.AttrAttached:   strconv.FormatBool(len(volume.Attachments) > 0),
	}
	if volume.Iops != nil {
		attrs[types.AttrIOPS] = strconv.FormatInt(int64(*volume.Iops), 10)
	}

	// A volume in use is "running"; detached but allocated is "stopped".
	state := types.StateStopped
	if volume.State == ec2types.VolumeStateInUse {
		state = types.StateRunning
	}

	return types.RawResourceRecord{
		Provider:     types.ProviderAWS,
		Kind:         KindEBSVolume,
		NativeID:     awssdk.ToString(volume.VolumeId),
		Region:       region,
		Attributes:   attrs,
		Tags:         convertTags(volume.Tags),
		State:        state,
		DiscoveredAt: time.Now().UTC(),
	}
}

func convertTags(tags []ec2types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for _, tag := range tags {
		out[awssdk.ToString(tag.Key)] = awssdk.ToString(tag.Value)
	}
	return out
}
