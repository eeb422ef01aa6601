package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/types"
)

// metricPeriodSeconds is the CloudWatch aggregation period (1 hour).
const metricPeriodSeconds = 3600

type metricSpec struct {
	namespace  string
	metricName string
	dimension  string
	unit       string
}

// cwMetricTable maps (vendor kind, canonical metric) to the CloudWatch
// query shape. Kinds or metrics absent here simply have no telemetry.
var cwMetricTable = map[string]map[types.MetricName]metricSpec{
	KindEC2Instance: {
		types.MetricCPUUtilization: {"AWS/EC2", "CPUUtilization", "InstanceId", types.UnitPercent},
		types.MetricNetworkIn:      {"AWS/EC2", "NetworkIn", "InstanceId", types.UnitBytes},
		types.MetricNetworkOut:     {"AWS/EC2", "NetworkOut", "InstanceId", types.UnitBytes},
	},
	KindRDSInstance: {
		types.MetricCPUUtilization: {"AWS/RDS", "CPUUtilization", "DBInstanceIdentifier", types.UnitPercent},
		types.MetricIOPS:           {"AWS/RDS", "ReadIOPS", "DBInstanceIdentifier", types.UnitCount},
	},
	KindEBSVolume: {
		types.MetricIOPS: {"AWS/EBS", "VolumeReadOps", "VolumeId", types.UnitCount},
	},
}

// GetMetrics fetches utilization samples via CloudWatch GetMetricData.
// Metrics CloudWatch does not track for the resource's kind come back
// empty; a stopped instance with no datapoints is not an error.
func (a *Adapter) GetMetrics(ctx context.Context, resource types.NormalizedResource, names []types.MetricName, window types.TimeRange) ([]types.MetricSample, error) {
	specs := cwMetricTable[resource.Kind]
	if len(specs) == 0 {
		return nil, nil
	}

	clients, ok := a.clients[resource.Region]
	if !ok {
		clients = a.clients[a.regions[0]]
	}

	var queries []cwtypes.MetricDataQuery
	queryNames := make([]types.MetricName, 0, len(names))
	for _, name := range names {
		spec, ok := specs[name]
		if !ok {
			continue
		}
		queries = append(queries, cwtypes.MetricDataQuery{
			Id: awssdk.String(fmt.Sprintf("m%d", len(queryNames))),
			MetricStat: &cwtypes.MetricStat{
				Metric: &cwtypes.Metric{
					Namespace:  awssdk.String(spec.namespace),
					MetricName: awssdk.String(spec.metricName),
					Dimensions: []cwtypes.Dimension{
						{Name: awssdk.String(spec.dimension), Value: awssdk.String(resource.NativeID)},
					},
				},
				Period: awssdk.Int32(metricPeriodSeconds),
				Stat:   awssdk.String("Average"),
			},
		})
		queryNames = append(queryNames, name)
	}
	if len(queries) == 0 {
		return nil, nil
	}

	input := &cloudwatch.GetMetricDataInput{
		MetricDataQueries: queries,
		StartTime:         awssdk.Time(window.Start),
		EndTime:           awssdk.Time(window.End),
	}
	out, err := adapters.WithRetry(ctx, types.ProviderAWS, "cloudwatch.GetMetricData", a.notify,
		func(ctx context.Context) (*cloudwatch.GetMetricDataOutput, error) {
			return clients.cloudwatch.GetMetricData(ctx, input)
		})
	if err != nil {
		return nil, err
	}

	var samples []types.MetricSample
	for _, result := range out.MetricDataResults {
		var idx int
		if result.Id == nil {
			continue
		}
		if _, err := fmt.Sscanf(*result.Id, "m%d", &idx); err != nil || idx >= len(queryNames) {
			continue
		}
		name := queryNames[idx]
		unit := specs[name].unit

		for i, ts := range result.Timestamps {
			if i >= len(result.Values) {
				break
			}
			samples = append(samples, types.MetricSample{
				ResourceID: resource.ID,
				Name:       name,
				Timestamp:  ts,
				Value:      result.Values[i],
				Unit:       unit,
			})
		}
	}
	return samples, nil
}
