package azure

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/types"
)

// metricsAPI is the slice of the Azure Monitor client the adapter needs.
type metricsAPI interface {
	List(ctx context.Context, resourceURI string, options *armmonitor.MetricsClientListOptions) (armmonitor.MetricsClientListResponse, error)
}

type monitorMetricsAPI struct {
	client *armmonitor.MetricsClient
}

func (m *monitorMetricsAPI) List(ctx context.Context, resourceURI string, options *armmonitor.MetricsClientListOptions) (armmonitor.MetricsClientListResponse, error) {
	return m.client.List(ctx, resourceURI, options)
}

type azureMetricSpec struct {
	monitorName string
	unit        string
}

// azureMetricTable maps (vendor kind, canonical metric) to the Azure
// Monitor metric name. VM metrics only; disks and SQL servers report at
// child-resource granularity and come back empty by design.
var azureMetricTable = map[string]map[types.MetricName]azureMetricSpec{
	KindVirtualMachine: {
		types.MetricCPUUtilization: {"Percentage CPU", types.UnitPercent},
		types.MetricNetworkIn:      {"Network In Total", types.UnitBytes},
		types.MetricNetworkOut:     {"Network Out Total", types.UnitBytes},
	},
}

// GetMetrics fetches utilization samples from Azure Monitor at one-hour
// granularity, the coarsest interval all target kinds support.
func (a *Adapter) GetMetrics(ctx context.Context, resource types.NormalizedResource, names []types.MetricName, window types.TimeRange) ([]types.MetricSample, error) {
	specs := azureMetricTable[resource.Kind]
	if len(specs) == 0 {
		return nil, nil
	}

	var monitorNames []string
	nameFor := make(map[string]types.MetricName)
	unitFor := make(map[string]string)
	for _, name := range names {
		spec, ok := specs[name]
		if !ok {
			continue
		}
		monitorNames = append(monitorNames, spec.monitorName)
		nameFor[spec.monitorName] = name
		unitFor[spec.monitorName] = spec.unit
	}
	if len(monitorNames) == 0 {
		return nil, nil
	}

	timespan := fmt.Sprintf("%s/%s",
		window.Start.UTC().Format("2006-01-02T15:04:05Z"),
		window.End.UTC().Format("2006-01-02T15:04:05Z"))
	interval := "PT1H"
	metricnames := strings.Join(monitorNames, ",")
	aggregation := "Average"

	resp, err := adapters.WithRetry(ctx, types.ProviderAzure, "monitor.Metrics.List", a.notify,
		func(ctx context.Context) (armmonitor.MetricsClientListResponse, error) {
			return a.metrics.List(ctx, resource.NativeID, &armmonitor.MetricsClientListOptions{
				Timespan:    &timespan,
				Interval:    &interval,
				Metricnames: &metricnames,
				Aggregation: &aggregation,
			})
		})
	if err != nil {
		return nil, err
	}

	var samples []types.MetricSample
	for _, metric := range resp.Value {
		if metric == nil || metric.Name == nil || metric.Name.Value == nil {
			continue
		}
		canonical, ok := nameFor[*metric.Name.Value]
		if !ok {
			continue
		}
		unit := unitFor[*metric.Name.Value]

		for _, series := range metric.Timeseries {
			if series == nil {
				continue
			}
			for _, point := range series.Data {
				if point == nil || point.TimeStamp == nil || point.Average == nil {
					continue
				}
				samples = append(samples, types.MetricSample{
					ResourceID: resource.ID,
					Name:       canonical,
					Timestamp:  *point.TimeStamp,
					Value:      *point.Average,
					Unit:       unit,
				})
			}
		}
	}
	return samples, nil
}
