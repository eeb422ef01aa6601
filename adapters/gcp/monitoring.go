package gcp

import (
	"context"
	"fmt"
	"time"

	monitoring "google.golang.org/api/monitoring/v3"

	"github.com/kulucloud/kulu/adapters"
	"github.com/kulucloud/kulu/types"
)

// seriesAPI is the slice of the Cloud Monitoring service the adapter needs.
type seriesAPI interface {
	List(ctx context.Context, filter string, window types.TimeRange) ([]*monitoring.TimeSeries, error)
}

type monitoringSeriesAPI struct {
	service   *monitoring.Service
	projectID string
}

func (m *monitoringSeriesAPI) List(ctx context.Context, filter string, window types.TimeRange) ([]*monitoring.TimeSeries, error) {
	resp, err := m.service.Projects.TimeSeries.
		List("projects/"+m.projectID).
		Filter(filter).
		IntervalStartTime(window.Start.UTC().Format(time.RFC3339)).
		IntervalEndTime(window.End.UTC().Format(time.RFC3339)).
		AggregationAlignmentPeriod("3600s").
		AggregationPerSeriesAligner("ALIGN_MEAN").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.TimeSeries, nil
}

type gcpMetricSpec struct {
	metricType string
	label      string // resource label matched against the native ID
	unit       string
	// scale converts the reported value into the canonical unit;
	// CPU utilization arrives as a 0..1 fraction.
	scale float64
}

var gcpMetricTable = map[string]map[types.MetricName]gcpMetricSpec{
	KindComputeInstance: {
		types.MetricCPUUtilization: {"compute.googleapis.com/instance/cpu/utilization", "instance_id", types.UnitPercent, 100},
		types.MetricNetworkIn:      {"compute.googleapis.com/instance/network/received_bytes_count", "instance_id", types.UnitBytes, 1},
		types.MetricNetworkOut:     {"compute.googleapis.com/instance/network/sent_bytes_count", "instance_id", types.UnitBytes, 1},
	},
	KindCloudSQL: {
		types.MetricCPUUtilization: {"cloudsql.googleapis.com/database/cpu/utilization", "database_id", types.UnitPercent, 100},
	},
}

// GetMetrics fetches utilization samples from Cloud Monitoring at one-hour
// alignment. Disks and buckets have no per-resource utilization series and
// come back empty.
func (a *Adapter) GetMetrics(ctx context.Context, resource types.NormalizedResource, names []types.MetricName, window types.TimeRange) ([]types.MetricSample, error) {
	specs := gcpMetricTable[resource.Kind]
	if len(specs) == 0 {
		return nil, nil
	}

	var samples []types.MetricSample
	for _, name := range names {
		spec, ok := specs[name]
		if !ok {
			continue
		}
		filter := fmt.Sprintf(`metric.type = %q AND resource.labels.%s = %q`,
			spec.metricType, spec.label, resource.NativeID)

		series, err := adapters.WithRetry(ctx, types.ProviderGCP, "monitoring.timeSeries.list", a.notify,
			func(ctx context.Context) ([]*monitoring.TimeSeries, error) {
				return a.series.List(ctx, filter, window)
			})
		if err != nil {
			return nil, err
		}

		for _, ts := range series {
			if ts == nil {
				continue
			}
			for _, point := range ts.Points {
				if point == nil || point.Value == nil || point.Value.DoubleValue == nil {
					continue
				}
				end, err := time.Parse(time.RFC3339, point.Interval.EndTime)
				if err != nil {
					continue
				}
				samples = append(samples, types.MetricSample{
					ResourceID: resource.ID,
					Name:       name,
					Timestamp:  end,
					Value:      *point.Value.DoubleValue * spec.scale,
					Unit:       spec.unit,
				})
			}
		}
	}
	return samples, nil
}
