package types

import "time"

// MetricName identifies one utilization telemetry series.
type MetricName string

const (
	MetricCPUUtilization    MetricName = "cpu_utilization"
	MetricMemoryUtilization MetricName = "memory_utilization"
	MetricNetworkIn         MetricName = "network_in"
	MetricNetworkOut        MetricName = "network_out"
	MetricIOPS              MetricName = "iops"
)

// Metric units.
const (
	UnitPercent = "percent"
	UnitBytes   = "bytes"
	UnitCount   = "count"
)

// MetricSample is one observation for one resource.
type MetricSample struct {
	ResourceID ResourceID `json:"resource_id"`
	Name       MetricName `json:"name"`
	Timestamp  time.Time  `json:"timestamp"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit"`
}

// MetricSet holds all samples fetched for a scan, keyed by resource.
// Samples are attached to resources by reference, never embedded.
type MetricSet struct {
	Samples map[ResourceID][]MetricSample `json:"samples"`
}

// NewMetricSet creates an empty metric set.
func NewMetricSet() *MetricSet {
	return &MetricSet{Samples: make(map[ResourceID][]MetricSample)}
}

// Add appends samples for a resource.
func (m *MetricSet) Add(id ResourceID, samples ...MetricSample) {
	if len(samples) == 0 {
		return
	}
	m.Samples[id] = append(m.Samples[id], samples...)
}

// For returns the samples recorded for a resource, possibly empty.
func (m *MetricSet) For(id ResourceID) []MetricSample {
	if m == nil {
		return nil
	}
	return m.Samples[id]
}

// Average returns the mean value of one named series for a resource and
// whether any samples exist. Missing metrics are not an error; callers
// treat ok=false as insufficient data.
func (m *MetricSet) Average(id ResourceID, name MetricName) (float64, bool) {
	var sum float64
	var n int
	for _, s := range m.For(id) {
		if s.Name != name {
			continue
		}
		sum += s.Value
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
