package testdoubles

import (
	"sync"
	"time"

	"github.com/AntonStoeckl/library-inventory/shell"
)

// SpyMetricRecord represents a recorded metric call. Duration is set for duration records, Value for gauges.
type SpyMetricRecord struct {
	Kind     string
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
}

// MetricsCollectorSpy is a MetricsCollector implementation that captures metrics calls for testing.
type MetricsCollectorSpy struct {
	records []SpyMetricRecord
	mu      sync.Mutex
}

// NewMetricsCollectorSpy creates a new MetricsCollectorSpy instance.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

// RecordDuration implements the MetricsCollector interface for testing.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.add(SpyMetricRecord{Kind: "duration", Metric: metric, Duration: duration, Labels: copyLabels(labels)})
}

// IncrementCounter implements the MetricsCollector interface for testing.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.add(SpyMetricRecord{Kind: "counter", Metric: metric, Labels: copyLabels(labels)})
}

// RecordValue implements the MetricsCollector interface for testing.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.add(SpyMetricRecord{Kind: "value", Metric: metric, Value: value, Labels: copyLabels(labels)})
}

func (s *MetricsCollectorSpy) add(record SpyMetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
}

// RecordsFor returns a copy of all records for the given metric name.
func (s *MetricsCollectorSpy) RecordsFor(metric string) []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]SpyMetricRecord, 0)
	for _, record := range s.records {
		if record.Metric == metric {
			found = append(found, record)
		}
	}

	return found
}

// HasRecordWithLabel checks if a record for metric exists that carries the given label value.
func (s *MetricsCollectorSpy) HasRecordWithLabel(metric, key, value string) bool {
	for _, record := range s.RecordsFor(metric) {
		if record.Labels[key] == value {
			return true
		}
	}

	return false
}

func copyLabels(labels map[string]string) map[string]string {
	copied := make(map[string]string, len(labels))
	for key, val := range labels {
		copied[key] = val
	}

	return copied
}

var _ shell.MetricsCollector = (*MetricsCollectorSpy)(nil)
