package testdoubles

import (
	"context"
	"maps"
	"sync"
	"time"
)

// Metric record kinds.
const (
	KindDuration = "duration"
	KindCounter  = "counter"
	KindValue    = "value"
)

// MetricRecord is one captured metrics call.
type MetricRecord struct {
	Kind       string
	Metric     string
	Duration   time.Duration
	Value      float64
	Labels     map[string]string
	Contextual bool
}

// MetricsCollectorSpy implements circulation.ContextualMetricsCollector and records every call.
type MetricsCollectorSpy struct {
	mu          sync.Mutex
	records     []MetricRecord
	recordCalls bool
}

// NewMetricsCollectorSpy creates a spy. With recordCalls false it swallows all calls.
func NewMetricsCollectorSpy(recordCalls bool) *MetricsCollectorSpy {
	return &MetricsCollectorSpy{recordCalls: recordCalls}
}

func (s *MetricsCollectorSpy) record(r MetricRecord) {
	if !s.recordCalls {
		return
	}

	r.Labels = maps.Clone(r.Labels)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, r)
}

// RecordDuration records a duration metric.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.record(MetricRecord{Kind: KindDuration, Metric: metric, Duration: duration, Labels: labels})
}

// IncrementCounter records a counter increment.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.record(MetricRecord{Kind: KindCounter, Metric: metric, Labels: labels})
}

// RecordValue records a gauge value.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.record(MetricRecord{Kind: KindValue, Metric: metric, Value: value, Labels: labels})
}

// RecordDurationContext records a duration metric through the context-aware path.
func (s *MetricsCollectorSpy) RecordDurationContext(_ context.Context, metric string, duration time.Duration, labels map[string]string) {
	s.record(MetricRecord{Kind: KindDuration, Metric: metric, Duration: duration, Labels: labels, Contextual: true})
}

// IncrementCounterContext records a counter increment through the context-aware path.
func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.record(MetricRecord{Kind: KindCounter, Metric: metric, Labels: labels, Contextual: true})
}

// RecordValueContext records a gauge value through the context-aware path.
func (s *MetricsCollectorSpy) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	s.record(MetricRecord{Kind: KindValue, Metric: metric, Value: value, Labels: labels, Contextual: true})
}

// Records returns a copy of all captured records.
func (s *MetricsCollectorSpy) Records() []MetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]MetricRecord(nil), s.records...)
}

// Reset clears all captured records.
func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

// HasDurationRecordForMetric starts a matcher over duration records of the metric.
func (s *MetricsCollectorSpy) HasDurationRecordForMetric(metric string) *MetricRecordMatcher {
	return &MetricRecordMatcher{spy: s, kind: KindDuration, metric: metric, labels: map[string]string{}}
}

// HasCounterRecordForMetric starts a matcher over counter records of the metric.
func (s *MetricsCollectorSpy) HasCounterRecordForMetric(metric string) *MetricRecordMatcher {
	return &MetricRecordMatcher{spy: s, kind: KindCounter, metric: metric, labels: map[string]string{}}
}

// HasValueRecordForMetric starts a matcher over value records of the metric.
func (s *MetricsCollectorSpy) HasValueRecordForMetric(metric string) *MetricRecordMatcher {
	return &MetricRecordMatcher{spy: s, kind: KindValue, metric: metric, labels: map[string]string{}}
}

// MetricRecordMatcher filters records by kind, metric and labels.
type MetricRecordMatcher struct {
	spy    *MetricsCollectorSpy
	kind   string
	metric string
	labels map[string]string
}

// WithLabel requires a label value.
func (m *MetricRecordMatcher) WithLabel(key, value string) *MetricRecordMatcher {
	m.labels[key] = value
	return m
}

// WithStatus requires the "status" label.
func (m *MetricRecordMatcher) WithStatus(status string) *MetricRecordMatcher {
	return m.WithLabel("status", status)
}

// Count returns the number of matching records.
func (m *MetricRecordMatcher) Count() int {
	count := 0

	for _, r := range m.spy.Records() {
		if r.Kind != m.kind || r.Metric != m.metric {
			continue
		}

		matches := true
		for k, v := range m.labels {
			if r.Labels[k] != v {
				matches = false
				break
			}
		}

		if matches {
			count++
		}
	}

	return count
}

// Assert reports whether at least one record matches.
func (m *MetricRecordMatcher) Assert() bool {
	return m.Count() > 0
}
