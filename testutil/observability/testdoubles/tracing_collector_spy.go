package testdoubles

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// SpySpanContext is the span handed out by TracingCollectorSpy.
type SpySpanContext struct {
	mu         sync.Mutex
	name       string
	status     string
	attributes map[string]string
}

// SetStatus implements circulation.SpanContext.
func (c *SpySpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = status
}

// AddAttribute implements circulation.SpanContext.
func (c *SpySpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attributes[key] = value
}

// SpanRecord is one finished span.
type SpanRecord struct {
	Name       string
	Status     string
	StartAttrs map[string]string
	EndAttrs   map[string]string
}

// TracingCollectorSpy implements circulation.TracingCollector and records finished spans.
type TracingCollectorSpy struct {
	mu          sync.Mutex
	started     int
	records     []SpanRecord
	recordCalls bool
}

// NewTracingCollectorSpy creates a spy. With recordCalls false it records nothing.
func NewTracingCollectorSpy(recordCalls bool) *TracingCollectorSpy {
	return &TracingCollectorSpy{recordCalls: recordCalls}
}

// StartSpan implements circulation.TracingCollector.
func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, circulation.SpanContext) {
	s.mu.Lock()
	s.started++
	s.mu.Unlock()

	return ctx, &SpySpanContext{name: name, attributes: maps.Clone(attrs)}
}

// FinishSpan implements circulation.TracingCollector.
func (s *TracingCollectorSpy) FinishSpan(spanCtx circulation.SpanContext, status string, attrs map[string]string) {
	if !s.recordCalls {
		return
	}

	span, ok := spanCtx.(*SpySpanContext)
	if !ok {
		return
	}

	span.mu.Lock()
	record := SpanRecord{Name: span.name, Status: status, StartAttrs: maps.Clone(span.attributes), EndAttrs: maps.Clone(attrs)}
	span.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
}

// StartedSpanCount returns how many spans were started.
func (s *TracingCollectorSpy) StartedSpanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.started
}

// GetSpanRecordCount returns how many spans were finished.
func (s *TracingCollectorSpy) GetSpanRecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// GetSpanRecords returns a copy of the finished spans.
func (s *TracingCollectorSpy) GetSpanRecords() []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpanRecord(nil), s.records...)
}

// HasSpanRecordForName starts a matcher over finished spans with the name.
func (s *TracingCollectorSpy) HasSpanRecordForName(name string) *SpanRecordMatcher {
	return &SpanRecordMatcher{spy: s, name: name}
}

// SpanRecordMatcher filters finished spans.
type SpanRecordMatcher struct {
	spy        *TracingCollectorSpy
	name       string
	status     string
	startAttrs map[string]string
	endAttrs   map[string]string
}

// WithStatus requires the finish status.
func (m *SpanRecordMatcher) WithStatus(status string) *SpanRecordMatcher {
	m.status = status
	return m
}

// WithStartAttribute requires an attribute passed to StartSpan.
func (m *SpanRecordMatcher) WithStartAttribute(key, value string) *SpanRecordMatcher {
	if m.startAttrs == nil {
		m.startAttrs = map[string]string{}
	}

	m.startAttrs[key] = value

	return m
}

// WithEndAttribute requires an attribute passed to FinishSpan.
func (m *SpanRecordMatcher) WithEndAttribute(key, value string) *SpanRecordMatcher {
	if m.endAttrs == nil {
		m.endAttrs = map[string]string{}
	}

	m.endAttrs[key] = value

	return m
}

// Assert reports whether at least one finished span matches.
func (m *SpanRecordMatcher) Assert() bool {
	for _, r := range m.spy.GetSpanRecords() {
		if r.Name != m.name || (m.status != "" && r.Status != m.status) {
			continue
		}

		if containsAll(r.StartAttrs, m.startAttrs) && containsAll(r.EndAttrs, m.endAttrs) {
			return true
		}
	}

	return false
}

func containsAll(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}

	return true
}
