// Package monitoring collects counters, gauges and latency histograms for
// the session server and serves them as JSON.
package monitoring

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType represents different types of metrics.
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// Metric is one gathered value. Histograms gather as _bucket, _count and
// _sum series.
type Metric struct {
	Name   string            `json:"name"`
	Type   MetricType        `json:"type"`
	Value  float64           `json:"value"`
	Labels map[string]string `json:"labels,omitempty"`
}

// DefaultHistogramBuckets are latency bounds in seconds.
var DefaultHistogramBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1,
}

// Histogram counts observations per upper bound.
type Histogram struct {
	bounds []float64
	counts []int64
	count  int64
	sum    float64
}

// NewHistogram creates a histogram over ascending bounds.
func NewHistogram(bounds []float64) *Histogram {
	b := append([]float64(nil), bounds...)
	sort.Float64s(b)
	return &Histogram{bounds: b, counts: make([]int64, len(b))}
}

// Observe records v in every bucket whose bound is at least v.
func (h *Histogram) Observe(v float64) {
	h.count++
	h.sum += v
	for i, b := range h.bounds {
		if v <= b {
			h.counts[i]++
		}
	}
}

type series struct {
	name   string
	typ    MetricType
	labels map[string]string
	value  float64
	hist   *Histogram
}

// MetricsCollector holds metrics keyed by name and labels. It is safe for
// concurrent use.
type MetricsCollector struct {
	prefix string
	mutex  sync.Mutex
	series map[string]*series
	start  time.Time
}

// NewMetricsCollector creates a collector whose metric names start with
// prefix + "_".
func NewMetricsCollector(prefix string) *MetricsCollector {
	return &MetricsCollector{
		prefix: prefix,
		series: make(map[string]*series),
		start:  time.Now(),
	}
}

// Counter increments a counter metric.
func (mc *MetricsCollector) Counter(name string, labels map[string]string) {
	mc.CounterAdd(name, 1, labels)
}

// CounterAdd adds a value to a counter metric.
func (mc *MetricsCollector) CounterAdd(name string, value float64, labels map[string]string) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	mc.get(name, MetricTypeCounter, labels).value += value
}

// Gauge sets a gauge metric value.
func (mc *MetricsCollector) Gauge(name string, value float64, labels map[string]string) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	mc.get(name, MetricTypeGauge, labels).value = value
}

// Histogram observes a value in a histogram.
func (mc *MetricsCollector) Histogram(name string, value float64, labels map[string]string) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	s := mc.get(name, MetricTypeHistogram, labels)
	if s.hist == nil {
		s.hist = NewHistogram(DefaultHistogramBuckets)
	}
	s.hist.Observe(value)
}

// Timer measures operation duration into name_duration_seconds.
func (mc *MetricsCollector) Timer(name string, labels map[string]string) func() {
	start := time.Now()
	return func() {
		mc.Histogram(name+"_duration_seconds", time.Since(start).Seconds(), labels)
	}
}

// Value returns a counter or gauge value, or a histogram's count.
func (mc *MetricsCollector) Value(name string, labels map[string]string) (float64, bool) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	s, ok := mc.series[mc.key(mc.fullName(name), labels)]
	if !ok {
		return 0, false
	}
	if s.hist != nil {
		return float64(s.hist.count), true
	}
	return s.value, true
}

// GatherMetrics collects all current metrics sorted by name, then labels.
func (mc *MetricsCollector) GatherMetrics() []Metric {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	keys := make([]string, 0, len(mc.series))
	for k := range mc.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Metric
	for _, k := range keys {
		s := mc.series[k]
		if s.hist == nil {
			out = append(out, Metric{Name: s.name, Type: s.typ, Value: s.value, Labels: s.labels})
			continue
		}
		for i, b := range s.hist.bounds {
			labels := withLabel(s.labels, "le", fmt.Sprintf("%g", b))
			out = append(out, Metric{Name: s.name + "_bucket", Type: s.typ, Value: float64(s.hist.counts[i]), Labels: labels})
		}
		out = append(out,
			Metric{Name: s.name + "_bucket", Type: s.typ, Value: float64(s.hist.count), Labels: withLabel(s.labels, "le", "+Inf")},
			Metric{Name: s.name + "_count", Type: s.typ, Value: float64(s.hist.count), Labels: s.labels},
			Metric{Name: s.name + "_sum", Type: s.typ, Value: s.hist.sum, Labels: s.labels},
		)
	}
	return out
}

// Handler serves the gathered metrics and process statistics as JSON.
func (mc *MetricsCollector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"timestamp":      time.Now().UTC(),
			"uptime_seconds": time.Since(mc.start).Seconds(),
			"metrics":        mc.GatherMetrics(),
			"system": map[string]interface{}{
				"goroutines":        runtime.NumGoroutine(),
				"memory_heap_alloc": mem.HeapAlloc,
				"gc_runs":           mem.NumGC,
			},
		})
	})
}

func (mc *MetricsCollector) get(name string, typ MetricType, labels map[string]string) *series {
	full := mc.fullName(name)
	key := mc.key(full, labels)
	s, ok := mc.series[key]
	if !ok {
		s = &series{name: full, typ: typ, labels: copyLabels(labels)}
		mc.series[key] = s
	}
	return s
}

func (mc *MetricsCollector) fullName(name string) string {
	if mc.prefix == "" {
		return name
	}
	return mc.prefix + "_" + name
}

// key renders name{k1=v1,k2=v2} with sorted label names.
func (mc *MetricsCollector) key(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	b.WriteByte('}')
	return b.String()
}

func copyLabels(labels map[string]string) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func withLabel(labels map[string]string, k, v string) map[string]string {
	out := copyLabels(labels)
	if out == nil {
		out = make(map[string]string, 1)
	}
	out[k] = v
	return out
}
