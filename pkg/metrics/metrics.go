// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all pipeline metrics
type Metrics struct {
	// Frame counters
	FramesRead      atomic.Uint64
	FramesProcessed atomic.Uint64

	// Error counters
	ReadErrors      atomic.Uint64
	DetectionErrors atomic.Uint64
	SinkErrors      atomic.Uint64
	DisplayErrors   atomic.Uint64

	RecordsWritten atomic.Uint64

	// Latest values, stored as float64 bits
	students          atomic.Uint64
	instantEngagement atomic.Uint64
	smoothEngagement  atomic.Uint64
	processLatency    atomic.Uint64 // milliseconds

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	counters := []struct {
		name, help string
		v          *atomic.Uint64
	}{
		{"classroom_frames_read_total", "Total frames read from the camera", &m.FramesRead},
		{"classroom_frames_processed_total", "Total frames classified", &m.FramesProcessed},
		{"classroom_read_errors_total", "Total transient frame read failures", &m.ReadErrors},
		{"classroom_detection_errors_total", "Total detector failures", &m.DetectionErrors},
		{"classroom_sink_errors_total", "Total failed record writes", &m.SinkErrors},
		{"classroom_display_errors_total", "Total display update failures", &m.DisplayErrors},
		{"classroom_records_written_total", "Total aggregate records written", &m.RecordsWritten},
	}
	for _, c := range counters {
		v := c.v
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: c.name, Help: c.help},
			func() float64 { return float64(v.Load()) },
		))
	}

	gauges := []struct {
		name, help string
		v          *atomic.Uint64
	}{
		{"classroom_students", "Students detected in the latest frame", &m.students},
		{"classroom_engagement_instant", "Engagement ratio of the latest frame", &m.instantEngagement},
		{"classroom_engagement_smoothed", "Smoothed engagement ratio", &m.smoothEngagement},
		{"classroom_process_latency_ms", "Processing time of the latest frame in milliseconds", &m.processLatency},
	}
	for _, g := range gauges {
		v := g.v
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			func() float64 { return math.Float64frombits(v.Load()) },
		))
	}
}

// ObserveFrame records the outcome of one processed frame.
func (m *Metrics) ObserveFrame(students int, instant, smoothed float64, took time.Duration) {
	m.FramesProcessed.Add(1)
	m.students.Store(math.Float64bits(float64(students)))
	m.instantEngagement.Store(math.Float64bits(instant))
	m.smoothEngagement.Store(math.Float64bits(smoothed))
	m.processLatency.Store(math.Float64bits(float64(took) / float64(time.Millisecond)))
}

// Students returns the latest student count.
func (m *Metrics) Students() int {
	return int(math.Float64frombits(m.students.Load()))
}

// SmoothedEngagement returns the latest smoothed engagement.
func (m *Metrics) SmoothedEngagement() float64 {
	return math.Float64frombits(m.smoothEngagement.Load())
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
