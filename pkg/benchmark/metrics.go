package benchmark

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the benchmark metrics in a private registry so repeated
// runs in one process never collide with the default registerer.
type Metrics struct {
	RunDuration     *prometheus.HistogramVec
	Modularity      *prometheus.GaugeVec
	Communities     *prometheus.GaugeVec
	RunsTotal       *prometheus.CounterVec
	GraphNodesTotal prometheus.Gauge
	GraphEdgesTotal prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers the benchmark metrics.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	factory := promauto.With(m.registry)

	m.RunDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "multiscale_benchmark_duration_seconds",
			Help:    "Wall time of one community detection run in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
		[]string{"method"},
	)
	m.Modularity = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "multiscale_benchmark_modularity",
			Help: "Modularity of the last partition found by each method",
		},
		[]string{"method"},
	)
	m.Communities = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "multiscale_benchmark_communities",
			Help: "Community count of the last partition found by each method",
		},
		[]string{"method"},
	)
	m.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multiscale_benchmark_runs_total",
			Help: "Benchmark runs by method and status",
		},
		[]string{"method", "status"},
	)
	m.GraphNodesTotal = factory.NewGauge(prometheus.GaugeOpts{
		Name: "multiscale_benchmark_graph_nodes",
		Help: "Vertex count of the benchmarked graph",
	})
	m.GraphEdgesTotal = factory.NewGauge(prometheus.GaugeOpts{
		Name: "multiscale_benchmark_graph_edges",
		Help: "Edge count of the benchmarked graph",
	})

	return m
}

// Observe records one method result.
func (m *Metrics) Observe(r Result) {
	if r.Error != "" {
		m.RunsTotal.WithLabelValues(r.Method, "error").Inc()
		return
	}
	m.RunsTotal.WithLabelValues(r.Method, "ok").Inc()
	m.RunDuration.WithLabelValues(r.Method).Observe(r.Duration.Seconds())
	m.Modularity.WithLabelValues(r.Method).Set(r.Modularity)
	m.Communities.WithLabelValues(r.Method).Set(float64(r.Communities))
}

// Gatherer exposes the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
