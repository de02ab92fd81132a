package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the Prometheus collectors of a layout process.
type Registry struct {
	// Tick Metrics
	TicksTotal      prometheus.Counter
	TickDuration    prometheus.Histogram
	TickChunks      prometheus.Histogram
	Speed           prometheus.Gauge
	SpeedEfficiency prometheus.Gauge
	Swinging        prometheus.Gauge
	Traction        prometheus.Gauge
	Displacement    prometheus.Gauge
	TickErrorsTotal *prometheus.CounterVec

	// Transport Metrics
	MessagesTotal   *prometheus.CounterVec
	MessageDuration *prometheus.HistogramVec
	FrameBytes      *prometheus.HistogramVec

	// Topology Metrics
	Nodes prometheus.Gauge
	Edges prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initTickMetrics()
	r.initTransportMetrics()
	r.initTopologyMetrics()

	return r
}

func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
