package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTickMetrics() {
	r.TicksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "dynlayout_ticks_total",
			Help: "Total number of completed layout ticks",
		},
	)

	r.TickDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dynlayout_tick_duration_seconds",
			Help:    "Wall time of one full tick",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	r.TickChunks = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dynlayout_tick_chunks",
			Help:    "Number of chunks a tick was split into",
			Buckets: prometheus.ExponentialBuckets(6, 2, 10),
		},
	)

	r.Speed = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "dynlayout_speed",
			Help: "Global speed after the latest tick",
		},
	)

	r.SpeedEfficiency = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "dynlayout_speed_efficiency",
			Help: "Speed efficiency after the latest tick",
		},
	)

	r.Swinging = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "dynlayout_swinging",
			Help: "Mass-weighted swinging of the latest tick",
		},
	)

	r.Traction = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "dynlayout_traction",
			Help: "Mass-weighted effective traction of the latest tick",
		},
	)

	r.Displacement = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "dynlayout_mean_displacement",
			Help: "Mean distance moved per node in the latest tick",
		},
	)

	r.TickErrorsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynlayout_tick_errors_total",
			Help: "Ticks aborted by contract violations",
		},
		[]string{"phase"},
	)
}

func (r *Registry) initTransportMetrics() {
	r.MessagesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynlayout_messages_total",
			Help: "Messages handled by the layout context",
		},
		[]string{"header", "status"},
	)

	r.MessageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dynlayout_message_duration_seconds",
			Help:    "Time from receiving a message to sending its reply",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"header"},
	)

	r.FrameBytes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dynlayout_frame_bytes",
			Help:    "Compressed frame size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"direction"},
	)
}

func (r *Registry) initTopologyMetrics() {
	r.Nodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "dynlayout_nodes",
			Help: "Nodes in the running layout",
		},
	)

	r.Edges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "dynlayout_edges",
			Help: "Edges in the running layout",
		},
	)
}
