package htm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

/*
 Metrics exposes the activity of a graph and the algorithms running on
it as prometheus collectors. A nil *Metrics is valid and records nothing.
*/
type Metrics struct {
	computeCycles    *prometheus.CounterVec
	activeColumns    prometheus.Gauge
	activeCells      prometheus.Gauge
	burstingColumns  prometheus.Counter
	predictedColumns prometheus.Counter
	segments         *prometheus.CounterVec
	synapses         *prometheus.CounterVec
	evictions        *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. A nil registerer builds
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		computeCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "htm",
			Name:      "compute_cycles_total",
			Help:      "Compute calls per algorithm and learning mode.",
		}, []string{"algorithm", "learn"}),
		activeColumns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "htm",
			Name:      "active_columns",
			Help:      "Active columns produced by the last spatial pooler cycle.",
		}),
		activeCells: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "htm",
			Name:      "active_cells",
			Help:      "Active cells produced by the last temporal memory cycle.",
		}),
		burstingColumns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "htm",
			Name:      "bursting_columns_total",
			Help:      "Active columns that had no correctly predicted cell.",
		}),
		predictedColumns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "htm",
			Name:      "predicted_columns_total",
			Help:      "Active columns that had a correctly predicted cell.",
		}),
		segments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "htm",
			Name:      "distal_segments_total",
			Help:      "Distal segments created and destroyed.",
		}, []string{"event"}),
		synapses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "htm",
			Name:      "synapses_total",
			Help:      "Synapses created and destroyed per segment kind.",
		}, []string{"kind", "event"}),
		evictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "htm",
			Name:      "evictions_total",
			Help:      "Segments or synapses destroyed to make room at capacity.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) computed(algorithm string, learn bool) {
	if m == nil {
		return
	}
	l := "false"
	if learn {
		l = "true"
	}
	m.computeCycles.WithLabelValues(algorithm, l).Inc()
}

func (m *Metrics) setActiveColumns(n int) {
	if m == nil {
		return
	}
	m.activeColumns.Set(float64(n))
}

func (m *Metrics) setActiveCells(n int) {
	if m == nil {
		return
	}
	m.activeCells.Set(float64(n))
}

func (m *Metrics) columnsBurst(n int) {
	if m == nil {
		return
	}
	m.burstingColumns.Add(float64(n))
}

func (m *Metrics) columnsPredicted(n int) {
	if m == nil {
		return
	}
	m.predictedColumns.Add(float64(n))
}

func (m *Metrics) segmentCreated() {
	if m == nil {
		return
	}
	m.segments.WithLabelValues("created").Inc()
}

func (m *Metrics) segmentDestroyed() {
	if m == nil {
		return
	}
	m.segments.WithLabelValues("destroyed").Inc()
}

func (m *Metrics) synapseCreated(kind SegmentKind) {
	if m == nil {
		return
	}
	m.synapses.WithLabelValues(kind.String(), "created").Inc()
}

func (m *Metrics) synapseDestroyed(kind SegmentKind) {
	if m == nil {
		return
	}
	m.synapses.WithLabelValues(kind.String(), "destroyed").Inc()
}

func (m *Metrics) evicted(kind SegmentKind) {
	if m == nil {
		return
	}
	m.evictions.WithLabelValues(kind.String()).Inc()
}
