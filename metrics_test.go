package htm

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.computed("spatial_pooler", true)
		m.setActiveColumns(3)
		m.columnsBurst(2)
		m.synapseCreated(Distal)
		m.evicted(Proximal)
	})
}

func TestSpatialPoolerMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := NewMetrics(reg)

	p := NewSpParams()
	p.InputDimensions = []int{16}
	p.ColumnDimensions = []int{32}
	p.NumActiveColumnsPerInhArea = 4
	p.GlobalInhibition = true
	sp, err := NewSpatialPooler(p, WithMetrics(m))
	require.NoError(t, err)

	created := testutil.ToFloat64(m.synapses.WithLabelValues("proximal", "created"))
	assert.Equal(t, float64(sp.Connections().NumSynapses(Proximal)), created)

	input := SDRFromStr("1111000011110000")
	sp.Compute(input, true)
	sp.Compute(input, true)
	sp.Compute(input, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.computeCycles.WithLabelValues("spatial_pooler", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.computeCycles.WithLabelValues("spatial_pooler", "false")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.activeColumns))

	live := testutil.ToFloat64(m.synapses.WithLabelValues("proximal", "created")) -
		testutil.ToFloat64(m.synapses.WithLabelValues("proximal", "destroyed"))
	assert.Equal(t, float64(sp.Connections().NumSynapses(Proximal)), live)

	problems, err := testutil.GatherAndLint(reg)
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestTemporalMemoryMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	tm, err := NewTemporalMemory(NewTemporalMemoryParams(), WithMetrics(m))
	require.NoError(t, err)

	tm.Compute(columns(2048, 1, 2, 3), true)
	tm.Compute(columns(2048, 4, 5), true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.computeCycles.WithLabelValues("temporal_memory", "true")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.burstingColumns))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.predictedColumns))
	assert.Equal(t, 64.0, testutil.ToFloat64(m.activeCells))
	// two new segments grown toward the three previous winners
	assert.Equal(t, 2.0, testutil.ToFloat64(m.segments.WithLabelValues("created")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.synapses.WithLabelValues("distal", "created")))
	assert.Equal(t, float64(tm.Connections.NumSynapses(Distal)), 6.0)
}

func TestEvictionMetrics(t *testing.T) {
	m := NewMetrics(nil)
	c, err := NewConnections(ConnectionsParams{
		InputDimensions:  []int{4},
		ColumnDimensions: []int{4},
		CellsPerColumn:   2,
	}, WithMetrics(m))
	require.NoError(t, err)
	c.setRules(Distal, SynapseRules{
		ConnectedPermanence:   0.5,
		PermanenceMax:         1,
		MaxSegmentsPerCell:    1,
		MaxSynapsesPerSegment: 1,
	})

	seg := c.CreateSegment(0)
	c.CreateSynapse(seg, 1, 0.5)
	c.CreateSynapse(seg, 2, 0.5)
	c.CreateSegment(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.evictions.WithLabelValues("distal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.segments.WithLabelValues("destroyed")))
}
