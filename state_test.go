package htm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphExportOrder(t *testing.T) {
	c := newTestConnections(t, nil)
	b := c.CreateSegment(6)
	a := c.CreateSegment(1)
	c.CreateSynapse(a, 9, 0.3)
	c.CreateSynapse(a, 2, 0.7)
	c.CreateSynapse(b, 3, 0.6)
	second := c.CreateSegment(1)
	c.DestroySegment(second)
	third := c.CreateSegment(1)
	c.CreateSynapse(third, 30, 0.2)

	state, err := c.ExportState()
	require.NoError(t, err)
	require.Len(t, state.Columns, 8)

	cell1 := state.Columns[0].Cells[1]
	require.Len(t, cell1, 2)
	assert.Less(t, cell1[0].Ordinal, cell1[1].Ordinal)
	assert.Equal(t, []SynapseState{
		{Presynaptic: 9, Permanence: 0.3, Ordinal: c.DataForSynapse(c.SynapsesForSegment(a)[0]).Ordinal},
		{Presynaptic: 2, Permanence: 0.7, Ordinal: c.DataForSynapse(c.SynapsesForSegment(a)[1]).Ordinal},
	}, cell1[0].Synapses)
	assert.Equal(t, 30, cell1[1].Synapses[0].Presynaptic)
	assert.Len(t, state.Columns[1].Cells[2], 1)
	assert.NotEmpty(t, state.Random)
}

func TestGraphRoundTrip(t *testing.T) {
	l, err := NewLayer(smallLayerParams())
	require.NoError(t, err)
	for _, input := range randomInputs(5, 25, 32) {
		l.Compute(input, true)
	}

	state, err := l.Connections().ExportState()
	require.NoError(t, err)
	restored, err := RestoreConnections(state)
	require.NoError(t, err)
	again, err := restored.ExportState()
	require.NoError(t, err)

	assert.Equal(t, state, again)
	assert.Equal(t, l.Connections().BoostFactors(), restored.BoostFactors())
	assert.Equal(t, l.Connections().ActiveDutyCycles(), restored.ActiveDutyCycles())
	assert.Equal(t, l.Connections().NumSegments(), restored.NumSegments())
	assert.Equal(t, l.Connections().NumSynapses(Distal), restored.NumSynapses(Distal))
	assert.Equal(t, l.Connections().NumSynapses(Proximal), restored.NumSynapses(Proximal))
}

func TestRestoreConnectionsRejectsBadShape(t *testing.T) {
	c := newTestConnections(t, nil)
	state, err := c.ExportState()
	require.NoError(t, err)

	bad := state
	bad.Columns = state.Columns[:4]
	_, err = RestoreConnections(bad)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	bad = state
	bad.CellsPerColumn = 3
	_, err = RestoreConnections(bad)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	bad = state
	bad.CellsPerColumn = 0
	_, err = RestoreConnections(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRestoredLayerContinuesIdentically(t *testing.T) {
	l, err := NewLayer(smallLayerParams())
	require.NoError(t, err)
	inputs := randomInputs(6, 60, 32)
	for _, input := range inputs[:30] {
		l.Compute(input, true)
	}

	state, err := l.State()
	require.NoError(t, err)
	restored, err := RestoreLayer(state)
	require.NoError(t, err)

	again, err := restored.State()
	require.NoError(t, err)
	assert.Equal(t, state, again)

	for _, input := range inputs[30:] {
		colsA, cycleA := l.Compute(input, true)
		colsB, cycleB := restored.Compute(input, true)
		require.Equal(t, colsA.Sparse(), colsB.Sparse())
		require.Equal(t, cycleA.ActiveCells, cycleB.ActiveCells)
		require.Equal(t, cycleA.WinnerCells, cycleB.WinnerCells)
		require.Equal(t, cycleA.PredictiveCells, cycleB.PredictiveCells)
	}
	assert.Equal(t, l.Stats(), restored.Stats())
	assert.Equal(t, l.SpatialPooler().IterationNum(), restored.SpatialPooler().IterationNum())
}

func TestRestoreTemporalMemoryUnknownSegment(t *testing.T) {
	tm := smallTM(t, nil)
	state := tm.State()
	state.Segments = []SegmentActivity{{Cell: 3, Ordinal: 999, Active: true}}
	_, err := RestoreTemporalMemory(state, tm.Connections)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
