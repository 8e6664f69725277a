package htm

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func smallLayerParams() LayerParams {
	p := NewLayerParams()
	p.SpatialPooler.InputDimensions = []int{32}
	p.SpatialPooler.ColumnDimensions = []int{64}
	p.SpatialPooler.PotentialRadius = 8
	p.SpatialPooler.GlobalInhibition = true
	p.SpatialPooler.NumActiveColumnsPerInhArea = 4
	p.TemporalMemory.ColumnDimensions = []int{64}
	p.TemporalMemory.CellsPerColumn = 4
	p.TemporalMemory.ActivationThreshold = 2
	p.TemporalMemory.MinThreshold = 1
	p.TemporalMemory.MaxNewSynapseCount = 4
	return p
}

func randomInputs(seed int64, n, width int) []*SDR {
	r := rand.New(rand.NewSource(seed))
	inputs := make([]*SDR, n)
	for i := range inputs {
		dense := make([]bool, width)
		for j := range dense {
			dense[j] = r.Float64() < 0.25
		}
		inputs[i] = SDRFromDense(dense)
	}
	return inputs
}

func TestLayerCompute(t *testing.T) {
	l, err := NewLayer(smallLayerParams())
	require.NoError(t, err)
	assert.Same(t, l.Connections(), l.SpatialPooler().Connections())
	assert.Same(t, l.Connections(), l.TemporalMemory().Connections)
	assert.Equal(t, 256, l.Connections().NumberOfCells())

	for _, input := range randomInputs(1, 20, 32) {
		active, cycle := l.Compute(input, true)
		assert.Equal(t, 4, active.OnBits())
		assert.Equal(t, active.Sparse(), cycle.ActiveColumns)
		for _, col := range cycle.BurstingColumns {
			assert.Subset(t, cycle.ActiveCells, l.TemporalMemory().CellsForColumn(col))
		}
	}
	assert.Equal(t, 20, l.Stats().NInfersSinceReset)
	assert.Equal(t, 19, l.Stats().NPredictions)
}

func TestLayerLearnsRepeatingSequence(t *testing.T) {
	l, err := NewLayer(smallLayerParams())
	require.NoError(t, err)
	sequence := randomInputs(2, 4, 32)

	for pass := 0; pass < 30; pass++ {
		for _, input := range sequence {
			l.Compute(input, true)
		}
		l.Reset()
	}

	predicted := 0
	for i, input := range sequence {
		_, cycle := l.Compute(input, false)
		if i > 0 {
			predicted += len(cycle.PredictedActiveColumns)
		}
	}
	assert.Greater(t, predicted, 0)
}

func TestLayerReset(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l, err := NewLayer(smallLayerParams(), WithLogger(zap.New(core)))
	require.NoError(t, err)

	for _, input := range randomInputs(3, 5, 32) {
		l.Compute(input, true)
	}
	l.Reset()

	assert.Equal(t, 0, l.Stats().NInfersSinceReset)
	assert.Empty(t, l.TemporalMemory().ActiveCells())
	assert.Empty(t, l.TemporalMemory().PredictiveCells())

	resets := logs.FilterMessage("layer reset").All()
	require.Len(t, resets, 1)
	assert.Equal(t, int64(5), resets[0].ContextMap()["cyclesSinceReset"])
	assert.NotZero(t, logs.FilterMessage("spatial pooler created").Len())
	assert.NotZero(t, logs.FilterMessage("temporal memory created").Len())
}

func TestLayerParamsMismatch(t *testing.T) {
	p := smallLayerParams()
	p.TemporalMemory.ColumnDimensions = []int{32}
	_, err := NewLayer(p)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLayerDeterministic(t *testing.T) {
	run := func() [][]int {
		l, err := NewLayer(smallLayerParams())
		require.NoError(t, err)
		var out [][]int
		for _, input := range randomInputs(4, 30, 32) {
			_, cycle := l.Compute(input, true)
			out = append(out, cycle.ActiveCells)
		}
		return out
	}
	assert.Equal(t, run(), run())
}
