package htm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLayerYAML = `
spatialPooler:
  inputDimensions: [64]
  columnDimensions: [128]
  potentialRadius: 8
  globalInhibition: true
  numActiveColumnsPerInhArea: 6
  seed: 3
temporalMemory:
  cellsPerColumn: 8
  activationThreshold: 4
  minThreshold: 3
  maxNewSynapseCount: 6
  eviction: least-recently-used
statsBurnIn: 2
`

func TestParseLayerParams(t *testing.T) {
	p, err := ParseLayerParams([]byte(testLayerYAML))
	require.NoError(t, err)

	assert.Equal(t, []int{64}, p.SpatialPooler.InputDimensions)
	assert.Equal(t, []int{128}, p.SpatialPooler.ColumnDimensions)
	assert.Equal(t, 8, p.SpatialPooler.PotentialRadius)
	assert.True(t, p.SpatialPooler.GlobalInhibition)
	assert.Equal(t, int64(3), p.SpatialPooler.Seed)
	// untouched keys keep their defaults
	assert.Equal(t, 0.5, p.SpatialPooler.PotentialPct)
	assert.Equal(t, 0.21, p.TemporalMemory.InitialPermanence)

	assert.Equal(t, []int{128}, p.TemporalMemory.ColumnDimensions)
	assert.Equal(t, 8, p.TemporalMemory.CellsPerColumn)
	assert.Equal(t, EvictLeastRecentlyUsed, p.TemporalMemory.Eviction)
	assert.Equal(t, 2, p.StatsBurnIn)
}

func TestParseLayerParamsEmpty(t *testing.T) {
	p, err := ParseLayerParams(nil)
	require.NoError(t, err)
	assert.Equal(t, NewLayerParams(), p)
}

func TestParseLayerParamsRejects(t *testing.T) {
	_, err := ParseLayerParams([]byte("spatialPooler:\n  potentialRadios: 3\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseLayerParams([]byte("temporalMemory:\n  eviction: random\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseLayerParams([]byte(`
spatialPooler:
  potentialPct: 0
  numActiveColumnsPerInhArea: 0
temporalMemory:
  columnDimensions: [10]
  cellsPerColumn: 0
statsBurnIn: -1
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	params := map[string]bool{}
	for _, ce := range ConfigErrors(err) {
		params[ce.Param] = true
	}
	assert.True(t, params["StatsBurnIn"])
	assert.True(t, params["SpParams.PotentialPct"])
	assert.True(t, params["NumActiveColumnsPerInhArea"])
	assert.True(t, params["TemporalMemoryParams.CellsPerColumn"])
	assert.True(t, params["TemporalMemory.ColumnDimensions"])
}

func TestLoadLayerParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testLayerYAML), 0o644))

	p, err := LoadLayerParams(path)
	require.NoError(t, err)
	assert.Equal(t, 6, p.SpatialPooler.NumActiveColumnsPerInhArea)

	_, err = LoadLayerParams(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLayerParamsDeterminismHazard(t *testing.T) {
	p := NewLayerParams()
	assert.False(t, p.DeterminismHazard())

	p.SpatialPooler.ParallelOverlap = true
	assert.True(t, p.DeterminismHazard())
	assert.ErrorIs(t, p.Validate(), ErrInvalidConfig)

	p.SpatialPooler.Deterministic = false
	assert.NoError(t, p.Validate())
}

func TestEvictionPolicyText(t *testing.T) {
	for _, policy := range []EvictionPolicy{EvictLowestPermanence, EvictLeastRecentlyUsed} {
		text, err := policy.MarshalText()
		require.NoError(t, err)
		var back EvictionPolicy
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, policy, back)
	}
	var p EvictionPolicy
	assert.ErrorIs(t, p.UnmarshalText([]byte("nope")), ErrInvalidConfig)
	assert.Equal(t, "unknown", EvictionPolicy(7).String())
}
