package htm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomSeeded(t *testing.T) {
	a, b := NewRandom(42), NewRandom(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
		assert.Equal(t, a.Intn(17), b.Intn(17))
	}

	c := NewRandom(43)
	assert.NotEqual(t, NewRandom(42).Float64(), c.Float64())
}

func TestRandomSample(t *testing.T) {
	r := NewRandom(7)
	population := []int{10, 11, 12, 13, 14, 15}

	s := r.Sample(population, 4)
	assert.Len(t, s, 4)
	assert.Subset(t, population, s)
	seen := map[int]bool{}
	for _, v := range s {
		assert.False(t, seen[v])
		seen[v] = true
	}
	assert.Equal(t, []int{10, 11, 12, 13, 14, 15}, population)

	assert.ElementsMatch(t, population, r.Sample(population, 10))
	assert.Empty(t, r.Sample(population, 0))
}

func TestRandomMarshalContinuesStream(t *testing.T) {
	r := NewRandom(5)
	for i := 0; i < 10; i++ {
		r.Float64()
	}
	data, err := r.MarshalBinary()
	require.NoError(t, err)

	restored := NewRandom(0)
	require.NoError(t, restored.UnmarshalBinary(data))
	for i := 0; i < 50; i++ {
		assert.Equal(t, r.Float64(), restored.Float64())
	}
}
