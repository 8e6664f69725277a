package htm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDenseFromIndices(t *testing.T) {
	// 3 columns of 4 cells
	m := NewDenseBinaryMatrixFromIndices(3, 4, []int{1, 4, 5, 6, 7, 11})

	assert.Equal(t, []Entry{{0, 1}, {1, 0}, {1, 1}, {1, 2}, {1, 3}, {2, 3}}, m.Entries())
	assert.True(t, m.Get(1, 2))
	assert.False(t, m.Get(2, 0))
	assert.Equal(t, []int{0, 1, 2}, m.NonZeroRows())
	assert.Equal(t, 6, m.TotalNonZeroCount())
	assert.Equal(t, "0100\n1111\n0001\n", m.String())

	assert.Panics(t, func() { NewDenseBinaryMatrixFromIndices(3, 4, []int{12}) })
	assert.Panics(t, func() { m.Get(3, 0) })
	assert.Panics(t, func() { m.Get(0, -1) })
}

func TestDenseEmpty(t *testing.T) {
	m := NewDenseBinaryMatrixFromIndices(2, 3, nil)
	assert.Empty(t, m.Entries())
	assert.Equal(t, []int{}, m.NonZeroRows())
	assert.Zero(t, m.TotalNonZeroCount())
	assert.Equal(t, "000\n000\n", m.String())
}
