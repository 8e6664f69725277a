package htm

import (
	"bytes"
	"fmt"

	"github.com/htm-community/seqmem/utils"
)

/*
 DenseBinaryMatrix is a read-only columns x cells view of a set of cells.
Row r holds the cells of column r, so flat cell indices map straight onto
row-major entries.
*/
type DenseBinaryMatrix struct {
	Width   int
	Height  int
	entries []bool
}

//Row/col position of an on entry
type Entry struct {
	Row int
	Col int
}

//Builds a height x width view with the given flat indices on
func NewDenseBinaryMatrixFromIndices(height, width int, indices []int) *DenseBinaryMatrix {
	m := &DenseBinaryMatrix{Width: width, Height: height, entries: make([]bool, width*height)}
	for _, idx := range indices {
		if idx < 0 || idx >= len(m.entries) {
			panic(fmt.Sprintf("index %d out of range [0,%d)", idx, len(m.entries)))
		}
		m.entries[idx] = true
	}
	return m
}

func (sm *DenseBinaryMatrix) Get(row int, col int) bool {
	if row < 0 || row >= sm.Height || col < 0 || col >= sm.Width {
		panic(fmt.Sprintf("(%d,%d) out of bounds [0,%d)x[0,%d)", row, col, sm.Height, sm.Width))
	}
	return sm.entries[row*sm.Width+col]
}

//On entries, row major
func (sm *DenseBinaryMatrix) Entries() []Entry {
	result := []Entry{}
	for _, idx := range utils.OnIndices(sm.entries) {
		result = append(result, Entry{idx / sm.Width, idx % sm.Width})
	}
	return result
}

//Rows with at least one on entry, ascending
func (sm *DenseBinaryMatrix) NonZeroRows() []int {
	result := []int{}
	for _, e := range sm.Entries() {
		if len(result) == 0 || result[len(result)-1] != e.Row {
			result = append(result, e.Row)
		}
	}
	return result
}

func (sm *DenseBinaryMatrix) TotalNonZeroCount() int {
	return utils.CountTrue(sm.entries)
}

//Renders one line of 0s and 1s per row
func (sm *DenseBinaryMatrix) String() string {
	var buffer bytes.Buffer
	buffer.Grow((sm.Width + 1) * sm.Height)
	for idx, on := range sm.entries {
		if on {
			buffer.WriteByte('1')
		} else {
			buffer.WriteByte('0')
		}
		if (idx+1)%sm.Width == 0 {
			buffer.WriteByte('\n')
		}
	}
	return buffer.String()
}
