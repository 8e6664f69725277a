package htm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentStats(t *testing.T) {
	tm := smallTM(t, nil)
	conn := tm.Connections

	seg := conn.CreateSegment(4)
	for _, cell := range []int{0, 1, 2, 3} {
		conn.CreateSynapse(seg, cell, 0.55)
	}
	other := conn.CreateSegment(9)
	conn.CreateSynapse(other, 20, 0.15)

	tm.Compute(columns(32, 0), false)
	stats := tm.SegmentStats(true)

	assert.Equal(t, 2, stats.NumSegments)
	assert.Equal(t, 5, stats.NumSynapses)
	assert.Equal(t, 1, stats.NumActiveSegments)
	assert.Equal(t, 4, stats.NumActiveSynapses)
	assert.Equal(t, 126, stats.DistNumSegsPerCell[0])
	assert.Equal(t, 2, stats.DistNumSegsPerCell[1])
	assert.Equal(t, map[int]int{4: 1, 1: 1}, stats.DistSegSizes)
	assert.Equal(t, map[int]int{5: 4, 1: 1}, stats.DistPermValues)

	stats = tm.SegmentStats(false)
	assert.Zero(t, stats.NumActiveSegments)
	assert.Zero(t, stats.NumActiveSynapses)
}

func TestPrintCell(t *testing.T) {
	tm := smallTM(t, nil)
	conn := tm.Connections
	seg := conn.CreateSegment(4)
	for _, cell := range []int{0, 1, 2} {
		conn.CreateSynapse(seg, cell, 0.5)
	}

	var buf bytes.Buffer
	tm.PrintCell(&buf, 5, false)
	assert.Empty(t, buf.String())

	tm.PrintCell(&buf, 4, false)
	assert.Equal(t, "Column: 1 Cell: 0 - 1 segment(s)\n Seg: 0 [0,0,0.500] [0,1,0.500] [0,2,0.500]\n", buf.String())

	tm.Compute(columns(32, 0), false)
	buf.Reset()
	tm.PrintCell(&buf, 4, true)
	assert.Contains(t, buf.String(), "*Seg: 0")

	buf.Reset()
	tm.PrintCells(&buf, true)
	assert.Contains(t, buf.String(), "--- PREDICTED CELLS ---")
	assert.Contains(t, buf.String(), "Column: 1 Cell: 0")
}

func TestPrintComputeEnd(t *testing.T) {
	tm := smallTM(t, nil)
	cycle := tm.Compute(columns(32, 2), true)

	var buf bytes.Buffer
	tm.PrintComputeEnd(&buf, cycle, true)
	out := buf.String()
	assert.Contains(t, out, "learn: true")
	assert.Contains(t, out, "numBurstingCols: 1")
	assert.Contains(t, out, "----- activeState (4 on) ------")
	assert.Contains(t, out, "----- predictedState (0 on)-----\nNone\n")
}
