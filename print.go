//
// Code related to temporal memory printing
//

package htm

import (
	"fmt"
	"io"
)

type SegmentStats struct {
	NumSegments       int
	NumSynapses       int
	NumActiveSegments int
	NumActiveSynapses int
	// histograms: segments per cell, synapses per segment,
	// permanence in tenths, and iterations since last use in buckets
	DistNumSegsPerCell map[int]int
	DistSegSizes       map[int]int
	DistPermValues     map[int]int
	DistAges           map[int]int
	AgeBucketSize      int
}

/*
 Returns information about the distribution of distal segments, synapses
and permanence values. If requested, also counts the segments and
synapses active for the cells of the last cycle.
*/
func (tm *TemporalMemory) SegmentStats(collectActiveData bool) SegmentStats {
	conn := tm.Connections
	result := SegmentStats{
		DistNumSegsPerCell: make(map[int]int),
		DistSegSizes:       make(map[int]int),
		DistPermValues:     make(map[int]int),
		DistAges:           make(map[int]int),
		AgeBucketSize:      (conn.iteration + 20) / 20,
	}

	activeSegments := map[Segment]bool{}
	for _, seg := range tm.activeSegments {
		activeSegments[seg] = true
	}
	activeCells := map[int]bool{}
	for _, cell := range tm.activeCells {
		activeCells[cell] = true
	}

	for cell := 0; cell < conn.NumberOfCells(); cell++ {
		segments := conn.segmentsForCell[cell]
		result.NumSegments += len(segments)
		result.DistNumSegsPerCell[len(segments)]++

		for _, seg := range segments {
			data := &conn.segments[seg]
			result.NumSynapses += len(data.synapses)
			result.DistSegSizes[len(data.synapses)]++

			for _, syn := range data.synapses {
				result.DistPermValues[int(conn.synapses[syn].Permanence*10)]++
			}

			age := conn.iteration - data.LastUsed
			result.DistAges[age/result.AgeBucketSize]++

			if collectActiveData {
				if activeSegments[seg] {
					result.NumActiveSegments++
				}
				for _, syn := range data.synapses {
					if activeCells[conn.synapses[syn].Presynaptic] {
						result.NumActiveSynapses++
					}
				}
			}
		}
	}

	return result
}

//Prints a cell's segments, marking the active ones with *
func (tm *TemporalMemory) PrintCell(w io.Writer, cell int, onlyActiveSegments bool) {
	conn := tm.Connections
	segments := conn.SegmentsForCell(cell)
	if len(segments) == 0 {
		return
	}

	active := map[Segment]bool{}
	for _, seg := range tm.activeSegments {
		active[seg] = true
	}

	fmt.Fprintf(w, "Column: %v Cell: %v - %v segment(s)\n",
		conn.ColumnForCell(cell), cell%conn.CellsPerColumn(), len(segments))
	for idx, seg := range segments {
		isActive := active[seg]
		if onlyActiveSegments && !isActive {
			continue
		}
		mark := " "
		if isActive {
			mark = "*"
		}
		fmt.Fprintf(w, "%vSeg: %v", mark, idx)
		for _, syn := range conn.SynapsesForSegment(seg) {
			data := conn.DataForSynapse(syn)
			fmt.Fprintf(w, " [%v,%v,%.3f]", data.Presynaptic/conn.CellsPerColumn(),
				data.Presynaptic%conn.CellsPerColumn(), data.Permanence)
		}
		fmt.Fprintln(w)
	}
}

//Prints every cell, or only the predictive ones
func (tm *TemporalMemory) PrintCells(w io.Writer, predictedOnly bool) {
	if predictedOnly {
		fmt.Fprintln(w, "--- PREDICTED CELLS ---")
	} else {
		fmt.Fprintln(w, "--- ALL CELLS ---")
	}
	fmt.Fprintln(w, "Activation threshold:", tm.params.ActivationThreshold)
	fmt.Fprintln(w, "min threshold:", tm.params.MinThreshold)
	fmt.Fprintln(w, "connected perm:", tm.params.ConnectedPermanence)

	if predictedOnly {
		for _, cell := range tm.cycle.PredictiveCells {
			tm.PrintCell(w, cell, true)
		}
		return
	}
	for cell := 0; cell < tm.NumberOfCells(); cell++ {
		tm.PrintCell(w, cell, false)
	}
}

/*
 Prints a summary of a compute cycle: bursting columns, segment counts
and the active and predictive cells as columns x cells grids.
*/
func (tm *TemporalMemory) PrintComputeEnd(w io.Writer, cycle *ComputeCycle, learn bool) {
	fmt.Fprintln(w, "----- computeEnd summary: ")
	fmt.Fprintln(w, "learn:", learn)
	fmt.Fprintln(w, "numBurstingCols:", len(cycle.BurstingColumns))

	stats := tm.SegmentStats(true)
	fmt.Fprintln(w, "numSegments", stats.NumSegments)
	fmt.Fprintln(w, "numSynapses", stats.NumSynapses)

	active := cycle.ActiveCellsMatrix()
	fmt.Fprintf(w, "----- activeState (%v on) ------\n", active.TotalNonZeroCount())
	printEntries(w, active)

	predicted := cycle.PredictiveCellsMatrix()
	fmt.Fprintf(w, "----- predictedState (%v on)-----\n", predicted.TotalNonZeroCount())
	printEntries(w, predicted)
}

func printEntries(w io.Writer, m *DenseBinaryMatrix) {
	entries := m.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(w, "None")
		return
	}
	fmt.Fprintln(w, entries)
}
