package htm

import (
	"fmt"
	"sort"

	"github.com/cznic/mathutil"
	"go.uber.org/zap"

	"github.com/htm-community/seqmem/utils"
)

/*
 Temporal memory learns sequences of active column sets. Within each
active column it activates the cells that were predicted by the previous
call, or every cell when none was (bursting), and grows distal segments
from winner cells onto the previous winners so the next element of a
sequence becomes predictable.
*/
type TemporalMemory struct {
	params      TemporalMemoryParams
	Connections *Connections

	numColumns int

	// state carried from the previous call
	activeCells      []int
	winnerCells      []int
	activeSegments   []Segment
	matchingSegments []Segment
	// indexed by segment handle, from the last activateDendrites
	numActivePotential []int

	cycle     *ComputeCycle
	prevCycle *ComputeCycle

	logger  *zap.Logger
	metrics *Metrics
}

//Create new temporal memory
func NewTemporalMemory(params TemporalMemoryParams, opts ...Option) (*TemporalMemory, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	params.ColumnDimensions = append([]int(nil), params.ColumnDimensions...)
	o := buildOptions(opts)

	conn := o.connections
	if conn == nil {
		var err error
		conn, err = NewConnections(ConnectionsParams{
			InputDimensions:  params.ColumnDimensions,
			ColumnDimensions: params.ColumnDimensions,
			CellsPerColumn:   params.CellsPerColumn,
			Seed:             params.Seed,
		}, opts...)
		if err != nil {
			return nil, err
		}
	} else if err := conn.checkShape(nil, params.ColumnDimensions, params.CellsPerColumn); err != nil {
		return nil, err
	}
	conn.setRules(Distal, params.distalRules())

	tm := &TemporalMemory{
		params:      params,
		Connections: conn,
		numColumns:  conn.NumberOfColumns(),
		logger:      o.logger,
		metrics:     o.metrics,
	}
	tm.clearState()

	tm.logger.Debug("temporal memory created",
		zap.Int("numColumns", tm.numColumns),
		zap.Int("cellsPerColumn", params.CellsPerColumn),
		zap.Stringer("eviction", params.Eviction))

	return tm, nil
}

func (tm *TemporalMemory) clearState() {
	tm.activeCells = []int{}
	tm.winnerCells = []int{}
	tm.activeSegments = []Segment{}
	tm.matchingSegments = []Segment{}
	tm.numActivePotential = nil
	tm.cycle = newComputeCycle(tm.numColumns, tm.params.CellsPerColumn)
	tm.prevCycle = newComputeCycle(tm.numColumns, tm.params.CellsPerColumn)
}

/*
 Feeds one set of active columns through the temporal memory and returns
the resulting cycle. With learn set, segments are reinforced, punished
and grown.
*/
func (tm *TemporalMemory) Compute(activeColumns *SDR, learn bool) *ComputeCycle {
	if activeColumns.Size() != tm.numColumns {
		panic(fmt.Sprintf("active columns width %d != numColumns %d", activeColumns.Size(), tm.numColumns))
	}

	cycle := newComputeCycle(tm.numColumns, tm.params.CellsPerColumn)
	cycle.ActiveColumns = activeColumns.Sparse()
	tm.activateCells(cycle, learn)
	tm.activateDendrites(cycle, learn)

	tm.prevCycle = tm.cycle
	tm.cycle = cycle

	tm.metrics.computed("temporal_memory", learn)
	tm.metrics.setActiveCells(len(cycle.ActiveCells))
	tm.metrics.columnsBurst(len(cycle.BurstingColumns))
	tm.metrics.columnsPredicted(len(cycle.PredictedActiveColumns))

	return cycle
}

/*
 Marks the start of a new sequence. The previous cycle is forgotten so
nothing is predicted from it; learned segments are kept.
*/
func (tm *TemporalMemory) Reset() {
	tm.clearState()
	tm.logger.Debug("temporal memory reset")
}

/*
 Calculates the active and winner cells of this cycle from the active
columns and the segments that were active or matching after the previous
call. Columns are visited in ascending order so every random draw happens
in the same sequence for the same inputs.
*/
func (tm *TemporalMemory) activateCells(cycle *ComputeCycle, learn bool) {
	prevActiveCells := tm.activeCells
	prevWinnerCells := tm.winnerCells
	conn := tm.Connections

	activeByColumn := tm.groupByColumn(tm.activeSegments)
	matchingByColumn := tm.groupByColumn(tm.matchingSegments)

	columns := cycle.ActiveColumns
	punish := learn && tm.params.PredictedSegmentDecrement > 0
	if punish {
		matchingColumns := make([]int, 0, len(matchingByColumn))
		for col := range matchingByColumn {
			matchingColumns = append(matchingColumns, col)
		}
		columns = utils.Union(columns, utils.SortedUnique(matchingColumns))
	}

	for _, col := range columns {
		if !utils.SortedContainsInt(col, cycle.ActiveColumns) {
			tm.punishPredictedColumn(matchingByColumn[col], prevActiveCells)
			continue
		}
		if segs := activeByColumn[col]; len(segs) > 0 {
			cellsToAdd := tm.activatePredictedColumn(segs, prevActiveCells, prevWinnerCells, learn)
			cycle.ActiveCells = append(cycle.ActiveCells, cellsToAdd...)
			cycle.WinnerCells = append(cycle.WinnerCells, cellsToAdd...)
			cycle.PredictedActiveColumns = append(cycle.PredictedActiveColumns, col)
		} else {
			winner := tm.burstColumn(col, matchingByColumn[col], prevActiveCells, prevWinnerCells, learn)
			cycle.ActiveCells = append(cycle.ActiveCells, conn.CellsForColumn(col)...)
			cycle.WinnerCells = append(cycle.WinnerCells, winner)
			cycle.BurstingColumns = append(cycle.BurstingColumns, col)
		}
	}

	for _, cell := range tm.cycle.PredictiveCells {
		if !utils.SortedContainsInt(cell/tm.params.CellsPerColumn, cycle.ActiveColumns) {
			cycle.PredictedInactiveCells = append(cycle.PredictedInactiveCells, cell)
		}
	}

	tm.activeCells = cycle.ActiveCells
	tm.winnerCells = cycle.WinnerCells
}

// groups sorted segments by the column of their owner cell, order kept
func (tm *TemporalMemory) groupByColumn(segments []Segment) map[int][]Segment {
	result := make(map[int][]Segment)
	for _, seg := range segments {
		if !tm.Connections.SegmentExists(seg) {
			continue
		}
		col := tm.Connections.CellForSegment(seg) / tm.params.CellsPerColumn
		result[col] = append(result[col], seg)
	}
	return result
}

/*
 Activates the predicted cells of a column and, when learning,
reinforces their active segments and grows them toward the previous
winner cells. Returns the activated cells.
*/
func (tm *TemporalMemory) activatePredictedColumn(columnActiveSegments []Segment,
	prevActiveCells, prevWinnerCells []int, learn bool) []int {
	conn := tm.Connections
	cells := []int{}
	for _, seg := range columnActiveSegments {
		cell := conn.CellForSegment(seg)
		if len(cells) == 0 || cells[len(cells)-1] != cell {
			cells = append(cells, cell)
		}
		if !learn {
			continue
		}
		nGrowDesired := tm.params.MaxNewSynapseCount - tm.numActivePotentialFor(seg)
		tm.adaptSegment(seg, prevActiveCells, tm.params.PermanenceIncrement, tm.params.PermanenceDecrement)
		if nGrowDesired > 0 && conn.SegmentExists(seg) {
			tm.growSynapses(seg, nGrowDesired, prevWinnerCells)
		}
	}
	return cells
}

/*
 Activates every cell of a column and picks its winner: the owner of the
best matching segment, or failing that the least used cell, which gets a
new segment when learning. Returns the winner cell.
*/
func (tm *TemporalMemory) burstColumn(column int, columnMatchingSegments []Segment,
	prevActiveCells, prevWinnerCells []int, learn bool) int {
	conn := tm.Connections

	if len(columnMatchingSegments) > 0 {
		best := columnMatchingSegments[0]
		for _, seg := range columnMatchingSegments[1:] {
			if tm.numActivePotentialFor(seg) > tm.numActivePotentialFor(best) {
				best = seg
			}
		}
		winner := conn.CellForSegment(best)
		if learn {
			nGrowDesired := tm.params.MaxNewSynapseCount - tm.numActivePotentialFor(best)
			tm.adaptSegment(best, prevActiveCells, tm.params.PermanenceIncrement, tm.params.PermanenceDecrement)
			if nGrowDesired > 0 && conn.SegmentExists(best) {
				tm.growSynapses(best, nGrowDesired, prevWinnerCells)
			}
		}
		return winner
	}

	winner := tm.leastUsedCell(column)
	if learn {
		nGrowExact := mathutil.Min(tm.params.MaxNewSynapseCount, len(prevWinnerCells))
		if nGrowExact > 0 {
			seg := conn.CreateSegment(winner)
			tm.growSynapses(seg, nGrowExact, prevWinnerCells)
		}
	}
	return winner
}

// weakens the active synapses of matching segments in a falsely predicted column
func (tm *TemporalMemory) punishPredictedColumn(columnMatchingSegments []Segment, prevActiveCells []int) {
	for _, seg := range columnMatchingSegments {
		if tm.Connections.SegmentExists(seg) {
			tm.adaptSegment(seg, prevActiveCells, -tm.params.PredictedSegmentDecrement, 0.0)
		}
	}
}

/*
 Returns the cell of a column with the fewest segments. Ties are broken
with a draw from the graph's random stream.
*/
func (tm *TemporalMemory) leastUsedCell(column int) int {
	conn := tm.Connections
	cells := conn.CellsForColumn(column)
	minNumSegments := -1
	leastUsed := []int{}
	for _, cell := range cells {
		n := conn.NumSegmentsForCell(cell)
		switch {
		case minNumSegments < 0 || n < minNumSegments:
			minNumSegments = n
			leastUsed = []int{cell}
		case n == minNumSegments:
			leastUsed = append(leastUsed, cell)
		}
	}
	return leastUsed[conn.random.Intn(len(leastUsed))]
}

/*
 Adds up to nDesired synapses to seg from randomly chosen previous
winner cells it is not yet connected to. When the segment would overflow
MaxSynapsesPerSegment the weakest synapses not from a winner cell are
destroyed first.
*/
func (tm *TemporalMemory) growSynapses(seg Segment, nDesired int, prevWinnerCells []int) {
	conn := tm.Connections
	candidates := utils.Complement(utils.SortedUnique(prevWinnerCells), conn.PresynapticSources(seg))

	nActual := mathutil.Min(nDesired, len(candidates))
	if nActual <= 0 {
		return
	}

	maxSynapses := tm.params.MaxSynapsesPerSegment
	if overrun := conn.NumSynapsesForSegment(seg) + nActual - maxSynapses; overrun > 0 {
		tm.destroyMinPermanenceSynapses(seg, overrun, utils.SortedUnique(prevWinnerCells))
	}
	nActual = mathutil.Min(nActual, maxSynapses-conn.NumSynapsesForSegment(seg))

	for i := 0; i < nActual; i++ {
		idx := conn.random.Intn(len(candidates))
		conn.CreateSynapse(seg, candidates[idx], tm.params.InitialPermanence)
		candidates = append(candidates[:idx], candidates[idx+1:]...)
	}
}

// destroys the n weakest synapses whose source is not in exclude, oldest first on ties
func (tm *TemporalMemory) destroyMinPermanenceSynapses(seg Segment, n int, exclude []int) {
	conn := tm.Connections
	removable := []SynapseData{}
	handles := map[uint64]Synapse{}
	for _, syn := range conn.SynapsesForSegment(seg) {
		data := conn.DataForSynapse(syn)
		if utils.SortedContainsInt(data.Presynaptic, exclude) {
			continue
		}
		removable = append(removable, data)
		handles[data.Ordinal] = syn
	}
	sort.SliceStable(removable, func(i, j int) bool {
		if removable[i].Permanence != removable[j].Permanence {
			return removable[i].Permanence < removable[j].Permanence
		}
		return removable[i].Ordinal < removable[j].Ordinal
	})
	for i := 0; i < n && i < len(removable); i++ {
		conn.metrics.evicted(Distal)
		conn.DestroySynapse(handles[removable[i].Ordinal])
	}
}

/*
 Updates the permanences of a segment: synapses from prevActiveCells go
up by inc, the rest down by dec. Synapses that drop to zero are removed,
and so is the segment once it has no synapses left.
*/
func (tm *TemporalMemory) adaptSegment(seg Segment, prevActiveCells []int, inc, dec float64) {
	conn := tm.Connections
	for _, syn := range conn.SynapsesForSegment(seg) {
		data := conn.DataForSynapse(syn)
		perm := data.Permanence
		if utils.SortedContainsInt(data.Presynaptic, prevActiveCells) {
			perm += inc
		} else {
			perm -= dec
		}
		conn.UpdatePermanence(syn, perm)
	}
	if conn.NumSynapsesForSegment(seg) == 0 {
		conn.DestroySegment(seg)
	}
}

/*
 Computes segment activity from the active cells of this cycle. Segments
with at least ActivationThreshold connected active synapses are active
and make their cells predictive for the next call; segments with at
least MinThreshold active synapses of any permanence are matching.
*/
func (tm *TemporalMemory) activateDendrites(cycle *ComputeCycle, learn bool) {
	conn := tm.Connections
	numActiveConnected, numActivePotential := conn.ComputeActivity(tm.activeCells)

	active := []Segment{}
	matching := []Segment{}
	for i := range numActiveConnected {
		seg := Segment(i)
		if conn.segments[seg].Kind != Distal || conn.segments[seg].destroyed {
			continue
		}
		if numActiveConnected[i] >= tm.params.ActivationThreshold {
			active = append(active, seg)
		}
		if numActivePotential[i] >= tm.params.MinThreshold {
			matching = append(matching, seg)
		}
	}
	sort.Slice(active, func(i, j int) bool { return conn.CompareSegments(active[i], active[j]) })
	sort.Slice(matching, func(i, j int) bool { return conn.CompareSegments(matching[i], matching[j]) })

	if learn {
		for _, seg := range active {
			conn.recordSegmentActivity(seg)
		}
		conn.startNewIteration()
	}

	tm.activeSegments = active
	tm.matchingSegments = matching
	tm.numActivePotential = numActivePotential

	cycle.ActiveSegments = active
	cycle.MatchingSegments = matching
	cycle.PredictiveCells = tm.cellsForSegments(active)
	cycle.MatchingCells = tm.cellsForSegments(matching)
}

// unique owner cells of segments sorted by cell
func (tm *TemporalMemory) cellsForSegments(segments []Segment) []int {
	result := []int{}
	for _, seg := range segments {
		cell := tm.Connections.CellForSegment(seg)
		if len(result) == 0 || result[len(result)-1] != cell {
			result = append(result, cell)
		}
	}
	return result
}

func (tm *TemporalMemory) numActivePotentialFor(seg Segment) int {
	if int(seg) >= len(tm.numActivePotential) {
		return 0
	}
	return tm.numActivePotential[seg]
}

/* Accessors */

func (tm *TemporalMemory) Params() TemporalMemoryParams {
	p := tm.params
	p.ColumnDimensions = append([]int(nil), p.ColumnDimensions...)
	return p
}

func (tm *TemporalMemory) NumberOfColumns() int {
	return tm.numColumns
}

func (tm *TemporalMemory) NumberOfCells() int {
	return tm.Connections.NumberOfCells()
}

func (tm *TemporalMemory) ColumnForCell(cell int) int {
	return tm.Connections.ColumnForCell(cell)
}

func (tm *TemporalMemory) CellsForColumn(column int) []int {
	return tm.Connections.CellsForColumn(column)
}

//Active cells of the last compute call
func (tm *TemporalMemory) ActiveCells() []int {
	return append([]int{}, tm.cycle.ActiveCells...)
}

//Active cells of the last compute call as an SDR over all cells
func (tm *TemporalMemory) ActiveCellsSDR() *SDR {
	return tm.cycle.ActiveCellsSDR()
}

func (tm *TemporalMemory) WinnerCells() []int {
	return append([]int{}, tm.cycle.WinnerCells...)
}

//Cells predicted for the next compute call
func (tm *TemporalMemory) PredictiveCells() []int {
	return append([]int{}, tm.cycle.PredictiveCells...)
}

func (tm *TemporalMemory) MatchingCells() []int {
	return append([]int{}, tm.cycle.MatchingCells...)
}

//Cells that were predicted for the last compute call
func (tm *TemporalMemory) PreviousPredictiveCells() []int {
	return append([]int{}, tm.prevCycle.PredictiveCells...)
}

//Most recent cycle, or an empty one before the first call and after Reset
func (tm *TemporalMemory) LastCycle() *ComputeCycle {
	return tm.cycle
}
