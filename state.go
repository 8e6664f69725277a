package htm

import (
	"fmt"
	"sort"
)

/*
 The state types below enumerate everything needed to rebuild a graph
and the algorithms on it exactly: columns ascending, cells ascending
within a column, segments in creation order, synapses in creation order,
plus the homeostatic arrays and the random stream's position. Handles are
not part of the state; segments are identified by owner cell and Ordinal.
*/

type SynapseState struct {
	Presynaptic int
	Permanence  float64
	Ordinal     uint64
}

type SegmentState struct {
	Ordinal  uint64
	LastUsed int
	Synapses []SynapseState
}

type ColumnState struct {
	PotentialPool       []int
	Proximal            SegmentState
	BoostFactor         float64
	OverlapDutyCycle    float64
	ActiveDutyCycle     float64
	MinOverlapDutyCycle float64
	MinActiveDutyCycle  float64
	TieBreaker          float64
	// distal segments, indexed by cell offset within the column
	Cells [][]SegmentState
}

type GraphState struct {
	InputDimensions    []int
	ColumnDimensions   []int
	CellsPerColumn     int
	Rules              [2]SynapseRules
	Columns            []ColumnState
	NextSegmentOrdinal uint64
	NextSynapseOrdinal uint64
	Iteration          int
	Random             []byte
}

type SpatialPoolerState struct {
	Params            SpParams
	InhibitionRadius  int
	IterationNum      int
	IterationLearnNum int
	Overlaps          []int
	BoostedOverlaps   []float64
}

// SegmentActivity records a segment that was active or matching after the
// last temporal memory cycle.
type SegmentActivity struct {
	Cell               int
	Ordinal            uint64
	NumActivePotential int
	Active             bool
	Matching           bool
}

type CycleState struct {
	ActiveColumns          []int
	ActiveCells            []int
	WinnerCells            []int
	PredictiveCells        []int
	MatchingCells          []int
	PredictedActiveColumns []int
	BurstingColumns        []int
	PredictedInactiveCells []int
}

type TemporalMemoryState struct {
	Params    TemporalMemoryParams
	Segments  []SegmentActivity
	Cycle     CycleState
	PrevCycle CycleState
}

type LayerState struct {
	Params         LayerParams
	Graph          GraphState
	SpatialPooler  SpatialPoolerState
	TemporalMemory TemporalMemoryState
	Stats          PredictionStats
}

/* Connections */

func (c *Connections) exportSegment(seg Segment) SegmentState {
	data := &c.segments[seg]
	result := SegmentState{
		Ordinal:  data.Ordinal,
		LastUsed: data.LastUsed,
		Synapses: make([]SynapseState, len(data.synapses)),
	}
	for i, syn := range data.synapses {
		s := &c.synapses[syn]
		result.Synapses[i] = SynapseState{Presynaptic: s.Presynaptic, Permanence: s.Permanence, Ordinal: s.Ordinal}
	}
	return result
}

//Enumerates the whole graph in a stable order
func (c *Connections) ExportState() (GraphState, error) {
	random, err := c.random.MarshalBinary()
	if err != nil {
		return GraphState{}, err
	}
	state := GraphState{
		InputDimensions:    c.InputDimensions(),
		ColumnDimensions:   c.ColumnDimensions(),
		CellsPerColumn:     c.cellsPerColumn,
		Rules:              c.rules,
		Columns:            make([]ColumnState, c.numColumns),
		NextSegmentOrdinal: c.nextSegmentOrdinal,
		NextSynapseOrdinal: c.nextSynapseOrdinal,
		Iteration:          c.iteration,
		Random:             random,
	}
	for col := range state.Columns {
		cs := ColumnState{
			PotentialPool:       c.PotentialPool(col),
			Proximal:            c.exportSegment(Segment(col)),
			BoostFactor:         c.boostFactors[col],
			OverlapDutyCycle:    c.overlapDutyCycles[col],
			ActiveDutyCycle:     c.activeDutyCycles[col],
			MinOverlapDutyCycle: c.minOverlapDutyCycles[col],
			MinActiveDutyCycle:  c.minActiveDutyCycles[col],
			TieBreaker:          c.tieBreakers[col],
			Cells:               make([][]SegmentState, c.cellsPerColumn),
		}
		for i, cell := range c.CellsForColumn(col) {
			segments := make([]SegmentState, len(c.segmentsForCell[cell]))
			for j, seg := range c.segmentsForCell[cell] {
				segments[j] = c.exportSegment(seg)
			}
			cs.Cells[i] = segments
		}
		state.Columns[col] = cs
	}
	return state, nil
}

/*
 Rebuilds a graph from an exported state. Handles are assigned afresh;
ordinals, permanences, homeostatic values and the random stream position
are restored exactly.
*/
func RestoreConnections(state GraphState, opts ...Option) (*Connections, error) {
	c, err := NewConnections(ConnectionsParams{
		InputDimensions:  state.InputDimensions,
		ColumnDimensions: state.ColumnDimensions,
		CellsPerColumn:   state.CellsPerColumn,
	}, opts...)
	if err != nil {
		return nil, err
	}
	if len(state.Columns) != c.numColumns {
		return nil, fmt.Errorf("%w: state has %d columns, dimensions give %d",
			ErrDimensionMismatch, len(state.Columns), c.numColumns)
	}
	if err := c.random.UnmarshalBinary(state.Random); err != nil {
		return nil, fmt.Errorf("restoring random stream: %w", err)
	}
	c.rules = state.Rules

	for col, cs := range state.Columns {
		if len(cs.Cells) != c.cellsPerColumn {
			return nil, fmt.Errorf("%w: column %d has %d cells, want %d",
				ErrDimensionMismatch, col, len(cs.Cells), c.cellsPerColumn)
		}
		c.setPotentialPool(col, cs.PotentialPool)
		c.segments[col].Ordinal = cs.Proximal.Ordinal
		c.segments[col].LastUsed = cs.Proximal.LastUsed
		for _, s := range cs.Proximal.Synapses {
			if s.Presynaptic < 0 || s.Presynaptic >= c.numInputs {
				return nil, fmt.Errorf("%w: column %d synapse from input %d", ErrDimensionMismatch, col, s.Presynaptic)
			}
			c.restoreSynapse(Segment(col), s)
		}

		c.boostFactors[col] = cs.BoostFactor
		c.overlapDutyCycles[col] = cs.OverlapDutyCycle
		c.activeDutyCycles[col] = cs.ActiveDutyCycle
		c.minOverlapDutyCycles[col] = cs.MinOverlapDutyCycle
		c.minActiveDutyCycles[col] = cs.MinActiveDutyCycle
		c.tieBreakers[col] = cs.TieBreaker

		for i, segments := range cs.Cells {
			cell := col*c.cellsPerColumn + i
			for _, ss := range segments {
				seg := Segment(len(c.segments))
				c.segments = append(c.segments, SegmentData{
					Kind:     Distal,
					Owner:    cell,
					Ordinal:  ss.Ordinal,
					LastUsed: ss.LastUsed,
				})
				c.segmentsForCell[cell] = append(c.segmentsForCell[cell], seg)
				c.numDistalSegments++
				for _, s := range ss.Synapses {
					if s.Presynaptic < 0 || s.Presynaptic >= c.NumberOfCells() {
						return nil, fmt.Errorf("%w: cell %d synapse from cell %d", ErrDimensionMismatch, cell, s.Presynaptic)
					}
					c.restoreSynapse(seg, s)
				}
			}
		}
	}

	c.nextSegmentOrdinal = state.NextSegmentOrdinal
	c.nextSynapseOrdinal = state.NextSynapseOrdinal
	c.iteration = state.Iteration
	return c, nil
}

func (c *Connections) restoreSynapse(seg Segment, s SynapseState) {
	data := &c.segments[seg]
	syn := c.allocSynapse(SynapseData{
		Segment:     seg,
		Presynaptic: s.Presynaptic,
		Permanence:  s.Permanence,
		Ordinal:     s.Ordinal,
	})
	data.synapses = append(data.synapses, syn)
	c.synapsesForPresynaptic[data.Kind][s.Presynaptic] = append(c.synapsesForPresynaptic[data.Kind][s.Presynaptic], syn)
	c.numSynapses[data.Kind]++
}

// finds a live distal segment by owner cell and ordinal
func (c *Connections) segmentByOrdinal(cell int, ordinal uint64) (Segment, bool) {
	for _, seg := range c.segmentsForCell[cell] {
		if c.segments[seg].Ordinal == ordinal {
			return seg, true
		}
	}
	return -1, false
}

/* Spatial pooler */

func (sp *SpatialPooler) State() SpatialPoolerState {
	return SpatialPoolerState{
		Params:            sp.Params(),
		InhibitionRadius:  sp.inhibitionRadius,
		IterationNum:      sp.iterationNum,
		IterationLearnNum: sp.iterationLearnNum,
		Overlaps:          sp.Overlaps(),
		BoostedOverlaps:   sp.BoostedOverlaps(),
	}
}

//Attaches a spatial pooler in a saved state to a restored graph
func RestoreSpatialPooler(state SpatialPoolerState, conn *Connections, opts ...Option) (*SpatialPooler, error) {
	if err := state.Params.Validate(); err != nil {
		return nil, err
	}
	p := state.Params.resolved()
	if err := conn.checkShape(p.InputDimensions, p.ColumnDimensions, 0); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	sp := &SpatialPooler{
		params:            p,
		conn:              conn,
		numInputs:         conn.NumInputs(),
		numColumns:        conn.NumberOfColumns(),
		inhibitionRadius:  state.InhibitionRadius,
		iterationNum:      state.IterationNum,
		iterationLearnNum: state.IterationLearnNum,
		overlaps:          make([]int, conn.NumberOfColumns()),
		boostedOverlaps:   make([]float64, conn.NumberOfColumns()),
		logger:            o.logger,
		metrics:           o.metrics,
	}
	copy(sp.overlaps, state.Overlaps)
	copy(sp.boostedOverlaps, state.BoostedOverlaps)
	return sp, nil
}

/* Temporal memory */

func exportCycle(cc *ComputeCycle) CycleState {
	cp := func(v []int) []int { return append([]int{}, v...) }
	return CycleState{
		ActiveColumns:          cp(cc.ActiveColumns),
		ActiveCells:            cp(cc.ActiveCells),
		WinnerCells:            cp(cc.WinnerCells),
		PredictiveCells:        cp(cc.PredictiveCells),
		MatchingCells:          cp(cc.MatchingCells),
		PredictedActiveColumns: cp(cc.PredictedActiveColumns),
		BurstingColumns:        cp(cc.BurstingColumns),
		PredictedInactiveCells: cp(cc.PredictedInactiveCells),
	}
}

func (tm *TemporalMemory) restoreCycle(cs CycleState) *ComputeCycle {
	cc := newComputeCycle(tm.numColumns, tm.params.CellsPerColumn)
	cp := func(v []int) []int { return append([]int{}, v...) }
	cc.ActiveColumns = cp(cs.ActiveColumns)
	cc.ActiveCells = cp(cs.ActiveCells)
	cc.WinnerCells = cp(cs.WinnerCells)
	cc.PredictiveCells = cp(cs.PredictiveCells)
	cc.MatchingCells = cp(cs.MatchingCells)
	cc.PredictedActiveColumns = cp(cs.PredictedActiveColumns)
	cc.BurstingColumns = cp(cs.BurstingColumns)
	cc.PredictedInactiveCells = cp(cs.PredictedInactiveCells)
	return cc
}

func (tm *TemporalMemory) State() TemporalMemoryState {
	conn := tm.Connections
	activity := map[Segment]*SegmentActivity{}
	record := func(seg Segment) *SegmentActivity {
		if a, ok := activity[seg]; ok {
			return a
		}
		a := &SegmentActivity{
			Cell:               conn.CellForSegment(seg),
			Ordinal:            conn.segments[seg].Ordinal,
			NumActivePotential: tm.numActivePotentialFor(seg),
		}
		activity[seg] = a
		return a
	}
	for _, seg := range tm.activeSegments {
		record(seg).Active = true
	}
	for _, seg := range tm.matchingSegments {
		record(seg).Matching = true
	}

	segments := make([]SegmentActivity, 0, len(activity))
	for _, a := range activity {
		segments = append(segments, *a)
	}
	sort.Slice(segments, func(i, j int) bool {
		if segments[i].Cell != segments[j].Cell {
			return segments[i].Cell < segments[j].Cell
		}
		return segments[i].Ordinal < segments[j].Ordinal
	})

	return TemporalMemoryState{
		Params:    tm.Params(),
		Segments:  segments,
		Cycle:     exportCycle(tm.cycle),
		PrevCycle: exportCycle(tm.prevCycle),
	}
}

//Attaches a temporal memory in a saved state to a restored graph
func RestoreTemporalMemory(state TemporalMemoryState, conn *Connections, opts ...Option) (*TemporalMemory, error) {
	tm, err := NewTemporalMemory(state.Params, append(append([]Option(nil), opts...), WithConnections(conn))...)
	if err != nil {
		return nil, err
	}

	tm.numActivePotential = make([]int, conn.SegmentFlatListLength())
	for _, a := range state.Segments {
		if a.Cell < 0 || a.Cell >= conn.NumberOfCells() {
			return nil, fmt.Errorf("%w: segment activity on cell %d", ErrDimensionMismatch, a.Cell)
		}
		seg, ok := conn.segmentByOrdinal(a.Cell, a.Ordinal)
		if !ok {
			return nil, fmt.Errorf("%w: no segment %d on cell %d", ErrDimensionMismatch, a.Ordinal, a.Cell)
		}
		tm.numActivePotential[seg] = a.NumActivePotential
		if a.Active {
			tm.activeSegments = append(tm.activeSegments, seg)
		}
		if a.Matching {
			tm.matchingSegments = append(tm.matchingSegments, seg)
		}
	}

	tm.cycle = tm.restoreCycle(state.Cycle)
	tm.prevCycle = tm.restoreCycle(state.PrevCycle)
	tm.cycle.ActiveSegments = append([]Segment{}, tm.activeSegments...)
	tm.cycle.MatchingSegments = append([]Segment{}, tm.matchingSegments...)
	tm.activeCells = append([]int{}, tm.cycle.ActiveCells...)
	tm.winnerCells = append([]int{}, tm.cycle.WinnerCells...)
	return tm, nil
}

/* Layer */

//Captures the whole layer
func (l *Layer) State() (*LayerState, error) {
	graph, err := l.conn.ExportState()
	if err != nil {
		return nil, err
	}
	return &LayerState{
		Params:         l.Params(),
		Graph:          graph,
		SpatialPooler:  l.sp.State(),
		TemporalMemory: l.tm.State(),
		Stats:          *l.stats,
	}, nil
}

//Rebuilds a layer that continues exactly where the saved one stopped
func RestoreLayer(state *LayerState, opts ...Option) (*Layer, error) {
	if err := state.Params.Validate(); err != nil {
		return nil, err
	}
	conn, err := RestoreConnections(state.Graph, opts...)
	if err != nil {
		return nil, err
	}
	shared := append(append([]Option(nil), opts...), WithConnections(conn))
	sp, err := RestoreSpatialPooler(state.SpatialPooler, conn, shared...)
	if err != nil {
		return nil, err
	}
	tm, err := RestoreTemporalMemory(state.TemporalMemory, conn, shared...)
	if err != nil {
		return nil, err
	}
	stats := state.Stats
	o := buildOptions(opts)
	return &Layer{
		params: state.Params,
		conn:   conn,
		sp:     sp,
		tm:     tm,
		stats:  &stats,
		logger: o.logger,
	}, nil
}
