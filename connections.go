package htm

import (
	"fmt"
	"sort"

	"github.com/cznic/mathutil"
	"go.uber.org/zap"

	"github.com/htm-community/seqmem/utils"
)

/*
Params for initializing a connectivity graph
*/
type ConnectionsParams struct {
	InputDimensions  []int `yaml:"inputDimensions" validate:"required,min=1,dive,gt=0"`
	ColumnDimensions []int `yaml:"columnDimensions" validate:"required,min=1,dive,gt=0"`
	CellsPerColumn   int   `yaml:"cellsPerColumn" validate:"gte=1"`
	Seed             int64 `yaml:"seed"`
}

/*
 Connections holds the whole structural state shared by the spatial
pooler and the temporal memory: columns with their potential pools and
homeostatic arrays, cells, proximal and distal segments, synapses and the
seeded random stream.

Entities live in flat arenas and reference each other by integer
handle. Segment and synapse handles of destroyed entities are recycled;
their Ordinal is not, so creation order is always recoverable.

Connections does no locking. One compute call at a time.
*/
type Connections struct {
	inputDimensions  []int
	columnDimensions []int
	numInputs        int
	numColumns       int
	cellsPerColumn   int

	rules [2]SynapseRules

	segments     []SegmentData
	synapses     []SynapseData
	freeSegments []Segment
	freeSynapses []Synapse

	nextSegmentOrdinal uint64
	nextSynapseOrdinal uint64

	// per column, sorted input indices the proximal segment may connect to
	potentialPools [][]int
	// per cell, distal segments in creation order
	segmentsForCell [][]Segment
	// [kind][source] -> synapses fed by that input bit / cell
	synapsesForPresynaptic [2][][]Synapse

	numDistalSegments int
	numSynapses       [2]int

	// homeostatic state, one entry per column
	boostFactors         []float64
	overlapDutyCycles    []float64
	activeDutyCycles     []float64
	minOverlapDutyCycles []float64
	minActiveDutyCycles  []float64
	tieBreakers          []float64

	iteration int
	random    *Random

	logger  *zap.Logger
	metrics *Metrics
}

//Create new connectivity graph
func NewConnections(params ConnectionsParams, opts ...Option) (*Connections, error) {
	if err := validateTags(params); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	c := new(Connections)
	c.inputDimensions = append([]int(nil), params.InputDimensions...)
	c.columnDimensions = append([]int(nil), params.ColumnDimensions...)
	c.numInputs = utils.ProdInt(params.InputDimensions)
	c.numColumns = utils.ProdInt(params.ColumnDimensions)
	c.cellsPerColumn = params.CellsPerColumn
	c.rules = [2]SynapseRules{defaultSynapseRules(), defaultSynapseRules()}
	c.random = NewRandom(params.Seed)
	c.logger = o.logger
	c.metrics = o.metrics

	numCells := c.numColumns * c.cellsPerColumn
	c.potentialPools = make([][]int, c.numColumns)
	c.segmentsForCell = make([][]Segment, numCells)
	c.synapsesForPresynaptic[Proximal] = make([][]Synapse, c.numInputs)
	c.synapsesForPresynaptic[Distal] = make([][]Synapse, numCells)

	c.boostFactors = utils.MakeSliceFloat64(c.numColumns, 1.0)
	c.overlapDutyCycles = make([]float64, c.numColumns)
	c.activeDutyCycles = make([]float64, c.numColumns)
	c.minOverlapDutyCycles = make([]float64, c.numColumns)
	c.minActiveDutyCycles = make([]float64, c.numColumns)
	c.tieBreakers = make([]float64, c.numColumns)

	// proximal segment handle == column index
	c.segments = make([]SegmentData, 0, c.numColumns)
	for col := 0; col < c.numColumns; col++ {
		c.segments = append(c.segments, SegmentData{
			Kind:    Proximal,
			Owner:   col,
			Ordinal: c.nextSegmentOrdinal,
		})
		c.nextSegmentOrdinal++
	}

	c.logger.Debug("connections created",
		zap.Ints("inputDimensions", c.inputDimensions),
		zap.Ints("columnDimensions", c.columnDimensions),
		zap.Int("cellsPerColumn", c.cellsPerColumn),
		zap.Int64("seed", params.Seed))

	return c, nil
}

/* Shape */

func (c *Connections) InputDimensions() []int {
	return append([]int(nil), c.inputDimensions...)
}

func (c *Connections) ColumnDimensions() []int {
	return append([]int(nil), c.columnDimensions...)
}

func (c *Connections) NumInputs() int {
	return c.numInputs
}

//Returns the number of columns
func (c *Connections) NumberOfColumns() int {
	return c.numColumns
}

func (c *Connections) CellsPerColumn() int {
	return c.cellsPerColumn
}

//Returns the number of cells
func (c *Connections) NumberOfCells() int {
	return c.numColumns * c.cellsPerColumn
}

//Returns the column a cell belongs to
func (c *Connections) ColumnForCell(cell int) int {
	c.validateCell(cell)
	return cell / c.cellsPerColumn
}

//Returns the cell indices of a column, ascending
func (c *Connections) CellsForColumn(column int) []int {
	c.validateColumn(column)
	start := column * c.cellsPerColumn
	result := make([]int, c.cellsPerColumn)
	for i := range result {
		result[i] = start + i
	}
	return result
}

// Random returns the stream owned by the graph.
func (c *Connections) Random() *Random {
	return c.random
}

// Rules returns the limits currently enforced for a segment kind.
func (c *Connections) Rules(kind SegmentKind) SynapseRules {
	return c.rules[kind]
}

func (c *Connections) setRules(kind SegmentKind, rules SynapseRules) {
	c.rules[kind] = rules
}

/* Proximal */

//Returns the proximal segment of a column
func (c *Connections) ProximalSegment(column int) Segment {
	c.validateColumn(column)
	return Segment(column)
}

//Returns a copy of the column's potential pool, ascending input indices
func (c *Connections) PotentialPool(column int) []int {
	c.validateColumn(column)
	return append([]int{}, c.potentialPools[column]...)
}

func (c *Connections) setPotentialPool(column int, pool []int) {
	if len(pool) > c.numInputs {
		panic(fmt.Sprintf("potential pool of %d exceeds %d inputs", len(pool), c.numInputs))
	}
	c.potentialPools[column] = utils.SortedUnique(pool)
}

/*
 Returns the permanence of every potential input of a column, aligned
with PotentialPool. Potential inputs without a synapse read as zero.
*/
func (c *Connections) ProximalPermanences(column int) []float64 {
	c.validateColumn(column)
	pool := c.potentialPools[column]
	result := make([]float64, len(pool))
	for _, syn := range c.segments[column].synapses {
		data := &c.synapses[syn]
		idx := sort.SearchInts(pool, data.Presynaptic)
		if idx < len(pool) && pool[idx] == data.Presynaptic {
			result[idx] = data.Permanence
		}
	}
	return result
}

/*
 Writes permanences aligned with PotentialPool back onto the column's
proximal segment: values are clipped, values at or below the trim
threshold leave no synapse, the rest update or create one.
*/
func (c *Connections) setProximalPermanences(column int, perms []float64) {
	pool := c.potentialPools[column]
	if len(perms) != len(pool) {
		panic("permanences do not match potential pool")
	}
	seg := Segment(column)
	existing := make(map[int]Synapse, len(c.segments[seg].synapses))
	for _, syn := range c.segments[seg].synapses {
		existing[c.synapses[syn].Presynaptic] = syn
	}

	rules := c.rules[Proximal]
	for i, input := range pool {
		perm := rules.clip(perms[i])
		syn, ok := existing[input]
		switch {
		case ok:
			c.UpdatePermanence(syn, perm)
		case perm > rules.TrimThreshold:
			c.CreateSynapse(seg, input, perm)
		}
	}
}

//Returns the number of connected proximal synapses of a column
func (c *Connections) NumConnectedProximal(column int) int {
	c.validateColumn(column)
	threshold := c.rules[Proximal].ConnectedPermanence
	count := 0
	for _, syn := range c.segments[column].synapses {
		if c.synapses[syn].Permanence >= threshold {
			count++
		}
	}
	return count
}

//Returns the connected input indices of a column, ascending
func (c *Connections) ConnectedInputs(column int) []int {
	c.validateColumn(column)
	threshold := c.rules[Proximal].ConnectedPermanence
	result := []int{}
	for _, syn := range c.segments[column].synapses {
		if c.synapses[syn].Permanence >= threshold {
			result = append(result, c.synapses[syn].Presynaptic)
		}
	}
	sort.Ints(result)
	return result
}

/* Segments */

/*
 Creates a distal segment on cell. If the cell already holds
MaxSegmentsPerCell segments the least valuable one, per the distal
eviction policy, is destroyed first.
*/
func (c *Connections) CreateSegment(cell int) Segment {
	c.validateCell(cell)
	rules := c.rules[Distal]
	if rules.MaxSegmentsPerCell > 0 {
		for len(c.segmentsForCell[cell]) >= rules.MaxSegmentsPerCell {
			victim := c.leastValuableSegment(cell)
			c.logger.Debug("evicting segment",
				zap.Int("cell", cell),
				zap.Uint64("ordinal", c.segments[victim].Ordinal),
				zap.Stringer("policy", rules.Eviction))
			c.metrics.evicted(Distal)
			c.DestroySegment(victim)
		}
	}

	data := SegmentData{
		Kind:     Distal,
		Owner:    cell,
		Ordinal:  c.nextSegmentOrdinal,
		LastUsed: c.iteration,
	}
	c.nextSegmentOrdinal++

	var seg Segment
	if n := len(c.freeSegments); n > 0 {
		seg = c.freeSegments[n-1]
		c.freeSegments = c.freeSegments[:n-1]
		c.segments[seg] = data
	} else {
		seg = Segment(len(c.segments))
		c.segments = append(c.segments, data)
	}

	c.segmentsForCell[cell] = append(c.segmentsForCell[cell], seg)
	c.numDistalSegments++
	c.metrics.segmentCreated()
	return seg
}

//Destroys a distal segment and all of its synapses
func (c *Connections) DestroySegment(seg Segment) {
	data := c.segmentData(seg)
	if data.Kind == Proximal {
		panic("proximal segments are never destroyed")
	}
	for len(data.synapses) > 0 {
		c.DestroySynapse(data.synapses[len(data.synapses)-1])
	}

	list := c.segmentsForCell[data.Owner]
	for i, s := range list {
		if s == seg {
			c.segmentsForCell[data.Owner] = append(list[:i], list[i+1:]...)
			break
		}
	}

	data.destroyed = true
	data.synapses = nil
	c.freeSegments = append(c.freeSegments, seg)
	c.numDistalSegments--
	c.metrics.segmentDestroyed()
}

func (c *Connections) leastValuableSegment(cell int) Segment {
	candidates := c.segmentsForCell[cell]
	best := candidates[0]
	switch c.rules[Distal].Eviction {
	case EvictLeastRecentlyUsed:
		for _, seg := range candidates[1:] {
			if c.segments[seg].LastUsed < c.segments[best].LastUsed {
				best = seg
			}
		}
	default:
		bestSum := c.permanenceSum(best)
		for _, seg := range candidates[1:] {
			if sum := c.permanenceSum(seg); sum < bestSum {
				best, bestSum = seg, sum
			}
		}
	}
	return best
}

func (c *Connections) permanenceSum(seg Segment) float64 {
	sum := 0.0
	for _, syn := range c.segments[seg].synapses {
		sum += c.synapses[syn].Permanence
	}
	return sum
}

//Returns a copy of a cell's distal segments in creation order
func (c *Connections) SegmentsForCell(cell int) []Segment {
	c.validateCell(cell)
	return append([]Segment{}, c.segmentsForCell[cell]...)
}

func (c *Connections) NumSegmentsForCell(cell int) int {
	c.validateCell(cell)
	return len(c.segmentsForCell[cell])
}

//Returns the owner cell of a distal segment
func (c *Connections) CellForSegment(seg Segment) int {
	data := c.segmentData(seg)
	if data.Kind != Distal {
		panic("segment is not distal")
	}
	return data.Owner
}

//Returns a copy of the segment's data
func (c *Connections) DataForSegment(seg Segment) SegmentData {
	data := *c.segmentData(seg)
	data.synapses = append([]Synapse(nil), data.synapses...)
	return data
}

//Returns the synapses on a segment in creation order
func (c *Connections) SynapsesForSegment(seg Segment) []Synapse {
	return append([]Synapse{}, c.segmentData(seg).synapses...)
}

func (c *Connections) NumSynapsesForSegment(seg Segment) int {
	return len(c.segmentData(seg).synapses)
}

// NumSegments returns the number of live distal segments.
func (c *Connections) NumSegments() int {
	return c.numDistalSegments
}

// NumSynapses returns the number of live synapses of a kind.
func (c *Connections) NumSynapses(kind SegmentKind) int {
	return c.numSynapses[kind]
}

// SegmentFlatListLength is the size of per-segment scratch arrays.
func (c *Connections) SegmentFlatListLength() int {
	return len(c.segments)
}

//Orders distal segments by owner cell, then creation
func (c *Connections) CompareSegments(a, b Segment) bool {
	da, db := &c.segments[a], &c.segments[b]
	if da.Owner != db.Owner {
		return da.Owner < db.Owner
	}
	return da.Ordinal < db.Ordinal
}

// marks a segment as active in the current iteration
func (c *Connections) recordSegmentActivity(seg Segment) {
	c.segments[seg].LastUsed = c.iteration
}

func (c *Connections) startNewIteration() {
	c.iteration++
}

/* Synapses */

/*
 Creates a synapse from presynaptic onto seg. If the segment already has
a synapse from that source, its permanence is raised to perm when perm
is higher and that synapse is returned. If the segment is full, the
weakest synapse is destroyed first.
*/
func (c *Connections) CreateSynapse(seg Segment, presynaptic int, perm float64) Synapse {
	data := c.segmentData(seg)
	c.validatePresynaptic(data.Kind, presynaptic)
	rules := c.rules[data.Kind]

	for _, syn := range data.synapses {
		if c.synapses[syn].Presynaptic == presynaptic {
			if perm > c.synapses[syn].Permanence {
				c.synapses[syn].Permanence = rules.clip(perm)
			}
			return syn
		}
	}

	if rules.MaxSynapsesPerSegment > 0 {
		for len(data.synapses) >= rules.MaxSynapsesPerSegment {
			c.metrics.evicted(data.Kind)
			c.DestroySynapse(c.weakestSynapse(seg, nil))
		}
	}

	syn := c.allocSynapse(SynapseData{
		Segment:     seg,
		Presynaptic: presynaptic,
		Permanence:  rules.clip(perm),
		Ordinal:     c.nextSynapseOrdinal,
	})
	c.nextSynapseOrdinal++

	data.synapses = append(data.synapses, syn)
	c.synapsesForPresynaptic[data.Kind][presynaptic] = append(c.synapsesForPresynaptic[data.Kind][presynaptic], syn)
	c.numSynapses[data.Kind]++
	c.metrics.synapseCreated(data.Kind)
	return syn
}

func (c *Connections) allocSynapse(data SynapseData) Synapse {
	if n := len(c.freeSynapses); n > 0 {
		syn := c.freeSynapses[n-1]
		c.freeSynapses = c.freeSynapses[:n-1]
		c.synapses[syn] = data
		return syn
	}
	c.synapses = append(c.synapses, data)
	return Synapse(len(c.synapses) - 1)
}

/*
 Returns the synapse on seg with the lowest permanence, oldest first on
ties. Synapses whose presynaptic source is in the sorted exclude list are
skipped unless nothing else is left.
*/
func (c *Connections) weakestSynapse(seg Segment, exclude []int) Synapse {
	best := Synapse(-1)
	for pass := 0; pass < 2 && best < 0; pass++ {
		for _, syn := range c.segments[seg].synapses {
			data := &c.synapses[syn]
			if pass == 0 && utils.SortedContainsInt(data.Presynaptic, exclude) {
				continue
			}
			if best < 0 || data.Permanence < c.synapses[best].Permanence {
				best = syn
			}
		}
	}
	return best
}

//Destroys a synapse
func (c *Connections) DestroySynapse(syn Synapse) {
	data := c.synapseData(syn)
	seg := &c.segments[data.Segment]

	for i, s := range seg.synapses {
		if s == syn {
			seg.synapses = append(seg.synapses[:i], seg.synapses[i+1:]...)
			break
		}
	}

	list := c.synapsesForPresynaptic[seg.Kind][data.Presynaptic]
	for i, s := range list {
		if s == syn {
			list[i] = list[len(list)-1]
			c.synapsesForPresynaptic[seg.Kind][data.Presynaptic] = list[:len(list)-1]
			break
		}
	}

	data.destroyed = true
	c.freeSynapses = append(c.freeSynapses, syn)
	c.numSynapses[seg.Kind]--
	c.metrics.synapseDestroyed(seg.Kind)
}

/*
 Sets a synapse's permanence, clipped to the kind's [min,max]. A value at
or below the trim threshold destroys the synapse instead; the return
value reports whether that happened.
*/
func (c *Connections) UpdatePermanence(syn Synapse, perm float64) bool {
	data := c.synapseData(syn)
	rules := c.rules[c.segments[data.Segment].Kind]
	perm = rules.clip(perm)
	if perm <= rules.TrimThreshold {
		c.DestroySynapse(syn)
		return true
	}
	data.Permanence = perm
	return false
}

//Returns a copy of the synapse's data
func (c *Connections) DataForSynapse(syn Synapse) SynapseData {
	return *c.synapseData(syn)
}

//Reports whether a synapse handle refers to a live synapse
func (c *Connections) SynapseExists(syn Synapse) bool {
	return syn >= 0 && int(syn) < len(c.synapses) && !c.synapses[syn].destroyed
}

//Reports whether a segment handle refers to a live segment
func (c *Connections) SegmentExists(seg Segment) bool {
	return seg >= 0 && int(seg) < len(c.segments) && !c.segments[seg].destroyed
}

//Returns the sorted presynaptic sources of a segment
func (c *Connections) PresynapticSources(seg Segment) []int {
	syns := c.segmentData(seg).synapses
	result := make([]int, len(syns))
	for i, syn := range syns {
		result[i] = c.synapses[syn].Presynaptic
	}
	sort.Ints(result)
	return result
}

/* Activity */

/*
 For every distal segment counts the synapses whose presynaptic cell is
in activeCells: numActiveConnected counts only connected synapses,
numActivePotential counts all of them. Both are indexed by segment
handle.
*/
func (c *Connections) ComputeActivity(activeCells []int) (numActiveConnected, numActivePotential []int) {
	n := len(c.segments)
	numActiveConnected = make([]int, n)
	numActivePotential = make([]int, n)
	threshold := c.rules[Distal].ConnectedPermanence
	for _, cell := range activeCells {
		for _, syn := range c.synapsesForPresynaptic[Distal][cell] {
			data := &c.synapses[syn]
			numActivePotential[data.Segment]++
			if data.Permanence >= threshold {
				numActiveConnected[data.Segment]++
			}
		}
	}
	return
}

/*
 Counts, per column, the connected proximal synapses whose input bit is
on. activeInputs must be the sorted on indices of the input.
*/
func (c *Connections) ComputeOverlaps(activeInputs []int) []int {
	overlaps := make([]int, c.numColumns)
	threshold := c.rules[Proximal].ConnectedPermanence
	for _, input := range activeInputs {
		for _, syn := range c.synapsesForPresynaptic[Proximal][input] {
			data := &c.synapses[syn]
			if data.Permanence >= threshold {
				overlaps[c.segments[data.Segment].Owner]++
			}
		}
	}
	return overlaps
}

// columnOverlap counts one column's connected synapses on active input bits.
func (c *Connections) columnOverlap(column int, dense []bool) int {
	threshold := c.rules[Proximal].ConnectedPermanence
	count := 0
	for _, syn := range c.segments[column].synapses {
		data := &c.synapses[syn]
		if data.Permanence >= threshold && dense[data.Presynaptic] {
			count++
		}
	}
	return count
}

/* Homeostatic arrays */

//Returns a copy of the boost factors
func (c *Connections) BoostFactors() []float64 {
	return append([]float64(nil), c.boostFactors...)
}

//Returns a copy of the overlap duty cycles
func (c *Connections) OverlapDutyCycles() []float64 {
	return append([]float64(nil), c.overlapDutyCycles...)
}

//Returns a copy of the active duty cycles
func (c *Connections) ActiveDutyCycles() []float64 {
	return append([]float64(nil), c.activeDutyCycles...)
}

func (c *Connections) MinOverlapDutyCycles() []float64 {
	return append([]float64(nil), c.minOverlapDutyCycles...)
}

func (c *Connections) MinActiveDutyCycles() []float64 {
	return append([]float64(nil), c.minActiveDutyCycles...)
}

func (c *Connections) TieBreakers() []float64 {
	return append([]float64(nil), c.tieBreakers...)
}

/* validation helpers */

func (c *Connections) segmentData(seg Segment) *SegmentData {
	if !c.SegmentExists(seg) {
		panic(fmt.Sprintf("segment %d does not exist", seg))
	}
	return &c.segments[seg]
}

func (c *Connections) synapseData(syn Synapse) *SynapseData {
	if !c.SynapseExists(syn) {
		panic(fmt.Sprintf("synapse %d does not exist", syn))
	}
	return &c.synapses[syn]
}

func (c *Connections) validateColumn(column int) {
	if column < 0 || column >= c.numColumns {
		panic(fmt.Sprintf("column %d out of range [0,%d)", column, c.numColumns))
	}
}

func (c *Connections) validateCell(cell int) {
	if cell < 0 || cell >= c.numColumns*c.cellsPerColumn {
		panic(fmt.Sprintf("cell %d out of range [0,%d)", cell, c.numColumns*c.cellsPerColumn))
	}
}

func (c *Connections) validatePresynaptic(kind SegmentKind, source int) {
	limit := c.numInputs
	if kind == Distal {
		limit = c.numColumns * c.cellsPerColumn
	}
	if source < 0 || source >= limit {
		panic(fmt.Sprintf("%v source %d out of range [0,%d)", kind, source, limit))
	}
}

// checkShape verifies an algorithm's dimensions against the graph.
func (c *Connections) checkShape(inputDims, columnDims []int, cellsPerColumn int) error {
	if inputDims != nil && !equalInts(inputDims, c.inputDimensions) {
		return fmt.Errorf("%w: input dimensions %v, graph has %v", ErrDimensionMismatch, inputDims, c.inputDimensions)
	}
	if !equalInts(columnDims, c.columnDimensions) {
		return fmt.Errorf("%w: column dimensions %v, graph has %v", ErrDimensionMismatch, columnDims, c.columnDimensions)
	}
	if cellsPerColumn > 0 && cellsPerColumn != c.cellsPerColumn {
		return fmt.Errorf("%w: %d cells per column, graph has %d", ErrDimensionMismatch, cellsPerColumn, c.cellsPerColumn)
	}
	return nil
}

// maxColumnDimension is used as the global inhibition radius.
func (c *Connections) maxColumnDimension() int {
	result := 0
	for _, d := range c.columnDimensions {
		result = mathutil.Max(result, d)
	}
	return result
}
