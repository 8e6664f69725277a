package htm

import (
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/cznic/mathutil"
	"github.com/gonum/floats"
	"github.com/skelterjohn/go.matrix"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/htm-community/seqmem/utils"
)

/*
 The spatial pooler turns an input SDR into a sparse set of active
columns. Each column has a proximal segment whose potential pool covers a
neighborhood of the input; overlap with the input, boosted by homeostasis,
competes through global or local inhibition. When learning, winning
columns reinforce synapses on active inputs and weaken the rest, and duty
cycles drive boosting so that every column gets a chance to represent
something.
*/
type SpatialPooler struct {
	params SpParams

	conn       *Connections
	numInputs  int
	numColumns int

	inhibitionRadius  int
	iterationNum      int
	iterationLearnNum int

	// from the last compute call
	overlaps        []int
	boostedOverlaps []float64

	logger  *zap.Logger
	metrics *Metrics
}

//Creates a new spatial pooler
func NewSpatialPooler(params SpParams, opts ...Option) (*SpatialPooler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	p := params.resolved()
	o := buildOptions(opts)

	conn := o.connections
	if conn == nil {
		var err error
		conn, err = NewConnections(ConnectionsParams{
			InputDimensions:  p.InputDimensions,
			ColumnDimensions: p.ColumnDimensions,
			CellsPerColumn:   1,
			Seed:             p.Seed,
		}, opts...)
		if err != nil {
			return nil, err
		}
	} else if err := conn.checkShape(p.InputDimensions, p.ColumnDimensions, 0); err != nil {
		return nil, err
	}

	sp := &SpatialPooler{
		params:     p,
		conn:       conn,
		numInputs:  conn.NumInputs(),
		numColumns: conn.NumberOfColumns(),
		logger:     o.logger,
		metrics:    o.metrics,
	}
	sp.overlaps = make([]int, sp.numColumns)
	sp.boostedOverlaps = make([]float64, sp.numColumns)

	conn.setRules(Proximal, SynapseRules{
		ConnectedPermanence: p.SynPermConnected,
		PermanenceMin:       p.SynPermMin,
		PermanenceMax:       p.SynPermMax,
		TrimThreshold:       p.SynPermTrimThreshold,
	})

	// tie breakers are drawn once, before any pool
	for i := range conn.tieBreakers {
		conn.tieBreakers[i] = 0.01 * conn.random.Float64()
	}

	for col := 0; col < sp.numColumns; col++ {
		conn.setPotentialPool(col, sp.mapPotential(col))
		perms := sp.initPermanence(len(conn.potentialPools[col]))
		sp.updatePermanencesForColumn(col, perms, true)
	}

	sp.updateInhibitionRadius()

	sp.logger.Debug("spatial pooler created",
		zap.Int("numInputs", sp.numInputs),
		zap.Int("numColumns", sp.numColumns),
		zap.Bool("globalInhibition", p.GlobalInhibition),
		zap.Int("inhibitionRadius", sp.inhibitionRadius),
		zap.Bool("parallelOverlap", p.ParallelOverlap))

	return sp, nil
}

/*
 Main func, returns the active columns for an input. The input must be
NumInputs wide. When learn is true permanences, duty cycles, boost
factors and the inhibition radius are updated.
*/
func (sp *SpatialPooler) Compute(input *SDR, learn bool) *SDR {
	if input.Size() != sp.numInputs {
		panic(fmt.Sprintf("input width %d != numInputs %d", input.Size(), sp.numInputs))
	}

	sp.updateBookeepingVars(learn)

	overlaps := sp.calculateOverlap(input)
	boosted := make([]float64, sp.numColumns)
	for i, o := range overlaps {
		boosted[i] = float64(o) * sp.conn.boostFactors[i]
	}

	activeColumns := sp.inhibitColumns(boosted)

	if learn {
		sp.adaptSynapses(input, activeColumns)
		sp.updateDutyCycles(overlaps, activeColumns)
		sp.bumpUpWeakColumns()
		sp.updateBoostFactors()
		if sp.isUpdateRound() {
			sp.updateInhibitionRadius()
			sp.updateMinDutyCycles()
		}
	}

	sp.overlaps = overlaps
	sp.boostedOverlaps = boosted
	sp.metrics.computed("spatial_pooler", learn)
	sp.metrics.setActiveColumns(len(activeColumns))

	result := NewSDR(sp.conn.columnDimensions...)
	result.sparse = activeColumns
	return result
}

func (sp *SpatialPooler) updateBookeepingVars(learn bool) {
	sp.iterationNum++
	if learn {
		sp.iterationLearnNum++
	}
}

/*
 Counts, for each column, the connected proximal synapses on active
input bits. In parallel mode columns are split across workers; no worker
touches the random stream.
*/
func (sp *SpatialPooler) calculateOverlap(input *SDR) []int {
	if !sp.params.ParallelOverlap {
		return sp.conn.ComputeOverlaps(input.sparse)
	}

	workers := sp.params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	dense := input.Dense()
	overlaps := make([]int, sp.numColumns)
	chunk := (sp.numColumns + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < sp.numColumns; start += chunk {
		lo, hi := start, mathutil.Min(start+chunk, sp.numColumns)
		g.Go(func() error {
			for col := lo; col < hi; col++ {
				overlaps[col] = sp.conn.columnOverlap(col, dense)
			}
			return nil
		})
	}
	g.Wait()
	return overlaps
}

/*
 Picks the winning columns from the boosted overlaps. Each column's
fixed tie breaker is added first so equal overlaps resolve the same way
every time. Global inhibition is used when configured or when the
inhibition radius spans the whole column space.
*/
func (sp *SpatialPooler) inhibitColumns(overlaps []float64) []int {
	density := sp.inhibitionDensity()

	scores := make([]float64, len(overlaps))
	copy(scores, overlaps)
	floats.Add(scores, sp.conn.tieBreakers)

	if sp.params.GlobalInhibition || sp.inhibitionRadius > sp.conn.maxColumnDimension() {
		return sp.inhibitColumnsGlobal(overlaps, scores, density)
	}
	return sp.inhibitColumnsLocal(overlaps, scores, density)
}

// fraction of an inhibition area allowed to win at the current radius
func (sp *SpatialPooler) inhibitionDensity() float64 {
	if sp.params.LocalAreaDensity > 0 {
		return sp.params.LocalAreaDensity
	}
	inhibitionArea := math.Pow(float64(2*sp.inhibitionRadius+1), float64(len(sp.conn.columnDimensions)))
	inhibitionArea = math.Min(float64(sp.numColumns), inhibitionArea)
	return math.Min(float64(sp.params.NumActiveColumnsPerInhArea)/inhibitionArea, 0.5)
}

/*
 Global inhibition: the numActive highest scoring columns over the whole
column space win, provided they clear the stimulus threshold.
*/
func (sp *SpatialPooler) inhibitColumnsGlobal(overlaps, scores []float64, density float64) []int {
	numActive := int(density*float64(sp.numColumns) + 0.5)

	order := make([]int, sp.numColumns)
	utils.FillSliceWithIdxInt(order)
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	winners := make([]int, 0, numActive)
	for _, col := range order {
		if len(winners) >= numActive {
			break
		}
		if overlaps[col] >= float64(sp.params.StimulusThreshold) {
			winners = append(winners, col)
		}
	}
	sort.Ints(winners)
	return winners
}

/*
 Local inhibition: a column wins when fewer than the local quota of its
neighbors within the inhibition radius score higher. Winners get a small
bump so later columns in the same neighborhood see them as stronger.
*/
func (sp *SpatialPooler) inhibitColumnsLocal(overlaps, scores []float64, density float64) []int {
	addToWinners := floats.Max(scores) / 1000.0
	winners := []int{}

	for col := 0; col < sp.numColumns; col++ {
		if overlaps[col] < float64(sp.params.StimulusThreshold) {
			continue
		}
		neighbors := sp.columnNeighborhood(col)
		numActive := int(0.5 + density*float64(len(neighbors)))
		numBigger := 0
		for _, n := range neighbors {
			if n != col && scores[n] > scores[col] {
				numBigger++
			}
		}
		if numBigger < numActive {
			winners = append(winners, col)
			scores[col] += addToWinners
		}
	}
	return winners
}

/*
 The primary method in charge of learning. For every winning column,
permanences of synapses on active input bits go up by SynPermActiveInc
and all other potential synapses go down by SynPermInactiveDec.
*/
func (sp *SpatialPooler) adaptSynapses(input *SDR, activeColumns []int) {
	dense := input.Dense()
	for _, col := range activeColumns {
		pool := sp.conn.potentialPools[col]
		perms := sp.conn.ProximalPermanences(col)
		for i, bit := range pool {
			if dense[bit] {
				perms[i] += sp.params.SynPermActiveInc
			} else {
				perms[i] -= sp.params.SynPermInactiveDec
			}
		}
		sp.updatePermanencesForColumn(col, perms, true)
	}
}

/*
 Updates the overlap and active duty cycles, moving averages over
DutyCyclePeriod (or the iteration count while that is smaller).
*/
func (sp *SpatialPooler) updateDutyCycles(overlaps []int, activeColumns []int) {
	overlapArray := make([]float64, sp.numColumns)
	activeArray := make([]float64, sp.numColumns)
	for i, o := range overlaps {
		if o > 0 {
			overlapArray[i] = 1
		}
	}
	for _, col := range activeColumns {
		activeArray[col] = 1
	}

	period := mathutil.Min(sp.params.DutyCyclePeriod, sp.iterationNum)
	updateDutyCyclesHelper(sp.conn.overlapDutyCycles, overlapArray, period)
	updateDutyCyclesHelper(sp.conn.activeDutyCycles, activeArray, period)
}

// dutyCycles[i] = (dutyCycles[i] * (period-1) + newInput[i]) / period
func updateDutyCyclesHelper(dutyCycles, newInput []float64, period int) {
	if period < 1 {
		panic("duty cycle period must be >= 1")
	}
	p := float64(period)
	for i := range dutyCycles {
		dutyCycles[i] = (dutyCycles[i]*(p-1) + newInput[i]) / p
	}
}

/*
 Columns whose overlap duty cycle fell below their minimum get every
potential synapse incremented, so they have a chance to connect to
something.
*/
func (sp *SpatialPooler) bumpUpWeakColumns() {
	for col := 0; col < sp.numColumns; col++ {
		if sp.conn.overlapDutyCycles[col] >= sp.conn.minOverlapDutyCycles[col] {
			continue
		}
		perms := sp.conn.ProximalPermanences(col)
		floats.AddConst(sp.params.SynPermActiveInc, perms)
		sp.updatePermanencesForColumn(col, perms, false)
	}
}

/*
 Recomputes boost factors. A column whose active duty cycle is below its
minimum gets a boost that grows linearly from 1 (at the minimum) to
MaxBoost (at zero activity); every other column gets 1.
*/
func (sp *SpatialPooler) updateBoostFactors() {
	c := sp.conn
	for col := 0; col < sp.numColumns; col++ {
		minDuty := c.minActiveDutyCycles[col]
		if minDuty <= 0 || c.activeDutyCycles[col] > minDuty {
			c.boostFactors[col] = 1.0
			continue
		}
		c.boostFactors[col] = (1-sp.params.MaxBoost)/minDuty*c.activeDutyCycles[col] + sp.params.MaxBoost
	}
}

func (sp *SpatialPooler) isUpdateRound() bool {
	return sp.iterationNum%sp.params.UpdatePeriod == 0
}

/*
 Updates the inhibition radius from the average connected span of the
columns, converted from input to column units. Global inhibition pins
the radius to the largest column dimension.
*/
func (sp *SpatialPooler) updateInhibitionRadius() {
	old := sp.inhibitionRadius
	if sp.params.GlobalInhibition {
		sp.inhibitionRadius = sp.conn.maxColumnDimension()
	} else {
		spans := make([]float64, sp.numColumns)
		for col := range spans {
			spans[col] = sp.avgConnectedSpanForColumn(col)
		}
		avgConnectedSpan := floats.Sum(spans) / float64(sp.numColumns)
		diameter := avgConnectedSpan * sp.avgColumnsPerInput()
		radius := math.Max(1.0, (diameter-1)/2.0)
		sp.inhibitionRadius = int(radius + 0.5)
	}
	if old != sp.inhibitionRadius {
		sp.logger.Debug("inhibition radius updated",
			zap.Int("from", old),
			zap.Int("to", sp.inhibitionRadius),
			zap.Int("iteration", sp.iterationNum))
	}
}

// average ratio of columns to inputs across dimensions
func (sp *SpatialPooler) avgColumnsPerInput() float64 {
	colDims := sp.conn.columnDimensions
	inDims := sp.conn.inputDimensions
	numDim := mathutil.Max(len(colDims), len(inDims))
	ratios := make([]float64, numDim)
	for i := range ratios {
		c, in := 1.0, 1.0
		if i < len(colDims) {
			c = float64(colDims[i])
		}
		if i < len(inDims) {
			in = float64(inDims[i])
		}
		ratios[i] = c / in
	}
	return floats.Sum(ratios) / float64(numDim)
}

/*
 The average extent, in input units, of a column's connected synapses
along each input dimension. Zero when nothing is connected.
*/
func (sp *SpatialPooler) avgConnectedSpanForColumn(col int) float64 {
	connected := sp.conn.ConnectedInputs(col)
	if len(connected) == 0 {
		return 0
	}
	dims := sp.conn.inputDimensions
	maxCoord := make([]int, len(dims))
	minCoord := make([]int, len(dims))
	utils.FillSliceInt(maxCoord, -1)
	utils.FillSliceInt(minCoord, math.MaxInt32)
	for _, input := range connected {
		coords := utils.CoordinatesFromIndex(input, dims)
		for d, v := range coords {
			maxCoord[d] = mathutil.Max(maxCoord[d], v)
			minCoord[d] = mathutil.Min(minCoord[d], v)
		}
	}
	spans := make([]float64, len(dims))
	for d := range dims {
		spans[d] = float64(maxCoord[d] - minCoord[d] + 1)
	}
	return floats.Sum(spans) / float64(len(dims))
}

/*
 Sets each column's minimum duty cycles to a percentage of the largest
duty cycle in its neighborhood, or in the whole region under global
inhibition.
*/
func (sp *SpatialPooler) updateMinDutyCycles() {
	if sp.params.GlobalInhibition || sp.inhibitionRadius > sp.conn.maxColumnDimension() {
		sp.updateMinDutyCyclesGlobal()
	} else {
		sp.updateMinDutyCyclesLocal()
	}
}

func (sp *SpatialPooler) updateMinDutyCyclesGlobal() {
	c := sp.conn
	utils.FillSliceFloat64(c.minOverlapDutyCycles, sp.params.MinPctOverlapDutyCycles*floats.Max(c.overlapDutyCycles))
	utils.FillSliceFloat64(c.minActiveDutyCycles, sp.params.MinPctActiveDutyCycles*floats.Max(c.activeDutyCycles))
}

// columns within the inhibition radius of col, col included
func (sp *SpatialPooler) columnNeighborhood(col int) []int {
	if sp.params.WrapAround {
		return utils.WrappingNeighborhood(col, sp.inhibitionRadius, sp.conn.columnDimensions)
	}
	return utils.Neighborhood(col, sp.inhibitionRadius, sp.conn.columnDimensions)
}

func (sp *SpatialPooler) updateMinDutyCyclesLocal() {
	c := sp.conn
	for col := 0; col < sp.numColumns; col++ {
		neighborhood := sp.columnNeighborhood(col)
		maxOverlap := floats.Max(utils.SubsetSliceFloat64(c.overlapDutyCycles, neighborhood))
		maxActive := floats.Max(utils.SubsetSliceFloat64(c.activeDutyCycles, neighborhood))
		c.minOverlapDutyCycles[col] = sp.params.MinPctOverlapDutyCycles * maxOverlap
		c.minActiveDutyCycles[col] = sp.params.MinPctActiveDutyCycles * maxActive
	}
}

/*
 Maps a column to the input index at the same relative position, used
as the center of its potential pool.
*/
func (sp *SpatialPooler) mapColumn(col int) int {
	colDims := sp.conn.columnDimensions
	inDims := sp.conn.inputDimensions
	colCoords := utils.CoordinatesFromIndex(col, colDims)
	inCoords := make([]int, len(inDims))
	for i := range inDims {
		ratio := float64(colCoords[i]) / float64(colDims[i])
		v := float64(inDims[i])*ratio + 0.5*float64(inDims[i])/float64(colDims[i])
		inCoords[i] = int(v)
	}
	return utils.IndexFromCoordinates(inCoords, inDims)
}

/*
 Picks a column's potential pool: a PotentialPct sample, drawn from the
owned random stream, of the inputs within PotentialRadius of the
column's center.
*/
func (sp *SpatialPooler) mapPotential(col int) []int {
	center := sp.mapColumn(col)
	var neighborhood []int
	if sp.params.WrapAround {
		neighborhood = utils.WrappingNeighborhood(center, sp.params.PotentialRadius, sp.conn.inputDimensions)
	} else {
		neighborhood = utils.Neighborhood(center, sp.params.PotentialRadius, sp.conn.inputDimensions)
	}
	numPotential := int(math.Round(float64(len(neighborhood)) * sp.params.PotentialPct))
	pool := sp.conn.random.Sample(neighborhood, numPotential)
	sort.Ints(pool)
	return pool
}

/*
 Initializes permanences for a potential pool of size n. About
InitConnectedPct of them start connected, in [connected, max); the rest
start in [0, connected). Values are truncated to 5 decimals.
*/
func (sp *SpatialPooler) initPermanence(n int) []float64 {
	perms := make([]float64, n)
	for i := range perms {
		var p float64
		if sp.conn.random.Float64() <= sp.params.InitConnectedPct {
			p = sp.params.SynPermConnected + (sp.params.SynPermMax-sp.params.SynPermConnected)*sp.conn.random.Float64()
		} else {
			p = sp.params.SynPermConnected * sp.conn.random.Float64()
		}
		perms[i] = math.Floor(p*100000) / 100000
	}
	return perms
}

/*
 Raises all of a column's permanences by SynPermBelowStimulusInc until at
least StimulusThreshold of them (or the whole pool, if smaller) are
connected.
*/
func (sp *SpatialPooler) raisePermanenceToThreshold(perms []float64) {
	target := mathutil.Min(sp.params.StimulusThreshold, len(perms))
	if target <= 0 {
		return
	}
	for i := range perms {
		perms[i] = math.Max(sp.params.SynPermMin, math.Min(sp.params.SynPermMax, perms[i]))
	}
	for {
		numConnected := 0
		for _, p := range perms {
			if p >= sp.params.SynPermConnected {
				numConnected++
			}
		}
		if numConnected >= target {
			return
		}
		for i := range perms {
			perms[i] = math.Min(sp.params.SynPermMax, perms[i]+sp.params.SynPermBelowStimulusInc)
		}
	}
}

func (sp *SpatialPooler) updatePermanencesForColumn(col int, perms []float64, raisePerm bool) {
	if raisePerm {
		sp.raisePermanenceToThreshold(perms)
	}
	sp.conn.setProximalPermanences(col, perms)
}

/* Accessors */

func (sp *SpatialPooler) Params() SpParams {
	return sp.params.resolved()
}

// Connections returns the graph the pooler works on.
func (sp *SpatialPooler) Connections() *Connections {
	return sp.conn
}

func (sp *SpatialPooler) NumInputs() int {
	return sp.numInputs
}

func (sp *SpatialPooler) NumColumns() int {
	return sp.numColumns
}

func (sp *SpatialPooler) InhibitionRadius() int {
	return sp.inhibitionRadius
}

func (sp *SpatialPooler) IterationNum() int {
	return sp.iterationNum
}

func (sp *SpatialPooler) IterationLearnNum() int {
	return sp.iterationLearnNum
}

//Raw overlaps of the last compute call
func (sp *SpatialPooler) Overlaps() []int {
	return append([]int(nil), sp.overlaps...)
}

//Boosted overlaps of the last compute call
func (sp *SpatialPooler) BoostedOverlaps() []float64 {
	return append([]float64(nil), sp.boostedOverlaps...)
}

/*
 Returns a numColumns x numInputs matrix of proximal permanences. Inputs
outside a column's potential pool, or trimmed, read as zero.
*/
func (sp *SpatialPooler) PermanenceMatrix() *matrix.DenseMatrix {
	m := matrix.Zeros(sp.numColumns, sp.numInputs)
	for col := 0; col < sp.numColumns; col++ {
		perms := sp.conn.ProximalPermanences(col)
		for i, input := range sp.conn.potentialPools[col] {
			m.Set(col, input, perms[i])
		}
	}
	return m
}

//Returns a numColumns x numInputs matrix with 1 for connected synapses
func (sp *SpatialPooler) ConnectedMatrix() *matrix.DenseMatrix {
	m := matrix.Zeros(sp.numColumns, sp.numInputs)
	for col := 0; col < sp.numColumns; col++ {
		for _, input := range sp.conn.ConnectedInputs(col) {
			m.Set(col, input, 1)
		}
	}
	return m
}
