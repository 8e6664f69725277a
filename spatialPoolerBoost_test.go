package htm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
 Test boosting.
The test is constructed as follows: we construct a set of 5 known inputs. Two
of the input patterns have 50% overlap while all other combinations have 0%
overlap. Each input pattern has 20 bits on to ensure reasonable overlap with
almost all columns.

SP parameters: the minActiveDutyCycle is set to 1 in 10. The SP is set to
have 600 columns with 10% output sparsity, so the 5 inputs cannot use up all
the columns. Permanence increment and decrement are 0 so winning columns
don't change unless they have been boosted.

Phase 1: the first 5 patterns get distinct output SDRs, boost factors stay
at 1, at least half of the columns never win and those have duty cycle 0.

Phase 2: over the next 45 iterations boosting stays at 1 since
minActiveDutyCycle is only calculated after 50 iterations. The same
columns keep winning.

Phase 3: never-won columns get boosted and start to win.

Phase 4: run without learning. Boost values and winners don't change.
*/

type boostTest struct {
	sp               *SpatialPooler
	x                []*SDR
	winningIteration []int
	lastSDR          []*SDR
}

func (bt *boostTest) batch(learn bool) {
	for idx, input := range bt.x {
		y := bt.sp.Compute(input, learn)
		for _, col := range y.Sparse() {
			bt.winningIteration[col] = bt.sp.IterationLearnNum()
		}
		bt.lastSDR[idx] = y
	}
}

func (bt *boostTest) neverWon() int {
	count := 0
	for _, it := range bt.winningIteration {
		if it == 0 {
			count++
		}
	}
	return count
}

func allOnes(values []float64) bool {
	for _, v := range values {
		if v != 1 {
			return false
		}
	}
	return true
}

func verifySDRProps(t *testing.T, bt *boostTest) {
	for i := 0; i < len(bt.lastSDR); i++ {
		for j := i + 1; j < len(bt.lastSDR); j++ {
			assert.False(t, bt.lastSDR[i].Equals(bt.lastSDR[j]), "SDRs %d and %d are equal", i, j)
		}
	}

	assert.True(t, bt.lastSDR[0].Overlap(bt.lastSDR[1]) > 9, "First two SDR's don't overlap much")

	for i := 2; i <= 4; i++ {
		for j := 0; j <= 4; j++ {
			if i != j {
				assert.True(t, bt.lastSDR[i].Overlap(bt.lastSDR[j]) < 18, "One of the last three SDRs has high overlap")
			}
		}
	}
}

func phase1(t *testing.T, bt *boostTest) {
	bt.batch(true)
	c := bt.sp.Connections()

	assert.True(t, allOnes(c.BoostFactors()), "Boost factors are not all 1")
	assert.GreaterOrEqual(t, bt.neverWon(), bt.sp.NumColumns()/2, "More than half of the columns have been active")

	winningMin := 1.0
	for idx, val := range c.ActiveDutyCycles() {
		if bt.winningIteration[idx] == 0 {
			assert.Equal(t, 0.0, val, "Inactive column %d has positive duty cycle", idx)
		} else if val < winningMin {
			winningMin = val
		}
	}
	assert.GreaterOrEqual(t, winningMin, 0.2-1e-9, "Active columns have duty cycle that is too low")

	verifySDRProps(t, bt)
}

func phase2(t *testing.T, bt *boostTest) {
	first := make([]*SDR, len(bt.lastSDR))
	copy(first, bt.lastSDR)

	for i := 0; i < 9; i++ {
		bt.batch(true)
	}
	c := bt.sp.Connections()

	assert.True(t, allOnes(c.BoostFactors()), "Boost factors are not all 1")
	assert.GreaterOrEqual(t, bt.neverWon(), bt.sp.NumColumns()/2)
	for idx, val := range c.ActiveDutyCycles() {
		if bt.winningIteration[idx] == 0 {
			assert.Equal(t, 0.0, val)
		}
	}
	for i := range first {
		assert.True(t, first[i].Equals(bt.lastSDR[i]), "pattern %d changed its SDR without boosting", i)
	}
	assert.NotZero(t, c.MinActiveDutyCycles()[0])
}

func phase3(t *testing.T, bt *boostTest) {
	before := bt.neverWon()
	bt.batch(true)
	bt.batch(true)
	assert.Less(t, bt.neverWon(), before, "boosting did not bring new columns in")
}

func phase4(t *testing.T, bt *boostTest) {
	boostAtBeg := bt.sp.Connections().BoostFactors()
	before := make([]*SDR, len(bt.x))
	for idx, input := range bt.x {
		before[idx] = bt.sp.Compute(input, false)
	}
	for idx, input := range bt.x {
		assert.True(t, before[idx].Equals(bt.sp.Compute(input, false)))
	}
	assert.Equal(t, boostAtBeg, bt.sp.Connections().BoostFactors(), "Boost factors changed when learning is off")
}

func TestBoost(t *testing.T) {
	spParams := NewSpParams()
	spParams.InputDimensions = []int{90}
	spParams.ColumnDimensions = []int{600}
	spParams.PotentialRadius = 90
	spParams.PotentialPct = 0.9
	spParams.GlobalInhibition = true
	spParams.NumActiveColumnsPerInhArea = 60
	spParams.MinPctActiveDutyCycles = 0.1
	spParams.SynPermActiveInc = 0
	spParams.SynPermInactiveDec = 0
	spParams.DutyCyclePeriod = 10
	sp, err := NewSpatialPooler(spParams)
	require.NoError(t, err)

	bt := &boostTest{sp: sp}
	// B,C,D don't overlap at all with other patterns
	ranges := [][2]int{{0, 20}, {10, 30}, {30, 50}, {50, 70}, {70, 90}}
	for _, r := range ranges {
		bits := make([]int, 0, r[1]-r[0])
		for i := r[0]; i < r[1]; i++ {
			bits = append(bits, i)
		}
		bt.x = append(bt.x, SDRFromSparse(bits, 90))
	}
	bt.winningIteration = make([]int, sp.NumColumns())
	bt.lastSDR = make([]*SDR, len(bt.x))

	phase1(t, bt)
	phase2(t, bt)
	phase3(t, bt)
	phase4(t, bt)
}
