//
// Code related to temporal memory prediction stats
//

package htm

import (
	"fmt"
	"strings"

	"github.com/cznic/mathutil"
	"github.com/gonum/floats"

	"github.com/htm-community/seqmem/utils"
)

/*
 PredictionStats accumulates how well the columns predicted by one
temporal memory cycle matched the columns that became active on the
next. Cycles within BurnIn of a reset only update the current scores.
*/
type PredictionStats struct {
	NumColumns int
	BurnIn     int

	NInfersSinceReset       int
	NPredictions            int
	PredictionScoreTotal    float64
	FalseNegativeScoreTotal float64
	FalsePositiveScoreTotal float64
	PctExtraTotal           float64
	PctMissingTotal         float64
	TotalMissing            float64
	TotalExtra              float64

	CurPredictionScore    float64
	CurFalseNegativeScore float64
	CurFalsePositiveScore float64
	CurMissing            float64
	CurExtra              float64
}

func NewPredictionStats(numColumns, burnIn int) *PredictionStats {
	return &PredictionStats{NumColumns: numColumns, BurnIn: burnIn}
}

type confidence struct {
	PredictionScore         float64
	PositivePredictionScore float64
	NegativePredictionScore float64
}

/*
 Produces goodness-of-match scores for a set of column patterns against
the predicted columns. Returns the number of extra bits (predicted but in
no pattern), missing bits (in some pattern but not predicted) and a
confidence per pattern. Every predicted column counts with confidence 1.
*/
func (s *PredictionStats) checkPrediction(patternNZs [][]int, predictedColumns []int) (int, int, []confidence) {
	var orAll []int
	for _, pattern := range patternNZs {
		orAll = utils.Union(orAll, utils.SortedUnique(pattern))
	}
	predicted := utils.SortedUnique(predictedColumns)

	totalExtras := len(utils.Complement(predicted, orAll))
	totalMissing := len(utils.Complement(orAll, predicted))

	colConfidence := make([]float64, s.NumColumns)
	for _, col := range predicted {
		colConfidence[col] = 1
	}
	totalPredictionSum := floats.Sum(colConfidence)

	confidences := make([]confidence, len(patternNZs))
	for i, pattern := range patternNZs {
		pattern = utils.SortedUnique(pattern)
		positivePredictionSum := floats.Sum(utils.SubsetSliceFloat64(colConfidence, pattern))
		positiveColumnCount := len(pattern)
		negativePredictionSum := totalPredictionSum - positivePredictionSum
		negativeColumnCount := s.NumColumns - positiveColumnCount

		var positive, negative float64
		if positiveColumnCount != 0 {
			positive = positivePredictionSum
		}
		if negativeColumnCount != 0 {
			negative = negativePredictionSum
		}
		if sum := positive + negative; sum > 0 {
			positive /= sum
			negative /= sum
		}
		confidences[i] = confidence{
			PredictionScore:         positive - negative,
			PositivePredictionScore: positive,
			NegativePredictionScore: negative,
		}
	}

	return totalExtras, totalMissing, confidences
}

/*
 Scores the columns predicted on the last cycle against the columns
active now.
*/
func (s *PredictionStats) Update(activeColumns, predictedColumns []int) {
	s.NInfersSinceReset++

	numExtra, numMissing, confidences := s.checkPrediction([][]int{activeColumns}, predictedColumns)
	conf := confidences[0]

	s.CurPredictionScore = conf.PredictionScore
	s.CurFalseNegativeScore = conf.NegativePredictionScore
	s.CurFalsePositiveScore = conf.PositivePredictionScore
	s.CurMissing = float64(numMissing)
	s.CurExtra = float64(numExtra)

	// 0: score the first element of each sequence, 1: from the second on, etc.
	if s.NInfersSinceReset <= s.BurnIn {
		return
	}

	s.NPredictions++
	numExpected := mathutil.Max(1, len(activeColumns))

	s.TotalMissing += float64(numMissing)
	s.TotalExtra += float64(numExtra)
	s.PctExtraTotal += 100.0 * float64(numExtra) / float64(numExpected)
	s.PctMissingTotal += 100.0 * float64(numMissing) / float64(numExpected)
	s.PredictionScoreTotal += conf.PredictionScore
	s.FalseNegativeScoreTotal += 1.0 - conf.PositivePredictionScore
	s.FalsePositiveScoreTotal += conf.NegativePredictionScore
}

//Scores cur against the columns prev predicted
func (s *PredictionStats) Record(prev, cur *ComputeCycle) {
	s.Update(cur.ActiveColumns, prev.PredictedColumns())
}

//Starts a new sequence, accumulated totals are kept
func (s *PredictionStats) Reset() {
	s.NInfersSinceReset = 0
}

//Mean prediction score over the counted predictions
func (s *PredictionStats) AveragePredictionScore() float64 {
	if s.NPredictions == 0 {
		return 0
	}
	return s.PredictionScoreTotal / float64(s.NPredictions)
}

func (s *PredictionStats) String() string {
	var b strings.Builder
	b.WriteString("Stats: \n")
	fmt.Fprintf(&b, "nInferSinceReset %v \n", s.NInfersSinceReset)
	fmt.Fprintf(&b, "nPredictions %v \n", s.NPredictions)
	fmt.Fprintf(&b, "PredictionScoreTotal %v \n", s.PredictionScoreTotal)
	fmt.Fprintf(&b, "FalseNegativeScoreTotal %v \n", s.FalseNegativeScoreTotal)
	fmt.Fprintf(&b, "FalsePositiveScoreTotal %v \n", s.FalsePositiveScoreTotal)
	fmt.Fprintf(&b, "PctExtraTotal %v \n", s.PctExtraTotal)
	fmt.Fprintf(&b, "PctMissingTotal %v \n", s.PctMissingTotal)
	fmt.Fprintf(&b, "TotalMissing %v \n", s.TotalMissing)
	fmt.Fprintf(&b, "TotalExtra %v \n", s.TotalExtra)
	fmt.Fprintf(&b, "CurPredictionScore %v \n", s.CurPredictionScore)
	fmt.Fprintf(&b, "CurFalseNegativeScore %v \n", s.CurFalseNegativeScore)
	fmt.Fprintf(&b, "CurFalsePositiveScore %v \n", s.CurFalsePositiveScore)
	fmt.Fprintf(&b, "CurMissing %v \n", s.CurMissing)
	fmt.Fprintf(&b, "CurExtra %v \n", s.CurExtra)
	return b.String()
}
