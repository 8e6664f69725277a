package htm

import (
	"fmt"
)

/*
 ComputeCycle is the result of one temporal memory compute call. All
index lists are sorted ascending; segment lists are ordered by owner cell
then creation. The temporal memory keeps the most recent cycle as the
previous state of the next call and nothing older.
*/
type ComputeCycle struct {
	ActiveColumns []int
	ActiveCells   []int
	WinnerCells   []int
	// cells with an active segment, predicted for the next call
	PredictiveCells []int
	MatchingCells   []int
	// active columns that contained a cell predicted by the previous call
	PredictedActiveColumns []int
	BurstingColumns        []int
	// cells predicted by the previous call whose column stayed inactive
	PredictedInactiveCells []int
	ActiveSegments         []Segment
	MatchingSegments       []Segment

	numColumns     int
	cellsPerColumn int
}

func newComputeCycle(numColumns, cellsPerColumn int) *ComputeCycle {
	return &ComputeCycle{
		ActiveColumns:          []int{},
		ActiveCells:            []int{},
		WinnerCells:            []int{},
		PredictiveCells:        []int{},
		MatchingCells:          []int{},
		PredictedActiveColumns: []int{},
		BurstingColumns:        []int{},
		PredictedInactiveCells: []int{},
		ActiveSegments:         []Segment{},
		MatchingSegments:       []Segment{},
		numColumns:             numColumns,
		cellsPerColumn:         cellsPerColumn,
	}
}

//Active cells as an SDR over all cells
func (cc *ComputeCycle) ActiveCellsSDR() *SDR {
	return SDRFromSparse(cc.ActiveCells, cc.numColumns*cc.cellsPerColumn)
}

//Winner cells as an SDR over all cells
func (cc *ComputeCycle) WinnerCellsSDR() *SDR {
	return SDRFromSparse(cc.WinnerCells, cc.numColumns*cc.cellsPerColumn)
}

//Predictive cells as an SDR over all cells
func (cc *ComputeCycle) PredictiveCellsSDR() *SDR {
	return SDRFromSparse(cc.PredictiveCells, cc.numColumns*cc.cellsPerColumn)
}

//Columns holding at least one predictive cell
func (cc *ComputeCycle) PredictedColumns() []int {
	return cellsToColumns(cc.PredictiveCells, cc.cellsPerColumn)
}

//Active cells as a columns x cells matrix
func (cc *ComputeCycle) ActiveCellsMatrix() *DenseBinaryMatrix {
	return NewDenseBinaryMatrixFromIndices(cc.numColumns, cc.cellsPerColumn, cc.ActiveCells)
}

//Predictive cells as a columns x cells matrix
func (cc *ComputeCycle) PredictiveCellsMatrix() *DenseBinaryMatrix {
	return NewDenseBinaryMatrixFromIndices(cc.numColumns, cc.cellsPerColumn, cc.PredictiveCells)
}

func (cc *ComputeCycle) String() string {
	return fmt.Sprintf("cycle{active cols:%v active cells:%v winners:%v predictive:%v bursting:%v}",
		cc.ActiveColumns, cc.ActiveCells, cc.WinnerCells, cc.PredictiveCells, cc.BurstingColumns)
}

// sorted unique columns of sorted cells
func cellsToColumns(cells []int, cellsPerColumn int) []int {
	result := []int{}
	for _, cell := range cells {
		col := cell / cellsPerColumn
		if len(result) == 0 || result[len(result)-1] != col {
			result = append(result, col)
		}
	}
	return result
}
