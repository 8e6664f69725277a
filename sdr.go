package htm

import (
	"bytes"
	"fmt"

	"github.com/htm-community/seqmem/utils"
)

/*
 SDR is a sparse distributed representation: a bit vector over a shape
(dimensions) where only a small fraction of bits are on. It is stored as
the sorted list of on indices and converts losslessly to and from the
dense bool form.
*/
type SDR struct {
	dimensions []int
	size       int
	sparse     []int
}

/* Initializers */

//Creates an all-zero SDR of the given shape
func NewSDR(dimensions ...int) *SDR {
	if len(dimensions) == 0 {
		panic("SDR needs at least one dimension")
	}
	s := new(SDR)
	s.dimensions = append([]int(nil), dimensions...)
	s.size = utils.ProdInt(dimensions)
	s.sparse = []int{}
	return s
}

//Creates a 1-D SDR from a dense bool slice
func SDRFromDense(dense []bool) *SDR {
	s := NewSDR(len(dense))
	s.SetDense(dense)
	return s
}

//Creates a 1-D SDR from int literals, any value > 0 is on
func SDRFromInts(ints []int) *SDR {
	s := NewSDR(len(ints))
	on := make([]int, 0, len(ints))
	for idx, val := range ints {
		if val > 0 {
			on = append(on, idx)
		}
	}
	s.sparse = on
	return s
}

//Creates a 1-D SDR from a string of 0s and 1s
func SDRFromStr(str string) *SDR {
	s := NewSDR(len(str))
	on := make([]int, 0, len(str))
	for idx, val := range str {
		if val != '0' {
			on = append(on, idx)
		}
	}
	s.sparse = on
	return s
}

//Creates an SDR of the given shape from a list of on indices
func SDRFromSparse(indices []int, dimensions ...int) *SDR {
	s := NewSDR(dimensions...)
	s.SetSparse(indices)
	return s
}

/* exported functions */

func (s *SDR) Dimensions() []int {
	return append([]int(nil), s.dimensions...)
}

//Total number of bits
func (s *SDR) Size() int {
	return s.size
}

//Returns a copy of the sorted on indices
func (s *SDR) Sparse() []int {
	return append([]int{}, s.sparse...)
}

//Returns the dense bool form
func (s *SDR) Dense() []bool {
	result := make([]bool, s.size)
	for _, idx := range s.sparse {
		result[idx] = true
	}
	return result
}

//Replaces the on bits, indices may be unsorted and contain duplicates
func (s *SDR) SetSparse(indices []int) {
	on := utils.SortedUnique(indices)
	if len(on) > 0 && (on[0] < 0 || on[len(on)-1] >= s.size) {
		panic(fmt.Sprintf("SDR index out of range [0,%d)", s.size))
	}
	s.sparse = on
}

//Replaces the on bits from a dense bool slice of length Size()
func (s *SDR) SetDense(dense []bool) {
	if len(dense) != s.size {
		panic(fmt.Sprintf("dense length %d != SDR size %d", len(dense), s.size))
	}
	s.sparse = utils.OnIndices(dense)
}

//Turns every bit off
func (s *SDR) Zero() {
	s.sparse = []int{}
}

func (s *SDR) At(idx int) bool {
	return utils.SortedContainsInt(idx, s.sparse)
}

//Number of on bits
func (s *SDR) OnBits() int {
	return len(s.sparse)
}

//Fraction of bits that are on
func (s *SDR) Sparsity() float64 {
	if s.size == 0 {
		return 0
	}
	return float64(len(s.sparse)) / float64(s.size)
}

//Number of on bits shared with other
func (s *SDR) Overlap(other *SDR) int {
	count := 0
	i, j := 0, 0
	for i < len(s.sparse) && j < len(other.sparse) {
		switch {
		case s.sparse[i] < other.sparse[j]:
			i++
		case s.sparse[i] > other.sparse[j]:
			j++
		default:
			count++
			i++
			j++
		}
	}
	return count
}

func (s *SDR) Equals(other *SDR) bool {
	if other == nil || s.size != other.size || len(s.sparse) != len(other.sparse) {
		return false
	}
	for idx, val := range s.sparse {
		if val != other.sparse[idx] {
			return false
		}
	}
	return true
}

func (s *SDR) Or(other *SDR) *SDR {
	s.checkSize(other)
	result := NewSDR(s.dimensions...)
	result.sparse = utils.Union(s.sparse, other.sparse)
	return result
}

func (s *SDR) And(other *SDR) *SDR {
	s.checkSize(other)
	result := NewSDR(s.dimensions...)
	result.sparse = make([]int, 0, len(s.sparse))
	for _, idx := range s.sparse {
		if utils.SortedContainsInt(idx, other.sparse) {
			result.sparse = append(result.sparse, idx)
		}
	}
	return result
}

func (s *SDR) Copy() *SDR {
	result := NewSDR(s.dimensions...)
	result.sparse = s.Sparse()
	return result
}

//Renders the dense form as 0s and 1s
func (s *SDR) String() string {
	var buffer bytes.Buffer
	buffer.Grow(s.size)
	j := 0
	for i := 0; i < s.size; i++ {
		if j < len(s.sparse) && s.sparse[j] == i {
			buffer.WriteByte('1')
			j++
		} else {
			buffer.WriteByte('0')
		}
	}
	return buffer.String()
}

func (s *SDR) checkSize(other *SDR) {
	if s.size != other.size {
		panic(fmt.Sprintf("SDR sizes differ: %d != %d", s.size, other.size))
	}
}
