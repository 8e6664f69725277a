package htm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestInitSDR(t *testing.T) {
	sdr := NewSDR(5)

	assert.Equal(t, 5, sdr.Size())
	assert.Equal(t, []bool{false, false, false, false, false}, sdr.Dense())
	assert.Equal(t, []int{}, sdr.Sparse())

	sdr = NewSDR(4, 5)
	assert.Equal(t, 20, sdr.Size())
	assert.Equal(t, []int{4, 5}, sdr.Dimensions())
}

func TestSDRFromInts(t *testing.T) {
	sdr := SDRFromInts([]int{0, 0, 1, 0, 0, 1, 0})

	assert.Equal(t, 7, sdr.Size())
	assert.Equal(t, []bool{false, false, true, false, false, true, false}, sdr.Dense())
	assert.Equal(t, []int{2, 5}, sdr.Sparse())
}

func TestSDRFromStr(t *testing.T) {
	sdr := SDRFromStr("0010010")

	assert.Equal(t, 7, sdr.Size())
	assert.Equal(t, 2, sdr.OnBits())

	sdr = SDRFromStr("0010010000001001000000100100000010010000001001000000100100000010010000000000000")

	assert.Equal(t, 79, sdr.Size())
	assert.Equal(t, 14, sdr.OnBits())
}

func TestSDRSetSparse(t *testing.T) {
	sdr := NewSDR(10)

	sdr.SetSparse([]int{8, 7, 2, 7})

	assert.Equal(t, "0010000110", sdr.String())
	assert.True(t, sdr.At(7))
	assert.False(t, sdr.At(6))

	assert.Panics(t, func() { sdr.SetSparse([]int{10}) })
	assert.Panics(t, func() { sdr.SetDense(make([]bool, 9)) })

	sdr.Zero()
	assert.Equal(t, 0, sdr.OnBits())
}

func TestSDREquals(t *testing.T) {
	a := SDRFromStr("111111")
	b := SDRFromStr("111111")

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(NewSDR(6)))
	assert.False(t, a.Equals(SDRFromStr("111")))
	assert.False(t, a.Equals(nil))
}

func TestSDROrAnd(t *testing.T) {
	a := SDRFromStr("11111")
	b := NewSDR(5)

	assert.True(t, a.Equals(a.Or(b)))
	assert.True(t, b.Equals(a.And(b)))

	c := SDRFromStr("00101")
	assert.Equal(t, []bool{false, false, true, false, true}, b.Or(c).Dense())
	assert.Equal(t, []bool{false, false, true, false, true}, a.And(c).Dense())

	assert.Panics(t, func() { a.Or(NewSDR(4)) })
}

func TestSDROverlap(t *testing.T) {
	a := SDRFromStr("1101100")
	b := SDRFromStr("0101010")

	assert.Equal(t, 2, a.Overlap(b))
	assert.Equal(t, 2, b.Overlap(a))
	assert.InDelta(t, 4.0/7.0, a.Sparsity(), 1e-12)
}

func TestSDRToString(t *testing.T) {
	str := "11000110101010"
	sdr := SDRFromStr(str)

	assert.Equal(t, str, sdr.String())
	assert.Equal(t, str, sdr.Copy().String())
}

func TestSDRDenseSparseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dense := rapid.SliceOfN(rapid.Bool(), 1, 200).Draw(t, "dense")

		sdr := SDRFromDense(dense)
		back := SDRFromSparse(sdr.Sparse(), len(dense))

		if !sdr.Equals(back) {
			t.Fatalf("sparse round trip changed the SDR: %v != %v", sdr, back)
		}
		got := back.Dense()
		for i := range dense {
			if got[i] != dense[i] {
				t.Fatalf("bit %d differs after round trip", i)
			}
		}
	})
}
