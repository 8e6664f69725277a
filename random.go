package htm

import (
	"math/rand/v2"
)

// second PCG word, fixed so a single int seed fully determines the stream
const pcgStream = 0x9e3779b97f4a7c15

/*
 Random is the single seeded stream every stochastic choice is drawn
from: potential pool sampling, initial permanences, tie breakers, synapse
growth candidates and least used cell selection. Its state can be
marshaled so a restored graph continues the exact same sequence.
*/
type Random struct {
	src *rand.PCG
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	src := rand.NewPCG(uint64(seed), pcgStream)
	return &Random{src: src, rng: rand.New(src)}
}

// Float64 returns a value in [0,1).
func (r *Random) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a value in [0,n). n must be > 0.
func (r *Random) Intn(n int) int {
	return r.rng.IntN(n)
}

/*
 Sample picks n distinct elements of population, in draw order. The
population slice is not modified. If n >= len(population) every element
is returned in a shuffled order.
*/
func (r *Random) Sample(population []int, n int) []int {
	pool := make([]int, len(population))
	copy(pool, population)
	if n > len(pool) {
		n = len(pool)
	}
	for i := 0; i < n; i++ {
		j := i + r.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

func (r *Random) MarshalBinary() ([]byte, error) {
	return r.src.MarshalBinary()
}

func (r *Random) UnmarshalBinary(data []byte) error {
	return r.src.UnmarshalBinary(data)
}
