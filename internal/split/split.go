// Package split partitions dataset indices into reproducible training and
// validation subsets.
//
// # Shuffle Algorithm
//
// The identity sequence 0..n-1 is shuffled with Fisher–Yates (descending i,
// j drawn uniformly from [0, i]) driven by a math/rand/v2 PCG generator
// seeded once with (seed, seed). The same (n, ratio, seed) always yields the
// same partition in this implementation. Other languages or PRNGs will not
// reproduce it bit for bit; treat the (algorithm, generator) pair as a
// compatibility boundary when exchanging partitions.
package split

import (
	"math"
	"math/rand/v2"

	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
)

// Partition holds two disjoint index sequences covering 0..n-1.
type Partition struct {
	Train      []int `json:"train"`
	Validation []int `json:"validation"`
}

// Len returns the total number of indices in the partition.
func (p Partition) Len() int {
	return len(p.Train) + len(p.Validation)
}

// Split shuffles 0..n-1 with a generator seeded by seed and cuts the result at
// floor(n*ratio). The first part is the training set.
//
// Returns an ErrInvalidConfiguration error if n is negative or ratio is not
// within [0,1].
func Split(n int, ratio float64, seed int64) (Partition, error) {
	if n < 0 {
		return Partition{}, errs.Invalid("item count %d is negative", n)
	}
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		return Partition{}, errs.Invalid("split ratio %v outside [0,1]", ratio)
	}

	idxs := Shuffle(n, seed)
	cut := int(math.Floor(float64(n) * ratio))

	return Partition{
		Train:      idxs[:cut:cut],
		Validation: idxs[cut:],
	}, nil
}

// Shuffle returns a permutation of 0..n-1 determined entirely by seed.
func Shuffle(n int, seed int64) []int {
	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = i
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		idxs[i], idxs[j] = idxs[j], idxs[i]
	}
	return idxs
}
