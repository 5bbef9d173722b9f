package dataset

import "math/rand"

// Shuffler holds a Fisher-Yates permutation over [0,N). It is shared
// across co-indexed datasets (e.g. parallel given/expected files split
// out of the same source) so that row i in one always corresponds to row
// i in another after a shared shuffle.
type Shuffler struct {
	perm []int64
}

// NewShuffler builds the identity permutation over [0,n).
func NewShuffler(n int64) *Shuffler {
	perm := make([]int64, n)
	for i := range perm {
		perm[i] = int64(i)
	}
	return &Shuffler{perm: perm}
}

// Shuffle performs an in-place Fisher-Yates shuffle using rng. Until this
// is called, Lookup is the identity.
func (s *Shuffler) Shuffle(rng *rand.Rand) {
	for i := len(s.perm) - 1; i > 0; i-- {
		j := rng.Int63n(int64(i) + 1)
		s.perm[i], s.perm[j] = s.perm[j], s.perm[i]
	}
}

// Lookup maps a cursor position to the underlying row index.
func (s *Shuffler) Lookup(cursor int64) int64 { return s.perm[cursor] }

// Len returns the size of the permutation.
func (s *Shuffler) Len() int64 { return int64(len(s.perm)) }
