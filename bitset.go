package bitlock

import "github.com/bits-and-blooms/bitset"

// BitSet returns a snapshot of v as a bitset of length Len().  Both use the
// same word layout; bits stored beyond Len() in the final word are dropped.
func (v *Vector) BitSet() *bitset.BitSet {
	words := v.Snapshot()
	if n := len(words); n > 0 {
		words[n-1] &= v.tailMask(n - 1)
	}
	return bitset.FromWithLength(uint(v.size), words)
}

// NewFromBitSet allocates a vector holding a copy of b.
func NewFromBitSet(b *bitset.BitSet) *Vector {
	size := uint64(b.Len())
	words := make([]uint64, wordsFor(size))
	copy(words, b.Words())
	return NewFromWords(size, words)
}
