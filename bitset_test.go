package bitlock

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
)

func TestToBitSet(t *testing.T) {
	v := randomVector(5, 333)
	b := v.BitSet()
	assert.Equal(t, uint(333), b.Len())
	assert.Equal(t, uint(v.Count()), b.Count())
	for i := uint64(0); i < v.Len(); i++ {
		assert.Equal(t, v.Get(i), b.Test(uint(i)), "bit %d", i)
	}

	// the bitset is a snapshot
	v.Set(0)
	v.Set(1)
	b.Clear(0)
	b.Clear(1)
	assert.True(t, v.Get(0))
	assert.False(t, b.Test(1))
}

func TestToBitSetDropsTail(t *testing.T) {
	v := NewFromWords(10, []uint64{^uint64(0)})
	b := v.BitSet()
	assert.Equal(t, uint(10), b.Count())
}

func TestFromBitSet(t *testing.T) {
	b := bitset.New(100)
	b.Set(3).Set(64).Set(99)
	v := NewFromBitSet(b)
	assert.Equal(t, uint64(100), v.Len())
	assert.Equal(t, uint64(3), v.Count())
	assert.True(t, v.Get(3))
	assert.True(t, v.Get(64))
	assert.True(t, v.Get(99))
	assert.True(t, b.Equal(v.BitSet()))

	assert.Zero(t, NewFromBitSet(bitset.New(0)).Len())
}
