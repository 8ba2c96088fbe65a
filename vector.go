// Copyright (c) Facebook, Inc. and its affiliates. All Rights Reserved

// Package bitlock implements a fixed size bit vector which is safe for
// concurrent use and which doubles as an array of spin locks, one per bit:
//  1. atomic per bit Get/Set/Unset
//  2. TryLock/Lock/Unlock on the same storage
//  3. a packed little endian word layout shared with files and external buffers
//  4. a concurrent bloom filter and striped key locks built on top
package bitlock

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/bits"
	"runtime"
	"slices"
	"sync/atomic"
)

const (
	// BitsPerWord is the width of a storage word.  Bit i of a vector is
	// bit i%BitsPerWord (counting from the least significant bit) of word
	// i/BitsPerWord.
	BitsPerWord  = 64
	bytesPerWord = BitsPerWord / 8

	// number of failed attempts after which Lock starts yielding the
	// processor between attempts
	spinsBeforeYield = 64
)

// noCopy lets go vet's copylocks check flag a Vector passed by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Vector is a fixed size bit vector which can be read and written from
// many goroutines at once.  Each bit can also be used as a spin lock: a
// set bit is a held lock.
//
// Get, Set, Unset, TryLock, Lock, Unlock and the snapshot helpers may be
// called concurrently.  Reset, Swap, Load and ReadFrom replace the
// storage and must not race with any other call on the same vector.
//
// Indices must be in [0, Len()).  An out of range index is a programming
// error and panics.
type Vector struct {
	_     noCopy
	size  uint64
	words []atomic.Uint64
}

var _ Reader = (*Vector)(nil)

func wordsFor(size uint64) uint64 {
	n := size / BitsPerWord
	if size%BitsPerWord != 0 {
		n++
	}
	return n
}

// New allocates a vector of size bits, all clear.
func New(size uint64) *Vector {
	return &Vector{
		size:  size,
		words: make([]atomic.Uint64, wordsFor(size)),
	}
}

// NewFromWords allocates a vector of size bits initialized from a packed
// word buffer.  src must hold at least ceil(size/64) words; they are
// copied verbatim.
func NewFromWords(size uint64, src []uint64) *Vector {
	v := New(size)
	v.fill(src)
	return v
}

// NewFromBytes allocates a vector of size bits initialized from a little
// endian byte buffer laid out as consecutive 64 bit words.  src must hold
// at least ceil(size/8) bytes; a short final word is zero padded.
func NewFromBytes(size uint64, src []byte) *Vector {
	need := size / 8
	if size%8 != 0 {
		need++
	}
	if uint64(len(src)) < need {
		panic(fmt.Sprintf("bitlock: source holds %d bytes, %d required for %d bits",
			len(src), need, size))
	}
	v := New(size)
	var tail [bytesPerWord]byte
	for k := range v.words {
		off := k * bytesPerWord
		if off+bytesPerWord <= len(src) {
			v.words[k].Store(binary.LittleEndian.Uint64(src[off:]))
			continue
		}
		tail = [bytesPerWord]byte{}
		copy(tail[:], src[off:])
		v.words[k].Store(binary.LittleEndian.Uint64(tail[:]))
	}
	return v
}

// Load re-initializes the vector to size bits copied from src, the way
// NewFromWords does.  Requires exclusive access.
func (v *Vector) Load(size uint64, src []uint64) {
	v.size = size
	v.words = make([]atomic.Uint64, wordsFor(size))
	v.fill(src)
}

func (v *Vector) fill(src []uint64) {
	if len(src) < len(v.words) {
		panic(fmt.Sprintf("bitlock: source holds %d words, %d required for %d bits",
			len(src), len(v.words), v.size))
	}
	for k := range v.words {
		v.words[k].Store(src[k])
	}
}

// Len returns the number of addressable bits.
func (v *Vector) Len() uint64 {
	return v.size
}

// Words returns the number of storage words.
func (v *Vector) Words() int {
	return len(v.words)
}

func (v *Vector) index(i uint64) (w *atomic.Uint64, mask uint64) {
	if i >= v.size {
		panic(fmt.Sprintf("bitlock: index %d out of range [0,%d)", i, v.size))
	}
	return &v.words[i/BitsPerWord], 1 << (i % BitsPerWord)
}

// Get reports whether bit i is set.
func (v *Vector) Get(i uint64) bool {
	w, mask := v.index(i)
	return w.Load()&mask != 0
}

// Set sets bit i.
func (v *Vector) Set(i uint64) {
	w, mask := v.index(i)
	w.Or(mask)
}

// Unset clears bit i.
func (v *Vector) Unset(i uint64) {
	w, mask := v.index(i)
	w.And(^mask)
}

// TestAndSet sets bit i and reports whether it was already set.
func (v *Vector) TestAndSet(i uint64) bool {
	w, mask := v.index(i)
	return w.Or(mask)&mask != 0
}

// TryLock attempts to take the lock on bit i without blocking.  It
// returns false as soon as the bit is observed held, and true once a
// compare-and-swap flips it from 0 to 1.  The loop only repeats when a
// concurrent write to another bit of the same word wins the race.
func (v *Vector) TryLock(i uint64) bool {
	w, mask := v.index(i)
	for {
		old := w.Load()
		if old&mask != 0 {
			return false
		}
		if w.CompareAndSwap(old, old|mask) {
			return true
		}
	}
}

// Lock spins until it takes the lock on bit i.  There is no fairness
// between goroutines waiting on the same bit and no timeout; see
// LockContext for a bounded wait.
func (v *Vector) Lock(i uint64) {
	for spins := 0; !v.TryLock(i); spins++ {
		if spins >= spinsBeforeYield {
			runtime.Gosched()
		}
	}
}

// LockContext is Lock with a way out: it returns ctx.Err() if ctx is done
// before the lock on bit i is taken.
func (v *Vector) LockContext(ctx context.Context, i uint64) error {
	for spins := 0; !v.TryLock(i); spins++ {
		if spins >= spinsBeforeYield {
			if err := ctx.Err(); err != nil {
				return err
			}
			runtime.Gosched()
		}
	}
	return nil
}

// Unlock releases the lock on bit i.  It is Unset: ownership is not
// checked, so unlocking a bit held by someone else releases it.
func (v *Vector) Unlock(i uint64) {
	v.Unset(i)
}

// LockAll locks every distinct index in ascending order and returns the
// sorted, de-duplicated indices to pass to UnlockAll.  Goroutines that
// only take several locks through LockAll cannot deadlock each other.
func (v *Vector) LockAll(indices ...uint64) []uint64 {
	ordered := slices.Clone(indices)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)
	for _, i := range ordered {
		v.Lock(i)
	}
	return ordered
}

// UnlockAll releases the locks taken by LockAll, in reverse order.
func (v *Vector) UnlockAll(indices []uint64) {
	for k := len(indices) - 1; k >= 0; k-- {
		v.Unlock(indices[k])
	}
}

// Reset discards the storage and reallocates size clear bits.  Requires
// exclusive access.
func (v *Vector) Reset(size uint64) {
	v.size = size
	v.words = make([]atomic.Uint64, wordsFor(size))
}

// Swap exchanges size and storage with other.  Neither vector may be in
// use by another goroutine while they are swapped.
func (v *Vector) Swap(other *Vector) {
	v.size, other.size = other.size, v.size
	v.words, other.words = other.words, v.words
}

// Snapshot reads every word atomically, one at a time, and returns the
// copy.  Words are not read at a single instant.
func (v *Vector) Snapshot() []uint64 {
	out := make([]uint64, len(v.words))
	for k := range v.words {
		out[k] = v.words[k].Load()
	}
	return out
}

// Bytes is Snapshot encoded as little endian bytes.
func (v *Vector) Bytes() []byte {
	out := make([]byte, 0, len(v.words)*bytesPerWord)
	for k := range v.words {
		out = binary.LittleEndian.AppendUint64(out, v.words[k].Load())
	}
	return out
}

// Clone returns a new vector built from a Snapshot of v.
func (v *Vector) Clone() *Vector {
	return NewFromWords(v.size, v.Snapshot())
}

// tailMask masks off the bits of word k which lie beyond Len().
func (v *Vector) tailMask(k int) uint64 {
	if k == len(v.words)-1 && v.size%BitsPerWord != 0 {
		return (uint64(1) << (v.size % BitsPerWord)) - 1
	}
	return ^uint64(0)
}

// Count returns the number of set bits below Len().
func (v *Vector) Count() uint64 {
	var n uint64
	for k := range v.words {
		n += uint64(bits.OnesCount64(v.words[k].Load() & v.tailMask(k)))
	}
	return n
}

func (v *Vector) String() string {
	return fmt.Sprintf("Vector{size=%d, words=%d}", v.size, len(v.words))
}
