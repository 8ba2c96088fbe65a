// Copyright (c) Facebook, Inc. and its affiliates. All Rights Reserved

package bitlock

import (
	"fmt"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter is a bloom filter whose bits live in a Vector, so keys can be
// added and tested from many goroutines without a mutex.  Bit positions
// are computed exactly as bloom.BloomFilter computes them, so a snapshot
// taken with BloomFilter answers Test the same way.
type Filter struct {
	bits   *Vector
	m      uint64
	hashes uint
}

// NewFilter allocates an empty filter.
func NewFilter(c FilterConfig) *Filter {
	c = c.normalize()
	return &Filter{
		bits:   New(c.Bits),
		m:      c.Bits,
		hashes: c.Hashes,
	}
}

// NewFilterWithEstimates sizes a filter for numberOfEntries keys at
// roughly the given false positive rate.
func NewFilterWithEstimates(numberOfEntries uint, falsePositiveRate float64) *Filter {
	return NewFilter(DetermineFilterSize(numberOfEntries, falsePositiveRate))
}

func (f *Filter) locations(key []byte) []uint64 {
	locs := bloom.Locations(key, f.hashes)
	for i := range locs {
		locs[i] %= f.m
	}
	return locs
}

// Add adds key to the filter.
func (f *Filter) Add(key []byte) {
	for _, l := range f.locations(key) {
		f.bits.Set(l)
	}
}

func (f *Filter) AddString(key string) {
	f.Add(bytesOf(key))
}

// Test reports whether key may have been added.
func (f *Filter) Test(key []byte) bool {
	for _, l := range f.locations(key) {
		if !f.bits.Get(l) {
			return false
		}
	}
	return true
}

func (f *Filter) TestString(key string) bool {
	return f.Test(bytesOf(key))
}

// TestAndAdd adds key and reports whether it may have been present
// before.  Concurrent calls adding the same new key may all report false.
func (f *Filter) TestAndAdd(key []byte) bool {
	present := true
	for _, l := range f.locations(key) {
		if !f.bits.TestAndSet(l) {
			present = false
		}
	}
	return present
}

func (f *Filter) TestAndAddString(key string) bool {
	return f.TestAndAdd(bytesOf(key))
}

// Cap returns the number of filter bits.
func (f *Filter) Cap() uint64 {
	return f.m
}

// K returns the number of bits set per key.
func (f *Filter) K() uint {
	return f.hashes
}

// Count returns the number of set filter bits.
func (f *Filter) Count() uint64 {
	return f.bits.Count()
}

// ClearAll empties the filter.  Requires exclusive access.
func (f *Filter) ClearAll() {
	f.bits.Reset(f.m)
}

// BloomFilter returns a snapshot of the filter as a bloom.BloomFilter.
func (f *Filter) BloomFilter() *bloom.BloomFilter {
	return bloom.From(f.bits.Snapshot(), f.hashes)
}

// Vector exposes the filter bits, e.g. for serialization with WriteTo.
func (f *Filter) Vector() *Vector {
	return f.bits
}

func (f *Filter) String() string {
	return fmt.Sprintf("Filter{bits=%d, hashes=%d}", f.m, f.hashes)
}
