// Copyright (c) Facebook, Inc. and its affiliates. All Rights Reserved

package bitlock

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var testStrings = []string{
	"ACGTACGTACGTACGTACGTACGTACGTA",
	"CGTACGTACGTACGTACGTACGTACGTAC",
	"GTACGTACGTACGTACGTACGTACGTACG",
	"TTTTTTTTTTTTTTTTTTTTTTTTTTTTT",
	"AAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
	"GATTACAGATTACAGATTACAGATTACAG",
	"red",
	"yellow",
	"orange",
	"blue",
	"k-mer",
	"node 17",
	"slot 3",
	"",
	"x",
}

func TestFilterBasic(t *testing.T) {
	f := NewFilterWithEstimates(uint(len(testStrings)), 0.001)
	for _, s := range testStrings {
		f.AddString(s)
		if !assert.True(t, f.TestString(s), "%q missing", s) {
			return
		}
	}
	for _, s := range testStrings {
		assert.True(t, f.TestString(s), "%q missing after construction", s)
	}
	assert.Zero(t, f.Cap()%BitsPerWord)
	assert.NotZero(t, f.Count())
	assert.LessOrEqual(t, f.Count(), uint64(len(testStrings))*uint64(f.K()))
}

func TestFilterTestAndAdd(t *testing.T) {
	f := NewFilterWithEstimates(100, 0.0001)
	assert.False(t, f.TestAndAddString("GATTACA"))
	assert.True(t, f.TestAndAddString("GATTACA"))
	assert.True(t, f.Test([]byte("GATTACA")))
	f.ClearAll()
	assert.False(t, f.TestString("GATTACA"))
	assert.Zero(t, f.Count())
}

func TestFilterMatchesBloom(t *testing.T) {
	f := NewFilter(FilterConfig{Bits: 4096, Hashes: 5})
	for i := 0; i < 300; i++ {
		f.AddString(strconv.Itoa(i))
	}
	bf := f.BloomFilter()
	assert.Equal(t, uint(f.Cap()), bf.Cap())
	assert.Equal(t, f.K(), bf.K())
	for i := 0; i < 5000; i++ {
		key := []byte(strconv.Itoa(i))
		require.Equal(t, f.Test(key), bf.Test(key), "key %d", i)
	}

	// and the other way round: a bloom filter with the same geometry sets
	// the same bits
	ref := bloom.New(4096, 5)
	for i := 0; i < 300; i++ {
		ref.AddString(strconv.Itoa(i))
	}
	assert.Equal(t, ref.BitSet().Words(), f.Vector().Snapshot())
}

func TestFilterFalsePositiveRate(t *testing.T) {
	const n = 2000
	f := NewFilterWithEstimates(n, 0.01)
	for i := 0; i < n; i++ {
		f.AddString(fmt.Sprintf("present-%d", i))
	}
	fp := 0
	const probes = 20000
	for i := 0; i < probes; i++ {
		if f.TestString(fmt.Sprintf("absent-%d", i)) {
			fp++
		}
	}
	assert.Less(t, float64(fp)/probes, 0.03)
}

func TestFilterConcurrentAdd(t *testing.T) {
	const workers, perWorker = 8, 500
	f := NewFilterWithEstimates(workers*perWorker, 0.001)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("%d/%d", w, i)
				f.AddString(key)
				// readers run alongside writers
				f.TestString(fmt.Sprintf("%d/%d", (w+1)%workers, i))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			require.True(t, f.TestString(fmt.Sprintf("%d/%d", w, i)))
		}
	}
}

func TestFilterString(t *testing.T) {
	assert.Equal(t, "Filter{bits=128, hashes=3}", NewFilter(FilterConfig{Bits: 100, Hashes: 3}).String())
}

func BenchmarkFilterAddParallel(b *testing.B) {
	f := NewFilterWithEstimates(1<<20, 0.01)
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			f.AddString(testStrings[i%len(testStrings)])
			i++
		}
	})
}
