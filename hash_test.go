// Copyright (c) Facebook, Inc. and its affiliates. All Rights Reserved

package bitlock

import (
	"hash/fnv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twmb/murmur3"
)

func TestHashFunctions(t *testing.T) {
	for _, s := range testStrings {
		h := fnv.New64a()
		h.Write([]byte(s))
		assert.Equal(t, h.Sum64(), FNVHash64([]byte(s)), "fnv %q", s)
		assert.Equal(t, murmur3.Sum64([]byte(s)), Murmur3Hash64([]byte(s)), "murmur3 %q", s)
	}
	assert.NotEqual(t, MurmurHash64([]byte("red")), MurmurHash64([]byte("blue")))
}

func TestMurmurHash64Known(t *testing.T) {
	// MurmurHash64A reference values, seed 0
	for s, want := range map[string]uint64{
		"":               0,
		"a":              0x071717d2d36b6b11,
		"hello":          0x1e68d17c457bf117,
		"bitlocks":       0x8c325161f6f1820c,
		"k-mer counting": 0x0579484851250a0e,
	} {
		assert.Equal(t, want, MurmurHash64([]byte(s)), "murmur64a %q", s)
	}
}

func TestBytesOf(t *testing.T) {
	assert.Equal(t, []byte("k-mer"), bytesOf("k-mer"))
	assert.Empty(t, bytesOf(""))
}
