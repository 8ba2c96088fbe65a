// Copyright (c) Facebook, Inc. and its affiliates. All Rights Reserved

package bitlock

import (
	"unsafe"

	murmur "github.com/aviddiviner/go-murmur"
	"github.com/twmb/murmur3"
)

// HashFn is the signature for hash functions used to map keys onto bits
type HashFn func([]byte) uint64

// fnv64a constants
const (
	offset64 = uint64(14695981039346656037)
	prime64  = uint64(1099511628211)
)

// FNVHash64 is 64 bit FNV-1a.
func FNVHash64(v []byte) uint64 {
	hv := offset64
	for _, c := range v {
		hv ^= uint64(c)
		hv *= prime64
	}
	return hv
}

// MurmurHash64 is 64 bit MurmurHash2 (the 64A variant) with a zero seed.
func MurmurHash64(v []byte) uint64 {
	return murmur.MurmurHash64A(v, 0)
}

// Murmur3Hash64 is the first half of 128 bit MurmurHash3.
func Murmur3Hash64(v []byte) uint64 {
	return murmur3.Sum64(v)
}

// bytesOf views s as a byte slice without copying.  The result must not
// be modified.
func bytesOf(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
