package bitlock

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/dustin/go-humanize"
)

// MinFilterBits is the smallest filter size; filters are always a whole
// number of storage words
const MinFilterBits = BitsPerWord

// FilterConfig controls the size of a Filter
type FilterConfig struct {
	// The number of bits of filter storage.  Rounded up to a whole
	// number of words.
	Bits uint64
	// The number of bits set per key
	Hashes uint
}

// DetermineFilterSize generates a FilterConfig appropriate for a filter
// holding numberOfEntries keys with roughly the given false positive rate
func DetermineFilterSize(numberOfEntries uint, falsePositiveRate float64) FilterConfig {
	m, k := bloom.EstimateParameters(numberOfEntries, falsePositiveRate)
	return FilterConfig{
		Bits:   uint64(m),
		Hashes: k,
	}.normalize()
}

func (c FilterConfig) normalize() FilterConfig {
	c.Bits = max(wordsFor(c.Bits)*BitsPerWord, MinFilterBits)
	c.Hashes = max(c.Hashes, 1)
	return c
}

// BytesRequired reports the amount of RAM the filter bits occupy.
func (c *FilterConfig) BytesRequired() uint64 {
	return c.normalize().Bits / 8
}

// ExpectedFalsePositiveRate reports the theoretical false positive rate
// after numberOfEntries distinct keys have been added.
func (c *FilterConfig) ExpectedFalsePositiveRate(numberOfEntries uint) float64 {
	n := c.normalize()
	return math.Pow(1-math.Exp(-float64(n.Hashes)*float64(numberOfEntries)/float64(n.Bits)), float64(n.Hashes))
}

// ExplainIndent will print an indented summary of the configuration to stdout
func (c *FilterConfig) ExplainIndent(indent string) {
	n := c.normalize()
	fmt.Printf("%s%d bits of filter storage (%d words)\n", indent, n.Bits, wordsFor(n.Bits))
	fmt.Printf("%s%d bits set per key\n", indent, n.Hashes)
	fmt.Printf("%s%s storage size expected\n", indent, humanize.IBytes(n.BytesRequired()))
}

// Explain will print a summary of the configuration to stdout
func (c *FilterConfig) Explain() {
	c.ExplainIndent("")
}

// StorageBytes reports the RAM used by the words of a vector of size bits.
func StorageBytes(size uint64) uint64 {
	return wordsFor(size) * bytesPerWord
}
