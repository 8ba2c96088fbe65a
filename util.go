// Copyright (c) Facebook, Inc. and its affiliates. All Rights Reserved

package bitlock

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"
)

// words are staged through a buffer of this many words so that large
// vectors are not encoded in one allocation
const chunkWords = 512

// writeWords writes a little endian length prefix followed by every word,
// each loaded atomically.
func writeWords(w io.Writer, words []atomic.Uint64) (n int64, err error) {
	if err = binary.Write(w, binary.LittleEndian, uint64(len(words))); err != nil {
		return
	}
	n += bytesPerWord
	buf := make([]byte, 0, chunkWords*bytesPerWord)
	for start := 0; start < len(words); start += chunkWords {
		end := min(start+chunkWords, len(words))
		buf = buf[:0]
		for k := start; k < end; k++ {
			buf = binary.LittleEndian.AppendUint64(buf, words[k].Load())
		}
		var np int
		np, err = w.Write(buf)
		n += int64(np)
		if err != nil {
			return
		}
	}
	return
}

// readWords reads what writeWords wrote into a freshly allocated word
// slice, which must hold exactly want words.  The stored count is not
// trusted for allocation: words are staged one chunk at a time, so a
// stream shorter than its header claims fails before memory is committed.
func readWords(r io.Reader, want uint64) (words []atomic.Uint64, n int64, err error) {
	var length uint64
	if err = binary.Read(r, binary.LittleEndian, &length); err != nil {
		return
	}
	n += bytesPerWord
	if length != want {
		return nil, n, fmt.Errorf("%w: %d words stored, %d expected", ErrCorruptHeader, length, want)
	}
	staged := make([]uint64, 0, min(length, chunkWords))
	buf := make([]byte, chunkWords*bytesPerWord)
	for remaining := length; remaining > 0; {
		c := min(remaining, chunkWords)
		chunk := buf[:c*bytesPerWord]
		var np int
		np, err = io.ReadFull(r, chunk)
		n += int64(np)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, n, err
		}
		for k := uint64(0); k < c; k++ {
			staged = append(staged, binary.LittleEndian.Uint64(chunk[k*bytesPerWord:]))
		}
		remaining -= c
	}
	words = make([]atomic.Uint64, len(staged))
	for k, w := range staged {
		words[k].Store(w)
	}
	return
}
