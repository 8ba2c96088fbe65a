// Copyright (c) Facebook, Inc. and its affiliates. All Rights Reserved

package bitlock

import (
	"encoding/binary"
	"fmt"
	"io"
)

// backing gives random access to the storage words of a serialized
// vector
type backing interface {
	Word(ix uint64) (uint64, error)
}

type diskBacking struct {
	start int64
	f     io.ReaderAt
}

func (b diskBacking) Word(ix uint64) (uint64, error) {
	var val [bytesPerWord]byte
	n, err := b.f.ReadAt(val[:], b.start+int64(ix)*bytesPerWord)
	if n == bytesPerWord {
		// a full read at the end of the file may still report io.EOF
		return binary.LittleEndian.Uint64(val[:]), nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read from vector backing: %w", err)
	}
	return 0, fmt.Errorf("short read: %d/%d", n, bytesPerWord)
}
