// Copyright (c) Facebook, Inc. and its affiliates. All Rights Reserved

package bitlock

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Disk is a read-only bit vector that reads bits straight from a
// serialized vector without loading it into RAM
type Disk struct {
	size  uint64
	words backing
	f     *os.File
}

var _ Reader = (*Disk)(nil)

// OpenReadOnlyFromPath opens a vector file written by Vector.WriteTo for
// read only access.
func OpenReadOnlyFromPath(path string) (*Disk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	d, err := OpenReadOnly(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err = checkFileSize(f, d.size); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.f = f
	return d, nil
}

// OpenReadOnly reads bits from any io.ReaderAt holding a serialized
// vector.  Only the header is read up front.
func OpenReadOnly(r io.ReaderAt) (*Disk, error) {
	rdr := io.NewSectionReader(r, 0, wordsOffset)
	h, err := readHeader(rdr)
	if err != nil {
		return nil, err
	}
	var length uint64
	if err = binary.Read(rdr, binary.LittleEndian, &length); err != nil {
		return nil, fmt.Errorf("reading word count: %w", err)
	}
	if length != h.Words() {
		return nil, fmt.Errorf("%w: %d words stored, %d expected", ErrCorruptHeader, length, h.Words())
	}
	return &Disk{
		size:  h.Size,
		words: diskBacking{start: wordsOffset, f: r},
	}, nil
}

func (d *Disk) Close() error {
	if d.f != nil {
		return d.f.Close()
	}
	return nil
}

func (d *Disk) Len() uint64 {
	return d.size
}

// Test reads bit i, returning any I/O error.
func (d *Disk) Test(i uint64) (bool, error) {
	if i >= d.size {
		panic(fmt.Sprintf("bitlock: index %d out of range [0,%d)", i, d.size))
	}
	word, err := d.words.Word(i / BitsPerWord)
	if err != nil {
		return false, err
	}
	return word&(1<<(i%BitsPerWord)) != 0, nil
}

// Get reads bit i and panics on I/O errors.
func (d *Disk) Get(i uint64) bool {
	set, err := d.Test(i)
	if err != nil {
		panic(fmt.Sprintf("error: %s", err))
	}
	return set
}
