// Copyright (c) Facebook, Inc. and its affiliates. All Rights Reserved

package bitlock

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// vectorVersion is a version number for the on disk representation
// format.  Any time incompatible changes are made, it is bumped
const vectorVersion = uint64(0x0001)

var (
	// ErrIncompatibleVersion is returned when reading a vector written in
	// a different format version.
	ErrIncompatibleVersion = errors.New("incompatible file format")
	// ErrCorruptHeader is returned when the stored word count does not
	// match the stored bit count.
	ErrCorruptHeader = errors.New("corrupt vector header")
)

// Header describes a serialized vector
type Header struct {
	// a version number which changes as the storage representation
	// changes
	Version uint64
	// the number of addressable bits
	Size uint64
}

// Words returns the number of storage words a vector of h.Size bits uses.
func (h Header) Words() uint64 {
	return wordsFor(h.Size)
}

// on disk layout: Header, word count, words
var (
	headerBytes = int64(binary.Size(Header{}))
	wordsOffset = headerBytes + bytesPerWord
)

var (
	_ io.WriterTo   = (*Vector)(nil)
	_ io.ReaderFrom = (*Vector)(nil)
)

// WriteTo writes the vector to a stream.  Words are stored little endian
// regardless of the host byte order; each word is read atomically but the
// vector as a whole is not a single point in time snapshot.
func (v *Vector) WriteTo(stream io.Writer) (i int64, err error) {
	h := Header{
		Version: vectorVersion,
		Size:    v.size,
	}
	if err = binary.Write(stream, binary.LittleEndian, h); err != nil {
		return
	}
	i += headerBytes
	n, err := writeWords(stream, v.words)
	i += n
	return
}

// ReadFrom replaces the contents of the vector with one read from a
// stream.  Requires exclusive access.  On error the vector is unchanged.
func (v *Vector) ReadFrom(stream io.Reader) (i int64, err error) {
	h, err := readHeader(stream)
	if err != nil {
		return
	}
	i += headerBytes
	words, n, err := readWords(stream, h.Words())
	i += n
	if err != nil {
		return i, fmt.Errorf("reading vector words: %w", err)
	}
	v.size = h.Size
	v.words = words
	return
}

func readHeader(r io.Reader) (h Header, err error) {
	if err = binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("reading vector header: %w", err)
	}
	if h.Version != vectorVersion {
		return h, fmt.Errorf("%w: version is %d, expected %d",
			ErrIncompatibleVersion, h.Version, vectorVersion)
	}
	return h, nil
}

// ReadHeaderFromPath reads just the header of a vector file.
func ReadHeaderFromPath(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h, err := readHeader(f)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ReadFromPath loads a vector file into memory.
func ReadFromPath(path string) (*Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if h, err := readHeader(io.NewSectionReader(f, 0, headerBytes)); err == nil {
		if err = checkFileSize(f, h.Size); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	v := New(0)
	if _, err = v.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// checkFileSize rejects files too short to hold the words their header
// declares.
func checkFileSize(f *os.File, size uint64) error {
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	need := StorageBytes(size)
	if fi.Size() < wordsOffset || uint64(fi.Size()-wordsOffset) < need {
		return fmt.Errorf("%w: %d bits need %d bytes of words, file is %d bytes",
			ErrCorruptHeader, size, need, fi.Size())
	}
	return nil
}
