// Copyright (c) Facebook, Inc. and its affiliates. All Rights Reserved

package bitlock

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskMatchesMemory(t *testing.T) {
	v := randomVector(11, 1234)
	path := writeVectorFile(t, v)

	d, err := OpenReadOnlyFromPath(path)
	require.NoError(t, err)
	defer d.Close()
	require.Equal(t, v.Len(), d.Len())
	for i := uint64(0); i < v.Len(); i++ {
		set, err := d.Test(i)
		require.NoError(t, err)
		require.Equal(t, v.Get(i), set, "bit %d", i)
		require.Equal(t, v.Get(i), d.Get(i), "bit %d", i)
	}
	assert.Panics(t, func() { d.Get(d.Len()) })
}

func TestDiskFromReaderAt(t *testing.T) {
	v := New(200)
	v.Set(199)
	var buf bytes.Buffer
	_, err := v.WriteTo(&buf)
	require.NoError(t, err)

	d, err := OpenReadOnly(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, d.Get(199))
	assert.False(t, d.Get(198))
	assert.NoError(t, d.Close())
}

func TestDiskErrors(t *testing.T) {
	_, err := OpenReadOnly(bytes.NewReader(encodeRaw(vectorVersion+7, 8, 1, 0).Bytes()))
	assert.ErrorIs(t, err, ErrIncompatibleVersion)

	_, err = OpenReadOnly(bytes.NewReader(encodeRaw(vectorVersion, 8, 3, 0).Bytes()))
	assert.ErrorIs(t, err, ErrCorruptHeader)

	_, err = OpenReadOnly(bytes.NewReader([]byte{1}))
	assert.Error(t, err)

	// header promises two words, file holds one
	d, err := OpenReadOnly(bytes.NewReader(encodeRaw(vectorVersion, 128, 2, 1).Bytes()))
	require.NoError(t, err)
	set, err := d.Test(0)
	assert.NoError(t, err)
	assert.True(t, set)
	_, err = d.Test(70)
	assert.Error(t, err)
	assert.Panics(t, func() { d.Get(70) })
}

func TestEach(t *testing.T) {
	v := New(300)
	want := []uint64{0, 63, 64, 200, 299}
	for _, i := range want {
		v.Set(i)
	}
	d, err := OpenReadOnly(bytes.NewReader(func() []byte {
		var buf bytes.Buffer
		_, err := v.WriteTo(&buf)
		require.NoError(t, err)
		return buf.Bytes()
	}()))
	require.NoError(t, err)

	for _, r := range []Reader{v, d} {
		var got []uint64
		Each(r, func(i uint64) bool {
			got = append(got, i)
			return true
		})
		assert.Equal(t, want, got)

		got = got[:0]
		Each(r, func(i uint64) bool {
			got = append(got, i)
			return len(got) < 2
		})
		assert.Equal(t, want[:2], got)
	}
}
