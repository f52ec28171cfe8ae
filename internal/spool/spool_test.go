package spool

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory(t *testing.T) {
	b := New(64)
	defer b.Close()

	n, err := b.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.False(t, b.Spilled())

	size, err := b.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)

	_, err = b.Seek(0, io.SeekStart)
	require.NoError(t, err)
	data, err := io.ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)

	// Rewind and read again: the spool is re-readable.
	_, err = b.Seek(0, io.SeekStart)
	require.NoError(t, err)
	data, err = io.ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)
}

func TestSpillToDisk(t *testing.T) {
	b := New(8)
	payload := bytes.Repeat([]byte("x"), 100)

	// First write fits, second crosses the threshold.
	_, err := b.Write(payload[:4])
	require.NoError(t, err)
	assert.False(t, b.Spilled())

	_, err = b.Write(payload[4:])
	require.NoError(t, err)
	assert.True(t, b.Spilled())

	size, err := b.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(100), size)

	_, err = b.Seek(0, io.SeekStart)
	require.NoError(t, err)
	data, err := io.ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	tmp := b.file.Name()
	require.NoError(t, b.Close())
	assert.NoFileExists(t, tmp)
}

func TestCloseIdempotent(t *testing.T) {
	b := New(8)
	_, err := b.Write([]byte("abc"))
	require.NoError(t, err)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err = b.Read(make([]byte, 1))
	assert.Error(t, err)
	_, err = b.Write([]byte("x"))
	assert.Error(t, err)
}
