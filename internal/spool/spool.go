// Package spool implements a write-then-read buffer that lives in memory up
// to a size threshold and transparently spills to a temporary file beyond
// it. The network stream a request body arrives on can only be read once and
// the multipart decoder needs seekable input, so the body is copied here
// first and every derived view reads from the spool.
package spool

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// Buffer is a seekable byte buffer with bounded memory use.
// It is not safe for concurrent use.
type Buffer struct {
	max    int
	mem    []byte
	reader *bytes.Reader // reads of the in-memory portion
	file   *os.File      // non-nil once spilled
	closed bool
}

// New returns a Buffer that spills to disk once more than max bytes are
// written.
func New(max int) *Buffer {
	return &Buffer{max: max}
}

func (b *Buffer) Write(p []byte) (int, error) {
	if b.closed {
		return 0, errors.New("spool: write on closed buffer")
	}

	if b.file == nil && len(b.mem)+len(p) > b.max {
		if err := b.spill(); err != nil {
			return 0, err
		}
	}

	if b.file != nil {
		return b.file.Write(p)
	}

	b.mem = append(b.mem, p...)
	return len(p), nil
}

func (b *Buffer) spill() error {
	f, err := os.CreateTemp("", "flint-spool-*")
	if err != nil {
		return err
	}
	if _, err := f.Write(b.mem); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	b.file = f
	b.mem = nil
	return nil
}

func (b *Buffer) Read(p []byte) (int, error) {
	if b.closed {
		return 0, errors.New("spool: read on closed buffer")
	}
	if b.file != nil {
		return b.file.Read(p)
	}
	if b.reader == nil {
		b.reader = bytes.NewReader(b.mem)
	}
	return b.reader.Read(p)
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	if b.closed {
		return 0, errors.New("spool: seek on closed buffer")
	}
	if b.file != nil {
		return b.file.Seek(offset, whence)
	}
	if b.reader == nil {
		b.reader = bytes.NewReader(b.mem)
	}
	return b.reader.Seek(offset, whence)
}

// Size returns the number of bytes written to the buffer.
func (b *Buffer) Size() (int64, error) {
	if b.file != nil {
		info, err := b.file.Stat()
		if err != nil {
			return 0, err
		}
		return info.Size(), nil
	}
	return int64(len(b.mem)), nil
}

// Spilled reports whether the buffer is backed by a temporary file.
func (b *Buffer) Spilled() bool {
	return b.file != nil
}

// Close releases the buffer, removing the temporary file if one was
// created. Close is idempotent.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.mem = nil
	b.reader = nil
	if b.file != nil {
		name := b.file.Name()
		err := b.file.Close()
		if rmErr := os.Remove(name); err == nil {
			err = rmErr
		}
		b.file = nil
		return err
	}
	return nil
}

var _ io.ReadWriteSeeker = (*Buffer)(nil)
