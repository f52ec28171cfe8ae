// Package bufpool pools the fixed-size chunk buffers used to copy request
// bodies into spools and stream response bodies onto the wire.
package bufpool

import "sync"

// ChunkSize is the size of every pooled copy buffer. Streaming copies are
// bounded to this much memory per connection.
const ChunkSize = 32 * 1024

var pool = sync.Pool{
	New: func() any {
		buf := make([]byte, ChunkSize)
		return &buf
	},
}

// Get returns a chunk buffer from the pool.
func Get() []byte {
	return *pool.Get().(*[]byte)
}

// Put returns a buffer to the pool. Buffers of a foreign size are left to
// the garbage collector.
func Put(buf []byte) {
	if cap(buf) != ChunkSize {
		return
	}
	buf = buf[:ChunkSize]
	pool.Put(&buf)
}
