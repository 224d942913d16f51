package mqtt

import (
	"sync"
)

// Buffer pools for reducing allocations on the encode and decode paths.
var (
	bytesBufferPool = sync.Pool{
		New: func() any {
			return &bytesBuffer{}
		},
	}

	bytesReaderPool = sync.Pool{
		New: func() any {
			return &bytesReader{}
		},
	}
)

// getBytesBuffer returns a pooled bytesBuffer.
func getBytesBuffer() *bytesBuffer {
	return bytesBufferPool.Get().(*bytesBuffer)
}

// putBytesBuffer returns a bytesBuffer to the pool. Buffers whose bytes
// were taken carry no backing array; others keep theirs for reuse.
func putBytesBuffer(w *bytesBuffer) {
	if w == nil {
		return
	}
	w.b = w.b[:0]
	bytesBufferPool.Put(w)
}

// getBytesReader returns a pooled bytesReader positioned at the start of data.
func getBytesReader(data []byte) *bytesReader {
	r := bytesReaderPool.Get().(*bytesReader)
	r.data = data
	r.pos = 0
	return r
}

// putBytesReader returns a bytesReader to the pool.
func putBytesReader(r *bytesReader) {
	if r == nil {
		return
	}
	r.data = nil
	r.pos = 0
	bytesReaderPool.Put(r)
}
