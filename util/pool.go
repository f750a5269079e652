package util

import "sync"

// DefaultBufSize is the capacity of pooled read buffers.  It bounds the
// chunk size accepted by the readers in io.go.
const DefaultBufSize = 32 * 1024

// BufPool recycles read buffers across handler goroutines.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool.  nil is ignored.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
