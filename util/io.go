package util

import (
	"bytes"
	"errors"
	"io"
)

// ChunkSize is the read size used for uploads and for connect-mode
// responses.
const ChunkSize = 4096

// ReadUntilEOF reads r in chunk-sized pieces until a zero-length read
// (io.EOF) and returns everything received.  Any other read error is
// returned together with the bytes read so far.
func ReadUntilEOF(r io.Reader, chunk int) ([]byte, error) {
	bufp := GetBuf()
	defer PutBuf(bufp)
	buf := (*bufp)[:chunkLen(chunk)]

	var out bytes.Buffer
	for {
		n, err := r.Read(buf)
		out.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			return out.Bytes(), nil
		}
		if err != nil {
			return out.Bytes(), err
		}
	}
}

// ReadResponse reads r in chunk-sized pieces until a read returns fewer
// than chunk bytes, which is taken to mean the peer has sent everything
// it has for now.  eof is true when the peer closed its write side;
// the returned bytes are still valid in that case.
func ReadResponse(r io.Reader, chunk int) (data []byte, eof bool, err error) {
	bufp := GetBuf()
	defer PutBuf(bufp)
	size := chunkLen(chunk)
	buf := (*bufp)[:size]

	var out bytes.Buffer
	for {
		n, err := r.Read(buf)
		out.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			return out.Bytes(), true, nil
		}
		if err != nil {
			return out.Bytes(), false, err
		}
		if n < size {
			return out.Bytes(), false, nil
		}
	}
}

func chunkLen(chunk int) int {
	if chunk <= 0 || chunk > DefaultBufSize {
		return DefaultBufSize
	}
	return chunk
}
