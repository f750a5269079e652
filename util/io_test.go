package util

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"testing/iotest"
	"time"
)

func TestReadUntilEOF(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 1000) // spans several chunks

	tests := []struct {
		name string
		r    io.Reader
	}{
		{"plain", bytes.NewReader(payload)},
		{"one byte at a time", iotest.OneByteReader(bytes.NewReader(payload))},
		{"half reads", iotest.HalfReader(bytes.NewReader(payload))},
		{"data with eof", iotest.DataErrReader(bytes.NewReader(payload))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadUntilEOF(tt.r, ChunkSize)
			if err != nil {
				t.Fatalf("ReadUntilEOF: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("got %d bytes, want %d", len(got), len(payload))
			}
		})
	}
}

func TestReadUntilEOF_Error(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(bytes.NewReader([]byte("partial")), iotest.ErrReader(boom))

	got, err := ReadUntilEOF(r, ChunkSize)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if string(got) != "partial" {
		t.Errorf("got %q", got)
	}
}

func TestReadResponse(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantLen int
		wantEOF bool
	}{
		{"short read", 10, 10, false},
		{"chunk plus tail", ChunkSize + 904, ChunkSize + 904, false},
		{"exact chunk then eof", ChunkSize, ChunkSize, true},
		{"empty", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(bytes.Repeat([]byte("x"), tt.size))
			got, eof, err := ReadResponse(r, ChunkSize)
			if err != nil {
				t.Fatalf("ReadResponse: %v", err)
			}
			if len(got) != tt.wantLen || eof != tt.wantEOF {
				t.Errorf("got (%d bytes, eof=%v), want (%d, %v)", len(got), eof, tt.wantLen, tt.wantEOF)
			}
		})
	}
}

// TestReadResponse_Socket checks the short-read rule against a real
// peer that writes less than a chunk and then keeps the connection open.
func TestReadResponse_Socket(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	release := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("<BHP:#> ")) //nolint:errcheck
		<-release
	}()
	defer close(release)

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck

	got, eof, err := ReadResponse(conn, ChunkSize)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if eof || string(got) != "<BHP:#> " {
		t.Errorf("got (%q, eof=%v)", got, eof)
	}
}

func TestChunkLen(t *testing.T) {
	if chunkLen(0) != DefaultBufSize || chunkLen(1<<20) != DefaultBufSize {
		t.Error("out-of-range chunk sizes should clamp to DefaultBufSize")
	}
	if chunkLen(64) != 64 {
		t.Error("chunkLen(64) != 64")
	}
}

func TestBufPool_RoundTrip(t *testing.T) {
	buf := GetBuf()
	if buf == nil {
		t.Fatal("GetBuf returned nil")
	}
	if len(*buf) != DefaultBufSize {
		t.Errorf("buffer size = %d, want %d", len(*buf), DefaultBufSize)
	}
	PutBuf(buf)
	PutBuf(nil) // must not panic
}
