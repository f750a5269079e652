package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"bhpnet/util"
)

// startListen runs mode on a free loopback port and returns its address
// and a channel carrying Run's result.
func startListen(t *testing.T, ctx context.Context, mode *ListenMode) (string, <-chan error) {
	t.Helper()

	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	mode.Address = fmt.Sprintf("127.0.0.1:%d", port)
	if mode.Logger == nil {
		mode.Logger = util.NewLogger(0)
	}

	done := make(chan error, 1)
	go func() { done <- mode.Run(ctx) }()
	return mode.Address, done
}

// dial connects to addr, retrying while the listener comes up.
func dial(t *testing.T, addr string) *net.TCPConn {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			t.Cleanup(func() { conn.Close() })
			return conn.(*net.TCPConn)
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial %s: %v", addr, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func waitErr(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("mode did not return in time")
		return nil
	}
}

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a
// reading test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// blockingReader never returns until closed, like a terminal nobody
// types into.
func blockingReader(t *testing.T) io.Reader {
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })
	return r
}
