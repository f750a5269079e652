// Package session binds one connection to everything a handler needs
// while it owns that connection: the local terminal streams, the logger
// and the server's metrics.
package session

import (
	"io"
	"net"

	"bhpnet/internal/metrics"
	"bhpnet/util"
)

// Session is owned by exactly one handler goroutine and never shared.
type Session struct {
	Conn    net.Conn
	Stdin   io.Reader
	Stdout  io.Writer
	Logger  *util.Logger
	Metrics *metrics.Collector // may be nil
}

// New creates a Session bound to the given connection and I/O pair.
func New(conn net.Conn, stdin io.Reader, stdout io.Writer, logger *util.Logger) *Session {
	return &Session{
		Conn:   conn,
		Stdin:  stdin,
		Stdout: stdout,
		Logger: logger,
	}
}

// Peer names the remote end for log lines.
func (s *Session) Peer() string {
	if s.Conn == nil || s.Conn.RemoteAddr() == nil {
		return "?"
	}
	return s.Conn.RemoteAddr().String()
}

// Send writes p to the connection in full and counts it.
func (s *Session) Send(p []byte) error {
	n, err := s.Conn.Write(p)
	s.Metrics.BytesSent(int64(n))
	return err
}

// SendString is Send for text; the wire encoding is UTF-8.
func (s *Session) SendString(text string) error {
	return s.Send([]byte(text))
}

// Read reads once from the connection and counts what arrived.
func (s *Session) Read(p []byte) (int, error) {
	n, err := s.Conn.Read(p)
	s.Metrics.BytesReceived(int64(n))
	return n, err
}
