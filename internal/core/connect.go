package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"bhpnet/internal/capability"
	ncerr "bhpnet/internal/errors"
	"bhpnet/internal/retry"
	"bhpnet/internal/session"
	"bhpnet/internal/transport"
	"bhpnet/util"
)

// ConnectMode dials a remote address and runs a capability on the
// resulting connection, normally the interactive Prompt loop.
type ConnectMode struct {
	Dialer     transport.Dialer
	Capability capability.Capability
	Address    string
	Backoff    *retry.Backoff // nil makes a single attempt
	Logger     *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ConnectMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConnectMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run dials the remote address and hands the connection to the
// capability.  An interrupt (ctx cancelled) closes the socket, prints
// "User terminated." and returns nil.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	m.Logger.Verbose("connecting to %s", m.Address)

	conn, err := m.dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			m.terminated()
			return nil
		}
		return err
	}
	defer conn.Close()

	m.Logger.Verbose("connected to %s", conn.RemoteAddr())

	sess := session.New(conn, m.stdin(), m.stdout(), m.Logger)

	// The capability may be blocked reading local input, which ctx
	// cannot interrupt, so it runs on its own goroutine.
	done := make(chan error, 1)
	go func() {
		done <- m.Capability.Handle(ctx, sess)
	}()

	select {
	case err := <-done:
		if err != nil && ctx.Err() != nil {
			m.terminated()
			return nil
		}
		return err
	case <-ctx.Done():
		conn.Close()
		m.terminated()
		return nil
	}
}

func (m *ConnectMode) dial(ctx context.Context) (net.Conn, error) {
	b := m.Backoff
	if b == nil {
		b = &retry.Backoff{}
	}

	var conn net.Conn
	err := b.Do(ctx, func(int) error {
		c, err := m.Dialer.Dial(ctx, "tcp", m.Address)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(err)
			}
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, ncerr.Wrap("connect", m.Address, err)
	}
	return conn, nil
}

func (m *ConnectMode) terminated() {
	fmt.Fprintln(m.stdout(), "User terminated.")
}
