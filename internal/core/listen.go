package core

import (
	"context"
	"io"
	"net"
	"sync"

	"bhpnet/internal/capability"
	ncerr "bhpnet/internal/errors"
	"bhpnet/internal/metrics"
	"bhpnet/internal/session"
	"bhpnet/internal/transport"
	"bhpnet/util"
)

// ListenMode binds Address and runs Capability on every accepted
// connection in its own goroutine.  The accept loop never waits on a
// handler.
type ListenMode struct {
	Address    string // host:port
	Capability capability.Capability
	Metrics    *metrics.Collector // may be nil
	Logger     *util.Logger
}

// Run listens until ctx is cancelled (returns nil) or a handler returns
// a fatal error, which closes the listener and is returned.  On
// cancellation Run waits for the handlers; after a fatal error it does
// not, since a handler may be stuck on a child process.
func (m *ListenMode) Run(ctx context.Context) error {
	ln, err := transport.Listen(m.Address)
	if err != nil {
		return err
	}
	defer ln.Close()

	m.Logger.Info("listening on %s", ln.Addr())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Shut the listener down when the context expires.
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var (
		wg       sync.WaitGroup
		killOnce sync.Once
		killErr  error
		killed   = make(chan struct{})
	)
	kill := func(err error) {
		killOnce.Do(func() {
			m.Logger.Error("server killed: %v", err)
			killErr = err
			close(killed)
			cancel()
		})
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				err = ncerr.Wrap("accept", m.Address, err)
				m.Metrics.RecordError(err.Error())
				kill(err)
			}
			break
		}

		m.Logger.Verbose("accepted connection from %s", conn.RemoteAddr())

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.serveConn(ctx, conn); ncerr.IsFatal(err) {
				kill(err)
			}
		}()
	}

	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-killed:
	}
	m.Logger.Verbose("metrics: %s", m.Metrics.JSON())
	return killErr
}

// serveConn owns conn until the capability returns, then closes it.
// Errors are logged here; the fatal ones are also returned.
func (m *ListenMode) serveConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()

	m.Metrics.ConnectionOpened()
	defer m.Metrics.ConnectionClosed()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	sess := session.New(conn, nil, io.Discard, m.Logger)
	sess.Metrics = m.Metrics

	err := m.Capability.Handle(ctx, sess)
	switch {
	case err == nil:
		m.Logger.Verbose("closed connection from %s", sess.Peer())
		return nil
	case ctx.Err() != nil:
		m.Logger.Debug("%s: %v", sess.Peer(), err)
		return nil
	}

	m.Metrics.RecordError(err.Error())
	m.Logger.Error("%s: %v", sess.Peer(), err)
	return err
}
