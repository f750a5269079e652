// Package capability defines what happens over an established
// connection.  Each Capability encapsulates one behaviour (run a
// command, receive a file, serve a shell, drive the client prompt) and
// operates on a Session rather than a raw net.Conn, which keeps
// capabilities testable and decoupled from transport details.
package capability

import (
	"context"

	ncerr "bhpnet/internal/errors"
	"bhpnet/internal/session"
)

// Capability handles a single connection according to a specific
// behaviour.  The caller owns the connection and closes it after
// Handle returns.
type Capability interface {
	// Handle runs the capability against the given session.
	// It blocks until the behaviour is done, the peer goes away or
	// the context is cancelled.
	Handle(ctx context.Context, sess *session.Session) error
}

// FailurePolicy decides how far a shell error reaches.
type FailurePolicy int

const (
	// FailFast turns any shell error into a fatal error that brings
	// the whole listen server down.
	FailFast FailurePolicy = iota
	// Isolate confines a shell error to its own connection.
	Isolate
)

func (p FailurePolicy) String() string {
	if p == Isolate {
		return "isolate"
	}
	return "fail-fast"
}

// apply marks err as fatal under FailFast.
func (p FailurePolicy) apply(err error) error {
	if p == FailFast {
		return ncerr.Fatal(err)
	}
	return err
}

func send(sess *session.Session, text string) error {
	if err := sess.SendString(text); err != nil {
		return ncerr.Wrap("write", sess.Peer(), err)
	}
	return nil
}
