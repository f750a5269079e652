// Package core is the orchestration layer.  It composes transports
// and capabilities into complete operational modes and provides a
// builder that selects the right mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  capability  →  session  →  core  →  cmd (CLI)
//
// There are two modes.  ListenMode owns the listening socket and runs
// one handler goroutine per accepted connection.  ConnectMode dials
// out and drives the local prompt loop.
package core

import "context"

// Mode represents a complete operational mode of bhpnet.  Each mode
// owns its socket from establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
