// Package transport establishes the raw sockets bhpnet talks over:
// outbound dials (direct or through an SSH gateway) and the listening
// socket of the server.  What happens on a connection is the
// capability layer's job.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases long-lived resources (an SSH session).  Stateless
	// dialers return nil.
	Close() error
}

// ListenBacklog is the queue length requested for pending connections.
const ListenBacklog = 5
