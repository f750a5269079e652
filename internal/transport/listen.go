package transport

import (
	"net"

	ncerr "bhpnet/internal/errors"
)

// Listen opens a TCP listening socket on address with SO_REUSEADDR set,
// so a restarted server can rebind while old connections sit in
// TIME_WAIT.  Where the platform allows it the accept queue is limited
// to ListenBacklog.
func Listen(address string) (net.Listener, error) {
	ln, err := listenTCP(address)
	if err != nil {
		return nil, ncerr.Wrap("listen", address, err)
	}
	return ln, nil
}
