//go:build windows

package transport

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/windows"
)

// listenTCP sets SO_REUSEADDR through a control hook.  Winsock takes
// its backlog from the net package, so ListenBacklog is not applied.
func listenTCP(address string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var serr error
			err := c.Control(func(fd uintptr) {
				serr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return serr
		},
	}
	return lc.Listen(context.Background(), "tcp", address)
}
