//go:build !unix && !windows

package transport

import "net"

func listenTCP(address string) (net.Listener, error) {
	return net.Listen("tcp", address)
}
