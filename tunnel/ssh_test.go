package tunnel

import (
	"bufio"
	"context"
	"io"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	ncerr "bhpnet/internal/errors"
)

// startGateway runs a minimal SSH server on loopback that accepts any
// public key and serves direct-tcpip channels.
func startGateway(t *testing.T) (host string, port int) {
	t.Helper()

	cfg := &ssh.ServerConfig{
		PublicKeyCallback: func(ssh.ConnMetadata, ssh.PublicKey) (*ssh.Permissions, error) {
			return nil, nil
		},
	}
	cfg.AddHostKey(newSigner(t))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveGateway(conn, cfg)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func serveGateway(conn net.Conn, cfg *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for nc := range chans {
		if nc.ChannelType() != "direct-tcpip" {
			nc.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		var req struct {
			Host     string
			Port     uint32
			OrigHost string
			OrigPort uint32
		}
		if err := ssh.Unmarshal(nc.ExtraData(), &req); err != nil {
			nc.Reject(ssh.ConnectionFailed, err.Error())
			continue
		}
		target, err := net.Dial("tcp", net.JoinHostPort(req.Host, strconv.Itoa(int(req.Port))))
		if err != nil {
			nc.Reject(ssh.ConnectionFailed, err.Error())
			continue
		}
		ch, chReqs, err := nc.Accept()
		if err != nil {
			target.Close()
			continue
		}
		go ssh.DiscardRequests(chReqs)
		go func() {
			io.Copy(ch, target)
			ch.CloseWrite()
		}()
		go func() {
			io.Copy(target, ch)
			target.Close()
		}()
	}
}

// startEcho serves one line-echo per connection.
func startEcho(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				line, _ := bufio.NewReader(conn).ReadString('\n')
				io.WriteString(conn, "echo:"+line)
			}()
		}
	}()
	return ln.Addr().String()
}

func TestSSHTunnel_DialThroughGateway(t *testing.T) {
	host, port := startGateway(t)
	target := startEcho(t)

	keyPath := filepath.Join(t.TempDir(), "id_test")
	writeTestKey(t, keyPath, nil)

	tun := NewSSHTunnel(&SSHConfig{
		User:        "tester",
		Host:        host,
		Port:        port,
		KeyPath:     keyPath,
		ConnTimeout: 5 * time.Second,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, tun.Connect(ctx))
	assert.True(t, tun.IsAlive())

	conn, err := tun.Dial(ctx, "tcp", target)
	require.NoError(t, err)
	defer conn.Close()

	_, err = io.WriteString(conn, "hello\n")
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "echo:hello\n", line)

	require.NoError(t, tun.Close())
	assert.False(t, tun.IsAlive())
}

func TestSSHTunnel_DialBeforeConnect(t *testing.T) {
	tun := NewSSHTunnel(&SSHConfig{Host: "127.0.0.1"}, nil)

	_, err := tun.Dial(context.Background(), "tcp", "127.0.0.1:1")
	assert.ErrorIs(t, err, ncerr.ErrNotConnected)
}

func TestSSHTunnel_Defaults(t *testing.T) {
	cfg := &SSHConfig{Host: "gw"}
	NewSSHTunnel(cfg, nil)

	assert.Equal(t, 22, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ConnTimeout)
	assert.Equal(t, "gw:22", cfg.Addr())
}

func TestSSHTunnel_CloseIdempotent(t *testing.T) {
	tun := NewSSHTunnel(&SSHConfig{Host: "127.0.0.1"}, nil)
	assert.NoError(t, tun.Close())
	assert.NoError(t, tun.Close())
}
