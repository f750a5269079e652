package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultTarget is the address connected to, or bound in listen mode.
	DefaultTarget = "127.0.0.1"

	// DefaultPort is the TCP port used when none is given.
	DefaultPort = 5555

	// DefaultEncoding picks the command output decoder from the locale.
	DefaultEncoding = "auto"

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout bounds the SSH gateway dial and handshake.
	DefaultConnTimeout = 30 * time.Second
)

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		Target:   DefaultTarget,
		Port:     DefaultPort,
		Encoding: DefaultEncoding,
	}
}
