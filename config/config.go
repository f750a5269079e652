// Package config defines the runtime configuration for bhpnet, its
// validation, and the environment and file layers beneath the CLI.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"bhpnet/internal/charset"
	ncerr "bhpnet/internal/errors"
	"bhpnet/util"
)

// Behavior is what a listen server does with each accepted connection.
type Behavior int

const (
	// BehaviorNone hangs up on every connection.
	BehaviorNone Behavior = iota
	// BehaviorExecute runs one command and returns its output.
	BehaviorExecute
	// BehaviorUpload saves what the peer sends to a file.
	BehaviorUpload
	// BehaviorShell serves an interactive command prompt.
	BehaviorShell
)

func (b Behavior) String() string {
	switch b {
	case BehaviorExecute:
		return "execute"
	case BehaviorUpload:
		return "upload"
	case BehaviorShell:
		return "shell"
	}
	return "none"
}

// Config holds every tuneable for a single bhpnet run.
type Config struct {
	// ── Endpoint ─────────────────────────────────────────────────────
	Target string
	Port   int
	Listen bool

	// ── Listen behaviour ─────────────────────────────────────────────
	Execute  string // -e: command line run once per connection
	Upload   string // -u: destination path
	Command  bool   // -c: interactive shell
	Encoding string // command output charset: auto, utf-8, cp932
	Isolate  bool   // shell errors end only their own connection

	// ── Connect ──────────────────────────────────────────────────────
	Retries int // extra dial attempts

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw [user@]host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// Behavior reports which listen behaviour is selected.  With more than
// one set, Validate fails; Behavior then prefers execute, upload, shell.
func (c *Config) Behavior() Behavior {
	switch {
	case c.Execute != "":
		return BehaviorExecute
	case c.Upload != "":
		return BehaviorUpload
	case c.Command:
		return BehaviorShell
	}
	return BehaviorNone
}

// Address returns target:port.
func (c *Config) Address() string {
	return util.FormatAddr(c.Target, c.Port)
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:@]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22 and user to the
// USER environment variable.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q, expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	if user == "" {
		user = os.Getenv("USER")
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent and
// resolves TunnelSpec into the Tunnel* fields.
func (c *Config) Validate() error {
	if c.Target == "" {
		return &ncerr.ConfigError{
			Field:   "target",
			Message: "target address is required",
			Hint:    "use -t 0.0.0.0 to listen on every interface",
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &ncerr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "port must be between 1 and 65535",
		}
	}

	selected := 0
	for _, on := range []bool{c.Execute != "", c.Upload != "", c.Command} {
		if on {
			selected++
		}
	}
	if selected > 1 {
		return &ncerr.ConfigError{
			Field:   "execute",
			Message: "-e, -u and -c are mutually exclusive",
			Hint:    "pick one behaviour per listener",
		}
	}
	if selected == 1 && !c.Listen {
		return &ncerr.ConfigError{
			Field:   c.Behavior().flag(),
			Message: "behaviour flags only apply to listen mode",
			Hint:    "add -l to serve it, e.g. bhpnet -t 0.0.0.0 -p 5555 -l -c",
		}
	}
	if c.Isolate && c.Behavior() != BehaviorShell {
		return &ncerr.ConfigError{
			Field:   "isolate",
			Message: "--isolate only applies to the command shell",
			Hint:    "combine it with -l -c",
		}
	}

	if charset.Normalize(c.Encoding) != charset.NameAuto {
		if _, err := charset.ForName(c.Encoding); err != nil {
			return &ncerr.ConfigError{
				Field:   "encoding",
				Value:   c.Encoding,
				Message: "unsupported encoding",
				Hint:    "use auto, utf-8 or cp932",
			}
		}
	}

	if c.Retries < 0 {
		return &ncerr.ConfigError{
			Field:   "retries",
			Value:   c.Retries,
			Message: "retries cannot be negative",
		}
	}

	if c.TunnelSpec != "" {
		if c.Listen {
			return &ncerr.ConfigError{
				Field:   "tunnel",
				Value:   c.TunnelSpec,
				Message: "an SSH tunnel is only available in connect mode",
				Hint:    "drop -l, or run the listener on the gateway itself",
			}
		}
		user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
		if err != nil {
			return &ncerr.ConfigError{
				Field:   "tunnel",
				Value:   c.TunnelSpec,
				Message: err.Error(),
				Hint:    "e.g. -T admin@bastion.example.com:2222",
			}
		}
		c.TunnelEnabled = true
		c.TunnelUser = user
		c.TunnelHost = host
		c.TunnelPort = port
	}

	return nil
}

func (b Behavior) flag() string {
	switch b {
	case BehaviorUpload:
		return "upload"
	case BehaviorShell:
		return "command"
	}
	return "execute"
}
