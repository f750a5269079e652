package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"

	ncerr "bhpnet/internal/errors"
)

// EnvPrefix starts every environment variable bhpnet reads.
const EnvPrefix = "BHPNET_"

// EnvConfigFile names the config file when --config is not given.
const EnvConfigFile = EnvPrefix + "CONFIG"

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the BHPNET_ prefix.  Boolean values
// accept "1", "true", "yes" and "0", "false", "no" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.  A malformed value is
// reported as a *errors.ConfigError naming the variable.
func LoadFromEnv(cfg *Config) error {
	l := envLoader{}

	l.text("BHPNET_TARGET", &cfg.Target)
	l.number("BHPNET_PORT", &cfg.Port)
	l.flag("BHPNET_LISTEN", &cfg.Listen)
	l.text("BHPNET_EXECUTE", &cfg.Execute)
	l.text("BHPNET_UPLOAD", &cfg.Upload)
	l.flag("BHPNET_COMMAND", &cfg.Command)
	l.text("BHPNET_ENCODING", &cfg.Encoding)
	l.flag("BHPNET_ISOLATE", &cfg.Isolate)
	l.number("BHPNET_RETRIES", &cfg.Retries)

	// SSH tunnel
	l.text("BHPNET_TUNNEL", &cfg.TunnelSpec)
	l.text("BHPNET_SSH_KEY", &cfg.SSHKeyPath)
	l.flag("BHPNET_SSH_PASSWORD", &cfg.SSHPassword)
	l.flag("BHPNET_SSH_AGENT", &cfg.UseSSHAgent)
	l.flag("BHPNET_STRICT_HOSTKEY", &cfg.StrictHostKey)
	l.text("BHPNET_KNOWN_HOSTS", &cfg.KnownHostsPath)

	// Output
	l.number("BHPNET_VERBOSE", &cfg.Verbose)

	return l.err
}

// EnvSet reports whether any non-empty BHPNET_ variable is present.
func EnvSet() bool {
	for _, kv := range os.Environ() {
		key, val, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix) && val != "" {
			return true
		}
	}
	return false
}

// ── helpers ──────────────────────────────────────────────────────────

// envLoader keeps the first malformed variable it meets.
type envLoader struct {
	err error
}

func (l *envLoader) text(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (l *envLoader) number(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" || l.err != nil {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		l.err = &ncerr.ConfigError{
			Field:   strings.ToLower(strings.TrimPrefix(key, "BHPNET_")),
			Value:   v,
			Message: key + " is not an integer",
		}
		return
	}
	*dst = n
}

func (l *envLoader) flag(key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" || l.err != nil {
		return
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		*dst = true
	case "0", "false", "no":
		*dst = false
	default:
		l.err = &ncerr.ConfigError{
			Field:   strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, "BHPNET_")), "_", "-"),
			Value:   v,
			Message: key + " is not a boolean",
			Hint:    "use 1/true/yes or 0/false/no",
		}
	}
}
