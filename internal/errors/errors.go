// Package errors provides domain-specific error types for bhpnet.
//
// Each type carries the context a caller needs to decide what a failure
// means (which command, which address, which file) and unwraps to the
// underlying cause so errors.Is / errors.As keep working.
package errors

import (
	"errors"
	"fmt"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrNotConnected    = errors.New("not connected")
	ErrInvalidInput    = errors.New("invalid byte sequence")
	ErrIncompleteInput = errors.New("incomplete byte sequence")
	ErrSignaled        = errors.New("terminated by signal")
)

// ── Structured error types ───────────────────────────────────────────

// ExecError is a failure to run a command line or to decode its output.
// Output holds whatever the child printed before a non-zero exit.
type ExecError struct {
	Command string
	Output  string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("exec %q: %v", e.Command, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// NetworkError represents a failure in a socket operation.
type NetworkError struct {
	Op   string // "listen", "accept", "dial", "read", "write"
	Addr string
	Err  error
}

func (e *NetworkError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports bytes that do not conform to a character set.
// Offset is the index of the first offending byte.
type DecodeError struct {
	Charset string
	Offset  int
	Err     error // ErrInvalidInput or ErrIncompleteInput
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at byte %d: %v", e.Charset, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FileError is a failure touching the local filesystem.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // flag name
	Value   interface{} // the invalid value (nil if missing)
	Message string
	Hint    string // optional
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// FatalError marks a handler failure that must stop the whole server,
// not just the connection that produced it.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{Op: op, Addr: addr, Err: err}
}

// WrapExec creates an ExecError.
func WrapExec(command string, err error) *ExecError {
	return &ExecError{Command: command, Err: err}
}

// WrapFile creates a FileError.
func WrapFile(op, path string, err error) *FileError {
	return &FileError{Op: op, Path: path, Err: err}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// Fatal marks err as server-fatal.  Fatal(nil) is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsFatal reports whether err was marked with [Fatal].
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// IsIncomplete reports whether err is a decode failure caused only by a
// truncated trailing sequence, i.e. more input could still make it valid.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncompleteInput)
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
