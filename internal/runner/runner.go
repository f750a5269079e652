// Package runner executes a command line on the local host and returns
// its combined stdout/stderr as text.
package runner

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"bhpnet/internal/charset"
	ncerr "bhpnet/internal/errors"
	"bhpnet/util"
)

// waitDelay bounds how long Run waits for the output pipes after the
// child exits or is killed.  A backgrounded grandchild keeps them open.
const waitDelay = 2 * time.Second

// Runner executes one command line.  A blank line yields ("", nil)
// without starting a process.
type Runner interface {
	Run(ctx context.Context, commandLine string) (string, error)
}

// Exec runs commands as child processes of this one.
type Exec struct {
	Decoder charset.Decoder // nil means UTF-8
	Logger  *util.Logger
}

// New returns an Exec runner decoding output with dec.
func New(dec charset.Decoder, logger *util.Logger) *Exec {
	return &Exec{Decoder: dec, Logger: logger}
}

// Run trims commandLine, builds the child process for the host OS and
// waits for it.  Any failure returns *errors.ExecError: a missing
// executable, a non-zero exit status (wrapping *exec.ExitError, with the
// captured output in Output), a signal-terminated child or undecodable
// output.
func (e *Exec) Run(ctx context.Context, commandLine string) (string, error) {
	line := strings.TrimSpace(commandLine)
	if line == "" {
		return "", nil
	}

	cmd, err := buildCommand(ctx, line)
	if err != nil {
		return "", ncerr.WrapExec(line, err)
	}

	cmd.WaitDelay = waitDelay

	e.Logger.Debug("exec: %s", cmd.String())

	out, err := cmd.CombinedOutput()
	if errors.Is(err, exec.ErrWaitDelay) {
		e.Logger.Debug("exec: %q left its output open, returning what it wrote", line)
		err = nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", ncerr.WrapExec(line, err)
		}
		// ExitCode is -1 when the process was killed by a signal.
		if exitErr.ExitCode() < 0 {
			return "", ncerr.WrapExec(line, ncerr.Join(ncerr.ErrSignaled, err))
		}
		e.Logger.Debug("exec: %q exited with status %d", line, exitErr.ExitCode())
		text, _ := e.decoder().Decode(out)
		return "", &ncerr.ExecError{Command: line, Output: text, Err: err}
	}

	text, err := e.decoder().Decode(out)
	if err != nil {
		return "", ncerr.WrapExec(line, err)
	}
	return text, nil
}

func (e *Exec) decoder() charset.Decoder {
	if e.Decoder == nil {
		return charset.UTF8
	}
	return e.Decoder
}
