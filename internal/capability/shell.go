package capability

import (
	"context"

	ncerr "bhpnet/internal/errors"
	"bhpnet/internal/runner"
	"bhpnet/internal/session"
	"bhpnet/util"
)

// ShellPrompt is sent before every read cycle.
const ShellPrompt = "<BHP:#> "

// shellChunk is the read size while accumulating a command line.
const shellChunk = 64

// Shell serves an interactive command prompt over the connection.
type Shell struct {
	Runner runner.Runner
	Policy FailurePolicy
}

// Handle loops prompt → read line → run → reply until the peer closes
// the connection or an error occurs.  Under FailFast every error is
// returned as fatal.
func (s *Shell) Handle(ctx context.Context, sess *session.Session) error {
	var (
		lb    lineBuffer
		chunk = make([]byte, shellChunk)
	)

	for {
		if err := send(sess, ShellPrompt); err != nil {
			return s.fail(ctx, err)
		}

		line, err := s.readLine(sess, &lb, chunk)
		if err != nil {
			return s.fail(ctx, err)
		}
		if line == "" {
			sess.Logger.Verbose("shell: %s disconnected", sess.Peer())
			return nil
		}

		out, err := s.Runner.Run(ctx, line)
		sess.Metrics.CommandRun()
		if err != nil {
			return s.fail(ctx, err)
		}
		if out == "" {
			continue
		}
		if err := send(sess, out); err != nil {
			return s.fail(ctx, err)
		}
	}
}

// readLine reads until lb holds a complete line.  It returns "" with a
// nil error when the peer closes the connection.
func (s *Shell) readLine(sess *session.Session, lb *lineBuffer, chunk []byte) (string, error) {
	for {
		n, err := sess.Read(chunk)
		if n > 0 {
			text, ready, ferr := lb.Feed(chunk[:n])
			if ferr != nil {
				return "", ferr
			}
			if ready {
				return text, nil
			}
		}
		if err != nil {
			if util.IsClosed(err) {
				if lb.Len() > 0 {
					sess.Logger.Debug("shell: dropping %d unterminated bytes from %s", lb.Len(), sess.Peer())
				}
				return "", nil
			}
			return "", ncerr.Wrap("read", sess.Peer(), err)
		}
	}
}

// fail applies the policy, except that cancellation is never fatal.
func (s *Shell) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return s.Policy.apply(err)
}
