package capability

import (
	"context"

	"bhpnet/internal/runner"
	"bhpnet/internal/session"
)

// Execute runs one preconfigured command line per connection and sends
// back its output.  Nothing is read from the peer.
type Execute struct {
	Runner  runner.Runner
	Command string
}

// Handle runs the command.  Empty output is not sent.
func (e *Execute) Handle(ctx context.Context, sess *session.Session) error {
	out, err := e.Runner.Run(ctx, e.Command)
	sess.Metrics.CommandRun()
	if err != nil {
		return err
	}
	if out == "" {
		return nil
	}
	return send(sess, out)
}
