package capability

import (
	"context"

	"bhpnet/internal/session"
)

// Hangup is the listen behaviour when none was selected: the connection
// is closed as soon as it is accepted.
type Hangup struct{}

// Handle logs the hang-up and returns.
func (Hangup) Handle(_ context.Context, sess *session.Session) error {
	sess.Logger.Verbose("no behaviour selected, hanging up on %s", sess.Peer())
	return nil
}
