package capability

import (
	"context"
	"os"

	ncerr "bhpnet/internal/errors"
	"bhpnet/internal/session"
	"bhpnet/util"
)

// Upload receives everything the peer sends until it closes its write
// side and saves it to Path, replacing any existing file.
type Upload struct {
	Path string
}

// Handle reads the upload in 4096-byte chunks, writes the file and
// confirms with "Saved file PATH".
func (u *Upload) Handle(_ context.Context, sess *session.Session) error {
	data, err := util.ReadUntilEOF(sess, util.ChunkSize)
	if err != nil {
		return ncerr.Wrap("read", sess.Peer(), err)
	}

	sess.Logger.Debug("upload: %d bytes from %s", len(data), sess.Peer())

	if err := os.WriteFile(u.Path, data, 0o644); err != nil {
		return ncerr.WrapFile("write", u.Path, err)
	}
	sess.Metrics.UploadSaved()

	return send(sess, "Saved file "+u.Path)
}
