package capability

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	ncerr "bhpnet/internal/errors"
	"bhpnet/internal/session"
	"bhpnet/util"
)

// DefaultPromptMarker is printed before reading each local line.
const DefaultPromptMarker = "> "

// endOfInput is printed after the marker when local input runs out.
const endOfInput = "EOF when reading a line\n"

// Prompt is the connect-mode loop: print what the peer sent, read one
// line from the local operator and send it.
type Prompt struct {
	// Initial is sent once before the first read, if non-empty.
	Initial []byte
	// Marker is printed before each local line (DefaultPromptMarker
	// when empty).
	Marker string
}

// Handle runs the loop until the peer closes the connection or local
// input ends.  Neither is an error.
func (p *Prompt) Handle(ctx context.Context, sess *session.Session) error {
	if len(p.Initial) > 0 {
		sess.Logger.Debug("sending %d byte initial buffer", len(p.Initial))
		if err := sess.Send(p.Initial); err != nil {
			return ncerr.Wrap("write", sess.Peer(), err)
		}
	}

	marker := p.Marker
	if marker == "" {
		marker = DefaultPromptMarker
	}
	in := bufio.NewReader(sess.Stdin)

	for {
		resp, eof, err := util.ReadResponse(sess, util.ChunkSize)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ncerr.Wrap("read", sess.Peer(), err)
		}
		if len(resp) > 0 {
			if err := show(sess, string(resp)+"\n"); err != nil {
				return err
			}
		}
		if eof {
			sess.Logger.Verbose("connection closed by %s", sess.Peer())
			return nil
		}

		if err := show(sess, marker); err != nil {
			return err
		}
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return ncerr.Wrap("read", "stdin", err)
		}
		if errors.Is(err, io.EOF) && line == "" {
			sess.Logger.Verbose("end of input, closing connection to %s", sess.Peer())
			return show(sess, endOfInput)
		}

		line = strings.TrimRight(line, "\r\n") + "\n"
		if err := sess.SendString(line); err != nil {
			if util.IsClosed(err) {
				sess.Logger.Verbose("connection closed by %s", sess.Peer())
				return nil
			}
			return ncerr.Wrap("write", sess.Peer(), err)
		}
	}
}

// show writes text to the local operator.
func show(sess *session.Session, text string) error {
	if _, err := io.WriteString(sess.Stdout, text); err != nil {
		return ncerr.Wrap("write", "stdout", err)
	}
	return nil
}
