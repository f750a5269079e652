package capability

import (
	"bytes"

	"bhpnet/internal/charset"
	ncerr "bhpnet/internal/errors"
)

// lineBuffer accumulates shell input until it decodes as UTF-8 and
// holds at least one newline.  A multi-byte character split across
// reads leaves the buffer pending rather than failing.
type lineBuffer struct {
	buf []byte
}

// Feed appends chunk.  When the buffer is complete it returns the whole
// accumulated text with ready set and starts over.  An invalid byte
// sequence is returned as a *errors.DecodeError.
func (b *lineBuffer) Feed(chunk []byte) (text string, ready bool, err error) {
	b.buf = append(b.buf, chunk...)

	if err := charset.ValidateUTF8(b.buf); err != nil {
		if ncerr.IsIncomplete(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if bytes.IndexByte(b.buf, '\n') < 0 {
		return "", false, nil
	}

	text = string(b.buf)
	b.buf = b.buf[:0]
	return text, true, nil
}

// Len returns the number of buffered bytes.
func (b *lineBuffer) Len() int { return len(b.buf) }
