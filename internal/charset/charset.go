// Package charset decodes command output into text.  Two character
// sets are supported: UTF-8 (the default everywhere) and cp932, the
// Japanese Windows variant of Shift-JIS.  The decoder is picked once at
// startup, either by name or from the host locale.
package charset

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	ncerr "bhpnet/internal/errors"
)

// Decoder turns raw bytes into text.  Decode fails with a
// *errors.DecodeError when b does not conform to the character set.
type Decoder interface {
	Name() string
	Decode(b []byte) (string, error)
}

// Canonical names accepted by [ForName].
const (
	NameAuto  = "auto"
	NameUTF8  = "utf-8"
	NameCP932 = "cp932"
)

var (
	UTF8  Decoder = utf8Decoder{}
	CP932 Decoder = cp932Decoder{}
)

// ForName maps a user-supplied charset name to a Decoder.  "auto" and
// "" select the host locale.
func ForName(name string) (Decoder, error) {
	switch Normalize(name) {
	case NameAuto:
		return FromLocale(), nil
	case NameUTF8:
		return UTF8, nil
	case NameCP932:
		return CP932, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q (want utf-8 or cp932)", name)
}

// Normalize folds the common aliases onto the canonical names.  Unknown
// names are returned lower-cased.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "auto":
		return NameAuto
	case "utf-8", "utf8":
		return NameUTF8
	case "cp932", "ms932", "sjis", "shift_jis", "shift-jis", "windows-31j":
		return NameCP932
	}
	return n
}

// ── UTF-8 ────────────────────────────────────────────────────────────

type utf8Decoder struct{}

func (utf8Decoder) Name() string { return NameUTF8 }

func (utf8Decoder) Decode(b []byte) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	return "", ValidateUTF8(b)
}

// ValidateUTF8 returns nil for valid UTF-8.  Otherwise it returns a
// *errors.DecodeError whose cause is ErrIncompleteInput when the only
// problem is a rune cut short at the end of b, or ErrInvalidInput.
func ValidateUTF8(b []byte) error {
	for i := 0; i < len(b); {
		if b[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			cause := ncerr.ErrInvalidInput
			if !utf8.FullRune(b[i:]) {
				cause = ncerr.ErrIncompleteInput
			}
			return &ncerr.DecodeError{Charset: NameUTF8, Offset: i, Err: cause}
		}
		i += size
	}
	return nil
}

// ── cp932 ────────────────────────────────────────────────────────────

type cp932Decoder struct{}

func (cp932Decoder) Name() string { return NameCP932 }

// Decode runs the x/text Shift-JIS transformer.  That transformer
// substitutes U+FFFD for bad input instead of failing, and U+FFFD has
// no cp932 encoding, so its appearance in the output marks the input
// as invalid.
func (cp932Decoder) Decode(b []byte) (string, error) {
	dec := japanese.ShiftJIS.NewDecoder()
	// Every cp932 byte expands to at most three UTF-8 bytes.
	dst := make([]byte, 3*len(b)+utf8.UTFMax)
	nDst, nSrc, err := dec.Transform(dst, b, false)
	if err == transform.ErrShortSrc {
		return "", &ncerr.DecodeError{Charset: NameCP932, Offset: nSrc, Err: ncerr.ErrIncompleteInput}
	}
	if err != nil {
		return "", &ncerr.DecodeError{Charset: NameCP932, Offset: nSrc, Err: err}
	}

	out := dst[:nDst]
	if i := strings.IndexRune(string(out), utf8.RuneError); i >= 0 {
		return "", &ncerr.DecodeError{Charset: NameCP932, Offset: srcOffset(b, i), Err: ncerr.ErrInvalidInput}
	}
	return string(out), nil
}

// srcOffset maps a byte offset in decoded output back to the input by
// re-decoding the prefix.  Only used on the error path.
func srcOffset(src []byte, dstOff int) int {
	for n := 0; n <= len(src); n++ {
		s, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), src[:n])
		if err == nil && len(s) > dstOff {
			return n - 1
		}
	}
	return 0
}
