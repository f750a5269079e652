package charset

import (
	"os"
	"strings"
)

// FromLocale picks the decoder matching the host's configured locale.
// Only a Japanese locale with a cp932/Shift-JIS codeset selects CP932;
// everything else decodes as UTF-8.
func FromLocale() Decoder {
	if hostCodePageIsCP932() {
		return CP932
	}
	return FromEnv(os.Getenv)
}

// FromEnv applies the POSIX precedence LC_ALL > LC_CTYPE > LANG using
// getenv.  Split out so tests can supply their own environment.
func FromEnv(getenv func(string) string) Decoder {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if v := getenv(key); v != "" {
			return fromLocaleName(v)
		}
	}
	return UTF8
}

// fromLocaleName parses language[_territory][.codeset][@modifier].
func fromLocaleName(locale string) Decoder {
	if i := strings.IndexByte(locale, '@'); i >= 0 {
		locale = locale[:i]
	}
	lang, codeset, _ := strings.Cut(locale, ".")
	if lang != "ja_JP" {
		return UTF8
	}
	if Normalize(codeset) == NameCP932 {
		return CP932
	}
	return UTF8
}
