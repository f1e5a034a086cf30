// Package mojibake repairs text that was exported as UTF-8 bytes read back
// as Latin-1, which is how the messaging archive encodes every non-ASCII
// character.
package mojibake

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrNotLatin1 is returned by Fix when the input holds a code point above
	// U+00FF, so it cannot be the output of a Latin-1 misread.
	ErrNotLatin1 = errors.New("text is not representable in latin-1")

	// ErrNotUTF8 is returned by Fix when the recovered bytes are not valid UTF-8.
	ErrNotUTF8 = errors.New("recovered bytes are not valid utf-8")
)

// Fix reverses the export's encoding bug: every code point of s is taken as
// one Latin-1 byte and the resulting byte string is decoded as UTF-8.
func Fix(s string) (string, error) {
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotLatin1, err)
	}
	if !utf8.ValidString(raw) {
		return "", fmt.Errorf("%w: %q", ErrNotUTF8, s)
	}
	return raw, nil
}

// Unfix applies the export's bug to s: each UTF-8 byte becomes the code
// point of the same value. Fix(Unfix(s)) == s for any valid UTF-8 s.
func Unfix(s string) string {
	// Latin-1 maps all 256 byte values, so decoding cannot fail.
	out, _ := charmap.ISO8859_1.NewDecoder().String(s)
	return out
}
