// Package validated holds the regex-checked opaque identifier types shared
// across the gateway: file names, file paths, realms, MIME types, data
// URIs, base64 variants and relation IDs (spec §3.1). Every type is an
// immutable value type whose string form is canonical; equality is string
// equality.
package validated

import (
	"fmt"
	"regexp"
	"strings"
)

var fileNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// FileName is a non-empty string over [A-Za-z0-9._-] that rejects "." and
// ".." and rejects pure-punctuation runs except the literal "-".
type FileName struct {
	value string
}

// Examples returns representative valid values, for schema introspection.
func (FileName) Examples() []string { return []string{"README.md", "index-page", "v2_0"} }

// Regex returns the validating pattern.
func (FileName) Regex() string { return fileNameRe.String() }

// DecodeFileName validates str and returns a FileName, or an error.
func DecodeFileName(str string) (FileName, error) {
	if !fileNameRe.MatchString(str) {
		return FileName{}, fmt.Errorf("validated: FileName %q does not match pattern %s", str, fileNameRe.String())
	}
	if str == "." || str == ".." {
		return FileName{}, fmt.Errorf("validated: FileName %q is a reserved path segment", str)
	}
	if str != "-" && isPurePunctuation(str) {
		return FileName{}, fmt.Errorf("validated: FileName %q is a pure-punctuation run", str)
	}
	return FileName{value: str}, nil
}

// TryDecodeFileName returns (FileName, true) on success, (zero, false) on
// failure; it never returns an error value.
func TryDecodeFileName(str string) (FileName, bool) {
	v, err := DecodeFileName(str)
	return v, err == nil
}

func isPurePunctuation(s string) bool {
	for _, r := range s {
		if !isPunctOrDash(r) {
			return false
		}
	}
	return true
}

func isPunctOrDash(r rune) bool {
	return r == '.' || r == '_' || r == '-'
}

// String returns the canonical form.
func (f FileName) String() string { return f.value }

// IsZero reports whether f is the zero value (never a valid decoded name).
func (f FileName) IsZero() bool { return f.value == "" }

// NormalizeFileName lossily converts arbitrary text into a valid FileName:
// it strips diacritics, collapses runs of punctuation/whitespace to "_",
// and rejects inputs that normalize to nothing printable (non-ASCII-only
// results that collapse to an empty/punctuation-only string).
func NormalizeFileName(arbitrary string) (FileName, error) {
	stripped := stripDiacritics(arbitrary)

	var b strings.Builder
	lastWasSep := false
	for _, r := range stripped {
		switch {
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastWasSep = false
		case r == '.' || r == '-':
			b.WriteRune(r)
			lastWasSep = false
		default:
			if !lastWasSep && b.Len() > 0 {
				b.WriteByte('_')
				lastWasSep = true
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return FileName{}, fmt.Errorf("validated: normalize FileName: %q has no usable ASCII content", arbitrary)
	}
	return DecodeFileName(out)
}
