package uri

import (
	"fmt"
	"strings"
)

const externalScheme = "ext://"

// ExternalUri is an opaque "ext://..." form for third-party IDs that are
// not user-visible URLs (spec §3.1).
type ExternalUri struct {
	opaque string
}

// DecodeExternalUri validates str as an ExternalUri.
func DecodeExternalUri(str string) (ExternalUri, error) {
	if !strings.HasPrefix(str, externalScheme) {
		return ExternalUri{}, fmt.Errorf("uri: ExternalUri %q missing %q scheme", str, externalScheme)
	}
	opaque := strings.TrimPrefix(str, externalScheme)
	if opaque == "" {
		return ExternalUri{}, fmt.Errorf("uri: ExternalUri %q has empty opaque part", str)
	}
	return ExternalUri{opaque: opaque}, nil
}

// NewExternalUri builds an ExternalUri from an already-opaque identifier.
func NewExternalUri(opaque string) ExternalUri {
	return ExternalUri{opaque: opaque}
}

// Opaque returns the part after "ext://".
func (e ExternalUri) Opaque() string { return e.opaque }

// String returns the canonical "ext://..." form.
func (e ExternalUri) String() string { return externalScheme + e.opaque }

// IsZero reports whether e is the zero value.
func (e ExternalUri) IsZero() bool { return e.opaque == "" }
