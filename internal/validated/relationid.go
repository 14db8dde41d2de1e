package validated

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

var relationIDRe = regexp.MustCompile(`^[a-z][a-z_]*-[0-9a-f]{32}$`)

// relationIDSalt is mixed into the digest so relation IDs are not trivially
// forgeable from a canonical body alone (spec §3.1, §6.4).
const relationIDSalt = "ndkgw-relation-v1"

// RelationId is "{kind}-{32-char lowercase hex digest}" where the digest is
// a salted hash of the canonical JSON of the relation body.
type RelationId struct {
	kind   string
	digest string
}

// DecodeRelationId validates str's grammar and splits it into kind+digest.
// It does not (and cannot) verify the digest matches any particular body —
// that is the caller's responsibility via NewRelationId.
func DecodeRelationId(str string) (RelationId, error) {
	if !relationIDRe.MatchString(str) {
		return RelationId{}, fmt.Errorf("validated: RelationId %q does not match pattern %s", str, relationIDRe.String())
	}
	idx := len(str) - 33 // "-" + 32 hex chars
	return RelationId{kind: str[:idx], digest: str[idx+1:]}, nil
}

// TryDecodeRelationId is the non-throwing counterpart to DecodeRelationId.
func TryDecodeRelationId(str string) (RelationId, bool) {
	v, err := DecodeRelationId(str)
	return v, err == nil
}

// NewRelationId computes a RelationId for the given kind over the
// canonical JSON bytes of a relation body.
func NewRelationId(kind string, canonicalBody []byte) RelationId {
	sum := sha256.Sum256(append([]byte(relationIDSalt), canonicalBody...))
	digest := hex.EncodeToString(sum[:])[:32]
	return RelationId{kind: kind, digest: digest}
}

// Kind returns the relation kind prefix.
func (r RelationId) Kind() string { return r.kind }

// Digest returns the 32-hex-char digest.
func (r RelationId) Digest() string { return r.digest }

// String returns the canonical "{kind}-{digest}" form.
func (r RelationId) String() string { return r.kind + "-" + r.digest }
