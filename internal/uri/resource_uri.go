package uri

import (
	"fmt"
	"strings"

	"github.com/ternarybob/ndkgw/internal/validated"
)

const resourceScheme = "ndk://"

// ResourceUri is the canonical internal address of a resource:
// "ndk://{realm}/{subrealm}/{path-parts...}" (spec §3.1, §6.1). It is
// totally ordered by its string form.
type ResourceUri struct {
	realm    validated.Realm
	subrealm validated.Subrealm
	path     []validated.FileName
}

// New builds a ResourceUri from already-validated components.
func New(realm validated.Realm, subrealm validated.Subrealm, path ...validated.FileName) ResourceUri {
	parts := make([]validated.FileName, len(path))
	copy(parts, path)
	return ResourceUri{realm: realm, subrealm: subrealm, path: parts}
}

// Decode parses "ndk://{realm}/{subrealm}/{path*}" into a ResourceUri.
func Decode(str string) (ResourceUri, error) {
	if !strings.HasPrefix(str, resourceScheme) {
		return ResourceUri{}, fmt.Errorf("uri: ResourceUri %q missing %q scheme", str, resourceScheme)
	}
	rest := strings.TrimPrefix(str, resourceScheme)
	if rest == "" {
		return ResourceUri{}, fmt.Errorf("uri: ResourceUri %q has no realm/subrealm", str)
	}
	segments := strings.Split(rest, "/")
	if len(segments) < 2 {
		return ResourceUri{}, fmt.Errorf("uri: ResourceUri %q requires at least realm and subrealm", str)
	}

	realm, err := validated.DecodeRealm(segments[0])
	if err != nil {
		return ResourceUri{}, fmt.Errorf("uri: ResourceUri %q: %w", str, err)
	}
	subrealm, err := validated.DecodeSubrealm(segments[1])
	if err != nil {
		return ResourceUri{}, fmt.Errorf("uri: ResourceUri %q: %w", str, err)
	}

	path := make([]validated.FileName, 0, len(segments)-2)
	for _, seg := range segments[2:] {
		fn, err := validated.DecodeFileName(seg)
		if err != nil {
			return ResourceUri{}, fmt.Errorf("uri: ResourceUri %q: %w", str, err)
		}
		path = append(path, fn)
	}

	return ResourceUri{realm: realm, subrealm: subrealm, path: path}, nil
}

// TryDecode is the non-throwing counterpart to Decode.
func TryDecode(str string) (ResourceUri, bool) {
	v, err := Decode(str)
	return v, err == nil
}

// Realm returns the connector namespace.
func (r ResourceUri) Realm() validated.Realm { return r.realm }

// Subrealm returns the sub-namespace within the realm.
func (r ResourceUri) Subrealm() validated.Subrealm { return r.subrealm }

// Path returns the path segments after realm/subrealm.
func (r ResourceUri) Path() []validated.FileName {
	out := make([]validated.FileName, len(r.path))
	copy(out, r.path)
	return out
}

// String returns the canonical "ndk://realm/subrealm/path..." form.
func (r ResourceUri) String() string {
	segs := make([]string, 0, 2+len(r.path))
	segs = append(segs, r.realm.String(), r.subrealm.String())
	for _, p := range r.path {
		segs = append(segs, p.String())
	}
	return resourceScheme + strings.Join(segs, "/")
}

// IsZero reports whether r is the zero value.
func (r ResourceUri) IsZero() bool { return r.realm.IsZero() }

// Less implements the total string order required by spec §3.1.
func (r ResourceUri) Less(other ResourceUri) bool {
	return r.String() < other.String()
}

// ChildAffordance appends "$aff" to yield an AffordanceUri.
func (r ResourceUri) ChildAffordance(aff Affordance) AffordanceUri {
	return AffordanceUri{resource: r, affordance: aff}
}

// AffordanceUri is a ResourceUri with an appended "$affordance" suffix.
type AffordanceUri struct {
	resource   ResourceUri
	affordance Affordance
}

// ResourceUri returns the underlying resource URI, without the suffix.
func (a AffordanceUri) ResourceUri() ResourceUri { return a.resource }

// Affordance returns the affordance suffix.
func (a AffordanceUri) Affordance() Affordance { return a.affordance }

// String returns the canonical "resource-uri$affordance" form.
func (a AffordanceUri) String() string {
	return a.resource.String() + "$" + a.affordance.String()
}

// DecodeAffordanceUri splits "resource-uri$affordance" into its parts.
func DecodeAffordanceUri(str string) (AffordanceUri, error) {
	idx := strings.LastIndexByte(str, '$')
	if idx < 0 {
		return AffordanceUri{}, fmt.Errorf("uri: AffordanceUri %q missing '$' suffix", str)
	}
	res, err := Decode(str[:idx])
	if err != nil {
		return AffordanceUri{}, fmt.Errorf("uri: AffordanceUri %q: %w", str, err)
	}
	aff, err := DecodeAffordance(str[idx+1:])
	if err != nil {
		return AffordanceUri{}, fmt.Errorf("uri: AffordanceUri %q: %w", str, err)
	}
	return AffordanceUri{resource: res, affordance: aff}, nil
}
