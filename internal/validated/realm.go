package validated

import "fmt"

// Realm is a single FileName token labelling a connector namespace (e.g.
// "public", "www", "github", "confluence").
type Realm struct{ FileName }

// DecodeRealm validates str as a Realm.
func DecodeRealm(str string) (Realm, error) {
	fn, err := DecodeFileName(str)
	if err != nil {
		return Realm{}, fmt.Errorf("validated: Realm: %w", err)
	}
	return Realm{FileName: fn}, nil
}

// TryDecodeRealm is the non-throwing counterpart to DecodeRealm.
func TryDecodeRealm(str string) (Realm, bool) {
	v, err := DecodeRealm(str)
	return v, err == nil
}

// Subrealm is a single FileName token labelling a sub-namespace within a
// Realm (e.g. "file", "ref", "compare").
type Subrealm struct{ FileName }

// DecodeSubrealm validates str as a Subrealm.
func DecodeSubrealm(str string) (Subrealm, error) {
	fn, err := DecodeFileName(str)
	if err != nil {
		return Subrealm{}, fmt.Errorf("validated: Subrealm: %w", err)
	}
	return Subrealm{FileName: fn}, nil
}

// TryDecodeSubrealm is the non-throwing counterpart to DecodeSubrealm.
func TryDecodeSubrealm(str string) (Subrealm, bool) {
	v, err := DecodeSubrealm(str)
	return v, err == nil
}
