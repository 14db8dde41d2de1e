package validated

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DataUri is a "data:{mime};base64,{payload}" value. Parts are split
// bijectively: String() always reproduces the exact input used to decode.
type DataUri struct {
	mime    MimeType
	payload Base64Std
}

const dataURIPrefix = "data:"
const base64Marker = ";base64,"

// DecodeDataUri parses str into a DataUri.
func DecodeDataUri(str string) (DataUri, error) {
	if !strings.HasPrefix(str, dataURIPrefix) {
		return DataUri{}, fmt.Errorf("validated: DataUri %q missing %q prefix", str, dataURIPrefix)
	}
	rest := strings.TrimPrefix(str, dataURIPrefix)
	idx := strings.Index(rest, base64Marker)
	if idx < 0 {
		return DataUri{}, fmt.Errorf("validated: DataUri %q missing %q marker", str, base64Marker)
	}
	mimePart, payloadPart := rest[:idx], rest[idx+len(base64Marker):]

	mt, err := DecodeMimeType(mimePart)
	if err != nil {
		return DataUri{}, fmt.Errorf("validated: DataUri: %w", err)
	}
	b64, err := DecodeBase64Std(payloadPart)
	if err != nil {
		return DataUri{}, fmt.Errorf("validated: DataUri: %w", err)
	}
	return DataUri{mime: mt, payload: b64}, nil
}

// TryDecodeDataUri is the non-throwing counterpart to DecodeDataUri.
func TryDecodeDataUri(str string) (DataUri, bool) {
	v, err := DecodeDataUri(str)
	return v, err == nil
}

// NewDataUri builds a DataUri from already-decoded bytes and a MIME type.
func NewDataUri(mime MimeType, raw []byte) DataUri {
	return DataUri{mime: mime, payload: NewBase64Std(raw)}
}

// MimeType returns the declared MIME type.
func (d DataUri) MimeType() MimeType { return d.mime }

// Bytes returns the decoded payload.
func (d DataUri) Bytes() []byte { return d.payload.Bytes() }

// String returns the canonical "data:{mime};base64,{payload}" form.
func (d DataUri) String() string {
	return dataURIPrefix + d.mime.String() + base64Marker + d.payload.String()
}

// Base64Std is a standard-alphabet base64 value, roundtrippable with its
// decoded bytes.
type Base64Std struct{ encoded string }

// DecodeBase64Std validates str as standard base64 (tolerant of missing
// padding, per spec §6.3).
func DecodeBase64Std(str string) (Base64Std, error) {
	padded := str
	if m := len(padded) % 4; m != 0 {
		padded += strings.Repeat("=", 4-m)
	}
	if _, err := base64.StdEncoding.DecodeString(padded); err != nil {
		return Base64Std{}, fmt.Errorf("validated: Base64Std %q: %w", str, err)
	}
	return Base64Std{encoded: str}, nil
}

// TryDecodeBase64Std is the non-throwing counterpart to DecodeBase64Std.
func TryDecodeBase64Std(str string) (Base64Std, bool) {
	v, err := DecodeBase64Std(str)
	return v, err == nil
}

// NewBase64Std encodes raw bytes.
func NewBase64Std(raw []byte) Base64Std {
	return Base64Std{encoded: base64.StdEncoding.EncodeToString(raw)}
}

// String returns the canonical (as-decoded) encoded form.
func (b Base64Std) String() string { return b.encoded }

// Bytes decodes and returns the payload.
func (b Base64Std) Bytes() []byte {
	padded := b.encoded
	if m := len(padded) % 4; m != 0 {
		padded += strings.Repeat("=", 4-m)
	}
	raw, _ := base64.StdEncoding.DecodeString(padded)
	return raw
}

// Base64Safe is a path-safe, filename-safe base64 variant: "+/" become
// "-_" and "=" padding is stripped.
type Base64Safe struct{ encoded string }

// DecodeBase64Safe validates str as URL-safe, unpadded base64.
func DecodeBase64Safe(str string) (Base64Safe, error) {
	if _, err := base64.RawURLEncoding.DecodeString(str); err != nil {
		return Base64Safe{}, fmt.Errorf("validated: Base64Safe %q: %w", str, err)
	}
	return Base64Safe{encoded: str}, nil
}

// TryDecodeBase64Safe is the non-throwing counterpart to DecodeBase64Safe.
func TryDecodeBase64Safe(str string) (Base64Safe, bool) {
	v, err := DecodeBase64Safe(str)
	return v, err == nil
}

// NewBase64Safe encodes raw bytes in the filename-safe alphabet.
func NewBase64Safe(raw []byte) Base64Safe {
	return Base64Safe{encoded: base64.RawURLEncoding.EncodeToString(raw)}
}

// String returns the canonical encoded form.
func (b Base64Safe) String() string { return b.encoded }

// Bytes decodes and returns the payload.
func (b Base64Safe) Bytes() []byte {
	raw, _ := base64.RawURLEncoding.DecodeString(b.encoded)
	return raw
}

// ToSafe converts a standard base64 value to its path/filename-safe form.
func (b Base64Std) ToSafe() Base64Safe {
	return NewBase64Safe(b.Bytes())
}

// ToStd converts a safe base64 value back to the standard alphabet.
func (b Base64Safe) ToStd() Base64Std {
	return NewBase64Std(b.Bytes())
}
