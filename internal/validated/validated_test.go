package validated

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNameRoundtrip(t *testing.T) {
	valid := []string{"README.md", "a", "-", "v2_0", "file.tar.gz"}
	for _, v := range valid {
		fn, err := DecodeFileName(v)
		require.NoError(t, err, v)
		assert.Equal(t, v, fn.String())

		// Universal invariant: decode(str(v)) == v
		fn2, err := DecodeFileName(fn.String())
		require.NoError(t, err)
		assert.Equal(t, fn, fn2)
	}
}

func TestFileNameRejectsReservedSegments(t *testing.T) {
	invalid := []string{"", ".", "..", "---", "___", "has space", "slash/es"}
	for _, v := range invalid {
		_, err := DecodeFileName(v)
		assert.Error(t, err, v)
	}
}

func TestFileNameAllowsLoneDash(t *testing.T) {
	fn, err := DecodeFileName("-")
	require.NoError(t, err)
	assert.Equal(t, "-", fn.String())
}

func TestNormalizeFileName(t *testing.T) {
	fn, err := NormalizeFileName("Café Déjà Vu!!")
	require.NoError(t, err)
	assert.Equal(t, "Cafe_Deja_Vu", fn.String())

	_, err = NormalizeFileName("★★★")
	assert.Error(t, err, "pure non-ASCII input should fail to normalize")
}

func TestFilePathRoundtrip(t *testing.T) {
	fp, err := DecodeFilePath("docs/guide/intro.md")
	require.NoError(t, err)
	assert.Equal(t, "docs/guide/intro.md", fp.String())
	assert.Equal(t, ".md", fp.Extension())
	assert.Len(t, fp.Parts(), 3)

	_, err = DecodeFilePath("")
	assert.Error(t, err)
}

func TestMimeTypeModeIsConstant(t *testing.T) {
	cases := map[string]Mode{
		"text/markdown":   ModeMarkdown,
		"text/plain":      ModePlain,
		"application/pdf": ModeDocument,
		"image/png":       ModeImage,
		"video/mp4":       ModeMedia,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ModeSpreadsheet,
	}
	for mime, want := range cases {
		mt, err := DecodeMimeType(mime)
		require.NoError(t, err, mime)
		got := mt.Mode()
		assert.Equal(t, want, got, mime)
		// mode() is constant across calls
		assert.Equal(t, got, mt.Mode(), mime)
	}
}

func TestGuessMimeFromFilename(t *testing.T) {
	mt, ok := GuessMimeFromFilename("README.md")
	require.True(t, ok)
	assert.Equal(t, "text/markdown", mt.String())

	_, ok = GuessMimeFromFilename("weird.xyzzy")
	assert.False(t, ok)
}

func TestGuessMimeFromMagicBytes(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0}
	mt, ok := GuessMimeFromMagicBytes(png)
	require.True(t, ok)
	assert.Equal(t, "image/png", mt.String())

	webp := append([]byte("RIFF\x00\x00\x00\x00"), []byte("WEBP")...)
	mt, ok = GuessMimeFromMagicBytes(webp)
	require.True(t, ok)
	assert.Equal(t, "image/webp", mt.String())
}

func TestDataUriRoundtrip(t *testing.T) {
	original := "data:image/png;base64,iVBORw0KGgo="
	d, err := DecodeDataUri(original)
	require.NoError(t, err)
	assert.Equal(t, "image/png", d.MimeType().String())
	assert.Equal(t, original, d.String())
}

func TestBase64StdTolerantOfMissingPadding(t *testing.T) {
	b, err := DecodeBase64Std("aGVsbG8") // "hello" without padding
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b.Bytes()))
}

func TestBase64SafeConversion(t *testing.T) {
	std := NewBase64Std([]byte{0xff, 0xfe, 0xfd})
	safe := std.ToSafe()
	assert.NotContains(t, safe.String(), "+")
	assert.NotContains(t, safe.String(), "/")
	assert.NotContains(t, safe.String(), "=")
	assert.Equal(t, std.Bytes(), safe.ToStd().Bytes())
}

func TestRelationIdKindMatchesParse(t *testing.T) {
	id := NewRelationId("parent", []byte(`{"parent":"a","child":"b"}`))
	assert.Regexp(t, `^parent-[0-9a-f]{32}$`, id.String())

	parsed, err := DecodeRelationId(id.String())
	require.NoError(t, err)
	assert.Equal(t, "parent", parsed.Kind())
	assert.Equal(t, id.Digest(), parsed.Digest())
}

func TestRelationIdDeterministic(t *testing.T) {
	body := []byte(`{"source":"x","target":"y"}`)
	a := NewRelationId("link", body)
	b := NewRelationId("link", body)
	assert.Equal(t, a.String(), b.String())
}
