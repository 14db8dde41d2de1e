package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/validated"
)

func pngDataUri(t *testing.T) validated.DataUri {
	t.Helper()
	mt, err := validated.DecodeMimeType("image/png")
	require.NoError(t, err)
	return validated.NewDataUri(mt, []byte{0x89, 'P', 'N', 'G'})
}

func TestFragmentValidateEmbedsOK(t *testing.T) {
	f := Fragment{
		Mode: FragmentModeMarkdown,
		Text: "intro\n\n![a picture](self://~)\n\nmore text",
		Blobs: map[FragmentUri]validated.DataUri{
			SelfResource: pngDataUri(t),
		},
	}
	assert.NoError(t, f.ValidateEmbeds())
}

func TestFragmentValidateEmbedsMissingBlob(t *testing.T) {
	f := Fragment{
		Mode:  FragmentModeMarkdown,
		Text:  "![a picture](self://~)",
		Blobs: map[FragmentUri]validated.DataUri{},
	}
	assert.Error(t, f.ValidateEmbeds())
}

func TestFragmentValidateEmbedsUnusedBlob(t *testing.T) {
	path, err := validated.DecodeFilePath("assets/diagram.png")
	require.NoError(t, err)
	key := NewFragmentPath(path)
	f := Fragment{
		Mode: FragmentModeMarkdown,
		Text: "no embeds here",
		Blobs: map[FragmentUri]validated.DataUri{
			key: pngDataUri(t),
		},
	}
	assert.Error(t, f.ValidateEmbeds())
}

func TestFragmentValidateEmbedsDuplicateReference(t *testing.T) {
	f := Fragment{
		Mode: FragmentModeMarkdown,
		Text: "![a](self://~) and again ![b](self://~)",
		Blobs: map[FragmentUri]validated.DataUri{
			SelfResource: pngDataUri(t),
		},
	}
	assert.Error(t, f.ValidateEmbeds())
}

func TestFragmentUriRoundtrip(t *testing.T) {
	fu, err := DecodeFragmentUri("self://~")
	require.NoError(t, err)
	assert.Equal(t, SelfResource, fu)

	path, err := validated.DecodeFilePath("images/a.png")
	require.NoError(t, err)
	fu2, err := DecodeFragmentUri("self://images/a.png")
	require.NoError(t, err)
	assert.Equal(t, NewFragmentPath(path), fu2)
}

func TestSortAffordanceInfos(t *testing.T) {
	infos := []AffordanceInfo{
		{Suffix: "plain"},
		{Suffix: "body"},
		{Suffix: "collection"},
	}
	SortAffordanceInfos(infos)
	assert.Equal(t, "body", infos[0].Suffix.String())
	assert.Equal(t, "collection", infos[1].Suffix.String())
	assert.Equal(t, "plain", infos[2].Suffix.String())
}

func TestMergeAffordanceInfoLaterWins(t *testing.T) {
	mtA, _ := validated.DecodeMimeType("text/plain")
	mtB, _ := validated.DecodeMimeType("text/markdown")
	base := AffordanceInfo{Suffix: "body", MimeType: &mtA}
	next := AffordanceInfo{Suffix: "body", MimeType: &mtB}
	merged := MergeAffordanceInfo(base, next)
	assert.Equal(t, "text/markdown", merged.MimeType.String())
}
