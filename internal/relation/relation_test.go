package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

func mustResource(t *testing.T, str string) uri.ResourceUri {
	t.Helper()
	r, err := uri.Decode(str)
	require.NoError(t, err)
	return r
}

func TestUniqueIDKindMatchesParse(t *testing.T) {
	src := mustResource(t, "ndk://github/file/acme/widget/a.md")
	tgt := mustResource(t, "ndk://github/file/acme/widget/b.md")

	rels := []Relation{
		Embed{Source: src, Target: tgt},
		Link{Source: src, Target: tgt},
		NewMisc("Depends On", src, tgt),
		Parent{ParentUri: src, Child: tgt},
	}
	for _, r := range rels {
		id := r.UniqueID()
		parsed, err := validated.DecodeRelationId(id.String())
		require.NoError(t, err)
		assert.Equal(t, string(r.Kind()), parsed.Kind())
	}
}

func TestUniqueIDDeterministic(t *testing.T) {
	src := mustResource(t, "ndk://github/file/acme/widget/a.md")
	tgt := mustResource(t, "ndk://github/file/acme/widget/b.md")
	a := Embed{Source: src, Target: tgt}
	b := Embed{Source: src, Target: tgt}
	assert.Equal(t, a.UniqueID().String(), b.UniqueID().String())
}

func TestUniqueIDDiffersByKind(t *testing.T) {
	src := mustResource(t, "ndk://github/file/acme/widget/a.md")
	tgt := mustResource(t, "ndk://github/file/acme/widget/b.md")
	embed := Embed{Source: src, Target: tgt}
	link := Link{Source: src, Target: tgt}
	assert.NotEqual(t, embed.UniqueID().String(), link.UniqueID().String())
}

func TestNewMiscNormalizesSubkind(t *testing.T) {
	src := mustResource(t, "ndk://github/file/acme/widget/a.md")
	tgt := mustResource(t, "ndk://github/file/acme/widget/b.md")
	m := NewMisc("  Depends   On  ", src, tgt)
	assert.Equal(t, "depends_on", m.Subkind)
}

func TestDedupByUniqueIDSortsAndDedupes(t *testing.T) {
	src := mustResource(t, "ndk://github/file/acme/widget/a.md")
	tgt := mustResource(t, "ndk://github/file/acme/widget/b.md")
	rels := []Relation{
		Link{Source: src, Target: tgt},
		Embed{Source: src, Target: tgt},
		Embed{Source: src, Target: tgt},
	}
	out := DedupByUniqueID(rels)
	require.Len(t, out, 2)
	assert.True(t, out[0].UniqueID().String() < out[1].UniqueID().String())
}

func TestGetSourceAndTargets(t *testing.T) {
	parent := mustResource(t, "ndk://github/file/acme/widget")
	child := mustResource(t, "ndk://github/file/acme/widget/a.md")
	p := Parent{ParentUri: parent, Child: child}
	assert.Equal(t, parent, p.GetSource())
	assert.Equal(t, []uri.ResourceUri{child}, p.GetTargets())
}
