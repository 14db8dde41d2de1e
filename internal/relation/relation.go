// Package relation implements the typed relation-graph edges (spec §3.5):
// embed, link, misc and parent, each with a deterministic content-addressed
// ID (spec §9, "cyclic relations → content-addressed IDs").
package relation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// Kind discriminates the relation sum type.
type Kind string

const (
	KindEmbed  Kind = "embed"
	KindLink   Kind = "link"
	KindMisc   Kind = "misc"
	KindParent Kind = "parent"
)

// Relation is the closed sum type of graph edges a connector may propose.
type Relation interface {
	Kind() Kind
	// GetSource returns the edge's source-side resource (for parent, this
	// is the parent node; for embed/link/misc, the origin node).
	GetSource() uri.ResourceUri
	// GetTargets returns every target-side resource the edge points to.
	GetTargets() []uri.ResourceUri
	// UniqueID derives the relation's content-addressed RelationId.
	UniqueID() validated.RelationId
	canonicalBody() map[string]any
}

// Embed is a relation{source, target} of kind "embed".
type Embed struct {
	Source uri.ResourceUri
	Target uri.ResourceUri
}

func (e Embed) Kind() Kind                     { return KindEmbed }
func (e Embed) GetSource() uri.ResourceUri     { return e.Source }
func (e Embed) GetTargets() []uri.ResourceUri  { return []uri.ResourceUri{e.Target} }
func (e Embed) UniqueID() validated.RelationId { return uniqueID(e) }
func (e Embed) canonicalBody() map[string]any {
	return map[string]any{"kind": string(KindEmbed), "source": e.Source.String(), "target": e.Target.String()}
}

// Link is a relation{source, target} of kind "link".
type Link struct {
	Source uri.ResourceUri
	Target uri.ResourceUri
}

func (l Link) Kind() Kind                     { return KindLink }
func (l Link) GetSource() uri.ResourceUri     { return l.Source }
func (l Link) GetTargets() []uri.ResourceUri  { return []uri.ResourceUri{l.Target} }
func (l Link) UniqueID() validated.RelationId { return uniqueID(l) }
func (l Link) canonicalBody() map[string]any {
	return map[string]any{"kind": string(KindLink), "source": l.Source.String(), "target": l.Target.String()}
}

var subkindCleanRe = regexp.MustCompile(`\s+`)

// Misc is a relation{subkind, source, target} of kind "misc". Subkind is
// lowercased, snake-cased and trimmed on construction (spec §3.5).
type Misc struct {
	Subkind string
	Source  uri.ResourceUri
	Target  uri.ResourceUri
}

// NewMisc normalizes subkind per spec §3.5.
func NewMisc(subkind string, source, target uri.ResourceUri) Misc {
	cleaned := strings.ToLower(strings.TrimSpace(subkind))
	cleaned = subkindCleanRe.ReplaceAllString(cleaned, "_")
	return Misc{Subkind: cleaned, Source: source, Target: target}
}

func (m Misc) Kind() Kind                     { return KindMisc }
func (m Misc) GetSource() uri.ResourceUri     { return m.Source }
func (m Misc) GetTargets() []uri.ResourceUri  { return []uri.ResourceUri{m.Target} }
func (m Misc) UniqueID() validated.RelationId { return uniqueID(m) }
func (m Misc) canonicalBody() map[string]any {
	return map[string]any{
		"kind": string(KindMisc), "subkind": m.Subkind,
		"source": m.Source.String(), "target": m.Target.String(),
	}
}

// Parent is a relation{parent, child} of kind "parent".
type Parent struct {
	ParentUri uri.ResourceUri
	Child     uri.ResourceUri
}

func (p Parent) Kind() Kind                     { return KindParent }
func (p Parent) GetSource() uri.ResourceUri     { return p.ParentUri }
func (p Parent) GetTargets() []uri.ResourceUri  { return []uri.ResourceUri{p.Child} }
func (p Parent) UniqueID() validated.RelationId { return uniqueID(p) }
func (p Parent) canonicalBody() map[string]any {
	return map[string]any{"kind": string(KindParent), "parent": p.ParentUri.String(), "child": p.Child.String()}
}

var (
	_ Relation = Embed{}
	_ Relation = Link{}
	_ Relation = Misc{}
	_ Relation = Parent{}
)

// uniqueID canonicalizes r's body as JSON with sorted keys and hashes it.
func uniqueID(r Relation) validated.RelationId {
	body := r.canonicalBody()
	canonical, err := canonicalJSON(body)
	if err != nil {
		// canonicalBody() is always a flat map[string]any of strings;
		// marshalling cannot fail in practice.
		panic(fmt.Sprintf("relation: canonical JSON encode failed: %v", err))
	}
	return validated.NewRelationId(string(r.Kind()), canonical)
}

// canonicalJSON marshals body with keys in sorted order, so the digest is
// stable regardless of map iteration order.
func canonicalJSON(body map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		valJSON, err := json.Marshal(body[k])
		if err != nil {
			return nil, err
		}
		b.Write(keyJSON)
		b.WriteByte(':')
		b.Write(valJSON)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// SortByUniqueID sorts relations by their string UniqueID, the natural key
// spec §4.3 requires.
func SortByUniqueID(rels []Relation) {
	sort.SliceStable(rels, func(i, j int) bool {
		return rels[i].UniqueID().String() < rels[j].UniqueID().String()
	})
}

// DedupByUniqueID removes duplicate relations (by UniqueID), keeping the
// first occurrence, and returns the result sorted by UniqueID (spec §8,
// "Relation dedup invariant").
func DedupByUniqueID(rels []Relation) []Relation {
	SortByUniqueID(rels)
	out := make([]Relation, 0, len(rels))
	var lastID string
	for i, r := range rels {
		id := r.UniqueID().String()
		if i == 0 || id != lastID {
			out = append(out, r)
		}
		lastID = id
	}
	return out
}
