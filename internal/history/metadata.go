package history

import (
	"time"

	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/relation"
	"github.com/ternarybob/ndkgw/internal/uri"
)

// MetadataDelta is the sparse attribute/alias/relation delta a connector
// contributes on each ingestion (spec §3.6). Every field is independently
// optional; Unset means "not touched by this delta".
type MetadataDelta struct {
	Name              Optional[string]
	MimeType          Optional[string] // MIME string; validated.MimeType is not comparable via ==, kept as string for diffing.
	Description       Optional[string]
	CitationUrl       Optional[string] // WebUrl.String(); see MimeType note.
	CreatedAt         Optional[time.Time]
	UpdatedAt         Optional[time.Time]
	RevisionKeys      Optional[[]string]
	Aliases           Optional[[]string] // ExternalUri.String()
	AffordanceInfos   Optional[[]content.AffordanceInfo]
	ProposedRelations Optional[[]relation.Relation]
}

// IsEmpty reports whether every field is Unset.
func (d MetadataDelta) IsEmpty() bool {
	return d.Name.IsUnset() &&
		d.MimeType.IsUnset() &&
		d.Description.IsUnset() &&
		d.CitationUrl.IsUnset() &&
		d.CreatedAt.IsUnset() &&
		d.UpdatedAt.IsUnset() &&
		d.RevisionKeys.IsUnset() &&
		d.Aliases.IsUnset() &&
		d.AffordanceInfos.IsUnset() &&
		d.ProposedRelations.IsUnset()
}

// WithUpdate applies next onto d field-by-field, non-unset wins (spec
// §4.3: "with_update(delta) applies non-None wins").
func (d MetadataDelta) WithUpdate(next MetadataDelta) MetadataDelta {
	return MetadataDelta{
		Name:              d.Name.WithUpdate(next.Name),
		MimeType:          d.MimeType.WithUpdate(next.MimeType),
		Description:       d.Description.WithUpdate(next.Description),
		CitationUrl:       d.CitationUrl.WithUpdate(next.CitationUrl),
		CreatedAt:         d.CreatedAt.WithUpdate(next.CreatedAt),
		UpdatedAt:         d.UpdatedAt.WithUpdate(next.UpdatedAt),
		RevisionKeys:      d.RevisionKeys.WithUpdate(next.RevisionKeys),
		Aliases:           d.Aliases.WithUpdate(next.Aliases),
		AffordanceInfos:   mergeAffordanceInfos(d.AffordanceInfos, next.AffordanceInfos),
		ProposedRelations: d.ProposedRelations.WithUpdate(next.ProposedRelations),
	}
}

// mergeAffordanceInfos implements the per-suffix "later wins field by
// field" rule (spec §4.3) instead of whole-list replacement, since
// affordance infos are keyed by suffix rather than wholesale replaced.
func mergeAffordanceInfos(base, next Optional[[]content.AffordanceInfo]) Optional[[]content.AffordanceInfo] {
	if next.IsUnset() {
		return base
	}
	if next.IsNull() {
		return next
	}
	nextInfos, _ := next.Value()
	baseInfos, ok := base.Value()
	if !ok {
		out := append([]content.AffordanceInfo(nil), nextInfos...)
		content.SortAffordanceInfos(out)
		return Some(out)
	}

	bySuffix := make(map[uri.Affordance]content.AffordanceInfo, len(baseInfos))
	order := make([]uri.Affordance, 0, len(baseInfos))
	for _, info := range baseInfos {
		if _, exists := bySuffix[info.Suffix]; !exists {
			order = append(order, info.Suffix)
		}
		bySuffix[info.Suffix] = info
	}
	for _, info := range nextInfos {
		if existing, exists := bySuffix[info.Suffix]; exists {
			bySuffix[info.Suffix] = content.MergeAffordanceInfo(existing, info)
		} else {
			order = append(order, info.Suffix)
			bySuffix[info.Suffix] = info
		}
	}

	merged := make([]content.AffordanceInfo, 0, len(order))
	for _, suffix := range order {
		merged = append(merged, bySuffix[suffix])
	}
	content.SortAffordanceInfos(merged)
	return Some(merged)
}

// Diff returns the subset of d's fields that differ from before; no-op
// fields become Unset (spec §4.3: "diff(before) returns a delta where each
// field is set only if it differs").
func (d MetadataDelta) Diff(before MetadataDelta) MetadataDelta {
	return MetadataDelta{
		Name:              d.Name.DiffFrom(before.Name),
		MimeType:          d.MimeType.DiffFrom(before.MimeType),
		Description:       d.Description.DiffFrom(before.Description),
		CitationUrl:       d.CitationUrl.DiffFrom(before.CitationUrl),
		CreatedAt:         d.CreatedAt.DiffFrom(before.CreatedAt),
		UpdatedAt:         d.UpdatedAt.DiffFrom(before.UpdatedAt),
		RevisionKeys:      d.RevisionKeys.DiffFrom(before.RevisionKeys),
		Aliases:           d.Aliases.DiffFrom(before.Aliases),
		AffordanceInfos:   d.AffordanceInfos.DiffFrom(before.AffordanceInfos),
		ProposedRelations: d.ProposedRelations.DiffFrom(before.ProposedRelations),
	}
}

// ObservedDelta is the per-affordance sub-delta (spec §3.6): MIME,
// observation sections, and relations discovered while observing one
// affordance.
type ObservedDelta struct {
	MimeType  Optional[string]
	Sections  Optional[[]content.ObservationSection]
	Relations Optional[[]relation.Relation]
}

// IsEmpty reports whether every field is Unset.
func (d ObservedDelta) IsEmpty() bool {
	return d.MimeType.IsUnset() && d.Sections.IsUnset() && d.Relations.IsUnset()
}

// WithUpdate applies next onto d field-by-field, non-unset wins.
func (d ObservedDelta) WithUpdate(next ObservedDelta) ObservedDelta {
	return ObservedDelta{
		MimeType:  d.MimeType.WithUpdate(next.MimeType),
		Sections:  d.Sections.WithUpdate(next.Sections),
		Relations: d.Relations.WithUpdate(next.Relations),
	}
}

// Diff returns the subset of d's fields that differ from before.
func (d ObservedDelta) Diff(before ObservedDelta) ObservedDelta {
	return ObservedDelta{
		MimeType:  d.MimeType.DiffFrom(before.MimeType),
		Sections:  d.Sections.DiffFrom(before.Sections),
		Relations: d.Relations.DiffFrom(before.Relations),
	}
}
