package history

import (
	"sort"

	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/relation"
	"github.com/ternarybob/ndkgw/internal/uri"
)

// ObservedView is the merged, per-affordance observation state (spec
// §3.7).
type ObservedView struct {
	MimeType  Optional[string]
	Sections  Optional[[]content.ObservationSection]
	Relations []relation.Relation
}

// toObservedDelta re-expresses an ObservedView as the ObservedDelta it
// would take to reconstruct it, used as the diff baseline.
func (v ObservedView) toObservedDelta() ObservedDelta {
	rel := Unset[[]relation.Relation]()
	if v.Relations != nil {
		rel = Some(v.Relations)
	}
	return ObservedDelta{
		MimeType: v.MimeType,
		Sections: v.Sections,
		Relations: rel,
	}
}

func (v ObservedView) withUpdate(d ObservedDelta) ObservedView {
	merged := v.toObservedDelta().WithUpdate(d)
	out := ObservedView{MimeType: merged.MimeType, Sections: merged.Sections}
	if rels, ok := merged.Relations.Value(); ok {
		out.Relations = relation.DedupByUniqueID(append([]relation.Relation(nil), rels...))
	}
	return out
}

// ResourceView is the deterministic left-fold of a ResourceHistory (spec
// §3.7).
type ResourceView struct {
	Locator  locator.Locator
	Expired  map[uri.Affordance]bool
	Labels   []Label
	Metadata MetadataDelta
	Observed map[uri.Affordance]ObservedView
}

func emptyView() ResourceView {
	return ResourceView{
		Expired:  map[uri.Affordance]bool{},
		Observed: map[uri.Affordance]ObservedView{},
	}
}

// fold applies one delta onto the view, per spec §3.7's merge rules.
func (v ResourceView) fold(d ResourceDelta) ResourceView {
	out := ResourceView{
		Locator:  v.Locator,
		Expired:  map[uri.Affordance]bool{},
		Metadata: v.Metadata.WithUpdate(d.Metadata),
		Observed: map[uri.Affordance]ObservedView{},
	}
	for aff, isExpired := range v.Expired {
		out.Expired[aff] = isExpired
	}
	if loc, ok := d.Locator.Value(); ok {
		out.Locator = loc
	}

	for aff := range d.Observed {
		out.Expired[aff] = false // reobserved: no longer expired
	}
	for _, aff := range d.Expired {
		out.Expired[aff] = true
	}

	if d.ResetLabels {
		out.Labels = dedupLabelsLastWins(d.Labels)
	} else {
		out.Labels = dedupLabelsLastWins(append(append([]Label(nil), v.Labels...), d.Labels...))
	}

	for aff, view := range v.Observed {
		out.Observed[aff] = view
	}
	for aff, delta := range d.Observed {
		out.Observed[aff] = out.Observed[aff].withUpdate(delta)
	}

	return out
}

// sortedExpired returns the expired affordances currently true, sorted.
func (v ResourceView) sortedExpired() []uri.Affordance {
	out := make([]uri.Affordance, 0, len(v.Expired))
	for aff, isExpired := range v.Expired {
		if isExpired {
			out = append(out, aff)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
