package history

import (
	"sort"
	"time"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
)

// Label is a (name, target) pair attached to a resource. Target is the
// string form of whatever the label points at (often the resource's own
// URI, sometimes a sibling).
type Label struct {
	Name   string
	Target string
}

// SortKey is the natural ordering key for labels (spec §4.3).
func (l Label) SortKey() string { return l.Name + "\x00" + l.Target }

func sortLabels(labels []Label) {
	sort.SliceStable(labels, func(i, j int) bool { return labels[i].SortKey() < labels[j].SortKey() })
}

// dedupLabelsLastWins keeps, for each (Name,Target) key, the last
// occurrence in the input order, then returns the result sorted.
func dedupLabelsLastWins(labels []Label) []Label {
	byKey := make(map[string]Label, len(labels))
	order := make([]string, 0, len(labels))
	for _, l := range labels {
		key := l.SortKey()
		if _, exists := byKey[key]; !exists {
			order = append(order, key)
		}
		byKey[key] = l
	}
	out := make([]Label, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	sortLabels(out)
	return out
}

// SomeLocator wraps loc as a set Optional[locator.Locator]. A plain
// Some(loc) call would instantiate Optional with loc's concrete type
// instead of the locator.Locator interface; this constructor pins the
// type parameter explicitly.
func SomeLocator(loc locator.Locator) Optional[locator.Locator] {
	return Some[locator.Locator](loc)
}

// ResourceDelta bundles everything one ingestion contributes to a
// resource's history (spec §3.6).
type ResourceDelta struct {
	RefreshedAt time.Time
	Locator     Optional[locator.Locator]
	Expired     []uri.Affordance
	Labels      []Label
	Metadata    MetadataDelta
	Observed    map[uri.Affordance]ObservedDelta
	ResetLabels bool
}

// IsEmpty reports whether this delta carries no information beyond its
// timestamp (spec §3.7: "if the result is non-empty, the delta is
// appended").
func (d ResourceDelta) IsEmpty() bool {
	return d.Locator.IsUnset() &&
		len(d.Expired) == 0 &&
		len(d.Labels) == 0 &&
		!d.ResetLabels &&
		d.Metadata.IsEmpty() &&
		len(d.Observed) == 0
}

// Diff returns the subset of d that is not already reflected in before
// (the current merged ResourceView), eliding no-op fields (spec §3.7,
// §4.3).
func (d ResourceDelta) Diff(before ResourceView) ResourceDelta {
	out := ResourceDelta{
		RefreshedAt: d.RefreshedAt,
		ResetLabels: d.ResetLabels,
	}

	if loc, ok := d.Locator.Value(); ok {
		if before.Locator == nil || loc.ResourceUri().String() != before.Locator.ResourceUri().String() || loc.Kind() != before.Locator.Kind() {
			out.Locator = d.Locator
		}
	}

	for _, aff := range d.Expired {
		if !before.Expired[aff] {
			out.Expired = append(out.Expired, aff)
		}
	}

	if d.ResetLabels {
		out.Labels = append([]Label(nil), d.Labels...)
	} else {
		existing := make(map[string]Label, len(before.Labels))
		for _, l := range before.Labels {
			existing[l.SortKey()] = l
		}
		for _, l := range d.Labels {
			if cur, ok := existing[l.SortKey()]; !ok || cur != l {
				out.Labels = append(out.Labels, l)
			}
		}
	}
	sortLabels(out.Labels)

	out.Metadata = d.Metadata.Diff(before.Metadata)

	if len(d.Observed) > 0 {
		filtered := make(map[uri.Affordance]ObservedDelta, len(d.Observed))
		for aff, sub := range d.Observed {
			baseline := before.Observed[aff]
			subDiff := sub.Diff(baseline.toObservedDelta())
			if !subDiff.IsEmpty() {
				filtered[aff] = subDiff
			}
		}
		if len(filtered) > 0 {
			out.Observed = filtered
		}
	}

	return out
}
