package content

import (
	"sort"

	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// ObservationSection is one labelled, ordered chunk of an observation
// (e.g. a diff's per-file section, a sub-observation media item).
type ObservationSection struct {
	Key   string
	Title string
	Text  string
}

// AffordanceInfo records the affordance suffix, optional MIME type,
// observation sections and sub-observations for a single affordance of a
// resource (spec §3.4).
type AffordanceInfo struct {
	Suffix          uri.Affordance
	MimeType        *validated.MimeType
	Sections        []ObservationSection
	SubObservations []uri.AffordanceUri
}

// SortAffordanceInfos sorts a slice of AffordanceInfo by suffix string, the
// natural key spec §4.3 requires for deterministic ordering.
func SortAffordanceInfos(infos []AffordanceInfo) {
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Suffix.String() < infos[j].Suffix.String()
	})
}

// MergeAffordanceInfo merges `next` onto `base` field-by-field, with later
// (non-zero) values winning, per spec §4.3 ("per-key later wins
// field-by-field").
func MergeAffordanceInfo(base, next AffordanceInfo) AffordanceInfo {
	out := base
	out.Suffix = next.Suffix
	if next.MimeType != nil {
		out.MimeType = next.MimeType
	}
	if len(next.Sections) > 0 {
		out.Sections = next.Sections
	}
	if len(next.SubObservations) > 0 {
		out.SubObservations = next.SubObservations
	}
	return out
}
