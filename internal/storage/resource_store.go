package storage

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/ndkgw/internal/content"
	"github.com/ternarybob/ndkgw/internal/history"
	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/relation"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

// LocatorCodec encodes/decodes one concrete Locator variant to/from the
// bytes persisted alongside its kind discriminator. Each connector package
// registers its variant's codec at init time (mirrors spec §4.4's
// "state machines inside connectors" dispatch-by-kind idiom).
type LocatorCodec interface {
	Kind() string
	Encode(loc locator.Locator) (map[string]any, error)
	Decode(fields map[string]any) (locator.Locator, error)
}

// CodecRegistry resolves a Locator's persisted kind back to a concrete
// type. It is not safe for concurrent registration after startup.
type CodecRegistry struct {
	codecs map[string]LocatorCodec
}

// NewCodecRegistry builds an empty registry.
func NewCodecRegistry() *CodecRegistry {
	return &CodecRegistry{codecs: map[string]LocatorCodec{}}
}

// Register adds a codec, keyed by its Kind(). It panics on a duplicate
// kind — that is a startup wiring bug, not a runtime condition.
func (r *CodecRegistry) Register(codec LocatorCodec) {
	if _, exists := r.codecs[codec.Kind()]; exists {
		panic(fmt.Sprintf("storage: duplicate locator codec for kind %q", codec.Kind()))
	}
	r.codecs[codec.Kind()] = codec
}

func (r *CodecRegistry) encode(loc locator.Locator) (locatorWire, error) {
	codec, ok := r.codecs[loc.Kind()]
	if !ok {
		return locatorWire{}, fmt.Errorf("storage: no locator codec registered for kind %q", loc.Kind())
	}
	fields, err := codec.Encode(loc)
	if err != nil {
		return locatorWire{}, fmt.Errorf("storage: encode locator kind %q: %w", loc.Kind(), err)
	}
	return locatorWire{Kind: loc.Kind(), Fields: fields}, nil
}

func (r *CodecRegistry) decode(w locatorWire) (locator.Locator, error) {
	codec, ok := r.codecs[w.Kind]
	if !ok {
		return nil, fmt.Errorf("storage: no locator codec registered for kind %q", w.Kind)
	}
	loc, err := codec.Decode(w.Fields)
	if err != nil {
		return nil, fmt.Errorf("storage: decode locator kind %q: %w", w.Kind, err)
	}
	return loc, nil
}

type locatorWire struct {
	Kind   string         `yaml:"kind"`
	Fields map[string]any `yaml:"fields"`
}

type labelWire struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
}

type affordanceInfoWire struct {
	Suffix          string              `yaml:"suffix"`
	MimeType        string              `yaml:"mime_type,omitempty"`
	Sections        []observationWire   `yaml:"sections,omitempty"`
	SubObservations []string            `yaml:"sub_observations,omitempty"`
}

type observationWire struct {
	Key   string `yaml:"key"`
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

type relationWire struct {
	Kind    string `yaml:"kind"`
	Subkind string `yaml:"subkind,omitempty"`
	Source  string `yaml:"source"`
	Target  string `yaml:"target"`
}

type metadataDeltaWire struct {
	Name              *string              `yaml:"name,omitempty"`
	MimeType          *string              `yaml:"mime_type,omitempty"`
	Description       *string              `yaml:"description,omitempty"`
	CitationUrl       *string              `yaml:"citation_url,omitempty"`
	CreatedAt         *time.Time           `yaml:"created_at,omitempty"`
	UpdatedAt         *time.Time           `yaml:"updated_at,omitempty"`
	RevisionKeys      *[]string            `yaml:"revision_keys,omitempty"`
	Aliases           *[]string            `yaml:"aliases,omitempty"`
	AffordanceInfos   *[]affordanceInfoWire `yaml:"affordance_infos,omitempty"`
	ProposedRelations *[]relationWire      `yaml:"proposed_relations,omitempty"`
}

type observedDeltaWire struct {
	MimeType  *string           `yaml:"mime_type,omitempty"`
	Sections  *[]observationWire `yaml:"sections,omitempty"`
	Relations *[]relationWire   `yaml:"relations,omitempty"`
}

type resourceDeltaWire struct {
	RefreshedAt time.Time                    `yaml:"refreshed_at"`
	Locator     *locatorWire                 `yaml:"locator,omitempty"`
	Expired     []string                     `yaml:"expired,omitempty"`
	Labels      []labelWire                  `yaml:"labels,omitempty"`
	Metadata    metadataDeltaWire            `yaml:"metadata"`
	Observed    map[string]observedDeltaWire `yaml:"observed,omitempty"`
	ResetLabels bool                         `yaml:"reset_labels,omitempty"`
}

type resourceHistoryWire struct {
	Deltas []resourceDeltaWire `yaml:"deltas"`
}

func relationToWire(r relation.Relation) relationWire {
	w := relationWire{Kind: string(r.Kind()), Source: r.GetSource().String()}
	targets := r.GetTargets()
	if len(targets) > 0 {
		w.Target = targets[0].String()
	}
	if m, ok := r.(relation.Misc); ok {
		w.Subkind = m.Subkind
	}
	return w
}

func relationFromWire(w relationWire) (relation.Relation, error) {
	src, err := uri.Decode(w.Source)
	if err != nil {
		return nil, fmt.Errorf("relation source: %w", err)
	}
	tgt, err := uri.Decode(w.Target)
	if err != nil {
		return nil, fmt.Errorf("relation target: %w", err)
	}
	switch relation.Kind(w.Kind) {
	case relation.KindEmbed:
		return relation.Embed{Source: src, Target: tgt}, nil
	case relation.KindLink:
		return relation.Link{Source: src, Target: tgt}, nil
	case relation.KindMisc:
		return relation.NewMisc(w.Subkind, src, tgt), nil
	case relation.KindParent:
		return relation.Parent{ParentUri: src, Child: tgt}, nil
	default:
		return nil, fmt.Errorf("unknown relation kind %q", w.Kind)
	}
}

func affordanceInfoToWire(a content.AffordanceInfo) affordanceInfoWire {
	w := affordanceInfoWire{Suffix: a.Suffix.String()}
	if a.MimeType != nil {
		w.MimeType = a.MimeType.String()
	}
	for _, s := range a.Sections {
		w.Sections = append(w.Sections, observationWire{Key: s.Key, Title: s.Title, Text: s.Text})
	}
	for _, sub := range a.SubObservations {
		w.SubObservations = append(w.SubObservations, sub.String())
	}
	return w
}

func (s *ResourceHistoryStore) metadataToWire(m history.MetadataDelta) metadataDeltaWire {
	var w metadataDeltaWire
	if v, ok := m.Name.Value(); ok {
		w.Name = &v
	}
	if v, ok := m.MimeType.Value(); ok {
		w.MimeType = &v
	}
	if v, ok := m.Description.Value(); ok {
		w.Description = &v
	}
	if v, ok := m.CitationUrl.Value(); ok {
		w.CitationUrl = &v
	}
	if v, ok := m.CreatedAt.Value(); ok {
		w.CreatedAt = &v
	}
	if v, ok := m.UpdatedAt.Value(); ok {
		w.UpdatedAt = &v
	}
	if v, ok := m.RevisionKeys.Value(); ok {
		w.RevisionKeys = &v
	}
	if v, ok := m.Aliases.Value(); ok {
		w.Aliases = &v
	}
	if v, ok := m.AffordanceInfos.Value(); ok {
		infos := make([]affordanceInfoWire, 0, len(v))
		for _, a := range v {
			infos = append(infos, affordanceInfoToWire(a))
		}
		w.AffordanceInfos = &infos
	}
	if v, ok := m.ProposedRelations.Value(); ok {
		rels := make([]relationWire, 0, len(v))
		for _, r := range v {
			rels = append(rels, relationToWire(r))
		}
		w.ProposedRelations = &rels
	}
	return w
}

// ResourceHistoryStore persists ResourceHistory objects as YAML blobs
// under the "v1/resource/..." key layout (spec §4.7).
type ResourceHistoryStore struct {
	objects ObjectStore
	codecs  *CodecRegistry
}

// NewResourceHistoryStore wraps an ObjectStore with the ResourceHistory
// wire format.
func NewResourceHistoryStore(objects ObjectStore, codecs *CodecRegistry) *ResourceHistoryStore {
	return &ResourceHistoryStore{objects: objects, codecs: codecs}
}

// Load reads the history for res, or an empty history if none is stored.
func (s *ResourceHistoryStore) Load(ctx context.Context, res uri.ResourceUri) (*history.ResourceHistory, error) {
	raw, err := s.objects.Get(ctx, ResourceHistoryKey(res))
	if err == ErrNotFound {
		return history.NewResourceHistory(), nil
	}
	if err != nil {
		return nil, err
	}

	var wire resourceHistoryWire
	if err := yaml.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("storage: unmarshal ResourceHistory for %s: %w", res.String(), err)
	}

	deltas := make([]history.ResourceDelta, 0, len(wire.Deltas))
	for _, dw := range wire.Deltas {
		d, err := s.deltaFromWire(dw)
		if err != nil {
			return nil, fmt.Errorf("storage: decode ResourceDelta for %s: %w", res.String(), err)
		}
		deltas = append(deltas, d)
	}
	return history.FromDeltas(deltas)
}

// Save persists h's deltas for res.
func (s *ResourceHistoryStore) Save(ctx context.Context, res uri.ResourceUri, h *history.ResourceHistory) error {
	wire := resourceHistoryWire{}
	for _, d := range h.Deltas() {
		dw, err := s.deltaToWire(d)
		if err != nil {
			return fmt.Errorf("storage: encode ResourceDelta for %s: %w", res.String(), err)
		}
		wire.Deltas = append(wire.Deltas, dw)
	}
	raw, err := yaml.Marshal(wire)
	if err != nil {
		return fmt.Errorf("storage: marshal ResourceHistory for %s: %w", res.String(), err)
	}
	return s.objects.Set(ctx, ResourceHistoryKey(res), raw)
}

func (s *ResourceHistoryStore) deltaToWire(d history.ResourceDelta) (resourceDeltaWire, error) {
	w := resourceDeltaWire{
		RefreshedAt: d.RefreshedAt,
		Metadata:    s.metadataToWire(d.Metadata),
		ResetLabels: d.ResetLabels,
	}
	if loc, ok := d.Locator.Value(); ok {
		lw, err := s.codecs.encode(loc)
		if err != nil {
			return w, err
		}
		w.Locator = &lw
	}
	for _, aff := range d.Expired {
		w.Expired = append(w.Expired, aff.String())
	}
	for _, l := range d.Labels {
		w.Labels = append(w.Labels, labelWire{Name: l.Name, Target: l.Target})
	}
	if len(d.Observed) > 0 {
		w.Observed = make(map[string]observedDeltaWire, len(d.Observed))
		for aff, sub := range d.Observed {
			ow := observedDeltaWire{}
			if v, ok := sub.MimeType.Value(); ok {
				ow.MimeType = &v
			}
			if v, ok := sub.Sections.Value(); ok {
				sections := make([]observationWire, 0, len(v))
				for _, sec := range v {
					sections = append(sections, observationWire{Key: sec.Key, Title: sec.Title, Text: sec.Text})
				}
				ow.Sections = &sections
			}
			if v, ok := sub.Relations.Value(); ok {
				rels := make([]relationWire, 0, len(v))
				for _, r := range v {
					rels = append(rels, relationToWire(r))
				}
				ow.Relations = &rels
			}
			w.Observed[aff.String()] = ow
		}
	}
	return w, nil
}

func (s *ResourceHistoryStore) deltaFromWire(w resourceDeltaWire) (history.ResourceDelta, error) {
	d := history.ResourceDelta{
		RefreshedAt: w.RefreshedAt,
		ResetLabels: w.ResetLabels,
	}
	if w.Locator != nil {
		loc, err := s.codecs.decode(*w.Locator)
		if err != nil {
			return d, err
		}
		d.Locator = history.SomeLocator(loc)
	}
	for _, affStr := range w.Expired {
		aff, err := uri.DecodeAffordance(affStr)
		if err != nil {
			return d, err
		}
		d.Expired = append(d.Expired, aff)
	}
	for _, l := range w.Labels {
		d.Labels = append(d.Labels, history.Label{Name: l.Name, Target: l.Target})
	}

	d.Metadata = history.MetadataDelta{}
	if w.Metadata.Name != nil {
		d.Metadata.Name = history.Some(*w.Metadata.Name)
	}
	if w.Metadata.MimeType != nil {
		d.Metadata.MimeType = history.Some(*w.Metadata.MimeType)
	}
	if w.Metadata.Description != nil {
		d.Metadata.Description = history.Some(*w.Metadata.Description)
	}
	if w.Metadata.CitationUrl != nil {
		d.Metadata.CitationUrl = history.Some(*w.Metadata.CitationUrl)
	}
	if w.Metadata.CreatedAt != nil {
		d.Metadata.CreatedAt = history.Some(*w.Metadata.CreatedAt)
	}
	if w.Metadata.UpdatedAt != nil {
		d.Metadata.UpdatedAt = history.Some(*w.Metadata.UpdatedAt)
	}
	if w.Metadata.RevisionKeys != nil {
		d.Metadata.RevisionKeys = history.Some(*w.Metadata.RevisionKeys)
	}
	if w.Metadata.Aliases != nil {
		d.Metadata.Aliases = history.Some(*w.Metadata.Aliases)
	}
	if w.Metadata.AffordanceInfos != nil {
		infos := make([]content.AffordanceInfo, 0, len(*w.Metadata.AffordanceInfos))
		for _, iw := range *w.Metadata.AffordanceInfos {
			info, err := affordanceInfoFromWire(iw)
			if err != nil {
				return d, err
			}
			infos = append(infos, info)
		}
		d.Metadata.AffordanceInfos = history.Some(infos)
	}
	if w.Metadata.ProposedRelations != nil {
		rels := make([]relation.Relation, 0, len(*w.Metadata.ProposedRelations))
		for _, rw := range *w.Metadata.ProposedRelations {
			r, err := relationFromWire(rw)
			if err != nil {
				return d, err
			}
			rels = append(rels, r)
		}
		d.Metadata.ProposedRelations = history.Some(rels)
	}

	if len(w.Observed) > 0 {
		d.Observed = make(map[uri.Affordance]history.ObservedDelta, len(w.Observed))
		for affStr, ow := range w.Observed {
			aff, err := uri.DecodeAffordance(affStr)
			if err != nil {
				return d, err
			}
			sub := history.ObservedDelta{}
			if ow.MimeType != nil {
				sub.MimeType = history.Some(*ow.MimeType)
			}
			if ow.Sections != nil {
				sections := make([]content.ObservationSection, 0, len(*ow.Sections))
				for _, sec := range *ow.Sections {
					sections = append(sections, content.ObservationSection{Key: sec.Key, Title: sec.Title, Text: sec.Text})
				}
				sub.Sections = history.Some(sections)
			}
			if ow.Relations != nil {
				rels := make([]relation.Relation, 0, len(*ow.Relations))
				for _, rw := range *ow.Relations {
					r, err := relationFromWire(rw)
					if err != nil {
						return d, err
					}
					rels = append(rels, r)
				}
				sub.Relations = history.Some(rels)
			}
			d.Observed[aff] = sub
		}
	}

	return d, nil
}

func affordanceInfoFromWire(w affordanceInfoWire) (content.AffordanceInfo, error) {
	aff, err := uri.DecodeAffordance(w.Suffix)
	if err != nil {
		return content.AffordanceInfo{}, err
	}
	info := content.AffordanceInfo{Suffix: aff}
	if w.MimeType != "" {
		mt, err := validated.DecodeMimeType(w.MimeType)
		if err != nil {
			return content.AffordanceInfo{}, err
		}
		info.MimeType = &mt
	}
	for _, s := range w.Sections {
		info.Sections = append(info.Sections, content.ObservationSection{Key: s.Key, Title: s.Title, Text: s.Text})
	}
	for _, subStr := range w.SubObservations {
		sub, err := uri.DecodeAffordanceUri(subStr)
		if err != nil {
			return content.AffordanceInfo{}, err
		}
		info.SubObservations = append(info.SubObservations, sub)
	}
	return info, nil
}
