package storage

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/ndkgw/internal/locator"
)

type aliasWire struct {
	Locator locatorWire `yaml:"locator"`
}

// AliasStore persists a connector reference (URL, alternate ID, previously
// known external URI) to the Locator it resolved to, keyed by a salted
// hash of the reference string (spec §4.7, "v1/alias/...").
type AliasStore struct {
	objects ObjectStore
	codecs  *CodecRegistry
}

// NewAliasStore wraps an ObjectStore with the alias wire format.
func NewAliasStore(objects ObjectStore, codecs *CodecRegistry) *AliasStore {
	return &AliasStore{objects: objects, codecs: codecs}
}

// Save records reference -> loc.
func (s *AliasStore) Save(ctx context.Context, reference string, loc locator.Locator) error {
	lw, err := s.codecs.encode(loc)
	if err != nil {
		return fmt.Errorf("storage: encode alias locator: %w", err)
	}
	raw, err := yaml.Marshal(aliasWire{Locator: lw})
	if err != nil {
		return fmt.Errorf("storage: marshal alias: %w", err)
	}
	return s.objects.Set(ctx, AliasKey(reference), raw)
}

// Load returns the Locator previously saved for reference, or
// (nil, false) if none exists.
func (s *AliasStore) Load(ctx context.Context, reference string) (locator.Locator, bool, error) {
	raw, err := s.objects.Get(ctx, AliasKey(reference))
	if err == ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var w aliasWire
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, false, fmt.Errorf("storage: unmarshal alias: %w", err)
	}
	loc, err := s.codecs.decode(w.Locator)
	if err != nil {
		return nil, false, err
	}
	return loc, true, nil
}
