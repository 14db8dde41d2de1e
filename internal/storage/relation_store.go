package storage

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/ndkgw/internal/relation"
	"github.com/ternarybob/ndkgw/internal/uri"
)

// RelationStore persists relation definitions and maintains the
// backreference index required by spec §4.7: for every persisted relation
// r touching node n, an index object exists under
// "v1/relation/refs/{node_part(n)}/{r.id}".
type RelationStore struct {
	objects ObjectStore
}

// NewRelationStore wraps an ObjectStore with the relation wire format.
func NewRelationStore(objects ObjectStore) *RelationStore {
	return &RelationStore{objects: objects}
}

// Save persists r's canonical body and writes a backreference index entry
// for every node it touches (source plus all targets).
func (s *RelationStore) Save(ctx context.Context, r relation.Relation) error {
	id := r.UniqueID().String()
	w := relationToWire(r)
	raw, err := yaml.Marshal(w)
	if err != nil {
		return fmt.Errorf("storage: marshal relation %s: %w", id, err)
	}
	if err := s.objects.Set(ctx, RelationDefKey(id), raw); err != nil {
		return fmt.Errorf("storage: save relation def %s: %w", id, err)
	}

	nodes := append([]uri.ResourceUri{r.GetSource()}, r.GetTargets()...)
	for _, n := range nodes {
		if err := s.objects.Set(ctx, RelationRefKey(n, id), []byte{}); err != nil {
			return fmt.Errorf("storage: save relation backref %s for %s: %w", id, n.String(), err)
		}
	}
	return nil
}

// Load returns the relation persisted under relationID.
func (s *RelationStore) Load(ctx context.Context, relationID string) (relation.Relation, error) {
	raw, err := s.objects.Get(ctx, RelationDefKey(relationID))
	if err != nil {
		return nil, err
	}
	var w relationWire
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("storage: unmarshal relation %s: %w", relationID, err)
	}
	return relationFromWire(w)
}

// RelationIDsTouching returns every relation ID with a backreference
// index entry under node, via the "v1/relation/refs/{node_part}/" prefix
// scan.
func (s *RelationStore) RelationIDsTouching(ctx context.Context, node uri.ResourceUri) ([]string, error) {
	prefix := RelationRefPrefix(node)
	keys, err := s.objects.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		id := k[len(prefix):]
		id = id[:len(id)-len(".txt")]
		ids = append(ids, id)
	}
	return ids, nil
}

// RelationsTouching resolves every relation ID under node into its full
// Relation, skipping any whose definition is missing (a broken
// backreference — spec §4.7 notes a repair job outside this spec owns
// restoring the invariant, so callers here degrade gracefully instead of
// failing the whole lookup).
func (s *RelationStore) RelationsTouching(ctx context.Context, node uri.ResourceUri) ([]relation.Relation, error) {
	ids, err := s.RelationIDsTouching(ctx, node)
	if err != nil {
		return nil, err
	}
	rels := make([]relation.Relation, 0, len(ids))
	for _, id := range ids {
		r, err := s.Load(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	return relation.DedupByUniqueID(rels), nil
}
