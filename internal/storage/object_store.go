// Package storage defines the key-value object layer the gateway persists
// resource history, observation caches, aliases and relations into (spec
// §4.7), independent of the concrete backend.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ternarybob/ndkgw/internal/uri"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("storage: object not found")

// ObjectStore is the minimal byte-blob contract every backend implements:
// get/set/list/delete over opaque string keys (spec §4.7).
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// List returns every key with the given prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

const aliasSalt = "ndkgw-alias-v1"

// resourceKeyPath renders a realm/subrealm/path as "realm/subrealm/a/b/c".
func resourceKeyPath(res uri.ResourceUri) string {
	parts := make([]string, 0, 2+len(res.Path()))
	parts = append(parts, res.Realm().String(), res.Subrealm().String())
	for _, p := range res.Path() {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, "/")
}

// ResourceHistoryKey returns the "v1/resource/{realm}/{subrealm}/{path*}.yml"
// key for res (spec §4.7).
func ResourceHistoryKey(res uri.ResourceUri) string {
	return "v1/resource/" + resourceKeyPath(res) + ".yml"
}

// ObservedKey returns the "v1/observed/{realm}+{subrealm}+{path*}/{stem}.yml"
// key for a cached bundle at the given affordance (spec §4.7).
func ObservedKey(res uri.ResourceUri, aff uri.Affordance) string {
	parts := make([]string, 0, 2+len(res.Path()))
	parts = append(parts, res.Realm().String(), res.Subrealm().String())
	for _, p := range res.Path() {
		parts = append(parts, p.String())
	}
	return "v1/observed/" + strings.Join(parts, "+") + "/" + aff.String() + ".yml"
}

// AliasKey returns the "v1/alias/{40-char salted hash}.yml" key for an
// arbitrary connector reference string (spec §4.7).
func AliasKey(reference string) string {
	sum := sha256.Sum256([]byte(aliasSalt + reference))
	return "v1/alias/" + hex.EncodeToString(sum[:])[:40] + ".yml"
}

// RelationDefKey returns the "v1/relation/defs/{relation_id}.yml" key.
func RelationDefKey(relationID string) string {
	return "v1/relation/defs/" + relationID + ".yml"
}

// nodePart renders a resource as the path segment used under
// v1/relation/refs/{node_part}/.
func nodePart(res uri.ResourceUri) string {
	return strings.ReplaceAll(resourceKeyPath(res), "/", "+")
}

// RelationRefKey returns the "v1/relation/refs/{node_part}/{relation_id}.txt"
// backreference index key for node touching relationID.
func RelationRefKey(node uri.ResourceUri, relationID string) string {
	return "v1/relation/refs/" + nodePart(node) + "/" + relationID + ".txt"
}

// RelationRefPrefix returns the list prefix for all backreferences touching
// node.
func RelationRefPrefix(node uri.ResourceUri) string {
	return "v1/relation/refs/" + nodePart(node) + "/"
}
