// Package history implements the append-only ResourceHistory log and the
// ResourceView merge engine folded from it (spec §3.6, §3.7, §4.3).
package history

import (
	"errors"
	"sync"
)

// ResourceHistory is an ordered, append-only list of ResourceDeltas. The
// first delta MUST set a non-nil locator; this invariant is enforced by
// Update and FromDeltas rather than trusted from callers (spec §3.7).
type ResourceHistory struct {
	mu      sync.RWMutex
	deltas  []ResourceDelta
	view    *ResourceView
	hasView bool
}

// ErrFirstDeltaMissingLocator is returned when Update or FromDeltas would
// leave the first delta in the history without a locator.
var ErrFirstDeltaMissingLocator = errors.New("history: first ResourceDelta in a ResourceHistory must set a locator")

// NewResourceHistory builds an empty history.
func NewResourceHistory() *ResourceHistory {
	return &ResourceHistory{}
}

// FromDeltas reconstructs a ResourceHistory from a previously persisted
// delta list (e.g. loaded from storage), without re-running Update's
// diffing — the deltas are assumed already minimal.
func FromDeltas(deltas []ResourceDelta) (*ResourceHistory, error) {
	if len(deltas) > 0 && deltas[0].Locator.IsUnset() {
		return nil, ErrFirstDeltaMissingLocator
	}
	out := make([]ResourceDelta, len(deltas))
	copy(out, deltas)
	return &ResourceHistory{deltas: out}, nil
}

// Deltas returns a copy of the persisted delta list.
func (h *ResourceHistory) Deltas() []ResourceDelta {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ResourceDelta, len(h.deltas))
	copy(out, h.deltas)
	return out
}

// Merged returns the deterministic left-fold of the history, computing
// and caching it on first access (spec §3.7).
func (h *ResourceHistory) Merged() ResourceView {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hasView {
		return *h.view
	}
	view := emptyView()
	for _, d := range h.deltas {
		view = view.fold(d)
	}
	h.view = &view
	h.hasView = true
	return view
}

// Update computes delta.Diff(Merged()); if the result is non-empty, it is
// appended and the cached view invalidated. Returns whether anything was
// appended (spec §3.7).
func (h *ResourceHistory) Update(delta ResourceDelta) (bool, error) {
	before := h.Merged()
	diffed := delta.Diff(before)
	if diffed.IsEmpty() {
		return false, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.deltas) == 0 && diffed.Locator.IsUnset() {
		return false, ErrFirstDeltaMissingLocator
	}
	h.deltas = append(h.deltas, diffed)
	h.hasView = false
	return true, nil
}
