// Package visibility tracks hidden/shown state per building-element
// category and applies it to loaded models. The registry is an explicit
// object owned by the viewer session; state is persisted through a
// pluggable Store so it can survive restarts when backed by SQLite.
package visibility

import (
	"context"
	"log"
	"strings"

	"frag-viewer/internal/engine"
	"frag-viewer/pkg/debug"
)

// DomainPrefix is the classification prefix stripped during fallback
// category resolution ("IFCWALL" -> "WALL").
const DomainPrefix = "IFC"

// Registry holds per-category hidden flags. Absence of an entry means
// the category is shown.
type Registry struct {
	hidden map[string]bool
	store  Store
}

// NewRegistry returns a registry backed by store, seeded with any
// persisted state.
func NewRegistry(store Store) (*Registry, error) {
	if store == nil {
		store = NewMemoryStore()
	}
	persisted, err := store.Load()
	if err != nil {
		return nil, err
	}
	hidden := make(map[string]bool, len(persisted))
	for category, h := range persisted {
		if h {
			hidden[category] = true
		}
	}
	return &Registry{hidden: hidden, store: store}, nil
}

// Hidden reports the stored flag for a category; unknown categories are
// shown by default.
func (r *Registry) Hidden(category string) bool {
	return r.hidden[category]
}

// Entries returns a copy of the current per-category flags.
func (r *Registry) Entries() map[string]bool {
	out := make(map[string]bool, len(r.hidden))
	for category, h := range r.hidden {
		out[category] = h
	}
	return out
}

// Close releases the backing store.
func (r *Registry) Close() error {
	return r.store.Close()
}

// Toggle flips the hidden/shown state of all elements classified under
// category across the given models and persists the new state. It
// returns the number of affected elements. When no category variant
// matches any model, nothing changes and the count is zero — that is
// "no matching elements", not an error.
func (r *Registry) Toggle(ctx context.Context, models []engine.Model, category string) (int, error) {
	matches, variant := r.resolve(ctx, models, category)

	total := 0
	for _, match := range matches {
		total += len(match.elements)
	}
	if total == 0 {
		log.Printf("visibility: no elements match category %q in any loaded model", category)
		return 0, nil
	}
	if variant != category {
		debug.Log("visibility: category %q resolved via variant %q", category, variant)
	}

	newHidden := !r.hidden[category]
	for _, match := range matches {
		if err := match.model.SetVisible(ctx, match.elements, !newHidden); err != nil {
			log.Printf("visibility: set on model %s failed: %v", match.model.ID(), err)
		}
	}

	r.hidden[category] = newHidden
	if err := r.store.Put(category, newHidden); err != nil {
		log.Printf("visibility: persisting %q failed: %v", category, err)
	}
	return total, nil
}

// ShowAll makes every element of every model visible and resets all
// registry entries to shown. Returns the number of affected elements.
func (r *Registry) ShowAll(ctx context.Context, models []engine.Model) int {
	return r.bulk(ctx, models, true)
}

// HideAll hides every element of every model and records every known
// category as hidden. Returns the number of affected elements.
func (r *Registry) HideAll(ctx context.Context, models []engine.Model) int {
	return r.bulk(ctx, models, false)
}

func (r *Registry) bulk(ctx context.Context, models []engine.Model, visible bool) int {
	total := 0
	for _, m := range models {
		if !m.Capabilities().Has(engine.CapVisibility) {
			continue
		}
		n, err := m.SetAllVisible(ctx, visible)
		if err != nil {
			log.Printf("visibility: bulk set on model %s failed: %v", m.ID(), err)
			continue
		}
		total += n
	}

	// Bulk operations reset the per-category bookkeeping so later
	// single-category toggles never act on stale assumed state.
	if visible {
		r.hidden = make(map[string]bool)
	} else {
		for _, category := range r.knownCategories(ctx, models) {
			r.hidden[category] = true
		}
	}
	if err := r.store.ReplaceAll(r.Entries()); err != nil {
		log.Printf("visibility: persisting bulk state failed: %v", err)
	}
	return total
}

// knownCategories is the union of existing registry keys and every
// category the models report.
func (r *Registry) knownCategories(ctx context.Context, models []engine.Model) []string {
	seen := make(map[string]bool, len(r.hidden))
	for category := range r.hidden {
		seen[category] = true
	}
	for _, m := range models {
		if !m.Capabilities().Has(engine.CapClassification) {
			continue
		}
		cats, err := m.Categories(ctx)
		if err != nil {
			debug.Log("visibility: listing categories on %s failed: %v", m.ID(), err)
			continue
		}
		for _, c := range cats {
			seen[c] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	return out
}

type modelMatch struct {
	model    engine.Model
	elements []engine.ElementID
}

// resolve queries every model for the category, walking the fallback
// chain (lowercased, prefix-stripped, both) until one variant yields
// elements. The winning variant is returned alongside the matches.
func (r *Registry) resolve(ctx context.Context, models []engine.Model, category string) ([]modelMatch, string) {
	for _, variant := range variants(category) {
		var matches []modelMatch
		total := 0
		for _, m := range models {
			if !m.Capabilities().Has(engine.CapClassification) {
				continue
			}
			ids, err := m.ElementsByCategory(ctx, variant)
			if err != nil {
				log.Printf("visibility: classification query %q on model %s failed: %v", variant, m.ID(), err)
				continue
			}
			if len(ids) == 0 {
				continue
			}
			matches = append(matches, modelMatch{model: m, elements: ids})
			total += len(ids)
		}
		if total > 0 {
			return matches, variant
		}
	}
	return nil, category
}

// variants returns the fallback resolution order for a category name:
// as given, lowercased, domain prefix stripped, and both combined.
// Duplicates are dropped while preserving order.
func variants(category string) []string {
	stripped := category
	if len(category) >= len(DomainPrefix) && strings.EqualFold(category[:len(DomainPrefix)], DomainPrefix) {
		stripped = category[len(DomainPrefix):]
	}
	candidates := []string{
		category,
		strings.ToLower(category),
		stripped,
		strings.ToLower(stripped),
	}
	seen := make(map[string]bool, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
