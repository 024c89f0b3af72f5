package blueprint

import "slices"

// store holds the recipes of one container in insertion order, plus an
// optional single-level overlay that shadows base entries by name.
type store struct {
	names   []string
	recipes map[string]Recipe

	overlay      map[string]Recipe
	overlayNames []string
}

func newStore() *store {
	return &store{recipes: make(map[string]Recipe)}
}

// get returns the recipe for name, preferring the overlay.
func (s *store) get(name string) (Recipe, error) {
	if s.overlay != nil {
		if r, ok := s.overlay[name]; ok {
			return r, nil
		}
	}

	if r, ok := s.recipes[name]; ok {
		return r, nil
	}

	return Recipe{}, ErrMissingConfiguration(name)
}

// has reports whether name is configured, overlay included.
func (s *store) has(name string) bool {
	_, err := s.get(name)
	return err == nil
}

// set inserts or overwrites a base entry. New names keep insertion order.
func (s *store) set(name string, r Recipe) {
	if _, exists := s.recipes[name]; !exists {
		s.names = append(s.names, name)
	}

	s.recipes[name] = r
}

// remove deletes a base entry.
func (s *store) remove(name string) {
	if _, exists := s.recipes[name]; !exists {
		return
	}

	delete(s.recipes, name)
	s.names = slices.DeleteFunc(s.names, func(n string) bool { return n == name })
}

// all returns every visible recipe: base entries in insertion order (each
// replaced by its overlay entry when shadowed) followed by overlay-only
// entries in overlay order.
func (s *store) all() []Recipe {
	out := make([]Recipe, 0, len(s.names)+len(s.overlayNames))

	for _, name := range s.names {
		r, _ := s.get(name)
		out = append(out, r)
	}

	for _, name := range s.overlayNames {
		if _, inBase := s.recipes[name]; !inBase {
			out = append(out, s.overlay[name])
		}
	}

	return out
}

// alias returns the first visible recipe declaring name as an alias.
func (s *store) alias(name string) (Recipe, bool) {
	for _, r := range s.all() {
		if r.HasAlias(name) {
			return r, true
		}
	}

	return Recipe{}, false
}

// shadowed reports whether name currently resolves to an overlay entry.
func (s *store) shadowed(name string) bool {
	if s.overlay == nil {
		return false
	}

	_, ok := s.overlay[name]

	return ok
}

// applyOverlay installs normalized overlay entries.
func (s *store) applyOverlay(names []string, recipes map[string]Recipe) error {
	if s.overlay != nil {
		return ErrOverlayActive
	}

	s.overlay = recipes
	s.overlayNames = names

	return nil
}

// resetOverlay removes the overlay; base behaviour is restored exactly.
func (s *store) resetOverlay() {
	s.overlay = nil
	s.overlayNames = nil
}

// overlayActive reports whether an overlay is installed.
func (s *store) overlayActive() bool {
	return s.overlay != nil
}
