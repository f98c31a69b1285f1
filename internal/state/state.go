// Package state holds the single process-wide outline state that the
// dispatcher mutates.
package state

import (
	"sort"

	"thoughtline/internal/model"
	"thoughtline/internal/resolve"
	"thoughtline/internal/selection"
	"thoughtline/internal/store"
)

type State struct {
	Graph     *store.Graph
	Selection *selection.Model

	// ContextViews holds every path shown in context view, keyed by hash.
	ContextViews map[string]model.Path

	// Expanded holds paths expanded by hover; it is view state and is not
	// part of undo history.
	Expanded map[string]model.Path
}

func New(g *store.Graph) *State {
	if g == nil {
		g = store.NewGraph()
	}
	return &State{
		Graph:        g,
		Selection:    selection.NewModel(),
		ContextViews: map[string]model.Path{},
		Expanded:     map[string]model.Path{},
	}
}

// Snapshot returns an independent copy. Graph values are shared since they
// are never mutated in place.
func (s *State) Snapshot() *State {
	return &State{
		Graph:        s.Graph.Clone(),
		Selection:    s.Selection.Clone(),
		ContextViews: copyPaths(s.ContextViews),
		Expanded:     copyPaths(s.Expanded),
	}
}

// Restore replaces s with a copy of from.
func (s *State) Restore(from *State) {
	*s = *from.Snapshot()
}

func (s *State) Resolver() resolve.Resolver {
	return resolve.New(s.Graph, s.ContextViews)
}

func (s *State) Cursor() model.Path { return s.Selection.Cursor() }

// IsExpanded reports whether p is expanded by hover.
func (s *State) IsExpanded(p model.Path) bool {
	_, ok := s.Expanded[p.Hash()]
	return ok
}

// Prune drops selection, context-view and expansion entries that mention
// any of ids. The cursor is cleared when it does.
func (s *State) Prune(ids []string) {
	if len(ids) == 0 {
		return
	}
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	mentions := func(p model.Path) bool {
		for _, id := range p.IDs() {
			if gone[id] {
				return true
			}
		}
		return false
	}
	if mentions(s.Selection.Cursor()) {
		s.Selection.ClearCursor()
	}
	multi := s.Selection.Multi()
	for _, p := range multi.Paths() {
		if mentions(p) {
			multi.Remove(p)
		}
	}
	for h, p := range s.ContextViews {
		if mentions(p) {
			delete(s.ContextViews, h)
		}
	}
	for h, p := range s.Expanded {
		if mentions(p) {
			delete(s.Expanded, h)
		}
	}
}

// Rederive re-resolves every stored path that goes through id, after id
// has moved. Entries that no longer resolve are dropped.
func (s *State) Rederive(id string) {
	r := s.Resolver()
	through := func(p model.Path) bool {
		for _, x := range p.IDs() {
			if x == id {
				return true
			}
		}
		return false
	}
	fix := func(p model.Path) model.Path {
		// Re-root the part from id down onto id's new path.
		ids := p.IDs()
		for i, x := range ids {
			if x != id {
				continue
			}
			base := r.ThoughtToPath(id)
			if base.IsNull() {
				return model.Path{}
			}
			out, err := base.Append(ids[i+1:]...)
			if err != nil || r.Validate(out) != nil {
				return r.ThoughtToPath(p.Head())
			}
			return out
		}
		return p
	}
	if c := s.Selection.Cursor(); through(c) {
		s.Selection.SetCursor(fix(c))
	}
	multi := s.Selection.Multi()
	for _, p := range multi.Paths() {
		if through(p) {
			multi.Remove(p)
			multi.Add(fix(p))
		}
	}
	s.ContextViews = rekey(s.ContextViews, through, fix)
	s.Expanded = rekey(s.Expanded, through, fix)
}

func rekey(m map[string]model.Path, through func(model.Path) bool, fix func(model.Path) model.Path) map[string]model.Path {
	out := make(map[string]model.Path, len(m))
	for h, p := range m {
		if through(p) {
			p = fix(p)
			if p.IsNull() {
				continue
			}
			h = p.Hash()
		}
		out[h] = p
	}
	return out
}

func copyPaths(m map[string]model.Path) map[string]model.Path {
	out := make(map[string]model.Path, len(m))
	for h, p := range m {
		out[h] = p
	}
	return out
}

// SortedPaths returns the values of m in hash order.
func SortedPaths(m map[string]model.Path) []model.Path {
	hs := make([]string, 0, len(m))
	for h := range m {
		hs = append(hs, h)
	}
	sort.Strings(hs)
	out := make([]model.Path, 0, len(hs))
	for _, h := range hs {
		out = append(out, m[h])
	}
	return out
}
