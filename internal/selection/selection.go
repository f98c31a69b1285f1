// Package selection holds the cursor and the multicursor set.
package selection

import (
	"sort"

	"thoughtline/internal/model"
)

// Set is a set of Paths keyed by their structural hash. The null Path is
// never a member.
type Set struct {
	m map[string]model.Path
}

func NewSet(paths ...model.Path) Set {
	s := Set{m: map[string]model.Path{}}
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Add inserts p. Adding a member again is a no-op.
func (s *Set) Add(p model.Path) bool {
	if p.IsNull() {
		return false
	}
	if s.m == nil {
		s.m = map[string]model.Path{}
	}
	h := p.Hash()
	if _, ok := s.m[h]; ok {
		return false
	}
	s.m[h] = p
	return true
}

// Remove deletes p. Removing a non-member is a no-op.
func (s *Set) Remove(p model.Path) bool {
	h := p.Hash()
	if _, ok := s.m[h]; !ok {
		return false
	}
	delete(s.m, h)
	return true
}

// Toggle removes p when present and adds it otherwise. It reports whether p
// is a member afterwards.
func (s *Set) Toggle(p model.Path) bool {
	if s.Remove(p) {
		return false
	}
	return s.Add(p)
}

func (s Set) Contains(p model.Path) bool {
	if p.IsNull() {
		return false
	}
	_, ok := s.m[p.Hash()]
	return ok
}

func (s *Set) Clear() { s.m = map[string]model.Path{} }

func (s Set) Len() int { return len(s.m) }

// Get returns the member stored under hash h.
func (s Set) Get(h string) (model.Path, bool) {
	p, ok := s.m[h]
	return p, ok
}

// Hashes returns the member hashes in sorted order.
func (s Set) Hashes() []string {
	out := make([]string, 0, len(s.m))
	for h := range s.m {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Paths returns the members in hash order. Use SortDocumentOrder for
// document order.
func (s Set) Paths() []model.Path {
	hs := s.Hashes()
	out := make([]model.Path, 0, len(hs))
	for _, h := range hs {
		out = append(out, s.m[h])
	}
	return out
}

func (s Set) Clone() Set {
	c := Set{m: make(map[string]model.Path, len(s.m))}
	for h, p := range s.m {
		c.m[h] = p
	}
	return c
}

// Model owns the cursor and the multicursor set. The cursor may or may not
// also be a member of the set.
type Model struct {
	cursor model.Path
	multi  Set
}

func NewModel() *Model {
	return &Model{multi: NewSet()}
}

func (m *Model) Cursor() model.Path     { return m.cursor }
func (m *Model) SetCursor(p model.Path) { m.cursor = p }
func (m *Model) ClearCursor()           { m.cursor = model.Path{} }

// Multi returns the live multicursor set.
func (m *Model) Multi() *Set { return &m.multi }

func (m *Model) Clone() *Model {
	return &Model{cursor: m.cursor, multi: m.multi.Clone()}
}
