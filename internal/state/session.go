package state

import (
	"thoughtline/internal/model"
)

// Session is the persisted, non-graph part of State.
type Session struct {
	Cursor       model.Path   `json:"cursor"`
	Multicursors []model.Path `json:"multicursors"`
	ContextViews []model.Path `json:"contextViews"`
	Expanded     []model.Path `json:"expanded"`
}

func (s *State) Session() Session {
	return Session{
		Cursor:       s.Selection.Cursor(),
		Multicursors: s.Selection.Multi().Paths(),
		ContextViews: SortedPaths(s.ContextViews),
		Expanded:     SortedPaths(s.Expanded),
	}
}

// ApplySession loads sess into s. Paths that no longer resolve against the
// current graph are dropped.
func (s *State) ApplySession(sess Session) {
	s.ContextViews = map[string]model.Path{}
	for _, p := range sess.ContextViews {
		if !p.IsNull() {
			s.ContextViews[p.Hash()] = p
		}
	}
	// Context views are needed before the paths that pass through them
	// can validate.
	r := s.Resolver()
	keep := func(p model.Path) bool { return !p.IsNull() && r.Validate(p) == nil }

	for h, p := range s.ContextViews {
		if !keep(p) {
			delete(s.ContextViews, h)
		}
	}
	s.Expanded = map[string]model.Path{}
	for _, p := range sess.Expanded {
		if keep(p) {
			s.Expanded[p.Hash()] = p
		}
	}
	if keep(sess.Cursor) {
		s.Selection.SetCursor(sess.Cursor)
	} else {
		s.Selection.ClearCursor()
	}
	multi := s.Selection.Multi()
	multi.Clear()
	for _, p := range sess.Multicursors {
		if keep(p) {
			multi.Add(p)
		}
	}
}
