package state

import (
	"testing"

	"thoughtline/internal/model"
	"thoughtline/internal/store"
)

func newState(t *testing.T) *State {
	t.Helper()
	g := store.NewGraph()
	for _, x := range [][3]string{{"a", "", "a"}, {"b", "a", "b"}, {"c", "", "c"}} {
		if err := g.Create(model.Thought{ID: x[0], ParentID: x[1], Value: x[2]}); err != nil {
			t.Fatal(err)
		}
	}
	return New(g)
}

func TestSnapshot_IsIndependent(t *testing.T) {
	s := newState(t)
	s.Selection.SetCursor(model.MustPath("a"))
	snap := s.Snapshot()

	if _, err := s.Graph.Delete("c"); err != nil {
		t.Fatal(err)
	}
	s.Selection.Multi().Add(model.MustPath("a", "b"))
	s.ContextViews["x"] = model.MustPath("a")

	if !snap.Graph.Exists("c") {
		t.Fatalf("snapshot graph changed")
	}
	if snap.Selection.Multi().Len() != 0 || len(snap.ContextViews) != 0 {
		t.Fatalf("snapshot selection or views changed")
	}
}

func TestPrune_DropsPathsThroughDeletedThoughts(t *testing.T) {
	s := newState(t)
	s.Selection.SetCursor(model.MustPath("a", "b"))
	s.Selection.Multi().Add(model.MustPath("a", "b"))
	s.Selection.Multi().Add(model.MustPath("c"))
	s.Prune([]string{"b"})
	if !s.Cursor().IsNull() {
		t.Fatalf("cursor should be cleared")
	}
	if s.Selection.Multi().Len() != 1 {
		t.Fatalf("multicursor = %v", s.Selection.Multi().Paths())
	}
}

func TestRederive_FollowsMovedThought(t *testing.T) {
	s := newState(t)
	s.Selection.SetCursor(model.MustPath("a", "b"))
	if err := s.Graph.Move("b", "c", ""); err != nil {
		t.Fatal(err)
	}
	s.Rederive("b")
	if got := s.Cursor(); !got.Equal(model.MustPath("c", "b")) {
		t.Fatalf("cursor = %s", got)
	}
}

func TestSession_RoundTripDropsStalePaths(t *testing.T) {
	s := newState(t)
	s.Selection.SetCursor(model.MustPath("a", "b"))
	s.Selection.Multi().Add(model.MustPath("c"))
	sess := s.Session()
	sess.Multicursors = append(sess.Multicursors, model.MustPath("gone"))

	fresh := New(s.Graph)
	fresh.ApplySession(sess)
	if !fresh.Cursor().Equal(model.MustPath("a", "b")) {
		t.Fatalf("cursor = %s", fresh.Cursor())
	}
	if fresh.Selection.Multi().Len() != 1 {
		t.Fatalf("multicursor = %v", fresh.Selection.Multi().Paths())
	}
}
