package store

import (
	"errors"
	"testing"

	"thoughtline/internal/model"
)

func mustCreate(t *testing.T, g *Graph, id, parent, value string) {
	t.Helper()
	if err := g.Create(model.Thought{ID: id, ParentID: parent, Value: value}); err != nil {
		t.Fatalf("Create(%s): %v", id, err)
	}
}

func TestGraph_CreateKeepsParentChildAndLexemeInvariants(t *testing.T) {
	g := NewGraph()
	mustCreate(t, g, "a", "", "fruit")
	mustCreate(t, g, "b", "a", "apple")
	mustCreate(t, g, "c", "", "apple")

	if err := g.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got := g.ParentOf("b"); got != "a" {
		t.Fatalf("ParentOf(b) = %q, want a", got)
	}
	if got := g.ContextsOf("apple"); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("ContextsOf(apple) = %v", got)
	}
	kids := g.ChildrenOf(model.RootID)
	if len(kids) != 2 || kids[0].ID != "a" || kids[1].ID != "c" {
		t.Fatalf("root children out of order: %v", kids)
	}
}

func TestGraph_CopyOnWriteLeavesSnapshotsUntouched(t *testing.T) {
	g := NewGraph()
	mustCreate(t, g, "a", "", "one")
	snap := g.Clone()

	if err := g.Rename("a", "uno"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	old, _ := snap.Thought("a")
	if old.Value != "one" {
		t.Fatalf("snapshot thought mutated: %q", old.Value)
	}
	if _, ok := snap.Lexeme("one"); !ok {
		t.Fatalf("snapshot lexeme removed")
	}
	if _, ok := g.Lexeme("one"); ok {
		t.Fatalf("expected empty lexeme bucket to be deleted")
	}
	if l, ok := g.Lexeme("uno"); !ok || !l.HasContext("a") {
		t.Fatalf("expected thought in new bucket")
	}
}

func TestGraph_DeleteRemovesSubtree(t *testing.T) {
	g := NewGraph()
	mustCreate(t, g, "a", "", "a")
	mustCreate(t, g, "b", "a", "b")
	mustCreate(t, g, "c", "b", "c")

	removed, err := g.Delete("a")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(removed) != 3 {
		t.Fatalf("removed = %v", removed)
	}
	for _, id := range []string{"a", "b", "c"} {
		if g.Exists(id) {
			t.Fatalf("%s still exists", id)
		}
	}
	if err := g.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if _, err := g.Delete(model.RootID); !errors.Is(err, ErrRootImmutable) {
		t.Fatalf("expected ErrRootImmutable, got %v", err)
	}
}

func TestGraph_MoveRejectsCycles(t *testing.T) {
	g := NewGraph()
	mustCreate(t, g, "a", "", "a")
	mustCreate(t, g, "b", "a", "b")

	if err := g.Move("a", "b", ""); !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
	if err := g.Move("b", "", ""); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if g.ParentOf("b") != model.RootID {
		t.Fatalf("b not moved to root")
	}
	if err := g.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestGraph_MetaAttributesAreUniquePerParent(t *testing.T) {
	g := NewGraph()
	mustCreate(t, g, "a", "", "a")
	mustCreate(t, g, "p1", "a", "=pin")
	if err := g.Create(model.Thought{ID: "p2", ParentID: "a", Value: "=pin"}); !errors.Is(err, ErrDuplicateMeta) {
		t.Fatalf("expected ErrDuplicateMeta, got %v", err)
	}
	// Plain duplicates are fine.
	mustCreate(t, g, "x1", "a", "same")
	mustCreate(t, g, "x2", "a", "same")
	if err := g.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestGraph_RankAfterSiblingRespreadsWhenCrowded(t *testing.T) {
	g := NewGraph()
	if err := g.Create(model.Thought{ID: "a", Value: "a", Rank: "y"}); err != nil {
		t.Fatal(err)
	}
	if err := g.Create(model.Thought{ID: "b", Value: "b", Rank: "y0"}); err != nil {
		t.Fatal(err)
	}
	r, err := g.RankAfterSibling(model.RootID, "a")
	if err != nil {
		t.Fatalf("RankAfterSibling: %v", err)
	}
	ra, rb := g.Rank("a"), g.Rank("b")
	if !(ra < r && r < rb) {
		t.Fatalf("expected %q < %q < %q", ra, r, rb)
	}
}

func TestSpreadRanks_StrictlyIncreasing(t *testing.T) {
	rs := SpreadRanks(100)
	for i := 1; i < len(rs); i++ {
		if !(rs[i-1] < rs[i]) {
			t.Fatalf("ranks not increasing at %d: %q >= %q", i, rs[i-1], rs[i])
		}
	}
}
