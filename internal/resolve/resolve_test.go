package resolve

import (
	"errors"
	"testing"

	"thoughtline/internal/model"
	"thoughtline/internal/store"
)

// fixture:
//
//	fruit
//	  apple(a1)
//	recipes
//	  apple(a2)
//	    pie
//	  bread
func fixture(t *testing.T) *store.Graph {
	t.Helper()
	g := store.NewGraph()
	for _, x := range []struct{ id, parent, value string }{
		{"fruit", "", "Fruit"},
		{"a1", "fruit", "apple"},
		{"recipes", "", "Recipes"},
		{"a2", "recipes", "apple"},
		{"pie", "a2", "pie"},
		{"bread", "recipes", "bread"},
	} {
		if err := g.Create(model.Thought{ID: x.id, ParentID: x.parent, Value: x.value}); err != nil {
			t.Fatalf("Create(%s): %v", x.id, err)
		}
	}
	return g
}

func TestThoughtToPath(t *testing.T) {
	r := New(fixture(t), nil)
	if got := r.ThoughtToPath("pie"); !got.Equal(model.MustPath("recipes", "a2", "pie")) {
		t.Fatalf("ThoughtToPath(pie) = %s", got)
	}
	if got := r.ThoughtToPath("missing"); !got.IsNull() {
		t.Fatalf("expected null for missing id, got %s", got)
	}
	if got := r.ThoughtToPath(model.RootID); !got.IsNull() {
		t.Fatalf("expected null for root, got %s", got)
	}
}

func TestValidate_ParentChildAndContextLinks(t *testing.T) {
	g := fixture(t)
	r := New(g, nil)
	if err := r.Validate(model.MustPath("recipes", "a2", "pie")); err != nil {
		t.Fatalf("Validate simple: %v", err)
	}
	if err := r.Validate(model.MustPath("fruit", "a2")); !errors.Is(err, ErrUnresolvablePath) {
		t.Fatalf("expected ErrUnresolvablePath, got %v", err)
	}
	if err := r.Validate(model.MustPath("a2")); !errors.Is(err, ErrUnresolvablePath) {
		t.Fatalf("non top-level head should fail, got %v", err)
	}

	cv := model.MustPath("fruit", "a1")
	r = New(g, map[string]model.Path{cv.Hash(): cv})
	if err := r.Validate(model.MustPath("fruit", "a1", "a2", "pie")); err != nil {
		t.Fatalf("Validate context path: %v", err)
	}
}

func TestResolve_DeletedTailIsNull(t *testing.T) {
	g := fixture(t)
	r := New(g, nil)
	p := model.MustPath("recipes", "a2", "pie")
	if _, err := g.Delete("a2"); err != nil {
		t.Fatal(err)
	}
	if got := r.Resolve(p); !got.IsNull() {
		t.Fatalf("expected null, got %s", got)
	}
}

func TestResolve_MovedTailIsRederived(t *testing.T) {
	g := fixture(t)
	r := New(g, nil)
	p := model.MustPath("recipes", "bread")
	if err := g.Move("bread", "fruit", ""); err != nil {
		t.Fatal(err)
	}
	if got := r.Resolve(p); !got.Equal(model.MustPath("fruit", "bread")) {
		t.Fatalf("Resolve = %s", got)
	}
}

func TestChainSplitSimplify(t *testing.T) {
	g := fixture(t)
	cv := model.MustPath("fruit", "a1")
	r := New(g, map[string]model.Path{cv.Hash(): cv})

	full, err := r.Chain([]model.Path{cv}, model.MustPath("recipes", "a2", "pie"))
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	want := model.MustPath("fruit", "a1", "a2", "pie")
	if !full.Equal(want) {
		t.Fatalf("Chain = %s, want %s", full, want)
	}

	chain, tail := r.SplitChain(full)
	if len(chain) != 1 || !chain[0].Equal(cv) || !tail.Equal(model.MustPath("a2", "pie")) {
		t.Fatalf("SplitChain = %v / %s", chain, tail)
	}
	again, err := r.Chain(chain, tail)
	if err != nil || !again.Equal(full) {
		t.Fatalf("Chain(SplitChain(p)) = %s, %v", again, err)
	}

	if got := r.Simplify(full); !got.Equal(model.MustPath("recipes", "a2", "pie")) {
		t.Fatalf("Simplify = %s", got)
	}
	if got := r.Simplify(model.MustPath("recipes", "bread")); !got.Equal(model.MustPath("recipes", "bread")) {
		t.Fatalf("Simplify of a simple path changed it: %s", got)
	}
}

func TestChain_FailsWhenLinkTargetIsGone(t *testing.T) {
	g := fixture(t)
	cv := model.MustPath("fruit", "a1")
	r := New(g, map[string]model.Path{cv.Hash(): cv})
	if _, err := g.Delete("a2"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Chain([]model.Path{cv}, model.MustPath("recipes", "bread")); !errors.Is(err, ErrUnresolvablePath) {
		t.Fatalf("expected ErrUnresolvablePath, got %v", err)
	}
}

func TestDocumentOrderWalk(t *testing.T) {
	r := New(fixture(t), nil)
	var got []string
	for p := r.Next(model.Path{}); !p.IsNull(); p = r.Next(p) {
		got = append(got, p.Head())
	}
	want := []string{"fruit", "a1", "recipes", "a2", "pie", "bread"}
	if len(got) != len(want) {
		t.Fatalf("walk = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("walk = %v, want %v", got, want)
		}
	}

	if got := r.Prev(model.MustPath("recipes", "bread")); !got.Equal(model.MustPath("recipes", "a2", "pie")) {
		t.Fatalf("Prev(bread) = %s", got)
	}
	if got := r.Prev(model.MustPath("fruit")); !got.IsNull() {
		t.Fatalf("Prev(first) = %s", got)
	}
}

func TestContextViewChildren(t *testing.T) {
	g := fixture(t)
	cv := model.MustPath("fruit", "a1")
	r := New(g, map[string]model.Path{cv.Hash(): cv})
	kids := r.Children(cv)
	if len(kids) != 1 || !kids[0].Equal(model.MustPath("fruit", "a1", "a2")) {
		t.Fatalf("context children = %v", kids)
	}
	if got := r.NextSibling(model.MustPath("recipes", "a2")); !got.Equal(model.MustPath("recipes", "bread")) {
		t.Fatalf("NextSibling = %s", got)
	}
}
