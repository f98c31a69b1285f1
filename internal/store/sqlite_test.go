package store

import (
	"context"
	"errors"
	"testing"

	"thoughtline/internal/model"
)

func TestStore_ApplyUpdatesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}
	id, err := s.Init(ctx)
	if err != nil || id == "" {
		t.Fatalf("Init: %q %v", id, err)
	}
	again, err := s.Init(ctx)
	if err != nil || again != id {
		t.Fatalf("Init should be stable: %q vs %q (%v)", again, id, err)
	}

	before := NewGraph()
	after := before.Clone()
	mustCreate(t, after, "a", "", "alpha")
	mustCreate(t, after, "b", "a", "beta")

	ths, lex := GraphUpdates(before, after)
	if err := s.ApplyUpdates(ctx, ths, lex); err != nil {
		t.Fatalf("ApplyUpdates: %v", err)
	}

	loaded, err := s.LoadGraph(ctx)
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if err := loaded.Check(); err != nil {
		t.Fatalf("loaded graph invalid: %v", err)
	}
	if loaded.ParentOf("b") != "a" {
		t.Fatalf("parent not persisted")
	}

	th, err := s.GetThought(ctx, "b")
	if err != nil || th.Value != "beta" {
		t.Fatalf("GetThought: %+v %v", th, err)
	}

	next := loaded.Clone()
	if _, err := next.Delete("a"); err != nil {
		t.Fatal(err)
	}
	ths, lex = GraphUpdates(loaded, next)
	if err := s.ApplyUpdates(ctx, ths, lex); err != nil {
		t.Fatalf("ApplyUpdates delete: %v", err)
	}
	var nf *NotFoundError
	if _, err := s.GetThought(ctx, "b"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if _, err := s.GetLexeme(ctx, "alpha"); !errors.As(err, &nf) {
		t.Fatalf("expected lexeme deleted, got %v", err)
	}
}

func TestStore_KV(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}
	if _, ok, err := s.Get(ctx, "theme"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "theme", "dark"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get(ctx, "theme")
	if err != nil || !ok || v != "dark" {
		t.Fatalf("Get = %q %v %v", v, ok, err)
	}
}

func TestGraphUpdates_OnlyChangedRows(t *testing.T) {
	g := NewGraph()
	mustCreate(t, g, "a", "", "a")
	mustCreate(t, g, "b", "", "b")
	next := g.Clone()
	if err := next.Rename("b", "bee"); err != nil {
		t.Fatal(err)
	}
	ths, lex := GraphUpdates(g, next)
	if len(ths) != 1 || ths["b"] == nil {
		t.Fatalf("thought updates = %v", ths)
	}
	if _, ok := lex["b"]; !ok || lex["b"] != nil {
		t.Fatalf("expected lexeme b deleted, got %v", lex)
	}
	if lex["bee"] == nil {
		t.Fatalf("expected lexeme bee written")
	}
	if _, ok := ths[model.RootID]; ok {
		t.Fatalf("root should be untouched by a rename")
	}
}
