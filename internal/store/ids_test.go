package store

import (
	"strings"
	"testing"

	"thoughtline/internal/model"
)

func TestNewRandomID_Shape(t *testing.T) {
	id, err := newRandomID("t")
	if err != nil {
		t.Fatalf("newRandomID: %v", err)
	}
	suffix, ok := strings.CutPrefix(id, "t-")
	if !ok {
		t.Fatalf("expected t- prefix, got %q", id)
	}
	if got, want := len(suffix), 8; got != want {
		t.Fatalf("expected suffix len %d, got %d (%q)", want, got, suffix)
	}
	if strings.ToLower(suffix) != suffix {
		t.Fatalf("expected lowercase suffix, got %q", suffix)
	}
}

func TestNewThoughtID_IsFreshInGraph(t *testing.T) {
	g := NewGraph()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := g.NewThoughtID()
		if err != nil {
			t.Fatalf("NewThoughtID: %v", err)
		}
		if seen[id] || g.Exists(id) {
			t.Fatalf("id reused: %s", id)
		}
		seen[id] = true
		if err := g.Create(model.Thought{ID: id, Value: id}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
}
