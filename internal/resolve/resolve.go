// Package resolve turns id sequences into validated Paths against a graph,
// including paths that pass through thoughts shown in context view.
package resolve

import (
	"errors"
	"fmt"

	"thoughtline/internal/model"
	"thoughtline/internal/store"
)

// ErrUnresolvablePath means a path, or a link of a context chain, no longer
// corresponds to existing thoughts. Callers skip the entry.
var ErrUnresolvablePath = errors.New("unresolvable path")

// Resolver answers path questions for one graph and one set of context views.
// Views is keyed by Path.Hash of every path currently shown in context view.
type Resolver struct {
	Graph *store.Graph
	Views map[string]model.Path
}

func New(g *store.Graph, views map[string]model.Path) Resolver {
	return Resolver{Graph: g, Views: views}
}

// IsContextView reports whether the thought at p shows its contexts instead
// of its children.
func (r Resolver) IsContextView(p model.Path) bool {
	if p.IsNull() || r.Views == nil {
		return false
	}
	_, ok := r.Views[p.Hash()]
	return ok
}

// isContextLink reports whether b is reached from the context view at prefix
// (whose head is a) rather than as a child of a.
func (r Resolver) isContextLink(prefix model.Path, b string) bool {
	if !r.IsContextView(prefix) {
		return false
	}
	a, ok := r.Graph.Thought(prefix.Head())
	if !ok || b == a.ID {
		return false
	}
	l, ok := r.Graph.Lexeme(a.Value)
	return ok && l.HasContext(b)
}

// Validate checks that every id exists and that every consecutive pair is a
// parent/child pair or a context-view link. The null Path is valid.
func (r Resolver) Validate(p model.Path) error {
	ids := p.IDs()
	for i, id := range ids {
		t, ok := r.Graph.Thought(id)
		if !ok {
			return fmt.Errorf("%w: %s does not exist", ErrUnresolvablePath, id)
		}
		if i == 0 {
			if t.ParentID != model.RootID {
				return fmt.Errorf("%w: %s is not a top-level thought", ErrUnresolvablePath, id)
			}
			continue
		}
		if t.ParentID == ids[i-1] {
			continue
		}
		if r.isContextLink(p.Prefix(i), id) {
			continue
		}
		return fmt.Errorf("%w: %s is not a child or context of %s", ErrUnresolvablePath, id, ids[i-1])
	}
	return nil
}

// ThoughtToPath rebuilds the simple path of id by walking parents up to the
// root. It returns the null Path when id no longer exists.
func (r Resolver) ThoughtToPath(id string) model.Path {
	if id == "" || id == model.RootID || !r.Graph.Exists(id) {
		return model.Path{}
	}
	var rev []string
	limit := r.Graph.Len() + 1
	for cur := id; cur != model.RootID; cur = r.Graph.ParentOf(cur) {
		if cur == "" || len(rev) > limit {
			return model.Path{}
		}
		rev = append(rev, cur)
	}
	ids := make([]string, len(rev))
	for i, x := range rev {
		ids[len(rev)-1-i] = x
	}
	p, err := model.NewPath(ids...)
	if err != nil {
		return model.Path{}
	}
	return p
}

// Resolve re-derives p against the current graph. A path that still
// validates is returned as is; otherwise its target is looked up by id.
// The null Path comes back when the target no longer exists.
func (r Resolver) Resolve(p model.Path) model.Path {
	if p.IsNull() || !r.Graph.Exists(p.Head()) {
		return model.Path{}
	}
	if r.Validate(p) == nil {
		return p
	}
	return r.ThoughtToPath(p.Head())
}

// SplitChain breaks p at every context-view link. The returned chain holds
// each segment up to and including a thought in context view; tail is the
// final segment.
func (r Resolver) SplitChain(p model.Path) ([]model.Path, model.Path) {
	if p.IsNull() {
		return nil, model.Path{}
	}
	var chain []model.Path
	ids := p.IDs()
	start := 0
	for i := 1; i < len(ids); i++ {
		if r.isContextLink(p.Prefix(i), ids[i]) {
			chain = append(chain, model.MustPath(ids[start:i]...))
			start = i
		}
	}
	return chain, model.MustPath(ids[start:]...)
}

// Chain joins a context chain and a simple path into one path. Each next
// segment is entered at its first id that is a context of the value at the
// current tail.
func (r Resolver) Chain(chain []model.Path, simple model.Path) (model.Path, error) {
	segments := make([]model.Path, 0, len(chain)+1)
	for _, c := range chain {
		if !c.IsNull() {
			segments = append(segments, c)
		}
	}
	if !simple.IsNull() {
		segments = append(segments, simple)
	}
	if len(segments) == 0 {
		return model.Path{}, nil
	}
	out := segments[0].IDs()
	for _, id := range out {
		if !r.Graph.Exists(id) {
			return model.Path{}, fmt.Errorf("%w: %s does not exist", ErrUnresolvablePath, id)
		}
	}
	for _, seg := range segments[1:] {
		tail, ok := r.Graph.Thought(out[len(out)-1])
		if !ok {
			return model.Path{}, fmt.Errorf("%w: %s does not exist", ErrUnresolvablePath, out[len(out)-1])
		}
		l, _ := r.Graph.Lexeme(tail.Value)
		ids := seg.IDs()
		entry := -1
		for i, id := range ids {
			if id != tail.ID && l.HasContext(id) {
				entry = i
				break
			}
		}
		if entry < 0 {
			return model.Path{}, fmt.Errorf("%w: no context of %q in %s", ErrUnresolvablePath, tail.Value, seg)
		}
		for _, id := range ids[entry:] {
			if !r.Graph.Exists(id) {
				return model.Path{}, fmt.Errorf("%w: %s does not exist", ErrUnresolvablePath, id)
			}
		}
		out = append(out, ids[entry:]...)
	}
	return model.NewPath(out...)
}

// Simplify returns the canonical simple path for p: everything up to the
// last context-view link is replaced by the real path of the link target.
func (r Resolver) Simplify(p model.Path) model.Path {
	chain, tail := r.SplitChain(p)
	if len(chain) == 0 {
		return p
	}
	// tail starts at the link target.
	head := r.ThoughtToPath(tail.At(0))
	if head.IsNull() {
		return model.Path{}
	}
	out, err := head.Append(tail.IDs()[1:]...)
	if err != nil {
		return model.Path{}
	}
	return out
}
