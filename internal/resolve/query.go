package resolve

import (
	"thoughtline/internal/model"
	"thoughtline/internal/store"
)

// Ancestors returns every strict prefix of p, outermost first.
func (r Resolver) Ancestors(p model.Path) []model.Path {
	out := make([]model.Path, 0, p.Len())
	for i := 1; i < p.Len(); i++ {
		out = append(out, p.Prefix(i))
	}
	return out
}

// ChildIDs lists what is shown under p in document order: its children, or
// the other thoughts sharing its value when p is in context view.
func (r Resolver) ChildIDs(p model.Path) []string {
	head := p.Head()
	if r.IsContextView(p) {
		t, ok := r.Graph.Thought(head)
		if !ok {
			return nil
		}
		ctxs := r.Graph.ContextsOf(t.Value)
		ts := make([]*model.Thought, 0, len(ctxs))
		for _, id := range ctxs {
			if id == head {
				continue
			}
			if c, ok := r.Graph.Thought(id); ok {
				ts = append(ts, c)
			}
		}
		store.SortThoughts(ts)
		return thoughtIDs(ts)
	}
	return thoughtIDs(r.Graph.ChildrenOf(head))
}

// Children returns the paths shown directly under p.
func (r Resolver) Children(p model.Path) []model.Path {
	ids := r.ChildIDs(p)
	out := make([]model.Path, 0, len(ids))
	for _, id := range ids {
		c, err := p.Append(id)
		if err == nil {
			out = append(out, c)
		}
	}
	return out
}

// Siblings returns p and its siblings in document order.
func (r Resolver) Siblings(p model.Path) []model.Path {
	if p.IsNull() {
		return nil
	}
	return r.Children(p.Parent())
}

func (r Resolver) siblingIndex(p model.Path) ([]string, int) {
	if p.IsNull() {
		return nil, -1
	}
	ids := r.ChildIDs(p.Parent())
	for i, id := range ids {
		if id == p.Head() {
			return ids, i
		}
	}
	return ids, -1
}

// PrevSibling returns the sibling directly before p, or the null Path.
func (r Resolver) PrevSibling(p model.Path) model.Path {
	ids, i := r.siblingIndex(p)
	if i <= 0 {
		return model.Path{}
	}
	s, _ := p.Parent().Append(ids[i-1])
	return s
}

// NextSibling returns the sibling directly after p, or the null Path.
func (r Resolver) NextSibling(p model.Path) model.Path {
	ids, i := r.siblingIndex(p)
	if i < 0 || i+1 >= len(ids) {
		return model.Path{}
	}
	s, _ := p.Parent().Append(ids[i+1])
	return s
}

// Next returns the path after p in document order (a pre-order walk of the
// whole tree). From the null Path it returns the first top-level thought.
func (r Resolver) Next(p model.Path) model.Path {
	if kids := r.Children(p); len(kids) > 0 {
		return kids[0]
	}
	for q := p; !q.IsNull(); q = q.Parent() {
		if ns := r.NextSibling(q); !ns.IsNull() {
			return ns
		}
	}
	return model.Path{}
}

// Prev returns the path before p in document order, or the null Path when p
// is the first top-level thought.
func (r Resolver) Prev(p model.Path) model.Path {
	if p.IsNull() {
		return model.Path{}
	}
	ps := r.PrevSibling(p)
	if ps.IsNull() {
		return p.Parent()
	}
	for {
		kids := r.Children(ps)
		if len(kids) == 0 {
			return ps
		}
		ps = kids[len(kids)-1]
	}
}

// Rank returns the sibling rank of the thought at p.
func (r Resolver) Rank(p model.Path) string {
	return r.Graph.Rank(p.Head())
}

func thoughtIDs(ts []*model.Thought) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}
