package store

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"thoughtline/internal/model"
)

var (
	ErrThoughtExists   = errors.New("thought already exists")
	ErrCycle           = errors.New("cannot move a thought into its own subtree")
	ErrRootImmutable   = errors.New("the root thought cannot be changed")
	ErrDuplicateMeta   = errors.New("parent already holds this meta attribute")
	ErrInvalidGraph    = errors.New("graph invariant violated")
	errMissingThoughts = errors.New("missing thought")
)

// Graph is the normalized thought/lexeme table pair.
//
// Stored values are copy-on-write: every mutation clones the affected
// thoughts and lexemes and swaps the pointers in. Snapshots are therefore
// shallow map copies, and two snapshots can be diffed by pointer identity.
type Graph struct {
	thoughts map[string]*model.Thought
	lexemes  map[string]*model.Lexeme

	// now is injectable so tests get stable LastUpdated values.
	now func() time.Time
}

func NewGraph() *Graph {
	g := &Graph{
		thoughts: map[string]*model.Thought{},
		lexemes:  map[string]*model.Lexeme{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	g.thoughts[model.RootID] = &model.Thought{ID: model.RootID, Children: map[string]string{}}
	return g
}

// SetClock overrides the timestamp source.
func (g *Graph) SetClock(now func() time.Time) {
	if now != nil {
		g.now = now
	}
}

// Clone returns a snapshot sharing the (immutable) stored values.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		thoughts: make(map[string]*model.Thought, len(g.thoughts)),
		lexemes:  make(map[string]*model.Lexeme, len(g.lexemes)),
		now:      g.now,
	}
	for k, v := range g.thoughts {
		c.thoughts[k] = v
	}
	for k, v := range g.lexemes {
		c.lexemes[k] = v
	}
	return c
}

func (g *Graph) Thought(id string) (*model.Thought, bool) {
	if g == nil {
		return nil, false
	}
	t, ok := g.thoughts[id]
	return t, ok
}

func (g *Graph) Exists(id string) bool {
	_, ok := g.Thought(id)
	return ok
}

func (g *Graph) Lexeme(value string) (*model.Lexeme, bool) {
	if g == nil {
		return nil, false
	}
	l, ok := g.lexemes[value]
	return l, ok
}

// Thoughts exposes the backing table for diffing. Callers must not modify it.
func (g *Graph) Thoughts() map[string]*model.Thought { return g.thoughts }

// Lexemes exposes the backing table for diffing. Callers must not modify it.
func (g *Graph) Lexemes() map[string]*model.Lexeme { return g.lexemes }

func (g *Graph) Len() int { return len(g.thoughts) - 1 }

func (g *Graph) ParentOf(id string) string {
	t, ok := g.Thought(id)
	if !ok {
		return ""
	}
	return t.ParentID
}

func (g *Graph) Rank(id string) string {
	t, ok := g.Thought(id)
	if !ok {
		return ""
	}
	return t.Rank
}

// ChildrenOf returns the children of id in document order (rank, then id).
func (g *Graph) ChildrenOf(id string) []*model.Thought {
	t, ok := g.Thought(id)
	if !ok || len(t.Children) == 0 {
		return nil
	}
	out := make([]*model.Thought, 0, len(t.Children))
	for _, cid := range t.Children {
		if c, ok := g.thoughts[cid]; ok {
			out = append(out, c)
		}
	}
	SortThoughts(out)
	return out
}

// ContextsOf returns the ids of every thought whose value is exactly value.
func (g *Graph) ContextsOf(value string) []string {
	l, ok := g.Lexeme(value)
	if !ok {
		return nil
	}
	return append([]string(nil), l.Contexts...)
}

// SortThoughts sorts in place by rank, then id.
func SortThoughts(ts []*model.Thought) {
	sort.SliceStable(ts, func(i, j int) bool {
		return CompareRanks(ts[i].Rank, ts[i].ID, ts[j].Rank, ts[j].ID) < 0
	})
}

// RankAfterSibling returns a rank placing a new child of parentID directly
// after afterID (or first when afterID is empty). When the neighbours leave
// no room, the sibling group is re-spread first.
func (g *Graph) RankAfterSibling(parentID, afterID string) (string, error) {
	sibs := g.ChildrenOf(parentID)
	idx := -1
	if afterID != "" {
		for i, s := range sibs {
			if s.ID == afterID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return "", fmt.Errorf("%w: %s is not a child of %s", errMissingThoughts, afterID, parentID)
		}
	}
	return g.rankAt(parentID, sibs, idx+1, "")
}

// RankAtEnd returns a rank after the last child of parentID.
func (g *Graph) RankAtEnd(parentID string) (string, error) {
	sibs := g.ChildrenOf(parentID)
	return g.rankAt(parentID, sibs, len(sibs), "")
}

// rankAt computes a rank for insertion index idx into sibs, ignoring the
// sibling identified by skip (a thought being moved within its own group).
func (g *Graph) rankAt(parentID string, sibs []*model.Thought, idx int, skip string) (string, error) {
	existing := map[string]bool{}
	for _, s := range sibs {
		if s.ID != skip {
			existing[normalizeRank(s.Rank)] = true
		}
	}
	lower, upper := "", ""
	if idx > 0 && idx-1 < len(sibs) {
		lower = sibs[idx-1].Rank
	}
	if idx < len(sibs) {
		upper = sibs[idx].Rank
	}
	r, err := RankBetweenUnique(existing, lower, upper)
	if err == nil {
		return r, nil
	}
	if lower == "" && upper == "" {
		return "", err
	}
	// Respread the group leaving a gap at idx.
	ranks := SpreadRanks(len(sibs) + 1)
	j := 0
	for i, s := range sibs {
		if i == idx {
			j++
		}
		if normalizeRank(s.Rank) != ranks[j] {
			c := s.Clone()
			c.Rank = ranks[j]
			c.LastUpdated = g.now()
			g.thoughts[c.ID] = c
		}
		j++
	}
	return ranks[idx], nil
}

// Create inserts t under t.ParentID ("" means the root).
func (g *Graph) Create(t model.Thought) error {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" || t.ID == model.RootID {
		return fmt.Errorf("%w: invalid id %q", model.ErrInvalidPath, t.ID)
	}
	if g.Exists(t.ID) {
		return fmt.Errorf("%w: %s", ErrThoughtExists, t.ID)
	}
	if t.ParentID == "" {
		t.ParentID = model.RootID
	}
	parent, ok := g.Thought(t.ParentID)
	if !ok {
		return &NotFoundError{Kind: "thought", ID: t.ParentID}
	}
	key := model.ChildKey(t.Value, t.ID)
	if _, taken := parent.Children[key]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateMeta, t.Value)
	}
	if strings.TrimSpace(t.Rank) == "" {
		r, err := g.RankAtEnd(t.ParentID)
		if err != nil {
			return err
		}
		t.Rank = r
		// Re-read: rankAt may have re-spread (and replaced) siblings.
		parent = g.thoughts[t.ParentID]
	}
	t.Rank = normalizeRank(t.Rank)
	t.Children = map[string]string{}
	t.LastUpdated = g.now()

	np := parent.Clone()
	if np.Children == nil {
		np.Children = map[string]string{}
	}
	np.Children[key] = t.ID
	np.LastUpdated = t.LastUpdated

	nt := t
	g.thoughts[np.ID] = np
	g.thoughts[t.ID] = &nt
	g.addContext(t.Value, t.ID)
	return nil
}

// Delete removes id and its whole subtree. Returns the removed ids,
// parent-first.
func (g *Graph) Delete(id string) ([]string, error) {
	if id == model.RootID {
		return nil, ErrRootImmutable
	}
	t, ok := g.Thought(id)
	if !ok {
		return nil, &NotFoundError{Kind: "thought", ID: id}
	}
	removed := g.subtreeIDs(id)
	for _, rid := range removed {
		if x, ok := g.thoughts[rid]; ok {
			g.removeContext(x.Value, rid)
			delete(g.thoughts, rid)
		}
	}
	if parent, ok := g.thoughts[t.ParentID]; ok {
		np := parent.Clone()
		delete(np.Children, model.ChildKey(t.Value, t.ID))
		np.LastUpdated = g.now()
		g.thoughts[np.ID] = np
	}
	return removed, nil
}

// Rename changes a thought's value, moving it between lexeme buckets.
func (g *Graph) Rename(id, value string) error {
	if id == model.RootID {
		return ErrRootImmutable
	}
	t, ok := g.Thought(id)
	if !ok {
		return &NotFoundError{Kind: "thought", ID: id}
	}
	if t.Value == value {
		return nil
	}
	parent, ok := g.thoughts[t.ParentID]
	if !ok {
		return fmt.Errorf("%w: parent of %s missing", ErrInvalidGraph, id)
	}
	oldKey := model.ChildKey(t.Value, id)
	newKey := model.ChildKey(value, id)
	if oldKey != newKey {
		if _, taken := parent.Children[newKey]; taken {
			return fmt.Errorf("%w: %s", ErrDuplicateMeta, value)
		}
		np := parent.Clone()
		delete(np.Children, oldKey)
		np.Children[newKey] = id
		np.LastUpdated = g.now()
		g.thoughts[np.ID] = np
	}
	nt := t.Clone()
	nt.Value = value
	nt.LastUpdated = g.now()
	g.thoughts[id] = nt
	g.removeContext(t.Value, id)
	g.addContext(value, id)
	return nil
}

// Move reparents id under newParentID with rank. An empty rank appends.
func (g *Graph) Move(id, newParentID, rank string) error {
	if id == model.RootID {
		return ErrRootImmutable
	}
	if newParentID == "" {
		newParentID = model.RootID
	}
	t, ok := g.Thought(id)
	if !ok {
		return &NotFoundError{Kind: "thought", ID: id}
	}
	if !g.Exists(newParentID) {
		return &NotFoundError{Kind: "thought", ID: newParentID}
	}
	for cur := newParentID; cur != "" && cur != model.RootID; cur = g.ParentOf(cur) {
		if cur == id {
			return ErrCycle
		}
	}
	key := model.ChildKey(t.Value, id)
	if newParentID != t.ParentID {
		if _, taken := g.thoughts[newParentID].Children[key]; taken {
			return fmt.Errorf("%w: %s", ErrDuplicateMeta, t.Value)
		}
	}
	if strings.TrimSpace(rank) == "" {
		r, err := g.RankForMove(id, newParentID, math.MaxInt)
		if err != nil {
			return err
		}
		rank = r
		t = g.thoughts[id]
	}
	now := g.now()
	if newParentID != t.ParentID {
		op := g.thoughts[t.ParentID].Clone()
		delete(op.Children, key)
		op.LastUpdated = now
		g.thoughts[op.ID] = op

		np := g.thoughts[newParentID].Clone()
		if np.Children == nil {
			np.Children = map[string]string{}
		}
		np.Children[key] = id
		np.LastUpdated = now
		g.thoughts[np.ID] = np
	}
	nt := t.Clone()
	nt.ParentID = newParentID
	nt.Rank = normalizeRank(rank)
	nt.LastUpdated = now
	g.thoughts[id] = nt
	return nil
}

// RankForMove returns a rank placing id at index insertAt among the children
// of parentID, computed as if id were not already among them.
func (g *Graph) RankForMove(id, parentID string, insertAt int) (string, error) {
	all := g.ChildrenOf(parentID)
	sibs := make([]*model.Thought, 0, len(all))
	for _, s := range all {
		if s.ID != id {
			sibs = append(sibs, s)
		}
	}
	if insertAt < 0 {
		insertAt = 0
	}
	if insertAt > len(sibs) {
		insertAt = len(sibs)
	}
	return g.rankAt(parentID, sibs, insertAt, id)
}

func (g *Graph) subtreeIDs(id string) []string {
	out := []string{id}
	for i := 0; i < len(out); i++ {
		t, ok := g.thoughts[out[i]]
		if !ok {
			continue
		}
		kids := make([]string, 0, len(t.Children))
		for _, cid := range t.Children {
			kids = append(kids, cid)
		}
		sort.Strings(kids)
		out = append(out, kids...)
	}
	return out
}

func (g *Graph) addContext(value, id string) {
	l, ok := g.lexemes[value]
	var nl *model.Lexeme
	if ok {
		if l.HasContext(id) {
			return
		}
		nl = l.Clone()
	} else {
		nl = &model.Lexeme{Value: value}
	}
	nl.Contexts = append(nl.Contexts, id)
	sort.Strings(nl.Contexts)
	nl.LastUpdated = g.now()
	g.lexemes[value] = nl
}

func (g *Graph) removeContext(value, id string) {
	l, ok := g.lexemes[value]
	if !ok || !l.HasContext(id) {
		return
	}
	nl := l.Clone()
	kept := nl.Contexts[:0]
	for _, c := range nl.Contexts {
		if c != id {
			kept = append(kept, c)
		}
	}
	nl.Contexts = kept
	if len(nl.Contexts) == 0 {
		delete(g.lexemes, value)
		return
	}
	nl.LastUpdated = g.now()
	g.lexemes[value] = nl
}

// PutThought stores t verbatim (nil deletes). Used when replaying patches
// and loading from persistence, where consistency is the caller's concern.
func (g *Graph) PutThought(id string, t *model.Thought) {
	if t == nil {
		if id != model.RootID {
			delete(g.thoughts, id)
		}
		return
	}
	g.thoughts[id] = t
}

// PutLexeme stores l verbatim (nil deletes).
func (g *Graph) PutLexeme(value string, l *model.Lexeme) {
	if l == nil {
		delete(g.lexemes, value)
		return
	}
	g.lexemes[value] = l
}

// Check verifies the parent/child and lexeme invariants.
func (g *Graph) Check() error {
	var problems []string
	for id, t := range g.thoughts {
		if id != t.ID {
			problems = append(problems, fmt.Sprintf("thought keyed %s has id %s", id, t.ID))
		}
		if id == model.RootID {
			continue
		}
		parent, ok := g.thoughts[t.ParentID]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: parent %s missing", id, t.ParentID))
		} else if parent.Children[model.ChildKey(t.Value, id)] != id {
			problems = append(problems, fmt.Sprintf("%s: parent %s does not point back", id, t.ParentID))
		}
		if l, ok := g.lexemes[t.Value]; !ok || !l.HasContext(id) {
			problems = append(problems, fmt.Sprintf("%s: missing from lexeme %q", id, t.Value))
		}
		for _, cid := range t.Children {
			c, ok := g.thoughts[cid]
			if !ok {
				problems = append(problems, fmt.Sprintf("%s: child %s missing", id, cid))
			} else if c.ParentID != id {
				problems = append(problems, fmt.Sprintf("%s: child %s has parent %s", id, cid, c.ParentID))
			}
		}
	}
	for v, l := range g.lexemes {
		if len(l.Contexts) == 0 {
			problems = append(problems, fmt.Sprintf("lexeme %q is empty", v))
		}
		for _, cid := range l.Contexts {
			c, ok := g.thoughts[cid]
			if !ok || c.Value != v {
				problems = append(problems, fmt.Sprintf("lexeme %q lists stale context %s", v, cid))
			}
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrInvalidGraph, strings.Join(problems, "; "))
}
