// Package history records reversible state changes and replays them for
// undo, redo and jump.
package history

import (
	"sort"

	"thoughtline/internal/model"
	"thoughtline/internal/state"
)

type OpKind string

const (
	OpSet    OpKind = "set"
	OpRemove OpKind = "remove"
	OpInsert OpKind = "insert"
)

type TargetKind string

const (
	TargetThought     TargetKind = "thought"
	TargetLexeme      TargetKind = "lexeme"
	TargetCursor      TargetKind = "cursor"
	TargetMulticursor TargetKind = "multicursor"
	TargetContextView TargetKind = "contextView"
)

// Target addresses one slot of the state. Key is a thought id, a lexeme
// value, or a path hash; it is empty for the cursor.
type Target struct {
	Kind TargetKind `json:"kind"`
	Key  string     `json:"key,omitempty"`
}

// Op is one absolute change: after applying it the target holds exactly the
// carried value (or nothing, for remove).
type Op struct {
	Kind    OpKind         `json:"op"`
	Target  Target         `json:"target"`
	Thought *model.Thought `json:"thought,omitempty"`
	Lexeme  *model.Lexeme  `json:"lexeme,omitempty"`
	Path    model.Path     `json:"path"`
}

func (o Op) IsCursor() bool { return o.Target.Kind == TargetCursor }

// IsData reports whether the op touches thought or lexeme data.
func (o Op) IsData() bool {
	return o.Target.Kind == TargetThought || o.Target.Kind == TargetLexeme
}

type Patch []Op

// HasData reports whether any op touches thought or lexeme data.
func (p Patch) HasData() bool {
	for _, op := range p {
		if op.IsData() {
			return true
		}
	}
	return false
}

// CursorOps returns the cursor-shaped ops in order.
func (p Patch) CursorOps() []Op {
	var out []Op
	for _, op := range p {
		if op.IsCursor() {
			out = append(out, op)
		}
	}
	return out
}

// Diff returns the patch that turns from into to. Graph values are compared
// by pointer; they are copy-on-write.
func Diff(from, to *state.State) Patch {
	var out Patch

	ft, tt := from.Graph.Thoughts(), to.Graph.Thoughts()
	for _, id := range unionKeys(ft, tt) {
		a, inFrom := ft[id]
		b, inTo := tt[id]
		switch {
		case inTo && !inFrom:
			out = append(out, Op{Kind: OpInsert, Target: Target{Kind: TargetThought, Key: id}, Thought: b})
		case inFrom && !inTo:
			out = append(out, Op{Kind: OpRemove, Target: Target{Kind: TargetThought, Key: id}})
		case a != b:
			out = append(out, Op{Kind: OpSet, Target: Target{Kind: TargetThought, Key: id}, Thought: b})
		}
	}

	fl, tl := from.Graph.Lexemes(), to.Graph.Lexemes()
	for _, v := range unionKeys(fl, tl) {
		a, inFrom := fl[v]
		b, inTo := tl[v]
		switch {
		case inTo && !inFrom:
			out = append(out, Op{Kind: OpInsert, Target: Target{Kind: TargetLexeme, Key: v}, Lexeme: b})
		case inFrom && !inTo:
			out = append(out, Op{Kind: OpRemove, Target: Target{Kind: TargetLexeme, Key: v}})
		case a != b:
			out = append(out, Op{Kind: OpSet, Target: Target{Kind: TargetLexeme, Key: v}, Lexeme: b})
		}
	}

	if fc, tc := from.Selection.Cursor(), to.Selection.Cursor(); !fc.Equal(tc) {
		out = append(out, Op{Kind: OpSet, Target: Target{Kind: TargetCursor}, Path: tc})
	}

	out = append(out, diffPathSet(TargetMulticursor, pathMap(from.Selection.Multi().Paths()), pathMap(to.Selection.Multi().Paths()))...)
	out = append(out, diffPathSet(TargetContextView, from.ContextViews, to.ContextViews)...)
	return out
}

func diffPathSet(kind TargetKind, from, to map[string]model.Path) Patch {
	var out Patch
	for _, h := range unionKeys(from, to) {
		_, inFrom := from[h]
		p, inTo := to[h]
		switch {
		case inTo && !inFrom:
			out = append(out, Op{Kind: OpInsert, Target: Target{Kind: kind, Key: h}, Path: p})
		case inFrom && !inTo:
			out = append(out, Op{Kind: OpRemove, Target: Target{Kind: kind, Key: h}})
		}
	}
	return out
}

// Apply replays p onto st in order.
func Apply(st *state.State, p Patch) {
	for _, op := range p {
		switch op.Target.Kind {
		case TargetThought:
			if op.Kind == OpRemove {
				st.Graph.PutThought(op.Target.Key, nil)
			} else {
				st.Graph.PutThought(op.Target.Key, op.Thought)
			}
		case TargetLexeme:
			if op.Kind == OpRemove {
				st.Graph.PutLexeme(op.Target.Key, nil)
			} else {
				st.Graph.PutLexeme(op.Target.Key, op.Lexeme)
			}
		case TargetCursor:
			if op.Kind == OpRemove {
				st.Selection.ClearCursor()
			} else {
				st.Selection.SetCursor(op.Path)
			}
		case TargetMulticursor:
			multi := st.Selection.Multi()
			if cur, ok := multi.Get(op.Target.Key); ok {
				multi.Remove(cur)
			}
			if op.Kind != OpRemove {
				multi.Add(op.Path)
			}
		case TargetContextView:
			if op.Kind == OpRemove {
				delete(st.ContextViews, op.Target.Key)
			} else if !op.Path.IsNull() {
				st.ContextViews[op.Target.Key] = op.Path
			}
		}
	}
}

// Compose returns one patch equivalent to applying first, then second. Ops
// are absolute, so the last op per target wins.
func Compose(first, second Patch) Patch {
	last := map[Target]int{}
	all := make(Patch, 0, len(first)+len(second))
	all = append(all, first...)
	all = append(all, second...)
	for i, op := range all {
		last[op.Target] = i
	}
	out := make(Patch, 0, len(last))
	for i, op := range all {
		if last[op.Target] == i {
			out = append(out, op)
		}
	}
	return out
}

func pathMap(ps []model.Path) map[string]model.Path {
	out := make(map[string]model.Path, len(ps))
	for _, p := range ps {
		out[p.Hash()] = p
	}
	return out
}

func unionKeys[V any](a, b map[string]V) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
