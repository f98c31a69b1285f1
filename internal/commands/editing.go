package commands

import (
	"fmt"

	"thoughtline/internal/actions"
	"thoughtline/internal/dispatch"
	"thoughtline/internal/model"
	"thoughtline/internal/selection"
	"thoughtline/internal/state"
)

// pathOf returns the path of id shown under parent, falling back to its
// simple path.
func pathOf(st *state.State, parent model.Path, id string) model.Path {
	r := st.Resolver()
	if p, err := parent.Append(id); err == nil && r.Validate(p) == nil {
		return p
	}
	return r.ThoughtToPath(id)
}

// siblings returns the ids under the real parent of id and the index of id.
func siblings(st *state.State, id string) (string, []string, int) {
	parent := st.Graph.ParentOf(id)
	kids := st.Graph.ChildrenOf(parent)
	ids := make([]string, len(kids))
	at := -1
	for i, k := range kids {
		ids[i] = k.ID
		if k.ID == id {
			at = i
		}
	}
	return parent, ids, at
}

func hasPrevSibling(st *state.State) bool {
	c := st.Cursor()
	if c.IsNull() {
		return false
	}
	_, _, at := siblings(st, c.Head())
	return at > 0
}

func hasNextSibling(st *state.State) bool {
	c := st.Cursor()
	if c.IsNull() {
		return false
	}
	_, ids, at := siblings(st, c.Head())
	return at >= 0 && at < len(ids)-1
}

func hasParent(st *state.State) bool {
	c := st.Cursor()
	return !c.IsNull() && st.Graph.ParentOf(c.Head()) != model.RootID
}

func newThoughtID(st *state.State) (string, error) {
	id, err := st.Graph.NewThoughtID()
	if err != nil {
		return "", fmt.Errorf("new thought id: %w", err)
	}
	return id, nil
}

func editing() []*dispatch.Command {
	return []*dispatch.Command{
		{
			ID:          "newThought",
			Description: "Add a thought after the cursor (or at the end of the outline)",
			Exec: func(ctx *dispatch.Context) error {
				st := ctx.State()
				id, err := newThoughtID(st)
				if err != nil {
					return err
				}
				c := st.Cursor()
				create := actions.CreateThought{ID: id, Value: ctx.Event.Text}
				parentPath := model.Path{}
				if !c.IsNull() {
					create.ParentID = st.Graph.ParentOf(c.Head())
					create.AfterID = c.Head()
					parentPath = c.Parent()
				}
				ctx.Dispatch(create)
				if st.Graph.Exists(id) {
					ctx.Dispatch(actions.SetCursor{Path: pathOf(st, parentPath, id)})
				}
				return nil
			},
		},
		{
			ID:          "newSubthought",
			Description: "Add a thought as the last child of the cursor",
			CanExecute:  hasCursor,
			Exec: func(ctx *dispatch.Context) error {
				st := ctx.State()
				id, err := newThoughtID(st)
				if err != nil {
					return err
				}
				c := st.Cursor()
				ctx.Dispatch(actions.CreateThought{ID: id, ParentID: c.Head(), Value: ctx.Event.Text})
				if st.Graph.Exists(id) {
					ctx.Dispatch(actions.SetCursor{Path: pathOf(st, c, id)})
				}
				return nil
			},
		},
		{
			ID:          "editThought",
			Description: "Replace the text of the cursor thought",
			CanExecute:  hasCursor,
			Multicursor: &dispatch.Policy{Filter: selection.FilterAll},
			Exec: func(ctx *dispatch.Context) error {
				ctx.Dispatch(actions.EditThought{ID: ctx.State().Cursor().Head(), Value: ctx.Event.Text})
				return nil
			},
		},
		{
			ID:          "deleteThought",
			Description: "Delete the cursor thought and its subthoughts",
			CanExecute:  hasCursor,
			Multicursor: &dispatch.Policy{Filter: selection.FilterPreferAncestor},
			Exec: func(ctx *dispatch.Context) error {
				st := ctx.State()
				r := st.Resolver()
				c := st.Cursor()
				next := r.PrevSibling(c)
				if next.IsNull() {
					next = r.NextSibling(c)
				}
				if next.IsNull() {
					next = c.Parent()
				}
				ctx.Dispatch(actions.DeleteThought{ID: c.Head()})
				ctx.Dispatch(actions.SetCursor{Path: st.Resolver().Resolve(next)})
				return nil
			},
		},
		{
			ID:          "moveThoughtUp",
			Description: "Swap the cursor thought with its previous sibling",
			CanExecute:  hasPrevSibling,
			Multicursor: &dispatch.Policy{Filter: selection.FilterFirstSibling},
			Exec: func(ctx *dispatch.Context) error {
				st := ctx.State()
				id := st.Cursor().Head()
				parent, ids, at := siblings(st, id)
				if at <= 0 {
					return nil
				}
				mv := actions.MoveThought{ID: id, ParentID: parent}
				if at == 1 {
					mv.First = true
				} else {
					mv.AfterID = ids[at-2]
				}
				ctx.Dispatch(mv)
				return nil
			},
		},
		{
			ID:          "moveThoughtDown",
			Description: "Swap the cursor thought with its next sibling",
			CanExecute:  hasNextSibling,
			Multicursor: &dispatch.Policy{Filter: selection.FilterLastSibling, Reverse: true},
			Exec: func(ctx *dispatch.Context) error {
				st := ctx.State()
				id := st.Cursor().Head()
				parent, ids, at := siblings(st, id)
				if at < 0 || at >= len(ids)-1 {
					return nil
				}
				ctx.Dispatch(actions.MoveThought{ID: id, ParentID: parent, AfterID: ids[at+1]})
				return nil
			},
		},
		{
			ID:          "indent",
			Description: "Move the cursor thought into its previous sibling",
			CanExecute:  hasPrevSibling,
			Multicursor: &dispatch.Policy{Filter: selection.FilterPreferAncestor},
			Exec: func(ctx *dispatch.Context) error {
				st := ctx.State()
				id := st.Cursor().Head()
				_, ids, at := siblings(st, id)
				if at <= 0 {
					return nil
				}
				ctx.Dispatch(actions.MoveThought{ID: id, ParentID: ids[at-1]})
				return nil
			},
		},
		{
			ID:          "outdent",
			Description: "Move the cursor thought after its parent",
			CanExecute:  hasParent,
			Multicursor: &dispatch.Policy{Filter: selection.FilterPreferAncestor, Reverse: true},
			Exec: func(ctx *dispatch.Context) error {
				st := ctx.State()
				id := st.Cursor().Head()
				parent := st.Graph.ParentOf(id)
				if parent == model.RootID || parent == "" {
					return nil
				}
				ctx.Dispatch(actions.MoveThought{ID: id, ParentID: st.Graph.ParentOf(parent), AfterID: parent})
				return nil
			},
		},
		{
			ID:          "categorize",
			Description: "Wrap the cursor thought (or every selected thought) in a new parent",
			CanExecute:  hasCursor,
			Multicursor: &dispatch.Policy{
				Filter:           selection.FilterPreferAncestor,
				ExecMulticursor:  categorize,
				PreventSetCursor: true,
				ClearMulticursor: true,
			},
			Exec: func(ctx *dispatch.Context) error {
				return categorize(ctx, []model.Path{ctx.State().Cursor()})
			},
		},
	}
}

// categorize creates a new thought where the first of paths sits and moves
// every path into it, in order. The cursor ends on the new thought.
func categorize(ctx *dispatch.Context, paths []model.Path) error {
	if len(paths) == 0 {
		return nil
	}
	st := ctx.State()
	first := paths[0]
	firstID := first.Head()
	if !st.Graph.Exists(firstID) {
		return nil
	}
	id, err := newThoughtID(st)
	if err != nil {
		return err
	}
	parent := st.Graph.ParentOf(firstID)
	ctx.Dispatch(actions.CreateThought{ID: id, ParentID: parent, Value: ctx.Event.Text, AfterID: firstID})
	if !st.Graph.Exists(id) {
		return fmt.Errorf("categorize: could not create %s", id)
	}
	for _, p := range paths {
		if st.Graph.Exists(p.Head()) {
			ctx.Dispatch(actions.MoveThought{ID: p.Head(), ParentID: id})
		}
	}
	ctx.Dispatch(actions.SetCursor{Path: st.Resolver().ThoughtToPath(id)})
	return nil
}

func historyCommands() []*dispatch.Command {
	return []*dispatch.Command{
		{
			ID:          "undo",
			Description: "Undo the last edit and the navigation around it",
			Exec: func(ctx *dispatch.Context) error {
				ctx.Dispatch(actions.Undo{})
				return nil
			},
		},
		{
			ID:          "redo",
			Description: "Redo the last undone step",
			Exec: func(ctx *dispatch.Context) error {
				ctx.Dispatch(actions.Redo{})
				return nil
			},
		},
		{
			ID:          "jump",
			Description: "Move the cursor back to the most recent edit (or the Nth with a count)",
			Exec: func(ctx *dispatch.Context) error {
				steps := ctx.Event.Count
				if steps < 1 {
					steps = 1
				}
				ctx.Dispatch(actions.Jump{Steps: steps})
				return nil
			},
		},
	}
}
