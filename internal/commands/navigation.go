package commands

import (
	"thoughtline/internal/actions"
	"thoughtline/internal/dispatch"
	"thoughtline/internal/model"
	"thoughtline/internal/state"
)

func hasCursor(st *state.State) bool { return !st.Cursor().IsNull() }

// moveTo builds a navigation command that sets the cursor to next(cursor)
// when that is not the null Path.
func moveTo(id, desc string, allowHome bool, next func(st *state.State) model.Path) *dispatch.Command {
	return &dispatch.Command{
		ID:          id,
		Description: desc,
		Exec: func(ctx *dispatch.Context) error {
			st := ctx.State()
			p := next(st)
			if p.IsNull() && !allowHome {
				return nil
			}
			if p.Equal(st.Cursor()) {
				return nil
			}
			ctx.Dispatch(actions.SetCursor{Path: p})
			return nil
		},
	}
}

func navigation() []*dispatch.Command {
	cursorBack := moveTo("cursorBack", "Move the cursor to the parent thought", true, func(st *state.State) model.Path {
		return st.Cursor().Parent()
	})
	cursorBack.CanExecute = hasCursor

	return []*dispatch.Command{
		moveTo("cursorDown", "Move the cursor to the next thought in document order", false, func(st *state.State) model.Path {
			return st.Resolver().Next(st.Cursor())
		}),
		moveTo("cursorUp", "Move the cursor to the previous thought in document order", false, func(st *state.State) model.Path {
			return st.Resolver().Prev(st.Cursor())
		}),
		moveTo("cursorNext", "Move the cursor to the next sibling", false, func(st *state.State) model.Path {
			return st.Resolver().NextSibling(st.Cursor())
		}),
		moveTo("cursorPrev", "Move the cursor to the previous sibling", false, func(st *state.State) model.Path {
			return st.Resolver().PrevSibling(st.Cursor())
		}),
		cursorBack,
		moveTo("cursorForward", "Move the cursor to the first child", false, func(st *state.State) model.Path {
			kids := st.Resolver().Children(st.Cursor())
			if len(kids) == 0 {
				return model.Path{}
			}
			return kids[0]
		}),
		{
			ID:          "home",
			Description: "Clear the cursor",
			Exec: func(ctx *dispatch.Context) error {
				ctx.Dispatch(actions.SetCursor{})
				return nil
			},
		},
		{
			ID:          "toggleContextView",
			Description: "Show the other contexts of the cursor thought instead of its children",
			CanExecute:  hasCursor,
			Multicursor: &dispatch.Policy{Disallow: true},
			Exec: func(ctx *dispatch.Context) error {
				ctx.Dispatch(actions.ToggleContextView{Path: ctx.State().Cursor()})
				return nil
			},
		},
		{
			ID:          "toggleMulticursor",
			Description: "Add or remove the cursor thought from the selection",
			CanExecute:  hasCursor,
			Exec: func(ctx *dispatch.Context) error {
				ctx.Dispatch(actions.ToggleMulticursor{Path: ctx.State().Cursor()})
				return nil
			},
		},
		{
			ID:          "clearMulticursor",
			Description: "Clear the selection",
			Exec: func(ctx *dispatch.Context) error {
				ctx.Dispatch(actions.ClearMulticursors{})
				return nil
			},
		},
		{
			ID:          "selectSiblings",
			Description: "Select the cursor thought and all of its siblings",
			CanExecute:  hasCursor,
			Exec: func(ctx *dispatch.Context) error {
				st := ctx.State()
				for _, p := range st.Resolver().Siblings(st.Cursor()) {
					if !st.Selection.Multi().Contains(p) {
						ctx.Dispatch(actions.AddMulticursor{Path: p})
					}
				}
				return nil
			},
		},
	}
}
