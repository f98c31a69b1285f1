package actions

import (
	"fmt"
	"strings"

	"thoughtline/internal/model"
	"thoughtline/internal/state"
	"thoughtline/internal/store"
)

// Reducer is an action that transforms the state directly. A reducer that
// returns an error must leave the state untouched.
type Reducer interface {
	Action
	Reduce(st *state.State) error
}

// CreateThought adds a thought under ParentID ("" for the root). It goes
// right after AfterID when set, first when First is set, else last.
type CreateThought struct {
	ID       string
	ParentID string
	Value    string
	AfterID  string
	First    bool
}

func (CreateThought) Type() string { return TypeCreateThought }

func (a CreateThought) Reduce(st *state.State) error {
	parent := a.ParentID
	if parent == "" {
		parent = model.RootID
	}
	rank := ""
	if a.AfterID != "" || a.First {
		r, err := st.Graph.RankAfterSibling(parent, a.AfterID)
		if err != nil {
			return err
		}
		rank = r
	}
	return st.Graph.Create(model.Thought{ID: a.ID, ParentID: parent, Value: a.Value, Rank: rank})
}

// DeleteThought removes a thought and its subtree. Selection entries that
// pass through removed thoughts are dropped.
type DeleteThought struct {
	ID string
}

func (DeleteThought) Type() string { return TypeDeleteThought }

func (a DeleteThought) Reduce(st *state.State) error {
	removed, err := st.Graph.Delete(a.ID)
	if err != nil {
		return err
	}
	st.Prune(removed)
	return nil
}

type EditThought struct {
	ID    string
	Value string
}

func (EditThought) Type() string { return TypeEditThought }

func (a EditThought) Reduce(st *state.State) error {
	return st.Graph.Rename(a.ID, a.Value)
}

// MoveThought reparents and re-ranks a thought. Placement follows
// CreateThought. Stored paths through the thought are re-derived.
type MoveThought struct {
	ID       string
	ParentID string
	AfterID  string
	First    bool
}

func (MoveThought) Type() string { return TypeMoveThought }

func (a MoveThought) Reduce(st *state.State) error {
	parent := a.ParentID
	if parent == "" {
		parent = model.RootID
	}
	if a.AfterID == a.ID {
		return fmt.Errorf("cannot place %s after itself", a.ID)
	}
	idx := len(st.Graph.ChildrenOf(parent))
	switch {
	case a.First:
		idx = 0
	case a.AfterID != "":
		idx = -1
		pos := 0
		for _, c := range st.Graph.ChildrenOf(parent) {
			if c.ID == a.ID {
				continue
			}
			pos++
			if c.ID == a.AfterID {
				idx = pos
				break
			}
		}
		if idx < 0 {
			return &store.NotFoundError{Kind: "sibling", ID: a.AfterID}
		}
	}
	// Validate before RankForMove may respread siblings.
	if !st.Graph.Exists(a.ID) {
		return &store.NotFoundError{Kind: "thought", ID: a.ID}
	}
	for cur := parent; cur != "" && cur != model.RootID; cur = st.Graph.ParentOf(cur) {
		if cur == a.ID {
			return store.ErrCycle
		}
	}
	rank, err := st.Graph.RankForMove(a.ID, parent, idx)
	if err != nil {
		return err
	}
	if err := st.Graph.Move(a.ID, parent, rank); err != nil {
		return err
	}
	st.Rederive(a.ID)
	return nil
}

// SetCursor moves the cursor. The null Path sends it home.
type SetCursor struct {
	Path model.Path

	raw   []string
	isRaw bool
}

func (SetCursor) Type() string { return TypeSetCursor }

// CursorFromIDs builds a SetCursor from raw ids. Construction errors surface
// when the action is reduced, leaving the cursor untouched.
func CursorFromIDs(ids []string) SetCursor {
	return SetCursor{raw: append([]string(nil), ids...), isRaw: true}
}

func (a SetCursor) Reduce(st *state.State) error {
	p := a.Path
	if a.isRaw {
		np, err := model.NewPath(a.raw...)
		if err != nil {
			return fmt.Errorf("%w: [%s]: %w", ErrInvalidCursorConstruction, strings.Join(a.raw, " "), err)
		}
		p = np
	}
	if err := st.Resolver().Validate(p); err != nil {
		return err
	}
	st.Selection.SetCursor(p)
	return nil
}

// ToggleContextView switches the thought at Path between showing its
// children and showing the other thoughts with the same value.
type ToggleContextView struct {
	Path model.Path
}

func (ToggleContextView) Type() string { return TypeToggleContextView }

func (a ToggleContextView) Reduce(st *state.State) error {
	if a.Path.IsNull() {
		return fmt.Errorf("%w: the root has no context view", ErrInvalidCursorConstruction)
	}
	if err := st.Resolver().Validate(a.Path); err != nil {
		return err
	}
	h := a.Path.Hash()
	if _, ok := st.ContextViews[h]; ok {
		delete(st.ContextViews, h)
	} else {
		st.ContextViews[h] = a.Path
	}
	return nil
}

type SetExpanded struct {
	Path     model.Path
	Expanded bool
}

func (SetExpanded) Type() string { return TypeSetExpanded }

func (a SetExpanded) Reduce(st *state.State) error {
	if a.Path.IsNull() {
		return nil
	}
	if !a.Expanded {
		delete(st.Expanded, a.Path.Hash())
		return nil
	}
	if err := st.Resolver().Validate(a.Path); err != nil {
		return err
	}
	st.Expanded[a.Path.Hash()] = a.Path
	return nil
}

type AddMulticursor struct {
	Path model.Path
}

func (AddMulticursor) Type() string { return TypeAddMulticursor }

func (a AddMulticursor) Reduce(st *state.State) error {
	if err := validMember(st, a.Path); err != nil {
		return err
	}
	st.Selection.Multi().Add(a.Path)
	return nil
}

type RemoveMulticursor struct {
	Path model.Path
}

func (RemoveMulticursor) Type() string { return TypeRemoveMulticursor }

func (a RemoveMulticursor) Reduce(st *state.State) error {
	st.Selection.Multi().Remove(a.Path)
	return nil
}

type ToggleMulticursor struct {
	Path model.Path
}

func (ToggleMulticursor) Type() string { return TypeToggleMulticursor }

func (a ToggleMulticursor) Reduce(st *state.State) error {
	multi := st.Selection.Multi()
	if multi.Contains(a.Path) {
		multi.Remove(a.Path)
		return nil
	}
	if err := validMember(st, a.Path); err != nil {
		return err
	}
	multi.Add(a.Path)
	return nil
}

type ClearMulticursors struct{}

func (ClearMulticursors) Type() string { return TypeClearMulticursors }

func (ClearMulticursors) Reduce(st *state.State) error {
	st.Selection.Multi().Clear()
	return nil
}

func validMember(st *state.State, p model.Path) error {
	if p.IsNull() {
		return fmt.Errorf("%w: the root cannot be selected", ErrInvalidCursorConstruction)
	}
	return st.Resolver().Validate(p)
}
