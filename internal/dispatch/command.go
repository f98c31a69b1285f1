package dispatch

import (
	"thoughtline/internal/actions"
	"thoughtline/internal/model"
	"thoughtline/internal/selection"
	"thoughtline/internal/state"
)

// Command is a user command as supplied by the input layer.
type Command struct {
	ID          string
	Description string

	// Exec runs the command once against the current cursor.
	Exec func(ctx *Context) error

	// CanExecute gates execution. Nil means always.
	CanExecute func(st *state.State) bool

	// Multicursor enables batch execution over the multicursor set. Nil
	// runs the command once against the cursor even when thoughts are
	// selected.
	Multicursor *Policy
}

// Policy controls how a command runs over the multicursor set.
type Policy struct {
	// Disallow refuses to run while thoughts are selected.
	Disallow bool
	Filter   selection.FilterMode
	Reverse  bool

	// ExecMulticursor, when set, receives the whole filtered list once
	// instead of the command running per path.
	ExecMulticursor func(ctx *Context, paths []model.Path) error

	PreventSetCursor bool
	ClearMulticursor bool
	OnComplete       func(paths []model.Path)
}

// Registry looks commands up by id.
type Registry interface {
	Lookup(id string) (*Command, bool)
}

// Context is handed to a running command.
type Context struct {
	d     *Dispatcher
	Event actions.Event
	Meta  map[string]string
}

// Dispatch runs more actions through the same funnel.
func (c *Context) Dispatch(as ...actions.Action) { c.d.Dispatch(as...) }

// State returns the live state. Commands read it; they change it only
// through Dispatch.
func (c *Context) State() *state.State { return c.d.st }
