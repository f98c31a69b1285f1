// Package actions defines the primitive state transitions and their
// registered undo metadata.
package actions

import (
	"errors"
)

// Action is anything that can be dispatched.
type Action interface {
	Type() string
}

// Meta is the undo metadata every dispatched reducer type must register.
type Meta struct {
	Undoable   bool
	Navigation bool
}

const (
	TypeCreateThought     = "createThought"
	TypeDeleteThought     = "deleteThought"
	TypeEditThought       = "editThought"
	TypeMoveThought       = "moveThought"
	TypeSetCursor         = "setCursor"
	TypeToggleContextView = "toggleContextView"
	TypeSetExpanded       = "setExpanded"
	TypeAddMulticursor    = "addMulticursor"
	TypeRemoveMulticursor = "removeMulticursor"
	TypeToggleMulticursor = "toggleMulticursor"
	TypeClearMulticursors = "clearMulticursors"

	TypeRun  = "run"
	TypeUndo = "undo"
	TypeRedo = "redo"
	TypeJump = "jump"
)

// Registry maps reducer types to their metadata. Types routed by the
// dispatcher itself (run, undo, redo, jump) are not listed.
var Registry = map[string]Meta{
	TypeCreateThought:     {Undoable: true},
	TypeDeleteThought:     {Undoable: true},
	TypeEditThought:       {Undoable: true},
	TypeMoveThought:       {Undoable: true},
	TypeSetCursor:         {Undoable: true, Navigation: true},
	TypeToggleContextView: {Undoable: true, Navigation: true},
	TypeSetExpanded:       {},

	// Selection changes are undo steps of their own, not navigation.
	TypeAddMulticursor:    {Undoable: true},
	TypeRemoveMulticursor: {Undoable: true},
	TypeToggleMulticursor: {Undoable: true},
	TypeClearMulticursors: {Undoable: true},
}

// ErrInvalidCursorConstruction is returned when a cursor is built from an
// empty id sequence or one containing the root sentinel.
var ErrInvalidCursorConstruction = errors.New("invalid cursor construction")

// Event carries the input that triggered a command.
type Event struct {
	Text  string `json:"text,omitempty"`
	Count int    `json:"count,omitempty"`
}

// Run executes a registered command.
type Run struct {
	Command string
	Event   Event
	// MergeUndo folds the command's undo entry into the previous one.
	MergeUndo bool
}

func (Run) Type() string { return TypeRun }

type Undo struct{}

func (Undo) Type() string { return TypeUndo }

type Redo struct{}

func (Redo) Type() string { return TypeRedo }

// Jump moves the cursor to the Steps-th most recent edit.
type Jump struct {
	Steps int
}

func (Jump) Type() string { return TypeJump }
