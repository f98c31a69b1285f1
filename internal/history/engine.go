package history

import (
	"time"

	"thoughtline/internal/model"
	"thoughtline/internal/state"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultMaxEntries = 500

// Entry is one undo (or redo) step. Patch restores the state from before the
// step when applied.
type Entry struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Navigation bool      `json:"navigation"`
	Patch      Patch     `json:"patch"`
	At         time.Time `json:"at"`
}

// RecordMeta describes the action that produced a recorded patch.
type RecordMeta struct {
	Type       string
	Undoable   bool
	Navigation bool
	MergeUndo  bool
}

type jumpCache struct {
	valid bool
	rev   int
	steps int
	path  model.Path
	index int
}

// Engine owns the undo and redo stacks. It is not safe for concurrent use;
// the dispatcher is its only caller.
type Engine struct {
	undo []Entry
	redo []Entry

	maxEntries int

	depth int
	txn   *Entry
	merge bool

	// editRev changes whenever the set of edit points changes.
	editRev int
	jump    jumpCache

	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Engine)

func WithMaxEntries(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxEntries = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		maxEntries: DefaultMaxEntries,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) CanUndo() bool { return len(e.undo) > 0 }
func (e *Engine) CanRedo() bool { return len(e.redo) > 0 }

// UndoEntries returns the undo stack, oldest first.
func (e *Engine) UndoEntries() []Entry { return append([]Entry(nil), e.undo...) }

// RedoEntries returns the redo stack, oldest first.
func (e *Engine) RedoEntries() []Entry { return append([]Entry(nil), e.redo...) }

func (e *Engine) InTransaction() bool { return e.depth > 0 }

// Begin opens a transaction. Everything recorded until the matching End is
// stored as a single entry. Transactions nest.
func (e *Engine) Begin() {
	if e.depth == 0 {
		e.txn = nil
		e.merge = false
	}
	e.depth++
}

// ForceMerge makes the open transaction merge into the previous entry
// when it closes, as chained gestures do.
func (e *Engine) ForceMerge() {
	if e.depth > 0 {
		e.merge = true
	}
}

// End closes a transaction opened with Begin.
func (e *Engine) End() {
	if e.depth == 0 {
		e.logger.Warn("history: End without Begin")
		return
	}
	e.depth--
	if e.depth > 0 {
		return
	}
	txn, merge := e.txn, e.merge
	e.txn, e.merge = nil, false
	if txn == nil || len(txn.Patch) == 0 {
		return
	}
	e.push(*txn, merge)
}

// Record stores inverse, the patch that undoes one applied action.
func (e *Engine) Record(inverse Patch, meta RecordMeta) {
	if !meta.Undoable || len(inverse) == 0 {
		return
	}
	entry := Entry{
		ID:         uuid.NewString(),
		Type:       meta.Type,
		Navigation: meta.Navigation,
		Patch:      inverse,
		At:         e.now(),
	}
	if e.depth > 0 {
		if e.txn == nil {
			e.txn = &entry
		} else {
			e.txn.Patch = Compose(inverse, e.txn.Patch)
			e.txn.Navigation = e.txn.Navigation && meta.Navigation
		}
		e.merge = e.merge || meta.MergeUndo
		return
	}
	e.push(entry, meta.MergeUndo)
}

func (e *Engine) push(entry Entry, merge bool) {
	top := e.top()
	switch {
	case top != nil && (merge || (top.Navigation && entry.Navigation)):
		top.Patch = Compose(entry.Patch, top.Patch)
		top.Navigation = top.Navigation && entry.Navigation
		top.At = entry.At
	default:
		e.undo = append(e.undo, entry)
		if over := len(e.undo) - e.maxEntries; over > 0 {
			e.undo = append([]Entry(nil), e.undo[over:]...)
		}
	}
	e.redo = nil
	if entry.Patch.HasData() {
		e.touch()
	}
	e.logger.Debug("history: recorded",
		zap.String("type", entry.Type),
		zap.Bool("navigation", entry.Navigation),
		zap.Int("ops", len(entry.Patch)),
		zap.Int("undo", len(e.undo)))
}

func (e *Engine) top() *Entry {
	if len(e.undo) == 0 {
		return nil
	}
	return &e.undo[len(e.undo)-1]
}

func (e *Engine) touch() {
	e.editRev++
	e.jump = jumpCache{}
}

// Undo reverts the last edit together with the navigation runs on either
// side of it. It reports whether anything changed.
func (e *Engine) Undo(st *state.State) bool {
	if len(e.undo) == 0 {
		return false
	}
	before := st.Snapshot()
	entry := e.pop(&e.undo)
	Apply(st, entry.Patch)
	if entry.Navigation && len(e.undo) > 0 {
		entry = e.pop(&e.undo)
		Apply(st, entry.Patch)
	}
	if !entry.Navigation && len(e.undo) > 0 && e.top().Navigation {
		Apply(st, e.pop(&e.undo).Patch)
	}
	e.redo = append(e.redo, Entry{
		ID:    uuid.NewString(),
		Type:  entry.Type,
		Patch: Diff(st, before),
		At:    e.now(),
	})
	e.touch()
	return true
}

// Redo re-applies the most recently undone step.
func (e *Engine) Redo(st *state.State) bool {
	if len(e.redo) == 0 {
		return false
	}
	before := st.Snapshot()
	entry := e.pop(&e.redo)
	Apply(st, entry.Patch)
	e.undo = append(e.undo, Entry{
		ID:    uuid.NewString(),
		Type:  entry.Type,
		Patch: Diff(st, before),
		At:    e.now(),
	})
	e.touch()
	return true
}

func (e *Engine) pop(stack *[]Entry) Entry {
	s := *stack
	entry := s[len(s)-1]
	*stack = s[:len(s)-1]
	return entry
}

// Stacks is the serializable form of the engine.
type Stacks struct {
	Undo    []Entry `json:"undo"`
	Redo    []Entry `json:"redo"`
	EditRev int     `json:"editRev"`
}

func (e *Engine) Snapshot() Stacks {
	return Stacks{Undo: e.UndoEntries(), Redo: e.RedoEntries(), EditRev: e.editRev}
}

// Restore replaces both stacks. Oldest undo entries beyond the limit drop.
func (e *Engine) Restore(s Stacks) {
	e.undo = append([]Entry(nil), s.Undo...)
	if over := len(e.undo) - e.maxEntries; over > 0 {
		e.undo = e.undo[over:]
	}
	e.redo = append([]Entry(nil), s.Redo...)
	e.editRev = s.EditRev
	e.jump = jumpCache{}
	e.depth, e.txn, e.merge = 0, nil, false
}
