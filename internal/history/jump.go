package history

import (
	"thoughtline/internal/model"
	"thoughtline/internal/state"
)

// Jump finds the cursor at the steps-th most recent edit without undoing
// anything. It walks the undo stack from the top, replaying only cursor ops.
// An entry that changes thought data is an edit point when the cursor
// accumulated so far differs from the current cursor and still resolves.
//
// It returns the cursor and the number of entries walked, or the current
// cursor and 0 when no such point exists. Results are cached until the next
// edit.
func (e *Engine) Jump(st *state.State, steps int) (model.Path, int) {
	if steps < 1 {
		steps = 1
	}
	if e.jump.valid && e.jump.rev == e.editRev && e.jump.steps == steps {
		return e.jump.path, e.jump.index
	}

	r := st.Resolver()
	current := st.Selection.Cursor()
	acc := current
	found := 0
	for i := len(e.undo) - 1; i >= 0; i-- {
		entry := e.undo[i]
		if entry.Patch.HasData() && !acc.Equal(current) && !acc.IsNull() && !r.Resolve(acc).IsNull() {
			found++
			if found == steps {
				p := r.Resolve(acc)
				walked := len(e.undo) - i
				e.jump = jumpCache{valid: true, rev: e.editRev, steps: steps, path: p, index: walked}
				return p, walked
			}
		}
		for _, op := range entry.Patch.CursorOps() {
			if op.Kind == OpRemove {
				acc = model.Path{}
			} else {
				acc = op.Path
			}
		}
	}
	return current, 0
}
