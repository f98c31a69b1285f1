package dispatch

import (
	"errors"
	"strings"
	"testing"
	"time"

	"thoughtline/internal/actions"
	"thoughtline/internal/history"
	"thoughtline/internal/model"
	"thoughtline/internal/notify"
	"thoughtline/internal/selection"
	"thoughtline/internal/state"
	"thoughtline/internal/store"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testRegistry map[string]*Command

func (r testRegistry) Lookup(id string) (*Command, bool) {
	c, ok := r[id]
	return c, ok
}

type harness struct {
	d      *Dispatcher
	st     *state.State
	alerts *notify.Alerts
	logs   *observer.ObservedLogs
}

func newHarness(t *testing.T, reg testRegistry, ids ...string) *harness {
	t.Helper()
	g := store.NewGraph()
	for _, id := range ids {
		if err := g.Create(model.Thought{ID: id, Value: id}); err != nil {
			t.Fatal(err)
		}
	}
	st := state.New(g)
	core, logs := observer.New(zapcore.DebugLevel)
	alerts := notify.NewAlerts(0)
	d := New(st, history.NewEngine(), reg, WithLogger(zap.New(core)), WithNotifier(alerts))
	return &harness{d: d, st: st, alerts: alerts, logs: logs}
}

// deleteCmd deletes the cursor thought.
func deleteCmd(pol *Policy) *Command {
	return &Command{
		ID:          "delete",
		CanExecute:  func(st *state.State) bool { return !st.Cursor().IsNull() },
		Multicursor: pol,
		Exec: func(ctx *Context) error {
			ctx.Dispatch(actions.DeleteThought{ID: ctx.State().Cursor().Head()})
			return nil
		},
	}
}

func TestDispatch_InvalidCursorConstructionIsDropped(t *testing.T) {
	h := newHarness(t, nil, "a")
	h.d.Dispatch(actions.SetCursor{Path: model.MustPath("a")})
	h.d.Dispatch(actions.CursorFromIDs(nil))
	h.d.Dispatch(actions.CursorFromIDs([]string{model.RootID}))
	if got := h.st.Cursor(); !got.Equal(model.MustPath("a")) {
		t.Fatalf("cursor = %s, want /a", got)
	}
	if h.logs.FilterMessage("dispatch: dropped invalid cursor").Len() != 2 {
		t.Fatalf("expected two warnings, got %v", h.logs.All())
	}
}

func TestDispatch_UnresolvableCursorIsSkipped(t *testing.T) {
	h := newHarness(t, nil, "a")
	h.d.Dispatch(actions.SetCursor{Path: model.MustPath("missing")})
	if !h.st.Cursor().IsNull() {
		t.Fatalf("cursor should be unchanged")
	}
	if h.d.History().CanUndo() {
		t.Fatalf("failed action must not be recorded")
	}
}

type unregistered struct{}

func (unregistered) Type() string { return "unregistered" }
func (unregistered) Reduce(st *state.State) error { st.Selection.ClearCursor(); return nil }

func TestDispatch_UnregisteredMetadataPanicsInDevelopment(t *testing.T) {
	h := newHarness(t, nil)
	h.d.logger = zap.New(zapcore.NewNopCore(), zap.Development())
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic in development")
		}
	}()
	h.d.Dispatch(unregistered{})
}

func TestDispatch_UnregisteredMetadataLogsInProduction(t *testing.T) {
	h := newHarness(t, nil, "a")
	h.d.Dispatch(actions.SetCursor{Path: model.MustPath("a")})
	h.d.Dispatch(unregistered{})
	if !h.st.Cursor().IsNull() {
		t.Fatalf("action should still apply")
	}
	if h.logs.FilterMessage("dispatch: missing undo metadata").Len() == 0 {
		t.Fatalf("expected DPanic log entry")
	}
}

func TestRun_UnknownCommandNotifies(t *testing.T) {
	h := newHarness(t, testRegistry{})
	h.d.Dispatch(actions.Run{Command: "nope"})
	al, ok := h.alerts.Current()
	if !ok || !strings.Contains(al.Message, "nope") || al.Kind != notify.KindError {
		t.Fatalf("alert = %+v %v", al, ok)
	}
}

func TestRun_DisallowedWithSelectionAbortsAndNotifies(t *testing.T) {
	ran := false
	reg := testRegistry{"ctx": {
		ID:          "ctx",
		Multicursor: &Policy{Disallow: true},
		Exec:        func(*Context) error { ran = true; return nil },
	}}
	h := newHarness(t, reg, "a", "b")
	h.d.Dispatch(actions.AddMulticursor{Path: model.MustPath("a")})
	h.d.Dispatch(actions.Run{Command: "ctx"})
	if ran {
		t.Fatalf("command ran despite disallow")
	}
	al, _ := h.alerts.Current()
	if al.Message != "cannot execute this command with multiple thoughts" {
		t.Fatalf("alert = %q", al.Message)
	}

	h.d.Dispatch(actions.ClearMulticursors{})
	h.d.Dispatch(actions.Run{Command: "ctx"})
	if !ran {
		t.Fatalf("command should run once the selection is empty")
	}
}

func TestRun_PreflightFailureMutatesNothing(t *testing.T) {
	reg := testRegistry{"delete": deleteCmd(&Policy{})}
	reg["delete"].CanExecute = func(st *state.State) bool { return st.Cursor().Head() != "b" }
	h := newHarness(t, reg, "a", "b", "c")
	for _, id := range []string{"a", "b", "c"} {
		h.d.Dispatch(actions.AddMulticursor{Path: model.MustPath(id)})
	}
	undoDepth := len(h.d.History().UndoEntries())

	h.d.Dispatch(actions.Run{Command: "delete"})
	if h.st.Graph.Len() != 3 || h.st.Selection.Multi().Len() != 3 {
		t.Fatalf("batch should not have run: len=%d multi=%d", h.st.Graph.Len(), h.st.Selection.Multi().Len())
	}
	if n := len(h.d.History().UndoEntries()); n != undoDepth {
		t.Fatalf("history changed: %d -> %d", undoDepth, n)
	}
}

func TestRun_BatchRunsInDocumentOrderAndRestoresSelection(t *testing.T) {
	var seen []string
	reg := testRegistry{"visit": {
		ID:          "visit",
		Multicursor: &Policy{Filter: selection.FilterAll},
		Exec: func(ctx *Context) error {
			seen = append(seen, ctx.State().Cursor().Head())
			return nil
		},
	}}
	h := newHarness(t, reg, "a", "b", "c")
	h.d.Dispatch(actions.SetCursor{Path: model.MustPath("b")})
	for _, id := range []string{"c", "a"} {
		h.d.Dispatch(actions.AddMulticursor{Path: model.MustPath(id)})
	}
	h.d.Dispatch(actions.Run{Command: "visit"})

	if strings.Join(seen, ",") != "a,c" {
		t.Fatalf("visited %v, want document order a,c", seen)
	}
	if !h.st.Cursor().Equal(model.MustPath("b")) {
		t.Fatalf("cursor not restored: %s", h.st.Cursor())
	}
	if h.st.Selection.Multi().Len() != 2 {
		t.Fatalf("selection not restored: %v", h.st.Selection.Multi().Paths())
	}
}

func TestRun_ReverseAndOnComplete(t *testing.T) {
	var seen []string
	var completed []model.Path
	reg := testRegistry{"visit": {
		ID: "visit",
		Multicursor: &Policy{
			Reverse:          true,
			ClearMulticursor: true,
			OnComplete:       func(ps []model.Path) { completed = ps },
		},
		Exec: func(ctx *Context) error {
			seen = append(seen, ctx.State().Cursor().Head())
			return nil
		},
	}}
	h := newHarness(t, reg, "a", "b")
	h.d.Dispatch(actions.AddMulticursor{Path: model.MustPath("a")})
	h.d.Dispatch(actions.AddMulticursor{Path: model.MustPath("b")})
	h.d.Dispatch(actions.Run{Command: "visit"})
	if strings.Join(seen, ",") != "b,a" {
		t.Fatalf("visited %v", seen)
	}
	if len(completed) != 2 {
		t.Fatalf("OnComplete got %v", completed)
	}
	if h.st.Selection.Multi().Len() != 0 {
		t.Fatalf("ClearMulticursor should leave the set empty")
	}
}

func TestRun_BatchDeleteUndoesInOneStep(t *testing.T) {
	reg := testRegistry{"delete": deleteCmd(&Policy{Filter: selection.FilterPreferAncestor})}
	h := newHarness(t, reg, "a", "b", "c", "d")
	h.d.Dispatch(actions.SetCursor{Path: model.MustPath("d")})
	for _, id := range []string{"a", "b", "c"} {
		h.d.Dispatch(actions.AddMulticursor{Path: model.MustPath(id)})
	}
	h.d.Dispatch(actions.Run{Command: "delete"})
	if h.st.Graph.Len() != 1 {
		t.Fatalf("expected only d left, got %d thoughts", h.st.Graph.Len())
	}

	h.d.Dispatch(actions.Undo{})
	if h.st.Graph.Len() != 4 {
		t.Fatalf("undo restored %d thoughts, want 4", h.st.Graph.Len())
	}
	if h.st.Selection.Multi().Len() != 3 || !h.st.Cursor().Equal(model.MustPath("d")) {
		t.Fatalf("selection not restored: cursor=%s multi=%v", h.st.Cursor(), h.st.Selection.Multi().Paths())
	}
	if err := h.st.Graph.Check(); err != nil {
		t.Fatal(err)
	}
}

func TestDispatch_MulticursorCountAlert(t *testing.T) {
	h := newHarness(t, nil, "a", "b")
	h.d.Dispatch(actions.AddMulticursor{Path: model.MustPath("a")}, actions.AddMulticursor{Path: model.MustPath("b")})
	al, ok := h.alerts.Current()
	if !ok || al.Message != "2 thoughts selected" {
		t.Fatalf("alert = %+v %v", al, ok)
	}
}

func TestRun_CommandErrorIsNotified(t *testing.T) {
	reg := testRegistry{"fail": {ID: "fail", Exec: func(*Context) error { return errors.New("kaput") }}}
	h := newHarness(t, reg)
	h.d.Dispatch(actions.Run{Command: "fail"})
	if al, ok := h.alerts.Current(); !ok || al.Message != "kaput" {
		t.Fatalf("alert = %+v %v", al, ok)
	}
}

type fakeTimer struct {
	f       func()
	stopped bool
}

func (f *fakeTimer) Stop() bool {
	was := !f.stopped
	f.stopped = true
	return was
}

func TestHoverExpander_SingleDebounce(t *testing.T) {
	h := newHarness(t, nil, "a", "b")
	q := &Queue{}
	var timers []*fakeTimer
	after := func(d time.Duration, f func()) Timer {
		ft := &fakeTimer{f: f}
		timers = append(timers, ft)
		return ft
	}
	hx := NewHoverExpander(q, 400*time.Millisecond, after)

	hx.Hover(model.MustPath("a"))
	hx.Hover(model.MustPath("a"))
	if len(timers) != 1 {
		t.Fatalf("re-hovering the same target should keep one timer, got %d", len(timers))
	}
	if got, ok := hx.Pending(); !ok || !got.Equal(model.MustPath("a")) {
		t.Fatalf("Pending = %s, %v; want /a, true", got, ok)
	}
	hx.Hover(model.MustPath("b"))
	if got, _ := hx.Pending(); !got.Equal(model.MustPath("b")) {
		t.Fatalf("Pending = %s after re-hover, want /b", got)
	}
	if !timers[0].stopped {
		t.Fatalf("old timer should be stopped")
	}
	// A stale fire after cancel must do nothing.
	timers[0].f()
	if q.Len() != 0 {
		t.Fatalf("stale timer enqueued work")
	}
	timers[1].f()
	if _, ok := hx.Pending(); ok {
		t.Fatalf("nothing should be pending after the timer fired")
	}
	if q.Len() != 1 {
		t.Fatalf("expected one queued expansion, got %d", q.Len())
	}
	if h.st.IsExpanded(model.MustPath("b")) {
		t.Fatalf("state changed before Flush")
	}
	if n := q.Flush(h.d); n != 1 {
		t.Fatalf("Flush ran %d actions", n)
	}
	if !h.st.IsExpanded(model.MustPath("b")) {
		t.Fatalf("b not expanded after Flush")
	}
	if h.d.History().CanUndo() {
		t.Fatalf("expansion must not enter history")
	}

	hx.Hover(model.MustPath("a"))
	hx.Leave()
	if _, ok := hx.Pending(); ok {
		t.Fatalf("Leave should cancel the pending expansion")
	}
	timers[2].f()
	if q.Len() != 0 {
		t.Fatalf("Leave should cancel the pending expansion")
	}
}
