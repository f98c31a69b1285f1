// Package dispatch is the single funnel through which the outline state
// changes: it runs commands (once, or over the multicursor set), applies
// primitive actions and feeds their diffs to the undo history.
package dispatch

import (
	"errors"
	"fmt"

	"thoughtline/internal/actions"
	"thoughtline/internal/history"
	"thoughtline/internal/notify"
	"thoughtline/internal/state"

	"go.uber.org/zap"
)

// Dispatcher owns the state and the history engine. It is not safe for
// concurrent use; other goroutines go through a Queue.
type Dispatcher struct {
	st       *state.State
	hist     *history.Engine
	registry Registry
	meta     map[string]actions.Meta
	notifier notify.Notifier
	logger   *zap.Logger

	depth int
}

type Option func(*Dispatcher)

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(d *Dispatcher) {
		if n != nil {
			d.notifier = n
		}
	}
}

// WithMeta replaces the reducer metadata registry.
func WithMeta(m map[string]actions.Meta) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.meta = m
		}
	}
}

func New(st *state.State, hist *history.Engine, registry Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		st:       st,
		hist:     hist,
		registry: registry,
		meta:     actions.Registry,
		notifier: notify.Tee{},
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(d)
	}
	if d.hist == nil {
		d.hist = history.NewEngine(history.WithLogger(d.logger))
	}
	return d
}

func (d *Dispatcher) State() *state.State      { return d.st }
func (d *Dispatcher) History() *history.Engine { return d.hist }

// Dispatch processes actions strictly in order. It never returns an error:
// failures are logged, notified or skipped.
func (d *Dispatcher) Dispatch(as ...actions.Action) {
	top := d.depth == 0
	before := d.st.Selection.Multi().Len()
	d.depth++
	for _, a := range as {
		if a == nil {
			continue
		}
		d.dispatchOne(a)
	}
	d.depth--
	if top && !d.hist.InTransaction() {
		if n := d.st.Selection.Multi().Len(); n != before && n > 0 {
			d.notify(fmt.Sprintf("%d %s selected", n, plural(n, "thought", "thoughts")), notify.KindInfo)
		}
	}
}

func (d *Dispatcher) dispatchOne(a actions.Action) {
	switch x := a.(type) {
	case actions.Run:
		d.run(x)
	case actions.Undo:
		if d.hist.Undo(d.st) {
			d.logger.Debug("undo")
		}
	case actions.Redo:
		if d.hist.Redo(d.st) {
			d.logger.Debug("redo")
		}
	case actions.Jump:
		d.jump(x)
	case actions.Reducer:
		d.reduce(x)
	default:
		d.logger.DPanic("dispatch: action is neither routed nor a reducer",
			zap.String("type", a.Type()),
			zap.Error(ErrUnregisteredCommandMetadata))
	}
}

func (d *Dispatcher) reduce(r actions.Reducer) {
	meta, ok := d.meta[r.Type()]
	if !ok {
		// Runs without history so a production build keeps working.
		d.logger.DPanic("dispatch: missing undo metadata",
			zap.String("type", r.Type()),
			zap.Error(ErrUnregisteredCommandMetadata))
	}
	before := d.st.Snapshot()
	if err := r.Reduce(d.st); err != nil {
		d.st.Restore(before)
		d.handleReduceError(r, err)
		return
	}
	d.hist.Record(history.Diff(d.st, before), history.RecordMeta{
		Type:       r.Type(),
		Undoable:   meta.Undoable,
		Navigation: meta.Navigation,
	})
}

func (d *Dispatcher) handleReduceError(r actions.Reducer, err error) {
	fields := []zap.Field{zap.String("type", r.Type()), zap.Error(err)}
	switch {
	case errors.Is(err, ErrInvalidCursorConstruction):
		d.logger.Warn("dispatch: dropped invalid cursor", fields...)
	case errors.Is(err, ErrUnresolvablePath):
		d.logger.Debug("dispatch: skipped unresolvable path", fields...)
	default:
		d.logger.Warn("dispatch: action failed", fields...)
		d.notify(err.Error(), notify.KindError)
	}
}

func (d *Dispatcher) jump(j actions.Jump) {
	cur := d.st.Selection.Cursor()
	p, walked := d.hist.Jump(d.st, j.Steps)
	if walked == 0 || p.Equal(cur) {
		d.logger.Debug("jump: no earlier edit point", zap.Int("steps", j.Steps))
		return
	}
	d.reduce(actions.SetCursor{Path: p})
}

func (d *Dispatcher) run(r actions.Run) {
	cmd, ok := d.lookup(r.Command)
	if !ok {
		d.logger.Warn("dispatch: unknown command", zap.String("command", r.Command))
		d.notify(fmt.Sprintf("%s: %s", ErrUnknownCommand, r.Command), notify.KindError)
		return
	}
	ctx := &Context{d: d, Event: r.Event}
	d.hist.Begin()
	if r.MergeUndo {
		d.hist.ForceMerge()
	}
	err := d.execute(cmd, ctx)
	d.hist.End()
	switch {
	case err == nil:
	case errors.Is(err, ErrMulticursorDisallowed), errors.Is(err, ErrPreflightFailed):
		d.logger.Info("dispatch: batch aborted", zap.String("command", cmd.ID), zap.Error(err))
	default:
		d.logger.Warn("dispatch: command failed", zap.String("command", cmd.ID), zap.Error(err))
		d.notify(err.Error(), notify.KindError)
	}
}

func (d *Dispatcher) lookup(id string) (*Command, bool) {
	if d.registry == nil {
		return nil, false
	}
	return d.registry.Lookup(id)
}

func (d *Dispatcher) notify(msg string, kind notify.Kind) {
	d.notifier.Notify(msg, notify.Options{Kind: kind})
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
