package dispatch

import (
	"fmt"

	"thoughtline/internal/actions"
	"thoughtline/internal/model"
	"thoughtline/internal/notify"
	"thoughtline/internal/selection"

	"go.uber.org/zap"
)

// execute runs cmd once against the cursor, or over the multicursor set when
// the command has a batch policy and thoughts are selected. The caller holds
// a history transaction open around it.
func (d *Dispatcher) execute(cmd *Command, ctx *Context) error {
	st := d.st
	multi := st.Selection.Multi()
	pol := cmd.Multicursor

	if multi.Len() == 0 || pol == nil || pol.Disallow {
		if pol != nil && pol.Disallow && multi.Len() > 0 {
			d.notifier.Notify(ErrMulticursorDisallowed.Error(), notify.Options{Kind: notify.KindError})
			return fmt.Errorf("%s: %w", cmd.ID, ErrMulticursorDisallowed)
		}
		if cmd.CanExecute != nil && !cmd.CanExecute(st) {
			d.logger.Debug("dispatch: command not executable", zap.String("command", cmd.ID))
			return nil
		}
		return cmd.Exec(ctx)
	}

	original := selection.SortDocumentOrder(multi.Paths(), st.Graph.Rank)
	paths := selection.Filter(original, pol.Filter)
	if pol.Reverse {
		paths = selection.Reverse(paths)
	}

	// All or nothing: every member must pass as if it were the cursor.
	if cmd.CanExecute != nil {
		for _, p := range paths {
			probe := st.Snapshot()
			probe.Selection.SetCursor(p)
			if !cmd.CanExecute(probe) {
				return fmt.Errorf("%s at %s: %w", cmd.ID, p, ErrPreflightFailed)
			}
		}
	}

	cursor := st.Selection.Cursor()
	d.Dispatch(actions.ClearMulticursors{})

	if pol.ExecMulticursor != nil {
		if err := pol.ExecMulticursor(ctx, paths); err != nil {
			d.logger.Warn("dispatch: batch handler failed", zap.String("command", cmd.ID), zap.Error(err))
		}
	} else {
		for _, p := range paths {
			// A previous step may have moved or deleted this member.
			cur := d.st.Resolver().Resolve(p)
			if cur.IsNull() {
				d.logger.Debug("dispatch: skipped stale selection member",
					zap.String("command", cmd.ID), zap.Stringer("path", p))
				continue
			}
			d.Dispatch(actions.SetCursor{Path: cur})
			if err := cmd.Exec(ctx); err != nil {
				d.logger.Warn("dispatch: batch step failed",
					zap.String("command", cmd.ID), zap.Stringer("path", cur), zap.Error(err))
			}
		}
	}

	if !pol.PreventSetCursor {
		d.Dispatch(actions.SetCursor{Path: d.rederive(cursor)})
	}
	if !pol.ClearMulticursor {
		for _, p := range original {
			if r := d.rederive(p); !r.IsNull() {
				d.Dispatch(actions.AddMulticursor{Path: r})
			}
		}
	}
	if pol.OnComplete != nil {
		pol.OnComplete(paths)
	}
	return nil
}

func (d *Dispatcher) rederive(p model.Path) model.Path {
	if p.IsNull() {
		return p
	}
	return d.st.Resolver().Resolve(p)
}
