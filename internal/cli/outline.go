package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"thoughtline/internal/actions"
	"thoughtline/internal/dispatch"
	"thoughtline/internal/model"
	"thoughtline/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize local storage (workspace-first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := loadStore(app, cfg)
			if err != nil {
				return writeErr(cmd, err)
			}
			id, err := s.Init(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			// First workspace created by name becomes the current one.
			if app.Workspace != "" && cfg.CurrentWorkspace == "" && !cmd.Flags().Changed("dir") {
				cfg.CurrentWorkspace = app.Workspace
				if err := store.SaveConfig(cfg); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{
				"dir":         app.Dir,
				"workspace":   app.Workspace,
				"workspaceId": id,
				"sqlitePath":  filepath.Join(s.Dir, "thoughtline.sqlite"),
			})
		},
	}
}

func newAddCmd(app *App) *cobra.Command {
	var sub bool
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a thought after the cursor (or under it with --sub)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, app, func(s *session) error {
				id := "newThought"
				if sub {
					if s.state().Cursor().IsNull() {
						return errors.New("--sub needs a cursor; run `thoughtline cursor <id>` first")
					}
					id = "newSubthought"
				}
				s.dispatch(actions.Run{Command: id, Event: actions.Event{Text: args[0]}})
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&sub, "sub", false, "Add as the last child of the cursor")
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <text>",
		Short: "Replace the text of the cursor thought (every selected thought when there is a selection)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, app, func(s *session) error {
				s.dispatch(actions.Run{Command: "editThought", Event: actions.Event{Text: args[0]}})
				return nil
			})
		},
	}
}

func newCursorCmd(app *App) *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "cursor [<id> | <id>...]",
		Short: "Move the cursor to a thought (one id) or to an exact path (several ids)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clear && len(args) == 0 {
				return writeErr(cmd, errors.New("missing thought id (or --clear)"))
			}
			return mutate(cmd, app, func(s *session) error {
				if clear {
					s.dispatch(actions.SetCursor{})
					return nil
				}
				a, err := s.pathArg(args)
				if err != nil {
					return err
				}
				s.dispatch(a)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "Send the cursor home")
	return cmd
}

func newSelectCmd(app *App) *cobra.Command {
	var clear, toggle bool
	cmd := &cobra.Command{
		Use:   "select <id>...",
		Short: "Add thoughts to the multicursor selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clear && len(args) == 0 {
				return writeErr(cmd, errors.New("missing thought id (or --clear)"))
			}
			return mutate(cmd, app, func(s *session) error {
				if clear {
					s.dispatch(actions.ClearMulticursors{})
				}
				for _, id := range args {
					p, err := s.resolveID(id)
					if err != nil {
						return err
					}
					if toggle {
						s.dispatch(actions.ToggleMulticursor{Path: p})
					} else {
						s.dispatch(actions.AddMulticursor{Path: p})
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "Clear the selection first")
	cmd.Flags().BoolVar(&toggle, "toggle", false, "Toggle instead of add")
	return cmd
}

func newRunCmd(app *App) *cobra.Command {
	var text string
	var count int
	var merge bool
	cmd := &cobra.Command{
		Use:   "run <command-id>...",
		Short: "Run registered commands in order (see `thoughtline commands`)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, app, func(s *session) error {
				ev := actions.Event{Text: text, Count: count}
				for i, id := range args {
					// --merge folds the whole invocation into one undo step.
					s.dispatch(actions.Run{Command: id, Event: ev, MergeUndo: merge && i > 0})
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Text passed to the command")
	cmd.Flags().IntVar(&count, "count", 0, "Repeat count passed to the command")
	cmd.Flags().BoolVar(&merge, "merge", false, "Undo every command of this invocation in one step")
	return cmd
}

func newUndoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the last edit together with the navigation around it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, app, func(s *session) error {
				s.dispatch(actions.Undo{})
				return nil
			})
		},
	}
}

func newRedoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Redo the last undone step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, app, func(s *session) error {
				s.dispatch(actions.Redo{})
				return nil
			})
		},
	}
}

func newJumpCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "jump [n]",
		Short: "Move the cursor to the n-th most recent edit (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(strings.TrimSpace(args[0]))
				if err != nil || n < 1 {
					return writeErr(cmd, errors.New("n must be a positive integer"))
				}
				steps = n
			}
			return mutate(cmd, app, func(s *session) error {
				s.dispatch(actions.Jump{Steps: steps})
				return nil
			})
		},
	}
}

func newExpandCmd(app *App) *cobra.Command {
	var collapse bool
	cmd := &cobra.Command{
		Use:   "expand <id>",
		Short: "Expand (or --collapse) a thought; not recorded in undo history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, app, func(s *session) error {
				p, err := s.resolveID(args[0])
				if err != nil {
					return err
				}
				s.dispatch(actions.SetExpanded{Path: p, Expanded: !collapse})
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&collapse, "collapse", false, "Collapse instead of expand")
	return cmd
}

func newHoverCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "hover <id>",
		Short: "Rest on a thought until the hover delay expands it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, app, func(s *session) error {
				p, err := s.resolveID(args[0])
				if err != nil {
					return err
				}
				delay := time.Duration(s.cfg.Hover.ExpandDelayMs) * time.Millisecond
				return hoverAndWait(cmd.Context(), s.d, p, delay)
			})
		},
	}
}

// hoverAndWait drives a HoverExpander for a single target and flushes the
// resulting action on this goroutine once the delay has passed.
func hoverAndWait(ctx context.Context, d *dispatch.Dispatcher, p model.Path, delay time.Duration) error {
	fired := make(chan struct{})
	after := func(wait time.Duration, f func()) dispatch.Timer {
		return time.AfterFunc(wait, func() {
			f()
			close(fired)
		})
	}
	var q dispatch.Queue
	h := dispatch.NewHoverExpander(&q, delay, after)
	h.Hover(p)
	select {
	case <-fired:
	case <-ctx.Done():
		h.Leave()
		return ctx.Err()
	}
	q.Flush(d)
	return nil
}
