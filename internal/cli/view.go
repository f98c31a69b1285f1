package cli

import (
	"errors"
	"fmt"
	"time"

	"thoughtline/internal/commands"
	"thoughtline/internal/history"
	"thoughtline/internal/model"
	"thoughtline/internal/selection"
	"thoughtline/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newTreeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the outline as text (cursor marked with >, selection with *)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.close()
			r := lipgloss.NewRenderer(cmd.OutOrStdout())
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderTree(r, s.state()))
			return err
		},
	}
}

type thoughtView struct {
	*model.Thought
	Path     model.Path   `json:"path"`
	Crumbs   []string     `json:"breadcrumbs"`
	Children []string     `json:"childIds"`
	Contexts []string     `json:"contexts"`
	Shown    []model.Path `json:"shown"`
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show [<id>]",
		Short: "Show a thought (default: the cursor thought)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return read(cmd, app, func(s *session) (any, error) {
				st := s.state()
				var p model.Path
				if len(args) == 1 {
					rp, err := s.resolveID(args[0])
					if err != nil {
						return nil, err
					}
					p = rp
				} else {
					p = st.Cursor()
					if p.IsNull() {
						return s.view(), nil
					}
				}
				// The thought and its contexts are read back from the store so
				// show reports what is persisted.
				ctx := cmd.Context()
				t, err := s.persist.GetThought(ctx, p.Head())
				if err != nil {
					return nil, err
				}
				contexts := []string{}
				lex, err := s.persist.GetLexeme(ctx, t.Value)
				var nf *store.NotFoundError
				switch {
				case errors.As(err, &nf):
				case err != nil:
					return nil, err
				case lex.Contexts != nil:
					contexts = lex.Contexts
				}
				res := st.Resolver()
				kids := st.Graph.ChildrenOf(t.ID)
				v := thoughtView{
					Thought:  t,
					Path:     p,
					Children: make([]string, 0, len(kids)),
					Contexts: contexts,
					Shown:    res.Children(p),
				}
				for _, k := range kids {
					v.Children = append(v.Children, k.ID)
				}
				v.Crumbs = make([]string, 0, p.Len())
				for _, a := range res.Ancestors(p) {
					if at, ok := st.Graph.Thought(a.Head()); ok {
						v.Crumbs = append(v.Crumbs, at.Value)
					}
				}
				return v, nil
			})
		},
	}
}

type entryView struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Navigation bool      `json:"navigation"`
	Ops        int       `json:"ops"`
	Data       bool      `json:"data"`
	At         time.Time `json:"at"`
}

func entryViews(es []history.Entry) []entryView {
	out := make([]entryView, 0, len(es))
	// Most recent first.
	for i := len(es) - 1; i >= 0; i-- {
		e := es[i]
		out = append(out, entryView{
			ID:         e.ID,
			Type:       e.Type,
			Navigation: e.Navigation,
			Ops:        len(e.Patch),
			Data:       e.Patch.HasData(),
			At:         e.At,
		})
	}
	return out
}

func newHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List undo and redo entries (most recent first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return read(cmd, app, func(s *session) (any, error) {
				h := s.d.History()
				return map[string]any{
					"undo": entryViews(h.UndoEntries()),
					"redo": entryViews(h.RedoEntries()),
				}, nil
			})
		},
	}
}

type commandView struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Multicursor string `json:"multicursor"`
	Reverse     bool   `json:"reverse,omitempty"`
}

func newCommandsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the commands accepted by `thoughtline run`",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := commands.Default().All()
			out := make([]commandView, 0, len(all))
			for _, c := range all {
				v := commandView{ID: c.ID, Description: c.Description, Multicursor: "single"}
				if pol := c.Multicursor; pol != nil {
					switch {
					case pol.Disallow:
						v.Multicursor = "disallowed"
					case pol.ExecMulticursor != nil:
						v.Multicursor = "batch"
					default:
						fm, err := selection.ParseFilterMode(string(pol.Filter))
						if err != nil {
							return writeErr(cmd, fmt.Errorf("command %s: %w", c.ID, err))
						}
						v.Multicursor = string(fm)
					}
					v.Reverse = pol.Reverse
				}
				out = append(out, v)
			}
			return writeOut(cmd, app, out)
		},
	}
}
