package cli

import (
	"fmt"
	"os"
	"strings"

	"thoughtline/internal/format"
	"thoughtline/internal/notify"
	"thoughtline/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	Dir        string
	Workspace  string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "thoughtline",
		Short:        "Thoughtline (local-first) outliner CLI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create a workspace and a few thoughts
  thoughtline init
  thoughtline add "groceries"
  thoughtline add --sub "milk"

  # Select thoughts and run a command over all of them
  thoughtline select t-abc t-def
  thoughtline run deleteThought

  # Undo it (one step for the whole batch)
  thoughtline undo
  thoughtline tree
`),
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("THOUGHTLINE_DIR", ""), "Path to store dir (overrides workspace resolution)")
	cmd.PersistentFlags().StringVar(&app.Workspace, "workspace", envOr("THOUGHTLINE_WORKSPACE", ""), "Workspace name (default: 'default')")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("THOUGHTLINE_FORMAT", "json"), "Output format (json|edn)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newCursorCmd(app))
	cmd.AddCommand(newSelectCmd(app))
	cmd.AddCommand(newRunCmd(app))
	cmd.AddCommand(newUndoCmd(app))
	cmd.AddCommand(newRedoCmd(app))
	cmd.AddCommand(newJumpCmd(app))
	cmd.AddCommand(newExpandCmd(app))
	cmd.AddCommand(newHoverCmd(app))
	cmd.AddCommand(newTreeCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newCommandsCmd(app))
	cmd.AddCommand(newPrefsCmd(app))
	cmd.AddCommand(newWorkspaceCmd(app))

	return cmd
}

// loadStore resolves the store dir:
// 1) --dir
// 2) --workspace
// 3) currentWorkspace from config.yaml
// 4) the "default" workspace
func loadStore(app *App, cfg *store.GlobalConfig) (store.Store, error) {
	dir := app.Dir
	if dir == "" {
		name := app.Workspace
		if name == "" && cfg != nil {
			name = cfg.CurrentWorkspace
		}
		if name == "" {
			name = "default"
		}
		d, err := store.WorkspaceDir(name)
		if err != nil {
			return store.Store{}, err
		}
		app.Workspace = name
		app.Dir = d
		dir = d
	}
	return store.Store{Dir: dir}, nil
}

// newLogger writes to stderr; stdout carries only the result envelope.
func newLogger(cfg *store.GlobalConfig) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return zc.Build()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, data any) error {
	return writeEnvelope(cmd, app, data, nil)
}

func writeEnvelope(cmd *cobra.Command, app *App, data any, alerts *notify.Alerts) error {
	env := format.Envelope{Data: data}
	if alerts != nil {
		if a, ok := alerts.Current(); ok {
			env.Alert = a
		}
	}
	return format.Write(cmd.OutOrStdout(), env, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
