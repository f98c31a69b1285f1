package cli

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

// Preferences are cached as plain kv strings next to the outline.
const prefKeyPrefix = "pref:"

var prefValidate = validator.New()

func validPrefKey(key string) error {
	return prefValidate.Var(key, "required,oneof=theme toolbar")
}

func newPrefsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read and write cached preferences (theme, toolbar)",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if err := validPrefKey(key); err != nil {
				return writeErr(cmd, err)
			}
			return read(cmd, app, func(s *session) (any, error) {
				v, ok, err := s.kv.Get(cmd.Context(), prefKeyPrefix+key)
				if err != nil {
					return nil, err
				}
				out := map[string]any{"key": key, "set": ok}
				if ok {
					out["value"] = v
				}
				return out, nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if err := validPrefKey(key); err != nil {
				return writeErr(cmd, err)
			}
			return read(cmd, app, func(s *session) (any, error) {
				if err := s.kv.Set(cmd.Context(), prefKeyPrefix+key, args[1]); err != nil {
					return nil, err
				}
				return map[string]any{"key": key, "set": true, "value": args[1]}, nil
			})
		},
	})
	return cmd
}
