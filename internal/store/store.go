package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"thoughtline/internal/model"
)

const (
	workspaceDirName = ".thoughtline"
	sqliteFileName   = "thoughtline.sqlite"
)

// Store is a workspace directory holding the SQLite database.
type Store struct {
	Dir string
}

// Persistence is the graph sync surface consumed by the core: point reads
// plus one batched write. A nil value in a diff map means delete.
type Persistence interface {
	GetThought(ctx context.Context, id string) (*model.Thought, error)
	GetLexeme(ctx context.Context, value string) (*model.Lexeme, error)
	ApplyUpdates(ctx context.Context, thoughts map[string]*model.Thought, lexemes map[string]*model.Lexeme) error
}

// KV is the dumb key/value surface used for session state, persisted
// history and preference caches.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

var (
	_ Persistence = Store{}
	_ KV          = Store{}
)

func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, workspaceDirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

var workspaceNameRE = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

func NormalizeWorkspaceName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("workspace name is empty")
	}
	if !workspaceNameRE.MatchString(name) {
		return "", fmt.Errorf("invalid workspace name: %q", name)
	}
	return name, nil
}

func WorkspaceDir(name string) (string, error) {
	name, err := NormalizeWorkspaceName(name)
	if err != nil {
		return "", err
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "workspaces", name), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}
