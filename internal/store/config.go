package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

type GlobalConfig struct {
	CurrentWorkspace string `yaml:"currentWorkspace,omitempty"`

	// Mode switches development-only integrity checks (fail fast) on or off.
	Mode string `yaml:"mode,omitempty" validate:"omitempty,oneof=development production"`

	History HistoryConfig `yaml:"history"`
	Alerts  AlertsConfig  `yaml:"alerts"`
	Hover   HoverConfig   `yaml:"hover"`
}

type HistoryConfig struct {
	// MaxEntries bounds the undo stack; oldest entries drop first.
	MaxEntries int `yaml:"maxEntries" validate:"min=1,max=100000"`
}

type AlertsConfig struct {
	AutoDismissMs int `yaml:"autoDismissMs" validate:"min=0"`
}

type HoverConfig struct {
	ExpandDelayMs int `yaml:"expandDelayMs" validate:"min=0"`
}

func DefaultConfig() *GlobalConfig {
	return &GlobalConfig{
		Mode:    ModeProduction,
		History: HistoryConfig{MaxEntries: 500},
		Alerts:  AlertsConfig{AutoDismissMs: 3000},
		Hover:   HoverConfig{ExpandDelayMs: 400},
	}
}

// IsDevelopment reports whether development-only checks are enabled.
func (c *GlobalConfig) IsDevelopment() bool {
	return c != nil && c.Mode == ModeDevelopment
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *GlobalConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (%v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			sort.Strings(msgs)
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.thoughtline).
	if v := strings.TrimSpace(os.Getenv("THOUGHTLINE_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, workspaceDirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadConfig reads config.yaml over the defaults. A missing file yields defaults.
func LoadConfig() (*GlobalConfig, error) {
	cfg := DefaultConfig()
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicWriteFile(dir, "config.yaml.*.tmp", path, b, 0o600)
}

// ListWorkspaces returns the names of workspace directories under the config dir.
func ListWorkspaces() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	out := []string{}
	ents, err := os.ReadDir(filepath.Join(dir, "workspaces"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, err
	}
	for _, e := range ents {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
