// Package config handles loading and saving treeview configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/treeview/config.yaml ($XDG_CONFIG_HOME/treeview)
//   - State:   ~/.local/state/treeview/ ($XDG_STATE_HOME/treeview)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treestate/pkg/model"
	"github.com/vanderheijden86/treestate/pkg/treestate"
)

const appName = "treeview"

// MaxRecent bounds the recent-files list.
const MaxRecent = 10

// StateConfig seeds treestate.Options.
type StateConfig struct {
	SyncWithInitialTree bool           `yaml:"sync_with_initial_tree,omitempty"`
	InitialOpenedIDs    []model.NodeID `yaml:"initial_opened_ids,omitempty"`
}

// ViewConfig holds tree view settings.
type ViewConfig struct {
	Indent     int   `yaml:"indent,omitempty"`      // columns per depth level
	ShowGuides *bool `yaml:"show_guides,omitempty"` // draw │ ├── └── connectors
	PageSize   int   `yaml:"page_size,omitempty"`   // rows moved by page up/down; 0 = viewport height
}

// WatchConfig controls file watching.
type WatchConfig struct {
	DebounceMS int  `yaml:"debounce_ms,omitempty"`
	PollMS     int  `yaml:"poll_ms,omitempty"`
	ForcePoll  bool `yaml:"force_poll,omitempty"`
}

// Config is the top-level configuration for treeview.
type Config struct {
	State  StateConfig `yaml:"state,omitempty"`
	View   ViewConfig  `yaml:"view,omitempty"`
	Watch  WatchConfig `yaml:"watch,omitempty"`
	Recent []string    `yaml:"recent,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	guides := true
	return Config{
		View: ViewConfig{
			Indent:     4,
			ShowGuides: &guides,
		},
		Watch: WatchConfig{
			DebounceMS: 200,
			PollMS:     2000,
		},
	}
}

// ConfigDir returns the XDG config directory for treeview.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...)
}

// StateDir returns the XDG state directory, where the viewer remembers which
// nodes were open per tree file.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", ".local", "state")
}

// StatePath returns the open-state file for the tree at treePath. The absolute
// path is flattened into the file name so every tree gets its own file.
func StatePath(treePath string) string {
	dir := StateDir()
	if dir == "" || treePath == "" {
		return ""
	}
	if abs, err := filepath.Abs(treePath); err == nil {
		treePath = abs
	}
	name := strings.NewReplacer(string(filepath.Separator), "%", ":", "%").Replace(treePath)
	return filepath.Join(dir, "open", strings.TrimLeft(name, "%")+".json")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	for i := range cfg.Recent {
		cfg.Recent[i] = expandHome(cfg.Recent[i])
	}
	return cfg, nil
}

// Validate rejects values the viewer cannot use.
func (c Config) Validate() error {
	switch {
	case c.View.Indent < 0 || c.View.Indent > 16:
		return fmt.Errorf("view.indent must be between 0 and 16, got %d", c.View.Indent)
	case c.View.PageSize < 0:
		return fmt.Errorf("view.page_size must not be negative, got %d", c.View.PageSize)
	case c.Watch.DebounceMS < 0:
		return fmt.Errorf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMS)
	case c.Watch.PollMS < 0:
		return fmt.Errorf("watch.poll_ms must not be negative, got %d", c.Watch.PollMS)
	}
	return nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// StateOptions converts the state section for treestate.New.
func (c Config) StateOptions(r treestate.Reporter) treestate.Options {
	return treestate.Options{
		SyncWithInitialTree: c.State.SyncWithInitialTree,
		InitialOpenedIDs:    slices.Clone(c.State.InitialOpenedIDs),
		Reporter:            r,
	}
}

// Guides reports whether connector guides are drawn. Unset means yes.
func (c Config) Guides() bool {
	return c.View.ShowGuides == nil || *c.View.ShowGuides
}

// Debounce returns watch.debounce_ms as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// PollInterval returns watch.poll_ms as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Watch.PollMS) * time.Millisecond
}

// AddRecent moves path to the front of the recent list, dropping duplicates
// and entries beyond MaxRecent.
func (c *Config) AddRecent(path string) {
	if abs, err := filepath.Abs(expandHome(path)); err == nil {
		path = abs
	}
	c.Recent = slices.DeleteFunc(c.Recent, func(p string) bool { return p == path })
	c.Recent = slices.Insert(c.Recent, 0, path)
	if len(c.Recent) > MaxRecent {
		c.Recent = c.Recent[:MaxRecent]
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
