// Package config resolves ryu settings from a global XDG file overridden by a
// per-repo file inside .jj/repo/ryu/.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/canadaduane/jj-ryu/internal/logs"
	"github.com/canadaduane/jj-ryu/internal/store"
)

const localConfigFile = "config.yaml"

// Keys understood by ryu. Unknown keys are preserved but unused.
const (
	KeyDefaultRemote  = "default_remote"
	KeyMergeMethod    = "merge_method"
	KeyDraftByDefault = "draft_by_default"
)

// Config is the merged view of global and repo-local settings.
type Config struct {
	global map[string]string
	local  map[string]string

	globalPath string
	localPath  string
}

func globalConfigPath() (string, error) {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "ryu", "config.yaml"), nil
}

// Load reads global then repo-local config for a workspace. Missing files
// yield empty maps. The repo-local file lives in .jj/repo/ryu/config.yaml so
// it never dirties the working copy.
func Load(workspaceRoot string) (*Config, error) {
	globalPath, err := globalConfigPath()
	if err != nil {
		return nil, errors.Wrap(err, "resolve config path")
	}

	cfg := &Config{
		global:     map[string]string{},
		local:      map[string]string{},
		globalPath: globalPath,
		localPath:  filepath.Join(store.RyuDir(workspaceRoot), localConfigFile),
	}

	if err := loadYAML(globalPath, cfg.global); err != nil {
		return nil, errors.Wrapf(err, "read %s", globalPath)
	}
	if err := loadYAML(cfg.localPath, cfg.local); err != nil {
		return nil, errors.Wrapf(err, "read %s", cfg.localPath)
	}
	logs.Debug("config loaded: %d global, %d local keys", len(cfg.global), len(cfg.local))
	return cfg, nil
}

// Get returns the value for a key, repo-local overriding global. Missing keys
// return "".
func (c *Config) Get(key string) string {
	if v, ok := c.local[key]; ok {
		return v
	}
	return c.global[key]
}

// Set writes a key either to the global file or the repo-local file.
func (c *Config) Set(key, value string, global bool) error {
	if global {
		c.global[key] = value
		return saveYAML(c.globalPath, c.global)
	}
	c.local[key] = value
	return saveYAML(c.localPath, c.local)
}

// DefaultRemote returns the configured remote preference, or "".
func (c *Config) DefaultRemote() string { return c.Get(KeyDefaultRemote) }

// MergeMethod returns the configured merge method, defaulting to squash.
func (c *Config) MergeMethod() string {
	if m := c.Get(KeyMergeMethod); m != "" {
		return m
	}
	return "squash"
}

// DraftByDefault reports whether new PRs should be created as drafts.
func (c *Config) DraftByDefault() bool {
	return c.Get(KeyDraftByDefault) == "true"
}

func loadYAML(path string, into map[string]string) error {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(content, &into)
}

func saveYAML(path string, data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	out, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
