package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urpagin/wallsync/internal/utils"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".wallsync", "config.json")
	DefaultDir        = filepath.Join(home, "Wallpapers")
)

// Config is one client invocation's parameters. Credentials are passed
// through to the edge proxy as basic auth; no session is persisted.
type Config struct {
	ServerURL string `json:"server_url"`
	Dir       string `json:"dir"`
	User      string `json:"user"`
	Password  string `json:"password"`
	Path      string `json:"-"`
}

func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server url is required")
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("server url %q must start with http:// or https://", c.ServerURL)
	}
	if c.Dir == "" {
		return errors.New("mirror directory is required")
	}

	resolved, err := utils.ResolvePath(c.Dir)
	if err != nil {
		return fmt.Errorf("resolve mirror directory: %w", err)
	}
	c.Dir = resolved
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")

	return nil
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// config may hold credentials, keep it private
	return os.WriteFile(path, data, 0o600)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Path = path
	return &cfg, nil
}
