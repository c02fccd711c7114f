// Package config manages tablevc configuration and the .tablevc
// directory structure. It handles loading, saving, and initializing the
// repository configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	TablevcDir   = ".tablevc"
	ConfigFile   = "config"
	DatabaseFile = "tablevc.db"
)

// Config represents the tablevc configuration
type Config struct {
	Listen      string `toml:"listen"`
	AuthorName  string `toml:"author_name"`
	AuthorEmail string `toml:"author_email"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
	path        string // path to .tablevc directory
}

// FindRoot finds the .tablevc directory by walking up from the given
// directory, or from the current directory when start is empty.
func FindRoot(start string) (string, error) {
	dir := start
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}

	for {
		path := filepath.Join(dir, TablevcDir)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a tablevc repository (or any parent up to root)")
		}
		dir = parent
	}
}

// Load loads the configuration for the repository at the given location.
func Load(repoPath string) (*Config, error) {
	root, err := FindRoot(repoPath)
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(root, ConfigFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.path = root
	return &cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	configPath := filepath.Join(c.path, ConfigFile)
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Path returns the path to the .tablevc directory
func (c *Config) Path() string {
	return c.path
}

// DatabasePath returns the path to the engine database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.path, DatabaseFile)
}

// Author returns the commit author in "Name <email>" form.
func (c *Config) Author() string {
	name := c.AuthorName
	if name == "" {
		name = "tablevc"
	}
	if c.AuthorEmail == "" {
		return name
	}
	return fmt.Sprintf("%s <%s>", name, c.AuthorEmail)
}

// Initialize creates a new .tablevc directory with initial configuration
// in the given directory (current directory when empty).
func Initialize(dir string) (*Config, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}

	root := filepath.Join(dir, TablevcDir)

	// Check if already initialized
	if _, err := os.Stat(root); err == nil {
		return nil, fmt.Errorf("tablevc repository already exists")
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .tablevc directory: %w", err)
	}

	cfg := &Config{
		Listen:     "127.0.0.1:8750",
		AuthorName: "tablevc",
		LogLevel:   "info",
		LogFormat:  "json",
		path:       root,
	}

	if err := cfg.Save(); err != nil {
		// Cleanup on failure
		os.RemoveAll(root)
		return nil, err
	}

	return cfg, nil
}
