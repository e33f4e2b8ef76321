// Package config loads and validates the optional .reword YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file at the repository root.
const FileName = ".reword"

// Default values for runner and rename configuration.
const (
	DefaultTimeout      = 2 * time.Minute
	DefaultMaxOutput    = 1 << 20 // 1 MB
	DefaultGit          = "git"
	DefaultStashMessage = "Temporary stash for commit rename"
	DefaultMaxSubject   = 72
	DefaultHistorySize  = 20
	DefaultLogLevel     = "info"
)

// Config holds the parsed .reword configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version       int               `yaml:"version"`
	RawTimeout    string            `yaml:"timeout"`    // e.g. "2m", "30s"
	RawMaxOutput  int               `yaml:"max_output"` // bytes
	Git           string            `yaml:"git"`        // git binary name or path
	Env           map[string]string `yaml:"env"`        // extra environment for every git command
	StashMessage  string            `yaml:"stash_message"`
	MaxSubject    int               `yaml:"max_subject"`    // subject length that triggers a warning
	IncludeStaged *bool             `yaml:"include_staged"` // default for folding staged changes into the amend
	HistoryDir    string            `yaml:"history_dir"`    // run history location
	HistorySize   int               `yaml:"history_size"`   // runs kept in memory
	LogLevel      string            `yaml:"log_level"`
}

// Timeout returns the configured timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// GitBinary returns the git executable to invoke.
func (c *Config) GitBinary() string {
	if c.Git != "" {
		return c.Git
	}
	return DefaultGit
}

// Stash returns the message used for the temporary stash.
func (c *Config) Stash() string {
	if c.StashMessage != "" {
		return c.StashMessage
	}
	return DefaultStashMessage
}

// SubjectLimit returns the subject length above which a warning is shown.
func (c *Config) SubjectLimit() int {
	if c.MaxSubject > 0 {
		return c.MaxSubject
	}
	return DefaultMaxSubject
}

// IncludeStagedDefault reports whether staged changes are folded into the
// amended commit when the caller does not say otherwise.
func (c *Config) IncludeStagedDefault() bool {
	if c.IncludeStaged != nil {
		return *c.IncludeStaged
	}
	return true
}

// HistoryPath returns the run history directory. It falls back to
// <user cache dir>/reword/runs, then to a directory under os.TempDir.
func (c *Config) HistoryPath() string {
	if c.HistoryDir != "" {
		return c.HistoryDir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "reword", "runs")
	}
	return filepath.Join(os.TempDir(), "reword-runs")
}

// HistoryCapacity returns how many runs the in-memory cache keeps.
func (c *Config) HistoryCapacity() int {
	if c.HistorySize > 0 {
		return c.HistorySize
	}
	return DefaultHistorySize
}

// Level returns the configured log level or the default.
func (c *Config) Level() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return DefaultLogLevel
}

// LoadResult holds the parsed config and the discovered repository root.
type LoadResult struct {
	Config   *Config
	RepoRoot string // directory containing .git; falls back to workspace
}

// Load reads the .reword file from the repository root.
// The repository root is discovered by walking upward from workspace
// looking for .git (a directory, or a file for worktrees and submodules).
// If no .reword file exists, a default Config is returned.
func Load(workspace string) (*LoadResult, error) {
	root, err := findRepoRoot(workspace)
	if err != nil {
		// Not inside a repository; use workspace as root.
		root = workspace
	}

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LoadResult{Config: &Config{}, RepoRoot: root}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return &LoadResult{Config: cfg, RepoRoot: root}, nil
}

func (c *Config) validate() error {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", c.RawTimeout)
		}
	}
	if c.RawMaxOutput < 0 {
		return fmt.Errorf("max_output must not be negative, got %d", c.RawMaxOutput)
	}
	return nil
}

// findRepoRoot walks upward from dir looking for a directory containing .git.
func findRepoRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf(".git not found")
		}
		dir = parent
	}
}
