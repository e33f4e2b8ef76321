package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mkdirGit(t *testing.T, root string) {
	t.Helper()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_FromRepoRoot(t *testing.T) {
	dir := t.TempDir()
	mkdirGit(t, dir)
	writeFile(t, filepath.Join(dir, FileName), "version: 1\ntimeout: 10m\ngit: /usr/local/bin/git\n")

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.RepoRoot != dir {
		t.Errorf("RepoRoot = %q, want %q", res.RepoRoot, dir)
	}
	if res.Config.Version != 1 {
		t.Errorf("Config.Version = %d, want 1", res.Config.Version)
	}
	if got := res.Config.Timeout(); got != 10*time.Minute {
		t.Errorf("Timeout() = %v, want 10m", got)
	}
	if got := res.Config.GitBinary(); got != "/usr/local/bin/git" {
		t.Errorf("GitBinary() = %q, want /usr/local/bin/git", got)
	}
}

func TestLoad_FromSubdirectory(t *testing.T) {
	root := t.TempDir()
	mkdirGit(t, root)
	writeFile(t, filepath.Join(root, FileName), "version: 2\n")

	sub := filepath.Join(root, "pkg", "foo")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := Load(sub)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.RepoRoot != root {
		t.Errorf("RepoRoot = %q, want %q", res.RepoRoot, root)
	}
	if res.Config.Version != 2 {
		t.Errorf("Config.Version = %d, want 2", res.Config.Version)
	}
}

func TestLoad_GitFile(t *testing.T) {
	// Worktrees and submodules have a .git file instead of a directory.
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git"), "gitdir: /elsewhere\n")

	res, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.RepoRoot != root {
		t.Errorf("RepoRoot = %q, want %q", res.RepoRoot, root)
	}
}

func TestLoad_NoRepository(t *testing.T) {
	dir := t.TempDir()

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.RepoRoot != dir {
		t.Errorf("RepoRoot = %q, want %q (fallback to workspace)", res.RepoRoot, dir)
	}
	if res.Config.RawTimeout != "" {
		t.Errorf("expected default config, got RawTimeout = %q", res.Config.RawTimeout)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	dir := t.TempDir()
	mkdirGit(t, dir)

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Config.Version != 0 {
		t.Errorf("expected default config, got Version = %d", res.Config.Version)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"yaml", "timeout: [1, 2\n", "parsing"},
		{"timeout", "timeout: soon\n", "timeout"},
		{"negative timeout", "timeout: -5s\n", "must be positive"},
		{"max_output", "max_output: -1\n", "max_output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			mkdirGit(t, dir)
			writeFile(t, filepath.Join(dir, FileName), tt.content)

			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to contain %q", err, tt.want)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	c := &Config{}
	if got := c.Timeout(); got != DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", got, DefaultTimeout)
	}
	if got := c.MaxOutputBytes(); got != DefaultMaxOutput {
		t.Errorf("MaxOutputBytes() = %d, want %d", got, DefaultMaxOutput)
	}
	if got := c.GitBinary(); got != DefaultGit {
		t.Errorf("GitBinary() = %q, want %q", got, DefaultGit)
	}
	if got := c.Stash(); got != DefaultStashMessage {
		t.Errorf("Stash() = %q, want %q", got, DefaultStashMessage)
	}
	if got := c.SubjectLimit(); got != DefaultMaxSubject {
		t.Errorf("SubjectLimit() = %d, want %d", got, DefaultMaxSubject)
	}
	if !c.IncludeStagedDefault() {
		t.Error("IncludeStagedDefault() = false, want true")
	}
	if got := c.HistoryCapacity(); got != DefaultHistorySize {
		t.Errorf("HistoryCapacity() = %d, want %d", got, DefaultHistorySize)
	}
	if got := c.HistoryPath(); got == "" {
		t.Error("HistoryPath() is empty")
	}
}

func TestIncludeStagedFalse(t *testing.T) {
	dir := t.TempDir()
	mkdirGit(t, dir)
	writeFile(t, filepath.Join(dir, FileName), "include_staged: false\nenv:\n  GIT_AUTHOR_NAME: Bot\n")

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Config.IncludeStagedDefault() {
		t.Error("IncludeStagedDefault() = true, want false")
	}
	if got := res.Config.Env["GIT_AUTHOR_NAME"]; got != "Bot" {
		t.Errorf("Env[GIT_AUTHOR_NAME] = %q, want Bot", got)
	}
}
