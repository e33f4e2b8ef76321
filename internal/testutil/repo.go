// Package testutil builds throwaway git repositories for tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// RequireGit skips the test when git is not installed.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// InitRepo creates an empty repository on branch main with a repo-local
// identity. Returns the working tree path.
func InitRepo(t *testing.T) string {
	t.Helper()
	RequireGit(t)
	dir := filepath.Join(t.TempDir(), "repo")
	Git(t, filepath.Dir(dir), "init", "-b", "main", dir)
	Git(t, dir, "config", "user.email", "test@example.com")
	Git(t, dir, "config", "user.name", "Test")
	Git(t, dir, "config", "commit.gpgsign", "false")
	return dir
}

// CreateRepo creates a repository with a single commit "initial commit"
// that adds README.md.
func CreateRepo(t *testing.T) string {
	t.Helper()
	dir := InitRepo(t)
	WriteFile(t, dir, "README.md", "# test\n")
	Git(t, dir, "add", ".")
	Git(t, dir, "commit", "-m", "initial commit")
	return dir
}

// CommitFile writes name and commits it with message.
func CommitFile(t *testing.T, dir, name, content, message string) {
	t.Helper()
	WriteFile(t, dir, name, content)
	Git(t, dir, "add", "--", name)
	Git(t, dir, "commit", "-m", message)
}

// WriteFile writes content to name inside dir, creating parents.
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:gosec // test file
		t.Fatal(err)
	}
}

// Git runs git in dir and returns trimmed stdout. It fails the test on a
// non-zero exit.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_EDITOR=true", "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}
