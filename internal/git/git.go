package git

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deixis/reword/internal/runner"
)

// Executor runs a single command. Implemented by runner.Runner and by
// report.Recorder.
type Executor interface {
	Run(ctx context.Context, spec runner.CommandSpec) (*runner.Result, error)
}

var (
	// ErrNotRepository is returned when Dir is not inside a git work tree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrNoCommits is returned when HEAD does not point at a commit yet.
	ErrNoCommits = errors.New("repository has no commits")
)

// baseEnv keeps git from prompting or opening editors and pins the
// message language so stderr can be matched.
var baseEnv = map[string]string{
	"GIT_TERMINAL_PROMPT": "0",
	"GIT_EDITOR":          "true",
	"LC_ALL":              "C",
}

// Repo issues git commands against one working tree.
type Repo struct {
	Runner  Executor
	Dir     string        // working tree (or any directory inside it)
	Binary  string        // git executable; "git" when empty
	Timeout time.Duration // per-command timeout; the runner default when 0
}

// CommandError reports a git command that ran but exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (r *Repo) binary() string {
	if r.Binary != "" {
		return r.Binary
	}
	return "git"
}

// Run executes git with args and returns the raw result. A non-zero exit
// is not an error here.
func (r *Repo) Run(ctx context.Context, args ...string) (*runner.Result, error) {
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, r.binary())
	argv = append(argv, args...)

	env := make(map[string]string, len(baseEnv))
	for k, v := range baseEnv {
		env[k] = v
	}

	return r.Runner.Run(ctx, runner.CommandSpec{
		Args:    argv,
		Dir:     r.Dir,
		Timeout: r.Timeout,
		Env:     env,
	})
}

// output runs git and returns stdout. A non-zero exit becomes a *CommandError.
func (r *Repo) output(ctx context.Context, args ...string) (string, error) {
	res, err := r.Run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	if res.ExitCode != 0 {
		return "", &CommandError{Args: args, ExitCode: res.ExitCode, Stderr: string(res.Stderr)}
	}
	return string(res.Stdout), nil
}

// run executes a git command for its side effects.
func (r *Repo) run(ctx context.Context, args ...string) error {
	_, err := r.output(ctx, args...)
	return err
}

// Root returns the top-level directory of the working tree.
func (r *Repo) Root(ctx context.Context) (string, error) {
	out, err := r.output(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", notRepository(err)
	}
	return strings.TrimSpace(out), nil
}

// GitDir returns the absolute path of the repository's git directory. For
// linked worktrees this is the per-worktree directory.
func (r *Repo) GitDir(ctx context.Context) (string, error) {
	out, err := r.output(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", notRepository(err)
	}
	return strings.TrimSpace(out), nil
}

// HasStagedChanges reports whether the index differs from HEAD.
func (r *Repo) HasStagedChanges(ctx context.Context) (bool, error) {
	out, err := r.output(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// Amend replaces the message of HEAD. Whatever is staged is folded into
// the amended commit.
func (r *Repo) Amend(ctx context.Context, message string) error {
	if err := r.run(ctx, "commit", "--amend", "-m", message); err != nil {
		return fmt.Errorf("amending commit: %w", err)
	}
	return nil
}

// StashStaged stashes the staged changes under message and reports whether
// a stash entry was created. Git versions without "stash push --staged"
// fall back to stashing the whole working tree.
func (r *Repo) StashStaged(ctx context.Context, message string) (bool, error) {
	before, err := r.stashRef(ctx)
	if err != nil {
		return false, err
	}

	res, err := r.Run(ctx, "stash", "push", "--staged", "--message", message)
	if err != nil {
		return false, fmt.Errorf("stashing staged changes: %w", err)
	}
	if res.ExitCode != 0 {
		if err := r.run(ctx, "stash", "push", "--message", message); err != nil {
			return false, fmt.Errorf("stashing changes: %w", err)
		}
	}

	after, err := r.stashRef(ctx)
	if err != nil {
		return false, err
	}
	return after != "" && after != before, nil
}

// StashPop restores the most recent stash entry, including its index state.
func (r *Repo) StashPop(ctx context.Context) error {
	if err := r.run(ctx, "stash", "pop", "--index"); err != nil {
		return fmt.Errorf("restoring stash: %w", err)
	}
	return nil
}

// stashRef returns the object name of refs/stash, or "" when there is none.
func (r *Repo) stashRef(ctx context.Context) (string, error) {
	res, err := r.Run(ctx, "rev-parse", "-q", "--verify", "refs/stash")
	if err != nil {
		return "", fmt.Errorf("reading stash ref: %w", err)
	}
	if res.ExitCode != 0 {
		return "", nil
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

func notRepository(err error) error {
	var ce *CommandError
	if errors.As(err, &ce) && strings.Contains(strings.ToLower(ce.Stderr), "not a git repository") {
		return fmt.Errorf("%w: %s", ErrNotRepository, strings.TrimSpace(ce.Stderr))
	}
	return err
}
