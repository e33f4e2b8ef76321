// Package runner spawns external programs with a fixed argv, captures
// their output, and maps the outcome to typed results. It enforces
// workspace bounds, timeouts, cancellation and output size limits.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultWaitDelay bounds how long Run waits for the output copiers once
// the process has exited or been killed.
const DefaultWaitDelay = 2 * time.Second

// DefaultKillGrace is how long a terminated process group has to exit
// before it is killed.
const DefaultKillGrace = 500 * time.Millisecond

// Runner executes commands. The zero value runs without a workspace
// bound, timeout or output cap. A Runner holds no per-call state and is
// safe for concurrent use as long as its fields are not modified.
type Runner struct {
	Workspace string            // if set, CommandSpec.Dir must resolve inside it
	Timeout   time.Duration     // default timeout; 0 means none
	MaxOutput int               // per-stream cap in bytes; 0 means unlimited
	Env       map[string]string // defaults added to every command's environment
	WaitDelay time.Duration     // see exec.Cmd.WaitDelay; DefaultWaitDelay when 0
	KillGrace time.Duration     // SIGTERM to SIGKILL delay on cancel; DefaultKillGrace when 0
}

// Run executes spec and waits for it to finish. A non-zero exit status is
// not an error: it is reported in Result.ExitCode. Every other failure is
// a *RunError (see ErrSpawnFailed, ErrTimeout, ErrCanceled, ErrIO), except
// an invalid spec, which returns ErrEmptyArgs or a directory error.
func (r *Runner) Run(ctx context.Context, spec CommandSpec) (*Result, error) {
	spec = spec.clone()
	if len(spec.Args) == 0 || spec.Args[0] == "" {
		return nil, ErrEmptyArgs
	}

	dir, err := r.resolveDir(spec.Dir)
	if err != nil {
		return nil, err
	}

	timeout := r.Timeout
	if spec.Timeout > 0 {
		timeout = spec.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res := &Result{
		RunID:    uuid.New().String(),
		Args:     spec.Args,
		ExitCode: -1,
	}

	cmd := exec.CommandContext(ctx, spec.Args[0], spec.Args[1:]...)
	cmd.Dir = dir
	cmd.Env = r.environ(spec.Env)
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}
	grace := r.KillGrace
	if grace <= 0 {
		grace = DefaultKillGrace
	}
	reaped := killProcessGroup(cmd, grace)

	stdout := &limitWriter{limit: r.MaxOutput}
	stderr := &limitWriter{limit: r.MaxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if kind, ok := interrupted(ctx); ok {
			return nil, &RunError{Kind: kind, Args: spec.Args, Partial: res, Err: ctx.Err()}
		}
		return nil, &RunError{Kind: KindSpawn, Args: spec.Args, Err: err}
	}
	waitErr := cmd.Wait()
	reaped()

	res.Duration = time.Since(start)
	res.Stdout = stdout.buf.Bytes()
	res.Stderr = stderr.buf.Bytes()
	res.Truncated = stdout.truncated || stderr.truncated

	if waitErr == nil {
		res.ExitCode = 0
		return res, nil
	}

	// The context wins over whatever exit status the kill produced.
	if kind, ok := interrupted(ctx); ok {
		return nil, &RunError{Kind: kind, Args: spec.Args, Partial: res, Err: ctx.Err()}
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	// exec.ErrWaitDelay or a failed copy from one of the pipes.
	if state := cmd.ProcessState; state != nil {
		res.ExitCode = state.ExitCode()
	}
	return nil, &RunError{Kind: KindIO, Args: spec.Args, Partial: res, Err: waitErr}
}

// interrupted reports whether ctx ended, and how.
func interrupted(ctx context.Context) (ErrorKind, bool) {
	switch err := ctx.Err(); {
	case err == nil:
		return 0, false
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout, true
	default:
		return KindCanceled, true
	}
}

// environ returns the inherited environment with the runner defaults and
// then the spec overrides appended. exec keeps the last value for a
// duplicated key, so overrides win.
func (r *Runner) environ(overrides map[string]string) []string {
	env := os.Environ()
	env = appendSorted(env, r.Env)
	env = appendSorted(env, overrides)
	return env
}

func appendSorted(env []string, vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		env = append(env, k+"="+vars[k])
	}
	return env
}

// resolveDir resolves cwd relative to the workspace and validates it
// is within the workspace boundary. Without a workspace, cwd is used
// as given ("" means the current directory).
func (r *Runner) resolveDir(cwd string) (string, error) {
	if r.Workspace == "" {
		return cwd, nil
	}
	if cwd == "" {
		return r.Workspace, nil
	}

	var dir string
	if filepath.IsAbs(cwd) {
		dir = filepath.Clean(cwd)
	} else {
		dir = filepath.Clean(filepath.Join(r.Workspace, cwd))
	}

	rel, err := filepath.Rel(r.Workspace, dir)
	if err != nil {
		return "", fmt.Errorf("resolving cwd: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("cwd %q is outside workspace %q", cwd, r.Workspace)
	}
	return dir, nil
}

// limitWriter writes up to limit bytes to buf, then silently discards the
// rest. A limit <= 0 disables the cap. Each stream gets its own writer, and
// exec copies each stream on its own goroutine, so no locking is needed.
type limitWriter struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if w.limit <= 0 {
		return w.buf.Write(p)
	}
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		w.truncated = w.truncated || len(p) > 0
		return len(p), nil
	}
	if len(p) > remaining {
		// Report all bytes as consumed to avoid short write errors.
		w.buf.Write(p[:remaining])
		w.truncated = true
		return len(p), nil
	}
	return w.buf.Write(p)
}
