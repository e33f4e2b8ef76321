// Package reword renames the HEAD commit of a git repository. It checks
// that the repository is in a state where a rename is safe, validates the
// new message, and amends the commit, optionally keeping staged changes
// out of it. Every run is recorded as a report.RunResult.
package reword

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deixis/reword/internal/config"
	"github.com/deixis/reword/internal/git"
	"github.com/deixis/reword/internal/report"
	"github.com/deixis/reword/internal/runner"
)

// Engine holds shared dependencies for all reword operations. It is
// consumed by both the MCP server and the CLI commands.
type Engine struct {
	Config *config.Config
	Runner report.Executor // usually a *runner.Runner
	Store  report.Store    // optional; runs are not persisted when nil
	Dir    string          // any directory inside the working tree
}

// Request describes a rename.
type Request struct {
	Message string
	// IncludeStaged folds staged changes into the amended commit. When
	// nil the configured default applies.
	IncludeStaged *bool
}

// Outcome is the result of Amend.
type Outcome struct {
	Run     *report.RunResult
	Before  *Status
	NewHead string
	Stashed bool   // staged changes were set aside during the amend
	Warning string // validation warning, e.g. long subject
	// RestoreErr is set when the commit was renamed but the stashed
	// changes could not be put back. They remain in the stash list.
	RestoreErr error
}

func (e *Engine) config() *config.Config {
	if e.Config != nil {
		return e.Config
	}
	return &config.Config{}
}

func (e *Engine) repo(exec git.Executor) *git.Repo {
	return &git.Repo{
		Runner: exec,
		Dir:    e.Dir,
		Binary: e.config().GitBinary(),
	}
}

func (e *Engine) newRun(kind report.Kind) *report.RunResult {
	return &report.RunResult{
		ID:      uuid.New().String(),
		Kind:    kind,
		Repo:    e.Dir,
		Started: time.Now(),
		Status:  report.StatusOK,
	}
}

func (e *Engine) save(run *report.RunResult, rec *report.Recorder) error {
	run.Commands = rec.Records()
	if e.Store == nil {
		return nil
	}
	if err := e.Store.Save(run); err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	return nil
}

// Inspect returns the status and records the commands it issued as a
// Status run.
func (e *Engine) Inspect(ctx context.Context) (*Status, *report.RunResult, error) {
	rec := report.NewRecorder(e.Runner)
	run := e.newRun(report.Status)

	st, err := e.status(ctx, e.repo(rec))
	if err != nil {
		run.Fail(err)
	} else {
		run.Repo = st.Root
		run.OldHead = st.Head
		run.OldMessage = st.Message
	}
	return st, run, errors.Join(err, e.save(run, rec))
}

// Amend renames the HEAD commit. The returned Outcome is non-nil whenever
// a run was recorded, including when err is non-nil, so callers can point
// at the run for details.
//
// When staged changes exist and are not to be included, they are stashed
// before the amend and restored afterwards. Restoring is attempted even
// when the amend fails or ctx is done.
func (e *Engine) Amend(ctx context.Context, req Request) (*Outcome, error) {
	cfg := e.config()
	rec := report.NewRecorder(e.Runner)
	repo := e.repo(rec)
	run := e.newRun(report.Amend)
	out := &Outcome{Run: run}

	err := e.amend(ctx, cfg, repo, req, out)
	if err != nil {
		var verr *ValidationError
		var perr *OperationInProgressError
		switch {
		case errors.As(err, &verr), errors.As(err, &perr),
			errors.Is(err, ErrDetachedHead), errors.Is(err, git.ErrNoCommits):
			run.Refuse(err)
		default:
			run.Fail(err)
		}
	}
	if out.RestoreErr != nil {
		run.Warnings = append(run.Warnings, out.RestoreErr.Error())
	}
	return out, errors.Join(err, e.save(run, rec))
}

func (e *Engine) amend(ctx context.Context, cfg *config.Config, repo *git.Repo, req Request, out *Outcome) error {
	run := out.Run

	st, err := e.status(ctx, repo)
	if err != nil {
		return err
	}
	out.Before = st
	run.Repo = st.Root
	run.OldHead = st.Head
	run.OldMessage = st.Message

	if err := st.Check(); err != nil {
		return err
	}

	include := cfg.IncludeStagedDefault()
	if req.IncludeStaged != nil {
		include = *req.IncludeStaged
	}
	message := strings.TrimSpace(req.Message)

	sel := Selection{HasStaged: st.HasStaged, Include: include, Initial: cfg.IncludeStagedDefault()}
	v := Validate(message, st.Message, sel, cfg.SubjectLimit())
	if !v.Valid {
		return &ValidationError{Problem: v.Problem}
	}
	if v.Warning != "" {
		out.Warning = v.Warning
		run.Warnings = append(run.Warnings, v.Warning)
	}

	if st.HasStaged && !include {
		stashed, err := repo.StashStaged(ctx, cfg.Stash())
		if err != nil {
			return fmt.Errorf("stashing staged changes: %w", err)
		}
		out.Stashed = stashed
		run.Stashed = stashed
	}

	amendErr := repo.Amend(ctx, message)

	if out.Stashed {
		// The stash holds the user's work; restore it even if ctx is done.
		if err := repo.StashPop(context.WithoutCancel(ctx)); err != nil {
			restoreErr := fmt.Errorf("failed to restore staged changes: %w", err)
			if amendErr != nil {
				return errors.Join(amendErr, restoreErr)
			}
			out.RestoreErr = fmt.Errorf("commit renamed, but %w", restoreErr)
		}
	}
	if amendErr != nil {
		return amendErr
	}

	head, err := repo.Head(ctx)
	if err != nil {
		return fmt.Errorf("reading new HEAD: %w", err)
	}
	out.NewHead = head.Hash
	run.NewHead = head.Hash
	run.NewMessage = message
	return nil
}

// Exec runs git with args in the repository and records it as an Exec
// run. A non-zero exit is not an error; it marks the run failed and is
// reported through the returned result.
func (e *Engine) Exec(ctx context.Context, args []string) (*runner.Result, *report.RunResult, error) {
	rec := report.NewRecorder(e.Runner)
	run := e.newRun(report.Exec)

	var res *runner.Result
	var err error
	if len(args) == 0 {
		err = runner.ErrEmptyArgs
	} else {
		res, err = e.repo(rec).Run(ctx, args...)
	}
	switch {
	case err != nil:
		run.Fail(err)
	case res.ExitCode != 0:
		run.Status = report.StatusFailed
		run.Error = fmt.Sprintf("exit status %d", res.ExitCode)
	}
	return res, run, errors.Join(err, e.save(run, rec))
}
