package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// State describes what the repository is in the middle of.
type State string

const (
	StateNormal        State = "normal"
	StateDetached      State = "detached"
	StateRebasing      State = "rebasing"
	StateMerging       State = "merging"
	StateCherryPicking State = "cherry-picking"
	StateReverting     State = "reverting"
	StateBisecting     State = "bisecting"
)

// InProgress reports whether a multi-step git operation is under way.
func (s State) InProgress() bool {
	return s != StateNormal && s != StateDetached
}

// stateMarkers maps files in the git dir to the operation they signal.
// Checked in order; rebases leave HEAD detached, so they come first.
var stateMarkers = []struct {
	name  string
	state State
}{
	{"rebase-merge", StateRebasing},
	{"rebase-apply", StateRebasing},
	{"MERGE_HEAD", StateMerging},
	{"CHERRY_PICK_HEAD", StateCherryPicking},
	{"REVERT_HEAD", StateReverting},
	{"BISECT_LOG", StateBisecting},
}

// HeadInfo describes HEAD.
type HeadInfo struct {
	Branch   string // short branch name; empty when detached
	Hash     string // full commit hash; empty when the branch is unborn
	Detached bool
}

// State returns the repository state. In-progress operations win over
// a detached HEAD.
func (r *Repo) State(ctx context.Context) (State, error) {
	gitDir, err := r.GitDir(ctx)
	if err != nil {
		return "", err
	}
	for _, m := range stateMarkers {
		if _, err := os.Stat(filepath.Join(gitDir, m.name)); err == nil {
			return m.state, nil
		}
	}

	head, err := r.Head(ctx)
	if err != nil {
		return "", err
	}
	if head.Detached {
		return StateDetached, nil
	}
	return StateNormal, nil
}

// Head reads HEAD through go-git, falling back to the CLI when go-git
// cannot open the repository (unsupported extensions, reftable, ...).
func (r *Repo) Head(ctx context.Context) (*HeadInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo, err := r.open()
	if err != nil {
		return r.headFromCLI(ctx)
	}

	ref, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return nil, fmt.Errorf("reading HEAD: %w", err)
	}
	info := &HeadInfo{}
	if ref.Type() == plumbing.SymbolicReference {
		info.Branch = ref.Target().Short()
	} else {
		info.Detached = true
	}

	resolved, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return info, nil
		}
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}
	info.Hash = resolved.Hash().String()
	return info, nil
}

// HeadMessage returns the full message of the HEAD commit, trimmed.
func (r *Repo) HeadMessage(ctx context.Context) (string, error) {
	head, err := r.Head(ctx)
	if err != nil {
		return "", err
	}
	if head.Hash == "" {
		return "", ErrNoCommits
	}

	repo, err := r.open()
	if err == nil {
		commit, err := repo.CommitObject(plumbing.NewHash(head.Hash))
		if err == nil {
			return strings.TrimSpace(commit.Message), nil
		}
	}

	out, err := r.output(ctx, "log", "-1", "--pretty=%B")
	if err != nil {
		return "", fmt.Errorf("reading HEAD message: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) open() (*gogit.Repository, error) {
	dir := r.Dir
	if dir == "" {
		dir = "."
	}
	return gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

func (r *Repo) headFromCLI(ctx context.Context) (*HeadInfo, error) {
	info := &HeadInfo{}

	res, err := r.Run(ctx, "symbolic-ref", "-q", "--short", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("reading HEAD: %w", err)
	}
	switch res.ExitCode {
	case 0:
		info.Branch = strings.TrimSpace(string(res.Stdout))
	case 1:
		info.Detached = true
	default:
		return nil, notRepository(&CommandError{
			Args:     []string{"symbolic-ref", "-q", "--short", "HEAD"},
			ExitCode: res.ExitCode,
			Stderr:   string(res.Stderr),
		})
	}

	res, err = r.Run(ctx, "rev-parse", "-q", "--verify", "HEAD^{commit}")
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}
	if res.ExitCode == 0 {
		info.Hash = strings.TrimSpace(string(res.Stdout))
	}
	return info, nil
}
