package reword

import (
	"context"
	"errors"
	"fmt"

	"github.com/deixis/reword/internal/git"
)

// ErrDetachedHead is returned when HEAD does not point at a branch.
var ErrDetachedHead = errors.New("cannot rename commit in detached HEAD state")

// OperationInProgressError is returned while git is in the middle of a
// rebase, merge or similar operation.
type OperationInProgressError struct {
	State git.State
}

func (e *OperationInProgressError) Error() string {
	return fmt.Sprintf("cannot rename commit while git is %s", e.State)
}

// Status is a snapshot of everything the rename needs to know.
type Status struct {
	Root      string    `json:"root"`
	Branch    string    `json:"branch,omitempty"`
	Head      string    `json:"head,omitempty"`
	State     git.State `json:"state"`
	HasStaged bool      `json:"has_staged"`
	Message   string    `json:"message,omitempty"`
}

// Check returns the reason the HEAD commit cannot be renamed, or nil.
func (s *Status) Check() error {
	switch {
	case s.Head == "":
		return fmt.Errorf("repository does not contain commits to rename yet: %w", git.ErrNoCommits)
	case s.State.InProgress():
		return &OperationInProgressError{State: s.State}
	case s.State == git.StateDetached:
		return ErrDetachedHead
	}
	return nil
}

// Status inspects the repository without changing it.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	return e.status(ctx, e.repo(e.Runner))
}

func (e *Engine) status(ctx context.Context, repo *git.Repo) (*Status, error) {
	root, err := repo.Root(ctx)
	if err != nil {
		return nil, err
	}
	st := &Status{Root: root}

	if st.State, err = repo.State(ctx); err != nil {
		return nil, fmt.Errorf("reading repository state: %w", err)
	}

	head, err := repo.Head(ctx)
	if err != nil {
		return nil, err
	}
	st.Branch = head.Branch
	st.Head = head.Hash

	if st.HasStaged, err = repo.HasStagedChanges(ctx); err != nil {
		return nil, fmt.Errorf("checking staged changes: %w", err)
	}

	if st.Head != "" {
		if st.Message, err = repo.HeadMessage(ctx); err != nil {
			return nil, fmt.Errorf("failed to retrieve current commit message: %w", err)
		}
	}
	return st, nil
}
