// Command reword renames the HEAD commit of a git repository.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/deixis/reword/internal/runner"
)

func main() {
	// Cancelling kills the running git command; an amend still restores
	// any stashed changes before returning.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "reword:", err)
		if h := hint(err); h != "" {
			fmt.Fprintln(os.Stderr, h)
		}
		os.Exit(1)
	}
}

// exitError carries a child process's exit code out of a command without
// printing anything.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// hint suggests a fix for spawn failures.
func hint(err error) string {
	if !errors.Is(err, runner.ErrSpawnFailed) {
		return ""
	}
	switch {
	case runner.IsNotFound(err):
		return "hint: git was not found; install it or set `git:` in .reword to its path"
	case runner.IsPermissionError(err):
		return "hint: git is not executable by this user"
	}
	return ""
}
