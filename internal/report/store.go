// Package report records what each reword run did: its outcome and every
// git command it issued. Results are stored as typed structs and can be
// queried by git subcommand.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Kind identifies the type of a run.
type Kind string

const (
	// Status is a read-only repository inspection.
	Status Kind = "status"
	// Amend is a commit rename.
	Amend Kind = "amend"
	// Exec is an arbitrary git command issued on the caller's behalf.
	Exec Kind = "exec"
)

// Outcome values for RunResult.Status.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusRefused = "refused" // preconditions or validation stopped the run
)

// Store persists and retrieves run results.
type Store interface {
	Save(result *RunResult) error
	Load(runID string) (*RunResult, error)
}

// RunResult holds the structured record of one run.
type RunResult struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Repo     string    `json:"repo"`
	Started  time.Time `json:"started"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`

	// Amend fields.
	OldHead    string `json:"old_head,omitempty"`
	NewHead    string `json:"new_head,omitempty"`
	OldMessage string `json:"old_message,omitempty"`
	NewMessage string `json:"new_message,omitempty"`
	Stashed    bool   `json:"stashed,omitempty"`

	Commands []CommandRecord `json:"commands,omitempty"`
}

// Expect returns an error if the run's Kind does not match want.
func (r *RunResult) Expect(want Kind) error {
	if r.Kind != want {
		return fmt.Errorf("run %s is a %s run, not a %s run", r.ID, r.Kind, want)
	}
	return nil
}

// Fail marks the run failed with err.
func (r *RunResult) Fail(err error) {
	r.Status = StatusFailed
	r.Error = err.Error()
}

// Refuse marks the run refused with err.
func (r *RunResult) Refuse(err error) {
	r.Status = StatusRefused
	r.Error = err.Error()
}

// Summary is a one-line description of the run for listings.
func (r *RunResult) Summary() string {
	switch {
	case r.Error != "":
		return firstLine(r.Error)
	case r.Kind == Amend:
		return firstLine(r.NewMessage)
	case r.Kind == Exec && len(r.Commands) > 0 && len(r.Commands[0].Args) > 0:
		return "git " + strings.Join(r.Commands[0].Args[1:], " ")
	case r.Kind == Status:
		return firstLine(r.OldMessage)
	}
	return ""
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// CommandRecord is one command issued during a run.
type CommandRecord struct {
	RunID     string        `json:"run_id,omitempty"` // runner.Result.RunID
	Args      []string      `json:"args"`
	Dir       string        `json:"dir,omitempty"`
	ExitCode  int           `json:"exit_code"`
	Duration  time.Duration `json:"duration"`
	Stdout    string        `json:"stdout,omitempty"`
	Stderr    string        `json:"stderr,omitempty"`
	Truncated bool          `json:"truncated,omitempty"`
	Error     string        `json:"error,omitempty"` // runner failure (spawn, timeout, ...)
}

// Subcommand returns the git subcommand of the record ("commit", "stash",
// ...). Global options before the subcommand are skipped.
func (c CommandRecord) Subcommand() string {
	if len(c.Args) < 2 {
		return ""
	}
	args := c.Args[1:]
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-C" || a == "-c" || a == "--git-dir" || a == "--work-tree":
			i++ // skip the option's value
		case strings.HasPrefix(a, "-"):
		default:
			return a
		}
	}
	return ""
}

// Line renders the record as a single line for listings.
func (c CommandRecord) Line() string {
	if len(c.Args) == 0 {
		return "(no command)"
	}
	args := append([]string{filepath.Base(c.Args[0])}, c.Args[1:]...)
	status := fmt.Sprintf("exit %d", c.ExitCode)
	if c.Error != "" {
		status = c.Error
	}
	return fmt.Sprintf("%s (%s, %s)", strings.Join(args, " "), status, c.Duration.Round(time.Millisecond))
}

// ByCommand returns the records whose git subcommand is sub. An empty sub
// returns every record.
func ByCommand(result *RunResult, sub string) []CommandRecord {
	if sub == "" {
		return result.Commands
	}
	var out []CommandRecord
	for _, c := range result.Commands {
		if c.Subcommand() == sub {
			out = append(out, c)
		}
	}
	return out
}

// Failed reports whether the command exited non-zero or failed to run.
func (c CommandRecord) Failed() bool {
	return c.ExitCode != 0 || c.Error != ""
}

// Failed returns the records that exited non-zero or failed to run.
func Failed(result *RunResult) []CommandRecord {
	var out []CommandRecord
	for _, c := range result.Commands {
		if c.Failed() {
			out = append(out, c)
		}
	}
	return out
}
