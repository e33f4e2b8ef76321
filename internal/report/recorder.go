package report

import (
	"context"
	"sync"

	"github.com/deixis/reword/internal/runner"
)

// Executor runs a single command. Implemented by runner.Runner.
type Executor interface {
	Run(ctx context.Context, spec runner.CommandSpec) (*runner.Result, error)
}

// Recorder wraps an Executor and keeps a CommandRecord for every call,
// including calls that timed out or failed to start.
type Recorder struct {
	next Executor

	mu      sync.Mutex
	records []CommandRecord
}

// NewRecorder returns a Recorder that delegates to next.
func NewRecorder(next Executor) *Recorder {
	return &Recorder{next: next}
}

// Run delegates to the wrapped Executor and records the outcome.
func (r *Recorder) Run(ctx context.Context, spec runner.CommandSpec) (*runner.Result, error) {
	res, err := r.next.Run(ctx, spec)

	rec := CommandRecord{
		Args: append([]string(nil), spec.Args...),
		Dir:  spec.Dir,
	}
	out := res
	if err != nil {
		rec.Error = err.Error()
		rec.ExitCode = -1
		out = runner.PartialResult(err)
	}
	if out != nil {
		rec.RunID = out.RunID
		rec.ExitCode = out.ExitCode
		rec.Duration = out.Duration
		rec.Stdout = string(out.Stdout)
		rec.Stderr = string(out.Stderr)
		rec.Truncated = out.Truncated
	}

	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()

	return res, err
}

// Records returns a copy of the records captured so far, in call order.
func (r *Recorder) Records() []CommandRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CommandRecord(nil), r.records...)
}
