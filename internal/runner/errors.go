package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrorKind classifies a RunError.
type ErrorKind int

const (
	// KindSpawn means the process could not be started.
	KindSpawn ErrorKind = iota + 1
	// KindTimeout means the process outlived its deadline and was killed.
	KindTimeout
	// KindCanceled means the caller's context was canceled and the process was killed.
	KindCanceled
	// KindIO means the captured output streams could not be read.
	KindIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindSpawn:
		return "spawn failed"
	case KindTimeout:
		return "timed out"
	case KindCanceled:
		return "canceled"
	case KindIO:
		return "output error"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. A *RunError matches the sentinel of its kind.
var (
	ErrEmptyArgs   = errors.New("empty argv")
	ErrSpawnFailed = &RunError{Kind: KindSpawn}
	ErrTimeout     = &RunError{Kind: KindTimeout}
	ErrCanceled    = &RunError{Kind: KindCanceled}
	ErrIO          = &RunError{Kind: KindIO}
)

// RunError is returned by Runner.Run for every failure other than an
// invalid spec. Partial holds whatever output was captured before the
// failure; it is nil for spawn failures.
type RunError struct {
	Kind    ErrorKind
	Args    []string
	Partial *Result
	Err     error
}

func (e *RunError) Error() string {
	var b strings.Builder
	if len(e.Args) > 0 {
		fmt.Fprintf(&b, "%s: ", e.Args[0])
	}
	b.WriteString(e.Kind.String())
	if e.Kind == KindTimeout && e.Partial != nil {
		fmt.Fprintf(&b, " after %s", e.Partial.Duration.Round(time.Millisecond))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Is matches any *RunError of the same kind, so callers can write
// errors.Is(err, runner.ErrTimeout).
func (e *RunError) Is(target error) bool {
	t, ok := target.(*RunError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// PartialResult returns the output captured before err, if err is a
// *RunError that carries any.
func PartialResult(err error) *Result {
	var re *RunError
	if errors.As(err, &re) {
		return re.Partial
	}
	return nil
}

// IsNotFound reports whether err is a spawn failure because the
// executable does not exist or is not in PATH.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}
