package runner

import "time"

// CommandSpec describes one process invocation. It is a value type: Run
// copies it on entry, so the caller may reuse or mutate its own copy.
type CommandSpec struct {
	Args    []string          // argv; Args[0] is the executable, looked up in PATH
	Dir     string            // working directory; resolved against Runner.Workspace when set
	Timeout time.Duration     // overrides Runner.Timeout when > 0
	Env     map[string]string // added to the inherited environment; wins over Runner.Env
}

// Command builds a CommandSpec from an argv.
func Command(args ...string) CommandSpec {
	return CommandSpec{Args: args}
}

// clone returns a deep copy of s.
func (s CommandSpec) clone() CommandSpec {
	c := s
	c.Args = append([]string(nil), s.Args...)
	if s.Env != nil {
		c.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			c.Env[k] = v
		}
	}
	return c
}

// Result holds the output of a completed process.
type Result struct {
	RunID     string        // unique identifier for this run
	Args      []string      // argv that was executed
	ExitCode  int           // process exit code; -1 if the process was killed
	Stdout    []byte        // captured stdout (may be truncated)
	Stderr    []byte        // captured stderr (may be truncated)
	Duration  time.Duration // wall-clock time from start to exit
	Truncated bool          // true if either stream exceeded the size cap
}

// Success reports whether the process exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}
