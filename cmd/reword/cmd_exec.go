package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/deixis/reword/internal/runner"
)

func newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec -- <git args>",
		Short: "Run git through the command runner and record it",
		Long: `Run git with the given arguments through the command runner.

The command's output is passed through and reword exits with git's exit
code. The run is recorded in the history like any other.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExec,
	}
	cmd.Flags().Bool("json", false, "Print the result as JSON instead of passing output through")
	return cmd
}

type execOutput struct {
	RunID     string        `json:"run_id"`
	Args      []string      `json:"args"`
	ExitCode  int           `json:"exit_code"`
	Stdout    string        `json:"stdout"`
	Stderr    string        `json:"stderr"`
	Duration  time.Duration `json:"duration"`
	Truncated bool          `json:"truncated,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func runExec(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	res, run, err := a.engine.Exec(cmd.Context(), args)
	if res == nil {
		res = runner.PartialResult(err)
	}
	if res == nil {
		return err
	}

	if asJSON {
		o := execOutput{
			RunID:     run.ID,
			Args:      res.Args,
			ExitCode:  res.ExitCode,
			Stdout:    string(res.Stdout),
			Stderr:    string(res.Stderr),
			Duration:  res.Duration,
			Truncated: res.Truncated,
		}
		if err != nil {
			o.Error = err.Error()
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(o); encErr != nil {
			return encErr
		}
	} else {
		_, _ = cmd.OutOrStdout().Write(res.Stdout)
		_, _ = cmd.ErrOrStderr().Write(res.Stderr)
	}

	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &exitError{code: res.ExitCode}
	}
	return nil
}
