package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	rw "github.com/deixis/reword/internal/reword"
	"github.com/deixis/reword/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the HEAD commit can be renamed",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

type statusOutput struct {
	*rw.Status
	RunID     string `json:"run_id"`
	CanRename bool   `json:"can_rename"`
	Reason    string `json:"reason,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	st, run, err := a.engine.Inspect(cmd.Context())
	if st == nil {
		return err
	}
	if err != nil {
		a.log.Warn().Err(err).Msg("status run not saved")
	}

	s := statusOutput{Status: st, RunID: run.ID, CanRename: true}
	if err := st.Check(); err != nil {
		s.CanRename = false
		s.Reason = err.Error()
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	branch := st.Branch
	if branch == "" {
		branch = "(detached)"
	}
	can := "yes"
	if !s.CanRename {
		can = "no: " + s.Reason
	}

	fmt.Fprintf(out, "Repository:  %s\n", st.Root)
	fmt.Fprintf(out, "Branch:      %s\n", branch)
	fmt.Fprintf(out, "HEAD:        %s %s\n", ui.Short(st.Head), ui.FirstLine(st.Message))
	fmt.Fprintf(out, "State:       %s\n", st.State)
	fmt.Fprintf(out, "Staged:      %t\n", st.HasStaged)
	fmt.Fprintf(out, "Can rename:  %s\n", can)
	return nil
}
