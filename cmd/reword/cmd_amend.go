package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deixis/reword/internal/prompt"
	rw "github.com/deixis/reword/internal/reword"
	"github.com/deixis/reword/internal/ui"
)

func newAmendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amend",
		Short: "Rename the HEAD commit",
		Long: `Rename the HEAD commit.

Without -m, an editor prefilled with the current message opens in the
terminal. Staged changes are folded into the commit unless
--exclude-staged is given; excluded changes are stashed during the amend
and restored to the index afterwards.`,
		Args: cobra.NoArgs,
		RunE: runAmend,
	}
	cmd.Flags().StringP("message", "m", "", "New commit message")
	cmd.Flags().Bool("include-staged", false, "Fold staged changes into the commit")
	cmd.Flags().Bool("exclude-staged", false, "Keep staged changes out of the commit")
	cmd.Flags().Bool("json", false, "Output the run record as JSON")
	cmd.MarkFlagsMutuallyExclusive("include-staged", "exclude-staged")
	return cmd
}

func runAmend(cmd *cobra.Command, _ []string) error {
	message, _ := cmd.Flags().GetString("message")
	include, _ := cmd.Flags().GetBool("include-staged")
	exclude, _ := cmd.Flags().GetBool("exclude-staged")
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	req := rw.Request{Message: message}
	switch {
	case include:
		req.IncludeStaged = &include
	case exclude:
		no := false
		req.IncludeStaged = &no
	}

	if !cmd.Flags().Changed("message") {
		if !ui.IsTerminal(os.Stdin) || !ui.IsTerminal(cmd.OutOrStdout()) {
			return errors.New("no message given; use -m or run in a terminal")
		}
		if req, err = promptRequest(cmd, a, req); err != nil {
			return err
		}
	}

	out, err := a.engine.Amend(cmd.Context(), req)
	if out == nil {
		return err
	}

	ev := a.log.Info()
	if err != nil {
		ev = a.log.Debug()
	}
	ev.Str("run_id", out.Run.ID).Str("status", out.Run.Status).Msg("amend")

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(out.Run); encErr != nil {
			return encErr
		}
		return err
	}
	if err != nil {
		return fmt.Errorf("%w (run %s)", err, out.Run.ID)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Commit renamed: %s -> %s\n", ui.Short(out.Before.Head), ui.Short(out.NewHead))
	if out.Stashed {
		fmt.Fprintln(w, "Staged changes were kept out of the commit and restored.")
	}
	if out.Warning != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", out.Warning)
	}
	if out.RestoreErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", out.RestoreErr)
		fmt.Fprintln(cmd.ErrOrStderr(), "Your staged changes are in the stash list; recover them with: git stash pop --index")
	}
	return nil
}

// promptRequest opens the interactive editor. The status is read first so
// refusals are reported before the editor opens.
func promptRequest(cmd *cobra.Command, a *app, req rw.Request) (rw.Request, error) {
	st, err := a.engine.Status(cmd.Context())
	if err != nil {
		return req, err
	}
	if err := st.Check(); err != nil {
		return req, err
	}

	include := a.cfg.IncludeStagedDefault()
	if req.IncludeStaged != nil {
		include = *req.IncludeStaged
	}

	ans, err := prompt.Run(prompt.Input{
		Message:        st.Message,
		HasStaged:      st.HasStaged,
		IncludeStaged:  include,
		DefaultInclude: a.cfg.IncludeStagedDefault(),
		MaxSubject:     a.cfg.SubjectLimit(),
	}, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return req, err
	}
	return rw.Request{Message: ans.Message, IncludeStaged: &ans.IncludeStaged}, nil
}
