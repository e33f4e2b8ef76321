package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deixis/reword/internal/ui"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().IntP("limit", "n", 10, "Number of runs to show (0 for all)")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	runs, err := a.store.List(limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No runs recorded yet.")
		return err
	}

	tbl := ui.NewTable(out, "ID", "KIND", "STATUS", "STARTED", "SUMMARY")
	for _, r := range runs {
		tbl.Row(r.ID, r.Kind, r.Status, r.Started.Local().Format("2006-01-02 15:04:05"), r.Summary())
	}
	return tbl.Flush()
}
