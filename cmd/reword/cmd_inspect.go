package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/deixis/reword/internal/report"
	"github.com/deixis/reword/internal/ui"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <run-id> [git-subcommand]",
		Short: "Show the git commands a run issued",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runInspect,
	}
	cmd.Flags().Bool("failed", false, "Only show commands that failed")
	cmd.Flags().BoolP("verbose", "v", false, "Show command output")
	cmd.Flags().Bool("json", false, "Output the run record as JSON")
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	failedOnly, _ := cmd.Flags().GetBool("failed")
	verbose, _ := cmd.Flags().GetBool("verbose")
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	result, err := a.store.Load(args[0])
	if err != nil {
		return err
	}

	sub := ""
	if len(args) == 2 {
		sub = args[1]
	}
	var commands []report.CommandRecord
	for _, c := range report.ByCommand(result, sub) {
		if failedOnly && !c.Failed() {
			continue
		}
		commands = append(commands, c)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		filtered := *result
		filtered.Commands = commands
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(&filtered)
	}

	fmt.Fprintf(out, "Run %s (%s, %s) in %s\n", result.ID, result.Kind, result.Status, result.Repo)
	if result.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", result.Error)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
	if result.OldHead != "" && result.NewHead != "" {
		fmt.Fprintf(out, "%s %q -> %s %q\n",
			ui.Short(result.OldHead), ui.FirstLine(result.OldMessage),
			ui.Short(result.NewHead), ui.FirstLine(result.NewMessage))
	}
	fmt.Fprintln(out)

	if len(commands) == 0 {
		_, err := fmt.Fprintln(out, "No matching commands.")
		return err
	}

	tbl := ui.NewTable(out, "EXIT", "DURATION", "COMMAND")
	for _, c := range commands {
		exit := fmt.Sprint(c.ExitCode)
		if c.Error != "" {
			exit = "error"
		}
		tbl.Row(exit, c.Duration.Round(time.Millisecond), strings.Join(c.Args, " "))
	}
	if err := tbl.Flush(); err != nil {
		return err
	}

	if verbose {
		for _, c := range commands {
			fmt.Fprintf(out, "\n$ %s\n", strings.Join(c.Args, " "))
			if c.Error != "" {
				fmt.Fprintf(out, "error: %s\n", c.Error)
			}
			if c.Stdout != "" {
				fmt.Fprint(out, c.Stdout)
			}
			if c.Stderr != "" {
				fmt.Fprintf(out, "stderr:\n%s", c.Stderr)
			}
		}
	}
	return nil
}
