package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/reword/internal/report"
	"github.com/deixis/reword/internal/ui"
)

type inspectParams struct {
	RunID      string `json:"run_id,omitempty" jsonschema:"the run ID from a reword_status, reword_amend or reword_git result; empty lists recent runs"`
	Command    string `json:"command,omitempty" jsonschema:"git subcommand to filter by, e.g. stash or commit"`
	FailedOnly bool   `json:"failed_only,omitempty" jsonschema:"only show commands that exited non-zero or failed to run"`
	Limit      int    `json:"limit,omitempty" jsonschema:"number of recent runs to list when run_id is empty (default 10)"`
}

// runLister is implemented by report.DiskStore and report.LRUStore.
type runLister interface {
	List(limit int) ([]*report.RunResult, error)
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return h.listRuns(params.Limit)
	}

	result, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	commands := report.ByCommand(result, params.Command)
	if params.FailedOnly {
		commands = failedOf(commands)
	}
	return textResult(formatInspectOutput(result, params.Command, commands))
}

func (h *handler) listRuns(limit int) (*mcp.CallToolResult, any, error) {
	if limit <= 0 {
		limit = 10
	}

	lister, ok := h.store.(runLister)
	if !ok {
		return errorResult("This run store cannot list runs; pass a run_id.")
	}
	runs, err := lister.List(limit)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to list runs: %v", err))
	}

	if len(runs) == 0 {
		return textResult("No runs recorded yet.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent runs (%d):\n", len(runs))
	for _, r := range runs {
		fmt.Fprintf(&b, "  %s  %-6s  %-7s  %s  %s\n",
			r.ID, r.Kind, r.Status, r.Started.Format("2006-01-02 15:04:05"), r.Summary())
	}
	return textResult(b.String())
}

func failedOf(commands []report.CommandRecord) []report.CommandRecord {
	var out []report.CommandRecord
	for _, c := range commands {
		if c.Failed() {
			out = append(out, c)
		}
	}
	return out
}

func formatInspectOutput(result *report.RunResult, command string, commands []report.CommandRecord) string {
	var b strings.Builder

	// Run header.
	fmt.Fprintf(&b, "Run: %s (%s, %s)\n", result.ID, result.Kind, result.Status)
	fmt.Fprintf(&b, "Repository: %s\n", result.Repo)
	fmt.Fprintf(&b, "Started: %s\n", result.Started.Format("2006-01-02 15:04:05"))
	if result.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", result.Error)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}
	if result.Kind == report.Amend {
		if result.OldHead != "" {
			fmt.Fprintf(&b, "Old HEAD: %s %s\n", ui.Short(result.OldHead), ui.FirstLine(result.OldMessage))
		}
		if result.NewHead != "" {
			fmt.Fprintf(&b, "New HEAD: %s %s\n", ui.Short(result.NewHead), ui.FirstLine(result.NewMessage))
		}
		if result.Stashed {
			fmt.Fprintln(&b, "Staged changes were stashed during the amend.")
		}
	}
	fmt.Fprintln(&b)

	if len(commands) == 0 {
		if command != "" {
			fmt.Fprintf(&b, "No git %s commands in this run.\n", command)
		} else {
			fmt.Fprintln(&b, "No matching commands in this run.")
		}
		return b.String()
	}

	fmt.Fprintf(&b, "Commands (%d):\n", len(commands))
	for _, c := range commands {
		fmt.Fprintf(&b, "  %s\n", c.Line())
		writeIndented(&b, "stdout", c.Stdout)
		writeIndented(&b, "stderr", c.Stderr)
		if c.Truncated {
			fmt.Fprintln(&b, "    (output truncated)")
		}
	}
	return b.String()
}

func writeIndented(b *strings.Builder, label, text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	fmt.Fprintf(b, "    %s:\n", label)
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(b, "      %s\n", line)
	}
}
