package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/reword/internal/report"
	rw "github.com/deixis/reword/internal/reword"
	"github.com/deixis/reword/internal/ui"
)

type amendParams struct {
	Message       string `json:"message" jsonschema:"the new commit message; subject line first, optional body after a blank line"`
	IncludeStaged *bool  `json:"include_staged,omitempty" jsonschema:"fold currently staged changes into the commit (default from .reword, normally true)"`
}

func (h *handler) amendHandler(ctx context.Context, req *mcp.CallToolRequest, params amendParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(params.Message) == "" {
		return errorResult("message is required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out, err := h.engine.Amend(ctx, rw.Request{
		Message:       params.Message,
		IncludeStaged: params.IncludeStaged,
	})
	if out == nil {
		return errorResult(fmt.Sprintf("Rename failed: %v", err))
	}

	logEvent := h.log.Info()
	if err != nil {
		logEvent = h.log.Warn().Err(err)
	}
	logEvent.Str("run_id", out.Run.ID).Str("status", out.Run.Status).Msg("amend")

	if err != nil {
		return errorResult(formatAmendFailure(out, err))
	}
	return textResult(formatAmend(out))
}

func formatAmend(out *rw.Outcome) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (amend)\n", out.Run.ID)
	fmt.Fprintf(&b, "Commit renamed: %s -> %s\n", ui.Short(out.Before.Head), ui.Short(out.NewHead))
	if out.Stashed {
		fmt.Fprintln(&b, "Staged changes were kept out of the commit and restored to the index.")
	}
	if out.Warning != "" {
		fmt.Fprintf(&b, "Warning: %s\n", out.Warning)
	}
	if out.RestoreErr != nil {
		fmt.Fprintf(&b, "Warning: %v\n", out.RestoreErr)
		fmt.Fprintln(&b, "The staged changes are still in the stash list; run `git stash pop --index` to recover them.")
	}
	return b.String()
}

func formatAmendFailure(out *rw.Outcome, err error) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (amend, %s)\n", out.Run.ID, out.Run.Status)
	fmt.Fprintf(&b, "%v\n", err)
	if out.Run.Status != report.StatusRefused {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Use reword_inspect with this run_id to see the git commands and their output.")
	}
	return b.String()
}
