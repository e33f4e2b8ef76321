package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	rw "github.com/deixis/reword/internal/reword"
)

type statusParams struct{}

func (h *handler) statusHandler(ctx context.Context, req *mcp.CallToolRequest, _ statusParams) (*mcp.CallToolResult, any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st, run, err := h.engine.Inspect(ctx)
	if st == nil {
		return errorResult(fmt.Sprintf("Failed to inspect repository: %v", err))
	}
	if err != nil {
		h.log.Warn().Err(err).Str("run_id", run.ID).Msg("status run not saved")
	}
	return textResult(formatStatus(run.ID, st))
}

func formatStatus(runID string, st *rw.Status) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (status)\n", runID)
	fmt.Fprintf(&b, "Repository: %s\n", st.Root)
	if st.Branch != "" {
		fmt.Fprintf(&b, "Branch: %s\n", st.Branch)
	}
	if st.Head != "" {
		fmt.Fprintf(&b, "HEAD: %s\n", st.Head)
	}
	fmt.Fprintf(&b, "State: %s\n", st.State)
	fmt.Fprintf(&b, "Staged changes: %t\n", st.HasStaged)

	if err := st.Check(); err != nil {
		fmt.Fprintf(&b, "Can rename: no (%v)\n", err)
	} else {
		fmt.Fprintln(&b, "Can rename: yes")
	}

	if st.Message != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Message:")
		for _, line := range strings.Split(strings.TrimRight(st.Message, "\n"), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String()
}
