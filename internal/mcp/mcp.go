// Package mcp provides the reword MCP server, registering all tools
// and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/deixis/reword"
	"github.com/deixis/reword/internal/config"
	"github.com/deixis/reword/internal/logging"
	"github.com/deixis/reword/internal/report"
	rw "github.com/deixis/reword/internal/reword"
	"github.com/deixis/reword/internal/runner"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	engine *rw.Engine
	runner *runner.Runner // retained for updateWorkspaceFromRoots
	store  report.Store
	log    zerolog.Logger

	// mu serialises tool calls and workspace updates.
	mu sync.Mutex
}

// NewServer creates an MCP server with all reword tools registered. dir
// is the repository the tools act on until the client reports a root.
// The server works on its own copy of r, so a root reported by one client
// never retargets another server built from the same runner. Serve each
// HTTP session from its own server.
func NewServer(cfg *config.Config, r *runner.Runner, store report.Store, dir string, opts ...ServerOption) *mcp.Server {
	so := serverOptions{logger: logging.Logger}
	for _, o := range opts {
		o(&so)
	}

	rc := *r
	r = &rc

	h := &handler{
		engine: &rw.Engine{
			Config: cfg,
			Runner: logging.Commands{Next: r, Logger: so.logger},
			Store:  store,
			Dir:    dir,
		},
		runner: r,
		store:  store,
		log:    so.logger,
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "reword", Version: reword.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "reword_status",
		Description: `Report whether the HEAD commit can be renamed: branch, HEAD hash, repository state,
staged changes and the current commit message.

Call this before reword_amend. Refusal reasons (no commits, detached HEAD, merge or rebase
in progress) are listed explicitly.`,
	}, h.statusHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "reword_amend",
		Description: `Rename the HEAD commit with a new message.

Set include_staged=false to keep currently staged changes out of the commit: they are stashed
during the amend and restored afterwards. The message must differ from the current one unless
staged changes exist and include_staged departs from the default. Every git command is recorded for drill-down via reword_inspect.`,
	}, h.amendHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "reword_git",
		Description: `Run a read-only git command in the repository (log, show, diff, status, rev-parse, ...).

Pass the arguments after "git" as a list, e.g. ["log", "-3", "--oneline"]. Commands that change the
repository are rejected; use reword_amend for renames.`,
	}, h.gitHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "reword_inspect",
		Description: `Drill into a recorded run from reword_status, reword_amend or reword_git.

With a run_id, returns the run's outcome and the git commands it issued, optionally filtered by
git subcommand (e.g. "stash") or to failures only. Without a run_id, lists recent runs.`,
	}, h.inspectHandler)

	return s
}

// ServerOption configures the reword MCP server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	logger zerolog.Logger
}

// WithLogger sets the logger used for tool calls and git commands.
func WithLogger(l zerolog.Logger) ServerOption {
	return func(o *serverOptions) {
		o.logger = l
	}
}

// updateWorkspaceFromRoots queries the client for MCP roots and updates the
// handler's engine, runner, and config if a valid root is returned.
// This is called during session initialization, before any tool calls.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil {
		h.log.Debug().Err(err).Msg("client did not list roots")
		return
	}
	if len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}
	workspace := u.Path

	loaded, err := config.Load(workspace)
	if err != nil {
		h.log.Warn().Err(err).Str("root", workspace).Msg("ignoring client root")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.runner.Workspace = loaded.RepoRoot
	h.runner.Timeout = loaded.Config.Timeout()
	h.runner.MaxOutput = loaded.Config.MaxOutputBytes()
	h.runner.Env = loaded.Config.Env

	h.engine.Config = loaded.Config
	h.engine.Dir = workspace
	h.log.Info().Str("root", workspace).Msg("workspace updated from client root")
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
