package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/deixis/reword/internal/config"
	"github.com/deixis/reword/internal/report"
	"github.com/deixis/reword/internal/runner"
	"github.com/deixis/reword/internal/testutil"
)

// setup creates a full reword MCP server + client over in-memory transports.
// repoDir should be a prepared repository.
func setup(t *testing.T, repoDir string) *mcp.ClientSession {
	t.Helper()
	cfg := &config.Config{}
	store := report.NewLRUStore(5, report.NewDiskStore(t.TempDir()))
	r := &runner.Runner{
		Workspace: repoDir,
		Timeout:   30 * time.Second,
		MaxOutput: cfg.MaxOutputBytes(),
	}
	return connect(t, NewServer(cfg, r, store, repoDir, WithLogger(zerolog.Nop())))
}

// connect attaches a client reporting roots to server.
func connect(t *testing.T, server *mcp.Server, roots ...string) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	for _, root := range roots {
		client.AddRoots(&mcp.Root{URI: "file://" + root})
	}
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return res
}

func resultText(r *mcp.CallToolResult) string {
	var parts []string
	for _, c := range r.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// runID extracts the ID from the "Run: <id> ..." header line.
func runID(t *testing.T, text string) string {
	t.Helper()
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "Run: ") {
			return strings.Fields(line)[1]
		}
	}
	t.Fatalf("no run ID in:\n%s", text)
	return ""
}

func TestListTools(t *testing.T) {
	cs := setup(t, testutil.CreateRepo(t))
	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	got := map[string]bool{}
	for _, tool := range res.Tools {
		got[tool.Name] = true
	}
	for _, name := range []string{"reword_status", "reword_amend", "reword_git", "reword_inspect"} {
		if !got[name] {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestRoots_PerServer(t *testing.T) {
	first := testutil.CreateRepo(t)
	second := testutil.CreateRepo(t)
	testutil.CommitFile(t, second, "b.txt", "b", "second repository")

	cfg := &config.Config{}
	store := report.NewLRUStore(5, report.NewDiskStore(t.TempDir()))
	r := &runner.Runner{Workspace: first, Timeout: 30 * time.Second}

	csFirst := connect(t, NewServer(cfg, r, store, first, WithLogger(zerolog.Nop())))
	csSecond := connect(t, NewServer(cfg, r, store, first, WithLogger(zerolog.Nop())), second)

	// The second client's root is applied during initialization.
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(resultText(callTool(t, csSecond, "reword_status", nil)), "second repository") {
		if time.Now().After(deadline) {
			t.Fatal("second server never followed its client's root")
		}
		time.Sleep(20 * time.Millisecond)
	}

	text := resultText(callTool(t, csFirst, "reword_status", nil))
	if !strings.Contains(text, "initial commit") || strings.Contains(text, "second repository") {
		t.Errorf("first server was retargeted:\n%s", text)
	}
	if r.Workspace != first {
		t.Errorf("shared runner Workspace = %q, want %q", r.Workspace, first)
	}
}

// --- reword_status ---

func TestStatus(t *testing.T) {
	dir := testutil.CreateRepo(t)
	cs := setup(t, dir)

	res := callTool(t, cs, "reword_status", nil)
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	for _, want := range []string{"Branch: main", "State: normal", "Staged changes: false", "Can rename: yes", "initial commit"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in output, got:\n%s", want, text)
		}
	}
}

func TestStatus_Detached(t *testing.T) {
	dir := testutil.CreateRepo(t)
	testutil.Git(t, dir, "checkout", "--detach", "HEAD")
	cs := setup(t, dir)

	text := resultText(callTool(t, cs, "reword_status", nil))
	if !strings.Contains(text, "Can rename: no") || !strings.Contains(text, "detached") {
		t.Errorf("expected detached refusal, got:\n%s", text)
	}
}

// --- reword_amend ---

func TestAmend(t *testing.T) {
	dir := testutil.CreateRepo(t)
	cs := setup(t, dir)

	res := callTool(t, cs, "reword_amend", map[string]any{"message": "renamed by tool"})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "Commit renamed:") {
		t.Errorf("expected rename summary, got:\n%s", text)
	}
	if got := testutil.Git(t, dir, "log", "-1", "--pretty=%B"); got != "renamed by tool" {
		t.Errorf("HEAD message = %q", got)
	}

	// Drill into the run.
	id := runID(t, text)
	res = callTool(t, cs, "reword_inspect", map[string]any{"run_id": id, "command": "commit"})
	text = resultText(res)
	if res.IsError {
		t.Fatalf("inspect error: %s", text)
	}
	if !strings.Contains(text, "commit --amend -m renamed by tool") {
		t.Errorf("expected amend command in inspect output, got:\n%s", text)
	}
	if strings.Contains(text, "rev-parse") {
		t.Errorf("filter by commit leaked other commands:\n%s", text)
	}
}

func TestAmend_ExcludeStaged(t *testing.T) {
	dir := testutil.CreateRepo(t)
	testutil.WriteFile(t, dir, "staged.txt", "staged")
	testutil.Git(t, dir, "add", "staged.txt")
	cs := setup(t, dir)

	res := callTool(t, cs, "reword_amend", map[string]any{"message": "renamed", "include_staged": false})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "restored to the index") {
		t.Errorf("expected stash note, got:\n%s", text)
	}
	if got := testutil.Git(t, dir, "diff", "--cached", "--name-only"); got != "staged.txt" {
		t.Errorf("staged files = %q, want staged.txt", got)
	}
}

func TestAmend_Refused(t *testing.T) {
	cs := setup(t, testutil.CreateRepo(t))

	res := callTool(t, cs, "reword_amend", map[string]any{"message": "initial commit"})
	if !res.IsError {
		t.Fatal("expected error for unchanged message")
	}
	text := resultText(res)
	if !strings.Contains(text, "Adjust the commit message") || !strings.Contains(text, "refused") {
		t.Errorf("unexpected output:\n%s", text)
	}
}

func TestAmend_MissingMessage(t *testing.T) {
	cs := setup(t, testutil.CreateRepo(t))
	res := callTool(t, cs, "reword_amend", map[string]any{"message": "  "})
	if !res.IsError || !strings.Contains(resultText(res), "message is required") {
		t.Errorf("expected missing message error, got: %s", resultText(res))
	}
}

// --- reword_git ---

func TestGit(t *testing.T) {
	cs := setup(t, testutil.CreateRepo(t))

	res := callTool(t, cs, "reword_git", map[string]any{"args": []string{"log", "--oneline"}})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "initial commit") || !strings.Contains(text, "exit 0") {
		t.Errorf("unexpected output:\n%s", text)
	}
}

func TestGit_NonZeroExit(t *testing.T) {
	cs := setup(t, testutil.CreateRepo(t))

	res := callTool(t, cs, "reword_git", map[string]any{"args": []string{"rev-parse", "--verify", "nope"}})
	if !res.IsError {
		t.Fatal("expected error result for non-zero exit")
	}
	if !strings.Contains(resultText(res), "stderr:") {
		t.Errorf("expected stderr in output:\n%s", resultText(res))
	}
}

func TestGit_RejectsMutations(t *testing.T) {
	dir := testutil.CreateRepo(t)
	head := testutil.Git(t, dir, "rev-parse", "HEAD")
	cs := setup(t, dir)

	res := callTool(t, cs, "reword_git", map[string]any{"args": []string{"commit", "--amend", "-m", "x"}})
	if !res.IsError || !strings.Contains(resultText(res), "not allowed") {
		t.Errorf("expected rejection, got: %s", resultText(res))
	}
	if got := testutil.Git(t, dir, "rev-parse", "HEAD"); got != head {
		t.Error("HEAD changed")
	}
}

func TestGit_RejectsNoIndex(t *testing.T) {
	dir := testutil.CreateRepo(t)
	outside := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(outside, []byte("outside the repository\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cs := setup(t, dir)

	res := callTool(t, cs, "reword_git", map[string]any{"args": []string{"diff", "--no-index", outside, "/dev/null"}})
	text := resultText(res)
	if !res.IsError || !strings.Contains(text, "not allowed") {
		t.Errorf("expected rejection, got: %s", text)
	}
	if strings.Contains(text, "outside the repository") {
		t.Errorf("file outside the repository was read:\n%s", text)
	}
}

func TestCheckReadOnly(t *testing.T) {
	tests := []struct {
		args []string
		ok   bool
	}{
		{[]string{"log", "-3"}, true},
		{[]string{"show", "HEAD"}, true},
		{[]string{"symbolic-ref", "HEAD"}, true},
		{[]string{"symbolic-ref", "HEAD", "refs/heads/x"}, false},
		{[]string{"diff", "--output=/tmp/x"}, false},
		{[]string{"diff", "--output", "/tmp/x"}, false},
		{[]string{"diff", "--ext-diff"}, false},
		{[]string{"diff", "--text", "HEAD"}, true},
		{[]string{"diff", "--no-index", "/etc/hostname", "/dev/null"}, false},
		{[]string{"blame", "--contents", "/etc/passwd", "README.md"}, false},
		{[]string{"blame", "--conte=/etc/passwd", "README.md"}, false},
		{[]string{"log", "--", "--no-index"}, true},
		{[]string{"reflog", "show"}, true},
		{[]string{"reflog", "delete", "HEAD@{0}"}, false},
		{[]string{"reflog", "expire", "--all"}, false},
		{[]string{"-c", "core.pager=x", "log"}, false},
		{[]string{"push"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		err := checkReadOnly(tt.args)
		if (err == nil) != tt.ok {
			t.Errorf("checkReadOnly(%q) = %v, want ok=%v", tt.args, err, tt.ok)
		}
	}
}

// --- reword_inspect ---

func TestInspect_ListsRuns(t *testing.T) {
	cs := setup(t, testutil.CreateRepo(t))

	res := callTool(t, cs, "reword_inspect", nil)
	if !strings.Contains(resultText(res), "No runs recorded yet.") {
		t.Errorf("expected empty listing, got:\n%s", resultText(res))
	}

	callTool(t, cs, "reword_status", nil)
	callTool(t, cs, "reword_git", map[string]any{"args": []string{"log", "-1"}})

	text := resultText(callTool(t, cs, "reword_inspect", nil))
	if !strings.Contains(text, "Recent runs (2)") {
		t.Errorf("expected two runs, got:\n%s", text)
	}
	if !strings.Contains(text, "exec") || !strings.Contains(text, "status") {
		t.Errorf("expected both run kinds, got:\n%s", text)
	}
}

func TestInspect_FailedOnly(t *testing.T) {
	cs := setup(t, testutil.CreateRepo(t))

	text := resultText(callTool(t, cs, "reword_status", nil))
	res := callTool(t, cs, "reword_inspect", map[string]any{"run_id": runID(t, text), "failed_only": true})
	if !strings.Contains(resultText(res), "No matching commands") {
		t.Errorf("status run should have no failed commands:\n%s", resultText(res))
	}
}

func TestInspect_UnknownRun(t *testing.T) {
	cs := setup(t, testutil.CreateRepo(t))
	res := callTool(t, cs, "reword_inspect", map[string]any{"run_id": "00000000-0000-0000-0000-000000000000"})
	if !res.IsError {
		t.Errorf("expected error for unknown run, got: %s", resultText(res))
	}
}
