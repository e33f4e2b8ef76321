package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/reword/internal/runner"
)

type gitParams struct {
	Args []string `json:"args" jsonschema:"arguments after git, for example log -3 --oneline as three items"`
}

// readOnlyCommands are the git subcommands reword_git accepts.
var readOnlyCommands = map[string]bool{
	"blame":        true,
	"cat-file":     true,
	"describe":     true,
	"diff":         true,
	"log":          true,
	"ls-files":     true,
	"reflog":       true,
	"rev-list":     true,
	"rev-parse":    true,
	"shortlog":     true,
	"show":         true,
	"status":       true,
	"symbolic-ref": true,
}

// deniedOptions write files, run external programs or read files outside
// the repository.
var deniedOptions = []string{"--output", "--ext-diff", "--textconv", "--no-index", "--contents"}

// minAbbrev is the shortest prefix of a denied option that is rejected.
// git accepts unambiguous abbreviations of long options; shorter ones
// collide with allowed options such as --text.
const minAbbrev = 7

// checkReadOnly rejects anything but a read-only subcommand as the first
// argument. Options that write files, run external programs or read
// outside the repository are rejected too.
func checkReadOnly(args []string) error {
	if len(args) == 0 {
		return errors.New("args is required")
	}
	if !readOnlyCommands[args[0]] {
		return fmt.Errorf("git %s is not allowed; read-only subcommands only", args[0])
	}
	if args[0] == "symbolic-ref" && len(args) > 2 {
		return errors.New("git symbolic-ref may only read a reference")
	}
	if args[0] == "reflog" && len(args) > 1 && (args[1] == "expire" || args[1] == "delete") {
		return fmt.Errorf("git reflog %s is not allowed", args[1])
	}
	for _, a := range args[1:] {
		if a == "--" {
			break
		}
		if deniedOption(a) {
			return fmt.Errorf("git option %s is not allowed", a)
		}
	}
	return nil
}

func deniedOption(arg string) bool {
	name, _, _ := strings.Cut(arg, "=")
	if strings.HasPrefix(name, "--exec") {
		return true
	}
	for _, d := range deniedOptions {
		if name == d || (len(name) >= minAbbrev && strings.HasPrefix(d, name)) {
			return true
		}
	}
	return false
}

func (h *handler) gitHandler(ctx context.Context, req *mcp.CallToolRequest, params gitParams) (*mcp.CallToolResult, any, error) {
	if err := checkReadOnly(params.Args); err != nil {
		return errorResult(err.Error())
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	res, run, err := h.engine.Exec(ctx, params.Args)
	if res == nil {
		if partial := runner.PartialResult(err); partial != nil {
			res = partial
		} else {
			return errorResult(fmt.Sprintf("Run: %s\ngit %s failed: %v", run.ID, strings.Join(params.Args, " "), err))
		}
	}
	if err != nil {
		h.log.Warn().Err(err).Str("run_id", run.ID).Msg("git run")
	}

	text := formatGit(run.ID, params.Args, res, err)
	if err != nil || res.ExitCode != 0 {
		return errorResult(text)
	}
	return textResult(text)
}

func formatGit(runID string, args []string, res *runner.Result, err error) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s\n", runID)
	fmt.Fprintf(&b, "$ git %s\n", strings.Join(args, " "))
	if err != nil {
		fmt.Fprintf(&b, "error: %v\n", err)
	} else {
		fmt.Fprintf(&b, "exit %d (%s)\n", res.ExitCode, res.Duration.Round(time.Millisecond))
	}
	if len(res.Stdout) > 0 {
		fmt.Fprintln(&b)
		b.Write(res.Stdout)
		if !strings.HasSuffix(string(res.Stdout), "\n") {
			fmt.Fprintln(&b)
		}
	}
	if len(res.Stderr) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "stderr:")
		b.Write(res.Stderr)
	}
	if res.Truncated {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "(output truncated)")
	}
	return b.String()
}
