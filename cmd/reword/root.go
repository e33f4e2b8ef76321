package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deixis/reword"
	"github.com/deixis/reword/internal/config"
	"github.com/deixis/reword/internal/logging"
	"github.com/deixis/reword/internal/report"
	rw "github.com/deixis/reword/internal/reword"
	"github.com/deixis/reword/internal/runner"
	"github.com/deixis/reword/internal/ui"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "reword",
		Short:         "Rename the HEAD commit of a git repository",
		Version:       reword.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("repo", ".", "Directory inside the repository to operate on")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from .reword or DEBUG)")
	cmd.PersistentFlags().Duration("timeout", 0, "Override the per-command timeout (e.g. 30s)")
	cmd.PersistentFlags().String("history-dir", "", "Override the run history directory")

	cmd.AddCommand(
		newStatusCmd(),
		newAmendCmd(),
		newExecCmd(),
		newInspectCmd(),
		newHistoryCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), reword.Version)
			return err
		},
	}
}

// app holds everything a command needs, built from flags and .reword.
type app struct {
	cfg    *config.Config
	dir    string // --repo, absolute
	root   string // repository root
	runner *runner.Runner
	store  *report.LRUStore
	engine *rw.Engine
	log    zerolog.Logger
}

func newApp(cmd *cobra.Command) (*app, error) {
	repo, _ := cmd.Flags().GetString("repo")
	levelFlag, _ := cmd.Flags().GetString("log-level")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	historyDir, _ := cmd.Flags().GetString("history-dir")

	dir, err := filepath.Abs(repo)
	if err != nil {
		return nil, fmt.Errorf("resolving --repo: %w", err)
	}

	loaded, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	logger := logging.Configure(logLevel(levelFlag, cfg), cmd.ErrOrStderr(), ui.IsTerminal(cmd.ErrOrStderr()))

	if timeout <= 0 {
		timeout = cfg.Timeout()
	}
	if historyDir == "" {
		historyDir = cfg.HistoryPath()
	}

	r := &runner.Runner{
		Workspace: loaded.RepoRoot,
		Timeout:   timeout,
		MaxOutput: cfg.MaxOutputBytes(),
		Env:       cfg.Env,
	}
	store := report.NewLRUStore(cfg.HistoryCapacity(), report.NewDiskStore(historyDir))

	logger.Debug().
		Str("repo", dir).
		Str("root", loaded.RepoRoot).
		Dur("timeout", timeout).
		Str("history", historyDir).
		Msg("configured")

	return &app{
		cfg:    cfg,
		dir:    dir,
		root:   loaded.RepoRoot,
		runner: r,
		store:  store,
		engine: &rw.Engine{
			Config: cfg,
			Runner: logging.Commands{Next: r, Logger: logger},
			Store:  store,
			Dir:    dir,
		},
		log: logger,
	}, nil
}

// logLevel picks the level from the flag, then .reword, then DEBUG.
func logLevel(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg.LogLevel != "" {
		return cfg.LogLevel
	}
	if debug := strings.ToLower(os.Getenv("DEBUG")); debug == "true" || debug == "1" {
		return "debug"
	}
	return cfg.Level()
}
