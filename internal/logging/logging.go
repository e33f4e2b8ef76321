// Package logging configures the process-wide zerolog logger.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deixis/reword/internal/runner"
)

// Logger is the configured logger. It writes JSON to stderr until
// Configure is called.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// ParseLevel maps a level name to a zerolog level. Unknown names map to
// info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Configure sets the global level and output. Pretty selects a human
// readable console writer.
func Configure(level string, w io.Writer, pretty bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	zerolog.SetGlobalLevel(ParseLevel(level))

	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
		}
	}

	Logger = zerolog.New(w).With().Timestamp().Logger()
	log.Logger = Logger
	return Logger
}

// Executor runs a single command.
type Executor interface {
	Run(ctx context.Context, spec runner.CommandSpec) (*runner.Result, error)
}

// Commands wraps an Executor and logs every command at debug level, and
// runner failures at warn level.
type Commands struct {
	Next   Executor
	Logger zerolog.Logger
}

// Run delegates to Next and logs the outcome.
func (c Commands) Run(ctx context.Context, spec runner.CommandSpec) (*runner.Result, error) {
	res, err := c.Next.Run(ctx, spec)
	if err != nil {
		c.Logger.Warn().Err(err).Strs("args", spec.Args).Str("dir", spec.Dir).Msg("command failed")
		return res, err
	}
	c.Logger.Debug().
		Str("run_id", res.RunID).
		Strs("args", spec.Args).
		Int("exit_code", res.ExitCode).
		Dur("duration", res.Duration).
		Bool("truncated", res.Truncated).
		Msg("command finished")
	return res, nil
}
