package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deixis/reword/internal/runner"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"info":    zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	logger := Configure("warn", &buf, false)
	logger.Info().Msg("hidden")
	logger.Warn().Str("k", "v").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "v", entry["k"])
	assert.Contains(t, entry, "time")
}

func TestConfigure_Pretty(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	logger := Configure("info", &buf, true)
	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

type stubExecutor struct {
	res *runner.Result
	err error
}

func (s stubExecutor) Run(context.Context, runner.CommandSpec) (*runner.Result, error) {
	return s.res, s.err
}

func TestCommands(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	c := Commands{
		Next:   stubExecutor{res: &runner.Result{RunID: "r1", ExitCode: 3, Duration: time.Second}},
		Logger: zerolog.New(&buf),
	}
	res, err := c.Run(context.Background(), runner.Command("git", "status"))
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, buf.String(), `"run_id":"r1"`)
	assert.Contains(t, buf.String(), `"exit_code":3`)

	buf.Reset()
	c.Next = stubExecutor{err: errors.New("spawn failed")}
	_, err = c.Run(context.Background(), runner.Command("git", "status"))
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "spawn failed")
}
