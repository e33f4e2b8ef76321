package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	rwmcp "github.com/deixis/reword/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio or HTTP",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
	cmd.Flags().Bool("instructions", false, "Print model instructions and exit")
	cmd.Flags().String("http", "", "Serve streamable HTTP on this address (e.g. :9090) instead of stdio")
	return cmd
}

func runMCP(cmd *cobra.Command, _ []string) error {
	instructions, _ := cmd.Flags().GetBool("instructions")
	httpAddr, _ := cmd.Flags().GetString("http")

	if instructions {
		_, err := fmt.Fprint(cmd.OutOrStdout(), rwmcp.Instructions)
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	newServer := func() *mcpsdk.Server {
		return rwmcp.NewServer(a.cfg, a.runner, a.store, a.dir, rwmcp.WithLogger(a.log))
	}

	if httpAddr != "" {
		return serveHTTP(ctx, newServer, httpAddr, a.log)
	}
	a.log.Debug().Str("repo", a.dir).Msg("serving MCP on stdio")
	return newServer().Run(ctx, &mcpsdk.StdioTransport{})
}

// serveHTTP builds a server per session; each one follows its own
// client's root.
func serveHTTP(ctx context.Context, newServer func() *mcpsdk.Server, addr string, log zerolog.Logger) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return newServer() },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Info().Str("addr", addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
