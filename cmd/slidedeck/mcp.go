package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/slidedeck/internal/cli"
	"github.com/aretw0/slidedeck/pkg/adapters/mcp"
	"github.com/aretw0/slidedeck/pkg/session"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the editing sessions as MCP tools and each deck as a resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, b, logger, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		baseURL, _ := cmd.Flags().GetString("base-url")

		sessions := session.NewManager(b.Store, append(b.SessionOptions(logger),
			session.WithEditorOptions(b.EditorOptions()...))...)
		srv := mcp.NewServer(sessions, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("Starting MCP server (stdio)", "store", b.Name)
			return srv.ServeStdio()
		case "sse":
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()

			if baseURL == "" {
				baseURL = "http://localhost" + addr
			}
			logger.Info("Starting MCP server (SSE)", "addr", addr, "store", b.Name)
			if err := srv.ServeSSE(sigCtx, addr, baseURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport %q: supported are stdio and sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "", "Public base URL announced to SSE clients")
}
