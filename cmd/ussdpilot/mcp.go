package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/ussdpilot/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the pilot as an MCP server so that agents can arm payments and
follow their progress.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		env, err := setupEnv(cmd)
		exitOnError(err)
		defer env.Close()

		srv := mcp.NewServer(env.NewPilot(), env.Logger)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			env.Logger.Info("Starting ussdpilot MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				env.Logger.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			env.Logger.Info("Starting ussdpilot MCP Server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && err != http.ErrServerClosed {
				env.Logger.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
			env.Logger.Info("MCP Server stopped gracefully")
		default:
			exitOnError(fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport))
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport to use (stdio, sse)")
	mcpCmd.Flags().IntP("port", "p", 8080, "Port for SSE transport")
}
