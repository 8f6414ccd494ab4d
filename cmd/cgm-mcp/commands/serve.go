package commands

import (
	"fmt"

	"cgm-mcp/internal/mcp"

	"github.com/spf13/cobra"
)

var httpAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP tools over streamable HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if httpAddr == "" {
			return fmt.Errorf("--http address is required")
		}
		ctx, stop := signalContext()
		defer stop()

		server := mcp.NewServer(cfg, provider, Version)
		return server.ListenAndServe(ctx, httpAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "http", ":8080", "listen address for the HTTP transport")
}
