package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ctxpack/internal/adapters/driving/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Starts the Model Context Protocol server, exposing search, grep, read,
list, and glob tools over registered resources.

By default the server speaks JSON-RPC over stdio, for use with Claude
Desktop and other MCP-compatible assistants. Pass --port to serve over
streamable HTTP instead.

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "ctxpack": {
        "command": "/path/to/ctxpack",
        "args": ["serve"]
      }
    }
  }`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Search:   searchService,
		Tools:    toolSurface,
		Agent:    agentDriver,
		Resource: resourceService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
