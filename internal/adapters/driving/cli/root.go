// Package cli wires the driving ports (ResourceService, Scheduler,
// SearchService, AgentDriver) into a cobra command tree. It is a thin
// administrative surface over the same core the MCP server drives; most
// day-to-day interaction happens through an MCP-connected assistant, not
// this CLI.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/ctxpack/internal/core/ports/driving"
)

// version is set by the linker at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "ctxpack",
	Short: "Context packing for coding agents",
	Long: `ctxpack registers git repositories and local directories as
searchable resources, keeps them synced and embedded, and exposes hybrid
(keyword + vector) search and an agent-grade tool surface over them.

Most integrations drive ctxpack over MCP ("ctxpack serve"). This CLI is
for registering resources and running one-off searches from a terminal.`,
}

// Services aggregates the driving ports the CLI dispatches to. A nil field
// makes every command that depends on it return a "not configured" error
// instead of panicking, so the binary still starts (and --help still
// works) before a database is wired up.
type Services struct {
	Resource  driving.ResourceService
	Scheduler driving.Scheduler
	Search    driving.SearchService
	Agent     driving.AgentDriver
	Tools     driving.ToolSurface
}

var (
	resourceService driving.ResourceService
	scheduler       driving.Scheduler
	searchService   driving.SearchService
	agentDriver     driving.AgentDriver
	toolSurface     driving.ToolSurface
)

// SetServices wires the core services the command tree dispatches to.
// Called once from cmd/ctxpack/main.go after config/storage/services are
// constructed; tests call it with mocks.
func SetServices(s Services) {
	resourceService = s.Resource
	scheduler = s.Scheduler
	searchService = s.Search
	agentDriver = s.Agent
	toolSurface = s.Tools
}

// Execute runs the root command with the process's arguments.
func Execute() error {
	return rootCmd.Execute()
}

// Flags exposes the root command's persistent flag set so main.go can bind
// it into config.Load before SetServices is called.
func Flags() *pflag.FlagSet {
	return rootCmd.PersistentFlags()
}

func init() {
	rootCmd.PersistentFlags().String("database-path", "", "path to the SQLite metadata database")
	rootCmd.PersistentFlags().String("repos-dir", "", "directory git resources are cloned into")
	rootCmd.PersistentFlags().String("chat-provider", "", "chat model provider (anthropic, openai, ollama)")
	rootCmd.PersistentFlags().String("chat-model", "", "chat model name")
	rootCmd.PersistentFlags().String("embedder-provider", "", "embedder provider (openai, ollama)")
	rootCmd.PersistentFlags().String("embedder-model", "", "embedder model name")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose logging")
}
