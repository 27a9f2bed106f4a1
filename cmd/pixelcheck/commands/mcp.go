package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/pixelcheck/logger"
	"github.com/teranos/pixelcheck/mcpserver"
	"github.com/teranos/pixelcheck/session"
)

// MCPCmd serves the comparison tools to an MCP client over stdio
var MCPCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve pixelcheck tools over the Model Context Protocol (stdio)",
	Long: `Start an MCP server on stdin/stdout exposing compare_designs,
extract_cards and get_report. Logs go to stderr.

Example client entry:
  {"command": "pixelcheck", "args": ["mcp"]}`,
	RunE: runMCP,
}

func init() {
	MCPCmd.Flags().Bool("matcher", false, "Consult the oracle for ambiguous groups (overrides matcher.enabled)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.ComponentLogger("mcp")
	rt, err := newRuntime(ctx, cfg, matcherEnabled(cmd, cfg), log)
	if err != nil {
		return err
	}
	defer rt.Close()

	ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	store := session.NewStore(ttl, log.Named("session"))
	go store.Run(ctx, sweepInterval(ttl))

	log.Infow("MCP server starting", "ttl", ttl.String())
	return mcpserver.New(rt.analyzer, store, log).Serve()
}

// sweepInterval checks for expired sessions a few times per TTL
func sweepInterval(ttl time.Duration) time.Duration {
	if iv := ttl / 4; iv > time.Second {
		return iv
	}
	return time.Second
}
