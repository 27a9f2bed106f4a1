package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/pixelcheck/cmd/pixelcheck/commands"
	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/logger"
)

var rootCmd = &cobra.Command{
	Use:   "pixelcheck",
	Short: "pixelcheck - UI design consistency across Android, iOS and Web",
	Long: `pixelcheck - UI design consistency across Android, iOS and Web.

pixelcheck walks the design files of one product on three platforms,
extracts their features and structural groups, and reports which are
consistent, missing, or only similar.

Available commands:
  compare - Compare three platform designs
  extract - Extract one design (flat, or cards)
  am      - Manage pixelcheck configuration ("I am")
  mcp     - Serve the tools over the Model Context Protocol
  version - Show version information

Examples:
  pixelcheck compare --android a.json --ios i.json --web w.json
  pixelcheck extract cards android.json
  pixelcheck am show`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")

	rootCmd.AddCommand(commands.CompareCmd)
	rootCmd.AddCommand(commands.ExtractCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.MCPCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hints := errors.FlattenHints(err); hints != "" {
			fmt.Fprintln(os.Stderr, "hint:", hints)
		}
		os.Exit(1)
	}
}
