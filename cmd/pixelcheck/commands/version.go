package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/pixelcheck/report"
	"github.com/teranos/pixelcheck/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show pixelcheck version information",
	Long:  `Display version, build time, commit hash, and platform information for the pixelcheck binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		out := cmd.OutOrStdout()

		if report.ShouldOutputJSON(cmd) {
			return report.WriteJSON(out, info)
		}
		fmt.Fprintln(out, info.String())
		fmt.Fprintf(out, "Platform: %s\n", info.Platform)
		fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
		return nil
	},
}
