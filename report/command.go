package report

import (
	"os"

	"github.com/spf13/cobra"
)

// ShouldOutputJSON reports whether cmd should print JSON: the command's own
// --json flag wins, then the root's persistent --json
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
		v, _ := cmd.Flags().GetBool("json")
		return v
	}
	v, _ := cmd.Root().PersistentFlags().GetBool("json")
	return v
}

// ShouldColor reports whether text output may use ANSI colors
func ShouldColor(cmd *cobra.Command) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if cmd != nil {
		if noColor, _ := cmd.Root().PersistentFlags().GetBool("no-color"); noColor {
			return false
		}
	}
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
