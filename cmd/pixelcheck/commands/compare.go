package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teranos/pixelcheck/am"
	"github.com/teranos/pixelcheck/analysis"
	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/internal/filewatch"
	"github.com/teranos/pixelcheck/logger"
	"github.com/teranos/pixelcheck/report"
)

// CompareCmd compares the Android, iOS and Web versions of a design
var CompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a design across Android, iOS and Web",
	Long: `Extract structural groups and features from three platform designs and
report which ones are consistent, missing or only similar.

Each input may be a local design-file JSON, a Figma URL or a bare file key.
URL inputs need figma.token (or FIGMA_TOKEN).

Examples:
  pixelcheck compare --android a.json --ios i.json --web w.json
  pixelcheck compare --android https://www.figma.com/file/KEY/App ... --json
  pixelcheck compare --android a.json --ios i.json --web w.json --watch`,
	RunE: runCompare,
}

func init() {
	CompareCmd.Flags().String("android", "", "Android design (file, URL or key)")
	CompareCmd.Flags().String("ios", "", "iOS design (file, URL or key)")
	CompareCmd.Flags().String("web", "", "Web design (file, URL or key)")
	CompareCmd.Flags().String("figma-token", "", "Figma token (overrides figma.token)")
	CompareCmd.Flags().StringP("out", "o", "", "Also write the JSON report to this file")
	CompareCmd.Flags().Bool("cards", false, "Also extract feature cards per platform")
	CompareCmd.Flags().Bool("matcher", false, "Consult the oracle for ambiguous groups (overrides matcher.enabled)")
	CompareCmd.Flags().BoolP("watch", "w", false, "Re-run whenever a local input file changes")
	for _, name := range []string{"android", "ios", "web"} {
		_ = CompareCmd.MarkFlagRequired(name)
	}
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.ComponentLogger("compare")
	rt, err := newRuntime(ctx, cfg, matcherEnabled(cmd, cfg), log)
	if err != nil {
		return err
	}
	defer rt.Close()

	in := analysis.Inputs{}
	in.Android = sourceArg(flagString(cmd, "android"))
	in.IOS = sourceArg(flagString(cmd, "ios"))
	in.Web = sourceArg(flagString(cmd, "web"))
	in.Cards, _ = cmd.Flags().GetBool("cards")

	if err := compareOnce(ctx, cmd, rt.analyzer, in); err != nil {
		return err
	}

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return nil
	}

	var paths []string
	for _, src := range []analysis.Source{in.Android, in.IOS, in.Web} {
		if src.Path != "" {
			paths = append(paths, src.Path)
		}
	}
	if len(paths) == 0 {
		return errors.WithHint(errors.NewInvalidRequestError("--watch needs at least one local file input"),
			"URL inputs cannot be watched")
	}

	w, err := filewatch.New(paths, func(ctx context.Context, changed []string) {
		log.Infow("Inputs changed, re-running", logger.FieldPath, changed)
		if err := compareOnce(ctx, cmd, rt.analyzer, in); err != nil {
			log.Errorw("Comparison failed", logger.FieldError, err)
		}
	}, filewatch.Options{Logger: log.Named("watch")})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %d file(s), Ctrl-C to stop\n", len(paths))
	return w.Run(ctx)
}

func compareOnce(ctx context.Context, cmd *cobra.Command, analyzer *analysis.Analyzer, in analysis.Inputs) error {
	rep, err := analyzer.Run(ctx, in)
	if err != nil {
		return err
	}

	if out := flagString(cmd, "out"); out != "" {
		if err := report.WriteJSONFile(out, rep); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Results saved to %s\n", out)
	}
	return writeReport(cmd, cmd.OutOrStdout(), rep)
}

func writeReport(cmd *cobra.Command, w io.Writer, rep *analysis.Report) error {
	if report.ShouldOutputJSON(cmd) {
		return report.WriteJSON(w, rep)
	}
	return report.RenderText(w, rep, report.ShouldColor(cmd))
}

// loadConfig loads am configuration and applies --figma-token
func loadConfig(cmd *cobra.Command) (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("figma-token"); f != nil && f.Changed {
		c := *cfg
		c.Figma.Token = f.Value.String()
		cfg = &c
	}
	return cfg, nil
}

func matcherEnabled(cmd *cobra.Command, cfg *am.Config) bool {
	if f := cmd.Flags().Lookup("matcher"); f != nil && f.Changed {
		v, _ := cmd.Flags().GetBool("matcher")
		return v
	}
	return cfg.Matcher.Enabled
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
