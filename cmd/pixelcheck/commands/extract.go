package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teranos/pixelcheck/analysis"
	"github.com/teranos/pixelcheck/extract"
	"github.com/teranos/pixelcheck/logger"
	"github.com/teranos/pixelcheck/report"
)

// ExtractCmd extracts one design without comparing it
var ExtractCmd = &cobra.Command{
	Use:   "extract <design>",
	Short: "Extract features and structural groups from one design",
	Long: `Walk one design (file, Figma URL or key) and print its flat features and
structural groups.

Examples:
  pixelcheck extract android.json
  pixelcheck extract android.json --json
  pixelcheck extract cards android.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

// extractCardsCmd is the hierarchical variant
var extractCardsCmd = &cobra.Command{
	Use:   "cards <design>",
	Short: "List feature cards with their icon and text inventory",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtractCards,
}

func init() {
	ExtractCmd.PersistentFlags().String("figma-token", "", "Figma token (overrides figma.token)")
	ExtractCmd.AddCommand(extractCardsCmd)
}

func loadOne(cmd *cobra.Command, arg string) (*analysis.Analyzer, analysis.Source, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, analysis.Source{}, err
	}
	// Single-design extraction never reconciles, so the matcher stays off
	rt, err := newRuntime(cmd.Context(), cfg, false, logger.ComponentLogger("extract"))
	if err != nil {
		return nil, analysis.Source{}, err
	}
	return rt.analyzer, sourceArg(arg), nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	analyzer, src, err := loadOne(cmd, args[0])
	if err != nil {
		return err
	}
	doc, err := analyzer.ExtractOne(cmd.Context(), src)
	if err != nil {
		return err
	}
	res := analyzer.Extractor().Extract(doc.Root)

	if report.ShouldOutputJSON(cmd) {
		return report.WriteJSON(cmd.OutOrStdout(), res)
	}
	return renderFlat(cmd.OutOrStdout(), doc.Name, res)
}

func runExtractCards(cmd *cobra.Command, args []string) error {
	analyzer, src, err := loadOne(cmd, args[0])
	if err != nil {
		return err
	}
	doc, err := analyzer.ExtractOne(cmd.Context(), src)
	if err != nil {
		return err
	}
	h := analyzer.Extractor().ExtractHierarchical(doc.Root)

	if report.ShouldOutputJSON(cmd) {
		return report.WriteJSON(cmd.OutOrStdout(), h)
	}
	return report.RenderCards(cmd.OutOrStdout(), h)
}

func renderFlat(w io.Writer, name string, res extract.Result) error {
	if _, err := fmt.Fprintf(w, "%s: %d nodes visited\n", name, res.Visited); err != nil {
		return err
	}
	sections := []struct {
		title    string
		features []extract.Feature
	}{
		{"Text", res.Text},
		{"Buttons", res.Buttons},
		{"Icons", res.Icons},
		{"Other", res.Others},
	}
	for _, s := range sections {
		if len(s.features) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s (%d):\n", s.title, len(s.features))
		for _, f := range s.features {
			fmt.Fprintf(w, "  %s\n", f.Name)
		}
	}
	if len(res.Groups) > 0 {
		fmt.Fprintf(w, "\nGroups (%d):\n", len(res.Groups))
		for _, g := range res.Groups {
			fmt.Fprintf(w, "  %s  %s\n", g.Identity(), g.Type)
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
