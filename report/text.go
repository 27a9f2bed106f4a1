// Package report renders analysis results as terminal text or JSON.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/pixelcheck/analysis"
	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/extract"
	"github.com/teranos/pixelcheck/reconcile"
)

// painter applies pterm colors, or nothing when color is off
type painter bool

func (p painter) paint(fn func(a ...interface{}) string, s string) string {
	if !p {
		return s
	}
	return fn(s)
}

func (p painter) status(s reconcile.Status) string {
	label := strings.ReplaceAll(string(s), "_", " ")
	switch s {
	case reconcile.StatusPerfect:
		return p.paint(pterm.Green, label)
	case reconcile.StatusPlatformSpecific:
		return p.paint(pterm.LightCyan, label)
	case reconcile.StatusStructuralMismatch:
		return p.paint(pterm.Yellow, label)
	default:
		return p.paint(pterm.Red, label)
	}
}

// errWriter remembers the first write error so rendering stays linear
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// RenderText writes the human-readable report: a summary, then one block per
// mapping entry with per-platform presence, status and notes
func RenderText(w io.Writer, r *analysis.Report, color bool) error {
	if r == nil {
		return errors.NewInvalidRequestError("nothing to render")
	}
	p := painter(color)
	ew := &errWriter{w: w}

	ew.printf("%s\n\n", p.paint(pterm.LightCyan, "=== ANALYSIS RESULTS ==="))
	renderResult(ew, p, "Structural groups", r.Groups)
	renderResult(ew, p, "Features", r.Features)

	for _, plat := range reconcile.Platforms {
		pr := r.Platform(plat)
		if pr == nil || pr.Cards == nil {
			continue
		}
		ew.printf("%s %s\n", p.paint(pterm.LightMagenta, "Cards:"), plat.Title())
		renderCards(ew, *pr.Cards)
		ew.printf("\n")
	}

	ew.printf("%s %s\n", p.paint(pterm.Gray, "run"), r.RunID)
	return ew.err
}

func renderResult(ew *errWriter, p painter, title string, res reconcile.Result) {
	ew.printf("%s\n", p.paint(pterm.LightCyan, title+":"))
	ew.printf("   Total Mappings: %d\n", len(res.Entries))
	ew.printf("   Consistent: %s\n", p.paint(pterm.Green, fmt.Sprint(res.ConsistentIdentities)))
	ew.printf("   Inconsistent: %s\n", p.paint(pterm.Red, fmt.Sprint(res.InconsistentIdentities)))
	ew.printf("   Score: %.0f%%\n", res.Score()*100)
	if res.Mode == reconcile.ModeGroups {
		ew.printf("   Totals: %s\n", res.Totals)
	}
	ew.printf("\n")

	for i, e := range res.Entries {
		ew.printf("   %d. %s\n", i+1, e.Name)
		for _, plat := range reconcile.Platforms {
			n := e.Counts.Of(plat)
			presence := p.paint(pterm.Red, "missing")
			if n > 0 {
				presence = fmt.Sprintf("present x%d", n)
			}
			ew.printf("      %-8s %s\n", plat.Title()+":", presence)
		}
		ew.printf("      Status: %s\n", p.status(e.Status))
		if e.Detail != "" {
			ew.printf("      Notes: %s\n", e.Detail)
		}
		ew.printf("\n")
	}
}

func renderCards(ew *errWriter, h extract.Hierarchy) {
	for _, page := range h.Pages {
		if len(page.Cards) == 0 {
			continue
		}
		ew.printf("  [%s]\n", page.Name)
		for _, c := range page.Cards {
			for _, line := range strings.Split(strings.TrimRight(c.DetailedString(), "\n"), "\n") {
				ew.printf("    %s\n", line)
			}
		}
	}
}

// RenderCards writes one platform's hierarchy, used by the cards command
func RenderCards(w io.Writer, h extract.Hierarchy) error {
	ew := &errWriter{w: w}
	renderCards(ew, h)
	if h.CardCount() == 0 {
		ew.printf("no cards found\n")
	}
	return ew.err
}
