package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/teranos/pixelcheck/classify"
	"github.com/teranos/pixelcheck/design"
	"github.com/teranos/pixelcheck/logger"
)

// autoName matches names the design tool assigns by default.
var autoName = regexp.MustCompile(`(?i)^(frame|group)\s+\d+$`)

// Inventory tallies a card's subtree. TextCount is every non-blank TEXT node;
// TEXT nodes that read as buttons count towards ButtonCount as well.
type Inventory struct {
	Icons       map[string]int `json:"icons,omitempty"`
	TextCount   int            `json:"text_count"`
	ButtonCount int            `json:"button_count"`
	Frames      map[string]int `json:"frames,omitempty"`
}

// Card is a feature-level container found in hierarchical mode. Its
// substructure is summarized in Inventory, never enumerated.
type Card struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Page      string    `json:"page"`
	Path      []string  `json:"path,omitempty"`
	Keywords  []string  `json:"keywords,omitempty"`
	Inventory Inventory `json:"inventory"`
}

// Page groups the cards found under one CANVAS.
type Page struct {
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// Hierarchy is the hierarchical-mode output for one tree.
type Hierarchy struct {
	Pages []Page `json:"pages"`
}

// CardCount is the number of cards across all pages.
func (h Hierarchy) CardCount() int {
	n := 0
	for _, p := range h.Pages {
		n += len(p.Cards)
	}
	return n
}

// ExtractHierarchical finds cards page by page. A card is a named FRAME with
// at least two children whose name carries a card hint, or whose direct
// children include text together with an icon or a button. The walk does
// not descend into a card once found.
func (e *Extractor) ExtractHierarchical(root *design.Node) Hierarchy {
	var h Hierarchy
	for _, page := range design.PagesOf(root) {
		p := Page{Name: page.TrimmedName(), Cards: []Card{}}
		design.Walk(page, e.maxDepth, func(n *design.Node, depth int, path []string) bool {
			if !e.isCard(n) {
				return true
			}
			card := Card{
				ID:        n.ID,
				Name:      n.TrimmedName(),
				Page:      p.Name,
				Keywords:  e.classifier.SemanticKeywords(n.TrimmedName()),
				Inventory: e.inventory(n, e.maxDepth-depth),
			}
			if len(path) > 0 {
				card.Path = append([]string(nil), path...)
			}
			p.Cards = append(p.Cards, card)
			return false
		})
		h.Pages = append(h.Pages, p)
	}

	e.logger.Debugw("Extracted cards",
		logger.FieldCards, h.CardCount(),
		logger.FieldCount, len(h.Pages),
	)
	return h
}

func (e *Extractor) isCard(n *design.Node) bool {
	if n.Type != design.KindFrame || n.TrimmedName() == "" || n.ChildCount() < 2 {
		return false
	}
	if e.classifier.IsCardName(n.TrimmedName()) {
		return true
	}

	var hasText, hasAction bool
	for _, c := range n.Children {
		switch e.classifier.Classify(c) {
		case classify.CategoryText:
			hasText = true
		case classify.CategoryIcon, classify.CategoryButton:
			hasAction = true
		}
	}
	return hasText && hasAction
}

// inventory tallies everything below card within budget levels. Icons are
// counted as units; their internal vectors are not walked.
func (e *Extractor) inventory(card *design.Node, budget int) Inventory {
	inv := Inventory{Icons: map[string]int{}, Frames: map[string]int{}}
	if budget <= 0 {
		return inv
	}

	visit := func(n *design.Node, _ int, _ []string) bool {
		cat := e.classifier.Classify(n)
		if cat == classify.CategoryIcon {
			inv.Icons[n.TrimmedName()]++
			return false
		}
		if _, ok := n.Text(); ok {
			inv.TextCount++
		}
		if cat == classify.CategoryButton {
			inv.ButtonCount++
		}
		if n.Type == design.KindFrame || n.Type == design.KindGroup {
			if name := n.TrimmedName(); name != "" && !autoName.MatchString(name) {
				inv.Frames[name]++
			}
		}
		return true
	}

	for _, child := range card.Children {
		if child == nil {
			continue
		}
		if budget == 1 {
			// Walk treats a zero cap as the default, so the last level is visited directly
			visit(child, 0, nil)
			continue
		}
		design.Walk(child, budget-1, visit)
	}
	return inv
}

// DetailedString renders the card for prompts and reports: a header line,
// one line per distinct icon name, then the aggregate counts. Output is
// stable for identical input.
func (c Card) DetailedString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", c.Name)
	for _, name := range sortedKeys(c.Inventory.Icons) {
		fmt.Fprintf(&b, "  icon %s x%d\n", name, c.Inventory.Icons[name])
	}
	fmt.Fprintf(&b, "  text: %d\n", c.Inventory.TextCount)
	fmt.Fprintf(&b, "  buttons: %d\n", c.Inventory.ButtonCount)
	if len(c.Inventory.Frames) > 0 {
		parts := make([]string, 0, len(c.Inventory.Frames))
		for _, name := range sortedKeys(c.Inventory.Frames) {
			parts = append(parts, fmt.Sprintf("%s x%d", name, c.Inventory.Frames[name]))
		}
		fmt.Fprintf(&b, "  frames: %s\n", strings.Join(parts, ", "))
	}
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
