// Package extract turns one platform's design tree into flat features,
// structural groups and hierarchical cards.
package extract

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/teranos/pixelcheck/classify"
	"github.com/teranos/pixelcheck/design"
	"github.com/teranos/pixelcheck/logger"
)

// Feature is a deduplicated, presence-only label found in one tree.
type Feature struct {
	Name     string            `json:"name"`
	Category classify.Category `json:"category"`
}

// Recipe summarizes a group's direct children.
type Recipe struct {
	TextCount     int `json:"text_count"`
	ButtonCount   int `json:"button_count"`
	TotalChildren int `json:"total_children"`
}

// Signature renders the recipe fingerprint, e.g. "T2B1". TotalChildren is
// not part of it.
func (r Recipe) Signature() string {
	return fmt.Sprintf("T%dB%d", r.TextCount, r.ButtonCount)
}

// SameComposition reports whether text and button counts agree.
func (r Recipe) SameComposition(o Recipe) bool {
	return r.TextCount == o.TextCount && r.ButtonCount == o.ButtonCount
}

// StructuralGroup is a container summarized by its recipe. Groups are
// created once per pass and never mutated.
type StructuralGroup struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Type             design.Kind `json:"type"`
	Path             []string    `json:"path,omitempty"`
	Recipe           Recipe      `json:"recipe"`
	Signature        string      `json:"signature"`
	SemanticKeywords []string    `json:"semantic_keywords,omitempty"`
}

// Identity is the cross-platform join key: name + "|" + signature.
func (g StructuralGroup) Identity() string {
	return g.Name + "|" + g.Signature
}

// Landmark is a named non-text node carrying semantic keywords. Landmarks
// widen the pool searched by semantic rescue beyond structural groups, so a
// lone search icon can stand in for a search bar.
type Landmark struct {
	Name     string            `json:"name"`
	Category classify.Category `json:"category"`
	Keywords []string          `json:"keywords"`
}

// Result is the flat-mode output for one tree.
type Result struct {
	Text      []Feature         `json:"text"`
	Buttons   []Feature         `json:"buttons"`
	Icons     []Feature         `json:"icons"`
	Others    []Feature         `json:"others"`
	Groups    []StructuralGroup `json:"groups"`
	Landmarks []Landmark        `json:"landmarks,omitempty"`
	// Visited is the number of nodes the walk reached under the depth cap
	Visited int `json:"visited"`
}

// Features returns every flat feature, sorted by category then name.
func (r Result) Features() []Feature {
	all := make([]Feature, 0, len(r.Text)+len(r.Buttons)+len(r.Icons)+len(r.Others))
	all = append(all, r.Text...)
	all = append(all, r.Buttons...)
	all = append(all, r.Icons...)
	all = append(all, r.Others...)
	sortFeatures(all)
	return all
}

// Options configure an Extractor.
type Options struct {
	// MaxDepth caps traversal; <= 0 selects design.DefaultMaxDepth
	MaxDepth int
	Logger   *zap.SugaredLogger
}

// Extractor runs extraction passes with a fixed classifier. It is safe for
// concurrent use; each pass owns its own state.
type Extractor struct {
	classifier *classify.Classifier
	maxDepth   int
	logger     *zap.SugaredLogger
}

// New builds an extractor. A nil classifier selects classify.Default().
func New(classifier *classify.Classifier, opts Options) *Extractor {
	if classifier == nil {
		classifier = classify.Default()
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = design.DefaultMaxDepth
	}
	return &Extractor{
		classifier: classifier,
		maxDepth:   maxDepth,
		logger:     logger.OrNop(opts.Logger),
	}
}

// Classifier returns the classifier the extractor applies.
func (e *Extractor) Classifier() *classify.Classifier {
	return e.classifier
}

// Extract walks root in flat mode. Features are deduplicated by name and
// category; groups are collected for every named FRAME, GROUP, COMPONENT or
// INSTANCE with at least two children, and for every named COMPONENT or
// INSTANCE regardless of children. A nil root yields an empty Result.
func (e *Extractor) Extract(root *design.Node) Result {
	var res Result
	seen := make(map[Feature]struct{})

	design.Walk(root, e.maxDepth, func(n *design.Node, _ int, path []string) bool {
		res.Visited++
		cat := e.classifier.Classify(n)

		if cat.IsFeature() {
			f := Feature{Name: e.classifier.FeatureName(n), Category: cat}
			if _, dup := seen[f]; !dup {
				seen[f] = struct{}{}
				switch cat {
				case classify.CategoryText:
					res.Text = append(res.Text, f)
				case classify.CategoryButton:
					res.Buttons = append(res.Buttons, f)
				case classify.CategoryIcon:
					res.Icons = append(res.Icons, f)
				default:
					res.Others = append(res.Others, f)
				}
			}
		}

		if cat != classify.CategoryNone && cat != classify.CategoryText {
			if kw := e.classifier.SemanticKeywords(n.TrimmedName()); len(kw) > 0 {
				res.Landmarks = append(res.Landmarks, Landmark{Name: n.TrimmedName(), Category: cat, Keywords: kw})
			}
		}

		if g, ok := e.group(n, path); ok {
			res.Groups = append(res.Groups, g)
		}
		return true
	})

	sortFeatures(res.Text)
	sortFeatures(res.Buttons)
	sortFeatures(res.Icons)
	sortFeatures(res.Others)

	e.logger.Debugw("Extracted features",
		logger.FieldFeatures, len(res.Text)+len(res.Buttons)+len(res.Icons)+len(res.Others),
		logger.FieldGroups, len(res.Groups),
		logger.FieldCount, res.Visited,
	)
	return res
}

func (e *Extractor) group(n *design.Node, path []string) (StructuralGroup, bool) {
	name := n.TrimmedName()
	if name == "" || n.Shape() != design.ShapeContainer {
		return StructuralGroup{}, false
	}
	if !n.IsComponentLike() && n.ChildCount() < 2 {
		return StructuralGroup{}, false
	}

	recipe := e.RecipeOf(n)
	g := StructuralGroup{
		ID:               n.ID,
		Name:             name,
		Type:             n.Type,
		Recipe:           recipe,
		Signature:        recipe.Signature(),
		SemanticKeywords: e.classifier.SemanticKeywords(name),
	}
	if len(path) > 0 {
		g.Path = append([]string(nil), path...)
	}
	return g, true
}

// RecipeOf counts n's direct children that classify as TEXT or BUTTON.
func (e *Extractor) RecipeOf(n *design.Node) Recipe {
	var r Recipe
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		r.TotalChildren++
		switch e.classifier.Classify(c) {
		case classify.CategoryText:
			r.TextCount++
		case classify.CategoryButton:
			r.ButtonCount++
		}
	}
	return r
}

func sortFeatures(fs []Feature) {
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].Category != fs[j].Category {
			return fs[i].Category < fs[j].Category
		}
		return fs[i].Name < fs[j].Name
	})
}
