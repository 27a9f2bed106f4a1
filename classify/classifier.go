// Package classify maps design nodes to semantic categories using name
// heuristics and direct-child composition.
package classify

import (
	"sort"
	"strings"

	"github.com/teranos/pixelcheck/design"
)

// Category is the semantic class of a node.
type Category string

const (
	// CategoryNone means the node produces no feature (empty name or text,
	// unsupported type). Its children are still traversed.
	CategoryNone Category = ""
	// CategoryText is a text label
	CategoryText Category = "TEXT"
	// CategoryButton is a button, by name or by button verb
	CategoryButton Category = "BUTTON"
	// CategoryIcon is an icon frame or group
	CategoryIcon Category = "ICON"
	// CategoryContainer is a named frame or group with children that is
	// neither icon nor button; it never becomes a flat feature
	CategoryContainer Category = "CONTAINER"
	// CategoryOther is a named component or childless frame without a button name
	CategoryOther Category = "OTHER"
)

// IsFeature reports whether nodes of this category become flat features.
func (c Category) IsFeature() bool {
	switch c {
	case CategoryText, CategoryButton, CategoryIcon, CategoryOther:
		return true
	default:
		return false
	}
}

// Classifier applies a Vocabulary. It holds no mutable state and is safe
// for concurrent use.
type Classifier struct {
	vocab       Vocabulary
	buttonVerbs map[string]struct{}
	tags        []string
}

// New builds a classifier over vocab.
func New(vocab Vocabulary) *Classifier {
	v := vocab.normalized()
	verbs := make(map[string]struct{}, len(v.ButtonVerbs))
	for _, verb := range v.ButtonVerbs {
		verbs[verb] = struct{}{}
	}
	return &Classifier{vocab: v, buttonVerbs: verbs, tags: v.Tags()}
}

// Default builds a classifier over DefaultVocabulary.
func Default() *Classifier {
	return New(DefaultVocabulary())
}

// Vocabulary returns the normalized tables in use.
func (c *Classifier) Vocabulary() Vocabulary {
	return c.vocab
}

// Classify returns the category of n. Rules, first match wins:
//
//  1. TEXT with non-blank characters: BUTTON when the name carries a button
//     hint or the trimmed text equals a button verb, else TEXT.
//  2. COMPONENT or INSTANCE with a name: BUTTON by name, else OTHER.
//  3. FRAME or GROUP with a name: ICON by icon heuristics; otherwise, when
//     childless or button-named, BUTTON or OTHER by name; otherwise CONTAINER.
//
// Everything else, including blank names and missing types, is CategoryNone.
// The result depends only on n's own fields and its direct children.
func (c *Classifier) Classify(n *design.Node) Category {
	if n == nil {
		return CategoryNone
	}
	name := n.TrimmedName()

	switch n.Type {
	case design.KindText:
		text, ok := n.Text()
		if !ok {
			return CategoryNone
		}
		if c.IsButtonName(name) || c.IsButtonVerb(text) {
			return CategoryButton
		}
		return CategoryText

	case design.KindComponent, design.KindInstance:
		if name == "" {
			return CategoryNone
		}
		if c.IsButtonName(name) {
			return CategoryButton
		}
		return CategoryOther

	case design.KindFrame, design.KindGroup:
		if name == "" {
			return CategoryNone
		}
		if c.IsIconName(name) {
			return CategoryIcon
		}
		buttonNamed := c.IsButtonName(name)
		if n.ChildCount() == 0 || buttonNamed {
			if buttonNamed {
				return CategoryButton
			}
			return CategoryOther
		}
		return CategoryContainer
	}

	return CategoryNone
}

// FeatureName is the label a feature is recorded under: the trimmed text for
// TEXT nodes, the trimmed name otherwise.
func (c *Classifier) FeatureName(n *design.Node) string {
	if text, ok := n.Text(); ok {
		return text
	}
	return n.TrimmedName()
}

// IsButtonName reports whether name contains a button hint.
func (c *Classifier) IsButtonName(name string) bool {
	return containsAny(strings.ToLower(name), c.vocab.ButtonNameHints)
}

// IsButtonVerb reports whether text is exactly one of the button verbs.
func (c *Classifier) IsButtonVerb(text string) bool {
	_, ok := c.buttonVerbs[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// IsIconName reports whether name looks like an icon: an icon library name,
// a "/word" icon path, or any ":" or "/" path separator.
func (c *Classifier) IsIconName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return false
	}
	if containsAny(lower, c.vocab.IconLibraries) {
		return true
	}
	if strings.HasPrefix(lower, "/") {
		rest := strings.TrimPrefix(lower, "/")
		for _, word := range c.vocab.IconWords {
			if strings.HasPrefix(rest, word) {
				return true
			}
		}
	}
	return strings.ContainsAny(lower, ":/")
}

// IsCardName reports whether name carries a card hint.
func (c *Classifier) IsCardName(name string) bool {
	return containsAny(strings.ToLower(name), c.vocab.CardNameHints)
}

// SemanticKeywords returns the sorted category tags whose keywords occur in name.
func (c *Classifier) SemanticKeywords(name string) []string {
	lower := strings.ToLower(name)
	if strings.TrimSpace(lower) == "" {
		return nil
	}
	var tags []string
	for _, tag := range c.tags {
		if containsAny(lower, c.vocab.SemanticKeywords[tag]) {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
