package classify

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/teranos/pixelcheck/errors"
)

// Vocabulary holds the lookup tables behind every name heuristic.
// All matching is case-insensitive; entries are lowercased on load.
type Vocabulary struct {
	// ButtonNameHints mark a node as a button when contained in its name
	ButtonNameHints []string `yaml:"button_name_hints" toml:"button_name_hints"`
	// ButtonVerbs mark a TEXT node as a button when its trimmed text equals one exactly
	ButtonVerbs []string `yaml:"button_verbs" toml:"button_verbs"`
	// IconLibraries mark a frame or group as an icon when contained in its name
	IconLibraries []string `yaml:"icon_libraries" toml:"icon_libraries"`
	// IconWords are recognised after a leading "/" (e.g. "/search")
	IconWords []string `yaml:"icon_words" toml:"icon_words"`
	// CardNameHints mark a FRAME as a card candidate in hierarchical extraction
	CardNameHints []string `yaml:"card_name_hints" toml:"card_name_hints"`
	// SemanticKeywords maps a category tag to the substrings that imply it
	SemanticKeywords map[string][]string `yaml:"semantic_keywords" toml:"semantic_keywords"`
}

// DefaultVocabulary returns the built-in tables.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		ButtonNameHints: []string{"button", "btn"},
		ButtonVerbs: []string{
			"sign in", "sign up", "login", "register", "submit",
			"continue", "next", "back", "cancel",
		},
		IconLibraries: []string{
			"heroicons", "material-symbols", "material-icons",
			"feather", "fontawesome", "icon",
		},
		IconWords: []string{
			"search", "menu", "close", "arrow", "chevron", "home", "user",
			"bell", "heart", "star", "settings", "filter", "calendar", "clock",
			"location", "plus", "minus", "check",
		},
		CardNameHints: []string{"card", "item", "section", "header", "bar"},
		SemanticKeywords: map[string][]string{
			"search":       {"search"},
			"notification": {"notification"},
			"user":         {"user"},
			"menu":         {"menu"},
			"filter":       {"filter"},
			"location":     {"location"},
			"time":         {"time"},
			"favorite":     {"favorite"},
		},
	}
}

// LoadVocabulary reads a YAML (.yaml, .yml) or TOML (.toml) vocabulary file.
// Tables present in the file replace the defaults; absent ones keep them.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, errors.Wrapf(err, "failed to read vocabulary file %s", path)
	}

	var override Vocabulary
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &override)
	case ".toml":
		err = toml.Unmarshal(data, &override)
	default:
		return Vocabulary{}, errors.NewInvalidRequestError("unsupported vocabulary format %q (use .yaml or .toml)", filepath.Ext(path))
	}
	if err != nil {
		return Vocabulary{}, errors.Wrapf(err, "failed to parse vocabulary file %s", path)
	}

	return DefaultVocabulary().Merge(override), nil
}

// Merge returns v with every non-empty table of o replacing its counterpart.
func (v Vocabulary) Merge(o Vocabulary) Vocabulary {
	if len(o.ButtonNameHints) > 0 {
		v.ButtonNameHints = o.ButtonNameHints
	}
	if len(o.ButtonVerbs) > 0 {
		v.ButtonVerbs = o.ButtonVerbs
	}
	if len(o.IconLibraries) > 0 {
		v.IconLibraries = o.IconLibraries
	}
	if len(o.IconWords) > 0 {
		v.IconWords = o.IconWords
	}
	if len(o.CardNameHints) > 0 {
		v.CardNameHints = o.CardNameHints
	}
	if len(o.SemanticKeywords) > 0 {
		v.SemanticKeywords = o.SemanticKeywords
	}
	return v
}

// normalized lowercases and trims every entry, dropping empties.
func (v Vocabulary) normalized() Vocabulary {
	out := Vocabulary{
		ButtonNameHints:  lowerAll(v.ButtonNameHints),
		ButtonVerbs:      lowerAll(v.ButtonVerbs),
		IconLibraries:    lowerAll(v.IconLibraries),
		IconWords:        lowerAll(v.IconWords),
		CardNameHints:    lowerAll(v.CardNameHints),
		SemanticKeywords: make(map[string][]string, len(v.SemanticKeywords)),
	}
	for tag, words := range v.SemanticKeywords {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		out.SemanticKeywords[tag] = lowerAll(words)
	}
	return out
}

// Tags returns the semantic category tags in sorted order.
func (v Vocabulary) Tags() []string {
	tags := make([]string, 0, len(v.SemanticKeywords))
	for tag := range v.SemanticKeywords {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
