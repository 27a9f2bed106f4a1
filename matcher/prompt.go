package matcher

import (
	"fmt"
	"strings"

	"github.com/teranos/pixelcheck/extract"
)

// SystemPrompt frames every oracle request.
const SystemPrompt = `You compare UI components across Android, iOS and Web designs.
Android follows Material Design, iOS follows the Human Interface Guidelines,
Web uses standard HTML controls. The same feature may be named or composed
differently per platform: a search bar on one platform can be a search icon
on another. Judge functional equivalence, not naming.
Respond with JSON only, no prose.`

// Pair is one similarity question.
type Pair struct {
	A, B extract.StructuralGroup
}

// BuildPrompt renders a batch. Pairs are numbered from 0 and the oracle is
// asked to answer by that index.
func BuildPrompt(pairs []Pair) string {
	var b strings.Builder
	b.WriteString("Decide for each numbered pair whether both components are the same widget on different platforms.\n")
	b.WriteString(`Answer with a JSON array, one object per pair: [{"index": 0, "similar": true}, ...]`)
	b.WriteString("\n\n")
	for i, p := range pairs {
		fmt.Fprintf(&b, "%d. A: %s | B: %s\n", i, describe(p.A), describe(p.B))
	}
	return b.String()
}

func describe(g extract.StructuralGroup) string {
	s := fmt.Sprintf("%q (%s, %s, %d children", g.Name, g.Type, g.Signature, g.Recipe.TotalChildren)
	if len(g.SemanticKeywords) > 0 {
		s += ", keywords: " + strings.Join(g.SemanticKeywords, " ")
	}
	return s + ")"
}
