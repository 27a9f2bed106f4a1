package design

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pixelcheck/errors"
)

func TestParseDocument(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		raw := []byte(`{
			"name": "Flights Android",
			"lastModified": "2026-01-01T00:00:00Z",
			"document": {
				"id": "0:0", "name": "Document", "type": "DOCUMENT",
				"children": [
					{"id": "0:1", "name": "Home", "type": "CANVAS", "children": [
						{"id": "1:2", "name": "Search Bar", "type": "FRAME", "children": [
							{"id": "1:3", "name": "hint", "type": "TEXT", "characters": "Search flights..."}
						]}
					]}
				]
			}
		}`)

		doc, err := ParseDocument(raw)
		require.NoError(t, err)
		assert.Equal(t, "Flights Android", doc.Name)
		require.NotNil(t, doc.Root)
		assert.Equal(t, KindDocument, doc.Root.Type)

		pages := doc.Pages()
		require.Len(t, pages, 1)
		assert.Equal(t, "Home", pages[0].Name)
		assert.Equal(t, "Search flights...", pages[0].Children[0].Children[0].Characters)
	})

	t.Run("missing document field is fatal", func(t *testing.T) {
		_, err := ParseDocument([]byte(`{"name": "x"}`))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidDocument(err))
	})

	t.Run("document that is not an object is fatal", func(t *testing.T) {
		_, err := ParseDocument([]byte(`{"document": [1, 2]}`))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidDocument(err))

		_, err = ParseDocument([]byte(`{"document": null}`))
		assert.True(t, errors.IsInvalidDocument(err))
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseDocument([]byte(`<html>`))
		assert.True(t, errors.IsInvalidDocument(err))
	})

	t.Run("root without pages is its own page", func(t *testing.T) {
		doc, err := ParseDocument([]byte(`{"document": {"type": "FRAME", "name": "Screen"}}`))
		require.NoError(t, err)
		require.Len(t, doc.Pages(), 1)
		assert.Equal(t, "Screen", doc.Pages()[0].Name)
	})
}

// nestedDocument wraps a TEXT leaf in depth single-child FRAMEs
func nestedDocument(depth int) []byte {
	var b strings.Builder
	b.WriteString(`{"name": "Deep", "document": `)
	for i := 0; i < depth; i++ {
		fmt.Fprintf(&b, `{"type": "FRAME", "name": "n%d", "children": [`, i)
	}
	b.WriteString(`{"type": "TEXT", "name": "leaf", "characters": "bottom"}`)
	for i := 0; i < depth; i++ {
		b.WriteString(`]}`)
	}
	b.WriteString(`}`)
	return []byte(b.String())
}

func TestParseDocument_DeepNesting(t *testing.T) {
	for _, depth := range []int{2000, 6000, 12000} {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			raw := nestedDocument(depth)

			start := time.Now()
			doc, err := ParseDocument(raw)
			elapsed := time.Since(start)

			require.NoError(t, err)
			assert.Less(t, elapsed, 2*time.Second, "decoding must stay linear in payload size")
			assert.Equal(t, "Deep", doc.Name)
			assert.Equal(t, "n0", doc.Root.Name)

			// Walk still stops at its own cap
			assert.Equal(t, DefaultMaxDepth+1, Count(doc.Root, DefaultMaxDepth))
			// Nothing below the decode cap is kept
			assert.Equal(t, MaxDecodeDepth+1, Count(doc.Root, 1<<20))
		})
	}
}

func TestParseDocument_DecodeCap(t *testing.T) {
	doc, err := parseDocument(nestedDocument(5), 2)
	require.NoError(t, err)

	n2 := doc.Root.Children[0].Children[0]
	assert.Equal(t, "n2", n2.Name)
	assert.Empty(t, n2.Children, "children of a node at the cap are skipped")
	assert.Equal(t, 3, Count(doc.Root, 10))
}

func TestParseDocument_MalformedJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		msg  string
	}{
		{"truncated", `{"document": {"type": "FRAME", "children": [`, "malformed JSON"},
		{"trailing data", `{"document": {}} {"document": {}}`, "unexpected data"},
		{"array payload", `[{"document": {}}]`, "not a JSON object"},
		{"empty", ``, "not a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.IsInvalidDocument(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseDocument_IgnoresUnknownFields(t *testing.T) {
	raw := `{"schemaVersion": 0, "styles": {"1:1": {"name": "x"}}, "document": {
		"type": "DOCUMENT", "absoluteBoundingBox": {"x": 1, "y": [1, 2]},
		"children": [{"type": "CANVAS", "name": "Home", "fills": [{"type": "SOLID"}]}]
	}, "version": 42}`
	doc, err := ParseDocument([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "", doc.Version, "non-string version is dropped")
	require.Len(t, doc.Pages(), 1)
	assert.Equal(t, "Home", doc.Pages()[0].Name)
}

func TestNode_LenientDecoding(t *testing.T) {
	var n Node
	raw := `{"id": 7, "name": null, "type": 3, "characters": {"x": 1},
		"children": [null, {"type": "TEXT", "characters": "  Hi  "}, "junk"]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &n))

	assert.Equal(t, "", n.ID)
	assert.Equal(t, "", n.Name)
	assert.Equal(t, KindUnknown, n.Type)
	assert.Equal(t, ShapeLeaf, n.Shape())
	require.Len(t, n.Children, 3)
	assert.Nil(t, n.Children[0])
	assert.Equal(t, 2, n.ChildCount())

	text, ok := n.Children[1].Text()
	assert.True(t, ok)
	assert.Equal(t, "Hi", text)
	assert.Equal(t, KindUnknown, n.Children[2].Type)
}

func TestNode_Text(t *testing.T) {
	empty := &Node{Type: KindText, Name: "lbl1", Characters: "  "}
	_, ok := empty.Text()
	assert.False(t, ok)

	frame := &Node{Type: KindFrame, Characters: "ignored"}
	_, ok = frame.Text()
	assert.False(t, ok)

	var nilNode *Node
	_, ok = nilNode.Text()
	assert.False(t, ok)
	assert.Equal(t, "", nilNode.TrimmedName())
}

func TestWalk_PreOrderWithPaths(t *testing.T) {
	root := &Node{Name: "root", Type: KindFrame, Children: []*Node{
		{Name: "a", Type: KindFrame, Children: []*Node{
			{Name: "a1", Type: KindText},
			nil,
			{Name: "a2", Type: KindText},
		}},
		{Name: "b", Type: KindGroup},
	}}

	type visit struct {
		name  string
		depth int
		path  string
	}
	var got []visit
	Walk(root, 0, func(n *Node, depth int, path []string) bool {
		got = append(got, visit{n.Name, depth, fmt.Sprint(path)})
		return true
	})

	assert.Equal(t, []visit{
		{"root", 0, "[]"},
		{"a", 1, "[root]"},
		{"a1", 2, "[root a]"},
		{"a2", 2, "[root a]"},
		{"b", 1, "[root]"},
	}, got)
}

func TestWalk_SkipChildren(t *testing.T) {
	root := &Node{Name: "root", Children: []*Node{
		{Name: "card", Children: []*Node{{Name: "inner"}}},
		{Name: "sibling"},
	}}

	var names []string
	Walk(root, 0, func(n *Node, _ int, _ []string) bool {
		names = append(names, n.Name)
		return n.Name != "card"
	})
	assert.Equal(t, []string{"root", "card", "sibling"}, names)
}

func TestWalk_DepthCap(t *testing.T) {
	// 20 levels of single-child nesting
	root := &Node{Name: "n0", Type: KindFrame}
	cur := root
	for i := 1; i < 20; i++ {
		next := &Node{Name: fmt.Sprintf("n%d", i), Type: KindFrame}
		cur.Children = []*Node{next}
		cur = next
	}

	maxSeen := -1
	Walk(root, DefaultMaxDepth, func(_ *Node, depth int, _ []string) bool {
		if depth > maxSeen {
			maxSeen = depth
		}
		return true
	})
	assert.Equal(t, DefaultMaxDepth, maxSeen)
	assert.Equal(t, DefaultMaxDepth+1, Count(root, DefaultMaxDepth))
	assert.Equal(t, 4, Count(root, 3))
}

func TestWalk_SelfReferenceTerminates(t *testing.T) {
	loop := &Node{Name: "loop", Type: KindFrame}
	loop.Children = []*Node{loop}

	assert.Equal(t, 6, Count(loop, 5))
}

func TestWalk_NilInputs(t *testing.T) {
	called := false
	Walk(nil, 0, func(*Node, int, []string) bool {
		called = true
		return true
	})
	assert.False(t, called)
	Walk(&Node{}, 0, nil)
}
