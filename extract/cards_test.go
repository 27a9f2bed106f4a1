package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pixelcheck/design"
)

func icon(name string) *design.Node {
	return &design.Node{Type: design.KindFrame, Name: name, Children: []*design.Node{
		{Type: design.KindVector, Name: "Vector"},
		{Type: design.KindFrame, Name: "Inner Shape"},
	}}
}

func flightsPage() *design.Node {
	flightCard := frame("Flight Card",
		text("route", "NYC to LAX"),
		frame("Price Row",
			text("price", "$120"),
			&design.Node{Type: design.KindInstance, Name: "Book Button"},
		),
		icon("heroicons/bell"),
		&design.Node{Type: design.KindGroup, Name: "Group 12", Children: []*design.Node{icon("heroicons/bell")}},
		frame("Inner Card", text("a", "x"), text("b", "y")),
	)
	promo := frame("Promo",
		text("copy", "Save 20%"),
		&design.Node{Type: design.KindInstance, Name: "Close Button"},
	)
	list := frame("List", text("a", "one"), text("b", "two"))

	return &design.Node{Type: design.KindDocument, Name: "Document", Children: []*design.Node{
		{Type: design.KindCanvas, Name: "Home", Children: []*design.Node{flightCard, promo, list}},
		{Type: design.KindCanvas, Name: "Empty"},
	}}
}

func TestExtractHierarchical(t *testing.T) {
	h := New(nil, Options{}).ExtractHierarchical(flightsPage())

	require.Len(t, h.Pages, 2)
	assert.Equal(t, "Home", h.Pages[0].Name)
	assert.Equal(t, "Empty", h.Pages[1].Name)
	assert.Empty(t, h.Pages[1].Cards)

	cards := h.Pages[0].Cards
	require.Len(t, cards, 2, "Inner Card is summarized inside Flight Card, List has no card pattern")
	assert.Equal(t, "Flight Card", cards[0].Name)
	assert.Equal(t, "Promo", cards[1].Name)
	assert.Equal(t, 2, h.CardCount())
	assert.Equal(t, []string{"Home"}, cards[0].Path)

	inv := cards[0].Inventory
	assert.Equal(t, map[string]int{"heroicons/bell": 2}, inv.Icons)
	assert.Equal(t, 4, inv.TextCount)
	assert.Equal(t, 1, inv.ButtonCount)
	assert.Equal(t, map[string]int{"Price Row": 1, "Inner Card": 1}, inv.Frames, "auto names and icon internals are excluded")
}

func TestCard_DetailedString(t *testing.T) {
	h := New(nil, Options{}).ExtractHierarchical(flightsPage())
	require.NotEmpty(t, h.Pages[0].Cards)

	want := "Flight Card\n" +
		"  icon heroicons/bell x2\n" +
		"  text: 4\n" +
		"  buttons: 1\n" +
		"  frames: Inner Card x1, Price Row x1\n"
	assert.Equal(t, want, h.Pages[0].Cards[0].DetailedString())

	promo := h.Pages[0].Cards[1]
	assert.Equal(t, "Promo\n  text: 1\n  buttons: 1\n", promo.DetailedString())
}

func TestExtractHierarchical_VerbTextCountsAsText(t *testing.T) {
	card := frame("Signup Card",
		text("title", "Create account"),
		text("cta", "Next"),
		text("blank", "  "),
		&design.Node{Type: design.KindInstance, Name: "Close Button"},
	)
	h := New(nil, Options{}).ExtractHierarchical(frame("Screen", card))

	require.Len(t, h.Pages[0].Cards, 1)
	inv := h.Pages[0].Cards[0].Inventory
	assert.Equal(t, 2, inv.TextCount, "the verb text is a text node, the blank one is not")
	assert.Equal(t, 2, inv.ButtonCount)
}

func TestExtractHierarchical_RootWithoutPages(t *testing.T) {
	root := frame("Screen", frame("Header", text("t", "Title"), icon("/menu")))
	h := New(nil, Options{}).ExtractHierarchical(root)

	require.Len(t, h.Pages, 1)
	assert.Equal(t, "Screen", h.Pages[0].Name)
	require.Len(t, h.Pages[0].Cards, 1)
	assert.Equal(t, map[string]int{"/menu": 1}, h.Pages[0].Cards[0].Inventory.Icons)
}

func TestExtractHierarchical_CardAtDepthCap(t *testing.T) {
	card := frame("Deep Card", text("a", "x"), frame("Nested", text("b", "y")))
	root := card
	for i := 0; i < 14; i++ {
		root = frame("Wrap", root)
	}

	h := New(nil, Options{}).ExtractHierarchical(root)
	require.Len(t, h.Pages[0].Cards, 1)
	inv := h.Pages[0].Cards[0].Inventory
	// card at depth 14: its children sit at the cap, grandchildren are cut
	assert.Equal(t, 1, inv.TextCount)
	assert.Equal(t, map[string]int{"Nested": 1}, inv.Frames)
}
