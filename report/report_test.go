package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pixelcheck/analysis"
	"github.com/teranos/pixelcheck/extract"
	"github.com/teranos/pixelcheck/reconcile"
)

func sampleReport() *analysis.Report {
	return &analysis.Report{
		RunID: "run-1",
		Platforms: map[reconcile.Platform]*analysis.PlatformResult{
			reconcile.Android: {
				Platform: reconcile.Android,
				Cards: &extract.Hierarchy{Pages: []extract.Page{{
					Name: "Home",
					Cards: []extract.Card{{
						Name:      "Flight Card",
						Inventory: extract.Inventory{Icons: map[string]int{"heroicons/bell": 2}, TextCount: 4, ButtonCount: 1},
					}},
				}}},
			},
		},
		Groups: reconcile.Result{
			Mode:                   reconcile.ModeGroups,
			Totals:                 reconcile.Counts{Android: 2, IOS: 1, Web: 1},
			ConsistentIdentities:   1,
			InconsistentIdentities: 1,
			Entries: []reconcile.Entry{
				{
					Name:   "Login Button",
					Counts: reconcile.Counts{Android: 1, IOS: 1, Web: 1},
					Status: reconcile.StatusPerfect,
					Detail: "present on all platforms (1 each)",
				},
				{
					Name:   "Toolbar",
					Counts: reconcile.Counts{Android: 1},
					Status: reconcile.StatusMissing,
					Detail: "missing on ios, web",
				},
			},
		},
		Features: reconcile.Result{Mode: reconcile.ModeFeatures},
	}
}

func TestRenderText_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, sampleReport(), false))
	out := buf.String()

	assert.NotContains(t, out, "\x1b[", "no ANSI codes without color")
	assert.Contains(t, out, "=== ANALYSIS RESULTS ===")
	assert.Contains(t, out, "   Total Mappings: 2\n")
	assert.Contains(t, out, "   Consistent: 1\n")
	assert.Contains(t, out, "   Score: 50%\n")
	assert.Contains(t, out, "   Totals: android=2 ios=1 web=1\n")
	assert.Contains(t, out, "   2. Toolbar\n      Android: present x1\n      iOS:     missing\n      Web:     missing\n      Status: missing\n      Notes: missing on ios, web\n")
	assert.Contains(t, out, "Cards: Android\n  [Home]\n    Flight Card\n      icon heroicons/bell x2\n")
	assert.True(t, strings.HasSuffix(out, "run run-1\n"))
}

func TestRenderText_Color(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, sampleReport(), true))
	assert.Contains(t, buf.String(), "perfect")
}

func TestRenderText_Nil(t *testing.T) {
	assert.Error(t, RenderText(&bytes.Buffer{}, nil, false))
}

func TestRenderCards_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCards(&buf, extract.Hierarchy{}))
	assert.Equal(t, "no cards found\n", buf.String())
}

func TestJSON(t *testing.T) {
	data, err := MarshalJSON(sampleReport())
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"run_id\": \"run-1\"")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	groups := decoded["groups"].(map[string]interface{})
	assert.EqualValues(t, 1, groups["consistent_count"])
	assert.Len(t, groups["mapping_entries"], 2)

	t.Run("compact", func(t *testing.T) {
		t.Setenv(compactEnv, "1")
		data, err := MarshalJSON(map[string]int{"a": 1})
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(data))
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "results.json")
		require.NoError(t, WriteJSONFile(path, sampleReport()))
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, json.Valid(raw))
	})
}
