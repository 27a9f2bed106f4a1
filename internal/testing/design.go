// Package testing holds fixtures shared by package tests.
package testing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/teranos/pixelcheck/design"
)

// Text builds a TEXT node
func Text(name, characters string) *design.Node {
	return &design.Node{Type: design.KindText, Name: name, Characters: characters}
}

// Frame builds a FRAME node
func Frame(name string, children ...*design.Node) *design.Node {
	return &design.Node{Type: design.KindFrame, Name: name, Children: children}
}

// Instance builds an INSTANCE node
func Instance(name string, children ...*design.Node) *design.Node {
	return &design.Node{Type: design.KindInstance, Name: name, Children: children}
}

// Page builds a CANVAS node
func Page(name string, children ...*design.Node) *design.Node {
	return &design.Node{Type: design.KindCanvas, Name: name, Children: children}
}

// DocumentJSON wraps pages in a design-file envelope
func DocumentJSON(t *testing.T, name string, pages ...*design.Node) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"name":     name,
		"document": &design.Node{Type: design.KindDocument, Name: "Document", Children: pages},
	})
	if err != nil {
		t.Fatalf("Failed to marshal design fixture: %v", err)
	}
	return raw
}

// WriteDesign writes a design file into a temp dir and returns its path.
// The dir is removed by t.Cleanup.
func WriteDesign(t *testing.T, name string, raw []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("Failed to write design fixture: %v", err)
	}
	return path
}
