package design

import (
	"encoding/json"
	"io"

	"github.com/teranos/pixelcheck/errors"
)

// Document is a fetched design file. Root is the "document" node; its
// children are normally CANVAS pages.
type Document struct {
	Name         string `json:"name"`
	LastModified string `json:"lastModified,omitempty"`
	Version      string `json:"version,omitempty"`
	Root         *Node  `json:"document"`
}

// ParseDocument decodes a design-file payload. A payload without a
// "document" object is rejected with ErrInvalidDocument: substituting an
// empty tree would skew cross-platform counts. Nesting depth is unbounded;
// levels below MaxDecodeDepth are skipped rather than kept.
func ParseDocument(raw []byte) (*Document, error) {
	return parseDocument(raw, MaxDecodeDepth)
}

func parseDocument(raw []byte, maxDepth int) (*Document, error) {
	d := newDecoder(raw, maxDepth)
	tok, err := d.dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, errors.NewInvalidDocumentError("payload is not a JSON object")
	}

	doc := &Document{}
	for d.dec.More() {
		keyTok, err := d.dec.Token()
		if err != nil {
			return nil, malformed(err)
		}
		key, _ := keyTok.(string)

		switch key {
		case "name":
			doc.Name, err = d.str()
		case "lastModified":
			doc.LastModified, err = d.str()
		case "version":
			doc.Version, err = d.str()
		case "document":
			doc.Root, err = d.root()
		default:
			err = d.skip()
		}
		if err != nil {
			if errors.IsInvalidDocument(err) {
				return nil, err
			}
			return nil, malformed(err)
		}
	}
	if _, err := d.dec.Token(); err != nil {
		return nil, malformed(err)
	}
	if _, err := d.dec.Token(); err != io.EOF {
		return nil, errors.NewInvalidDocumentError("unexpected data after the design file")
	}

	if doc.Root == nil {
		return nil, errors.NewInvalidDocumentError("missing %q field", "document")
	}
	return doc, nil
}

// root decodes the "document" value, which must be an object
func (d *decoder) root() (*Node, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('{') {
		if _, ok := tok.(json.Delim); ok {
			if err := d.skipRest(); err != nil {
				return nil, err
			}
		}
		return nil, errors.NewInvalidDocumentError("%q is not an object", "document")
	}
	return d.node(tok, 0)
}

func malformed(err error) error {
	return errors.NewInvalidDocumentError("malformed JSON: %v", err)
}

// Pages returns the top-level pages of the document.
func (d *Document) Pages() []*Node {
	if d == nil {
		return nil
	}
	return PagesOf(d.Root)
}

// PagesOf returns the CANVAS children of root. When root has none, root
// itself is the only page.
func PagesOf(root *Node) []*Node {
	if root == nil {
		return nil
	}
	var pages []*Node
	for _, c := range root.Children {
		if c != nil && c.Type == KindCanvas {
			pages = append(pages, c)
		}
	}
	if len(pages) == 0 {
		return []*Node{root}
	}
	return pages
}
