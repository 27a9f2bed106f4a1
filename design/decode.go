package design

import (
	"bytes"
	"encoding/json"
)

// MaxDecodeDepth bounds how deep ParseDocument materializes the tree. The
// children of a node at this depth are skipped token by token, so parsing
// stays linear in the payload size however deep the input nests.
const MaxDecodeDepth = 64

// decoder streams a design payload with json.Decoder tokens. It never
// recurses into the standard decoder on a subtree, which would rescan the
// subtree once per level and hit the decoder's nesting limit.
type decoder struct {
	dec      *json.Decoder
	maxDepth int
}

func newDecoder(data []byte, maxDepth int) *decoder {
	if maxDepth <= 0 {
		maxDepth = MaxDecodeDepth
	}
	return &decoder{dec: json.NewDecoder(bytes.NewReader(data)), maxDepth: maxDepth}
}

// node decodes the value that starts with tok as a node at depth. null
// yields a nil node; scalars and arrays yield an empty one.
func (d *decoder) node(tok json.Token, depth int) (*Node, error) {
	if tok == nil {
		return nil, nil
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return &Node{}, nil
	}
	if delim != '{' {
		return &Node{}, d.skipRest()
	}

	n := &Node{}
	for d.dec.More() {
		keyTok, err := d.dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		switch key {
		case "id":
			n.ID, err = d.str()
		case "name":
			n.Name, err = d.str()
		case "type":
			var s string
			s, err = d.str()
			n.Type = Kind(s)
		case "characters":
			n.Characters, err = d.str()
		case "children":
			n.Children, err = d.children(depth)
		default:
			err = d.skip()
		}
		if err != nil {
			return nil, err
		}
	}
	// closing '}'
	if _, err := d.dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

// children decodes a children array for a parent at depth. Anything other
// than an array is ignored, as is every child below maxDepth.
func (d *decoder) children(depth int) ([]*Node, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, nil
	}
	if delim != '[' || depth >= d.maxDepth {
		return nil, d.skipRest()
	}

	var out []*Node
	for d.dec.More() {
		t, err := d.dec.Token()
		if err != nil {
			return nil, err
		}
		child, err := d.node(t, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	// closing ']'
	if _, err := d.dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// str reads one value and keeps it only if it is a string.
func (d *decoder) str() (string, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return "", err
	}
	switch t := tok.(type) {
	case string:
		return t, nil
	case json.Delim:
		return "", d.skipRest()
	default:
		return "", nil
	}
}

// skip discards the next value.
func (d *decoder) skip() error {
	tok, err := d.dec.Token()
	if err != nil {
		return err
	}
	if _, ok := tok.(json.Delim); ok {
		return d.skipRest()
	}
	return nil
}

// skipRest discards tokens up to the end of a container whose opening
// delimiter was just read.
func (d *decoder) skipRest() error {
	for open := 1; open > 0; {
		tok, err := d.dec.Token()
		if err != nil {
			return err
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				open++
			default:
				open--
			}
		}
	}
	return nil
}
