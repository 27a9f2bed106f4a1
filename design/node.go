// Package design models the subset of a Figma document tree needed to
// classify UI components, and walks it with a bounded explicit stack.
package design

import (
	"strings"
)

// Kind is the node discriminant, taken verbatim from the "type" field.
type Kind string

const (
	KindDocument     Kind = "DOCUMENT"
	KindCanvas       Kind = "CANVAS"
	KindFrame        Kind = "FRAME"
	KindGroup        Kind = "GROUP"
	KindSection      Kind = "SECTION"
	KindText         Kind = "TEXT"
	KindComponent    Kind = "COMPONENT"
	KindComponentSet Kind = "COMPONENT_SET"
	KindInstance     Kind = "INSTANCE"
	KindVector       Kind = "VECTOR"
	KindRectangle    Kind = "RECTANGLE"
	KindEllipse      Kind = "ELLIPSE"
	KindUnknown      Kind = ""
)

// Shape is the coarse variant a node belongs to.
type Shape int

const (
	// ShapeLeaf covers vectors, shapes and anything without a known role
	ShapeLeaf Shape = iota
	// ShapeText is a TEXT node; Characters is meaningful only here
	ShapeText
	// ShapeContainer is FRAME, GROUP, COMPONENT or INSTANCE
	ShapeContainer
)

func (s Shape) String() string {
	switch s {
	case ShapeText:
		return "text"
	case ShapeContainer:
		return "container"
	default:
		return "leaf"
	}
}

// Node is one node of a design document. Optional fields are decoded
// leniently: wrong JSON types become zero values instead of errors.
type Node struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       Kind    `json:"type"`
	Characters string  `json:"characters,omitempty"`
	Children   []*Node `json:"children,omitempty"`
}

// Shape reports which variant of the node union n is.
func (n *Node) Shape() Shape {
	if n == nil {
		return ShapeLeaf
	}
	switch n.Type {
	case KindText:
		return ShapeText
	case KindFrame, KindGroup, KindComponent, KindInstance:
		return ShapeContainer
	default:
		return ShapeLeaf
	}
}

// Text returns the trimmed characters of a TEXT node. ok is false for
// non-text nodes and for text nodes with only whitespace.
func (n *Node) Text() (text string, ok bool) {
	if n.Shape() != ShapeText {
		return "", false
	}
	text = strings.TrimSpace(n.Characters)
	return text, text != ""
}

// TrimmedName returns the node name without surrounding whitespace.
func (n *Node) TrimmedName() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Name)
}

// IsComponentLike is true for COMPONENT and INSTANCE nodes.
func (n *Node) IsComponentLike() bool {
	return n != nil && (n.Type == KindComponent || n.Type == KindInstance)
}

// ChildCount counts non-nil children.
func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}
	count := 0
	for _, c := range n.Children {
		if c != nil {
			count++
		}
	}
	return count
}

// UnmarshalJSON decodes a node without failing on unexpected field types.
// A node whose "type" is missing or not a string decodes with KindUnknown.
// Children deeper than MaxDecodeDepth are dropped.
func (n *Node) UnmarshalJSON(data []byte) error {
	d := newDecoder(data, MaxDecodeDepth)
	tok, err := d.dec.Token()
	if err != nil {
		return err
	}
	node, err := d.node(tok, 0)
	if err != nil {
		return err
	}
	if node == nil {
		*n = Node{}
		return nil
	}
	*n = *node
	return nil
}
