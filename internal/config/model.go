package config

import "github.com/zclconf/go-cty/cty"

// Document is the unified representation of all loaded node declarations,
// in source order.
type Document struct {
	Nodes []*NodeDecl
}

// NodeDecl declares one node: its type, its unique name and the fields the
// document assigns.
type NodeDecl struct {
	Type   string
	Name   string
	Fields []*FieldDecl
	// Source is the file:line position of the declaration.
	Source string
}

// FieldDecl assigns one field of a node.
type FieldDecl struct {
	Name string
	// Constant holds the value when the field was written as a number or
	// string literal.
	Constant *cty.Value
	// Expression is the source text as written in the document.
	Expression string
	Source     string
}

// IsConstant reports whether the field was written as a literal.
func (f *FieldDecl) IsConstant() bool {
	return f.Constant != nil
}

// Node returns the declaration of the named node.
func (d *Document) Node(name string) (*NodeDecl, bool) {
	for _, n := range d.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}
