// Package cell provides the "cell" node type, whose fields are whatever the
// document declares: constants become literals, anything else an expression.
package cell

import (
	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/registry"
)

// TypeName is the node type name used in documents.
const TypeName = "cell"

// Module implements the registry.Module interface for this package.
type Module struct{}

// New builds an empty cell.
func New(name string) (*datum.Node, error) {
	return datum.NewNode(name, TypeName), nil
}

// Register registers the node type and its control.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNodeType(&registry.NodeType{
		Name:        TypeName,
		Description: "Free-form fields; constants are literals, everything else is an expression.",
		Open:        true,
		New:         New,
	})
	r.RegisterControl(TypeName, func(n *datum.Node) *registry.Control {
		return &registry.Control{Title: n.Name()}
	})
}
