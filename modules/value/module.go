// Package value provides the "value" node type: a single number that other
// nodes refer to by the node name alone.
package value

import (
	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/registry"
)

// TypeName is the node type name used in documents.
const TypeName = "value"

// Field is the only field of a value node, and its default field.
const Field = "value"

// Module implements the registry.Module interface for this package.
type Module struct{}

// New builds a value node holding zero.
func New(name string) (*datum.Node, error) {
	n := datum.NewNode(name, TypeName)
	if err := n.AddFloat(Field, 0); err != nil {
		return nil, err
	}
	if err := n.SetDefaultField(Field); err != nil {
		return nil, err
	}
	return n, nil
}

// Register registers the node type and its slider control.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNodeType(&registry.NodeType{
		Name:        TypeName,
		Description: "A single number, referenced by the node name alone.",
		Fields:      []registry.FieldSpec{{Name: Field, Kind: datum.KindFloat, Default: "0"}},
		New:         New,
	})
	r.RegisterControl(TypeName, func(n *datum.Node) *registry.Control {
		return &registry.Control{
			Title:   n.Name(),
			Handles: []registry.Handle{{Label: Field, X: Field}},
		}
	})
}
