// Package bounds provides two node types that operate on shape objects:
// "get_bounds" exposes the bounds of its input as separate fields, and
// "set_bounds" outputs its input with the bounds replaced.
package bounds

import (
	"fmt"

	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/registry"
	"github.com/vk/datumgraph/modules/box"
	"github.com/zclconf/go-cty/cty"
)

const (
	// GetTypeName is the document name of the node type reading bounds.
	GetTypeName = "get_bounds"
	// SetTypeName is the document name of the node type writing bounds.
	SetTypeName = "set_bounds"

	inputField   = "input"
	defaultInput = "f1"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// NewGet builds a get_bounds node reading the node named f1.
func NewGet(name string) (*datum.Node, error) {
	n := datum.NewNode(name, GetTypeName)
	if err := addPosition(n); err != nil {
		return nil, err
	}
	for _, b := range box.Bounds {
		if err := n.AddFunction(b, readBound(b)); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// NewSet builds a set_bounds node reading the node named f1.
func NewSet(name string) (*datum.Node, error) {
	n := datum.NewNode(name, SetTypeName)
	if err := addPosition(n); err != nil {
		return nil, err
	}
	for _, b := range box.Bounds {
		if err := n.AddFloat(b, 0); err != nil {
			return nil, err
		}
	}
	if err := n.AddFunction(datum.DefaultField, replaceBounds); err != nil {
		return nil, err
	}
	return n, nil
}

// addPosition adds the control position and the input expression.
func addPosition(n *datum.Node) error {
	if err := n.AddFloat("x", 0); err != nil {
		return err
	}
	if err := n.AddFloat("y", 0); err != nil {
		return err
	}
	return n.AddExpression(inputField, defaultInput)
}

func readBound(name string) datum.Func {
	return func(v *datum.NodeView) (cty.Value, error) {
		in, err := v.Get(inputField)
		if err != nil {
			return cty.NilVal, err
		}
		return box.Attr(in, name)
	}
}

func replaceBounds(v *datum.NodeView) (cty.Value, error) {
	in, err := v.Get(inputField)
	if err != nil {
		return cty.NilVal, err
	}
	if !box.IsShape(in) {
		return cty.NilVal, fmt.Errorf("%w: input is not a shape", datum.ErrInvalidOperation)
	}
	attrs := make(map[string]cty.Value, len(box.Bounds))
	for name, attr := range in.AsValueMap() {
		attrs[name] = attr
	}
	for _, b := range box.Bounds {
		f, err := v.Float(b)
		if err != nil {
			return cty.NilVal, err
		}
		attrs[b] = cty.NumberFloatVal(f)
	}
	return cty.ObjectVal(attrs), nil
}

func fields(computed datum.Kind, withOutput bool) []registry.FieldSpec {
	out := []registry.FieldSpec{
		{Name: "x", Kind: datum.KindFloat, Default: "0"},
		{Name: "y", Kind: datum.KindFloat, Default: "0"},
		{Name: inputField, Kind: datum.KindExpression, Default: defaultInput},
	}
	for _, b := range box.Bounds {
		spec := registry.FieldSpec{Name: b, Kind: computed}
		if computed == datum.KindFloat {
			spec.Default = "0"
		}
		out = append(out, spec)
	}
	if withOutput {
		out = append(out, registry.FieldSpec{Name: datum.DefaultField, Kind: datum.KindFunction})
	}
	return out
}

// Register registers both node types and their controls.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNodeType(&registry.NodeType{
		Name:        GetTypeName,
		Description: "Exposes xmin..zmax of the input shape as fields.",
		Fields:      fields(datum.KindFunction, false),
		New:         NewGet,
	})
	r.RegisterNodeType(&registry.NodeType{
		Name:        SetTypeName,
		Description: "Outputs the input shape with xmin..zmax replaced.",
		Fields:      fields(datum.KindFloat, true),
		New:         NewSet,
	})

	r.RegisterControl(GetTypeName, func(n *datum.Node) *registry.Control {
		return &registry.Control{
			Title:   n.Name(),
			Handles: []registry.Handle{{Label: "position", X: "x", Y: "y"}},
		}
	})
	r.RegisterControl(SetTypeName, func(n *datum.Node) *registry.Control {
		return &registry.Control{
			Title: n.Name(),
			Handles: []registry.Handle{
				{Label: "position", X: "x", Y: "y"},
				{Label: "min", X: "xmin", Y: "ymin"},
				{Label: "max", X: "xmax", Y: "ymax"},
			},
		}
	})
}
