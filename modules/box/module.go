// Package box provides the "box" node type, an axis-aligned box whose
// output is an object carrying its six bounds. The helpers in this package
// are shared by the node types that read and rewrite such objects.
package box

import (
	"fmt"

	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// TypeName is the node type name used in documents.
const TypeName = "box"

// Bounds lists the bound attributes of a shape object in canonical order.
var Bounds = []string{"xmin", "ymin", "zmin", "xmax", "ymax", "zmax"}

var defaults = map[string]float64{
	"xmin": 0, "ymin": 0, "zmin": 0,
	"xmax": 1, "ymax": 1, "zmax": 1,
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// New builds a unit box at the origin.
func New(name string) (*datum.Node, error) {
	n := datum.NewNode(name, TypeName)
	for _, b := range Bounds {
		if err := n.AddFloat(b, defaults[b]); err != nil {
			return nil, err
		}
	}
	if err := n.AddFunction(datum.DefaultField, shape); err != nil {
		return nil, err
	}
	return n, nil
}

func shape(v *datum.NodeView) (cty.Value, error) {
	attrs := make(map[string]cty.Value, len(Bounds))
	for _, b := range Bounds {
		f, err := v.Float(b)
		if err != nil {
			return cty.NilVal, err
		}
		attrs[b] = cty.NumberFloatVal(f)
	}
	return cty.ObjectVal(attrs), nil
}

// IsShape reports whether v is an object that can carry bounds.
func IsShape(v cty.Value) bool {
	return v != cty.NilVal && !v.IsNull() && v.IsKnown() && v.Type().IsObjectType()
}

// Attr returns the named numeric attribute of a shape object.
func Attr(shape cty.Value, name string) (cty.Value, error) {
	if !IsShape(shape) {
		return cty.NilVal, fmt.Errorf("%w: input is %s, not a shape", datum.ErrInvalidOperation, describe(shape))
	}
	if !shape.Type().HasAttribute(name) {
		return cty.NilVal, fmt.Errorf("%w: input shape has no attribute %q", datum.ErrInvalidOperation, name)
	}
	return shape.GetAttr(name), nil
}

func describe(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return "null"
	}
	return v.Type().FriendlyName()
}

// Register registers the node type and its two corner handles.
func (m *Module) Register(r *registry.Registry) {
	fields := make([]registry.FieldSpec, 0, len(Bounds)+1)
	for _, b := range Bounds {
		fields = append(fields, registry.FieldSpec{Name: b, Kind: datum.KindFloat, Default: fmt.Sprint(defaults[b])})
	}
	fields = append(fields, registry.FieldSpec{Name: datum.DefaultField, Kind: datum.KindFunction})

	r.RegisterNodeType(&registry.NodeType{
		Name:        TypeName,
		Description: "Axis-aligned box; output is an object with xmin..zmax.",
		Fields:      fields,
		New:         New,
	})
	r.RegisterControl(TypeName, func(n *datum.Node) *registry.Control {
		return &registry.Control{
			Title: n.Name(),
			Handles: []registry.Handle{
				{Label: "min", X: "xmin", Y: "ymin"},
				{Label: "max", X: "xmax", Y: "ymax"},
			},
		}
	})
}
