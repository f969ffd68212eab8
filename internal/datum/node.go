package datum

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/datumgraph/internal/datumid"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// DefaultField is the field a bare node name refers to unless the node
// declares another one.
const DefaultField = "output"

var errSchemaFixed = errors.New("fields cannot be added once the node is part of a graph")

// Node is a named collection of datums. Fields are declared before the node
// is added to a Graph; afterwards the set of fields is fixed.
type Node struct {
	name         string
	typ          string
	defaultField string
	graph        *Graph

	datums map[string]*Datum
	order  []string
}

// NewNode creates an empty, detached node.
func NewNode(name, typ string) *Node {
	return &Node{
		name:         name,
		typ:          typ,
		defaultField: DefaultField,
		datums:       make(map[string]*Datum),
	}
}

// Name returns the unique name of the node.
func (n *Node) Name() string { return n.name }

// Type returns the node type name the node was built from.
func (n *Node) Type() string { return n.typ }

// DefaultField returns the field a bare reference to the node resolves to.
func (n *Node) DefaultField() string { return n.defaultField }

// Graph returns the graph the node belongs to, or nil.
func (n *Node) Graph() *Graph { return n.graph }

// SetDefaultField changes the field a bare reference to the node resolves to.
func (n *Node) SetDefaultField(field string) error {
	if n.graph != nil {
		return fmt.Errorf("node %q: %w", n.name, errSchemaFixed)
	}
	n.defaultField = field
	return nil
}

// AddFloat declares a float literal field.
func (n *Node) AddFloat(name string, v float64) error {
	return n.add(&Datum{name: name, kind: KindFloat, value: cty.NumberFloatVal(v), state: StateValid})
}

// AddString declares a string literal field.
func (n *Node) AddString(name, v string) error {
	return n.add(&Datum{name: name, kind: KindString, value: cty.StringVal(v), state: StateValid})
}

// AddLiteral declares a literal field whose kind follows the type of v.
// Only numbers and strings are literals.
func (n *Node) AddLiteral(name string, v cty.Value) error {
	if v.IsNull() || !v.IsKnown() {
		return fmt.Errorf("node %q field %q: literal must be known and not null", n.name, name)
	}
	switch v.Type() {
	case cty.Number:
		return n.add(&Datum{name: name, kind: KindFloat, value: v, state: StateValid})
	case cty.String:
		return n.add(&Datum{name: name, kind: KindString, value: v, state: StateValid})
	case cty.Bool:
		s, _ := convert.Convert(v, cty.String)
		return n.add(&Datum{name: name, kind: KindString, value: s, state: StateValid})
	default:
		return fmt.Errorf("node %q field %q: %s is not a literal type", n.name, name, v.Type().FriendlyName())
	}
}

// AddExpression declares an expression field. The text is parsed when the
// node is added to a graph.
func (n *Node) AddExpression(name, source string) error {
	return n.add(&Datum{name: name, kind: KindExpression, source: source})
}

// AddFunction declares a field computed by fn.
func (n *Node) AddFunction(name string, fn Func) error {
	if fn == nil {
		return fmt.Errorf("node %q field %q: nil function", n.name, name)
	}
	return n.add(&Datum{name: name, kind: KindFunction, fn: fn})
}

func (n *Node) add(d *Datum) error {
	if n.graph != nil {
		return fmt.Errorf("node %q: %w", n.name, errSchemaFixed)
	}
	if !datumid.ValidName(d.name) {
		return fmt.Errorf("node %q: invalid field name %q", n.name, d.name)
	}
	if _, exists := n.datums[d.name]; exists {
		return fmt.Errorf("node %q: field %q declared twice", n.name, d.name)
	}
	d.node = n
	n.datums[d.name] = d
	n.order = append(n.order, d.name)
	return nil
}

// Datum returns the field of the given name.
func (n *Node) Datum(name string) (*Datum, bool) {
	d, ok := n.datums[name]
	return d, ok
}

// Fields returns the field names in declaration order.
func (n *Node) Fields() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Datums returns the fields in declaration order.
func (n *Node) Datums() []*Datum {
	out := make([]*Datum, len(n.order))
	for i, name := range n.order {
		out[i] = n.datums[name]
	}
	return out
}

// GetField evaluates a field of the node.
func (n *Node) GetField(ctx context.Context, field string) (cty.Value, error) {
	if n.graph == nil {
		return cty.NilVal, fmt.Errorf("node %q: %w", n.name, errDetached)
	}
	return n.graph.Get(ctx, n.name, field)
}

// SetField writes a literal field from a native Go value.
func (n *Node) SetField(ctx context.Context, field string, v any) error {
	if n.graph == nil {
		return fmt.Errorf("node %q: %w", n.name, errDetached)
	}
	val, err := ToValue(v)
	if err != nil {
		return &Error{Kind: ErrInvalidAssignment, Datum: datumid.New(n.name, field), Err: err}
	}
	return n.graph.Set(ctx, n.name, field, val)
}

// SetFieldExpression replaces the text of an expression field.
func (n *Node) SetFieldExpression(ctx context.Context, field, text string) error {
	if n.graph == nil {
		return fmt.Errorf("node %q: %w", n.name, errDetached)
	}
	return n.graph.SetExpression(ctx, n.name, field, text)
}

// NodeView is what a Func sees of its node while it is being evaluated.
// Every read through it is recorded as a dependency of the datum.
type NodeView struct {
	node  *Node
	reads *reads
}

// Name returns the name of the node.
func (v *NodeView) Name() string { return v.node.name }

// Get returns the value of another field of the node.
func (v *NodeView) Get(field string) (cty.Value, error) {
	return v.reads.read(datumid.New(v.node.name, field))
}

// Float returns the value of another field of the node as a float64.
func (v *NodeView) Float(field string) (float64, error) {
	val, err := v.Get(field)
	if err != nil {
		return 0, err
	}
	f, err := Float(val)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", field, err)
	}
	return f, nil
}
