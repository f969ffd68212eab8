package datum

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/datumgraph/internal/datumid"
	"github.com/vk/datumgraph/internal/expr"
	"github.com/zclconf/go-cty/cty"
)

var errDetached = errors.New("node is not part of a graph")

// Func computes the value of a function datum. It must read the other
// fields of its node through view so that the reads are tracked.
type Func func(view *NodeView) (cty.Value, error)

// Datum is a single named value slot on a Node.
type Datum struct {
	node *Node
	name string
	kind Kind

	source string
	parsed *expr.Expression
	fn     Func

	value cty.Value
	state State
	err   error

	// deps holds the datums read by the last evaluation.
	deps map[datumid.Ref]struct{}
	// missingNode is the node name this datum is registered under in the
	// graph's missing index, if any.
	missingNode string
}

// Name returns the field name of the datum.
func (d *Datum) Name() string { return d.name }

// Kind returns the variant of the datum.
func (d *Datum) Kind() Kind { return d.kind }

// Node returns the owning node.
func (d *Datum) Node() *Node { return d.node }

// Ref returns the address of the datum.
func (d *Datum) Ref() datumid.Ref { return datumid.New(d.node.name, d.name) }

// State returns the condition of the cached value.
func (d *Datum) State() State { return d.state }

// Err returns the error of the last failed evaluation, or of the removal
// of an upstream node, if any.
func (d *Datum) Err() error { return d.err }

// Source returns the expression text of an expression datum.
func (d *Datum) Source() string { return d.source }

// Cached returns the cached value without evaluating. The second result is
// false unless the datum is valid.
func (d *Datum) Cached() (cty.Value, bool) {
	if d.state != StateValid {
		return cty.NilVal, false
	}
	return d.value, true
}

// Get evaluates the datum if needed and returns its value.
func (d *Datum) Get(ctx context.Context) (cty.Value, error) {
	g := d.node.graph
	if g == nil {
		return cty.NilVal, fmt.Errorf("%s: %w", d.Ref(), errDetached)
	}
	return g.Get(ctx, d.node.name, d.name)
}

// Set writes a literal value; see Graph.Set.
func (d *Datum) Set(ctx context.Context, v cty.Value) error {
	g := d.node.graph
	if g == nil {
		return fmt.Errorf("%s: %w", d.Ref(), errDetached)
	}
	return g.Set(ctx, d.node.name, d.name, v)
}

// SetExpression replaces the expression text; see Graph.SetExpression.
func (d *Datum) SetExpression(ctx context.Context, text string) error {
	g := d.node.graph
	if g == nil {
		return fmt.Errorf("%s: %w", d.Ref(), errDetached)
	}
	return g.SetExpression(ctx, d.node.name, d.name, text)
}

// reset drops everything derived from evaluation.
func (d *Datum) reset() {
	if d.kind.IsLiteral() {
		return
	}
	d.value = cty.NilVal
	d.state = StateAbsent
	d.err = nil
	d.deps = nil
	d.missingNode = ""
}
