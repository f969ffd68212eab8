package datum

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/datumgraph/internal/ctxlog"
	"github.com/vk/datumgraph/internal/datumid"
	"github.com/vk/datumgraph/internal/expr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Graph owns a set of nodes and the dependency relation between their datums.
type Graph struct {
	mu    sync.Mutex
	nodes map[string]*Node

	// dependents maps a datum to the datums whose last evaluation read it.
	dependents map[datumid.Ref]map[datumid.Ref]struct{}
	// missing maps a node name that is not in the graph to the datums whose
	// last evaluation failed to find it.
	missing map[string]map[datumid.Ref]struct{}

	parser   *expr.Parser
	hooks    []Hook
	observer Observer
}

// Option configures a Graph.
type Option func(*Graph)

// WithHook registers a hook. Hooks are called in registration order.
func WithHook(h Hook) Option {
	return func(g *Graph) { g.hooks = append(g.hooks, h) }
}

// WithObserver sets the receiver of evaluation events.
func WithObserver(o Observer) Option {
	return func(g *Graph) { g.observer = o }
}

// WithParser shares an expression parser, and its cache, with the graph.
func WithParser(p *expr.Parser) Option {
	return func(g *Graph) { g.parser = p }
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:      make(map[string]*Node),
		dependents: make(map[datumid.Ref]map[datumid.Ref]struct{}),
		missing:    make(map[string]map[datumid.Ref]struct{}),
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.parser == nil {
		g.parser = expr.NewParser(expr.DefaultCacheSize)
	}
	return g
}

// Parser returns the expression parser used by the graph.
func (g *Graph) Parser() *expr.Parser { return g.parser }

// AddNode attaches n to the graph, parsing all of its expression fields.
// Datums that previously failed because no node of this name existed are
// invalidated and reported to the hooks.
func (g *Graph) AddNode(ctx context.Context, n *Node) error {
	g.mu.Lock()
	p := newPass()
	err := g.addNode(ctx, p, n)
	g.mu.Unlock()
	g.notify(p)
	return err
}

func (g *Graph) addNode(ctx context.Context, p *pass, n *Node) error {
	if n.graph != nil {
		return fmt.Errorf("node %q is already part of a graph", n.name)
	}
	if !datumid.ValidName(n.name) || n.name == expr.SelfName {
		return fmt.Errorf("invalid node name %q", n.name)
	}
	if _, exists := g.nodes[n.name]; exists {
		return fmt.Errorf("node %q already exists", n.name)
	}
	for _, d := range n.Datums() {
		if d.kind != KindExpression || d.parsed != nil {
			continue
		}
		parsed, err := g.parser.Parse(d.source)
		if err != nil {
			return &Error{Kind: ErrParse, Datum: d.Ref(), Err: err}
		}
		d.parsed = parsed
	}

	g.nodes[n.name] = n
	n.graph = g
	ctxlog.FromContext(ctx).Debug("Node added.", "node", n.name, "type", n.typ, "fields", len(n.order))

	waiting := g.missing[n.name]
	delete(g.missing, n.name)
	for _, ref := range sortedKeys(waiting) {
		if d, ok := g.datum(ref); ok {
			d.missingNode = ""
			g.invalidate(p, d)
		}
	}
	return nil
}

// RemoveNode detaches the named node. Datums of other nodes that read it
// become stale, and their next evaluation fails with ErrUnresolvedNode
// until a node of that name is added again.
func (g *Graph) RemoveNode(ctx context.Context, name string) error {
	g.mu.Lock()
	p := newPass()
	err := g.removeNode(ctx, p, name)
	g.mu.Unlock()
	g.notify(p)
	return err
}

func (g *Graph) removeNode(ctx context.Context, p *pass, name string) error {
	n, ok := g.nodes[name]
	if !ok {
		return &Error{
			Kind:        ErrUnresolvedNode,
			Datum:       datumid.New(name, ""),
			Detail:      fmt.Sprintf("no node named %q", name),
			Suggestions: Suggest(name, g.nodeNames()),
		}
	}

	external := make(map[datumid.Ref]datumid.Ref)
	for _, d := range n.Datums() {
		ref := d.Ref()
		for dep := range g.dependents[ref] {
			if dep.Node != name {
				external[dep] = ref
			}
		}
		g.untrack(ref, d.deps)
		g.unregisterMissing(d)
		delete(g.dependents, ref)
		d.reset()
	}
	delete(g.nodes, name)
	n.graph = nil

	for _, ref := range sortedKeys(external) {
		d, ok := g.datum(ref)
		if !ok {
			continue
		}
		g.invalidate(p, d)
		d.err = &Error{
			Kind:   ErrUnresolvedNode,
			Datum:  ref,
			Target: external[ref],
			Detail: fmt.Sprintf("node %q was removed", name),
		}
	}
	ctxlog.FromContext(ctx).Debug("Node removed.", "node", name, "invalidated", len(p.order))
	return nil
}

// Node returns the node of the given name.
func (g *Graph) Node(name string) (*Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns all nodes sorted by name.
func (g *Graph) Nodes() []*Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Node, 0, len(g.nodes))
	for _, name := range g.nodeNames() {
		out = append(out, g.nodes[name])
	}
	return out
}

// Get returns the value of node.field, evaluating it and anything it reads
// that is not valid.
func (g *Graph) Get(ctx context.Context, node, field string) (cty.Value, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, err := g.lookup(datumid.New(node, field))
	if err != nil {
		return cty.NilVal, err
	}
	return g.get(newEvaluation(ctx), d)
}

// Set writes a literal datum and invalidates everything that read it. The
// value is converted to the datum's literal type.
func (g *Graph) Set(ctx context.Context, node, field string, v cty.Value) error {
	g.mu.Lock()
	p := newPass()
	err := g.set(ctx, p, datumid.New(node, field), v)
	g.mu.Unlock()
	g.notify(p)
	return err
}

func (g *Graph) set(ctx context.Context, p *pass, ref datumid.Ref, v cty.Value) error {
	d, err := g.lookup(ref)
	if err != nil {
		return err
	}
	if !d.kind.IsLiteral() {
		return &Error{
			Kind:   ErrInvalidAssignment,
			Datum:  ref,
			Detail: fmt.Sprintf("field is a %s and cannot be assigned a value", d.kind),
		}
	}
	if v == cty.NilVal || v.IsNull() || !v.IsWhollyKnown() {
		return &Error{Kind: ErrInvalidAssignment, Datum: ref, Detail: "value must be known and not null"}
	}
	converted, err := convert.Convert(v, d.kind.literalType())
	if err != nil {
		return &Error{
			Kind:   ErrInvalidAssignment,
			Datum:  ref,
			Detail: fmt.Sprintf("cannot use %s as %s", v.Type().FriendlyName(), d.kind),
			Err:    err,
		}
	}
	d.value = converted
	g.invalidateDependents(p, ref)
	ctxlog.FromContext(ctx).Debug("Literal set.", "ref", ref.String(), "invalidated", len(p.order))
	return nil
}

// SetExpression replaces the text of an expression datum. Malformed text
// is rejected with ErrParse and the datum is left unchanged.
func (g *Graph) SetExpression(ctx context.Context, node, field, text string) error {
	g.mu.Lock()
	p := newPass()
	err := g.setExpression(ctx, p, datumid.New(node, field), text)
	g.mu.Unlock()
	g.notify(p)
	return err
}

func (g *Graph) setExpression(ctx context.Context, p *pass, ref datumid.Ref, text string) error {
	d, err := g.lookup(ref)
	if err != nil {
		return err
	}
	if d.kind != KindExpression {
		return &Error{
			Kind:   ErrInvalidAssignment,
			Datum:  ref,
			Detail: fmt.Sprintf("field is a %s, not an expression", d.kind),
		}
	}
	parsed, err := g.parser.Parse(text)
	if err != nil {
		return &Error{Kind: ErrParse, Datum: ref, Err: err}
	}
	d.source = text
	d.parsed = parsed
	g.invalidate(p, d)
	ctxlog.FromContext(ctx).Debug("Expression set.", "ref", ref.String(), "invalidated", len(p.order))
	return nil
}

// Refresh evaluates every datum that is not valid and returns the failures.
func (g *Graph) Refresh(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var result *multierror.Error
	for _, name := range g.nodeNames() {
		for _, d := range g.nodes[name].Datums() {
			if d.state == StateValid {
				continue
			}
			if _, err := g.get(newEvaluation(ctx), d); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}

// Dependencies returns the datums read by the last evaluation of ref.
func (g *Graph) Dependencies(node, field string) ([]datumid.Ref, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, err := g.lookup(datumid.New(node, field))
	if err != nil {
		return nil, err
	}
	return sortedKeys(d.deps), nil
}

// Dependents returns the datums whose last evaluation read ref.
func (g *Graph) Dependents(node, field string) ([]datumid.Ref, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ref := datumid.New(node, field)
	if _, err := g.lookup(ref); err != nil {
		return nil, err
	}
	return sortedKeys(g.dependents[ref]), nil
}

func (g *Graph) datum(ref datumid.Ref) (*Datum, bool) {
	n, ok := g.nodes[ref.Node]
	if !ok {
		return nil, false
	}
	d, ok := n.datums[ref.Field]
	return d, ok
}

// lookup finds a datum for a top-level operation.
func (g *Graph) lookup(ref datumid.Ref) (*Datum, error) {
	n, ok := g.nodes[ref.Node]
	if !ok {
		return nil, &Error{
			Kind:        ErrUnresolvedNode,
			Datum:       ref,
			Target:      ref,
			Detail:      fmt.Sprintf("no node named %q", ref.Node),
			Suggestions: Suggest(ref.Node, g.nodeNames()),
		}
	}
	d, ok := n.datums[ref.Field]
	if !ok {
		return nil, &Error{
			Kind:        ErrUnresolvedField,
			Datum:       ref,
			Target:      ref,
			Detail:      fmt.Sprintf("node %q has no field %q", ref.Node, ref.Field),
			Suggestions: Suggest(ref.Field, n.order),
		}
	}
	return d, nil
}

func (g *Graph) nodeNames() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
