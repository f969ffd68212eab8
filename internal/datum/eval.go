package datum

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/datumgraph/internal/ctxlog"
	"github.com/vk/datumgraph/internal/datumid"
	"github.com/vk/datumgraph/internal/expr"
	"github.com/zclconf/go-cty/cty"
)

// evaluation is the state of one top-level Get: the chain of datums
// currently being evaluated.
type evaluation struct {
	ctx    context.Context
	stack  []datumid.Ref
	active map[datumid.Ref]struct{}
}

func newEvaluation(ctx context.Context) *evaluation {
	return &evaluation{ctx: ctx, active: make(map[datumid.Ref]struct{})}
}

func (ev *evaluation) push(ref datumid.Ref) {
	ev.stack = append(ev.stack, ref)
	ev.active[ref] = struct{}{}
}

func (ev *evaluation) pop(ref datumid.Ref) {
	ev.stack = ev.stack[:len(ev.stack)-1]
	delete(ev.active, ref)
}

// cycle returns the path from the active datum ref back to itself.
func (ev *evaluation) cycle(ref datumid.Ref) []datumid.Ref {
	for i, r := range ev.stack {
		if r == ref {
			path := make([]datumid.Ref, 0, len(ev.stack)-i+1)
			path = append(path, ev.stack[i:]...)
			return append(path, ref)
		}
	}
	return []datumid.Ref{ref, ref}
}

// get returns the cached value of d or evaluates it.
func (g *Graph) get(ev *evaluation, d *Datum) (cty.Value, error) {
	if d.state == StateValid {
		return d.value, nil
	}
	if d.kind.IsLiteral() {
		return cty.NilVal, fmt.Errorf("%s: internal error: literal is %s", d.Ref(), d.state)
	}
	ref := d.Ref()
	if _, busy := ev.active[ref]; busy {
		return cty.NilVal, cycleError(ev.cycle(ref))
	}
	return g.evaluate(ev, d)
}

func (g *Graph) evaluate(ev *evaluation, d *Datum) (cty.Value, error) {
	ref := d.Ref()
	ev.push(ref)
	defer ev.pop(ref)

	g.unregisterMissing(d)
	start := time.Now()
	r := &reads{graph: g, ev: ev, datum: d, deps: make(map[datumid.Ref]struct{})}

	var val cty.Value
	var err error
	switch d.kind {
	case KindExpression:
		if d.parsed == nil {
			d.parsed, err = g.parser.Parse(d.source)
		}
		if err == nil {
			val, err = d.parsed.Evaluate(r)
		}
	case KindFunction:
		val, err = d.fn(&NodeView{node: d.node, reads: r})
		if err == nil && val == cty.NilVal {
			val = cty.NullVal(cty.DynamicPseudoType)
		}
	}

	g.retrack(ref, d.deps, r.deps)
	d.deps = r.deps
	elapsed := time.Since(start)
	logger := ctxlog.FromContext(ev.ctx)

	if err != nil {
		err = wrapFailure(d, err)
		d.value = cty.NilVal
		d.state = StateFailed
		d.err = err
		g.observer.Evaluated(ref, d.kind, err, elapsed)
		logger.Debug("Datum evaluation failed.", "ref", ref.String(), "error", err)
		return cty.NilVal, err
	}

	d.value = val
	d.state = StateValid
	d.err = nil
	g.observer.Evaluated(ref, d.kind, nil, elapsed)
	logger.Debug("Datum evaluated.", "ref", ref.String(), "kind", d.kind.String(), "dependencies", len(r.deps), "duration", elapsed)
	return val, nil
}

// reads resolves and records the datums read by one evaluation.
type reads struct {
	graph *Graph
	ev    *evaluation
	datum *Datum
	deps  map[datumid.Ref]struct{}
}

// Resolve implements expr.Resolver.
func (r *reads) Resolve(ref expr.Reference) (cty.Value, error) {
	target, err := r.resolve(ref)
	if err != nil {
		return cty.NilVal, err
	}
	return r.read(target)
}

// resolve maps a reference in the text of r.datum to a datum address.
// self.field names the owning node; a bare name is a field of the owning
// node if one exists, otherwise the default field of the node so named.
func (r *reads) resolve(ref expr.Reference) (datumid.Ref, error) {
	owner := r.datum.node
	switch {
	case ref.IsSelf():
		return datumid.New(owner.name, ref.Attr), nil
	case ref.IsBare():
		if _, ok := owner.datums[ref.Root]; ok {
			return datumid.New(owner.name, ref.Root), nil
		}
		n, ok := r.graph.nodes[ref.Root]
		if !ok {
			candidates := append(r.graph.nodeNames(), owner.order...)
			return datumid.Ref{}, r.unresolvedNode(ref.Root, datumid.New(ref.Root, ""), candidates)
		}
		return datumid.New(n.name, n.defaultField), nil
	default:
		return datumid.New(ref.Root, ref.Attr), nil
	}
}

// read returns the value of target and records it as a dependency.
func (r *reads) read(target datumid.Ref) (cty.Value, error) {
	n, ok := r.graph.nodes[target.Node]
	if !ok {
		return cty.NilVal, r.unresolvedNode(target.Node, target, r.graph.nodeNames())
	}
	d, ok := n.datums[target.Field]
	if !ok {
		// A node's fields are fixed once attached, so only a new node of
		// this name can provide the field.
		r.graph.registerMissing(target.Node, r.datum)
		return cty.NilVal, &Error{
			Kind:        ErrUnresolvedField,
			Datum:       r.datum.Ref(),
			Target:      target,
			Detail:      fmt.Sprintf("node %q has no field %q", target.Node, target.Field),
			Suggestions: Suggest(target.Field, n.order),
		}
	}
	r.deps[target] = struct{}{}
	return r.graph.get(r.ev, d)
}

func (r *reads) unresolvedNode(name string, target datumid.Ref, candidates []string) *Error {
	r.graph.registerMissing(name, r.datum)
	return &Error{
		Kind:        ErrUnresolvedNode,
		Datum:       r.datum.Ref(),
		Target:      target,
		Detail:      fmt.Sprintf("no node named %q", name),
		Suggestions: Suggest(name, candidates),
	}
}
