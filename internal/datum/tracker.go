package datum

import (
	"github.com/vk/datumgraph/internal/datumid"
	"github.com/zclconf/go-cty/cty"
)

// retrack replaces the recorded dependencies of ref.
func (g *Graph) retrack(ref datumid.Ref, old, next map[datumid.Ref]struct{}) {
	for dep := range old {
		if _, keep := next[dep]; !keep {
			g.removeDependent(dep, ref)
		}
	}
	for dep := range next {
		set, ok := g.dependents[dep]
		if !ok {
			set = make(map[datumid.Ref]struct{})
			g.dependents[dep] = set
		}
		set[ref] = struct{}{}
	}
}

// untrack forgets every dependency of ref.
func (g *Graph) untrack(ref datumid.Ref, deps map[datumid.Ref]struct{}) {
	for dep := range deps {
		g.removeDependent(dep, ref)
	}
}

func (g *Graph) removeDependent(dep, ref datumid.Ref) {
	set, ok := g.dependents[dep]
	if !ok {
		return
	}
	delete(set, ref)
	if len(set) == 0 {
		delete(g.dependents, dep)
	}
}

func (g *Graph) registerMissing(name string, d *Datum) {
	g.unregisterMissing(d)
	set, ok := g.missing[name]
	if !ok {
		set = make(map[datumid.Ref]struct{})
		g.missing[name] = set
	}
	set[d.Ref()] = struct{}{}
	d.missingNode = name
}

func (g *Graph) unregisterMissing(d *Datum) {
	if d.missingNode == "" {
		return
	}
	if set, ok := g.missing[d.missingNode]; ok {
		delete(set, d.Ref())
		if len(set) == 0 {
			delete(g.missing, d.missingNode)
		}
	}
	d.missingNode = ""
}

// invalidate marks d stale and walks everything downstream of it. The walk
// stops at datums that are already stale or were never evaluated: nothing
// has read their current value.
func (g *Graph) invalidate(p *pass, d *Datum) {
	if d.kind.IsLiteral() || d.state == StateStale || d.state == StateAbsent {
		return
	}
	d.state = StateStale
	d.value = cty.NilVal
	d.err = nil
	ref := d.Ref()
	p.add(ref)
	g.observer.Invalidated(ref)
	g.invalidateDependents(p, ref)
}

func (g *Graph) invalidateDependents(p *pass, ref datumid.Ref) {
	for _, dep := range sortedKeys(g.dependents[ref]) {
		if d, ok := g.datum(dep); ok {
			g.invalidate(p, d)
		}
	}
}

func sortedKeys[V any](m map[datumid.Ref]V) []datumid.Ref {
	out := make([]datumid.Ref, 0, len(m))
	for ref := range m {
		out = append(out, ref)
	}
	return datumid.Sort(out)
}
