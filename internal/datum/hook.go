package datum

import (
	"time"

	"github.com/vk/datumgraph/internal/datumid"
)

// Hook is told about every datum that becomes stale. Hooks run after the
// operation that caused the invalidation has completed and the graph is
// unlocked.
type Hook interface {
	OnInvalidated(node, field string)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(node, field string)

// OnInvalidated calls f(node, field).
func (f HookFunc) OnInvalidated(node, field string) { f(node, field) }

// Observer receives evaluation and invalidation events while the graph is
// locked. Implementations must not call back into the graph.
type Observer interface {
	Evaluated(ref datumid.Ref, kind Kind, err error, elapsed time.Duration)
	Invalidated(ref datumid.Ref)
}

type nopObserver struct{}

func (nopObserver) Evaluated(datumid.Ref, Kind, error, time.Duration) {}
func (nopObserver) Invalidated(datumid.Ref)                           {}

// pass collects the datums invalidated by one operation, each once, in the
// order they were reached.
type pass struct {
	seen  map[datumid.Ref]struct{}
	order []datumid.Ref
}

func newPass() *pass {
	return &pass{seen: make(map[datumid.Ref]struct{})}
}

func (p *pass) add(ref datumid.Ref) {
	if _, ok := p.seen[ref]; ok {
		return
	}
	p.seen[ref] = struct{}{}
	p.order = append(p.order, ref)
}

func (g *Graph) notify(p *pass) {
	for _, ref := range p.order {
		for _, h := range g.hooks {
			h.OnInvalidated(ref.Node, ref.Field)
		}
	}
}
