package uihook

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/presentation"
)

// Printer writes one line per invalidated datum. With a graph attached it
// re-evaluates the datum and prints the fresh value, the way a UI would
// refresh the widget bound to it.
type Printer struct {
	mu    sync.Mutex
	ctx   context.Context
	w     io.Writer
	graph *datum.Graph
}

// NewPrinter creates a Printer writing to w. graph may be nil, in which case
// only the stale reference is printed.
func NewPrinter(ctx context.Context, w io.Writer, graph *datum.Graph) *Printer {
	return &Printer{ctx: ctx, w: w, graph: graph}
}

// Attach sets the graph to re-read from. Hooks are given to the graph at
// construction, so the graph usually exists only after the Printer does.
func (p *Printer) Attach(graph *datum.Graph) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.graph = graph
}

// OnInvalidated implements datum.Hook.
func (p *Printer) OnInvalidated(node, field string) {
	p.mu.Lock()
	g := p.graph
	p.mu.Unlock()

	ref := node + "." + field
	if g == nil {
		fmt.Fprintf(p.w, "~ %s (stale)\n", ref)
		return
	}
	v, err := g.Get(p.ctx, node, field)
	if err != nil {
		fmt.Fprintf(p.w, "! %s: %v\n", ref, err)
		return
	}
	fmt.Fprintf(p.w, "~ %s = %s\n", ref, presentation.FormatValue(v))
}
