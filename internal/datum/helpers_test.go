package datum_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/datumgraph/internal/datum"
	"github.com/zclconf/go-cty/cty"
)

// recorder is a Hook that remembers every invalidation it was told about.
type recorder struct {
	mu  sync.Mutex
	got []string
}

func (r *recorder) OnInvalidated(node, field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, node+"."+field)
}

func (r *recorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	got := r.got
	r.got = nil
	return got
}

// newGraph creates a graph with a recorder attached.
func newGraph(t *testing.T) (*datum.Graph, *recorder) {
	t.Helper()
	rec := &recorder{}
	return datum.New(datum.WithHook(rec)), rec
}

// valueNode adds a node holding float literals.
func valueNode(t *testing.T, g *datum.Graph, name string, fields map[string]float64) *datum.Node {
	t.Helper()
	n := datum.NewNode(name, "value")
	for field, v := range fields {
		require.NoError(t, n.AddFloat(field, v))
	}
	require.NoError(t, g.AddNode(context.Background(), n))
	return n
}

// exprNode adds a node whose fields are all expressions.
func exprNode(t *testing.T, g *datum.Graph, name string, fields map[string]string) *datum.Node {
	t.Helper()
	n := datum.NewNode(name, "cell")
	for field, src := range fields {
		require.NoError(t, n.AddExpression(field, src))
	}
	require.NoError(t, g.AddNode(context.Background(), n))
	return n
}

// getFloat evaluates node.field and requires a number.
func getFloat(t *testing.T, g *datum.Graph, node, field string) float64 {
	t.Helper()
	v, err := g.Get(context.Background(), node, field)
	require.NoError(t, err)
	f, err := datum.Float(v)
	require.NoError(t, err)
	return f
}

func num(f float64) cty.Value { return cty.NumberFloatVal(f) }
