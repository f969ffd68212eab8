package datum_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/datumid"
	"github.com/zclconf/go-cty/cty"
)

func TestGraph_LiteralRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, rec := newGraph(t)
	n := datum.NewNode("A", "value")
	require.NoError(t, n.AddFloat("x", 1))
	require.NoError(t, n.AddString("label", "first"))
	require.NoError(t, g.AddNode(ctx, n))

	require.NoError(t, g.Set(ctx, "A", "x", num(2.5)))
	require.NoError(t, g.Set(ctx, "A", "label", cty.StringVal("second")))

	assert.Equal(t, 2.5, getFloat(t, g, "A", "x"))
	label, err := g.Get(ctx, "A", "label")
	require.NoError(t, err)
	assert.Equal(t, "second", label.AsString())
	assert.Empty(t, rec.take(), "literal writes must not notify the literal itself")
}

func TestGraph_ExpressionFollowsLiteral(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, rec := newGraph(t)
	valueNode(t, g, "A", map[string]float64{"x": 2})
	exprNode(t, g, "B", map[string]string{"y": "A.x * 3"})

	assert.Equal(t, 6.0, getFloat(t, g, "B", "y"))

	require.NoError(t, g.Set(ctx, "A", "x", num(5)))
	assert.Equal(t, []string{"B.y"}, rec.take())

	b, _ := g.Node("B")
	y, _ := b.Datum("y")
	assert.Equal(t, datum.StateStale, y.State())
	assert.Equal(t, 15.0, getFloat(t, g, "B", "y"))
	assert.Equal(t, datum.StateValid, y.State())
}

func TestGraph_InvalidationReachesEachDatumOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, rec := newGraph(t)
	valueNode(t, g, "A", map[string]float64{"x": 2})
	exprNode(t, g, "B", map[string]string{"y": "A.x + 1"})
	exprNode(t, g, "C", map[string]string{"z": "A.x + B.y"})
	exprNode(t, g, "D", map[string]string{"w": "C.z * 2"})

	assert.Equal(t, 10.0, getFloat(t, g, "D", "w"))

	require.NoError(t, g.Set(ctx, "A", "x", num(3)))
	assert.Equal(t, []string{"B.y", "C.z", "D.w"}, rec.take())
	assert.Equal(t, 14.0, getFloat(t, g, "D", "w"))

	// Re-evaluation registered every edge again.
	require.NoError(t, g.Set(ctx, "A", "x", num(4)))
	assert.ElementsMatch(t, []string{"B.y", "C.z", "D.w"}, rec.take())
}

func TestGraph_InvalidationStopsAtStale(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, rec := newGraph(t)
	valueNode(t, g, "A", map[string]float64{"x": 1})
	exprNode(t, g, "B", map[string]string{"y": "A.x + 1"})
	exprNode(t, g, "C", map[string]string{"z": "B.y + 1"})
	assert.Equal(t, 3.0, getFloat(t, g, "C", "z"))

	require.NoError(t, g.Set(ctx, "A", "x", num(2)))
	assert.Equal(t, []string{"B.y", "C.z"}, rec.take())

	// B.y is already stale, so the walk stops there.
	require.NoError(t, g.Set(ctx, "A", "x", num(3)))
	assert.Empty(t, rec.take())
	assert.Equal(t, 5.0, getFloat(t, g, "C", "z"))
}

func TestGraph_CycleIsDetected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGraph(t)
	exprNode(t, g, "A", map[string]string{"a": "B.b"})
	exprNode(t, g, "B", map[string]string{"b": "A.a"})

	_, err := g.Get(ctx, "A", "a")
	require.ErrorIs(t, err, datum.ErrCyclicDependency)
	var de *datum.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "A.a -> B.b -> A.a", datumid.Path(de.Cycle))
	assert.Contains(t, err.Error(), "A.a -> B.b -> A.a")

	_, err = g.Get(ctx, "B", "b")
	require.ErrorIs(t, err, datum.ErrCyclicDependency)
	assert.Contains(t, err.Error(), "B.b -> A.a -> B.b")

	a, _ := g.Node("A")
	ad, _ := a.Datum("a")
	assert.Equal(t, datum.StateFailed, ad.State())
	_, cached := ad.Cached()
	assert.False(t, cached)
}

func TestGraph_SelfReferenceIsCycle(t *testing.T) {
	t.Parallel()
	g, _ := newGraph(t)
	exprNode(t, g, "A", map[string]string{"a": "self.a + 1"})

	_, err := g.Get(context.Background(), "A", "a")
	require.ErrorIs(t, err, datum.ErrCyclicDependency)
	assert.Contains(t, err.Error(), "A.a -> A.a")
}

func TestGraph_BreakingCycleRecovers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, rec := newGraph(t)
	exprNode(t, g, "A", map[string]string{"a": "B.b"})
	exprNode(t, g, "B", map[string]string{"b": "A.a + 1"})
	_, err := g.Get(ctx, "B", "b")
	require.ErrorIs(t, err, datum.ErrCyclicDependency)

	require.NoError(t, g.SetExpression(ctx, "A", "a", "41"))
	assert.Equal(t, []string{"A.a", "B.b"}, rec.take())
	assert.Equal(t, 42.0, getFloat(t, g, "B", "b"))
}

func TestGraph_GetIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGraph(t)
	valueNode(t, g, "A", map[string]float64{"x": 2})
	exprNode(t, g, "B", map[string]string{"y": "A.x * 3"})

	calls := 0
	c := datum.NewNode("C", "custom")
	require.NoError(t, c.AddFunction("z", func(v *datum.NodeView) (cty.Value, error) {
		calls++
		return cty.NumberIntVal(7), nil
	}))
	require.NoError(t, g.AddNode(ctx, c))
	parses := g.Parser().Parses()

	for range 3 {
		assert.Equal(t, 6.0, getFloat(t, g, "B", "y"))
		assert.Equal(t, 7.0, getFloat(t, g, "C", "z"))
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, parses, g.Parser().Parses())

	// Re-evaluation after invalidation reuses the parsed expression.
	require.NoError(t, g.Set(ctx, "A", "x", num(1)))
	assert.Equal(t, 3.0, getFloat(t, g, "B", "y"))
	assert.Equal(t, parses, g.Parser().Parses())
}

func TestGraph_DivisionByZero(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGraph(t)
	b := exprNode(t, g, "B", map[string]string{"y": "1/0"})
	exprNode(t, g, "C", map[string]string{"z": "B.y + 1"})

	_, err := g.Get(ctx, "B", "y")
	require.ErrorIs(t, err, datum.ErrDivisionByZero)
	assert.Contains(t, err.Error(), "B.y: division by zero")

	y, _ := b.Datum("y")
	assert.Equal(t, datum.StateFailed, y.State())
	assert.ErrorIs(t, y.Err(), datum.ErrDivisionByZero)

	_, err = g.Get(ctx, "C", "z")
	require.ErrorIs(t, err, datum.ErrDivisionByZero)
	var de *datum.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, datumid.New("C", "z"), de.Datum)
	assert.Equal(t, datumid.New("B", "y"), de.Target)
	assert.Contains(t, err.Error(), "C.z: B.y: division by zero")
}

func TestGraph_FailureIsNotCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGraph(t)
	calls := 0
	n := datum.NewNode("F", "custom")
	require.NoError(t, n.AddFunction("output", func(v *datum.NodeView) (cty.Value, error) {
		calls++
		if calls == 1 {
			return cty.NilVal, errors.New("not yet")
		}
		return cty.NumberIntVal(1), nil
	}))
	require.NoError(t, g.AddNode(ctx, n))

	_, err := g.Get(ctx, "F", "output")
	require.ErrorIs(t, err, datum.ErrInvalidOperation)
	assert.Contains(t, err.Error(), "not yet")

	assert.Equal(t, 1.0, getFloat(t, g, "F", "output"))
	assert.Equal(t, 2, calls)
}

func TestGraph_RemoveAndReAddNode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, rec := newGraph(t)
	valueNode(t, g, "A", map[string]float64{"x": 2})
	exprNode(t, g, "B", map[string]string{"y": "A.x * 3"})
	assert.Equal(t, 6.0, getFloat(t, g, "B", "y"))

	require.NoError(t, g.RemoveNode(ctx, "A"))
	assert.Equal(t, []string{"B.y"}, rec.take())

	b, _ := g.Node("B")
	y, _ := b.Datum("y")
	assert.ErrorIs(t, y.Err(), datum.ErrUnresolvedNode)

	_, err := g.Get(ctx, "B", "y")
	require.ErrorIs(t, err, datum.ErrUnresolvedNode)
	assert.Contains(t, err.Error(), `no node named "A"`)

	valueNode(t, g, "A", map[string]float64{"x": 4})
	assert.Equal(t, []string{"B.y"}, rec.take())
	assert.Equal(t, 12.0, getFloat(t, g, "B", "y"))
}

func TestGraph_RemovedNodeForgetsItsDependencies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, rec := newGraph(t)
	valueNode(t, g, "A", map[string]float64{"x": 2})
	b := exprNode(t, g, "B", map[string]string{"y": "A.x * 3"})
	assert.Equal(t, 6.0, getFloat(t, g, "B", "y"))

	require.NoError(t, g.RemoveNode(ctx, "B"))
	deps, err := g.Dependents("A", "x")
	require.NoError(t, err)
	assert.Empty(t, deps)

	require.NoError(t, g.Set(ctx, "A", "x", num(5)))
	assert.Empty(t, rec.take())

	// The detached node starts over when it is attached again.
	require.NoError(t, g.AddNode(ctx, b))
	assert.Equal(t, 15.0, getFloat(t, g, "B", "y"))
}

func TestGraph_RemoveUnknownNode(t *testing.T) {
	t.Parallel()
	g, _ := newGraph(t)
	valueNode(t, g, "alpha", map[string]float64{"x": 1})

	err := g.RemoveNode(context.Background(), "alpah")
	require.ErrorIs(t, err, datum.ErrUnresolvedNode)
	var de *datum.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{"alpha"}, de.Suggestions)
}

func TestGraph_LateNodeResolvesWaitingDatums(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, rec := newGraph(t)
	exprNode(t, g, "B", map[string]string{"y": "A.x + 1"})
	exprNode(t, g, "C", map[string]string{"z": "B.y * 2"})

	_, err := g.Get(ctx, "C", "z")
	require.ErrorIs(t, err, datum.ErrUnresolvedNode)

	valueNode(t, g, "A", map[string]float64{"x": 1})
	assert.Equal(t, []string{"B.y", "C.z"}, rec.take())
	assert.Equal(t, 4.0, getFloat(t, g, "C", "z"))
}

func TestGraph_ReAddedNodeProvidesMissingField(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, rec := newGraph(t)
	valueNode(t, g, "A", map[string]float64{"x": 1})
	exprNode(t, g, "B", map[string]string{"y": "A.z * 2"})

	_, err := g.Get(ctx, "B", "y")
	require.ErrorIs(t, err, datum.ErrUnresolvedField)

	require.NoError(t, g.RemoveNode(ctx, "A"))
	rec.take()
	valueNode(t, g, "A", map[string]float64{"x": 1, "z": 4})
	assert.Equal(t, []string{"B.y"}, rec.take())
	assert.Equal(t, 8.0, getFloat(t, g, "B", "y"))
}

func TestGraph_Suggestions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGraph(t)
	valueNode(t, g, "width", map[string]float64{"value": 1})

	testCases := []struct {
		name     string
		source   string
		kind     error
		suggests []string
	}{
		{name: "node", source: "widht.value", kind: datum.ErrUnresolvedNode, suggests: []string{"width"}},
		{name: "field", source: "width.valeu", kind: datum.ErrUnresolvedField, suggests: []string{"value"}},
		{name: "nothing close", source: "unrelatedthing.value", kind: datum.ErrUnresolvedNode},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			name := string(rune('a' + i))
			exprNode(t, g, name, map[string]string{"out": tc.source})

			_, err := g.Get(ctx, name, "out")
			require.ErrorIs(t, err, tc.kind)
			var de *datum.Error
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tc.suggests, de.Suggestions)
		})
	}
}

func TestGraph_LookupErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGraph(t)
	valueNode(t, g, "A", map[string]float64{"x": 1})

	_, err := g.Get(ctx, "B", "x")
	assert.ErrorIs(t, err, datum.ErrUnresolvedNode)
	_, err = g.Get(ctx, "A", "y")
	assert.ErrorIs(t, err, datum.ErrUnresolvedField)
	assert.ErrorIs(t, g.Set(ctx, "A", "y", num(1)), datum.ErrUnresolvedField)
}

func TestGraph_BareReferences(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGraph(t)

	f1 := datum.NewNode("f1", "value")
	require.NoError(t, f1.AddFloat("output", 10))
	require.NoError(t, g.AddNode(ctx, f1))

	named := datum.NewNode("named", "value")
	require.NoError(t, named.AddFloat("val", 7))
	require.NoError(t, named.SetDefaultField("val"))
	require.NoError(t, g.AddNode(ctx, named))

	c := datum.NewNode("c", "cell")
	require.NoError(t, c.AddFloat("a", 2))
	require.NoError(t, c.AddExpression("own", "a * 2"))
	require.NoError(t, c.AddExpression("other", "f1 + 1"))
	require.NoError(t, c.AddExpression("custom", "named - 1"))
	require.NoError(t, c.AddExpression("shadow", "self.a + a"))
	require.NoError(t, g.AddNode(ctx, c))

	assert.Equal(t, 4.0, getFloat(t, g, "c", "own"))
	assert.Equal(t, 11.0, getFloat(t, g, "c", "other"))
	assert.Equal(t, 6.0, getFloat(t, g, "c", "custom"))
	assert.Equal(t, 4.0, getFloat(t, g, "c", "shadow"))

	deps, err := g.Dependencies("c", "other")
	require.NoError(t, err)
	assert.Equal(t, []datumid.Ref{datumid.New("f1", "output")}, deps)
}

func TestGraph_StringConcatenation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGraph(t)
	a := datum.NewNode("A", "value")
	require.NoError(t, a.AddString("s", "foo"))
	require.NoError(t, g.AddNode(ctx, a))
	exprNode(t, g, "B", map[string]string{
		"t":   `A.s + "bar"`,
		"bad": "A.s * 2",
	})

	v, err := g.Get(ctx, "B", "t")
	require.NoError(t, err)
	assert.Equal(t, "foobar", v.AsString())

	_, err = g.Get(ctx, "B", "bad")
	assert.ErrorIs(t, err, datum.ErrInvalidOperation)
}

func TestGraph_InvalidAssignment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGraph(t)
	a := datum.NewNode("A", "value")
	require.NoError(t, a.AddFloat("x", 1))
	require.NoError(t, a.AddString("s", "text"))
	require.NoError(t, a.AddExpression("e", "x + 1"))
	require.NoError(t, g.AddNode(ctx, a))

	testCases := []struct {
		name string
		run  func() error
	}{
		{name: "value to expression", run: func() error { return g.Set(ctx, "A", "e", num(1)) }},
		{name: "expression to literal", run: func() error { return g.SetExpression(ctx, "A", "x", "1 + 1") }},
		{name: "non-numeric string to float", run: func() error { return g.Set(ctx, "A", "x", cty.StringVal("abc")) }},
		{name: "null", run: func() error { return g.Set(ctx, "A", "x", cty.NullVal(cty.Number)) }},
		{name: "unsupported native", run: func() error { return a.SetField(ctx, "x", nil) }},
		{name: "NaN", run: func() error { return a.SetField(ctx, "x", math.NaN()) }},
		{name: "float32 NaN", run: func() error { return a.SetField(ctx, "x", float32(math.NaN())) }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.run(), datum.ErrInvalidAssignment)
		})
	}

	// Convertible values are accepted.
	require.NoError(t, a.SetField(ctx, "x", "2.5"))
	assert.Equal(t, 2.5, getFloat(t, g, "A", "x"))
	require.NoError(t, a.SetField(ctx, "s", 42))
	v, err := a.GetField(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "42", v.AsString())
}

func TestGraph_SetExpression(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, rec := newGraph(t)
	valueNode(t, g, "A", map[string]float64{"x": 2})
	b := exprNode(t, g, "B", map[string]string{"y": "A.x * 3"})
	exprNode(t, g, "C", map[string]string{"z": "B.y + 1"})

	// Never evaluated: nothing to invalidate.
	require.NoError(t, g.SetExpression(ctx, "B", "y", "A.x * 4"))
	assert.Empty(t, rec.take())

	assert.Equal(t, 9.0, getFloat(t, g, "C", "z"))
	require.NoError(t, g.SetExpression(ctx, "B", "y", "A.x * 5"))
	assert.Equal(t, []string{"B.y", "C.z"}, rec.take())
	assert.Equal(t, 11.0, getFloat(t, g, "C", "z"))

	// Malformed text leaves the datum untouched.
	err := g.SetExpression(ctx, "B", "y", "A.x *")
	require.ErrorIs(t, err, datum.ErrParse)
	assert.Empty(t, rec.take())
	y, _ := b.Datum("y")
	assert.Equal(t, "A.x * 5", y.Source())
	assert.Equal(t, 10.0, getFloat(t, g, "B", "y"))
}

func TestGraph_DependenciesFollowLastEvaluation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, rec := newGraph(t)
	valueNode(t, g, "A", map[string]float64{"x": 1, "y": 2})
	exprNode(t, g, "B", map[string]string{"s": "A.x"})
	assert.Equal(t, 1.0, getFloat(t, g, "B", "s"))

	require.NoError(t, g.SetExpression(ctx, "B", "s", "A.y"))
	rec.take()
	assert.Equal(t, 2.0, getFloat(t, g, "B", "s"))

	deps, err := g.Dependencies("B", "s")
	require.NoError(t, err)
	assert.Equal(t, []datumid.Ref{datumid.New("A", "y")}, deps)
	dependents, err := g.Dependents("A", "x")
	require.NoError(t, err)
	assert.Empty(t, dependents)

	require.NoError(t, g.Set(ctx, "A", "x", num(9)))
	assert.Empty(t, rec.take())
}

func TestGraph_FunctionDatum(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, rec := newGraph(t)
	box := datum.NewNode("box", "box")
	require.NoError(t, box.AddFloat("width", 2))
	require.NoError(t, box.AddFloat("height", 3))
	require.NoError(t, box.AddFunction("area", func(v *datum.NodeView) (cty.Value, error) {
		w, err := v.Float("width")
		if err != nil {
			return cty.NilVal, err
		}
		h, err := v.Float("height")
		if err != nil {
			return cty.NilVal, err
		}
		return cty.NumberFloatVal(w * h), nil
	}))
	require.NoError(t, g.AddNode(ctx, box))

	assert.Equal(t, 6.0, getFloat(t, g, "box", "area"))
	require.NoError(t, box.SetField(ctx, "width", 5))
	assert.Equal(t, []string{"box.area"}, rec.take())
	assert.Equal(t, 15.0, getFloat(t, g, "box", "area"))
}

func TestGraph_Refresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGraph(t)
	valueNode(t, g, "A", map[string]float64{"x": 2})
	exprNode(t, g, "B", map[string]string{
		"ok":      "A.x + 1",
		"divide":  "A.x / 0",
		"missing": "Z.x",
	})

	err := g.Refresh(ctx)
	require.Error(t, err)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
	assert.ErrorIs(t, err, datum.ErrDivisionByZero)
	assert.ErrorIs(t, err, datum.ErrUnresolvedNode)

	b, _ := g.Node("B")
	ok, _ := b.Datum("ok")
	v, cached := ok.Cached()
	require.True(t, cached)
	assert.True(t, v.RawEquals(num(3)))
}

func TestGraph_SchemaIsFixedOnceAttached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGraph(t)
	n := valueNode(t, g, "A", map[string]float64{"x": 1})

	assert.Error(t, n.AddFloat("y", 2))
	assert.Error(t, n.SetDefaultField("x"))
	assert.Error(t, g.AddNode(ctx, n), "attaching twice")
	assert.Error(t, g.AddNode(ctx, datum.NewNode("A", "value")), "duplicate name")
	assert.Error(t, g.AddNode(ctx, datum.NewNode("self", "value")))

	bad := datum.NewNode("B", "cell")
	require.NoError(t, bad.AddExpression("y", "A.x +"))
	assert.ErrorIs(t, g.AddNode(ctx, bad), datum.ErrParse)
	_, exists := g.Node("B")
	assert.False(t, exists)
}

func TestGraph_HookMayReadGraph(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var seen []float64
	var g *datum.Graph
	g = datum.New(datum.WithHook(datum.HookFunc(func(node, field string) {
		v, err := g.Get(ctx, node, field)
		if err == nil {
			f, _ := datum.Float(v)
			seen = append(seen, f)
		}
	})))
	valueNode(t, g, "A", map[string]float64{"x": 1})
	exprNode(t, g, "B", map[string]string{"y": "A.x * 10"})
	assert.Equal(t, 10.0, getFloat(t, g, "B", "y"))

	require.NoError(t, g.Set(ctx, "A", "x", num(2)))
	assert.Equal(t, []float64{20}, seen)
}

func TestGraph_DetachedNode(t *testing.T) {
	t.Parallel()
	n := datum.NewNode("A", "value")
	require.NoError(t, n.AddFloat("x", 1))
	d, _ := n.Datum("x")

	_, err := d.Get(context.Background())
	assert.Error(t, err)
	assert.Error(t, n.SetField(context.Background(), "x", 2))
	assert.Equal(t, []string{"x"}, n.Fields())
}
