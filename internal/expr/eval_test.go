package expr_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/datumgraph/internal/expr"
	"github.com/zclconf/go-cty/cty"
)

// Non-constant operands so the expected sum is computed in float64.
var tenth, fifth = 0.1, 0.2

// mapResolver resolves references from a fixed set of values.
func mapResolver(values map[string]cty.Value, seen *[]string) expr.Resolver {
	return expr.ResolverFunc(func(ref expr.Reference) (cty.Value, error) {
		if seen != nil {
			*seen = append(*seen, ref.String())
		}
		v, ok := values[ref.String()]
		if !ok {
			return cty.NilVal, fmt.Errorf("no value for %s", ref)
		}
		return v, nil
	})
}

func evalFloat(t *testing.T, source string, values map[string]cty.Value) float64 {
	t.Helper()
	e, err := expr.Parse(source)
	require.NoError(t, err)
	v, err := e.Evaluate(mapResolver(values, nil))
	require.NoError(t, err)
	require.Equal(t, cty.Number, v.Type())
	f, _ := v.AsBigFloat().Float64()
	return f
}

func TestEvaluate_Arithmetic(t *testing.T) {
	values := map[string]cty.Value{
		"A.x": cty.NumberIntVal(2),
		"B.y": cty.NumberFloatVal(0.5),
	}

	testCases := []struct {
		source   string
		expected float64
	}{
		{"A.x * 3", 6},
		{"A.x + B.y", 2.5},
		{"A.x - B.y * 4", 0},
		{"(A.x - B.y) * 4", 6},
		{"-A.x / 4", -0.5},
		{"1 / 3", 1.0 / 3.0},
		{"0.1 + 0.2", tenth + fifth},
	}

	for _, tc := range testCases {
		t.Run(tc.source, func(t *testing.T) {
			assert.Equal(t, tc.expected, evalFloat(t, tc.source, values))
		})
	}
}

func TestEvaluate_Strings(t *testing.T) {
	e, err := expr.Parse(`"ab" + S.name + ""`)
	require.NoError(t, err)

	v, err := e.Evaluate(mapResolver(map[string]cty.Value{"S.name": cty.StringVal("cd")}, nil))
	require.NoError(t, err)
	assert.Equal(t, "abcd", v.AsString())
}

func TestEvaluate_Errors(t *testing.T) {
	values := map[string]cty.Value{
		"S.name": cty.StringVal("x"),
		"Z.zero": cty.NumberIntVal(0),
		"N.null": cty.NullVal(cty.Number),
	}

	testCases := []struct {
		source string
		kind   error
	}{
		{"1/0", expr.ErrDivisionByZero},
		{"1 / Z.zero", expr.ErrDivisionByZero},
		{"0 / 0", expr.ErrDivisionByZero},
		{"S.name * 2", expr.ErrInvalidOperation},
		{`"a" + 1`, expr.ErrInvalidOperation},
		{"-S.name", expr.ErrInvalidOperation},
		{"N.null + 1", expr.ErrInvalidOperation},
	}

	for _, tc := range testCases {
		t.Run(tc.source, func(t *testing.T) {
			e, err := expr.Parse(tc.source)
			require.NoError(t, err)
			_, err = e.Evaluate(mapResolver(values, nil))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
		})
	}
}

func TestEvaluate_Infinity(t *testing.T) {
	f := evalFloat(t, "1e308 * 10", nil)
	assert.True(t, math.IsInf(f, 1))
}

func TestEvaluate_StopsAtFirstFailure(t *testing.T) {
	e, err := expr.Parse("A.x + missing.y + B.y")
	require.NoError(t, err)

	var seen []string
	_, err = e.Evaluate(mapResolver(map[string]cty.Value{"A.x": cty.NumberIntVal(1), "B.y": cty.NumberIntVal(1)}, &seen))
	require.Error(t, err)
	assert.Equal(t, []string{"A.x", "missing.y"}, seen)
}

func TestParser_Cache(t *testing.T) {
	p := expr.NewParser(2)

	a1, err := p.Parse("A.x * 3")
	require.NoError(t, err)
	a2, err := p.Parse("A.x * 3")
	require.NoError(t, err)
	assert.Same(t, a1, a2)
	assert.EqualValues(t, 1, p.Parses())

	_, err = p.Parse("A.x *")
	require.Error(t, err)
	_, err = p.Parse("A.x *")
	require.Error(t, err)
	assert.EqualValues(t, 3, p.Parses(), "malformed text must not be cached")

	_, err = p.Parse("1")
	require.NoError(t, err)
	_, err = p.Parse("2")
	require.NoError(t, err)
	_, err = p.Parse("A.x * 3")
	require.NoError(t, err)
	assert.EqualValues(t, 6, p.Parses(), "evicted entries are parsed again")
}
