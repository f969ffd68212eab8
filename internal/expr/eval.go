package expr

import (
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Resolver supplies the values of references during evaluation.
type Resolver interface {
	Resolve(ref Reference) (cty.Value, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ref Reference) (cty.Value, error)

// Resolve calls f(ref).
func (f ResolverFunc) Resolve(ref Reference) (cty.Value, error) {
	return f(ref)
}

// Evaluate computes the value of the expression. References are resolved in
// source order, left operand first, and evaluation stops at the first error.
func (e *Expression) Evaluate(r Resolver) (cty.Value, error) {
	return evaluate(e.syntax, r)
}

func evaluate(expr hclsyntax.Expression, r Resolver) (cty.Value, error) {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return e.Val, nil
	case *hclsyntax.TemplateExpr:
		if len(e.Parts) == 0 {
			return cty.StringVal(""), nil
		}
		var s string
		for _, part := range e.Parts {
			s += part.(*hclsyntax.LiteralValueExpr).Val.AsString()
		}
		return cty.StringVal(s), nil
	case *hclsyntax.ScopeTraversalExpr:
		return r.Resolve(toReference(e.Traversal))
	case *hclsyntax.ParenthesesExpr:
		return evaluate(e.Expression, r)
	case *hclsyntax.UnaryOpExpr:
		v, err := evaluate(e.Val, r)
		if err != nil {
			return cty.NilVal, err
		}
		f, ok := toFloat(v)
		if !ok {
			return cty.NilVal, newError(ErrInvalidOperation, e.Range().Ptr(), "cannot negate a value of type %s", friendlyType(v))
		}
		return cty.NumberFloatVal(-f), nil
	case *hclsyntax.BinaryOpExpr:
		lhs, err := evaluate(e.LHS, r)
		if err != nil {
			return cty.NilVal, err
		}
		rhs, err := evaluate(e.RHS, r)
		if err != nil {
			return cty.NilVal, err
		}
		return arithmetic(e.Op, lhs, rhs, e.Range().Ptr())
	default:
		// Unreachable for expressions that passed validate.
		return cty.NilVal, newError(ErrParse, expr.Range().Ptr(), "unsupported expression")
	}
}

func arithmetic(op *hclsyntax.Operation, lhs, rhs cty.Value, subject *hcl.Range) (cty.Value, error) {
	if op == hclsyntax.OpAdd && isString(lhs) && isString(rhs) {
		return cty.StringVal(lhs.AsString() + rhs.AsString()), nil
	}

	a, okA := toFloat(lhs)
	b, okB := toFloat(rhs)
	if !okA || !okB {
		return cty.NilVal, newError(ErrInvalidOperation, subject, "unsupported operand types %s and %s", friendlyType(lhs), friendlyType(rhs))
	}

	var result float64
	switch op {
	case hclsyntax.OpAdd:
		result = a + b
	case hclsyntax.OpSubtract:
		result = a - b
	case hclsyntax.OpMultiply:
		result = a * b
	case hclsyntax.OpDivide:
		if b == 0 {
			return cty.NilVal, newError(ErrDivisionByZero, subject, "cannot divide %g by zero", a)
		}
		result = a / b
	default:
		return cty.NilVal, newError(ErrParse, subject, "unsupported operator")
	}

	if math.IsNaN(result) {
		return cty.NilVal, newError(ErrInvalidOperation, subject, "result is not a number")
	}
	return cty.NumberFloatVal(result), nil
}

func toFloat(v cty.Value) (float64, bool) {
	if v.IsNull() || !v.IsKnown() || !v.Type().Equals(cty.Number) {
		return 0, false
	}
	f, _ := v.AsBigFloat().Float64()
	return f, true
}

func isString(v cty.Value) bool {
	return !v.IsNull() && v.IsKnown() && v.Type().Equals(cty.String)
}

func friendlyType(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	return v.Type().FriendlyName()
}
