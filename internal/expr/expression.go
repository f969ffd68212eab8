package expr

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// SelfName is the root name that always refers to the evaluating node.
const SelfName = "self"

// Expression is a parsed, validated expression. It is immutable and may be
// shared between datums with the same source text.
type Expression struct {
	source string
	syntax hclsyntax.Expression
	refs   []Reference
}

// Reference is a single reference found in an expression.
//
// A reference written as `a.b` has Root "a" and Attr "b". A bare identifier
// `a` has an empty Attr; whether it names a field of the evaluating node or
// another node is decided by the Resolver.
type Reference struct {
	Root      string
	Attr      string
	Traversal hcl.Traversal
}

// IsSelf reports whether the reference is written as `self.<field>`.
func (r Reference) IsSelf() bool {
	return r.Root == SelfName && r.Attr != ""
}

// IsBare reports whether the reference is a single identifier.
func (r Reference) IsBare() bool {
	return r.Attr == ""
}

// Range returns the source range of the reference.
func (r Reference) Range() hcl.Range {
	return r.Traversal.SourceRange()
}

// String returns the canonical source form of the reference, e.g. `A.x`.
func (r Reference) String() string {
	return traversalText(r.Traversal)
}

// Parse parses and validates expression source text.
func Parse(source string) (*Expression, error) {
	syntax, diags := hclsyntax.ParseExpression([]byte(source), "expression", hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, &Error{Kind: ErrParse, Detail: diags.Error(), Diags: diags}
	}

	if err := validate(syntax); err != nil {
		return nil, err
	}

	return &Expression{
		source: source,
		syntax: syntax,
		refs:   extractReferences(syntax),
	}, nil
}

// Source returns the text the expression was parsed from.
func (e *Expression) Source() string {
	return e.source
}

// References returns the unique references in the expression, sorted by
// their canonical form.
func (e *Expression) References() []Reference {
	return e.refs
}

// validate walks the syntax tree and rejects everything outside the
// supported grammar.
func validate(expr hclsyntax.Expression) error {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		if ty := e.Val.Type(); ty != cty.Number && ty != cty.String {
			return newError(ErrParse, e.Range().Ptr(), "only number and string literals are supported")
		}
		return nil
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			if _, ok := part.(*hclsyntax.LiteralValueExpr); !ok {
				return newError(ErrParse, part.Range().Ptr(), "string interpolation is not supported")
			}
		}
		return nil
	case *hclsyntax.ScopeTraversalExpr:
		return validateTraversal(e.Traversal)
	case *hclsyntax.ParenthesesExpr:
		return validate(e.Expression)
	case *hclsyntax.UnaryOpExpr:
		if e.Op != hclsyntax.OpNegate {
			return newError(ErrParse, e.Range().Ptr(), "only unary minus is supported")
		}
		return validate(e.Val)
	case *hclsyntax.BinaryOpExpr:
		switch e.Op {
		case hclsyntax.OpAdd, hclsyntax.OpSubtract, hclsyntax.OpMultiply, hclsyntax.OpDivide:
		default:
			return newError(ErrParse, e.Range().Ptr(), "only the operators + - * / are supported")
		}
		if err := validate(e.LHS); err != nil {
			return err
		}
		return validate(e.RHS)
	case *hclsyntax.FunctionCallExpr:
		return newError(ErrParse, e.Range().Ptr(), "function call %q is not supported", e.Name)
	case *hclsyntax.ConditionalExpr:
		return newError(ErrParse, e.Range().Ptr(), "conditional expressions are not supported")
	case *hclsyntax.TupleConsExpr, *hclsyntax.ObjectConsExpr:
		return newError(ErrParse, expr.Range().Ptr(), "collection literals are not supported")
	default:
		return newError(ErrParse, expr.Range().Ptr(), "unsupported expression")
	}
}

func validateTraversal(t hcl.Traversal) error {
	if len(t) > 2 {
		return newError(ErrParse, t.SourceRange().Ptr(), "reference %q has more than two segments", traversalText(t))
	}
	if len(t) == 2 {
		if _, ok := t[1].(hcl.TraverseAttr); !ok {
			return newError(ErrParse, t.SourceRange().Ptr(), "only node.field references are supported")
		}
	}
	if len(t) == 1 && t.RootName() == SelfName {
		return newError(ErrParse, t.SourceRange().Ptr(), "%q must be followed by a field name", SelfName)
	}
	return nil
}

// extractReferences collects the unique references of an expression. The
// result is sorted to keep the order deterministic.
func extractReferences(expr hclsyntax.Expression) []Reference {
	byKey := make(map[string]Reference)
	for _, traversal := range expr.Variables() {
		ref := toReference(traversal)
		byKey[ref.String()] = ref
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	refs := make([]Reference, 0, len(keys))
	for _, k := range keys {
		refs = append(refs, byKey[k])
	}
	return refs
}

func traversalText(t hcl.Traversal) string {
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

func toReference(t hcl.Traversal) Reference {
	ref := Reference{Root: t.RootName(), Traversal: t}
	if len(t) > 1 {
		if attr, ok := t[1].(hcl.TraverseAttr); ok {
			ref.Attr = attr.Name
		}
	}
	return ref
}
