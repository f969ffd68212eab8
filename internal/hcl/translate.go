package hcl

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/datumgraph/internal/config"
	"github.com/vk/datumgraph/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// translateNode converts a decoded node block into the agnostic model. The
// fields keep the order in which they appear in the source.
func (l *Loader) translateNode(ctx context.Context, b *nodeBlock, src []byte) (*config.NodeDecl, error) {
	attrs, diags := b.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("node %q: %w", b.Name, diags)
	}

	decl := &config.NodeDecl{
		Type:   b.Type,
		Name:   b.Name,
		Source: position(b.Body.MissingItemRange()),
	}

	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		ordered = append(ordered, attr)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
	})

	for _, attr := range ordered {
		field := &config.FieldDecl{
			Name:       attr.Name,
			Expression: string(attr.Expr.Range().SliceBytes(src)),
			Source:     position(attr.Range),
		}
		if v, ok := constantValue(attr.Expr); ok {
			field.Constant = &v
		}
		decl.Fields = append(decl.Fields, field)
	}

	ctxlog.FromContext(ctx).Debug("Translated node block.", "type", decl.Type, "name", decl.Name, "fields", len(decl.Fields))
	return decl, nil
}

// constantValue returns the value of expressions written as plain number or
// string literals, including negated numbers.
func constantValue(expr hcl.Expression) (cty.Value, bool) {
	var v cty.Value
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		v = e.Val
	case *hclsyntax.TemplateExpr:
		if !e.IsStringLiteral() {
			return cty.NilVal, false
		}
		val, diags := e.Value(nil)
		if diags.HasErrors() {
			return cty.NilVal, false
		}
		v = val
	case *hclsyntax.UnaryOpExpr:
		if _, ok := e.Val.(*hclsyntax.LiteralValueExpr); !ok || e.Op != hclsyntax.OpNegate {
			return cty.NilVal, false
		}
		val, diags := e.Value(nil)
		if diags.HasErrors() {
			return cty.NilVal, false
		}
		v = val
	default:
		return cty.NilVal, false
	}
	if v.IsNull() || !v.IsKnown() || (v.Type() != cty.Number && v.Type() != cty.String) {
		return cty.NilVal, false
	}
	return v, true
}

func position(r hcl.Range) string {
	return fmt.Sprintf("%s:%d", r.Filename, r.Start.Line)
}
