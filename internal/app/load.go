package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/datumgraph/internal/config"
	"github.com/vk/datumgraph/internal/ctxlog"
	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/registry"
)

// assignment is a document field applied once its node is attached.
type assignment struct {
	node  string
	field *config.FieldDecl
	kind  datum.Kind
}

// Build adds every node the document declares to g. Fields of open node
// types are declared before the node is attached; fields of fixed types are
// written through the graph afterwards, so a literal takes the document's
// constant and an expression takes the document's text.
func Build(ctx context.Context, doc *config.Document, reg *registry.Registry, g *datum.Graph) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building graph from document.", "nodes", len(doc.Nodes))

	var result *multierror.Error
	var pending []assignment
	for _, decl := range doc.Nodes {
		n, later, errs := buildNode(decl, reg)
		if len(errs) > 0 {
			result = multierror.Append(result, errs...)
			continue
		}
		if err := g.AddNode(ctx, n); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", decl.Source, err))
			continue
		}
		pending = append(pending, later...)
	}

	for _, a := range pending {
		var err error
		if a.kind.IsLiteral() {
			err = g.Set(ctx, a.node, a.field.Name, *a.field.Constant)
		} else {
			err = g.SetExpression(ctx, a.node, a.field.Name, a.field.Expression)
		}
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", a.field.Source, err))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	logger.Debug("Graph built from document.", "nodes", len(g.Nodes()))
	return nil
}

// buildNode creates the detached node for decl and returns the field
// assignments that must wait until it is attached.
func buildNode(decl *config.NodeDecl, reg *registry.Registry) (*datum.Node, []assignment, []error) {
	n, err := reg.NewNode(decl.Type, decl.Name)
	if err != nil {
		return nil, nil, []error{fmt.Errorf("%s: %w", decl.Source, err)}
	}
	t, _ := reg.NodeType(decl.Type)

	var errs []error
	var later []assignment
	for _, f := range decl.Fields {
		fail := func(format string, args ...any) {
			errs = append(errs, fmt.Errorf("%s: %s.%s: %w", f.Source, decl.Name, f.Name, fmt.Errorf(format, args...)))
		}

		d, ok := n.Datum(f.Name)
		if !ok {
			if !t.Open {
				fail("%s", unknownField(decl.Type, f.Name, n.Fields()))
				continue
			}
			if f.IsConstant() {
				err = n.AddLiteral(f.Name, *f.Constant)
			} else {
				err = n.AddExpression(f.Name, f.Expression)
			}
			if err != nil {
				fail("%w", err)
			}
			continue
		}

		switch kind := d.Kind(); {
		case kind == datum.KindFunction:
			fail("field is computed by %s and cannot be assigned", decl.Type)
		case kind.IsLiteral() && !f.IsConstant():
			fail("field is a %s literal; want a constant, got %s", kind, f.Expression)
		default:
			later = append(later, assignment{node: decl.Name, field: f, kind: kind})
		}
	}
	if len(errs) > 0 {
		return nil, nil, errs
	}
	return n, later, nil
}

func unknownField(nodeType, name string, fields []string) string {
	msg := fmt.Sprintf("node type %s has no such field", nodeType)
	if similar := datum.Suggest(name, fields); len(similar) > 0 {
		msg += fmt.Sprintf("; did you mean %q?", strings.Join(similar, `" or "`))
	}
	return msg
}
