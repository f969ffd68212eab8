package registry

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/datumgraph/internal/ctxlog"
)

// probeName is the name given to the throwaway nodes built by Validate.
const probeName = "probe"

// Validate performs a strict parity check between the advertised schema of
// every node type and the nodes its constructor actually builds, and checks
// that every control belongs to a registered type and binds existing
// literal fields.
func (r *Registry) Validate(ctx context.Context) error {
	var result *multierror.Error
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.typeNames() {
		t := r.nodeTypes[name]
		n, err := t.New(probeName)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("node type '%s': constructor failed: %w", name, err))
			continue
		}
		if n.Type() != name {
			result = multierror.Append(result, fmt.Errorf("node type '%s': constructor builds nodes of type '%s'", name, n.Type()))
		}

		declared := make(map[string]struct{}, len(t.Fields))
		for _, f := range t.Fields {
			declared[f.Name] = struct{}{}
			d, ok := n.Datum(f.Name)
			if !ok {
				result = multierror.Append(result, fmt.Errorf("node type '%s': declares field '%s' which the constructor does not build", name, f.Name))
				continue
			}
			if d.Kind() != f.Kind {
				result = multierror.Append(result, fmt.Errorf("node type '%s', field '%s': kind mismatch. Declared '%s' but built '%s'", name, f.Name, f.Kind, d.Kind()))
			}
		}
		for _, field := range n.Fields() {
			if _, ok := declared[field]; !ok {
				result = multierror.Append(result, fmt.Errorf("node type '%s': constructor builds field '%s' which is not declared", name, field))
			}
		}
		if len(t.Fields) == 0 && !t.Open {
			logger.Warn("Node type declares no fields and is not open; its nodes can hold nothing.", "type", name)
		}

		factory, ok := r.controls[name]
		if !ok {
			continue
		}
		control := factory(n)
		if control == nil {
			continue
		}
		for _, h := range control.Handles {
			for _, field := range []string{h.X, h.Y} {
				if field == "" {
					continue
				}
				d, ok := n.Datum(field)
				switch {
				case !ok:
					result = multierror.Append(result, fmt.Errorf("control for '%s': handle '%s' binds unknown field '%s'", name, h.Label, field))
				case !d.Kind().IsLiteral():
					result = multierror.Append(result, fmt.Errorf("control for '%s': handle '%s' binds %s field '%s'", name, h.Label, d.Kind(), field))
				}
			}
		}
	}

	for nodeType := range r.controls {
		if _, ok := r.nodeTypes[nodeType]; !ok {
			result = multierror.Append(result, fmt.Errorf("control registered for unknown node type '%s'", nodeType))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	return nil
}
