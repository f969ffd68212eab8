package registry

import (
	"fmt"
	"log/slog"
)

// RegisterNodeType registers a node type under its name.
func (r *Registry) RegisterNodeType(t *NodeType) {
	if _, exists := r.nodeTypes[t.Name]; exists {
		panic(fmt.Sprintf("node type with name '%s' already registered", t.Name))
	}
	slog.Debug("Registering node type.", "name", t.Name, "fields", len(t.Fields))
	r.nodeTypes[t.Name] = t
}

// RegisterControl registers the UI control factory for a node type.
func (r *Registry) RegisterControl(nodeType string, f ControlFactory) {
	if _, exists := r.controls[nodeType]; exists {
		panic(fmt.Sprintf("control for node type '%s' already registered", nodeType))
	}
	slog.Debug("Registering control.", "nodeType", nodeType)
	r.controls[nodeType] = f
}
