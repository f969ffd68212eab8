package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/datumgraph/internal/datum"
)

// Module is the interface that all node catalog modules implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// FieldSpec describes one field a node type declares.
type FieldSpec struct {
	Name string
	Kind datum.Kind
	// Default is the literal value or expression text a new node starts with.
	Default string
}

// NodeType describes how to build nodes of one type.
type NodeType struct {
	Name        string
	Description string
	Fields      []FieldSpec
	// Open types accept additional fields from documents before the node is
	// added to a graph.
	Open bool
	// New builds a detached node with the declared fields.
	New func(name string) (*datum.Node, error)
}

// Control describes the UI widget that edits a node: a title and a set of
// draggable handles, each bound to literal fields of the node.
type Control struct {
	Title   string
	Handles []Handle
}

// Handle is a draggable point. Y is empty for one-dimensional handles.
type Handle struct {
	Label string
	X     string
	Y     string
}

// ControlFactory builds the control for a node.
type ControlFactory func(n *datum.Node) *Control

// Registry holds all registered node types and control factories for a
// single application instance.
type Registry struct {
	nodeTypes map[string]*NodeType
	controls  map[string]ControlFactory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		nodeTypes: make(map[string]*NodeType),
		controls:  make(map[string]ControlFactory),
	}
}

// NodeType returns the registered type of the given name.
func (r *Registry) NodeType(name string) (*NodeType, bool) {
	t, ok := r.nodeTypes[name]
	return t, ok
}

// NodeTypes returns all registered types sorted by name.
func (r *Registry) NodeTypes() []*NodeType {
	out := make([]*NodeType, 0, len(r.nodeTypes))
	for _, name := range r.typeNames() {
		out = append(out, r.nodeTypes[name])
	}
	return out
}

// Control returns the control factory registered for a node type.
func (r *Registry) Control(nodeType string) (ControlFactory, bool) {
	f, ok := r.controls[nodeType]
	return f, ok
}

// NewNode builds a detached node of the given type.
func (r *Registry) NewNode(nodeType, name string) (*datum.Node, error) {
	t, ok := r.nodeTypes[nodeType]
	if !ok {
		msg := fmt.Sprintf("unknown node type %q", nodeType)
		if similar := r.closestTypes(nodeType); len(similar) > 0 {
			msg += fmt.Sprintf("; did you mean %q?", strings.Join(similar, `" or "`))
		}
		return nil, fmt.Errorf("%s", msg)
	}
	n, err := t.New(name)
	if err != nil {
		return nil, fmt.Errorf("building %s node %q: %w", nodeType, name, err)
	}
	return n, nil
}

func (r *Registry) typeNames() []string {
	names := make([]string, 0, len(r.nodeTypes))
	for name := range r.nodeTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) closestTypes(name string) []string {
	return datum.Suggest(name, r.typeNames())
}
