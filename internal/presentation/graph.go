package presentation

import (
	"io"
	"strings"

	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/datumid"
	"github.com/vk/datumgraph/internal/registry"
	"github.com/xlab/treeprint"
)

// PrintNodes prints every field of the given nodes with its state and
// cached value, without evaluating anything.
func PrintNodes(w io.Writer, nodes []*datum.Node) {
	table := newTable(w, "Node", "Type", "Field", "Kind", "State", "Value")
	for _, n := range nodes {
		for _, d := range n.Datums() {
			table.Append([]string{n.Name(), n.Type(), d.Name(), d.Kind().String(), d.State().String(), describeDatum(d)})
		}
	}
	table.Render()
}

func describeDatum(d *datum.Datum) string {
	if v, ok := d.Cached(); ok {
		if d.Kind() == datum.KindExpression {
			return FormatValue(v) + "  <- " + d.Source()
		}
		return FormatValue(v)
	}
	if err := d.Err(); err != nil {
		return "error: " + err.Error()
	}
	if d.Kind() == datum.KindExpression {
		return "<- " + d.Source()
	}
	return ""
}

// DependencyFunc returns the direct dependencies of a datum.
type DependencyFunc func(ref datumid.Ref) []datumid.Ref

// PrintTree prints the dependencies of root as a tree. A datum already on
// the current branch is marked instead of expanded again.
func PrintTree(w io.Writer, root datumid.Ref, deps DependencyFunc) {
	tree := treeprint.NewWithRoot(root.String())
	addBranch(tree, root, deps, map[datumid.Ref]bool{root: true})
	io.WriteString(w, tree.String())
}

func addBranch(parent treeprint.Tree, ref datumid.Ref, deps DependencyFunc, onPath map[datumid.Ref]bool) {
	for _, dep := range deps(ref) {
		if onPath[dep] {
			parent.AddNode(dep.String() + " (cycle)")
			continue
		}
		children := deps(dep)
		if len(children) == 0 {
			parent.AddNode(dep.String())
			continue
		}
		branch := parent.AddBranch(dep.String())
		onPath[dep] = true
		addBranch(branch, dep, deps, onPath)
		delete(onPath, dep)
	}
}

// PrintNodeTypes prints the schema of every registered node type.
func PrintNodeTypes(w io.Writer, types []*registry.NodeType) {
	table := newTable(w, "Type", "Field", "Kind", "Default", "Description")
	for _, t := range types {
		if len(t.Fields) == 0 {
			field := ""
			if t.Open {
				field = "(any)"
			}
			table.Append([]string{t.Name, field, "", "", t.Description})
			continue
		}
		for i, f := range t.Fields {
			desc := ""
			if i == 0 {
				desc = t.Description
			}
			table.Append([]string{t.Name, f.Name, f.Kind.String(), f.Default, desc})
		}
	}
	table.Render()
}

// PrintControl prints the handles of a control.
func PrintControl(w io.Writer, c *registry.Control) {
	table := newTable(w, "Control", "Handle", "Binds")
	if len(c.Handles) == 0 {
		table.Append([]string{c.Title, "", ""})
	}
	for _, h := range c.Handles {
		binds := []string{h.X}
		if h.Y != "" {
			binds = append(binds, h.Y)
		}
		table.Append([]string{c.Title, h.Label, strings.Join(binds, ", ")})
	}
	table.Render()
}
