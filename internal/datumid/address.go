// internal/datumid/address.go
package datumid

import (
	"sort"
	"strings"
)

// String serializes the Ref into its canonical `node.field` representation.
func (r Ref) String() string {
	if r.IsZero() {
		return ""
	}
	return r.Node + "." + r.Field
}

// Less orders Refs by node name, then by field name.
func (r Ref) Less(other Ref) bool {
	if r.Node != other.Node {
		return r.Node < other.Node
	}
	return r.Field < other.Field
}

// Sort sorts refs in place using Less and returns it.
func Sort(refs []Ref) []Ref {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	return refs
}

// Path renders a sequence of refs as `a.x -> b.y -> a.x`.
func Path(refs []Ref) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, " -> ")
}
