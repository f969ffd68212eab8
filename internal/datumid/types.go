// internal/datumid/types.go
package datumid

// Ref addresses a single datum: the field Field on the node named Node.
// Ref is comparable and is used directly as a map key.
type Ref struct {
	Node  string
	Field string
}

// New creates a Ref without validating its segments.
func New(node, field string) Ref {
	return Ref{Node: node, Field: field}
}

// IsZero reports whether the Ref has neither a node nor a field.
func (r Ref) IsZero() bool {
	return r.Node == "" && r.Field == ""
}
