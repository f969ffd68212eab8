// internal/datumid/parser.go
package datumid

import (
	"fmt"
	"regexp"
	"strings"
)

// identRegex matches an HCL identifier.
var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// ValidName reports whether name can be used as a node or field name.
func ValidName(name string) bool {
	return identRegex.MatchString(name)
}

// Parse creates a Ref from its canonical `node.field` representation.
func Parse(raw string) (Ref, error) {
	if raw == "" {
		return Ref{}, fmt.Errorf("datum address cannot be empty")
	}

	node, field, ok := strings.Cut(raw, ".")
	if !ok {
		return Ref{}, fmt.Errorf("datum address %q must have the form node.field", raw)
	}
	if strings.Contains(field, ".") {
		return Ref{}, fmt.Errorf("datum address %q has more than two segments", raw)
	}
	if !ValidName(node) {
		return Ref{}, fmt.Errorf("invalid node name: %q", node)
	}
	if !ValidName(field) {
		return Ref{}, fmt.Errorf("invalid field name: %q", field)
	}

	return Ref{Node: node, Field: field}, nil
}
