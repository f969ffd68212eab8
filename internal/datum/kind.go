package datum

import "github.com/zclconf/go-cty/cty"

// Kind distinguishes the variants of datum.
type Kind int

const (
	// KindFloat is a literal number.
	KindFloat Kind = iota
	// KindString is a literal string.
	KindString
	// KindExpression is evaluated from expression source text.
	KindExpression
	// KindFunction is computed by a Func over the owning node.
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindExpression:
		return "expression"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// IsLiteral reports whether values of this kind are assigned, not computed.
func (k Kind) IsLiteral() bool {
	return k == KindFloat || k == KindString
}

func (k Kind) literalType() cty.Type {
	if k == KindString {
		return cty.String
	}
	return cty.Number
}

// State is the condition of a datum's cached value.
type State int

const (
	// StateAbsent means the datum was never evaluated.
	StateAbsent State = iota
	// StateValid means the cached value may be returned as is.
	StateValid
	// StateStale means an upstream datum changed since the last evaluation.
	StateStale
	// StateFailed means the last evaluation returned an error. There is no
	// cached value; the next Get evaluates again.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateValid:
		return "valid"
	case StateStale:
		return "stale"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
