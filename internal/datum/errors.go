package datum

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/vk/datumgraph/internal/datumid"
	"github.com/vk/datumgraph/internal/expr"
)

var (
	// ErrUnresolvedNode is returned when a reference names a node that is
	// not in the graph.
	ErrUnresolvedNode = errors.New("unresolved node")
	// ErrUnresolvedField is returned when a node has no field of the
	// referenced name.
	ErrUnresolvedField = errors.New("unresolved field")
	// ErrCyclicDependency is returned when evaluation re-enters a datum that
	// is already being evaluated.
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrInvalidAssignment is returned when a literal is written to a
	// computed datum, or an expression to a non-expression datum.
	ErrInvalidAssignment = errors.New("invalid assignment")

	// ErrParse is returned for malformed expression text.
	ErrParse = expr.ErrParse
	// ErrDivisionByZero is returned when an expression divides by zero.
	ErrDivisionByZero = expr.ErrDivisionByZero
	// ErrInvalidOperation is returned for operands of unsupported types and
	// for failures reported by a Func.
	ErrInvalidOperation = expr.ErrInvalidOperation
)

// maxSuggestionDistance is the largest edit distance for which a name is
// offered as a suggestion.
const maxSuggestionDistance = 3

// Error is the failure of a single datum operation.
type Error struct {
	// Kind is one of the Err* values of this package.
	Kind error
	// Datum is the datum whose evaluation or assignment failed.
	Datum datumid.Ref
	// Target is the reference that could not be read, if any.
	Target datumid.Ref
	// Cycle is the reference path for ErrCyclicDependency, starting and
	// ending with the same datum.
	Cycle []datumid.Ref
	// Suggestions holds similar existing names for unresolved references.
	Suggestions []string
	Detail      string
	// Err is the underlying failure, e.g. the error of an upstream datum.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Datum.Field == "" {
		b.WriteString(e.Datum.Node)
	} else {
		b.WriteString(e.Datum.String())
	}
	b.WriteString(": ")
	switch {
	case e.Detail != "":
		fmt.Fprintf(&b, "%s: %s", e.Kind, e.Detail)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(e.Kind.Error())
	}
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, "; did you mean %q?", strings.Join(e.Suggestions, `" or "`))
	}
	return b.String()
}

// Unwrap exposes the kind and the underlying error to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func cycleError(path []datumid.Ref) *Error {
	return &Error{
		Kind:   ErrCyclicDependency,
		Datum:  path[0],
		Cycle:  path,
		Detail: datumid.Path(path),
	}
}

// wrapFailure turns whatever an evaluation returned into an *Error naming d.
func wrapFailure(d *Datum, err error) error {
	ref := d.Ref()

	var de *Error
	if errors.As(err, &de) {
		if de.Kind == ErrCyclicDependency || de.Datum == ref {
			return de
		}
		return &Error{Kind: de.Kind, Datum: ref, Target: de.Datum, Err: de}
	}

	var ee *expr.Error
	if errors.As(err, &ee) {
		return &Error{Kind: ee.Kind, Datum: ref, Err: ee}
	}

	return &Error{Kind: ErrInvalidOperation, Datum: ref, Err: err}
}

// Suggest returns the candidates closest to name, ignoring those further
// than maxSuggestionDistance.
func Suggest(name string, candidates []string) []string {
	best := maxSuggestionDistance + 1
	var closest []string
	for _, c := range candidates {
		dist := levenshtein.ComputeDistance(name, c)
		switch {
		case dist < best:
			closest = []string{c}
			best = dist
		case dist == best:
			closest = append(closest, c)
		}
	}
	slices.Sort(closest)
	return slices.Compact(closest)
}
