package datum

import (
	"errors"
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var errNaN = errors.New("NaN is not a number value")

// ToValue converts a native Go value into a cty.Value. A cty.Value is
// returned unchanged.
func ToValue(v any) (cty.Value, error) {
	switch tv := v.(type) {
	case nil:
		return cty.NilVal, errors.New("cannot convert nil")
	case cty.Value:
		return tv, nil
	case float64:
		if math.IsNaN(tv) {
			return cty.NilVal, errNaN
		}
	case float32:
		if math.IsNaN(float64(tv)) {
			return cty.NilVal, errNaN
		}
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert %T: %w", v, err)
	}
	return gocty.ToCtyValue(v, ty)
}

// Float returns v as a float64. Strings holding a number are accepted.
func Float(v cty.Value) (float64, error) {
	if v.IsNull() || !v.IsKnown() {
		return 0, fmt.Errorf("%w: value is not a number", ErrInvalidOperation)
	}
	n, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a number", ErrInvalidOperation, v.Type().FriendlyName())
	}
	f, _ := n.AsBigFloat().Float64()
	return f, nil
}
