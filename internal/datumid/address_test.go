// internal/datumid/address_test.go
package datumid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRef_String(t *testing.T) {
	assert.Equal(t, "A.x", New("A", "x").String())
	assert.Equal(t, "", Ref{}.String())
}

func TestRef_RoundTrip(t *testing.T) {
	for _, id := range []string{"A.x", "box.output", "f1.zmax"} {
		t.Run(id, func(t *testing.T) {
			ref, err := Parse(id)
			require.NoError(t, err)
			assert.Equal(t, id, ref.String())
		})
	}
}

func TestSortAndPath(t *testing.T) {
	refs := []Ref{New("b", "y"), New("a", "z"), New("a", "x")}
	Sort(refs)
	assert.Equal(t, []Ref{New("a", "x"), New("a", "z"), New("b", "y")}, refs)
	assert.Equal(t, "a.x -> a.z -> b.y", Path(refs))
}
