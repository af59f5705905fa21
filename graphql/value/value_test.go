package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPreservesInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("b", Int(2))
	o.Set("a", Int(1))
	o.Set("b", Int(22))

	assert.Equal(t, []string{"b", "a"}, o.Keys())

	b, err := o.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"b":22,"a":1}`, string(b))
}

func TestToJSON(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Null{}, "null"},
		{Bool(true), "true"},
		{Int(42), "42"},
		{Float(1.5), "1.5"},
		{String("hi"), `"hi"`},
		{Enum("RED"), `"RED"`},
		{List{Int(1), Null{}}, "[1,null]"},
	}
	for _, c := range cases {
		b, err := ToJSON(c.v)
		require.NoError(t, err)
		assert.Equal(t, c.want, string(b))
	}
}

func TestFromJSONIntFloatHeuristic(t *testing.T) {
	assert.Equal(t, Int(3), FromJSON(float64(3)))
	assert.Equal(t, Float(3.5), FromJSON(float64(3.5)))
	assert.Equal(t, String("x"), FromJSON("x"))
	assert.Equal(t, Null{}, FromJSON(nil))
}
