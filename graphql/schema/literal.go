package schema

import (
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/dieff/clacks/graphql/value"
)

// LiteralToValue converts a parsed argument/default-value literal into a
// runtime Value, substituting any variable references found in vars. It
// does not attempt deep validation against a declared type; that's the
// job of the shallow coercion pass in package prepare.
func LiteralToValue(v *ast.Value, vars map[string]value.Value) value.Value {
	if v == nil {
		return value.Null{}
	}
	switch v.Kind {
	case ast.Variable:
		if vars != nil {
			if val, ok := vars[v.Raw]; ok {
				return val
			}
		}
		return value.Variable(v.Raw)
	case ast.IntValue:
		i, _ := strconv.ParseInt(v.Raw, 10, 64)
		return value.Int(i)
	case ast.FloatValue:
		f, _ := strconv.ParseFloat(v.Raw, 64)
		return value.Float(f)
	case ast.StringValue, ast.BlockValue:
		return value.String(v.Raw)
	case ast.BooleanValue:
		return value.Bool(v.Raw == "true")
	case ast.NullValue:
		return value.Null{}
	case ast.EnumValue:
		return value.Enum(v.Raw)
	case ast.ListValue:
		l := make(value.List, 0, len(v.Children))
		for _, child := range v.Children {
			l = append(l, LiteralToValue(child.Value, vars))
		}
		return l
	case ast.ObjectValue:
		o := value.NewObject()
		for _, child := range v.Children {
			o.Set(child.Name, LiteralToValue(child.Value, vars))
		}
		return o
	default:
		return value.Null{}
	}
}
