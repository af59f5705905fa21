package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dieff/clacks/graphql/prepare"
	"github.com/dieff/clacks/graphql/schema"
	"github.com/dieff/clacks/graphql/value"
)

func catalogWithResolvers(t *testing.T, objects map[string][]string, resolvers map[string]map[string]schema.Resolver) *schema.Catalog {
	t.Helper()
	c := &schema.Catalog{
		Objects:    map[string]*schema.ObjectType{},
		Enums:      map[string]*schema.EnumType{},
		Directives: map[string]*schema.DirectiveDefinition{},
		InputTypes: map[string]*schema.InputObjectType{},
		Resolvers:  schema.NewResolverRegistry(),
	}
	for name, fields := range objects {
		obj := &schema.ObjectType{Name: name}
		for _, f := range fields {
			obj.Fields = append(obj.Fields, &schema.FieldDefinition{Name: f, Type: &schema.TypeRef{NamedType: "String"}})
		}
		c.Objects[name] = obj
	}
	require.NoError(t, c.AddResolvers(resolvers))
	return c
}

func field(name string, children ...*prepare.PreparedField) *prepare.PreparedField {
	return &prepare.PreparedField{Name: name, Children: children}
}

func TestRunSimpleScalarQuery(t *testing.T) {
	c := catalogWithResolvers(t, map[string][]string{"Query": {"hello"}}, map[string]map[string]schema.Resolver{
		"Query": {
			"hello": func(ctx context.Context, parent *value.Object, args schema.Args) (schema.Outcome, error) {
				return schema.Scalar(value.String("world")), nil
			},
		},
	})

	out, err := Run(context.Background(), c, "Query", []*prepare.PreparedField{field("hello")}, nil)
	require.NoError(t, err)
	v, ok := out.Get("hello")
	require.True(t, ok)
	assert.Equal(t, value.String("world"), v)
}

func TestRunNestedObjectAndSparsification(t *testing.T) {
	c := catalogWithResolvers(t, map[string][]string{
		"Query":   {"channel"},
		"Channel": {"name", "secret"},
	}, map[string]map[string]schema.Resolver{
		"Query": {
			"channel": func(ctx context.Context, parent *value.Object, args schema.Args) (schema.Outcome, error) {
				seed := value.NewObject()
				seed.Set("name", value.String("general"))
				seed.Set("secret", value.String("leaked-if-not-sparsified"))
				return schema.TypeObject("Channel", seed), nil
			},
		},
	})

	out, err := Run(context.Background(), c, "Query", []*prepare.PreparedField{
		field("channel", field("name")),
	}, nil)
	require.NoError(t, err)

	channel, ok := out.Get("channel")
	require.True(t, ok)
	obj := channel.(*value.Object)
	assert.Equal(t, []string{"name"}, obj.Keys())
}

func TestRunTypeListProducesOneFramePerSeed(t *testing.T) {
	c := catalogWithResolvers(t, map[string][]string{
		"Query":   {"channels"},
		"Channel": {"name"},
	}, map[string]map[string]schema.Resolver{
		"Query": {
			"channels": func(ctx context.Context, parent *value.Object, args schema.Args) (schema.Outcome, error) {
				a := value.NewObject()
				a.Set("name", value.String("a"))
				b := value.NewObject()
				b.Set("name", value.String("b"))
				return schema.TypeList("Channel", []*value.Object{a, b}), nil
			},
		},
	})

	out, err := Run(context.Background(), c, "Query", []*prepare.PreparedField{
		field("channels", field("name")),
	}, nil)
	require.NoError(t, err)

	list, ok := out.Get("channels")
	require.True(t, ok)
	l := list.(value.List)
	require.Len(t, l, 2)
	first := l[0].(*value.Object)
	v, _ := first.Get("name")
	assert.Equal(t, value.String("a"), v)
}

func TestMissingResolverFailsWholeRequest(t *testing.T) {
	c := catalogWithResolvers(t, map[string][]string{"Query": {"hello"}}, map[string]map[string]schema.Resolver{})
	_, err := Run(context.Background(), c, "Query", []*prepare.PreparedField{field("hello")}, nil)
	require.Error(t, err)
	issue, ok := err.(*schema.Issue)
	require.True(t, ok)
	assert.Equal(t, schema.MissingResolver, issue.Kind)
}

func TestTypenameAndTypeSynthesized(t *testing.T) {
	c := catalogWithResolvers(t, map[string][]string{"Query": {}}, map[string]map[string]schema.Resolver{})
	out, err := Run(context.Background(), c, "Query", []*prepare.PreparedField{field("__typename"), field("__type", field("name"))}, nil)
	require.NoError(t, err)
	v, _ := out.Get("__typename")
	assert.Equal(t, value.String("Query"), v)

	typ, ok := out.Get("__type")
	require.True(t, ok)
	name, _ := typ.(*value.Object).Get("name")
	assert.Equal(t, value.String("Query"), name)
}
