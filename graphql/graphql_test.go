package graphql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dieff/clacks/graphql/schema"
	"github.com/dieff/clacks/graphql/value"
)

func testCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	catalog, err := NewSchema(`
		type Query {
			hello: String
		}
	`, map[string]map[string]schema.Resolver{
		"Query": {
			"hello": func(ctx context.Context, parent *value.Object, args schema.Args) (schema.Outcome, error) {
				return schema.Scalar(value.String("world")), nil
			},
		},
	})
	require.NoError(t, err)
	return catalog
}

func TestPrepareAndExecuteQuery(t *testing.T) {
	catalog := testCatalog(t)

	p, err := Prepare(catalog, &Request{Query: `{ hello __typename }`})
	require.NoError(t, err)
	assert.False(t, p.IsSubscription())

	data, err := Execute(context.Background(), p)
	require.NoError(t, err)

	hello, ok := data.Get("hello")
	require.True(t, ok)
	assert.Equal(t, value.String("world"), hello)

	typename, ok := data.Get("__typename")
	require.True(t, ok)
	assert.Equal(t, value.String("Query"), typename)
}

func TestMarshalResponse(t *testing.T) {
	obj := value.NewObject()
	obj.Set("hello", value.String("world"))
	body, err := MarshalResponse(obj, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"hello":"world"}}`, string(body))
}

func TestIntrospectionSchemaTypeIsQueryable(t *testing.T) {
	catalog := testCatalog(t)

	p, err := Prepare(catalog, &Request{Query: `{ __schema { queryType { name } } }`})
	require.NoError(t, err)

	data, err := Execute(context.Background(), p)
	require.NoError(t, err)

	schemaObj, ok := data.Get("__schema")
	require.True(t, ok)
	queryType, ok := schemaObj.(*value.Object).Get("queryType")
	require.True(t, ok)
	name, ok := queryType.(*value.Object).Get("name")
	require.True(t, ok)
	assert.Equal(t, value.String("Query"), name)
}
