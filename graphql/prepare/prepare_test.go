package prepare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/dieff/clacks/graphql/schema"
	"github.com/dieff/clacks/graphql/value"
)

func mustParseQuery(t *testing.T, src string) *ast.QueryDocument {
	t.Helper()
	doc, err := parser.ParseQuery(&ast.Source{Input: src})
	require.NoError(t, err)
	return doc
}

// mustCatalog builds a stub Catalog exposing just enough of a Query type
// (and an unrelated Other type, for inline fragment tests) for Operations
// to lower selections against.
func mustCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	doc, err := parser.ParseSchema(&ast.Source{Input: `
		type Query { a: String, b: String, hello(name: String): String }
		type Other { b: String }
	`})
	require.NoError(t, err)
	c, err := schema.New(doc)
	require.NoError(t, err)
	return c
}

func TestFragmentsOverwriteByDocumentOrder(t *testing.T) {
	src := `
		fragment F on Query { a }
		fragment F on Query { b }
		query { ...F }
	`
	doc := New(mustParseQuery(t, src))
	require.NoError(t, doc.CoerceVariables(nil))
	ops, err := doc.Operations(mustCatalog(t))
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Len(t, ops[0].Fields, 1)
	assert.Equal(t, "b", ops[0].Fields[0].Name)
}

func TestInlineFragmentSkippedWhenSameType(t *testing.T) {
	src := `query { a ... on Query { b } }`
	doc := New(mustParseQuery(t, src))
	require.NoError(t, doc.CoerceVariables(nil))
	ops, err := doc.Operations(mustCatalog(t))
	require.NoError(t, err)
	require.Len(t, ops[0].Fields, 1)
	assert.Equal(t, "a", ops[0].Fields[0].Name)
}

func TestInlineFragmentExpandedWhenDifferentType(t *testing.T) {
	src := `query { a ... on Other { b } }`
	doc := New(mustParseQuery(t, src))
	require.NoError(t, doc.CoerceVariables(nil))
	ops, err := doc.Operations(mustCatalog(t))
	require.NoError(t, err)
	require.Len(t, ops[0].Fields, 2)
}

func TestExactlyOneOperationKindRequired(t *testing.T) {
	src := `query { a } mutation { b }`
	doc := New(mustParseQuery(t, src))
	require.NoError(t, doc.CoerceVariables(nil))
	_, err := doc.Operations(mustCatalog(t))
	require.Error(t, err)
	ve, ok := err.(*Err)
	require.True(t, ok)
	assert.Equal(t, Field, ve.Kind)
}

func TestCoerceVariablesAppliesDefaultAndRejectsExtra(t *testing.T) {
	src := `query($name: String = "default") { hello(name: $name) }`
	doc := New(mustParseQuery(t, src))
	require.NoError(t, doc.CoerceVariables(nil))

	err := doc.CoerceVariables(map[string]interface{}{"unused": "x"})
	require.Error(t, err)
	ve, ok := err.(*Err)
	require.True(t, ok)
	assert.Equal(t, Variable, ve.Kind)
}

func TestNaiveCheckVarType(t *testing.T) {
	str := &ast.Type{NamedType: "String"}
	assert.True(t, naiveCheckVarType(str, value.String("x")))
	assert.False(t, naiveCheckVarType(str, value.Int(1)))

	nonNull := &ast.Type{NamedType: "String", NonNull: true}
	assert.False(t, naiveCheckVarType(nonNull, value.Null{}))

	list := &ast.Type{Elem: &ast.Type{NamedType: "Int"}}
	assert.True(t, naiveCheckVarType(list, value.List{}))
	assert.True(t, naiveCheckVarType(list, value.List{value.Int(1)}))
	assert.False(t, naiveCheckVarType(list, value.List{value.String("x")}))
}
