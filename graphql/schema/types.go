// Package schema builds the core's type catalog and resolver registry from
// a parsed SDL document, and defines the resolver contract the execution
// engine drives.
package schema

import "github.com/dieff/clacks/graphql/value"

// TypeRef mirrors gqlparser's ast.Type: a named type, or a list/non-null
// wrapper around another TypeRef. The catalog keeps its own copy rather
// than holding onto the parser's AST nodes directly, per the "store only
// the subset it needs" note in the data model.
type TypeRef struct {
	NamedType string
	Elem      *TypeRef
	NonNull   bool
}

func (t *TypeRef) IsList() bool {
	return t.NamedType == "" && t.Elem != nil
}

// Name returns the innermost named type, unwrapping List/NonNull.
func (t *TypeRef) Name() string {
	for t.NamedType == "" && t.Elem != nil {
		t = t.Elem
	}
	return t.NamedType
}

type ArgumentDefinition struct {
	Name         string
	Type         *TypeRef
	DefaultValue value.Value
	HasDefault   bool
}

type FieldDefinition struct {
	Name        string
	Description string
	Arguments   []*ArgumentDefinition
	Type        *TypeRef
}

type ObjectType struct {
	Name        string
	Description string
	Fields      []*FieldDefinition
}

func (o *ObjectType) Field(name string) *FieldDefinition {
	for _, f := range o.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

type EnumValue struct {
	Name        string
	Description string
}

type EnumType struct {
	Name        string
	Description string
	Values      []*EnumValue
}

type InputObjectType struct {
	Name        string
	Description string
	Fields      []*FieldDefinition
}

type DirectiveDefinition struct {
	Name        string
	Description string
	Arguments   []*ArgumentDefinition
	Locations   []string
}
