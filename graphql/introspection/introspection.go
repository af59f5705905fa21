// Package introspection registers the meta resolvers that answer __type,
// __schema, and __typename style queries over a Catalog.
package introspection

import (
	"context"

	"github.com/dieff/clacks/graphql/schema"
	"github.com/dieff/clacks/graphql/value"
)

var builtinScalars = map[string]bool{
	"String": true, "Boolean": true, "ID": true, "Int": true, "Float": true,
}

func str(o *value.Object, key string) (string, bool) {
	if o == nil {
		return "", false
	}
	v, ok := o.Get(key)
	if !ok {
		return "", false
	}
	switch v := v.(type) {
	case value.String:
		return string(v), true
	case value.Enum:
		return string(v), true
	}
	return "", false
}

func optString(s string, ok bool) value.Value {
	if !ok {
		return value.Null{}
	}
	return value.String(s)
}

// Register adds the __Type/__Schema/__Directive/__InputValue/__Field meta
// resolvers, plus Query.__schema, to the catalog's resolver registry. It
// must be called once after the catalog's own object/enum/input definitions
// are loaded and before any application resolvers reference introspection
// fields.
func Register(c *schema.Catalog) error {
	reg := map[string]map[string]schema.Resolver{
		"__Type": {
			"description":  typeDescription(c),
			"ofType":       typeOfKind(c),
			"possibleTypes": typePossibleTypes,
			"enumValues":   typeEnumValues(c),
			"interfaces":   typeInterfaces,
			"inputFields":  typeInputFields(c),
			"fields":       typeFields(c),
		},
		"__Schema": {
			"queryType":        schemaRootType(c, "Query"),
			"subscriptionType": schemaRootType(c, "Subscription"),
			"mutationType":     schemaRootType(c, "Mutation"),
			"types":            schemaTypes(c),
			"directives":       schemaDirectives,
		},
		"__Directive": {
			"args": directiveArgs(c),
		},
		"__InputValue": {
			"defaultValue": inputValueDefault,
			"type":         inputValueType(c),
		},
		"__Field": {
			"args": fieldArgs(c),
		},
	}
	if err := c.AddResolvers(reg); err != nil {
		return err
	}
	// Query.__schema is not declared in the application's SDL, so it is
	// added directly rather than through AddResolvers' field validation.
	c.Resolvers.Add("Query", "__schema", querySchema)
	return nil
}

func typeDescription(c *schema.Catalog) schema.Resolver {
	return func(_ context.Context, root *value.Object, _ schema.Args) (schema.Outcome, error) {
		name, ok := str(root, "name")
		if !ok {
			return schema.Scalar(value.Null{}), nil
		}
		if builtinScalars[name] {
			return schema.Scalar(value.String("Scalar type")), nil
		}
		if e, ok := c.Enums[name]; ok {
			return schema.Scalar(optString(e.Description, e.Description != "")), nil
		}
		if o, ok := c.Objects[name]; ok {
			return schema.Scalar(optString(o.Description, o.Description != "")), nil
		}
		if i, ok := c.InputTypes[name]; ok {
			return schema.Scalar(optString(i.Description, i.Description != "")), nil
		}
		return schema.Outcome{}, &schema.Issue{Kind: schema.MissingType, Name: name}
	}
}

func typeOfKind(c *schema.Catalog) schema.Resolver {
	return func(_ context.Context, root *value.Object, _ schema.Args) (schema.Outcome, error) {
		kind, kOk := str(root, "kind")
		name, nOk := str(root, "name")
		if !kOk || !nOk {
			return schema.Outcome{}, &schema.Issue{Kind: schema.InvalidResolver, Name: "__Type", Field: "kind|name"}
		}
		if kind != "LIST" && kind != "NON_NULL" {
			return schema.Scalar(value.Null{}), nil
		}
		o := value.NewObject()
		o.Set("name", value.String(name))
		switch {
		case builtinScalars[name]:
			o.Set("kind", value.Enum("SCALAR"))
		case c.Enums[name] != nil:
			o.Set("kind", value.Enum("ENUM"))
		case c.Objects[name] != nil:
			o.Set("kind", value.Enum("OBJECT"))
		}
		return schema.TypeObject("__Type", o), nil
	}
}

func typePossibleTypes(_ context.Context, _ *value.Object, _ schema.Args) (schema.Outcome, error) {
	return schema.Scalar(value.Null{}), nil
}

func typeEnumValues(c *schema.Catalog) schema.Resolver {
	return func(_ context.Context, root *value.Object, _ schema.Args) (schema.Outcome, error) {
		kind, _ := str(root, "kind")
		name, nOk := str(root, "name")
		if kind != "ENUM" {
			return schema.Scalar(value.Null{}), nil
		}
		en, ok := c.Enums[name]
		if !nOk || !ok {
			return schema.Outcome{}, &schema.Issue{Kind: schema.MissingType, Name: name}
		}
		seeds := make([]*value.Object, 0, len(en.Values))
		for _, v := range en.Values {
			o := value.NewObject()
			o.Set("name", value.String(v.Name))
			o.Set("description", optString(v.Description, v.Description != ""))
			o.Set("isDeprecated", value.Bool(false))
			o.Set("deprecationReason", value.Null{})
			seeds = append(seeds, o)
		}
		return schema.TypeList("__EnumValue", seeds), nil
	}
}

func typeInterfaces(_ context.Context, root *value.Object, _ schema.Args) (schema.Outcome, error) {
	kind, kOk := str(root, "kind")
	_, nOk := str(root, "name")
	if !kOk || !nOk {
		return schema.Outcome{}, &schema.Issue{Kind: schema.InvalidResolver, Name: "__Type", Field: "kind|name"}
	}
	if kind != "OBJECT" {
		return schema.Scalar(value.Null{}), nil
	}
	return schema.TypeList("__Type", nil), nil
}

func typeInputFields(c *schema.Catalog) schema.Resolver {
	return func(_ context.Context, root *value.Object, _ schema.Args) (schema.Outcome, error) {
		kind, kOk := str(root, "kind")
		name, nOk := str(root, "name")
		if !kOk || !nOk {
			return schema.Outcome{}, &schema.Issue{Kind: schema.InvalidResolver, Name: "__Type", Field: "kind"}
		}
		if kind != "INPUT_OBJECT" {
			return schema.Scalar(value.Null{}), nil
		}
		def, ok := c.InputTypes[name]
		if !ok {
			return schema.Outcome{}, &schema.Issue{Kind: schema.MissingType, Name: name}
		}
		seeds := make([]*value.Object, 0, len(def.Fields))
		for _, f := range def.Fields {
			o := value.NewObject()
			o.Set("name", value.String(f.Name))
			o.Set("description", optString(f.Description, f.Description != ""))
			o.Set("defaultValue", value.Null{})
			o.Set("parentTypename", value.String(name))
			seeds = append(seeds, o)
		}
		return schema.TypeList("__InputValue", seeds), nil
	}
}

func convertFieldType(c *schema.Catalog, t *schema.TypeRef) *value.Object {
	o := value.NewObject()
	switch {
	case t.IsList():
		o.Set("name", value.Null{})
		o.Set("ofType", convertFieldType(c, t.Elem))
		o.Set("kind", value.Enum("LIST"))
	case t.NonNull:
		inner := &schema.TypeRef{NamedType: t.NamedType, Elem: t.Elem}
		o.Set("name", value.Null{})
		o.Set("ofType", convertFieldType(c, inner))
		o.Set("kind", value.Enum("NON_NULL"))
	default:
		o.Set("name", value.String(t.NamedType))
		switch {
		case builtinScalars[t.NamedType]:
			o.Set("kind", value.Enum("SCALAR"))
		case c.Objects[t.NamedType] != nil:
			o.Set("kind", value.Enum("OBJECT"))
		case c.Enums[t.NamedType] != nil:
			o.Set("kind", value.Enum("ENUM"))
		}
	}
	return o
}

func typeFields(c *schema.Catalog) schema.Resolver {
	return func(_ context.Context, root *value.Object, _ schema.Args) (schema.Outcome, error) {
		kind, _ := str(root, "kind")
		name, nOk := str(root, "name")
		if kind != "OBJECT" {
			return schema.Scalar(value.Null{}), nil
		}
		def, ok := c.Objects[name]
		if !nOk || !ok {
			return schema.Outcome{}, &schema.Issue{Kind: schema.MissingType, Name: name}
		}
		seeds := make([]*value.Object, 0, len(def.Fields))
		for _, f := range def.Fields {
			o := value.NewObject()
			o.Set("name", value.String(f.Name))
			o.Set("parentTypename", value.String(name))
			o.Set("description", optString(f.Description, f.Description != ""))
			o.Set("type", convertFieldType(c, f.Type))
			o.Set("isDeprecated", value.Bool(false))
			o.Set("deprecationReason", value.Null{})
			seeds = append(seeds, o)
		}
		return schema.TypeList("__Field", seeds), nil
	}
}

func fieldArgs(c *schema.Catalog) schema.Resolver {
	return func(_ context.Context, root *value.Object, _ schema.Args) (schema.Outcome, error) {
		fieldName, fOk := str(root, "name")
		typeName, tOk := str(root, "parentTypename")
		if !fOk || !tOk {
			return schema.Outcome{}, &schema.Issue{Kind: schema.InvalidResolver, Name: "__Field", Field: "name|parentTypename"}
		}
		obj, ok := c.Objects[typeName]
		if !ok {
			return schema.Outcome{}, &schema.Issue{Kind: schema.MissingType, Name: typeName}
		}
		field := obj.Field(fieldName)
		if field == nil {
			return schema.Outcome{}, &schema.Issue{Kind: schema.InvalidResolver, Name: typeName, Field: fieldName}
		}
		return schema.TypeList("__InputValue", argumentSeeds(c, field.Arguments)), nil
	}
}

func argumentSeeds(c *schema.Catalog, args []*schema.ArgumentDefinition) []*value.Object {
	seeds := make([]*value.Object, 0, len(args))
	for _, arg := range args {
		o := value.NewObject()
		o.Set("name", value.String(arg.Name))
		o.Set("description", value.Null{})
		if arg.HasDefault {
			b, _ := value.ToJSON(arg.DefaultValue)
			o.Set("defaultValue", value.String(string(b)))
		} else {
			o.Set("defaultValue", value.Null{})
		}
		typeObj := fullInputTypeResolver(c, arg.Type)
		o.Set("type", typeObj)
		seeds = append(seeds, o)
	}
	return seeds
}

func fullInputTypeResolver(c *schema.Catalog, t *schema.TypeRef) value.Value {
	o := value.NewObject()
	switch {
	case t.NonNull:
		inner := &schema.TypeRef{NamedType: t.NamedType, Elem: t.Elem}
		o.Set("kind", value.Enum("NON_NULL"))
		o.Set("ofType", fullInputTypeResolver(c, inner))
	case t.IsList():
		o.Set("kind", value.Enum("LIST"))
		o.Set("ofType", fullInputTypeResolver(c, t.Elem))
	default:
		o.Set("name", value.String(t.NamedType))
		if builtinScalars[t.NamedType] {
			o.Set("kind", value.Enum("SCALAR"))
		} else {
			o.Set("kind", value.Enum("INPUT_OBJECT"))
			o.Set("ofType", value.Null{})
		}
	}
	return o
}

func schemaRootType(c *schema.Catalog, typeName string) schema.Resolver {
	return func(_ context.Context, _ *value.Object, _ schema.Args) (schema.Outcome, error) {
		if _, ok := c.Objects[typeName]; !ok {
			return schema.Scalar(value.Null{}), nil
		}
		o := value.NewObject()
		o.Set("name", value.String(typeName))
		o.Set("kind", value.Enum("OBJECT"))
		return schema.TypeObject("__Type", o), nil
	}
}

func schemaDirectives(_ context.Context, _ *value.Object, _ schema.Args) (schema.Outcome, error) {
	return schema.TypeList("__Directive", nil), nil
}

func schemaTypes(c *schema.Catalog) schema.Resolver {
	return func(_ context.Context, _ *value.Object, _ schema.Args) (schema.Outcome, error) {
		seeds := make([]*value.Object, 0, len(c.Objects)+len(c.InputTypes))
		for name := range c.Objects {
			o := value.NewObject()
			o.Set("name", value.String(name))
			o.Set("kind", value.Enum("OBJECT"))
			seeds = append(seeds, o)
		}
		for name := range c.InputTypes {
			o := value.NewObject()
			o.Set("name", value.String(name))
			o.Set("kind", value.Enum("INPUT_OBJECT"))
			seeds = append(seeds, o)
		}
		// Enums and built-in scalars are intentionally omitted from
		// __Schema.types.
		return schema.TypeList("__Type", seeds), nil
	}
}

func querySchema(_ context.Context, _ *value.Object, _ schema.Args) (schema.Outcome, error) {
	return schema.TypeObject("__Schema", value.NewObject()), nil
}

func directiveArgs(c *schema.Catalog) schema.Resolver {
	return func(_ context.Context, root *value.Object, _ schema.Args) (schema.Outcome, error) {
		name, ok := str(root, "name")
		if !ok {
			return schema.Outcome{}, &schema.Issue{Kind: schema.InvalidResolver, Name: "__Directive", Field: "name"}
		}
		def, ok := c.Directives[name]
		if !ok {
			return schema.Outcome{}, &schema.Issue{Kind: schema.InvalidResolver, Name: "__Directive", Field: name}
		}
		seeds := make([]*value.Object, 0, len(def.Arguments))
		for _, arg := range def.Arguments {
			o := value.NewObject()
			o.Set("name", value.String(arg.Name))
			seeds = append(seeds, o)
		}
		return schema.TypeList("__InputValue", seeds), nil
	}
}

func inputValueDefault(_ context.Context, root *value.Object, _ schema.Args) (schema.Outcome, error) {
	if _, ok := str(root, "name"); !ok {
		return schema.Outcome{}, &schema.Issue{Kind: schema.InvalidResolver, Name: "__InputValue", Field: "name"}
	}
	return schema.Scalar(value.Null{}), nil
}

func inputValueType(c *schema.Catalog) schema.Resolver {
	return func(_ context.Context, root *value.Object, _ schema.Args) (schema.Outcome, error) {
		myName, mOk := str(root, "name")
		parentName, pOk := str(root, "parentTypename")
		if !mOk || !pOk {
			return schema.Outcome{}, &schema.Issue{Kind: schema.InvalidResolver, Name: "__InputValue", Field: "name"}
		}
		def, ok := c.InputTypes[parentName]
		if !ok {
			return schema.Outcome{}, &schema.Issue{Kind: schema.MissingType, Name: parentName}
		}
		for _, f := range def.Fields {
			if f.Name == myName {
				return schema.Scalar(fullInputTypeResolver(c, f.Type)), nil
			}
		}
		return schema.Outcome{}, &schema.Issue{Kind: schema.InvalidResolver, Name: parentName, Field: myName}
	}
}

