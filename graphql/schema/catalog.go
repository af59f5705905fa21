package schema

import (
	"github.com/vektah/gqlparser/v2/ast"
)

// Catalog is the four name-to-definition maps described in the data model,
// plus the resolver registry. It is built once from a parsed SDL document
// (the "external parser" artifact); its type definitions do not change after
// New returns, while resolvers are added afterwards through AddResolvers.
type Catalog struct {
	Objects    map[string]*ObjectType
	Enums      map[string]*EnumType
	Directives map[string]*DirectiveDefinition
	InputTypes map[string]*InputObjectType
	Resolvers  ResolverRegistry
}

// IssueKind enumerates the schema-build failure modes from the data model.
type IssueKind int

const (
	UnknownScalar IssueKind = iota
	DuplicateDefinition
	MissingType
	MissingResolver
	InvalidResolver
)

type Issue struct {
	Kind   IssueKind
	Name   string
	Field  string
	detail string
}

func (i *Issue) Error() string {
	if i.detail != "" {
		return i.detail
	}
	switch i.Kind {
	case UnknownScalar:
		return "unknown scalar: " + i.Name
	case DuplicateDefinition:
		return "duplicate type definition: " + i.Name
	case MissingType:
		return "missing type: " + i.Name
	case MissingResolver:
		return "missing resolver for " + i.Name + "." + i.Field
	case InvalidResolver:
		return "resolver registered for unknown type or field: " + i.Name + "." + i.Field
	default:
		return "schema issue"
	}
}

func newTypeRef(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NamedType != "" {
		return &TypeRef{NamedType: t.NamedType, NonNull: t.NonNull}
	}
	return &TypeRef{Elem: newTypeRef(t.Elem), NonNull: t.NonNull}
}

func newArguments(defs ast.ArgumentDefinitionList) []*ArgumentDefinition {
	out := make([]*ArgumentDefinition, 0, len(defs))
	for _, d := range defs {
		arg := &ArgumentDefinition{
			Name: d.Name,
			Type: newTypeRef(d.Type),
		}
		if d.DefaultValue != nil {
			arg.HasDefault = true
			arg.DefaultValue = LiteralToValue(d.DefaultValue, nil)
		}
		out = append(out, arg)
	}
	return out
}

func newFields(defs ast.FieldList) []*FieldDefinition {
	out := make([]*FieldDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, &FieldDefinition{
			Name:        d.Name,
			Description: d.Description,
			Arguments:   newArguments(d.Arguments),
			Type:        newTypeRef(d.Type),
		})
	}
	return out
}

// New builds a Catalog from a parsed SDL document. It requires a "Query"
// object type to be present: every schema must expose a query root.
func New(doc *ast.SchemaDocument) (*Catalog, error) {
	c := &Catalog{
		Objects:    map[string]*ObjectType{},
		Enums:      map[string]*EnumType{},
		Directives: map[string]*DirectiveDefinition{},
		InputTypes: map[string]*InputObjectType{},
		Resolvers:  NewResolverRegistry(),
	}

	for _, def := range doc.Definitions {
		switch def.Kind {
		case ast.Object:
			if _, dup := c.Objects[def.Name]; dup {
				return nil, &Issue{Kind: DuplicateDefinition, Name: def.Name}
			}
			c.Objects[def.Name] = &ObjectType{
				Name:        def.Name,
				Description: def.Description,
				Fields:      newFields(def.Fields),
			}
		case ast.Enum:
			values := make([]*EnumValue, 0, len(def.EnumValues))
			for _, v := range def.EnumValues {
				values = append(values, &EnumValue{Name: v.Name, Description: v.Description})
			}
			if _, dup := c.Enums[def.Name]; dup {
				return nil, &Issue{Kind: DuplicateDefinition, Name: def.Name}
			}
			c.Enums[def.Name] = &EnumType{Name: def.Name, Description: def.Description, Values: values}
		case ast.InputObject:
			if _, dup := c.InputTypes[def.Name]; dup {
				return nil, &Issue{Kind: DuplicateDefinition, Name: def.Name}
			}
			c.InputTypes[def.Name] = &InputObjectType{
				Name:        def.Name,
				Description: def.Description,
				Fields:      newFields(def.Fields),
			}
		default:
			// Scalars, interfaces, and unions beyond the built-ins are
			// accepted but carry no catalog entry of their own; the core
			// only needs enough of the type system to drive resolution
			// and introspection.
		}
	}

	for _, d := range doc.Directives {
		if _, dup := c.Directives[d.Name]; dup {
			return nil, &Issue{Kind: DuplicateDefinition, Name: d.Name}
		}
		locations := make([]string, 0, len(d.Locations))
		for _, l := range d.Locations {
			locations = append(locations, string(l))
		}
		c.Directives[d.Name] = &DirectiveDefinition{
			Name:        d.Name,
			Description: d.Description,
			Arguments:   newArguments(d.Arguments),
			Locations:   locations,
		}
	}

	if _, ok := c.Objects["Query"]; !ok {
		return nil, &Issue{Kind: MissingType, Name: "Query"}
	}

	return c, nil
}

// AddResolvers registers application resolvers, validating that each names
// an object type and field that actually exists in the catalog.
func (c *Catalog) AddResolvers(resolvers map[string]map[string]Resolver) error {
	for typeName, fields := range resolvers {
		obj, ok := c.Objects[typeName]
		if !ok {
			for field := range fields {
				return &Issue{Kind: InvalidResolver, Name: typeName, Field: field}
			}
			continue
		}
		for field, resolver := range fields {
			if obj.Field(field) == nil {
				return &Issue{Kind: InvalidResolver, Name: typeName, Field: field}
			}
			c.Resolvers.Add(typeName, field, resolver)
		}
	}
	return nil
}
