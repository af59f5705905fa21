package schema

import (
	"context"

	"github.com/dieff/clacks/graphql/value"
)

// Args is the coerced argument map passed to a resolver: field argument
// literals with variables substituted, keyed by argument name.
type Args map[string]value.Value

func (a Args) String(name string) (string, bool) {
	v, ok := a[name]
	if !ok {
		return "", false
	}
	switch v := v.(type) {
	case value.String:
		return string(v), true
	case value.Enum:
		return string(v), true
	default:
		return "", false
	}
}

func (a Args) Int(name string) (int64, bool) {
	v, ok := a[name]
	if !ok {
		return 0, false
	}
	i, ok := v.(value.Int)
	return int64(i), ok
}

// Outcome is the resolver return contract from the data model: a resolver
// produces exactly one of a scalar value, a list of scalar values, a
// single nested object (with an optional seed of already-known fields), or
// a list of nested objects (each with its own seed).
type Outcome struct {
	kind OutcomeKind

	scalar   value.Value
	list     value.List
	typeName string
	seed     *value.Object
	seeds    []*value.Object
}

// OutcomeKind discriminates the four Outcome shapes.
type OutcomeKind int

const (
	OutcomeScalar OutcomeKind = iota
	OutcomeList
	OutcomeTypeObject
	OutcomeTypeList
)

func Scalar(v value.Value) Outcome {
	return Outcome{kind: OutcomeScalar, scalar: v}
}

func ScalarList(vs value.List) Outcome {
	return Outcome{kind: OutcomeList, list: vs}
}

// TypeObject resolves to a single nested object of the given type. seed may
// be nil; any fields it already contains are not re-resolved (sparsified
// away if the selection didn't ask for them).
func TypeObject(typeName string, seed *value.Object) Outcome {
	return Outcome{kind: OutcomeTypeObject, typeName: typeName, seed: seed}
}

// TypeList resolves to a list of nested objects of the given type, one
// frame per seed.
func TypeList(typeName string, seeds []*value.Object) Outcome {
	return Outcome{kind: OutcomeTypeList, typeName: typeName, seeds: seeds}
}

func (o Outcome) Kind() OutcomeKind       { return o.kind }
func (o Outcome) ScalarValue() value.Value { return o.scalar }
func (o Outcome) ListValue() value.List    { return o.list }
func (o Outcome) TypeName() string         { return o.typeName }
func (o Outcome) Seed() *value.Object      { return o.seed }
func (o Outcome) Seeds() []*value.Object   { return o.seeds }

// Resolver computes the value of a single field. parent is the partially
// built Object for the enclosing frame (its already-resolved sibling
// fields, if a resolver needs them), and args is the field's coerced
// argument map.
type Resolver func(ctx context.Context, parent *value.Object, args Args) (Outcome, error)

// ResolverRegistry maps (type name, field name) to the resolver that
// computes that field, mirroring the data model's
// map[string]map[string]Resolver.
type ResolverRegistry map[string]map[string]Resolver

func NewResolverRegistry() ResolverRegistry {
	return ResolverRegistry{}
}

func (r ResolverRegistry) Add(typeName, field string, resolver Resolver) {
	m, ok := r[typeName]
	if !ok {
		m = map[string]Resolver{}
		r[typeName] = m
	}
	m[field] = resolver
}

func (r ResolverRegistry) Lookup(typeName, field string) (Resolver, bool) {
	m, ok := r[typeName]
	if !ok {
		return nil, false
	}
	resolver, ok := m[field]
	return resolver, ok
}
