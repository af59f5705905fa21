// Package executor implements the iterative, explicit-stack execution
// engine: given a catalog of resolvers and a lowered field tree, it walks
// the tree frame by frame, pushing a child frame onto the stack instead of
// recursing whenever a resolver yields a nested object or list of objects.
//
// This engine intentionally does not match full GraphQL-spec conformance:
// there is no concurrent resolution, no partial-data-on-error null
// bubbling, and one resolver error fails the whole request. That tradeoff
// is deliberate; see the design notes for why.
package executor

import (
	"context"

	"github.com/dieff/clacks/graphql/prepare"
	"github.com/dieff/clacks/graphql/schema"
	"github.com/dieff/clacks/graphql/value"
)

// frame is one level of in-progress object resolution.
type frame struct {
	typeName string
	fields   []*prepare.PreparedField
	progress int
	data     *value.Object

	// mapKey is the response key this frame's finished object gets
	// inserted under once it completes. listParentIndex, when >= 0, names
	// the stack position of the frame whose list at mapKey this frame's
	// result should be appended to instead of being set directly.
	mapKey          string
	listParentIndex int
}

func newFrame(typeName, mapKey string, fields []*prepare.PreparedField, seed *value.Object) *frame {
	if seed == nil {
		seed = value.NewObject()
	}
	return &frame{typeName: typeName, mapKey: mapKey, fields: fields, data: seed, listParentIndex: -1}
}

// Run walks a single top-level operation's field tree to completion,
// returning the sparsified, response-ready object. root may be nil.
func Run(ctx context.Context, catalog *schema.Catalog, typeName string, fields []*prepare.PreparedField, root *value.Object) (*value.Object, error) {
	stack := []*frame{newFrame(typeName, "", fields, root)}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		pushedChild := false
		for cur.progress < len(cur.fields) {
			field := cur.fields[cur.progress]
			cur.progress++
			key := field.ResponseKey()

			if cur.data.Has(key) {
				continue
			}

			outcome, err := resolve(ctx, catalog, cur.typeName, cur.data, field)
			if err != nil {
				return nil, err
			}

			switch outcome.Kind() {
			case schema.OutcomeScalar:
				cur.data.Set(key, outcome.ScalarValue())
			case schema.OutcomeList:
				cur.data.Set(key, outcome.ListValue())
			case schema.OutcomeTypeObject:
				child := newFrame(outcome.TypeName(), key, field.Children, outcome.Seed())
				stack = append(stack, cur, child)
				pushedChild = true
			case schema.OutcomeTypeList:
				parentIndex := len(stack)
				cur.data.Set(key, value.List{})
				stack = append(stack, cur)
				seeds := outcome.Seeds()
				for i := len(seeds) - 1; i >= 0; i-- {
					child := newFrame(outcome.TypeName(), key, field.Children, seeds[i])
					child.listParentIndex = parentIndex
					stack = append(stack, child)
				}
				pushedChild = true
			}

			if pushedChild {
				break
			}
		}
		if pushedChild {
			continue
		}

		sparse := sparsify(cur)

		if len(stack) == 0 {
			return sparse, nil
		}

		if cur.listParentIndex >= 0 {
			owner := stack[cur.listParentIndex]
			existing, _ := owner.data.Get(cur.mapKey)
			list, _ := existing.(value.List)
			owner.data.Set(cur.mapKey, append(list, sparse))
		} else {
			parent := stack[len(stack)-1]
			parent.data.Set(cur.mapKey, sparse)
		}
	}

	return value.NewObject(), nil
}

// sparsify drops any key from a completed frame's data that wasn't
// actually requested by its field list -- resolvers may seed helper keys
// (e.g. introspection's parentTypename) into the frame's data purely to
// pass context to nested resolvers, and those must not leak into the
// response.
func sparsify(f *frame) *value.Object {
	out := value.NewObject()
	for _, field := range f.fields {
		key := field.ResponseKey()
		if v, ok := f.data.Get(key); ok {
			out.Set(key, v)
		} else {
			out.Set(key, value.Null{})
		}
	}
	return out
}

func resolve(ctx context.Context, catalog *schema.Catalog, typeName string, data *value.Object, field *prepare.PreparedField) (schema.Outcome, error) {
	switch field.Name {
	case "__type":
		seed := value.NewObject()
		seed.Set("name", value.String(typeName))
		seed.Set("kind", value.Enum("OBJECT"))
		return schema.TypeObject("__Type", seed), nil
	case "__typename":
		return schema.Scalar(value.String(typeName)), nil
	}

	resolver, ok := catalog.Resolvers.Lookup(typeName, field.Name)
	if !ok {
		return schema.Outcome{}, &schema.Issue{Kind: schema.MissingResolver, Name: typeName, Field: field.Name}
	}
	return resolver(ctx, data, field.Arguments)
}
