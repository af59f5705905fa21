// Package graphql is the public entry point: it parses an application's
// SDL into a schema.Catalog, merges in the introspection meta-schema, and
// prepares/executes requests against it.
package graphql

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/dieff/clacks/graphql/executor"
	"github.com/dieff/clacks/graphql/introspection"
	"github.com/dieff/clacks/graphql/prepare"
	"github.com/dieff/clacks/graphql/schema"
	"github.com/dieff/clacks/graphql/value"
)

// NewSchema parses an application's SDL, merges it with the internal
// introspection meta-schema, builds a Catalog, registers the application's
// resolvers, and wires in the introspection resolvers.
func NewSchema(sdl string, resolvers map[string]map[string]schema.Resolver) (*schema.Catalog, error) {
	sources := []*ast.Source{
		{Name: "meta.graphql", Input: introspection.MetaSchema},
		{Name: "schema.graphql", Input: sdl},
	}
	doc, gqlErr := parser.ParseSchemas(sources...)
	if gqlErr != nil {
		return nil, errors.Wrap(gqlErr, "parsing schema")
	}

	catalog, err := schema.New(doc)
	if err != nil {
		return nil, errors.Wrap(err, "building catalog")
	}

	if err := catalog.AddResolvers(resolvers); err != nil {
		return nil, errors.Wrap(err, "registering resolvers")
	}

	if err := introspection.Register(catalog); err != nil {
		return nil, errors.Wrap(err, "registering introspection resolvers")
	}

	return catalog, nil
}

// Request is a single GraphQL request: a query document, optional operation
// name, and variable values as decoded JSON. When OperationName is set, the
// first operation with that name is the one run; when it is empty, every
// operation in the document (all of one kind) is merged and run together in
// document order.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]interface{}
	InitialValue  *value.Object
}

// Prepared is a request that has been parsed, had its variables coerced,
// and had its single selected operation lowered against a Catalog. It's
// ready to Execute, possibly more than once (e.g. a subscription
// re-executed for each event).
type Prepared struct {
	Catalog   *schema.Catalog
	Operation *prepare.Operation
	Root      *value.Object
}

// IsSubscription reports whether the prepared request is a subscription,
// which callers (graphqlws) dispatch differently from queries and
// mutations.
func (p *Prepared) IsSubscription() bool {
	return p.Operation.Kind == ast.Subscription
}

// Prepare parses req.Query, selects the operation named by
// req.OperationName (or merges every same-kind operation, if no name was
// given), coerces variables, and lowers the operation's selection against
// catalog.
func Prepare(catalog *schema.Catalog, req *Request) (*Prepared, error) {
	raw, gqlErr := parser.ParseQuery(&ast.Source{Name: "query", Input: req.Query})
	if gqlErr != nil {
		return nil, errors.Wrap(gqlErr, "parsing query")
	}

	doc := prepare.New(raw)
	if err := doc.CoerceVariables(req.Variables); err != nil {
		return nil, err
	}

	ops, err := doc.Operations(catalog)
	if err != nil {
		return nil, err
	}

	op, err := selectOperation(ops, req.OperationName)
	if err != nil {
		return nil, err
	}

	return &Prepared{Catalog: catalog, Operation: op, Root: req.InitialValue}, nil
}

// selectOperation picks the operation(s) a request targets. If name is
// given, it selects that single named operation. Otherwise every
// same-kind operation in ops runs: their top-level fields are
// concatenated in document order and resolved into one result.
func selectOperation(ops []*prepare.Operation, name string) (*prepare.Operation, error) {
	if name != "" {
		for _, op := range ops {
			if op.Name == name {
				return op, nil
			}
		}
		return nil, &prepare.Err{Kind: prepare.Field, Subject: name, Message: "no operation named " + name}
	}
	if len(ops) == 1 {
		return ops[0], nil
	}
	merged := &prepare.Operation{Kind: ops[0].Kind}
	for _, op := range ops {
		merged.Fields = append(merged.Fields, op.Fields...)
	}
	return merged, nil
}

// rootTypeName maps an operation kind to its root object type name.
func rootTypeName(kind ast.Operation) string {
	switch kind {
	case ast.Mutation:
		return "Mutation"
	case ast.Subscription:
		return "Subscription"
	default:
		return "Query"
	}
}

// Execute runs a prepared operation to completion and returns its
// sparsified, response-ready result object. A single resolver error fails
// the whole request: there is no partial-data-on-error null bubbling, by
// design.
func Execute(ctx context.Context, p *Prepared) (*value.Object, error) {
	return executor.Run(ctx, p.Catalog, rootTypeName(p.Operation.Kind), p.Operation.Fields, p.Root)
}

// MarshalResponse encodes a completed result object (or nil, on error) into
// the standard {"data": ...} / {"errors": [...]} response envelope.
func MarshalResponse(data *value.Object, err error) ([]byte, error) {
	if err != nil {
		return json.Marshal(map[string]interface{}{
			"errors": []map[string]string{{"message": err.Error()}},
		})
	}
	raw, marshalErr := value.ToJSON(data)
	if marshalErr != nil {
		return nil, marshalErr
	}
	return json.Marshal(map[string]json.RawMessage{"data": raw})
}
