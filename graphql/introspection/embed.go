package introspection

import _ "embed"

// MetaSchema is the SDL for the internal introspection types (__Schema,
// __Type, __Field, __InputValue, __EnumValue, __Directive). It's merged
// into every catalog alongside the application's own schema document.
//
//go:embed meta.graphql
var MetaSchema string
