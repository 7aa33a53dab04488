// Package gql defines the GraphQL values that cross the front doors and the
// capability every executable schema offers.
//
// A Request is parsed once from an invocation payload by ParseRequest. The
// query text is checked for syntax only; validation and execution belong to
// the Schema implementation. NewGophersSchema wraps a
// github.com/graph-gophers/graphql-go schema as a Schema, and
// EnableFederation is the one-time build step that adds the entity-resolution
// fields a federation router needs.
package gql
