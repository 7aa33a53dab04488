package router

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
)

const testSupergraph = `
schema
  @link(url: "https://specs.apollo.dev/link/v1.0")
  @link(url: "https://specs.apollo.dev/join/v0.3", for: EXECUTION)
{
  query: Query
}

directive @join__field(graph: join__Graph, requires: join__FieldSet, provides: join__FieldSet, type: String, external: Boolean, override: String, usedOverridden: Boolean) repeatable on FIELD_DEFINITION | INPUT_FIELD_DEFINITION
directive @join__graph(name: String!, url: String!) on ENUM_VALUE
directive @join__type(graph: join__Graph!, key: join__FieldSet, extension: Boolean! = false, resolvable: Boolean! = true, isInterfaceObject: Boolean! = false) repeatable on OBJECT | INTERFACE | UNION | ENUM | INPUT_OBJECT | SCALAR
directive @link(url: String, as: String, for: link__Purpose, import: [link__Import]) repeatable on SCHEMA

scalar join__FieldSet
scalar link__Import

enum link__Purpose {
  SECURITY
  EXECUTION
}

enum join__Graph {
  PRODUCTS @join__graph(name: "products", url: "%s")
  USERS @join__graph(name: "users", url: "%s")
}

type Product
  @join__type(graph: PRODUCTS, key: "id")
{
  id: ID!
  name: String!
}

type Query
  @join__type(graph: PRODUCTS)
  @join__type(graph: USERS)
{
  me: User! @join__field(graph: USERS)
  products: [Product!]! @join__field(graph: PRODUCTS)
}

type User
  @join__type(graph: USERS, key: "id")
{
  id: ID!
  name: String!
}
`

func supergraphSDL(productsURL, usersURL string) string {
	return fmt.Sprintf(testSupergraph, productsURL, usersURL)
}

func TestParseSupergraph(t *testing.T) {
	sg, err := ParseSupergraph(supergraphSDL("http://127.0.0.1:3075", "http://127.0.0.1:3065"))
	require.NoError(t, err)

	subs := sg.Subgraphs()
	require.Len(t, subs, 2)
	require.Equal(t, Subgraph{Name: "products", URL: "http://127.0.0.1:3075"}, *subs[0])
	require.Equal(t, Subgraph{Name: "users", URL: "http://127.0.0.1:3065"}, *subs[1])

	require.Equal(t, "Query", sg.RootType(ast.Query))
	owners, ok := sg.Owners("Query", "me")
	require.True(t, ok)
	require.Len(t, owners, 1)
	require.Equal(t, "users", owners[0].Name)

	_, ok = sg.Owners("Query", "nope")
	require.False(t, ok)
}

func TestParseSupergraphWithoutSubgraphs(t *testing.T) {
	_, err := ParseSupergraph(`type Query { a: Int }`)
	require.ErrorIs(t, err, ErrNoSubgraph)
}

func TestResolveURLs(t *testing.T) {
	sg, err := ParseSupergraph(supergraphSDL("http://products", "http://users"))
	require.NoError(t, err)
	sg.resolveURLs(
		map[string]string{"products": "http://override-products", "users": "http://override-users"},
		mapEnv(map[string]string{"SUBGRAPH_USERS_URL": "http://env-users"}),
	)
	subs := sg.Subgraphs()
	require.Equal(t, "http://override-products", subs[0].URL)
	require.Equal(t, "http://env-users", subs[1].URL)
}

func TestParseDocument(t *testing.T) {
	d, err := ParseDocument([]byte(`
supergraph:
  listen: "127.0.0.1:4000"
  introspection: true
override_subgraph_url:
  users: http://127.0.0.1:9999
telemetry:
  anything: goes
`))
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:4000", d.Supergraph.Listen)
	require.True(t, d.Supergraph.Introspection)
	require.Equal(t, map[string]string{"users": "http://127.0.0.1:9999"}, d.OverrideSubgraphURL)

	_, err = ParseDocument([]byte("supergraph: [unclosed"))
	require.Error(t, err)
}
