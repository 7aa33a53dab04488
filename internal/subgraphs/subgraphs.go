// Package subgraphs lists the GraphQL services the gateway composes.
package subgraphs

import (
	"fmt"
	"sort"
	"strings"

	gql "github.com/hanpama/lambdagraph/internal/gql"
	"github.com/hanpama/lambdagraph/internal/subgraphs/products"
	"github.com/hanpama/lambdagraph/internal/subgraphs/reviews"
	"github.com/hanpama/lambdagraph/internal/subgraphs/users"
)

// Subgraph describes one service: its name, the local port it listens on by
// default, its SDL and how to build its executable schema.
type Subgraph struct {
	Name   string
	Port   int
	SDL    string
	Schema func() (gql.Schema, error)
}

var registry = map[string]Subgraph{
	users.Name:    {Name: users.Name, Port: users.DefaultPort, SDL: users.SDL, Schema: users.Schema},
	products.Name: {Name: products.Name, Port: products.DefaultPort, SDL: products.SDL, Schema: products.Schema},
	reviews.Name:  {Name: reviews.Name, Port: reviews.DefaultPort, SDL: reviews.SDL, Schema: reviews.Schema},
}

// Names lists the known subgraphs in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the subgraph called name.
func Lookup(name string) (Subgraph, error) {
	s, ok := registry[name]
	if !ok {
		return Subgraph{}, fmt.Errorf("unknown subgraph %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return s, nil
}
