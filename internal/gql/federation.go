package gql

import (
	"encoding/json"
	"fmt"
	"strings"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Federation directive definitions appended when a subgraph uses them without
// declaring them. The engine rejects undeclared directives.
var federationDirectives = []struct{ name, def string }{
	{"key", `directive @key(fields: String!) repeatable on OBJECT | INTERFACE`},
	{"extends", `directive @extends on OBJECT | INTERFACE`},
	{"external", `directive @external on OBJECT | FIELD_DEFINITION`},
	{"requires", `directive @requires(fields: String!) on FIELD_DEFINITION`},
	{"provides", `directive @provides(fields: String!) on FIELD_DEFINITION`},
	{"shareable", `directive @shareable repeatable on OBJECT | FIELD_DEFINITION`},
}

// EnableFederation extends a subgraph SDL with what the engine needs to
// resolve entities: undeclared federation directives, and _Any, the _Entity
// union and _entities(representations:) when at least one object type carries
// @key. _service is not added; the engine reserves it and NewFederatedSchema
// answers it with the unmodified sdl.
func EnableFederation(sdl string) (string, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: "subgraph", Input: sdl})
	if err != nil {
		return "", fmt.Errorf("parse subgraph SDL: %w", err)
	}
	if doc.Definitions.ForName("Query") == nil {
		return "", fmt.Errorf("subgraph SDL has no Query type")
	}

	declared := map[string]bool{}
	for _, d := range doc.Directives {
		declared[d.Name] = true
	}
	used := map[string]bool{}
	var entities []string
	seen := map[string]bool{}
	scan := func(defs ast.DefinitionList) {
		for _, def := range defs {
			for _, d := range def.Directives {
				used[d.Name] = true
				if d.Name == "key" && def.Kind == ast.Object && !seen[def.Name] {
					seen[def.Name] = true
					entities = append(entities, def.Name)
				}
			}
			for _, f := range def.Fields {
				for _, d := range f.Directives {
					used[d.Name] = true
				}
			}
		}
	}
	scan(doc.Definitions)
	scan(doc.Extensions)

	var b strings.Builder
	b.WriteString(strings.TrimRight(sdl, "\n"))
	b.WriteString("\n\n")
	for _, fd := range federationDirectives {
		if used[fd.name] && !declared[fd.name] {
			b.WriteString(fd.def)
			b.WriteString("\n")
		}
	}
	if len(entities) > 0 {
		b.WriteString("\nscalar _Any\n")
		fmt.Fprintf(&b, "\nunion _Entity = %s\n", strings.Join(entities, " | "))
		b.WriteString("\nextend type Query {\n  _entities(representations: [_Any!]!): [_Entity]!\n}\n")
	}
	return b.String(), nil
}

// Any is an entity representation passed to _entities.
type Any struct {
	TypeName string
	Fields   map[string]any
}

func (Any) ImplementsGraphQLType(name string) bool { return name == "_Any" }

func (a *Any) UnmarshalGraphQL(input any) error {
	switch v := input.(type) {
	case map[string]any:
		return a.fromMap(v)
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return fmt.Errorf("invalid _Any: %w", err)
		}
		return a.fromMap(m)
	default:
		return fmt.Errorf("invalid _Any: want object, got %T", input)
	}
}

func (a *Any) fromMap(m map[string]any) error {
	name, _ := m["__typename"].(string)
	if name == "" {
		return fmt.Errorf("invalid _Any: missing __typename")
	}
	a.TypeName = name
	a.Fields = make(map[string]any, len(m))
	for k, v := range m {
		if k != "__typename" {
			a.Fields[k] = v
		}
	}
	return nil
}

// Key returns the representation field name as a string.
func (a Any) Key(name string) (string, bool) {
	v, ok := a.Fields[name]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// NewFederatedSchema applies EnableFederation to sdl and binds the result to
// resolver, which must resolve Entities(representations) when sdl declares
// entities. _service { sdl } reports sdl as given, with or without
// introspection.
func NewFederatedSchema(sdl string, resolver any, opts ...graphql.SchemaOpt) (Schema, error) {
	full, err := EnableFederation(sdl)
	if err != nil {
		return nil, err
	}
	g, err := newGophersSchema(full, resolver, opts...)
	if err != nil {
		return nil, err
	}
	g.sdl = sdl
	g.engineService = g.probeService()
	return g, nil
}
