package router

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Subgraph is one service joined into the supergraph.
type Subgraph struct {
	Name string
	URL  string
}

// Supergraph is the routing view of a composed supergraph SDL: the joined
// subgraphs and which of them resolves each root field.
type Supergraph struct {
	subgraphs map[string]*Subgraph // by join__Graph enum value
	roots     map[ast.Operation]string
	owners    map[string]map[string][]string // root type -> field -> enum values
}

// ParseSupergraph reads the join__Graph enum and the join__field/join__type
// directives on root types.
func ParseSupergraph(sdl string) (*Supergraph, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: "supergraph.graphql", Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("parse supergraph: %w", err)
	}
	sg := &Supergraph{
		subgraphs: map[string]*Subgraph{},
		roots: map[ast.Operation]string{
			ast.Query:        "Query",
			ast.Mutation:     "Mutation",
			ast.Subscription: "Subscription",
		},
		owners: map[string]map[string][]string{},
	}
	for _, s := range append(doc.Schema, doc.SchemaExtension...) {
		for _, ot := range s.OperationTypes {
			sg.roots[ot.Operation] = ot.Type
		}
	}

	defs := append(append(ast.DefinitionList{}, doc.Definitions...), doc.Extensions...)
	for _, def := range defs {
		if def.Kind == ast.Enum && def.Name == "join__Graph" {
			for _, v := range def.EnumValues {
				d := v.Directives.ForName("join__graph")
				if d == nil {
					continue
				}
				sg.subgraphs[v.Name] = &Subgraph{Name: argString(d, "name", strings.ToLower(v.Name)), URL: argString(d, "url", "")}
			}
		}
	}
	if len(sg.subgraphs) == 0 {
		return nil, ErrNoSubgraph
	}

	for _, def := range defs {
		if def.Kind != ast.Object || !sg.isRoot(def.Name) {
			continue
		}
		var typeGraphs []string
		for _, d := range def.Directives.ForNames("join__type") {
			typeGraphs = append(typeGraphs, argString(d, "graph", ""))
		}
		fields := sg.owners[def.Name]
		if fields == nil {
			fields = map[string][]string{}
			sg.owners[def.Name] = fields
		}
		for _, f := range def.Fields {
			var graphs []string
			for _, d := range f.Directives.ForNames("join__field") {
				if g := argString(d, "graph", ""); g != "" {
					graphs = append(graphs, g)
				}
			}
			if len(graphs) == 0 {
				graphs = typeGraphs
			}
			fields[f.Name] = append(fields[f.Name], graphs...)
		}
	}
	return sg, nil
}

func argString(d *ast.Directive, name, fallback string) string {
	a := d.Arguments.ForName(name)
	if a == nil || a.Value == nil {
		return fallback
	}
	return a.Value.Raw
}

func (sg *Supergraph) isRoot(typeName string) bool {
	for _, t := range sg.roots {
		if t == typeName {
			return true
		}
	}
	return false
}

// Subgraphs lists the joined subgraphs sorted by name.
func (sg *Supergraph) Subgraphs() []*Subgraph {
	out := make([]*Subgraph, 0, len(sg.subgraphs))
	for _, s := range sg.subgraphs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RootType names the type an operation of kind op starts at.
func (sg *Supergraph) RootType(op ast.Operation) string { return sg.roots[op] }

// Owners lists the subgraphs able to resolve field on root type typeName.
// ok is false when the field is unknown.
func (sg *Supergraph) Owners(typeName, field string) (owners []*Subgraph, ok bool) {
	graphs, ok := sg.owners[typeName][field]
	if !ok {
		return nil, false
	}
	for _, g := range graphs {
		if s := sg.subgraphs[g]; s != nil && !slices.Contains(owners, s) {
			owners = append(owners, s)
		}
	}
	return owners, true
}

// resolveURLs applies URL overrides: SUBGRAPH_<NAME>_URL from env first, then
// the router document's override_subgraph_url.
func (sg *Supergraph) resolveURLs(overrides map[string]string, getenv func(string) string) {
	for _, s := range sg.subgraphs {
		if u := getenv("SUBGRAPH_" + strings.ToUpper(s.Name) + "_URL"); u != "" {
			s.URL = u
			continue
		}
		if u := overrides[s.Name]; u != "" {
			s.URL = u
		}
	}
}
