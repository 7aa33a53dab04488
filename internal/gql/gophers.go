package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/vektah/gqlparser/v2/ast"
)

type gophersSchema struct {
	schema *graphql.Schema
	full   string

	// Set for federated schemas only.
	sdl           string
	engineService bool
}

// NewGophersSchema parses sdl and binds it to resolver using
// github.com/graph-gophers/graphql-go.
func NewGophersSchema(sdl string, resolver any, opts ...graphql.SchemaOpt) (Schema, error) {
	return newGophersSchema(sdl, resolver, opts...)
}

func newGophersSchema(sdl string, resolver any, opts ...graphql.SchemaOpt) (*gophersSchema, error) {
	s, err := graphql.ParseSchema(sdl, resolver, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return &gophersSchema{schema: s, full: sdl}, nil
}

func (g *gophersSchema) Execute(ctx context.Context, req *Request) *Response {
	if g.sdl != "" {
		if out, ok := g.executeService(req); ok {
			return out
		}
	}
	res := g.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
	out := &Response{Extensions: res.Extensions}
	if len(res.Data) > 0 {
		out.Data = res.Data
		if g.sdl != "" {
			// The engine reports the text it was parsed from.
			out.Data = bytes.ReplaceAll(out.Data, jsonString(g.full), jsonString(g.sdl))
		}
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, fromQueryError(e))
	}
	return out
}

// probeService reports whether the engine itself answers _service, which it
// does only while introspection is enabled.
func (g *gophersSchema) probeService() bool {
	res := g.schema.Exec(context.Background(), `{ _service { sdl } }`, "", nil)
	return len(res.Errors) == 0 && bytes.Contains(res.Data, []byte(`"_service"`))
}

// executeService answers queries whose root selections are _service and
// __typename only. Queries mixing _service with other fields go to the engine
// when it can answer _service.
func (g *gophersSchema) executeService(req *Request) (*Response, bool) {
	op := req.Operation()
	if op == nil || op.Operation != ast.Query {
		return nil, false
	}
	only, found := true, false
	for _, sel := range op.SelectionSet {
		f, ok := sel.(*ast.Field)
		switch {
		case ok && f.Name == "_service":
			found = true
			if len(f.Directives) > 0 {
				only = false
			}
		case ok && f.Name == "__typename" && len(f.Directives) == 0:
		default:
			only = false
		}
	}
	if !found {
		return nil, false
	}
	if !only {
		if g.engineService {
			return nil, false
		}
		return ErrorResponse("_service must be queried on its own when introspection is disabled"), true
	}
	return g.serviceResponse(op), true
}

func (g *gophersSchema) serviceResponse(op *ast.OperationDefinition) *Response {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, sel := range op.SelectionSet {
		f := sel.(*ast.Field)
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(jsonString(f.Alias))
		b.WriteByte(':')
		if f.Name == "__typename" {
			b.Write(jsonString("Query"))
			continue
		}
		if len(f.SelectionSet) == 0 {
			return ErrorResponse(`Field "_service" of type "_Service!" must have a selection of subfields.`)
		}
		b.WriteByte('{')
		for j, sub := range f.SelectionSet {
			sf, ok := sub.(*ast.Field)
			if !ok || len(sf.Directives) > 0 {
				return ErrorResponse("_service supports plain field selections only")
			}
			if j > 0 {
				b.WriteByte(',')
			}
			b.Write(jsonString(sf.Alias))
			b.WriteByte(':')
			switch sf.Name {
			case "sdl":
				b.Write(jsonString(g.sdl))
			case "__typename":
				b.Write(jsonString("_Service"))
			default:
				return ErrorResponse(fmt.Sprintf("Cannot query field %q on type %q.", sf.Name, "_Service"))
			}
		}
		b.WriteByte('}')
	}
	b.WriteByte('}')
	return &Response{Data: b.Bytes()}
}

func jsonString(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}

func fromQueryError(e *gqlerrors.QueryError) *Error {
	out := &Error{Message: e.Message, Path: e.Path, Extensions: e.Extensions}
	for _, l := range e.Locations {
		out.Locations = append(out.Locations, Location{Line: l.Line, Column: l.Column})
	}
	return out
}
