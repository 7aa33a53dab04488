package gql

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Request is a GraphQL-over-HTTP request document.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`

	doc *ast.QueryDocument
	op  *ast.OperationDefinition
}

// ParseRequest decodes body as a JSON request document and checks that the
// query text is syntactically valid GraphQL.
func ParseRequest(body []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if req.Query == "" {
		return nil, errors.New("missing 'query'")
	}
	doc, err := parser.ParseQuery(&ast.Source{Input: req.Query})
	if err != nil {
		return nil, err
	}
	req.doc = doc
	req.op = doc.Operations.ForName(req.OperationName)
	if req.op == nil && req.OperationName == "" && len(doc.Operations) == 1 {
		req.op = doc.Operations[0]
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return &req, nil
}

// Document returns the parsed query document.
func (r *Request) Document() *ast.QueryDocument { return r.doc }

// Operation returns the operation selected by OperationName, or nil when the
// selection is ambiguous or names an unknown operation.
func (r *Request) Operation() *ast.OperationDefinition { return r.op }

// OperationType is "query", "mutation" or "subscription", or empty when no
// operation could be selected.
func (r *Request) OperationType() string {
	if r.op == nil {
		return ""
	}
	return string(r.op.Operation)
}
