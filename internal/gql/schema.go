package gql

import "context"

// Schema is anything that can execute a GraphQL request. Implementations must
// be safe for concurrent use; Execute always returns a response, reporting
// failures in Response.Errors.
type Schema interface {
	Execute(ctx context.Context, req *Request) *Response
}

// SchemaFunc adapts a function to Schema.
type SchemaFunc func(ctx context.Context, req *Request) *Response

func (f SchemaFunc) Execute(ctx context.Context, req *Request) *Response { return f(ctx, req) }
