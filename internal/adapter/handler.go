package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	eventbus "github.com/hanpama/lambdagraph/internal/eventbus"
	events "github.com/hanpama/lambdagraph/internal/events"
	gql "github.com/hanpama/lambdagraph/internal/gql"
	"github.com/hanpama/lambdagraph/internal/logging"
)

// ContentTypeJSON is declared on every reply.
const ContentTypeJSON = "application/json"

// Invocation is one inbound call: the raw request payload and the id assigned
// to it by the front door.
type Invocation struct {
	RequestID string
	Body      []byte
}

// Reply is what a Handler produces for an Invocation.
type Reply struct {
	Status      int
	ContentType string
	Body        []byte
}

// Handler serves invocations. Implementations must be safe for concurrent use.
type Handler interface {
	ServeInvocation(ctx context.Context, inv Invocation) (Reply, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, inv Invocation) (Reply, error)

func (f HandlerFunc) ServeInvocation(ctx context.Context, inv Invocation) (Reply, error) {
	return f(ctx, inv)
}

// ServeOnce executes one invocation against schema. The payload must be UTF-8
// text holding a JSON GraphQL request document.
func ServeOnce(ctx context.Context, schema gql.Schema, inv Invocation, logger *slog.Logger) (Reply, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if !utf8.Valid(inv.Body) {
		return Reply{}, ErrDecode
	}
	payload := string(inv.Body)
	logger.Info("JSON Payload received", "request_id", inv.RequestID, "payload", payload)

	req, err := gql.ParseRequest(inv.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: req.OperationType()})
	res := schema.Execute(ctx, req)
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: req.OperationType(),
		ErrorCount:    len(res.Errors),
		Duration:      time.Since(start),
	})

	out, err := res.Marshal()
	if err != nil {
		return Reply{}, fmt.Errorf("encode response: %w", err)
	}
	logger.Info("Schema responded", "request_id", inv.RequestID, "payload", string(out))
	return Reply{Status: 200, ContentType: ContentTypeJSON, Body: out}, nil
}

type schemaHandler struct {
	schema gql.Schema
	logger *slog.Logger
}

// SchemaHandler serves invocations by executing them against schema.
func SchemaHandler(schema gql.Schema, opts ...Option) Handler {
	o := newOptions(opts)
	return &schemaHandler{schema: schema, logger: o.Logger}
}

func (h *schemaHandler) ServeInvocation(ctx context.Context, inv Invocation) (Reply, error) {
	return ServeOnce(ctx, h.schema, inv, h.logger)
}
