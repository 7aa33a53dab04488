package adapter

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	eventbus "github.com/hanpama/lambdagraph/internal/eventbus"
	lgevents "github.com/hanpama/lambdagraph/internal/events"
	reqid "github.com/hanpama/lambdagraph/internal/reqid"
)

// Lambda is the serverless front door. Each API Gateway HTTP API event is one
// invocation; nothing is kept between events.
type Lambda struct {
	handler Handler
	opt     Options
	start   func(handler any, opts ...lambda.Option)
}

// NewLambda creates a serverless front door for h.
func NewLambda(h Handler, opts ...Option) *Lambda {
	return &Lambda{handler: h, opt: newOptions(opts), start: lambda.StartWithOptions}
}

// Serve hands Handle to the Lambda runtime. The runtime owns the process from
// here on and only returns by exiting.
func (l *Lambda) Serve(ctx context.Context) error {
	l.start(l.Handle, lambda.WithContext(ctx))
	return nil
}

// Handle serves one event. Failures are reported in the reply, never as an
// invocation error, so API Gateway always receives a GraphQL document.
func (l *Lambda) Handle(ctx context.Context, ev events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	id := ev.RequestContext.RequestID
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		id = lc.AwsRequestID
	}
	ctx, id = reqid.NewContext(ctx, id)

	start := time.Now()
	body, err := eventBody(ev)
	eventbus.Publish(ctx, lgevents.InvocationStart{RequestID: id, Size: len(body)})

	var reply Reply
	if err == nil {
		reply, err = l.handler.ServeInvocation(ctx, Invocation{RequestID: id, Body: body})
	}
	if err != nil {
		l.opt.Logger.Error("invocation failed", "request_id", id, "error", err)
		reply = ErrorReply(err)
	}
	eventbus.Publish(ctx, lgevents.InvocationFinish{RequestID: id, Status: reply.Status, Err: err, Duration: time.Since(start)})

	return events.APIGatewayV2HTTPResponse{
		StatusCode: reply.Status,
		Headers:    map[string]string{"content-type": ContentTypeJSON},
		Body:       string(reply.Body),
	}, nil
}

func eventBody(ev events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !ev.IsBase64Encoded {
		return []byte(ev.Body), nil
	}
	b, err := base64.StdEncoding.DecodeString(ev.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 body: %v", ErrDecode, err)
	}
	return b, nil
}
