package adapter

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/require"

	reqid "github.com/hanpama/lambdagraph/internal/reqid"
)

func TestLambdaHandle(t *testing.T) {
	l := NewLambda(SchemaHandler(newCalcSchema(t)))
	ev := events.APIGatewayV2HTTPRequest{Body: `{"query":"{ add(a: 1, b: 2) }"}`}
	resp, err := l.Handle(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Headers["content-type"])
	require.JSONEq(t, `{"data":{"add":3}}`, resp.Body)
}

func TestLambdaBase64Body(t *testing.T) {
	l := NewLambda(SchemaHandler(newCalcSchema(t)))
	ev := events.APIGatewayV2HTTPRequest{
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"query":"{ add(a: 5, b: 5) }"}`)),
		IsBase64Encoded: true,
	}
	resp, err := l.Handle(context.Background(), ev)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"add":10}}`, resp.Body)
}

func TestLambdaDecodeFailureIs400(t *testing.T) {
	s := &countingSchema{}
	l := NewLambda(SchemaHandler(s))
	ev := events.APIGatewayV2HTTPRequest{Body: "%%%", IsBase64Encoded: true}
	resp, err := l.Handle(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "application/json", resp.Headers["content-type"])
	require.Zero(t, s.calls)
}

func TestLambdaRequestID(t *testing.T) {
	var seen []string
	h := HandlerFunc(func(ctx context.Context, inv Invocation) (Reply, error) {
		id, _ := reqid.FromContext(ctx)
		seen = append(seen, inv.RequestID, id)
		return Reply{Status: http.StatusOK, ContentType: ContentTypeJSON, Body: []byte(`{"data":null}`)}, nil
	})
	l := NewLambda(h)

	ev := events.APIGatewayV2HTTPRequest{Body: `{}`}
	ev.RequestContext.RequestID = "gw-1"
	_, err := l.Handle(context.Background(), ev)
	require.NoError(t, err)

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "aws-1"})
	_, err = l.Handle(ctx, ev)
	require.NoError(t, err)

	require.Equal(t, []string{"gw-1", "gw-1", "aws-1", "aws-1"}, seen)
}

func TestLambdaServeStartsRuntime(t *testing.T) {
	l := NewLambda(SchemaHandler(newCalcSchema(t)))
	var got any
	l.start = func(handler any, opts ...lambda.Option) { got = handler }
	require.NoError(t, l.Serve(context.Background()))
	require.NotNil(t, got)
}
