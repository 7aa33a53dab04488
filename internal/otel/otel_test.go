package otel

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	eventbus "github.com/hanpama/lambdagraph/internal/eventbus"
	events "github.com/hanpama/lambdagraph/internal/events"
	reqid "github.com/hanpama/lambdagraph/internal/reqid"
)

func newRecorder(t *testing.T) (*eventbus.Bus, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	b := eventbus.New()
	off := Register(b, tp.Tracer("test"))
	t.Cleanup(off)
	return b, rec
}

func names(spans []sdktrace.ReadOnlySpan) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Name()
	}
	return out
}

func TestInvocationSpans(t *testing.T) {
	b, rec := newRecorder(t)
	ctx, id := reqid.NewContext(context.Background(), "req-1")

	eventbus.Emit(b, ctx, events.InvocationStart{RequestID: id, Size: 10})
	eventbus.Emit(b, ctx, events.GraphQLStart{OperationType: "query"})
	eventbus.Emit(b, ctx, events.GraphQLFinish{OperationType: "query", ErrorCount: 1})
	eventbus.Emit(b, ctx, events.ProxyFinish{Target: "http://127.0.0.1:4000/", Attempts: 3, Waited: 20 * time.Millisecond, Status: 200, Duration: 25 * time.Millisecond})
	eventbus.Emit(b, ctx, events.InvocationFinish{RequestID: id, Status: 200})

	spans := rec.Ended()
	require.Equal(t, []string{"graphql.operation", "proxy.forward", "lambda.invocation"}, names(spans))
	root := spans[2]
	require.Equal(t, root.SpanContext().SpanID(), spans[0].Parent().SpanID())
	require.Equal(t, root.SpanContext().SpanID(), spans[1].Parent().SpanID())
}

func TestHTTPSpans(t *testing.T) {
	b, rec := newRecorder(t)
	ctx, _ := reqid.NewContext(context.Background(), "")
	r := httptest.NewRequest("POST", "/", nil)

	eventbus.Emit(b, ctx, events.HTTPStart{Request: r})
	eventbus.Emit(b, ctx, events.HTTPFinish{Request: r, Status: 404})

	spans := rec.Ended()
	require.Equal(t, []string{"http.request"}, names(spans))
}

func TestRouterSpan(t *testing.T) {
	b, rec := newRecorder(t)
	eventbus.Emit(b, context.Background(), events.RouterStart{Path: "/opt/router", PID: 7})
	require.Empty(t, rec.Ended())
	eventbus.Emit(b, context.Background(), events.RouterExit{Path: "/opt/router", PID: 7, Err: errors.New("exit status 1")})

	spans := rec.Ended()
	require.Equal(t, []string{"router.run"}, names(spans))
	require.Len(t, spans[0].Events(), 1)
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup("", "svc")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
