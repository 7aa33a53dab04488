// Package otel turns lifecycle events into OpenTelemetry spans exported over
// OTLP/gRPC.
package otel

import (
	"context"
	"fmt"
	"sync"
	"time"

	eventbus "github.com/hanpama/lambdagraph/internal/eventbus"
	events "github.com/hanpama/lambdagraph/internal/events"
	reqid "github.com/hanpama/lambdagraph/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const tracerName = "lambdagraph"

// Setup configures OpenTelemetry and attaches eventbus subscribers, creating
// the global bus if none is installed. If endpoint is empty, no telemetry is
// configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	bus := eventbus.Current()
	if bus == nil {
		bus = eventbus.New()
		eventbus.Use(bus)
	}
	unsubscribe := Register(bus, tp.Tracer(tracerName))

	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

type subscriber struct {
	tracer      trace.Tracer
	invocations sync.Map // rid -> trace.Span
	httpSpans   sync.Map // rid -> trace.Span
	gqlSpans    sync.Map // rid -> trace.Span
	routers     sync.Map // routerKey -> trace.Span
}

type routerKey struct {
	path string
	pid  int
}

// Register subscribes span producers for every lifecycle event to b and
// returns a function removing them.
func Register(b *eventbus.Bus, tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	offs := []func(){
		eventbus.On(b, s.invocationStart),
		eventbus.On(b, s.invocationFinish),
		eventbus.On(b, s.httpStart),
		eventbus.On(b, s.httpFinish),
		eventbus.On(b, s.graphqlStart),
		eventbus.On(b, s.graphqlFinish),
		eventbus.On(b, s.proxyFinish),
		eventbus.On(b, s.routerStart),
		eventbus.On(b, s.routerExit),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// parent returns ctx carrying the innermost open span of the request.
func (s *subscriber) parent(ctx context.Context, maps ...*sync.Map) context.Context {
	rid, _ := reqid.FromContext(ctx)
	for _, m := range maps {
		if v, ok := m.Load(rid); ok {
			return trace.ContextWithSpan(ctx, v.(trace.Span))
		}
	}
	return ctx
}

func end(m *sync.Map, key any, f func(trace.Span)) {
	v, ok := m.LoadAndDelete(key)
	if !ok {
		return
	}
	span := v.(trace.Span)
	f(span)
	span.End()
}

func (s *subscriber) invocationStart(ctx context.Context, e events.InvocationStart) {
	_, span := s.tracer.Start(ctx, "lambda.invocation", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		semconv.FaaSTriggerHTTP,
		semconv.FaaSExecutionKey.String(e.RequestID),
		attribute.Int("lambdagraph.payload_bytes", e.Size),
	)
	s.invocations.Store(e.RequestID, span)
}

func (s *subscriber) invocationFinish(ctx context.Context, e events.InvocationFinish) {
	end(&s.invocations, e.RequestID, func(span trace.Span) {
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
		if e.Err != nil {
			span.RecordError(e.Err)
			span.SetStatus(codes.Error, e.Err.Error())
		}
	})
}

func (s *subscriber) httpStart(ctx context.Context, e events.HTTPStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := s.tracer.Start(ctx, "http.request", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		semconv.HTTPMethodKey.String(e.Request.Method),
		semconv.HTTPTargetKey.String(e.Request.URL.Path),
	)
	s.httpSpans.Store(rid, span)
}

func (s *subscriber) httpFinish(ctx context.Context, e events.HTTPFinish) {
	rid, _ := reqid.FromContext(ctx)
	end(&s.httpSpans, rid, func(span trace.Span) {
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
	})
}

func (s *subscriber) graphqlStart(ctx context.Context, e events.GraphQLStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := s.tracer.Start(s.parent(ctx, &s.httpSpans, &s.invocations), "graphql.operation")
	span.SetAttributes(
		attribute.String("graphql.operation.name", e.OperationName),
		attribute.String("graphql.operation.type", e.OperationType),
	)
	s.gqlSpans.Store(rid, span)
}

func (s *subscriber) graphqlFinish(ctx context.Context, e events.GraphQLFinish) {
	rid, _ := reqid.FromContext(ctx)
	end(&s.gqlSpans, rid, func(span trace.Span) {
		span.SetAttributes(attribute.Int("graphql.error_count", e.ErrorCount))
	})
}

// proxyFinish records the whole forward, retries included, as one client span.
func (s *subscriber) proxyFinish(ctx context.Context, e events.ProxyFinish) {
	now := time.Now()
	_, span := s.tracer.Start(s.parent(ctx, &s.httpSpans, &s.invocations), "proxy.forward",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(now.Add(-e.Duration)))
	span.SetAttributes(
		semconv.HTTPURLKey.String(e.Target),
		attribute.Int("proxy.attempts", e.Attempts),
		attribute.Int64("proxy.waited_ms", e.Waited.Milliseconds()),
	)
	if e.Status != 0 {
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
	}
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End(trace.WithTimestamp(now))
}

func (s *subscriber) routerStart(ctx context.Context, e events.RouterStart) {
	_, span := s.tracer.Start(context.WithoutCancel(ctx), "router.run")
	span.SetAttributes(
		semconv.ProcessExecutablePathKey.String(e.Path),
		semconv.ProcessPIDKey.Int(e.PID),
		attribute.String("router.listen", e.Listen),
	)
	s.routers.Store(routerKey{e.Path, e.PID}, span)
}

func (s *subscriber) routerExit(ctx context.Context, e events.RouterExit) {
	end(&s.routers, routerKey{e.Path, e.PID}, func(span trace.Span) {
		if e.Err != nil {
			span.RecordError(e.Err)
			span.SetStatus(codes.Error, e.Err.Error())
		}
	})
}
