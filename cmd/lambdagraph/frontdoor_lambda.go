//go:build lambda

package main

import (
	"context"
	"log/slog"

	"github.com/hanpama/lambdagraph/internal/adapter"
	"github.com/hanpama/lambdagraph/internal/proxy"
	"github.com/hanpama/lambdagraph/internal/router"
)

func newFrontDoor(h adapter.Handler, _ int, opts ...adapter.Option) adapter.FrontDoor {
	return adapter.NewLambda(h, opts...)
}

// serveGateway forwards every invocation to the router over loopback.
func serveGateway(ctx context.Context, sup *router.Supervisor, logger *slog.Logger) error {
	p := proxy.New(routerURL(sup), proxy.WithLogger(logger))
	return adapter.NewLambda(p, adapter.WithLogger(logger)).Serve(ctx)
}
