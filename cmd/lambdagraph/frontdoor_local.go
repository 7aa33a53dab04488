//go:build !lambda

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hanpama/lambdagraph/internal/adapter"
	"github.com/hanpama/lambdagraph/internal/router"
)

func newFrontDoor(h adapter.Handler, port int, opts ...adapter.Option) adapter.FrontDoor {
	l := adapter.NewLocal(port, h, opts...)
	fmt.Printf("GraphiQL IDE: http://%s\n", l.Addr())
	return l
}

// serveGateway keeps the router in the foreground: clients talk to it
// directly, so there is nothing to forward.
func serveGateway(ctx context.Context, sup *router.Supervisor, logger *slog.Logger) error {
	fmt.Printf("Router: %s\n", routerURL(sup))
	select {
	case <-ctx.Done():
		<-sup.Done()
		logger.Info("gateway stopped")
		return nil
	case <-sup.Done():
		return sup.Err()
	}
}
