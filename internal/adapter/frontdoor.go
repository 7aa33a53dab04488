package adapter

import "context"

// FrontDoor accepts invocations until ctx is cancelled or it fails.
type FrontDoor interface {
	Serve(ctx context.Context) error
}

var (
	_ FrontDoor = (*Lambda)(nil)
	_ FrontDoor = (*Local)(nil)
)
