package router

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStarted is returned by a second Supervisor.Start.
	ErrAlreadyStarted = errors.New("router: already started")
	// ErrNoSubgraph reports a supergraph without any join__Graph value.
	ErrNoSubgraph = errors.New("router: supergraph declares no subgraphs")
)

// SpawnError reports that the router could not be started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("router: spawn %s: %v", e.Path, e.Err) }

func (e *SpawnError) Unwrap() error { return e.Err }

// ExitError reports that a running router stopped. Err is nil when it exited
// with status 0.
type ExitError struct {
	Handle *Handle
	Err    error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("router: %s (pid %d) exited", e.Handle.Path, e.Handle.PID)
	}
	return fmt.Sprintf("router: %s (pid %d) exited: %v", e.Handle.Path, e.Handle.PID, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }
