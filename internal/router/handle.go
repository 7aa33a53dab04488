package router

import (
	"context"
	"sync/atomic"
	"time"
)

// Handle describes the one running router.
type Handle struct {
	Path    string
	Args    []string
	PID     int // 0 for the in-process router
	Listen  string
	Started time.Time

	alive atomic.Bool
}

// Alive reports whether the router is still running.
func (h *Handle) Alive() bool { return h.alive.Load() }

// Backend starts and waits for a router.
type Backend interface {
	// Start spawns or binds the router and returns once it is running.
	Start(ctx context.Context) (*Handle, error)
	// Wait blocks until the router stops.
	Wait() error
}
