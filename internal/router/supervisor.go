// Package router supervises the federation router the gateway forwards to.
//
// The router is either an external binary (Process) or an in-process
// implementation (Embedded). A Supervisor starts it exactly once and treats
// any exit as fatal for the whole program, since a gateway without its router
// can only fail every invocation.
package router

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	eventbus "github.com/hanpama/lambdagraph/internal/eventbus"
	events "github.com/hanpama/lambdagraph/internal/events"
	"github.com/hanpama/lambdagraph/internal/logging"
)

// Supervisor owns the single router handle.
type Supervisor struct {
	backend Backend
	fatal   func(error)
	logger  *slog.Logger

	mu      sync.Mutex
	started bool
	handle  *Handle
	done    chan struct{}
	err     error
}

type Option func(*Supervisor)

// WithFatal replaces the hook called when the router exits while the Start
// context is still live. The default logs the error and exits with status 1.
func WithFatal(f func(error)) Option { return func(s *Supervisor) { s.fatal = f } }

func WithLogger(l *slog.Logger) Option { return func(s *Supervisor) { s.logger = l } }

// NewSupervisor creates a supervisor for b.
func NewSupervisor(b Backend, opts ...Option) *Supervisor {
	s := &Supervisor{backend: b, logger: logging.Discard(), done: make(chan struct{})}
	for _, o := range opts {
		o(s)
	}
	if s.fatal == nil {
		s.fatal = func(err error) {
			s.logger.Error("router exited", "error", err)
			os.Exit(1)
		}
	}
	return s
}

// Start starts the router and returns once it is running. A spawn failure is
// returned as *SpawnError. Cancelling ctx stops the router without calling
// the fatal hook.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	h, err := s.backend.Start(ctx)
	if err != nil {
		var se *SpawnError
		if !errors.As(err, &se) {
			err = &SpawnError{Path: "router", Err: err}
		}
		s.finish(err)
		return err
	}
	h.alive.Store(true)

	s.mu.Lock()
	s.handle = h
	s.mu.Unlock()

	s.logger.Info("router started", "path", h.Path, "pid", h.PID, "listen", h.Listen)
	eventbus.Publish(ctx, events.RouterStart{Path: h.Path, Args: h.Args, PID: h.PID, Listen: h.Listen})

	go s.wait(ctx, h)
	return nil
}

func (s *Supervisor) wait(ctx context.Context, h *Handle) {
	err := s.backend.Wait()
	h.alive.Store(false)
	eventbus.Publish(context.WithoutCancel(ctx), events.RouterExit{Path: h.Path, PID: h.PID, Err: err, Uptime: time.Since(h.Started)})

	if ctx.Err() != nil {
		s.logger.Info("router stopped", "path", h.Path, "pid", h.PID)
		s.finish(nil)
		return
	}
	exit := &ExitError{Handle: h, Err: err}
	s.finish(exit)
	s.fatal(exit)
}

func (s *Supervisor) finish(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.done)
}

// Handle returns the running router, or nil before Start.
func (s *Supervisor) Handle() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// Done is closed once the router has stopped or failed to start.
func (s *Supervisor) Done() <-chan struct{} { return s.done }

// Err reports why the router stopped. It is nil after a requested shutdown.
func (s *Supervisor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
