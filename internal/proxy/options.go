package proxy

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/hanpama/lambdagraph/internal/logging"
)

const (
	// DefaultMaxAttempts bounds the attempts made for one invocation.
	DefaultMaxAttempts = 500
	// DefaultInterval is the fixed wait between two attempts.
	DefaultInterval = 10 * time.Millisecond
	// DefaultAttemptTimeout bounds one attempt, reply body included.
	DefaultAttemptTimeout = 10 * time.Second
)

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Proxy.
type Options struct {
	Client      Doer
	MaxAttempts int
	// AttemptTimeout bounds one attempt. Expiry is a transport failure and is
	// retried. 0 leaves attempts bounded by the caller's context only.
	AttemptTimeout time.Duration
	// BackOff builds the wait policy for one invocation. A policy returning
	// backoff.Stop ends the invocation before MaxAttempts is reached.
	BackOff func() backoff.BackOff
	Sleep   func(ctx context.Context, d time.Duration) error
	Logger  *slog.Logger
}

type Option func(*Options)

func WithClient(c Doer) Option                    { return func(o *Options) { o.Client = c } }
func WithMaxAttempts(n int) Option                { return func(o *Options) { o.MaxAttempts = n } }
func WithBackOff(f func() backoff.BackOff) Option { return func(o *Options) { o.BackOff = f } }
func WithLogger(l *slog.Logger) Option            { return func(o *Options) { o.Logger = l } }
func WithAttemptTimeout(d time.Duration) Option   { return func(o *Options) { o.AttemptTimeout = d } }
func WithSleep(f func(context.Context, time.Duration) error) Option {
	return func(o *Options) { o.Sleep = f }
}

func defaultOptions() Options {
	return Options{
		Client:         &http.Client{},
		MaxAttempts:    DefaultMaxAttempts,
		AttemptTimeout: DefaultAttemptTimeout,
		BackOff:        func() backoff.BackOff { return backoff.NewConstantBackOff(DefaultInterval) },
		Sleep:          sleep,
		Logger:         logging.Discard(),
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
