package adapter

import (
	"log/slog"
	"time"

	"github.com/hanpama/lambdagraph/internal/logging"
)

// Options configures the front doors and SchemaHandler.
type Options struct {
	// Logger receives payload audit lines and failures. Defaults to a discarding logger.
	Logger *slog.Logger

	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout. Local front door only.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev). Local front door only.
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	// Local front door only.
	MaxBodyBytes int64

	// GraphiQL serves the in-browser IDE on GET / when true. Local front door only.
	GraphiQL bool
}

type Option func(*Options)

func WithLogger(l *slog.Logger) Option   { return func(o *Options) { o.Logger = l } }
func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithGraphiQL(enable bool) Option    { return func(o *Options) { o.GraphiQL = enable } }

func newOptions(opts []Option) Options {
	o := Options{GraphiQL: true}
	for _, f := range opts {
		f(&o)
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}
