package main

import (
	"bytes"
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hanpama/lambdagraph/internal/adapter"
	"github.com/hanpama/lambdagraph/internal/eventbus"
	"github.com/hanpama/lambdagraph/internal/gql"
	"github.com/hanpama/lambdagraph/internal/logging"
	"github.com/hanpama/lambdagraph/internal/otel"
	"github.com/hanpama/lambdagraph/internal/router"
	"github.com/hanpama/lambdagraph/internal/subgraphs"
)

const rootUsage = `lambdagraph: federated GraphQL services for AWS Lambda or local HTTP

USAGE:
  lambdagraph <command> [flags]

COMMANDS:
  subgraph         Serve one subgraph (users, products or reviews)
  gateway          Supervise the federation router and forward requests to it
  sdl              Print a subgraph SDL
  help             Show help for any command

Binaries built with -tags lambda serve AWS Lambda invocations; others listen
on 127.0.0.1.
`

const subgraphUsage = `subgraph FLAGS:
  -name <name>                Subgraph to serve: users, products or reviews (required)
  -port <n>                   Local listen port (default: 3065, 3075 or 3085 by subgraph)
  -pretty                     Pretty-print JSON responses (local only)
  -timeout <duration>         Per-request timeout, e.g. 10s (default: 10s, local only)
  -graphiql <bool>            Serve GraphiQL on GET / (default: true, local only)
  -log.level <level>          debug, info, warn or error (default: info)
  -otel.endpoint <addr>       OTLP collector endpoint
  -otel.service <name>        OpenTelemetry service name (default: lambdagraph-<name>)
`

const gatewayUsage = `gateway FLAGS:
  -log.level <level>          debug, info, warn or error (default: warn)
  -otel.endpoint <addr>       OTLP collector endpoint
  -otel.service <name>        OpenTelemetry service name (default: lambdagraph-gateway)

ENVIRONMENT:
  PATH_ROUTER                     Router binary; unset runs the in-process router
  APOLLO_ROUTER_LISTEN_ADDRESS    Router listen address (default: 127.0.0.1:4000)
  APOLLO_ROUTER_CONFIG_PATH       Router config (default: ./router.yaml, built in for the in-process router)
  APOLLO_ROUTER_SUPERGRAPH_PATH   Supergraph SDL (default: ./supergraph.graphql, built in for the in-process router)
  SUBGRAPH_<NAME>_URL             Subgraph URL override for the in-process router
`

const sdlUsage = `sdl FLAGS:
  -name <name>      Subgraph: users, products or reviews (required)
  -federated        Include the _entities field and federation declarations
  -out <file>       Write SDL to file (default: stdout)
`

//go:embed router.yaml
var routerConfig []byte

//go:embed supergraph.graphql
var supergraphSDL []byte

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("lambdagraph", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "subgraph":
		return cmdSubgraph(cmdArgs)
	case "gateway":
		return cmdGateway(cmdArgs)
	case "sdl":
		return cmdSDL(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "subgraph":
		fmt.Print(subgraphUsage)
	case "gateway":
		fmt.Print(gatewayUsage)
	case "sdl":
		fmt.Print(sdlUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

// telemetry holds the flags shared by the serving commands.
type telemetry struct {
	level    string
	endpoint string
	service  string
}

func (t *telemetry) register(fs *flag.FlagSet, level, service string) {
	t.level = level
	t.service = service
	fs.StringVar(&t.level, "log.level", t.level, "Log level")
	fs.StringVar(&t.endpoint, "otel.endpoint", t.endpoint, "OTLP collector endpoint")
	fs.StringVar(&t.service, "otel.service", t.service, "OpenTelemetry service name")
}

// setup builds the logger and starts tracing. The returned function flushes
// pending spans.
func (t *telemetry) setup() (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(t.level)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(os.Stderr, level)

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(t.endpoint, t.service)
	if err != nil {
		return nil, nil, fmt.Errorf("otel setup: %w", err)
	}
	return logger, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func cmdSubgraph(args []string) error {
	name := ""
	port := 0
	pretty := false
	timeout := 10 * time.Second
	graphiql := true
	var tel telemetry

	fs := flag.NewFlagSet("subgraph", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&name, "name", name, "Subgraph to serve")
	fs.IntVar(&port, "port", port, "Local listen port")
	fs.BoolVar(&pretty, "pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "timeout", timeout, "Per-request timeout")
	fs.BoolVar(&graphiql, "graphiql", graphiql, "Serve GraphiQL on GET /")
	tel.register(fs, "info", "")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, subgraphUsage)
		return err
	}
	if name == "" {
		fmt.Fprint(os.Stderr, subgraphUsage)
		return fmt.Errorf("-name is required")
	}
	sg, err := subgraphs.Lookup(name)
	if err != nil {
		return err
	}
	if port == 0 {
		port = sg.Port
	}
	if tel.service == "" {
		tel.service = "lambdagraph-" + sg.Name
	}

	schema, err := sg.Schema()
	if err != nil {
		return fmt.Errorf("build %s schema: %w", sg.Name, err)
	}
	logger, flush, err := tel.setup()
	if err != nil {
		return err
	}
	defer flush()
	logger = logger.With("subgraph", sg.Name)

	opts := []adapter.Option{adapter.WithLogger(logger), adapter.WithTimeout(timeout), adapter.WithGraphiQL(graphiql)}
	if pretty {
		opts = append(opts, adapter.WithPretty())
	}
	door := newFrontDoor(adapter.SchemaHandler(schema, adapter.WithLogger(logger)), port, opts...)

	ctx, stop := signalContext()
	defer stop()
	return door.Serve(ctx)
}

func cmdGateway(args []string) error {
	var tel telemetry
	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	tel.register(fs, "warn", "lambdagraph-gateway")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, gatewayUsage)
		return err
	}

	logger, flush, err := tel.setup()
	if err != nil {
		return err
	}
	defer flush()

	cfg := router.ConfigFromEnv(os.Getenv)
	backend, err := newBackend(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	sup := router.NewSupervisor(backend, router.WithLogger(logger))
	if err := sup.Start(ctx); err != nil {
		return err
	}
	return serveGateway(ctx, sup, logger)
}

// newBackend selects the external router when PATH_ROUTER is set and the
// in-process router otherwise.
func newBackend(cfg router.Config, logger *slog.Logger) (router.Backend, error) {
	if cfg.Path != "" {
		return router.NewProcess(cfg), nil
	}
	docs, err := cfg.Documents(router.Documents{Config: routerConfig, Supergraph: supergraphSDL})
	if err != nil {
		return nil, err
	}
	return router.NewEmbedded(cfg, docs, logger)
}

// routerURL is the loopback endpoint of the supervised router.
func routerURL(sup *router.Supervisor) string {
	return "http://" + sup.Handle().Listen + "/"
}

func cmdSDL(args []string) error {
	name := ""
	federated := false
	outFile := ""
	fs := flag.NewFlagSet("sdl", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&name, "name", name, "Subgraph")
	fs.BoolVar(&federated, "federated", federated, "Include federation fields")
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, sdlUsage)
		return err
	}
	if name == "" {
		fmt.Fprint(os.Stderr, sdlUsage)
		return fmt.Errorf("-name is required")
	}
	sg, err := subgraphs.Lookup(name)
	if err != nil {
		return err
	}
	sdl := sg.SDL
	if federated {
		if sdl, err = gql.EnableFederation(sdl); err != nil {
			return err
		}
	}
	if outFile == "" {
		fmt.Print(sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}
