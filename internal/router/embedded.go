package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/vektah/gqlparser/v2/ast"

	gql "github.com/hanpama/lambdagraph/internal/gql"
	"github.com/hanpama/lambdagraph/internal/logging"
)

// EmbeddedPath is the Handle path reported by the in-process router.
const EmbeddedPath = "embedded"

// Embedded is an in-process router. It sends each operation whose root fields
// all belong to one subgraph to that subgraph and relays the reply. It does no
// query planning: operations spanning subgraphs are rejected.
type Embedded struct {
	cfg    Config
	doc    *Document
	graph  *Supergraph
	client *http.Client
	logger *slog.Logger

	srv  *http.Server
	done chan struct{}
	err  error
}

// NewEmbedded builds an in-process router from a router document and a
// supergraph SDL. The document's supergraph.listen applies unless the listen
// address was set in the environment.
func NewEmbedded(cfg Config, docs Documents, logger *slog.Logger) (*Embedded, error) {
	doc, err := ParseDocument(docs.Config)
	if err != nil {
		return nil, err
	}
	sg, err := ParseSupergraph(string(docs.Supergraph))
	if err != nil {
		return nil, err
	}
	sg.resolveURLs(doc.OverrideSubgraphURL, cfg.env)
	if !cfg.ListenSet && doc.Supergraph.Listen != "" {
		cfg.Listen = doc.Supergraph.Listen
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Embedded{
		cfg:    cfg,
		doc:    doc,
		graph:  sg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}, nil
}

// Supergraph returns the routing view, with URL overrides applied.
func (e *Embedded) Supergraph() *Supergraph { return e.graph }

// Start binds the listen address and serves in the background until ctx is
// cancelled.
func (e *Embedded) Start(ctx context.Context) (*Handle, error) {
	ln, err := net.Listen("tcp", e.cfg.Listen)
	if err != nil {
		return nil, &SpawnError{Path: EmbeddedPath, Err: err}
	}
	e.srv = &http.Server{Handler: e, ReadHeaderTimeout: 10 * time.Second}
	e.done = make(chan struct{})
	go func() {
		defer close(e.done)
		if err := e.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			e.err = err
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = e.srv.Shutdown(shutdownCtx)
		case <-e.done:
		}
	}()
	for _, s := range e.graph.Subgraphs() {
		e.logger.Debug("subgraph", "name", s.Name, "url", s.URL)
	}
	return &Handle{
		Path:    EmbeddedPath,
		Args:    e.cfg.Args(),
		Listen:  ln.Addr().String(),
		Started: time.Now(),
	}, nil
}

// Wait blocks until the server stops. It returns nil after a shutdown.
func (e *Embedded) Wait() error {
	<-e.done
	return e.err
}

// Stop shuts the server down without cancelling the Start context.
func (e *Embedded) Stop(ctx context.Context) error { return e.srv.Shutdown(ctx) }

func (e *Embedded) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/health":
		writeJSON(w, http.StatusOK, []byte(`{"status":"UP"}`))
		return
	case r.URL.Path != "/":
		writeError(w, http.StatusNotFound, "not found")
		return
	case r.Method != http.MethodPost:
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	req, err := gql.ParseRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := e.plan(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.target == nil {
		writeJSON(w, http.StatusOK, p.local)
		return
	}
	e.forward(r.Context(), w, p.target, body)
}

// plan is the routing decision for one operation: either a locally built
// reply or the subgraph to forward to.
type plan struct {
	local  []byte
	target *Subgraph
}

func (e *Embedded) plan(req *gql.Request) (*plan, error) {
	op := req.Operation()
	if op == nil {
		if req.OperationName != "" {
			return nil, fmt.Errorf("unknown operation named %q", req.OperationName)
		}
		return nil, errors.New("must provide operation name if query contains multiple operations")
	}
	if op.Operation == ast.Subscription {
		return nil, errors.New("subscriptions are not supported")
	}
	rootType := e.graph.RootType(op.Operation)
	fields := rootFields(req.Document(), op.SelectionSet)

	var candidates []*Subgraph
	routed := false
	for _, f := range fields {
		switch f.Name {
		case "__typename":
			continue
		case "__schema", "__type":
			if !e.doc.Supergraph.Introspection {
				return nil, errors.New("introspection has been disabled")
			}
			return nil, errors.New("introspection is not supported by the in-process router")
		}
		owners, ok := e.graph.Owners(rootType, f.Name)
		if !ok {
			return nil, fmt.Errorf("cannot query field %q on type %q", f.Name, rootType)
		}
		if !routed {
			candidates, routed = owners, true
			continue
		}
		candidates = intersect(candidates, owners)
		if len(candidates) == 0 {
			return nil, e.spanError(rootType, fields)
		}
	}
	if !routed {
		return &plan{local: typenameData(fields, rootType)}, nil
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no subgraph resolves the root fields of type %q", rootType)
	}
	return &plan{target: candidates[0]}, nil
}

func (e *Embedded) spanError(rootType string, fields []*ast.Field) error {
	seen := map[string]bool{}
	var names []string
	for _, f := range fields {
		owners, _ := e.graph.Owners(rootType, f.Name)
		for _, s := range owners {
			if !seen[s.Name] {
				seen[s.Name] = true
				names = append(names, s.Name)
			}
		}
	}
	return fmt.Errorf("operation spans subgraphs %s; the in-process router cannot plan it", strings.Join(names, ", "))
}

func (e *Embedded) forward(ctx context.Context, w http.ResponseWriter, s *Subgraph, body []byte) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("subgraph request failed", "subgraph", s.Name, "error", err)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("subgraph %s unavailable", s.Name))
		return
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("subgraph %s: %v", s.Name, err))
		return
	}
	writeJSON(w, resp.StatusCode, out)
}

// rootFields flattens the root selection set, following fragments.
func rootFields(doc *ast.QueryDocument, set ast.SelectionSet) []*ast.Field {
	var out []*ast.Field
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			out = append(out, s)
		case *ast.InlineFragment:
			out = append(out, rootFields(doc, s.SelectionSet)...)
		case *ast.FragmentSpread:
			if f := doc.Fragments.ForName(s.Name); f != nil {
				out = append(out, rootFields(doc, f.SelectionSet)...)
			}
		}
	}
	return out
}

func intersect(a, b []*Subgraph) []*Subgraph {
	var out []*Subgraph
	for _, x := range a {
		for _, y := range b {
			if x == y {
				out = append(out, x)
				break
			}
		}
	}
	return out
}

// typenameData answers an operation selecting only __typename.
func typenameData(fields []*ast.Field, rootType string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"data":{`)
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key := f.Alias
		if key == "" {
			key = f.Name
		}
		k, _ := json.Marshal(key)
		v, _ := json.Marshal(rootType)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteString(`}}`)
	return buf.Bytes()
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	body, _ := gql.ErrorResponse(message).Marshal()
	writeJSON(w, status, body)
}
