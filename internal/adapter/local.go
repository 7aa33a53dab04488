package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	eventbus "github.com/hanpama/lambdagraph/internal/eventbus"
	events "github.com/hanpama/lambdagraph/internal/events"
	gql "github.com/hanpama/lambdagraph/internal/gql"
	reqid "github.com/hanpama/lambdagraph/internal/reqid"
)

const (
	graphqlEndpoint = "/"
	shutdownTimeout = 5 * time.Second
)

// Local is the local-development front door: an HTTP server on
// 127.0.0.1:<port> with a GraphiQL page at GET / and the GraphQL endpoint at
// POST /. Local is also an http.Handler.
type Local struct {
	addr    string
	handler Handler
	opt     Options
	page    []byte
}

// NewLocal creates a local front door for h listening on the loopback port.
func NewLocal(port int, h Handler, opts ...Option) *Local {
	opt := newOptions(append([]Option{WithTimeout(10 * time.Second)}, opts...))
	return &Local{
		addr:    fmt.Sprintf("127.0.0.1:%d", port),
		handler: h,
		opt:     opt,
		page:    graphiqlPage(graphqlEndpoint),
	}
}

// Addr is the address Serve listens on.
func (s *Local) Addr() string { return s.addr }

// Serve listens on Addr and serves until ctx is cancelled, then shuts down
// gracefully. A listen failure is returned as *BindError.
func (s *Local) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return &BindError{Addr: s.addr, Err: err}
	}
	return s.serve(ctx, ln)
}

func (s *Local) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.opt.Logger.Info("GraphiQL IDE", "url", "http://"+ln.Addr().String())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Local) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && s.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.NewContext(ctx, r.Header.Get("X-Request-Id"))
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	if r.URL.Path != graphqlEndpoint {
		status = http.StatusNotFound
		s.writeReply(w, errorReply(status, "not found"))
		return
	}

	switch {
	case r.Method == http.MethodGet && s.opt.GraphiQL:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write(s.page)
		return
	case r.Method != http.MethodPost:
		status = http.StatusMethodNotAllowed
		w.Header().Set("Allow", s.allowed())
		s.writeReply(w, errorReply(status, "method not allowed"))
		return
	}

	body, err := readBody(r, s.opt.MaxBodyBytes)
	if err != nil {
		status = http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.writeReply(w, errorReply(status, err.Error()))
		return
	}

	reply, err := s.handler.ServeInvocation(ctx, Invocation{RequestID: rid, Body: body})
	if err != nil {
		s.opt.Logger.Error("invocation failed", "request_id", rid, "error", err)
		reply = ErrorReply(err)
	}
	status = reply.Status
	s.writeReply(w, reply)
}

func (s *Local) allowed() string {
	if s.opt.GraphiQL {
		return "GET, POST"
	}
	return "POST"
}

func (s *Local) writeReply(w http.ResponseWriter, reply Reply) {
	body := reply.Body
	if s.opt.Pretty {
		var buf bytes.Buffer
		if json.Indent(&buf, body, "", "  ") == nil {
			body = buf.Bytes()
		}
	}
	contentType := reply.ContentType
	if contentType == "" {
		contentType = ContentTypeJSON
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(reply.Status)
	_, _ = w.Write(body)
}

var errBodyTooLarge = errors.New("body too large")

func readBody(r *http.Request, maxBody int64) ([]byte, error) {
	defer r.Body.Close()
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.New("failed to read body")
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return nil, errBodyTooLarge
	}
	return body, nil
}

func errorReply(status int, message string) Reply {
	body, _ := gql.ErrorResponse(message).Marshal()
	return Reply{Status: status, ContentType: ContentTypeJSON, Body: body}
}
