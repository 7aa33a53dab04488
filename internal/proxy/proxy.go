// Package proxy forwards invocation payloads to a backend on loopback,
// retrying at a fixed interval while the backend is still coming up.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	adapter "github.com/hanpama/lambdagraph/internal/adapter"
	eventbus "github.com/hanpama/lambdagraph/internal/eventbus"
	events "github.com/hanpama/lambdagraph/internal/events"
	reqid "github.com/hanpama/lambdagraph/internal/reqid"
)

type state int

const (
	statePending state = iota
	stateAttempting
	stateWaiting
	stateForwarded
	stateFailed
)

func (s state) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateAttempting:
		return "attempting"
	case stateWaiting:
		return "waiting"
	case stateForwarded:
		return "forwarded"
	case stateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Result is a backend reply, relayed without interpreting its status.
type Result struct {
	Status   int
	Body     json.RawMessage
	Attempts int
	Waited   time.Duration
}

// Proxy forwards payloads to one backend URL.
type Proxy struct {
	url string
	opt Options
}

// New creates a Proxy posting to url.
func New(url string, opts ...Option) *Proxy {
	o := defaultOptions()
	for _, f := range opts {
		f(&o)
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	return &Proxy{url: url, opt: o}
}

// URL is the backend address.
func (p *Proxy) URL() string { return p.url }

// forward holds the state of one Forward call.
type forward struct {
	state    state
	attempts int
	waited   time.Duration
	err      error
	status   int
	body     []byte
}

// Forward posts body to the backend. Only transport failures are retried,
// including attempts that exceed AttemptTimeout; any HTTP status counts as
// delivered. After MaxAttempts failed attempts the last failure is returned
// as *TransportError.
func (p *Proxy) Forward(ctx context.Context, body []byte) (*Result, error) {
	start := time.Now()
	bo := p.opt.BackOff()
	bo.Reset()

	f := &forward{state: statePending}
	for f.state != stateForwarded && f.state != stateFailed {
		switch f.state {
		case statePending:
			f.state = stateAttempting
		case stateAttempting:
			f.attempts++
			f.status, f.body, f.err = p.attempt(ctx, body)
			switch {
			case f.err == nil:
				f.state = stateForwarded
			case ctx.Err() != nil, f.attempts >= p.opt.MaxAttempts:
				f.state = stateFailed
			default:
				f.state = stateWaiting
			}
		case stateWaiting:
			d := bo.NextBackOff()
			if d == backoff.Stop {
				f.state = stateFailed
				break
			}
			if err := p.opt.Sleep(ctx, d); err != nil {
				f.err = err
				f.state = stateFailed
				break
			}
			f.waited += d
			f.state = stateAttempting
		}
	}

	res, err := p.finish(f)
	p.report(ctx, f, res, err, time.Since(start))
	return res, err
}

// attempt sends one request and reads the whole reply within AttemptTimeout.
func (p *Proxy) attempt(ctx context.Context, body []byte) (int, []byte, error) {
	if p.opt.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opt.AttemptTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", adapter.ContentTypeJSON)
	if id, ok := reqid.FromContext(ctx); ok {
		req.Header.Set("X-Request-Id", id)
	}
	resp, err := p.opt.Client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, b, nil
}

func (p *Proxy) finish(f *forward) (*Result, error) {
	if f.state == stateFailed {
		return nil, &TransportError{Attempts: f.attempts, Waited: f.waited, Err: f.err}
	}
	if !json.Valid(f.body) {
		return nil, fmt.Errorf("%w (status %d)", ErrInvalidResponse, f.status)
	}
	return &Result{Status: f.status, Body: f.body, Attempts: f.attempts, Waited: f.waited}, nil
}

func (p *Proxy) report(ctx context.Context, f *forward, res *Result, err error, d time.Duration) {
	ev := events.ProxyFinish{Target: p.url, Attempts: f.attempts, Waited: f.waited, Err: err, Duration: d}
	if res != nil {
		ev.Status = res.Status
	}
	eventbus.Publish(ctx, ev)

	id, _ := reqid.FromContext(ctx)
	if err != nil {
		p.opt.Logger.Error("forward failed", "request_id", id, "target", p.url, "attempts", f.attempts, "waited", f.waited, "state", f.state, "error", err)
		return
	}
	p.opt.Logger.Info("forwarded", "request_id", id, "target", p.url, "attempts", f.attempts, "waited", f.waited, "state", f.state, "status", res.Status)
}

// ServeInvocation forwards the invocation payload and relays the backend's
// status and body.
func (p *Proxy) ServeInvocation(ctx context.Context, inv adapter.Invocation) (adapter.Reply, error) {
	res, err := p.Forward(ctx, inv.Body)
	if err != nil {
		return adapter.Reply{}, err
	}
	return adapter.Reply{Status: res.Status, ContentType: adapter.ContentTypeJSON, Body: res.Body}, nil
}

var _ adapter.Handler = (*Proxy)(nil)
