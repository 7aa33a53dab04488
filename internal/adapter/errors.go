package adapter

import (
	"errors"
	"fmt"
	"net/http"

	gql "github.com/hanpama/lambdagraph/internal/gql"
)

var (
	// ErrDecode reports an invocation payload that is not valid UTF-8 text.
	ErrDecode = errors.New("adapter: invocation payload is not valid UTF-8")
	// ErrMalformedRequest reports a payload that is not a GraphQL request document.
	ErrMalformedRequest = errors.New("adapter: malformed GraphQL request")
)

// BindError reports that the local front door could not listen on its address.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string { return fmt.Sprintf("adapter: bind %s: %v", e.Addr, e.Err) }

func (e *BindError) Unwrap() error { return e.Err }

// ErrorReply converts a handler error into a GraphQL error reply. Decode and
// parse failures map to 400, errors exposing StatusCode() to that status, and
// anything else to 500.
func ErrorReply(err error) Reply {
	status := http.StatusInternalServerError
	var coded interface{ StatusCode() int }
	switch {
	case errors.Is(err, ErrDecode), errors.Is(err, ErrMalformedRequest):
		status = http.StatusBadRequest
	case errors.As(err, &coded):
		status = coded.StatusCode()
	}
	body, merr := gql.ErrorResponse(err.Error()).Marshal()
	if merr != nil {
		body = []byte(`{"data":null,"errors":[{"message":"internal error"}]}`)
	}
	return Reply{Status: status, ContentType: ContentTypeJSON, Body: body}
}
