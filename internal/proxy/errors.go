package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrInvalidResponse reports a backend reply whose body is not JSON.
var ErrInvalidResponse = errors.New("proxy: backend response is not JSON")

// TransportError reports that the backend could not be reached within the
// attempt budget.
type TransportError struct {
	Attempts int
	Waited   time.Duration
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("proxy: backend unreachable after %d attempts (waited %s): %v", e.Attempts, e.Waited, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusCode is the status a front door should reply with.
func (e *TransportError) StatusCode() int { return http.StatusBadGateway }
