package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when the local front door receives a request.
// Context carries the request context.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the local front door has written its reply.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}
