package events

import "time"

// ProxyFinish is emitted once per forwarded invocation, after the last attempt.
type ProxyFinish struct {
	Target   string
	Attempts int
	Waited   time.Duration
	Status   int
	Err      error
	Duration time.Duration
}
