package events

import "time"

// InvocationStart is emitted when the serverless front door receives an event.
type InvocationStart struct {
	RequestID string
	Size      int
}

// InvocationFinish is emitted when the serverless front door returns.
type InvocationFinish struct {
	RequestID string
	Status    int
	Err       error
	Duration  time.Duration
}
