package events

import "time"

// GraphQLStart is emitted before a request is executed against a schema.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after a schema produced its response.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	ErrorCount    int
	Duration      time.Duration
}
