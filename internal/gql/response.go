package gql

import "encoding/json"

// Location points into the query text.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Error is a GraphQL response error.
type Error struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Response is the result of executing one Request. A nil Data marshals as null.
type Response struct {
	Data       json.RawMessage `json:"data"`
	Errors     []*Error        `json:"errors,omitempty"`
	Extensions map[string]any  `json:"extensions,omitempty"`
}

// ErrorResponse returns a response with null data and a single error.
func ErrorResponse(message string) *Response {
	return &Response{Errors: []*Error{{Message: message}}}
}

// Marshal encodes r as compact JSON.
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
