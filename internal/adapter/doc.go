// Package adapter exposes a GraphQL handler through one of two front doors.
//
// Lambda serves one API Gateway (HTTP API, payload v2) event per call and
// keeps no state between events. Local binds 127.0.0.1:<port>, serves a
// GraphiQL page on GET / and executes requests posted to /. Both drive the
// same Handler, so a schema (SchemaHandler) or a forwarding proxy can sit
// behind either one. Which front door a binary uses is decided when it is
// built.
//
// Replies always declare ContentTypeJSON. Payloads that are not UTF-8 or not
// a GraphQL request document fail with ErrDecode or ErrMalformedRequest before
// anything is executed; the front doors turn those into 400 replies carrying a
// GraphQL error document.
package adapter
