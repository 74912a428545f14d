// Package handler contains the HTTP layer: request decoding, routing
// glue, and the mapping from service errors to RFC 9457 problem
// responses. Handlers hold no business logic.
package handler
