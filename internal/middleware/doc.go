// Package middleware provides HTTP middleware: request IDs, structured
// request logging, panic recovery, CORS, gzip, rate limiting,
// idempotency-key replay, and cookie-session authentication.
//
// Auth gates a route on a live session; OptionalAuth only annotates the
// context, which read endpoints use to decide between the owner and
// public views of an event.
package middleware
