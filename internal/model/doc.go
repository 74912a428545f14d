// Package model defines domain entities and data structures for the o2gather API.
//
// The model package contains all struct definitions for domain objects, request/response
// types, and error definitions. Models are used across all layers of the application.
//
// # Domain Entities
//
// Core domain entities include:
//
//   - User: Application user resolved from the identity provider
//   - Event: Time-boxed activity with a funding ceiling, owned by a user
//   - RosterEntry: One member's committed amount plus contact detail,
//     visible only to the event owner
//   - Session: Server-side login session referenced by a cookie
//
// # Projections
//
// Event reads return a Projection, a sealed union with exactly two variants:
// PublicProjection (aggregate total and member count) and OwnerProjection
// (the same plus the full member roster). The roster is never present for
// non-owners, not even as an empty list.
//
// # JSON Serialization
//
// All models use json struct tags for API serialization. Event schedule
// timestamps travel as unix seconds via the UnixTime wrapper:
//
//	type Event struct {
//	    ID        string   `json:"id"`
//	    StartTime UnixTime `json:"start_time"`
//	}
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	type ProblemDetails struct {
//	    Type    string    `json:"type"`
//	    Title   string    `json:"title"`
//	    Status  int       `json:"status"`
//	    Detail  string    `json:"detail"`
//	}
package model
