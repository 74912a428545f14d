// Package service contains the business logic layer.
//
// Services own authorization and validation and depend on narrow
// repository interfaces they define themselves. Expected client
// conditions (not found, not owner, cap exceeded, not a member) are
// sentinel errors in errors.go; anything else is a server fault.
package service
