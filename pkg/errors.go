// Package pkg holds small helpers shared across the project.
// This file defines the domain-level error values.
//
// Services return these sentinels (usually wrapped with fmt.Errorf and %w);
// the handler layer maps them to HTTP status codes in response.go. Callers
// compare with errors.Is so wrapped errors still match.
package pkg

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrRateLimited   = errors.New("rate limited")
	ErrInternal      = errors.New("internal error")
)
