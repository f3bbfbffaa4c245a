// Package common defines sentinel errors shared by the repository, service
// and HTTP layers. Callers should match them with errors.Is.
package common

import "errors"

var (
	// repository errors
	ErrNotFound = errors.New("not found")

	// identity errors
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")

	// authorization errors
	ErrForbidden = errors.New("forbidden")

	// input errors
	ErrValidation  = errors.New("validation error")
	ErrHandleTaken = errors.New("handle already taken")
)
