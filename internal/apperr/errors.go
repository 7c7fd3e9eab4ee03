package apperr

import "errors"

// Sentinel errors shared across the repo. Callers wrap these with %w and
// match with errors.Is; the HTTP layer maps them to status codes.
var (
	ErrNotFound      = errors.New("not found")
	ErrNotAuthorized = errors.New("not authorized")
	ErrValidation    = errors.New("validation error")
	ErrTransientIO   = errors.New("transient io error")
)
