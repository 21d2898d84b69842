package adapter

import "errors"

var (
	// ErrUnauthorized is returned when the object storage rejects the
	// credentials (401/403, AccessDenied, InvalidAccessKeyId, ...).
	ErrUnauthorized = errors.New("object storage rejected the credentials")

	// ErrTransient is returned for failures that may succeed on a later
	// attempt: timeouts, connection loss, 5xx and 429 responses.
	ErrTransient = errors.New("transient object storage failure")

	// ErrNotFound is returned when a downloaded URL does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidObject is returned when an upload lacks a bucket or path.
	ErrInvalidObject = errors.New("invalid object")

	// ErrObjectStorage wraps every other object storage failure.
	ErrObjectStorage = errors.New("object storage error")
)
