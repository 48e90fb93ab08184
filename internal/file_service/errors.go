package file_service

import "errors"

// Outcome taxonomy of the operation set. Errors returned by a FileService
// wrap exactly one of these, joined with the lower-level cause.
var (
	ErrInvalidPath      = errors.New("invalid path")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrExhausted        = errors.New("resource exhausted")
	ErrInvalidHandle    = errors.New("invalid file handle")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrNotRunning       = errors.New("file system is not running")
)
