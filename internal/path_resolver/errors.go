package path_resolver

import "errors"

var (
	ErrInvalidPath  = errors.New("invalid path")
	ErrNotFound     = errors.New("path not found")
	ErrTooManyLinks = errors.New("too many levels of symbolic links")
)
