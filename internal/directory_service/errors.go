package directory_service

import "errors"

var (
	ErrNameNotFound  = errors.New("no such directory entry")
	ErrNameExists    = errors.New("directory entry already exists")
	ErrDirectoryFull = errors.New("no free directory entry")
	ErrInvalidName   = errors.New("invalid entry name")
)
