package open_file_service

import "errors"

var (
	ErrNoFreeHandle  = errors.New("open file table is full")
	ErrInvalidHandle = errors.New("invalid file handle")
	ErrInvalidOffset = errors.New("invalid file offset")
)
