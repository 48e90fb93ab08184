package internal

import "errors"

var (
	// Lifecycle errors
	ErrAlreadyRunning = errors.New("file system is already running")
	ErrRootMisplaced  = errors.New("root directory did not receive inode 0")

	// Link errors
	ErrLinkToSymlink = errors.New("cannot hard link a symbolic link")
	ErrLinkToOrphan  = errors.New("cannot hard link an inode with no links left")
	ErrTargetEmpty   = errors.New("symbolic link target is empty")
	ErrTargetTooLong = errors.New("symbolic link target too long")
)
