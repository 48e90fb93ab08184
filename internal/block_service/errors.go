package block_service

import "errors"

var (
	ErrNoFreeBlock = errors.New("no free data block")
)
