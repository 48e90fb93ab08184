package inode_service

import "errors"

var (
	ErrNoFreeInode   = errors.New("no free inode")
	ErrInodeNotFound = errors.New("inode not allocated")
	ErrRootInode     = errors.New("root inode cannot be deleted")
)
