package inode_service

import (
	bs "github.com/AnishMulay/tinyfs/internal/block_service"
)

type InodeID int

const (
	RootInodeID InodeID = 0
	NoInode     InodeID = -1
)

type InodeType int

const (
	TypeDirectory InodeType = iota
	TypeFile
	TypeSymlink
)

func (t InodeType) String() string {
	switch t {
	case TypeDirectory:
		return "directory"
	case TypeFile:
		return "file"
	case TypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Inode is the fixed-format record for one file-system object. A file owns at
// most one data block; a symbolic link owns none and keeps its target inline.
type Inode struct {
	InodeID       InodeID
	Type          InodeType
	FileSize      int
	Block         bs.BlockID
	LinkCount     int
	SymlinkTarget string
}

func (i Inode) HasBlock() bool {
	return i.Block != bs.NoBlock
}

type InodeStats struct {
	TotalInodes int
	UsedInodes  int
}

type InodeService interface {
	// Create allocates a fresh inode of the given type. Files and directories
	// start with one hard link, symbolic links are not reference counted.
	Create(t InodeType) (InodeID, error)

	// Delete frees the inode and, first, the block it owns. The root inode
	// cannot be deleted.
	Delete(id InodeID) error

	// Get returns a snapshot of an allocated inode.
	Get(id InodeID) (Inode, error)

	// View runs fn on a snapshot of the inode while holding the table's read
	// lock, so the inode's block cannot be freed underneath fn.
	View(id InodeID, fn func(inode Inode) error) error

	// Update runs fn on the inode record under the table lock. Changes are
	// committed only when fn returns nil.
	Update(id InodeID, fn func(inode *Inode) error) error

	// Truncate frees the owned block, if any, and sets the size to zero.
	Truncate(id InodeID) error

	Stats() InodeStats
}
