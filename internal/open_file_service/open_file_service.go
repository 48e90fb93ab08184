package open_file_service

import is "github.com/AnishMulay/tinyfs/internal/inode_service"

// Handle is the small integer a caller holds for an open file. Handles are
// reused after release.
type Handle int

const NoHandle Handle = -1

type OpenFile struct {
	InodeID is.InodeID
	Offset  int
}

type OpenFileStats struct {
	TotalHandles int
	UsedHandles  int
}

// OpenFileService tracks (inode, cursor) sessions. It does not serialize
// concurrent use of one handle: callers sharing a handle must do that.
type OpenFileService interface {
	Register(id is.InodeID, offset int) (Handle, error)
	Get(h Handle) (OpenFile, error)
	SetOffset(h Handle, offset int) error
	Release(h Handle) (OpenFile, error)

	// OpenCount reports how many live handles reference the inode.
	OpenCount(id is.InodeID) int
	Stats() OpenFileStats
}
