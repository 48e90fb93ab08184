package file_service

import "context"

// OpenMode is the bitset of flags accepted by Open.
type OpenMode int

const (
	// OpenCreate creates a regular file when the path does not exist.
	OpenCreate OpenMode = 1 << iota
	// OpenTruncate drops the existing content of the file being opened.
	OpenTruncate
	// OpenAppend starts the cursor at the end of the file instead of 0.
	OpenAppend
)

func (m OpenMode) Has(flag OpenMode) bool {
	return m&flag != 0
}

// MaxSymlinkTargetLen bounds the path stored in a symbolic link.
const MaxSymlinkTargetLen = 255

type Attributes struct {
	InodeID   int    `json:"inode_id"`
	Type      string `json:"type"`
	Size      int    `json:"size"`
	LinkCount int    `json:"link_count"`
	HasBlock  bool   `json:"has_block"`
	Target    string `json:"target,omitempty"`
}

type DirEntry struct {
	Name    string `json:"name"`
	InodeID int    `json:"inode_id"`
	Type    string `json:"type"`
}

type FileSystemStats struct {
	TotalInodes  int `json:"total_inodes"`
	UsedInodes   int `json:"used_inodes"`
	TotalBlocks  int `json:"total_blocks"`
	UsedBlocks   int `json:"used_blocks"`
	TotalHandles int `json:"total_handles"`
	UsedHandles  int `json:"used_handles"`
	DirEntries   int `json:"dir_entries"`
	DirCapacity  int `json:"dir_capacity"`
}

type FileSystemInfo struct {
	FsID                string `json:"fs_id"`
	BlockSize           int    `json:"block_size"`
	MaxFileSize         int    `json:"max_file_size"`
	MaxNameLen          int    `json:"max_name_len"`
	MaxSymlinkTargetLen int    `json:"max_symlink_target_len"`
	MaxSymlinkHops      int    `json:"max_symlink_hops"`
	DirCapacity         int    `json:"dir_capacity"`
}

// FileService is the operation set of one store instance. Paths are absolute
// and name a single entry of the flat root directory. Every method fails
// with ErrNotRunning outside Start/Stop.
type FileService interface {
	// --- Lifecycle ---
	Start() error
	Stop() error

	// --- Data path ---
	Open(ctx context.Context, path string, mode OpenMode) (int, error)
	Read(ctx context.Context, fd int, buf []byte) (int, error)
	Write(ctx context.Context, fd int, data []byte) (int, error)
	Close(ctx context.Context, fd int) error

	// --- Namespace ---
	Link(ctx context.Context, target, name string) error
	Symlink(ctx context.Context, target, name string) error
	Unlink(ctx context.Context, path string) error

	// --- Introspection ---
	Stat(ctx context.Context, path string) (*Attributes, error)
	Lstat(ctx context.Context, path string) (*Attributes, error)
	ReadDir(ctx context.Context) ([]DirEntry, error)
	GetFsStat(ctx context.Context) (*FileSystemStats, error)
	GetFsInfo(ctx context.Context) (*FileSystemInfo, error)
}
