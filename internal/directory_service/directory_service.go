package directory_service

import (
	"strings"

	is "github.com/AnishMulay/tinyfs/internal/inode_service"
)

const (
	// MaxNameLen is the size of the name field of an on-block entry.
	MaxNameLen = 40

	// EntrySize is the encoded size of one entry: name field plus a
	// little-endian uint32 inode number.
	EntrySize = MaxNameLen + 4
)

type Entry struct {
	Name    string
	InodeID is.InodeID
}

// DirectoryService is the flat name index of the root directory. Names are
// opaque: separators inside a name are not interpreted.
type DirectoryService interface {
	Lookup(name string) (is.InodeID, error)
	Add(name string, id is.InodeID) error
	Remove(name string) error
	List() ([]Entry, error)
	Len() int
	Capacity() int
}

func ValidName(name string) error {
	if name == "" || len(name) > MaxNameLen || strings.IndexByte(name, 0) >= 0 {
		return ErrInvalidName
	}
	return nil
}

// CapacityFor returns how many entries fit into one block.
func CapacityFor(blockSize int) int {
	return blockSize / EntrySize
}
