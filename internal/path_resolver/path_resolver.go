// Package path_resolver turns absolute paths into inode numbers. The
// namespace is a single flat directory: everything after the leading
// separator is one opaque entry name.
package path_resolver

import (
	"errors"
	"fmt"
	"strings"

	ds "github.com/AnishMulay/tinyfs/internal/directory_service"
	is "github.com/AnishMulay/tinyfs/internal/inode_service"
)

const (
	Separator = "/"

	// MaxSymlinkHops bounds how many symbolic links Resolve follows before
	// giving up, so cycles end in an error instead of a hang.
	MaxSymlinkHops = 40
)

// Name validates an absolute path and returns the directory entry name it
// denotes.
func Name(path string) (string, error) {
	if !strings.HasPrefix(path, Separator) || len(path) <= len(Separator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	name := path[len(Separator):]
	if err := ds.ValidName(name); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return name, nil
}

type Resolver struct {
	dir    ds.DirectoryService
	inodes is.InodeService
}

func NewResolver(dir ds.DirectoryService, inodes is.InodeService) *Resolver {
	return &Resolver{dir: dir, inodes: inodes}
}

// Lookup returns the inode the path's directory entry points at, without
// following symbolic links.
func (r *Resolver) Lookup(path string) (is.InodeID, error) {
	name, err := Name(path)
	if err != nil {
		return is.NoInode, err
	}

	id, err := r.dir.Lookup(name)
	if errors.Is(err, ds.ErrNameNotFound) {
		return is.NoInode, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	if err != nil {
		return is.NoInode, err
	}
	return id, nil
}

// Resolve looks up path and follows symbolic links until it reaches an inode
// that is not one. A missing or malformed link target yields ErrNotFound, as
// does a chain longer than MaxSymlinkHops (also matching ErrTooManyLinks).
func (r *Resolver) Resolve(path string) (is.InodeID, is.Inode, error) {
	current := path
	for hops := 0; ; hops++ {
		id, err := r.Lookup(current)
		if err != nil {
			if hops > 0 && errors.Is(err, ErrInvalidPath) {
				return is.NoInode, is.Inode{}, fmt.Errorf("%w: %q links to %q", ErrNotFound, path, current)
			}
			return is.NoInode, is.Inode{}, err
		}

		inode, err := r.inodes.Get(id)
		if err != nil {
			return is.NoInode, is.Inode{}, fmt.Errorf("%w: %q: %w", ErrNotFound, current, err)
		}
		if inode.Type != is.TypeSymlink {
			return id, inode, nil
		}

		if hops == MaxSymlinkHops {
			return is.NoInode, is.Inode{}, fmt.Errorf("%w: %w: %q", ErrNotFound, ErrTooManyLinks, path)
		}
		current = inode.SymlinkTarget
	}
}
