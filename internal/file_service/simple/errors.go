package simple

import (
	"errors"
	"fmt"

	bs "github.com/AnishMulay/tinyfs/internal/block_service"
	ds "github.com/AnishMulay/tinyfs/internal/directory_service"
	fs "github.com/AnishMulay/tinyfs/internal/file_service"
	is "github.com/AnishMulay/tinyfs/internal/inode_service"
	ofs "github.com/AnishMulay/tinyfs/internal/open_file_service"
	pr "github.com/AnishMulay/tinyfs/internal/path_resolver"
)

// translate joins a table-level error onto the operation taxonomy. Errors
// that are already classified, or that no table produces, pass through.
func translate(err error) error {
	var class error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pr.ErrInvalidPath), errors.Is(err, ds.ErrInvalidName):
		class = fs.ErrInvalidPath
	case errors.Is(err, pr.ErrNotFound), errors.Is(err, ds.ErrNameNotFound), errors.Is(err, is.ErrInodeNotFound):
		class = fs.ErrNotFound
	case errors.Is(err, ds.ErrNameExists):
		class = fs.ErrAlreadyExists
	case errors.Is(err, is.ErrNoFreeInode), errors.Is(err, bs.ErrNoFreeBlock),
		errors.Is(err, ds.ErrDirectoryFull), errors.Is(err, ofs.ErrNoFreeHandle):
		class = fs.ErrExhausted
	case errors.Is(err, ofs.ErrInvalidHandle):
		class = fs.ErrInvalidHandle
	case errors.Is(err, ofs.ErrInvalidOffset), errors.Is(err, is.ErrRootInode):
		class = fs.ErrInvalidOperation
	default:
		return err
	}
	return fmt.Errorf("%w: %w", class, err)
}
