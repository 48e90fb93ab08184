package simple

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	bs "github.com/AnishMulay/tinyfs/internal/block_service"
	blockmem "github.com/AnishMulay/tinyfs/internal/block_service/inmemory"
	"github.com/AnishMulay/tinyfs/internal/config"
	ds "github.com/AnishMulay/tinyfs/internal/directory_service"
	"github.com/AnishMulay/tinyfs/internal/directory_service/flat"
	fs "github.com/AnishMulay/tinyfs/internal/file_service"
	fsinternal "github.com/AnishMulay/tinyfs/internal/file_service/internal"
	is "github.com/AnishMulay/tinyfs/internal/inode_service"
	inodemem "github.com/AnishMulay/tinyfs/internal/inode_service/inmemory"
	"github.com/AnishMulay/tinyfs/internal/log_service"
	ofs "github.com/AnishMulay/tinyfs/internal/open_file_service"
	filemem "github.com/AnishMulay/tinyfs/internal/open_file_service/inmemory"
	pr "github.com/AnishMulay/tinyfs/internal/path_resolver"
)

// SimpleFileService composes the in-memory tables into one store instance.
//
// Locking: every operation holds lifecycle shared and Stop holds it
// exclusively. Operations that change which names exist (open, close, link,
// symlink, unlink) and the introspection calls also hold ns, so resolution
// and the mutation that follows it see the same namespace. Read and write
// only touch one inode record and run in parallel across inodes.
type SimpleFileService struct {
	lifecycle sync.RWMutex
	ns        sync.Mutex
	running   bool

	params config.Params
	ls     log_service.LogService
	fsID   uuid.UUID

	blocks   bs.BlockService
	inodes   is.InodeService
	dir      ds.DirectoryService
	files    ofs.OpenFileService
	resolver *pr.Resolver
}

func NewSimpleFileService(params config.Params, ls log_service.LogService) *SimpleFileService {
	return &SimpleFileService{
		params: params,
		ls:     ls,
	}
}

// --- Lifecycle ---

func (s *SimpleFileService) Start() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.running {
		return fsinternal.ErrAlreadyRunning
	}
	if err := s.params.Validate(); err != nil {
		return err
	}

	s.ls.Info(log_service.LogEvent{
		Message: "Starting Simple File Service",
		Metadata: map[string]any{
			"inodes":    s.params.MaxInodeCount,
			"blocks":    s.params.MaxBlockCount,
			"handles":   s.params.MaxOpenFilesCount,
			"blockSize": s.params.BlockSize,
		},
	})

	blocks := blockmem.NewBlockPool(s.params.MaxBlockCount, s.params.BlockSize, s.ls)
	inodes := inodemem.NewInodeTable(s.params.MaxInodeCount, blocks, s.ls)

	root, err := inodes.Create(is.TypeDirectory)
	if err != nil {
		return fmt.Errorf("failed to create root directory: %w", err)
	}
	if root != is.RootInodeID {
		s.ls.Error(log_service.LogEvent{
			Message:  "Root directory misplaced",
			Metadata: map[string]any{"inode": root},
		})
		return fsinternal.ErrRootMisplaced
	}

	dir := flat.NewFlatDirectoryService(root, inodes, blocks, s.ls)

	s.blocks = blocks
	s.inodes = inodes
	s.dir = dir
	s.files = filemem.NewOpenFileTable(s.params.MaxOpenFilesCount, s.ls)
	s.resolver = pr.NewResolver(dir, inodes)
	s.fsID = uuid.New()
	s.running = true

	s.ls.Info(log_service.LogEvent{
		Message:  "Simple File Service started",
		Metadata: map[string]any{"fsID": s.fsID.String(), "dirCapacity": dir.Capacity()},
	})
	return nil
}

// Stop waits for in-flight operations and drops every table. Handles still
// open are discarded with them.
func (s *SimpleFileService) Stop() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.running {
		return fs.ErrNotRunning
	}

	s.ls.Info(log_service.LogEvent{
		Message:  "Stopping Simple File Service",
		Metadata: map[string]any{"openHandles": s.files.Stats().UsedHandles},
	})

	s.blocks = nil
	s.inodes = nil
	s.dir = nil
	s.files = nil
	s.resolver = nil
	s.running = false
	return nil
}

// Configure replaces the capacities used by the next Start.
func (s *SimpleFileService) Configure(params config.Params) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.running {
		return fsinternal.ErrAlreadyRunning
	}
	if err := params.Validate(); err != nil {
		return err
	}
	s.params = params
	return nil
}

func (s *SimpleFileService) enter(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.lifecycle.RLock()
	if !s.running {
		s.lifecycle.RUnlock()
		return nil, fs.ErrNotRunning
	}
	return s.lifecycle.RUnlock, nil
}

// --- Data path ---

func (s *SimpleFileService) Open(ctx context.Context, path string, mode fs.OpenMode) (int, error) {
	release, err := s.enter(ctx)
	if err != nil {
		return -1, err
	}
	defer release()

	s.ls.Debug(log_service.LogEvent{
		Message:  "Open Request",
		Metadata: map[string]any{"path": path, "mode": int(mode)},
	})

	name, err := pr.Name(path)
	if err != nil {
		return -1, translate(err)
	}

	s.ns.Lock()
	defer s.ns.Unlock()

	var (
		id     is.InodeID
		offset int
	)

	// 1. An existing entry is followed to the file it finally names.
	_, err = s.resolver.Lookup(path)
	switch {
	case err == nil:
		var inode is.Inode
		id, inode, err = s.resolver.Resolve(path)
		if err != nil {
			return -1, translate(err)
		}
		if mode.Has(fs.OpenTruncate) {
			if err := s.inodes.Truncate(id); err != nil {
				return -1, translate(err)
			}
			inode.FileSize = 0
		}
		if mode.Has(fs.OpenAppend) {
			offset = inode.FileSize
		}

	// 2. A missing entry is created on request.
	case errors.Is(err, pr.ErrNotFound) && mode.Has(fs.OpenCreate):
		id, err = s.create(name)
		if err != nil {
			return -1, err
		}

	default:
		return -1, translate(err)
	}

	// 3. Register the session.
	h, err := s.files.Register(id, offset)
	if err != nil {
		return -1, translate(err)
	}
	return int(h), nil
}

func (s *SimpleFileService) create(name string) (is.InodeID, error) {
	id, err := s.inodes.Create(is.TypeFile)
	if err != nil {
		return is.NoInode, translate(err)
	}
	if err := s.dir.Add(name, id); err != nil {
		s.rollback(id, name, err)
		return is.NoInode, translate(err)
	}
	return id, nil
}

func (s *SimpleFileService) Write(ctx context.Context, fd int, data []byte) (int, error) {
	release, err := s.enter(ctx)
	if err != nil {
		return -1, err
	}
	defer release()

	h := ofs.Handle(fd)
	file, err := s.files.Get(h)
	if err != nil {
		return -1, translate(err)
	}

	blockSize := s.blocks.BlockSize()
	n := 0
	err = s.inodes.Update(file.InodeID, func(inode *is.Inode) error {
		// Files are one block long; the rest of the buffer is dropped.
		n = min(len(data), max(blockSize-file.Offset, 0))
		if n == 0 {
			return nil
		}
		if !inode.HasBlock() {
			b, err := s.blocks.Allocate()
			if err != nil {
				return err
			}
			inode.Block = b
		}
		copy(s.blocks.Get(inode.Block)[file.Offset:], data[:n])
		if end := file.Offset + n; end > inode.FileSize {
			inode.FileSize = end
		}
		return nil
	})
	if errors.Is(err, is.ErrInodeNotFound) {
		s.corrupted("Open handle references unallocated inode", fd, file.InodeID)
	}
	if err != nil {
		return -1, translate(err)
	}

	if err := s.files.SetOffset(h, file.Offset+n); err != nil {
		return -1, translate(err)
	}
	return n, nil
}

func (s *SimpleFileService) Read(ctx context.Context, fd int, buf []byte) (int, error) {
	release, err := s.enter(ctx)
	if err != nil {
		return -1, err
	}
	defer release()

	h := ofs.Handle(fd)
	file, err := s.files.Get(h)
	if err != nil {
		return -1, translate(err)
	}

	n := 0
	err = s.inodes.View(file.InodeID, func(inode is.Inode) error {
		n = min(len(buf), max(inode.FileSize-file.Offset, 0))
		if n == 0 {
			return nil
		}
		if !inode.HasBlock() {
			s.corrupted("Non-empty inode owns no block", fd, file.InodeID)
		}
		copy(buf[:n], s.blocks.Get(inode.Block)[file.Offset:])
		return nil
	})
	if errors.Is(err, is.ErrInodeNotFound) {
		s.corrupted("Open handle references unallocated inode", fd, file.InodeID)
	}
	if err != nil {
		return -1, translate(err)
	}

	if err := s.files.SetOffset(h, file.Offset+n); err != nil {
		return -1, translate(err)
	}
	return n, nil
}

func (s *SimpleFileService) Close(ctx context.Context, fd int) error {
	release, err := s.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	s.ns.Lock()
	defer s.ns.Unlock()

	file, err := s.files.Release(ofs.Handle(fd))
	if err != nil {
		return translate(err)
	}
	s.reclaim(file.InodeID)
	return nil
}

// --- Namespace ---

func (s *SimpleFileService) Link(ctx context.Context, target, name string) error {
	release, err := s.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	s.ls.Debug(log_service.LogEvent{
		Message:  "Link Request",
		Metadata: map[string]any{"target": target, "name": name},
	})

	linkName, err := pr.Name(name)
	if err != nil {
		return translate(err)
	}

	s.ns.Lock()
	defer s.ns.Unlock()

	// 1. The target's own entry, without following symbolic links.
	id, err := s.resolver.Lookup(target)
	if err != nil {
		return translate(err)
	}
	inode := s.mustGet(id)
	switch {
	case inode.Type == is.TypeSymlink:
		return fmt.Errorf("%w: %w", fs.ErrInvalidOperation, fsinternal.ErrLinkToSymlink)
	case inode.LinkCount == 0:
		return fmt.Errorf("%w: %w", fs.ErrInvalidOperation, fsinternal.ErrLinkToOrphan)
	}

	// 2. Add the entry, then count it.
	if err := s.dir.Add(linkName, id); err != nil {
		return translate(err)
	}
	err = s.inodes.Update(id, func(inode *is.Inode) error {
		inode.LinkCount++
		return nil
	})
	if err != nil {
		if rmErr := s.dir.Remove(linkName); rmErr != nil {
			s.ls.Error(log_service.LogEvent{
				Message:  "Failed to roll back link entry",
				Metadata: map[string]any{"name": linkName, "error": rmErr.Error()},
			})
		}
		return translate(err)
	}
	return nil
}

func (s *SimpleFileService) Symlink(ctx context.Context, target, name string) error {
	release, err := s.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	s.ls.Debug(log_service.LogEvent{
		Message:  "Symlink Request",
		Metadata: map[string]any{"target": target, "name": name},
	})

	switch {
	case target == "":
		return fmt.Errorf("%w: %w", fs.ErrInvalidPath, fsinternal.ErrTargetEmpty)
	case len(target) > fs.MaxSymlinkTargetLen:
		return fmt.Errorf("%w: %w", fs.ErrInvalidPath, fsinternal.ErrTargetTooLong)
	}
	linkName, err := pr.Name(name)
	if err != nil {
		return translate(err)
	}

	s.ns.Lock()
	defer s.ns.Unlock()

	id, err := s.inodes.Create(is.TypeSymlink)
	if err != nil {
		return translate(err)
	}
	err = s.inodes.Update(id, func(inode *is.Inode) error {
		inode.SymlinkTarget = target
		return nil
	})
	if err == nil {
		err = s.dir.Add(linkName, id)
	}
	if err != nil {
		s.rollback(id, linkName, err)
		return translate(err)
	}
	return nil
}

func (s *SimpleFileService) Unlink(ctx context.Context, path string) error {
	release, err := s.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	s.ls.Debug(log_service.LogEvent{
		Message:  "Unlink Request",
		Metadata: map[string]any{"path": path},
	})

	name, err := pr.Name(path)
	if err != nil {
		return translate(err)
	}

	s.ns.Lock()
	defer s.ns.Unlock()

	id, err := s.resolver.Lookup(path)
	if err != nil {
		return translate(err)
	}
	inode := s.mustGet(id)

	if err := s.dir.Remove(name); err != nil {
		return translate(err)
	}

	// Symbolic links own nothing shared and go with their entry.
	if inode.Type == is.TypeSymlink {
		return translate(s.inodes.Delete(id))
	}

	err = s.inodes.Update(id, func(inode *is.Inode) error {
		inode.LinkCount--
		return nil
	})
	if err != nil {
		return translate(err)
	}
	s.reclaim(id)
	return nil
}

// --- Introspection ---

func (s *SimpleFileService) Stat(ctx context.Context, path string) (*fs.Attributes, error) {
	return s.stat(ctx, path, true)
}

func (s *SimpleFileService) Lstat(ctx context.Context, path string) (*fs.Attributes, error) {
	return s.stat(ctx, path, false)
}

func (s *SimpleFileService) stat(ctx context.Context, path string, follow bool) (*fs.Attributes, error) {
	release, err := s.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	s.ns.Lock()
	defer s.ns.Unlock()

	var inode is.Inode
	if follow {
		_, inode, err = s.resolver.Resolve(path)
	} else {
		var id is.InodeID
		if id, err = s.resolver.Lookup(path); err == nil {
			inode = s.mustGet(id)
		}
	}
	if err != nil {
		return nil, translate(err)
	}
	return attributes(inode), nil
}

func (s *SimpleFileService) ReadDir(ctx context.Context) ([]fs.DirEntry, error) {
	release, err := s.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	s.ns.Lock()
	defer s.ns.Unlock()

	entries, err := s.dir.List()
	if err != nil {
		return nil, translate(err)
	}

	result := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		inode := s.mustGet(e.InodeID)
		result = append(result, fs.DirEntry{
			Name:    e.Name,
			InodeID: int(e.InodeID),
			Type:    inode.Type.String(),
		})
	}
	return result, nil
}

func (s *SimpleFileService) GetFsStat(ctx context.Context) (*fs.FileSystemStats, error) {
	release, err := s.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	inodes := s.inodes.Stats()
	blocks := s.blocks.Stats()
	files := s.files.Stats()

	return &fs.FileSystemStats{
		TotalInodes:  inodes.TotalInodes,
		UsedInodes:   inodes.UsedInodes,
		TotalBlocks:  blocks.TotalBlocks,
		UsedBlocks:   blocks.UsedBlocks,
		TotalHandles: files.TotalHandles,
		UsedHandles:  files.UsedHandles,
		DirEntries:   s.dir.Len(),
		DirCapacity:  s.dir.Capacity(),
	}, nil
}

func (s *SimpleFileService) GetFsInfo(ctx context.Context) (*fs.FileSystemInfo, error) {
	release, err := s.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return &fs.FileSystemInfo{
		FsID:                s.fsID.String(),
		BlockSize:           s.params.BlockSize,
		MaxFileSize:         s.params.BlockSize,
		MaxNameLen:          ds.MaxNameLen,
		MaxSymlinkTargetLen: fs.MaxSymlinkTargetLen,
		MaxSymlinkHops:      pr.MaxSymlinkHops,
		DirCapacity:         s.dir.Capacity(),
	}, nil
}

// --- Helpers ---

// reclaim deletes a file inode once neither a directory entry nor an open
// handle references it. Caller holds ns.
func (s *SimpleFileService) reclaim(id is.InodeID) {
	inode, err := s.inodes.Get(id)
	if err != nil || inode.Type == is.TypeDirectory || inode.LinkCount > 0 {
		return
	}
	if open := s.files.OpenCount(id); open > 0 {
		s.ls.Debug(log_service.LogEvent{
			Message:  "Inode unlinked while open, deferring delete",
			Metadata: map[string]any{"inode": id, "openHandles": open},
		})
		return
	}
	if err := s.inodes.Delete(id); err != nil {
		s.ls.Error(log_service.LogEvent{
			Message:  "Failed to delete unreferenced inode",
			Metadata: map[string]any{"inode": id, "error": err.Error()},
		})
		return
	}
	s.ls.Debug(log_service.LogEvent{
		Message:  "Deleted unreferenced inode",
		Metadata: map[string]any{"inode": id},
	})
}

// rollback deletes an inode whose directory entry could not be added.
func (s *SimpleFileService) rollback(id is.InodeID, name string, cause error) {
	s.ls.Warn(log_service.LogEvent{
		Message:  "Rolling back inode after failed directory insert",
		Metadata: map[string]any{"inode": id, "name": name, "error": cause.Error()},
	})
	if err := s.inodes.Delete(id); err != nil {
		s.ls.Error(log_service.LogEvent{
			Message:  "Failed to roll back inode",
			Metadata: map[string]any{"inode": id, "error": err.Error()},
		})
	}
}

// mustGet fetches an inode that a directory entry points at.
func (s *SimpleFileService) mustGet(id is.InodeID) is.Inode {
	inode, err := s.inodes.Get(id)
	if err != nil {
		s.ls.Error(log_service.LogEvent{
			Message:  "Directory entry references unallocated inode",
			Metadata: map[string]any{"inode": id},
		})
		panic(fmt.Sprintf("file_service: directory entry references unallocated inode %d", id))
	}
	return inode
}

func (s *SimpleFileService) corrupted(msg string, fd int, id is.InodeID) {
	s.ls.Error(log_service.LogEvent{
		Message:  msg,
		Metadata: map[string]any{"fd": fd, "inode": id},
	})
	panic(fmt.Sprintf("file_service: %s (fd %d, inode %d)", msg, fd, id))
}

func attributes(inode is.Inode) *fs.Attributes {
	return &fs.Attributes{
		InodeID:   int(inode.InodeID),
		Type:      inode.Type.String(),
		Size:      inode.FileSize,
		LinkCount: inode.LinkCount,
		HasBlock:  inode.HasBlock(),
		Target:    inode.SymlinkTarget,
	}
}

var _ fs.FileService = (*SimpleFileService)(nil)
