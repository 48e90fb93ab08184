package inmemory

import (
	"sync"

	"github.com/AnishMulay/tinyfs/internal/alloctbl"
	bs "github.com/AnishMulay/tinyfs/internal/block_service"
	is "github.com/AnishMulay/tinyfs/internal/inode_service"
	"github.com/AnishMulay/tinyfs/internal/log_service"
)

// InodeTable keeps inode records in a dense slice indexed by inode number.
// It calls into the block service while holding its own lock, never the
// other way round.
type InodeTable struct {
	mu     sync.RWMutex
	inodes []is.Inode
	alloc  *alloctbl.Table[is.InodeID]
	blocks bs.BlockService
	ls     log_service.LogService
}

func NewInodeTable(count int, blocks bs.BlockService, ls log_service.LogService) *InodeTable {
	return &InodeTable{
		inodes: make([]is.Inode, count),
		alloc:  alloctbl.New[is.InodeID](count),
		blocks: blocks,
		ls:     ls,
	}
}

func (t *InodeTable) Create(kind is.InodeType) (is.InodeID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.alloc.Alloc()
	if !ok {
		t.ls.Warn(log_service.LogEvent{
			Message:  "Inode table exhausted",
			Metadata: map[string]any{"total": t.alloc.Cap()},
		})
		return is.NoInode, is.ErrNoFreeInode
	}

	links := 1
	if kind == is.TypeSymlink {
		links = 0
	}

	t.inodes[id] = is.Inode{
		InodeID:   id,
		Type:      kind,
		Block:     bs.NoBlock,
		LinkCount: links,
	}

	t.ls.Debug(log_service.LogEvent{
		Message:  "Created inode",
		Metadata: map[string]any{"inode": id, "type": kind.String()},
	})
	return id, nil
}

func (t *InodeTable) Delete(id is.InodeID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.alloc.InUse(id) {
		return is.ErrInodeNotFound
	}
	if id == is.RootInodeID {
		return is.ErrRootInode
	}

	inode := &t.inodes[id]
	if inode.HasBlock() {
		t.blocks.Free(inode.Block)
	}
	*inode = is.Inode{InodeID: is.NoInode, Block: bs.NoBlock}
	t.alloc.Free(id)

	t.ls.Debug(log_service.LogEvent{
		Message:  "Deleted inode",
		Metadata: map[string]any{"inode": id},
	})
	return nil
}

func (t *InodeTable) Get(id is.InodeID) (is.Inode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.alloc.InUse(id) {
		return is.Inode{}, is.ErrInodeNotFound
	}
	return t.inodes[id], nil
}

func (t *InodeTable) View(id is.InodeID, fn func(inode is.Inode) error) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.alloc.InUse(id) {
		return is.ErrInodeNotFound
	}
	return fn(t.inodes[id])
}

func (t *InodeTable) Update(id is.InodeID, fn func(inode *is.Inode) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.alloc.InUse(id) {
		return is.ErrInodeNotFound
	}

	draft := t.inodes[id]
	if err := fn(&draft); err != nil {
		return err
	}
	draft.InodeID = id
	t.inodes[id] = draft
	return nil
}

func (t *InodeTable) Truncate(id is.InodeID) error {
	return t.Update(id, func(inode *is.Inode) error {
		if inode.HasBlock() {
			t.blocks.Free(inode.Block)
			inode.Block = bs.NoBlock
		}
		inode.FileSize = 0
		return nil
	})
}

func (t *InodeTable) Stats() is.InodeStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return is.InodeStats{
		TotalInodes: t.alloc.Cap(),
		UsedInodes:  t.alloc.Used(),
	}
}

var _ is.InodeService = (*InodeTable)(nil)
