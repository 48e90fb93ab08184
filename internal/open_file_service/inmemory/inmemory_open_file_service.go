package inmemory

import (
	"sync"

	"github.com/AnishMulay/tinyfs/internal/alloctbl"
	is "github.com/AnishMulay/tinyfs/internal/inode_service"
	"github.com/AnishMulay/tinyfs/internal/log_service"
	ofs "github.com/AnishMulay/tinyfs/internal/open_file_service"
)

type OpenFileTable struct {
	mu    sync.Mutex
	files []ofs.OpenFile
	alloc *alloctbl.Table[ofs.Handle]
	refs  map[is.InodeID]int
	ls    log_service.LogService
}

func NewOpenFileTable(count int, ls log_service.LogService) *OpenFileTable {
	return &OpenFileTable{
		files: make([]ofs.OpenFile, count),
		alloc: alloctbl.New[ofs.Handle](count),
		refs:  make(map[is.InodeID]int),
		ls:    ls,
	}
}

func (t *OpenFileTable) Register(id is.InodeID, offset int) (ofs.Handle, error) {
	if offset < 0 {
		return ofs.NoHandle, ofs.ErrInvalidOffset
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.alloc.Alloc()
	if !ok {
		t.ls.Warn(log_service.LogEvent{
			Message:  "Open file table exhausted",
			Metadata: map[string]any{"total": t.alloc.Cap(), "inode": id},
		})
		return ofs.NoHandle, ofs.ErrNoFreeHandle
	}

	t.files[h] = ofs.OpenFile{InodeID: id, Offset: offset}
	t.refs[id]++
	return h, nil
}

func (t *OpenFileTable) Get(h ofs.Handle) (ofs.OpenFile, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.alloc.InUse(h) {
		return ofs.OpenFile{}, ofs.ErrInvalidHandle
	}
	return t.files[h], nil
}

func (t *OpenFileTable) SetOffset(h ofs.Handle, offset int) error {
	if offset < 0 {
		return ofs.ErrInvalidOffset
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.alloc.InUse(h) {
		return ofs.ErrInvalidHandle
	}
	t.files[h].Offset = offset
	return nil
}

func (t *OpenFileTable) Release(h ofs.Handle) (ofs.OpenFile, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.alloc.InUse(h) {
		return ofs.OpenFile{}, ofs.ErrInvalidHandle
	}

	file := t.files[h]
	t.files[h] = ofs.OpenFile{InodeID: is.NoInode}
	t.alloc.Free(h)

	if t.refs[file.InodeID]--; t.refs[file.InodeID] <= 0 {
		delete(t.refs, file.InodeID)
	}
	return file, nil
}

func (t *OpenFileTable) OpenCount(id is.InodeID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refs[id]
}

func (t *OpenFileTable) Stats() ofs.OpenFileStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return ofs.OpenFileStats{
		TotalHandles: t.alloc.Cap(),
		UsedHandles:  t.alloc.Used(),
	}
}

var _ ofs.OpenFileService = (*OpenFileTable)(nil)
