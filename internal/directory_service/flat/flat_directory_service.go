package flat

import (
	"bytes"
	"encoding/binary"
	"sort"
	"sync"

	bs "github.com/AnishMulay/tinyfs/internal/block_service"
	ds "github.com/AnishMulay/tinyfs/internal/directory_service"
	is "github.com/AnishMulay/tinyfs/internal/inode_service"
	"github.com/AnishMulay/tinyfs/internal/log_service"
)

// FlatDirectoryService stores fixed-size entries in the single data block of
// the root inode. The block is allocated on the first Add and kept for the
// lifetime of the store. A slot whose name field starts with a zero byte is
// free.
type FlatDirectoryService struct {
	mu       sync.RWMutex
	root     is.InodeID
	inodes   is.InodeService
	blocks   bs.BlockService
	capacity int
	count    int
	ls       log_service.LogService
}

func NewFlatDirectoryService(root is.InodeID, inodes is.InodeService, blocks bs.BlockService, ls log_service.LogService) *FlatDirectoryService {
	return &FlatDirectoryService{
		root:     root,
		inodes:   inodes,
		blocks:   blocks,
		capacity: ds.CapacityFor(blocks.BlockSize()),
		ls:       ls,
	}
}

func (d *FlatDirectoryService) Lookup(name string) (is.InodeID, error) {
	if err := ds.ValidName(name); err != nil {
		return is.NoInode, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	block, err := d.block()
	if err != nil {
		return is.NoInode, err
	}
	if block == nil {
		return is.NoInode, ds.ErrNameNotFound
	}

	if slot := d.find(block, name); slot >= 0 {
		return decodeID(entryAt(block, slot)), nil
	}
	return is.NoInode, ds.ErrNameNotFound
}

func (d *FlatDirectoryService) Add(name string, id is.InodeID) error {
	if err := ds.ValidName(name); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capacity == 0 {
		return ds.ErrDirectoryFull
	}

	block, err := d.ensureBlock()
	if err != nil {
		return err
	}

	if d.find(block, name) >= 0 {
		return ds.ErrNameExists
	}

	free := -1
	for slot := 0; slot < d.capacity; slot++ {
		if entryAt(block, slot)[0] == 0 {
			free = slot
			break
		}
	}
	if free < 0 {
		d.ls.Warn(log_service.LogEvent{
			Message:  "Directory full",
			Metadata: map[string]any{"capacity": d.capacity, "name": name},
		})
		return ds.ErrDirectoryFull
	}

	entry := entryAt(block, free)
	clear(entry)
	copy(entry[:ds.MaxNameLen], name)
	binary.LittleEndian.PutUint32(entry[ds.MaxNameLen:], uint32(id))

	return d.resize(d.count + 1)
}

func (d *FlatDirectoryService) Remove(name string) error {
	if err := ds.ValidName(name); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	block, err := d.block()
	if err != nil {
		return err
	}
	if block == nil {
		return ds.ErrNameNotFound
	}

	slot := d.find(block, name)
	if slot < 0 {
		return ds.ErrNameNotFound
	}
	clear(entryAt(block, slot))

	return d.resize(d.count - 1)
}

func (d *FlatDirectoryService) List() ([]ds.Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	block, err := d.block()
	if err != nil || block == nil {
		return nil, err
	}

	entries := make([]ds.Entry, 0, d.count)
	for slot := 0; slot < d.capacity; slot++ {
		entry := entryAt(block, slot)
		if entry[0] == 0 {
			continue
		}
		entries = append(entries, ds.Entry{Name: decodeName(entry), InodeID: decodeID(entry)})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (d *FlatDirectoryService) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.count
}

func (d *FlatDirectoryService) Capacity() int {
	return d.capacity
}

// block returns the root block, or nil if none has been allocated yet.
func (d *FlatDirectoryService) block() ([]byte, error) {
	root, err := d.inodes.Get(d.root)
	if err != nil {
		return nil, err
	}
	if !root.HasBlock() {
		return nil, nil
	}
	return d.blocks.Get(root.Block), nil
}

func (d *FlatDirectoryService) ensureBlock() ([]byte, error) {
	var id bs.BlockID
	err := d.inodes.Update(d.root, func(root *is.Inode) error {
		if !root.HasBlock() {
			b, err := d.blocks.Allocate()
			if err != nil {
				return err
			}
			root.Block = b
			d.ls.Debug(log_service.LogEvent{
				Message:  "Allocated root directory block",
				Metadata: map[string]any{"block": b},
			})
		}
		id = root.Block
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d.blocks.Get(id), nil
}

func (d *FlatDirectoryService) resize(count int) error {
	d.count = count
	return d.inodes.Update(d.root, func(root *is.Inode) error {
		root.FileSize = count * ds.EntrySize
		return nil
	})
}

func (d *FlatDirectoryService) find(block []byte, name string) int {
	for slot := 0; slot < d.capacity; slot++ {
		entry := entryAt(block, slot)
		if entry[0] != 0 && decodeName(entry) == name {
			return slot
		}
	}
	return -1
}

func entryAt(block []byte, slot int) []byte {
	off := slot * ds.EntrySize
	return block[off : off+ds.EntrySize]
}

func decodeName(entry []byte) string {
	field := entry[:ds.MaxNameLen]
	if n := bytes.IndexByte(field, 0); n >= 0 {
		field = field[:n]
	}
	return string(field)
}

func decodeID(entry []byte) is.InodeID {
	return is.InodeID(binary.LittleEndian.Uint32(entry[ds.MaxNameLen:]))
}

var _ ds.DirectoryService = (*FlatDirectoryService)(nil)
