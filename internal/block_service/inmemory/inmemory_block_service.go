package inmemory

import (
	"fmt"
	"sync"

	"github.com/AnishMulay/tinyfs/internal/alloctbl"
	bs "github.com/AnishMulay/tinyfs/internal/block_service"
	"github.com/AnishMulay/tinyfs/internal/log_service"
)

// BlockPool is a fixed array of equally sized byte buffers.
type BlockPool struct {
	mu        sync.Mutex
	blockSize int
	blocks    [][]byte
	alloc     *alloctbl.Table[bs.BlockID]
	ls        log_service.LogService
}

func NewBlockPool(count int, blockSize int, ls log_service.LogService) *BlockPool {
	blocks := make([][]byte, count)
	backing := make([]byte, count*blockSize)
	for i := range blocks {
		blocks[i] = backing[i*blockSize : (i+1)*blockSize : (i+1)*blockSize]
	}

	return &BlockPool{
		blockSize: blockSize,
		blocks:    blocks,
		alloc:     alloctbl.New[bs.BlockID](count),
		ls:        ls,
	}
}

func (p *BlockPool) Allocate() (bs.BlockID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.alloc.Alloc()
	if !ok {
		p.ls.Warn(log_service.LogEvent{
			Message:  "Block pool exhausted",
			Metadata: map[string]any{"total": p.alloc.Cap()},
		})
		return bs.NoBlock, bs.ErrNoFreeBlock
	}

	clear(p.blocks[id])
	return id, nil
}

func (p *BlockPool) Free(id bs.BlockID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.alloc.InUse(id) {
		p.ls.Error(log_service.LogEvent{
			Message:  "Free of unallocated block",
			Metadata: map[string]any{"block": id},
		})
		panic(fmt.Sprintf("block_service: free of unallocated block %d", id))
	}
	p.alloc.Free(id)
}

func (p *BlockPool) Get(id bs.BlockID) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.alloc.InUse(id) {
		p.ls.Error(log_service.LogEvent{
			Message:  "Access to unallocated block",
			Metadata: map[string]any{"block": id},
		})
		panic(fmt.Sprintf("block_service: access to unallocated block %d", id))
	}
	return p.blocks[id]
}

func (p *BlockPool) BlockSize() int {
	return p.blockSize
}

func (p *BlockPool) Stats() bs.BlockStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return bs.BlockStats{
		TotalBlocks: p.alloc.Cap(),
		UsedBlocks:  p.alloc.Used(),
		BlockSize:   p.blockSize,
	}
}

var _ bs.BlockService = (*BlockPool)(nil)
