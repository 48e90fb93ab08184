package block_service

// BlockID indexes the block pool. NoBlock marks an inode without data.
type BlockID int

const NoBlock BlockID = -1

type BlockStats struct {
	TotalBlocks int
	UsedBlocks  int
	BlockSize   int
}

type BlockService interface {
	// Allocate reserves some free block, zero-filled. The order in which free
	// blocks are handed out is unspecified.
	Allocate() (BlockID, error)

	// Free releases an allocated block. Freeing a block that is not allocated
	// is an ownership bug and panics.
	Free(id BlockID)

	// Get returns a view of an allocated block's bytes. Writes through the
	// slice land in the block. Get on an unallocated block panics.
	Get(id BlockID) []byte

	BlockSize() int
	Stats() BlockStats
}
