package block

import (
	"fmt"
	"io"
	"time"

	"github.com/blockvault/blockidx/persist/db"
)

// BlockFileInfo tracks the bookkeeping for one blk?????.dat file; it is
// owned by the block-file writer collaborator, not by an index entry, and
// uses the reflection-based persistent encoding (db.SerializeOP) since none
// of its fields have conditional presence.
type BlockFileInfo struct {
	Blocks      uint32
	Size        uint32
	UndoSize    uint32
	HeightFirst uint32
	HeightLast  uint32
	TimeFirst   uint64
	TimeLast    uint64
}

func (bfi *BlockFileInfo) GetSerializeList() []string {
	return []string{"Blocks", "Size", "UndoSize", "HeightFirst", "HeightLast", "TimeFirst", "TimeLast"}
}

func (bfi *BlockFileInfo) Serialize(w io.Writer) error {
	return db.SerializeOP(w, bfi)
}

func (bfi *BlockFileInfo) Unserialize(r io.Reader) error {
	return db.UnserializeOP(r, bfi)
}

func (bfi *BlockFileInfo) SetNull() {
	*bfi = BlockFileInfo{}
}

func (bfi *BlockFileInfo) AddBlock(height uint32, blockTime uint64) {
	if bfi.Blocks == 0 || bfi.HeightFirst > height {
		bfi.HeightFirst = height
	}
	if bfi.Blocks == 0 || bfi.TimeFirst > blockTime {
		bfi.TimeFirst = blockTime
	}
	bfi.Blocks++
	if height > bfi.HeightLast {
		bfi.HeightLast = height
	}
	if blockTime > bfi.TimeLast {
		bfi.TimeLast = blockTime
	}
}

func (bfi *BlockFileInfo) String() string {
	return fmt.Sprintf("BlockFileInfo(blocks=%d, size=%d, heights=%d...%d, time=%s...%s)",
		bfi.Blocks, bfi.Size, bfi.HeightFirst, bfi.HeightLast,
		time.Unix(int64(bfi.TimeFirst), 0).Format(time.RFC3339),
		time.Unix(int64(bfi.TimeLast), 0).Format(time.RFC3339))
}

func NewBlockFileInfo() *BlockFileInfo {
	return new(BlockFileInfo)
}
