package block

import (
	"fmt"
	"io"

	"github.com/blockvault/blockidx/util"
)

// DiskBlockPos locates a record inside a blk?????.dat-style file. File == -1
// is the "none" sentinel returned when the corresponding status flag isn't set.
type DiskBlockPos struct {
	File int32
	Pos  uint32
}

type DiskTxPos struct {
	BlockIn    *DiskBlockPos
	TxOffsetIn uint32
}

// DiskBlockMetaData pairs a content hash with its size; present on an entry
// only when HAS_DISK_BLOCK_META_DATA is set.
type DiskBlockMetaData struct {
	Hash util.Hash
	Size uint64
}

func (d *DiskBlockMetaData) IsNull() bool {
	return d.Hash.IsNull() && d.Size == 0
}

func (dbp *DiskBlockPos) Serialize(w io.Writer) error {
	return util.WriteElements(w, &dbp.File, &dbp.Pos)
}

func (dbp *DiskBlockPos) Unserialize(r io.Reader) error {
	return util.ReadElements(r, &dbp.File, &dbp.Pos)
}

func (dtp *DiskTxPos) Serialize(w io.Writer) error {
	if err := dtp.BlockIn.Serialize(w); err != nil {
		return err
	}
	return util.WriteElements(w, dtp.TxOffsetIn)
}

func (dtp *DiskTxPos) Unserialize(r io.Reader) error {
	dbp := new(DiskBlockPos)
	if err := dbp.Unserialize(r); err != nil {
		return err
	}
	dtp.BlockIn = dbp
	return util.ReadElements(r, &dtp.TxOffsetIn)
}

func (dbp *DiskBlockPos) SetNull() {
	dbp.File = -1
	dbp.Pos = 0
}

func (dbp *DiskBlockPos) Equal(other *DiskBlockPos) bool {
	return dbp.Pos == other.Pos && dbp.File == other.File
}

func (dbp *DiskBlockPos) IsNull() bool {
	return dbp.File == -1
}

func (dbp *DiskBlockPos) String() string {
	return fmt.Sprintf("DiskBlockPos(file=%d, pos=%d)", dbp.File, dbp.Pos)
}

func NewDiskBlockPos(file int32, pos uint32) *DiskBlockPos {
	return &DiskBlockPos{File: file, Pos: pos}
}

func NewDiskTxPos(blockIn *DiskBlockPos, offsetIn uint32) *DiskTxPos {
	return &DiskTxPos{BlockIn: blockIn, TxOffsetIn: offsetIn}
}
