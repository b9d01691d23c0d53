package block

import (
	"io"

	"github.com/blockvault/blockidx/util"
)

// Block is the on-disk unit the block-file writer appends to a blk?????.dat
// file: a header plus the raw transaction payload. The index core never
// parses Body — transaction validation is an external collaborator's job —
// it only needs the byte count to size disk records.
type Block struct {
	Header BlockHeader
	Body   []byte
}

func NewBlock() *Block {
	return &Block{}
}

func (bl *Block) GetBlockHeader() BlockHeader {
	return bl.Header
}

func (bl *Block) SetNull() {
	bl.Header.SetNull()
	bl.Body = nil
}

func (bl *Block) Serialize(w io.Writer) error {
	if err := bl.Header.Serialize(w); err != nil {
		return err
	}
	if err := util.WriteVarBytes(w, bl.Body); err != nil {
		return err
	}
	return nil
}

func (bl *Block) Unserialize(r io.Reader) error {
	if err := bl.Header.Deserialize(r); err != nil {
		return err
	}
	body, err := util.ReadVarBytes(r, util.MaxBlockSerializedSize, "block body")
	if err != nil {
		return err
	}
	bl.Body = body
	return nil
}

func (bl *Block) SerializeSize() int {
	return blockHeaderLength + int(util.VarIntSerializeSize(uint64(len(bl.Body)))) + len(bl.Body)
}
