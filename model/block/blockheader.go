package block

import (
	"bytes"
	"fmt"
	"io"

	"github.com/blockvault/blockidx/util"
)

// blockHeaderLength is the fixed wire size of a header: version (4) +
// prev-hash (32) + merkle-root (32) + time (4) + bits (4) + nonce (4).
const blockHeaderLength = 16 + util.Hash256Size*2

// BlockHeader is the fixed 80-byte record identifying a block. The index
// entry built from it does not keep HashPrevBlock around (it is derived
// from the parent pointer); this struct is the wire/value form used when a
// header arrives from outside or is reconstructed for a caller.
type BlockHeader struct {
	Version       int32
	HashPrevBlock util.Hash
	MerkleRoot    util.Hash
	Time          uint32
	Bits          uint32
	Nonce         uint32
}

func NewBlockHeader() *BlockHeader {
	return &BlockHeader{}
}

func (bh *BlockHeader) IsNull() bool {
	return bh.Bits == 0
}

func (bh *BlockHeader) GetBlockTime() int64 {
	return int64(bh.Time)
}

func (bh *BlockHeader) GetHash() util.Hash {
	buf := bytes.NewBuffer(make([]byte, 0, blockHeaderLength))
	_ = bh.Serialize(buf)
	return util.DoubleSHA256(buf.Bytes())
}

func (bh *BlockHeader) SetNull() {
	*bh = BlockHeader{}
}

func (bh *BlockHeader) Serialize(w io.Writer) error {
	return util.WriteElements(w, bh.Version, &bh.HashPrevBlock, &bh.MerkleRoot, bh.Time, bh.Bits, bh.Nonce)
}

func (bh *BlockHeader) Deserialize(r io.Reader) error {
	return util.ReadElements(r, &bh.Version, &bh.HashPrevBlock, &bh.MerkleRoot, &bh.Time, &bh.Bits, &bh.Nonce)
}

func (bh *BlockHeader) String() string {
	hash := bh.GetHash()
	return fmt.Sprintf("BlockHeader(version=%d, hashPrevBlock=%s, merkleRoot=%s, time=%d, bits=%08x, nonce=%d, hash=%s)",
		bh.Version, bh.HashPrevBlock.ToString(), bh.MerkleRoot.ToString(), bh.Time, bh.Bits, bh.Nonce, hash.ToString())
}
