package blockindex

import (
	"io"

	"github.com/blockvault/blockidx/model/block"
	"github.com/blockvault/blockidx/util"
)

// clientVersion is stamped into every persisted record; it lets a future
// loader detect records written by an incompatible build.
const clientVersion = 1

// Serialize writes the persistent fields of bi, in the fixed order the
// loader expects: client version, height, status, tx count, then the
// conditional file-position fields only present when their status flag is
// set, the 80-byte header, and finally the conditional disk-meta and
// soft-rejection fields. Memory-only statistics (chain work, chain_tx,
// time_max, sequence id) and the parent/skip pointers never appear here —
// the parent is re-linked at load time via the header's previous-block hash.
func (bi *BlockIndex) Serialize(w io.Writer) error {
	bi.mu.Lock()
	status := bi.Status
	file := bi.file
	dataPos := bi.dataPos
	undoPos := bi.undoPos
	diskMeta := bi.diskMeta
	softRejected := bi.softRejected
	bi.mu.Unlock()

	if err := util.WriteVarLenInt(w, clientVersion); err != nil {
		return err
	}
	if err := util.WriteVarLenInt(w, uint64(bi.Height)); err != nil {
		return err
	}
	if err := util.WriteVarLenInt(w, uint64(status)); err != nil {
		return err
	}
	if err := util.WriteVarLenInt(w, uint64(bi.TxCount)); err != nil {
		return err
	}
	if status.HasData() || status.HasUndo() {
		if err := util.WriteVarLenInt(w, uint64(file)); err != nil {
			return err
		}
	}
	if status.HasData() {
		if err := util.WriteVarLenInt(w, uint64(dataPos)); err != nil {
			return err
		}
	}
	if status.HasUndo() {
		if err := util.WriteVarLenInt(w, uint64(undoPos)); err != nil {
			return err
		}
	}
	header := bi.GetBlockHeader()
	if err := header.Serialize(w); err != nil {
		return err
	}
	if status.HasDiskBlockMetaData() {
		if err := diskMeta.Hash.Serialize(w); err != nil {
			return err
		}
		if err := util.WriteElements(w, diskMeta.Size); err != nil {
			return err
		}
	}
	if status.HasSoftRejection() {
		if err := util.WriteVarLenInt(w, uint64(uint32(softRejected))); err != nil {
			return err
		}
	}
	return nil
}

// Unserialize populates bi from a record written by Serialize. It returns
// the previous-block hash read from the embedded header since bi itself
// never retains it; the caller looks that hash up in the header map to
// link bi's parent.
func (bi *BlockIndex) Unserialize(r io.Reader) (util.Hash, error) {
	if _, err := util.ReadVarLenInt(r); err != nil {
		return util.HashZero, err
	}

	height, err := util.ReadVarLenInt(r)
	if err != nil {
		return util.HashZero, err
	}
	bi.Height = int32(height)

	statusWord, err := util.ReadVarLenInt(r)
	if err != nil {
		return util.HashZero, err
	}
	status := Status(statusWord)
	bi.Status = status

	txCount, err := util.ReadVarLenInt(r)
	if err != nil {
		return util.HashZero, err
	}
	bi.TxCount = int32(txCount)

	bi.file = -1
	if status.HasData() || status.HasUndo() {
		file, err := util.ReadVarLenInt(r)
		if err != nil {
			return util.HashZero, err
		}
		bi.file = int32(file)
	}
	if status.HasData() {
		pos, err := util.ReadVarLenInt(r)
		if err != nil {
			return util.HashZero, err
		}
		bi.dataPos = uint32(pos)
	}
	if status.HasUndo() {
		pos, err := util.ReadVarLenInt(r)
		if err != nil {
			return util.HashZero, err
		}
		bi.undoPos = uint32(pos)
	}

	var header block.BlockHeader
	if err := header.Deserialize(r); err != nil {
		return util.HashZero, err
	}
	bi.Version = header.Version
	bi.MerkleRoot = header.MerkleRoot
	bi.Time = header.Time
	bi.Bits = header.Bits
	bi.Nonce = header.Nonce

	if status.HasDiskBlockMetaData() {
		var meta block.DiskBlockMetaData
		if err := meta.Hash.Unserialize(r); err != nil {
			return util.HashZero, err
		}
		if err := util.ReadElements(r, &meta.Size); err != nil {
			return util.HashZero, err
		}
		bi.diskMeta = meta
	}

	bi.softRejected = -1
	if status.HasSoftRejection() {
		n, err := util.ReadVarLenInt(r)
		if err != nil {
			return util.HashZero, err
		}
		bi.softRejected = int32(uint32(n))
	}

	bi.validationCompletionTime = validationTimeIgnored
	bi.BlockHash = header.GetHash()
	return header.HashPrevBlock, nil
}
