// Package store is the persistence collaborator: it owns the on-disk
// leveldb handle and moves index entries between it and an in-memory
// *chain.Index, draining the dirty set on flush.
package store

import (
	"bytes"

	"github.com/blockvault/blockidx/model/block"
	"github.com/blockvault/blockidx/model/blockindex"
	"github.com/blockvault/blockidx/model/chain"
	"github.com/blockvault/blockidx/persist/db"
	"github.com/blockvault/blockidx/util"
)

// IndexStore is a thin leveldb-backed store for block index entries and
// block-file bookkeeping, keyed the way the on-disk format has always used:
// a one-byte prefix plus, for index entries, the block hash.
type IndexStore struct {
	dbw *db.DBWrapper
}

func NewIndexStore(option *db.DBOption) (*IndexStore, error) {
	dbw, err := db.NewDBWrapper(option)
	if err != nil {
		return nil, err
	}
	return &IndexStore{dbw: dbw}, nil
}

func (s *IndexStore) Close() {
	s.dbw.Close()
}

func indexKey(hash util.Hash) []byte {
	key := make([]byte, 0, 33)
	key = append(key, db.DbBlockIndex)
	key = append(key, hash[:]...)
	return key
}

// LoadAll walks every persisted index record and installs it into idx via
// LoadEntry, then links parents and recomputes memory-only statistics with
// a single FinishLoad call.
func (s *IndexStore) LoadAll(idx *chain.Index) error {
	prefix := []byte{db.DbBlockIndex}

	it := s.dbw.Iterator()
	defer it.Close()
	it.Seek(prefix)
	for it.Valid() {
		key := it.GetKey()
		if len(key) == 0 || key[0] != db.DbBlockIndex {
			break
		}
		val := it.GetVal()
		bi := &blockindex.BlockIndex{}
		prevHash, err := bi.Unserialize(bytes.NewReader(val))
		if err != nil {
			return err
		}
		idx.LoadEntry(bi, prevHash)
		it.Next()
	}
	return idx.FinishLoad()
}

// FlushDirty drains idx's dirty set and writes every entry in a single
// leveldb batch, synchronously. Any entry that doesn't make it to disk,
// whether because it failed to serialize or because the batch write itself
// failed, is re-marked dirty so a later call retries it.
func (s *IndexStore) FlushDirty(idx *chain.Index) error {
	dirty := idx.TakeDirty()
	if len(dirty) == 0 {
		return nil
	}

	batch := db.NewBatchWrapper(s.dbw)
	for i, bi := range dirty {
		buf := bytes.NewBuffer(nil)
		if err := bi.Serialize(buf); err != nil {
			for _, pending := range dirty[i:] {
				idx.MarkDirty(pending)
			}
			return err
		}
		hash := bi.GetBlockHash()
		batch.Write(indexKey(hash), buf.Bytes())
	}

	if err := s.dbw.WriteBatch(batch, true); err != nil {
		for _, bi := range dirty {
			idx.MarkDirty(bi)
		}
		return err
	}
	return nil
}

// ReadBlockFileInfo reads one blk?????.dat file's bookkeeping record.
func (s *IndexStore) ReadBlockFileInfo(file uint32) (*block.BlockFileInfo, error) {
	key := make([]byte, 0, 5)
	key = append(key, db.DbBlockFiles)
	key = append(key, byte(file>>24), byte(file>>16), byte(file>>8), byte(file))
	buf, err := s.dbw.Read(key)
	if err != nil {
		return nil, err
	}
	bfi := block.NewBlockFileInfo()
	if err := bfi.Unserialize(bytes.NewReader(buf)); err != nil {
		return nil, err
	}
	return bfi, nil
}

// WriteBlockFileInfo persists one blk?????.dat file's bookkeeping record.
func (s *IndexStore) WriteBlockFileInfo(file uint32, bfi *block.BlockFileInfo) error {
	key := make([]byte, 0, 5)
	key = append(key, db.DbBlockFiles)
	key = append(key, byte(file>>24), byte(file>>16), byte(file>>8), byte(file))
	buf := bytes.NewBuffer(nil)
	if err := bfi.Serialize(buf); err != nil {
		return err
	}
	return s.dbw.Write(key, buf.Bytes(), false)
}

// WriteLastBlockFile persists the index of the file currently being
// appended to, so the writer knows where to resume after a restart.
func (s *IndexStore) WriteLastBlockFile(file uint32) error {
	val := []byte{byte(file >> 24), byte(file >> 16), byte(file >> 8), byte(file)}
	return s.dbw.Write([]byte{db.DbLastBlock}, val, false)
}
