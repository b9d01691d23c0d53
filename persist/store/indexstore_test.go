package store

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/blockvault/blockidx/model/block"
	"github.com/blockvault/blockidx/model/chain"
	"github.com/blockvault/blockidx/model/chainparams"
	"github.com/blockvault/blockidx/persist/db"
)

func newTestStore(t *testing.T) (*IndexStore, func()) {
	t.Helper()
	path, err := ioutil.TempDir("", "indexstoretest")
	if err != nil {
		t.Fatalf("generate temp db path failed: %s", err)
	}
	s, err := NewIndexStore(&db.DBOption{
		FilePath:  path,
		CacheSize: 1 << 20,
	})
	if err != nil {
		os.RemoveAll(path)
		t.Fatalf("NewIndexStore failed: %s", err)
	}
	return s, func() {
		s.Close()
		os.RemoveAll(path)
	}
}

func TestFlushDirtyThenLoadAllRoundTrip(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	idx := chain.NewIndex(&chainparams.MainNetParams)
	genesis := idx.InsertHeader(&chainparams.GenesisHeader)

	child := block.BlockHeader{
		Version:       1,
		HashPrevBlock: genesis.BlockHash,
		Time:          chainparams.GenesisHeader.Time + 600,
		Bits:          0x1d00ffff,
		Nonce:         1,
	}
	child.MerkleRoot = chainparams.GenesisHeader.MerkleRoot
	tip := idx.InsertHeader(&child)

	if err := s.FlushDirty(idx); err != nil {
		t.Fatalf("FlushDirty: %v", err)
	}
	if len(idx.TakeDirty()) != 0 {
		t.Errorf("expect dirty set drained after FlushDirty")
	}

	loaded := chain.NewIndex(&chainparams.MainNetParams)
	if err := s.LoadAll(loaded); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	loadedGenesis, ok := loaded.GetEntry(genesis.BlockHash)
	if !ok {
		t.Fatalf("expect genesis entry to be loaded")
	}
	if loadedGenesis.Height != 0 {
		t.Errorf("expect loaded genesis height 0, got %d", loadedGenesis.Height)
	}

	loadedTip, ok := loaded.GetEntry(tip.BlockHash)
	if !ok {
		t.Fatalf("expect tip entry to be loaded")
	}
	if loadedTip.Height != 1 {
		t.Errorf("expect loaded tip height 1, got %d", loadedTip.Height)
	}
	if loadedTip.Prev != loadedGenesis {
		t.Errorf("expect FinishLoad to link the tip's parent to the loaded genesis entry")
	}

	best := loaded.BestTip()
	if best != loadedTip {
		t.Errorf("expect the loaded tip to be the best candidate")
	}
}

func TestFlushDirtyReMarksEntriesOnWriteBatchFailure(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	idx := chain.NewIndex(&chainparams.MainNetParams)
	genesis := idx.InsertHeader(&chainparams.GenesisHeader)

	child := block.BlockHeader{
		Version:       1,
		HashPrevBlock: genesis.BlockHash,
		Time:          chainparams.GenesisHeader.Time + 600,
		Bits:          0x1d00ffff,
		Nonce:         1,
	}
	child.MerkleRoot = chainparams.GenesisHeader.MerkleRoot
	idx.InsertHeader(&child)

	if got := len(idx.TakeDirty()); got == 0 {
		t.Fatalf("expect entries to be dirty before flush attempt")
	}
	// TakeDirty above drained the set for the assertion; mark both entries
	// dirty again so FlushDirty below has something to drain itself.
	idx.MarkDirty(genesis)
	idx.MarkDirty(idx.BestTip())

	// Closing the underlying db out from under the store forces
	// WriteBatch to fail, exercising the retry path: nothing should be
	// lost from the dirty set.
	s.dbw.Close()

	if err := s.FlushDirty(idx); err == nil {
		t.Fatalf("expect FlushDirty to fail once the db is closed")
	}

	still := idx.TakeDirty()
	if len(still) != 2 {
		t.Errorf("expect both entries re-marked dirty after a failed flush, got %d", len(still))
	}
}

func TestFlushDirtyNoopOnEmptyDirtySet(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	idx := chain.NewIndex(&chainparams.MainNetParams)
	if err := s.FlushDirty(idx); err != nil {
		t.Fatalf("FlushDirty on empty index: %v", err)
	}
}

func TestBlockFileInfoRoundTrip(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	bfi := block.NewBlockFileInfo()
	bfi.AddBlock(10, 1500000000)
	bfi.AddBlock(11, 1500000600)

	if err := s.WriteBlockFileInfo(3, bfi); err != nil {
		t.Fatalf("WriteBlockFileInfo: %v", err)
	}

	got, err := s.ReadBlockFileInfo(3)
	if err != nil {
		t.Fatalf("ReadBlockFileInfo: %v", err)
	}
	if got.Blocks != bfi.Blocks || got.HeightFirst != bfi.HeightFirst || got.HeightLast != bfi.HeightLast {
		t.Errorf("expect block file info to round-trip, got %+v", got)
	}

	if err := s.WriteLastBlockFile(3); err != nil {
		t.Fatalf("WriteLastBlockFile: %v", err)
	}
}
