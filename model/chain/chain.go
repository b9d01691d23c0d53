// Package chain owns the process-wide header map and dirty set described
// by the design note on explicit state: rather than a package-level
// singleton, collaborators hold an *Index and pass it where needed.
package chain

import (
	"fmt"
	"sort"
	"sync"

	"github.com/blockvault/blockidx/container"
	"github.com/blockvault/blockidx/log"
	"github.com/blockvault/blockidx/model/block"
	"github.com/blockvault/blockidx/model/blockindex"
	"github.com/blockvault/blockidx/model/chainparams"
	"github.com/blockvault/blockidx/util"
	"gopkg.in/eapache/queue.v1"
)

// Index is the header map plus the bookkeeping fork choice and persistence
// need on top of it: an ordered set of candidate tips and a dirty set.
type Index struct {
	params *chainparams.ChainParams

	mu       sync.RWMutex
	entries  map[util.Hash]*blockindex.BlockIndex
	children map[util.Hash][]*blockindex.BlockIndex

	// candidates is kept sorted ascending by tipLess; the best tip is the
	// last element. Membership approximates "known leaves of the header
	// tree": inserting a header removes its parent (now known to have a
	// successor) and adds the header itself.
	candidates []*blockindex.BlockIndex

	dirty *container.DirtySet

	sequenceMu sync.Mutex
	nextSeq    int32
}

// NewIndex returns an empty header map ready to receive a genesis entry,
// either freshly synthesized from params or loaded from a persistent store.
func NewIndex(params *chainparams.ChainParams) *Index {
	return &Index{
		params:   params,
		entries:  make(map[util.Hash]*blockindex.BlockIndex),
		children: make(map[util.Hash][]*blockindex.BlockIndex),
		dirty:    container.NewDirtySet(),
	}
}

// GetEntry looks up a known header by hash.
func (idx *Index) GetEntry(hash util.Hash) (*blockindex.BlockIndex, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	bi, ok := idx.entries[hash]
	return bi, ok
}

func (idx *Index) nextSequenceID() int32 {
	idx.sequenceMu.Lock()
	defer idx.sequenceMu.Unlock()
	id := idx.nextSeq
	idx.nextSeq++
	return id
}

// InsertHeader builds and links a new entry from a freshly received header,
// computes its chain work, builds its skip pointer, and installs it into
// the map and candidate set. It returns the existing entry unchanged if the
// header's hash is already known.
func (idx *Index) InsertHeader(header *block.BlockHeader) *blockindex.BlockIndex {
	hash := header.GetHash()

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.entries[hash]; ok {
		return existing
	}

	bi := blockindex.FromHeader(header)
	bi.BlockHash = hash

	parent, hasParent := idx.entries[header.HashPrevBlock]
	if hasParent {
		bi.Prev = parent
		bi.Height = parent.Height + 1
		bi.TimeMax = uint32(util.MaxU(uint64(parent.TimeMax), uint64(header.Time)))
	} else {
		bi.Height = 0
		bi.TimeMax = header.Time
	}
	bi.BuildSkip()
	bi.SetChainWork()
	bi.SequenceID = idx.nextSequenceID()

	idx.entries[hash] = bi
	idx.children[header.HashPrevBlock] = append(idx.children[header.HashPrevBlock], bi)

	if hasParent {
		idx.removeCandidateLocked(parent)
	}
	idx.addCandidateLocked(bi)
	idx.dirty.Add(bi)

	log.Trace("%v", log.InitLogClosure(func() string {
		return bi.ToString()
	}))

	return bi
}

// LoadEntry installs a deserialized-but-unlinked entry read from the
// persistent store. Call FinishLoad once every record has been loaded to
// link parents, recompute memory-only statistics, and populate the
// candidate set.
func (idx *Index) LoadEntry(bi *blockindex.BlockIndex, prevHash util.Hash) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[bi.BlockHash] = bi
	idx.children[prevHash] = append(idx.children[prevHash], bi)
}

// FinishLoad links every loaded entry's parent pointer, rebuilds skip
// pointers and chain work (both memory-only and dropped by Unserialize),
// and re-establishes the chain_tx contiguity invariant by visiting entries
// in height order, grounding the same approach the original chain-tx
// recompute walker used: an entry only gets a non-zero chain_tx once its
// parent does and it has its own transaction data.
func (idx *Index) FinishLoad() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	ordered := make([]*blockindex.BlockIndex, 0, len(idx.entries))
	for _, bi := range idx.entries {
		ordered = append(ordered, bi)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Height < ordered[j].Height })

	prevHashes := make(map[*blockindex.BlockIndex]util.Hash, len(idx.entries))
	for prevHash, kids := range idx.children {
		for _, kid := range kids {
			prevHashes[kid] = prevHash
		}
	}

	for _, bi := range ordered {
		if bi.Height == 0 {
			continue
		}
		prevHash := prevHashes[bi]
		parent, ok := idx.entries[prevHash]
		if !ok {
			return fmt.Errorf("chain: missing parent %s for loaded entry %s", prevHash.ToString(), bi.BlockHash.ToString())
		}
		bi.Prev = parent
	}

	for _, bi := range ordered {
		bi.BuildSkip()
		bi.SetChainWork()
		if bi.Prev == nil {
			bi.TimeMax = uint32(bi.GetBlockTime())
			if bi.Status.HasData() {
				bi.ChainTxCount = bi.TxCount
			}
			continue
		}
		bi.TimeMax = uint32(util.MaxU(uint64(bi.Prev.TimeMax), uint64(bi.GetBlockTime())))
		if bi.Prev.ChainTxCount > 0 && bi.Status.HasData() {
			bi.ChainTxCount = bi.Prev.ChainTxCount + bi.TxCount
		} else {
			bi.ChainTxCount = 0
		}
	}

	idx.candidates = idx.candidates[:0]
	for hash, bi := range idx.entries {
		if len(idx.children[hash]) == 0 {
			idx.addCandidateLocked(bi)
		}
	}
	return nil
}

func (idx *Index) addCandidateLocked(bi *blockindex.BlockIndex) {
	i := sort.Search(len(idx.candidates), func(i int) bool { return !tipLess(idx.candidates[i], bi) })
	idx.candidates = append(idx.candidates, nil)
	copy(idx.candidates[i+1:], idx.candidates[i:])
	idx.candidates[i] = bi
}

func (idx *Index) removeCandidateLocked(bi *blockindex.BlockIndex) {
	for i, c := range idx.candidates {
		if c == bi {
			idx.candidates = append(idx.candidates[:i], idx.candidates[i+1:]...)
			return
		}
	}
}

// BestTip returns the last element of the ordered candidate set, or nil if
// the map is empty.
func (idx *Index) BestTip() *blockindex.BlockIndex {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if len(idx.candidates) == 0 {
		return nil
	}
	return idx.candidates[len(idx.candidates)-1]
}

// IterOrderedCandidates returns a snapshot of the candidate set, ascending
// (worst first, best last).
func (idx *Index) IterOrderedCandidates() []*blockindex.BlockIndex {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]*blockindex.BlockIndex, len(idx.candidates))
	copy(out, idx.candidates)
	return out
}

// MarkDirty records that bi's persistent representation may now differ
// from what's on disk.
func (idx *Index) MarkDirty(bi *blockindex.BlockIndex) {
	idx.dirty.Add(bi)
}

// TakeDirty drains and returns the dirty set.
func (idx *Index) TakeDirty() []*blockindex.BlockIndex {
	out := idx.dirty.List()
	for _, bi := range out {
		idx.dirty.Remove(bi)
	}
	return out
}

// RaiseValidity raises bi's validity level and marks it dirty if it changed.
func (idx *Index) RaiseValidity(bi *blockindex.BlockIndex, upTo blockindex.Validity) bool {
	if bi.RaiseValidity(upTo) {
		idx.MarkDirty(bi)
		return true
	}
	return false
}

// SetDiskBlockData stores bi's on-disk transaction position and marks it
// dirty. Per the open question on chain_tx contiguity, the caller must
// follow up with PropagateChainTx to restore the cumulative invariant
// across bi's descendants.
func (idx *Index) SetDiskBlockData(bi *blockindex.BlockIndex, txCount int32, pos block.DiskBlockPos, meta *block.DiskBlockMetaData) {
	bi.SetDiskBlockData(txCount, pos, meta)
	idx.MarkDirty(bi)
}

// PropagateChainTx is the external walker the design notes require after
// set_disk_block_data resets chain_tx to zero: starting from root (whose
// own chain_tx is now known), it pushes the contiguous count down through
// every descendant that has its own transaction data, breadth-first so a
// parent's chain_tx is always resolved before its children's.
func (idx *Index) PropagateChainTx(root *blockindex.BlockIndex) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if root.Prev == nil {
		root.ChainTxCount = root.TxCount
	} else if root.Prev.ChainTxCount > 0 && root.Status.HasData() {
		root.ChainTxCount = root.Prev.ChainTxCount + root.TxCount
	} else {
		return
	}

	q := queue.New()
	for _, child := range idx.children[root.BlockHash] {
		q.Add(child)
	}
	for q.Length() > 0 {
		bi := q.Remove().(*blockindex.BlockIndex)
		if bi.Prev.ChainTxCount > 0 && bi.Status.HasData() {
			bi.ChainTxCount = bi.Prev.ChainTxCount + bi.TxCount
			for _, child := range idx.children[bi.BlockHash] {
				q.Add(child)
			}
		}
	}
}

// ClearFileInfo clears bi's disk bookkeeping and marks it dirty.
func (idx *Index) ClearFileInfo(bi *blockindex.BlockIndex) {
	bi.ClearFileInfo()
	idx.MarkDirty(bi)
}

// SetSoftRejectedFor disqualifies bi from tip selection for n levels and
// propagates the counter to every known descendant, parent before child,
// per the soft-rejection protocol.
func (idx *Index) SetSoftRejectedFor(bi *blockindex.BlockIndex, n int32) error {
	oldCounter := bi.GetSoftRejectedFor()
	bi.SetSoftRejectedFor(n)
	idx.MarkDirty(bi)

	depth := oldCounter
	if n > depth {
		depth = n
	}
	if depth <= 0 {
		return nil
	}

	type walkItem struct {
		bi    *blockindex.BlockIndex
		depth int32
	}

	idx.mu.RLock()
	children := append([]*blockindex.BlockIndex{}, idx.children[bi.BlockHash]...)
	idx.mu.RUnlock()

	q := queue.New()
	for _, child := range children {
		q.Add(walkItem{bi: child, depth: 1})
	}
	for q.Length() > 0 {
		item := q.Remove().(walkItem)
		if item.depth > depth {
			continue
		}
		item.bi.SetSoftRejectedFromParent()
		idx.MarkDirty(item.bi)

		idx.mu.RLock()
		grandchildren := idx.children[item.bi.BlockHash]
		idx.mu.RUnlock()
		for _, gc := range grandchildren {
			q.Add(walkItem{bi: gc, depth: item.depth + 1})
		}
	}
	return nil
}

// VerifyCheckpoints returns an error if any checkpoint's hash is known but
// disagrees with the entry recorded at its height.
func (idx *Index) VerifyCheckpoints() error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for _, cp := range idx.params.Checkpoints {
		for _, bi := range idx.entries {
			if bi.Height == cp.Height && !bi.BlockHash.IsEqual(&cp.Hash) {
				return fmt.Errorf("chain: entry at height %d does not match checkpoint %s", cp.Height, cp.Hash.ToString())
			}
		}
	}
	return nil
}
