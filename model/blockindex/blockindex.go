package blockindex

import (
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/blockvault/blockidx/model/block"
	"github.com/blockvault/blockidx/model/pow"
	"github.com/blockvault/blockidx/util"
)

// medianTimeSpan is the number of ancestor block times folded into
// GetMedianTimePast; fixed by the consensus collaborator.
const medianTimeSpan = 11

// validationTimeUnset and validationTimeIgnored are the sentinels described
// in the design note on monotonic time: an entry that has never reached
// SCRIPTS validity reports validationTimeUnset (the "infinitely late, thus
// worst" instant); ignoreValidationTime moves an entry to
// validationTimeIgnored (the "earliest, thus best" instant) to promote a
// precious block ahead of its peers in the comparator. Entries loaded from
// the persistent store also start at validationTimeIgnored.
var (
	validationTimeUnset    = time.Unix(1<<62, 0)
	validationTimeIgnored  = time.Time{}
)

// BlockIndex is one node of the header tree: a block's header fields plus
// everything derived from walking the chain up to and including it. The
// owning header map is the only thing that ever frees an entry; every other
// field here (Prev, Skip) is a non-owning back-pointer guaranteed to stay
// alive by that ownership.
type BlockIndex struct {
	// BlockHash is kept inline for simplicity; the design note allows
	// storing it as a borrowed reference into the owning map's key instead,
	// trading 32 bytes per entry for a pointer indirection. Go map access
	// by value doesn't give you that reference, so inline it is.
	BlockHash util.Hash
	Height    int32
	Prev      *BlockIndex
	Skip      *BlockIndex

	// Header fields. HashPrevBlock is intentionally never populated here;
	// GetBlockHeader reconstructs it from Prev.
	Version    int32
	MerkleRoot util.Hash
	Time       uint32
	Bits       uint32
	Nonce      uint32

	ChainWork    big.Int
	TxCount      int32
	ChainTxCount int32
	TimeMax      uint32
	SequenceID   int32
	TimeReceived uint64

	Status Status

	// mu guards fields touched by more than one collaborator thread after
	// installation: disk positions, the soft-rejection counter, and the
	// status flags the writer/pruner/soft-reject API set. chainWork,
	// height, sequenceID, header fields, timeMax, timeReceived, the skip
	// and parent pointers, and chainTx are set once under the header map's
	// write lock at insertion and read afterwards without locking.
	mu                       sync.Mutex
	file                     int32
	dataPos                  uint32
	undoPos                  uint32
	diskMeta                 block.DiskBlockMetaData
	softRejected             int32
	validationCompletionTime time.Time
}

// FromHeader constructs a new, unlinked entry from a parsed header. Callers
// link Prev/Skip, compute chain work, and insert into the header map.
func FromHeader(header *block.BlockHeader) *BlockIndex {
	bi := &BlockIndex{
		Version:                  header.Version,
		MerkleRoot:               header.MerkleRoot,
		Time:                     header.Time,
		Bits:                     header.Bits,
		Nonce:                    header.Nonce,
		TimeReceived:             uint64(header.Time),
		file:                     -1,
		softRejected:             -1,
		validationCompletionTime: validationTimeUnset,
	}
	return bi
}

// LoadPersistentData copies the persistent fields deserialized into other
// onto this entry and links parent. Memory-only statistics (chain work,
// chain_tx, time_max, sequence id) are left at their zero values; the
// caller is expected to recompute them while walking entries by height.
func (bi *BlockIndex) LoadPersistentData(other *BlockIndex, parent *BlockIndex) {
	bi.Height = other.Height
	bi.Status = other.Status
	bi.TxCount = other.TxCount
	bi.file = other.file
	bi.dataPos = other.dataPos
	bi.undoPos = other.undoPos
	bi.Version = other.Version
	bi.MerkleRoot = other.MerkleRoot
	bi.Time = other.Time
	bi.Bits = other.Bits
	bi.Nonce = other.Nonce
	bi.diskMeta = other.diskMeta
	bi.softRejected = other.softRejected
	bi.validationCompletionTime = validationTimeIgnored
	bi.Prev = parent
	bi.SequenceID = 0
}

// SetChainWork establishes invariant 2: chain_work = parent.chain_work +
// block_proof(bits). Called once, under the header-map write lock, when the
// entry is installed.
func (bi *BlockIndex) SetChainWork() {
	proof := pow.BlockProof(bi.Bits)
	if bi.Prev == nil {
		bi.ChainWork = *proof
		return
	}
	bi.ChainWork.Add(&bi.Prev.ChainWork, proof)
}

func (bi *BlockIndex) GetBlockPos() block.DiskBlockPos {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	if !bi.Status.HasData() {
		return block.DiskBlockPos{File: -1}
	}
	return block.DiskBlockPos{File: bi.file, Pos: bi.dataPos}
}

func (bi *BlockIndex) GetUndoPos() block.DiskBlockPos {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	if !bi.Status.HasUndo() {
		return block.DiskBlockPos{File: -1}
	}
	return block.DiskBlockPos{File: bi.file, Pos: bi.undoPos}
}

// SetDiskBlockData stores where the transaction data for this block lives.
// It zeros chain_tx: restoring cumulative contiguity across descendants is
// the external walker's job, not this call's (see the open question on
// set_disk_block_data in the design notes).
func (bi *BlockIndex) SetDiskBlockData(txCount int32, pos block.DiskBlockPos, meta *block.DiskBlockMetaData) {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	bi.TxCount = txCount
	bi.file = pos.File
	bi.dataPos = pos.Pos
	bi.undoPos = 0
	bi.Status = bi.Status.WithData(true)
	bi.Status = bi.raiseValidityLocked(ValidityTransactions)
	if meta != nil && !meta.IsNull() {
		bi.diskMeta = *meta
		bi.Status = bi.Status.WithDiskBlockMetaData(true)
	}
	bi.ChainTxCount = 0
}

// SetDiskBlockMetaData is a standalone setter for callers that learn the
// content hash/size after the fact (e.g. an undo-file writer). hash must be
// non-null and size non-zero; violating that is a programmer error.
func (bi *BlockIndex) SetDiskBlockMetaData(hash util.Hash, size uint64) {
	if hash.IsNull() || size == 0 {
		panic("blockindex: SetDiskBlockMetaData requires a non-null hash and non-zero size")
	}
	bi.mu.Lock()
	defer bi.mu.Unlock()
	bi.diskMeta = block.DiskBlockMetaData{Hash: hash, Size: size}
	bi.Status = bi.Status.WithDiskBlockMetaData(true)
}

// ClearFileInfo undoes HAS_DATA/HAS_UNDO/HAS_DISK_BLOCK_META_DATA and zeros
// the offsets and file number; used by the pruner.
func (bi *BlockIndex) ClearFileInfo() {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	bi.Status = bi.Status.WithData(false).WithUndo(false).WithDiskBlockMetaData(false)
	bi.file = 0
	bi.dataPos = 0
	bi.undoPos = 0
	bi.diskMeta = block.DiskBlockMetaData{}
}

func (bi *BlockIndex) GetFile() int32 {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	return bi.file
}

// GetBlockHeader reconstructs the full wire header, filling in
// HashPrevBlock from the parent (zero for genesis).
func (bi *BlockIndex) GetBlockHeader() block.BlockHeader {
	h := block.BlockHeader{
		Version:    bi.Version,
		MerkleRoot: bi.MerkleRoot,
		Time:       bi.Time,
		Bits:       bi.Bits,
		Nonce:      bi.Nonce,
	}
	if bi.Prev != nil {
		h.HashPrevBlock = bi.Prev.BlockHash
	}
	return h
}

func (bi *BlockIndex) GetBlockHash() util.Hash {
	return bi.BlockHash
}

func (bi *BlockIndex) GetBlockTime() uint32 {
	return bi.Time
}

func (bi *BlockIndex) GetBlockTimeMax() uint32 {
	return bi.TimeMax
}

func (bi *BlockIndex) GetHeaderReceivedTime() uint64 {
	return bi.TimeReceived
}

// GetMedianTimePast implements invariant/property: median (lower median on
// a tie) of up to the last 11 header times walking back via Prev.
func (bi *BlockIndex) GetMedianTimePast() int64 {
	times := make([]int64, 0, medianTimeSpan)
	walk := bi
	for i := 0; i < medianTimeSpan && walk != nil; i++ {
		times = append(times, int64(walk.GetBlockTime()))
		walk = walk.Prev
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times[(len(times)-1)/2]
}

func (bi *BlockIndex) GetHeight() int32 {
	return bi.Height
}

func (bi *BlockIndex) GetChainWork() *big.Int {
	return &bi.ChainWork
}

func (bi *BlockIndex) GetChainTx() int32 {
	return bi.ChainTxCount
}

func (bi *BlockIndex) GetBits() uint32 {
	return bi.Bits
}

func (bi *BlockIndex) GetVersion() int32 {
	return bi.Version
}

func (bi *BlockIndex) IsValid(upTo Validity) bool {
	return bi.Status.IsValid(upTo)
}

// RaiseValidity raises the entry's validity level, returning true iff it
// actually changed. The first time it raises to SCRIPTS it also stamps
// validation_completion_time to now on a monotonic clock; every other
// raise, or any attempt on an invalid or already-sufficient entry, is a
// pure no-op.
func (bi *BlockIndex) RaiseValidity(upTo Validity) bool {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	before := bi.Status
	bi.Status = bi.raiseValidityLocked(upTo)
	return bi.Status != before
}

func (bi *BlockIndex) raiseValidityLocked(upTo Validity) Status {
	s := bi.Status
	if s.IsInvalid() || s.Validity() >= upTo {
		return s
	}
	s = s.WithValidity(upTo)
	if upTo == ValidityScripts && bi.validationCompletionTime.Equal(validationTimeUnset) {
		bi.validationCompletionTime = time.Now()
	}
	return s
}

// IgnoreValidationTime forces validation_completion_time to the earliest
// representable instant, used to promote a "precious" block's priority in
// tip selection.
func (bi *BlockIndex) IgnoreValidationTime() {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	bi.validationCompletionTime = validationTimeIgnored
}

func (bi *BlockIndex) GetValidationCompletionTime() time.Time {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	return bi.validationCompletionTime
}

// IsSoftRejected reports whether this entry itself has been administratively
// disqualified from tip selection.
func (bi *BlockIndex) IsSoftRejected() bool {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	return bi.softRejected >= 0
}

// ShouldBeConsideredSoftRejectedBecauseOfParent reports whether the parent's
// soft-rejection window still covers this entry. Requires a parent.
func (bi *BlockIndex) ShouldBeConsideredSoftRejectedBecauseOfParent() bool {
	if bi.Prev == nil {
		panic("blockindex: ShouldBeConsideredSoftRejectedBecauseOfParent requires a parent")
	}
	bi.Prev.mu.Lock()
	defer bi.Prev.mu.Unlock()
	return bi.Prev.softRejected > 0
}

func (bi *BlockIndex) GetSoftRejectedFor() int32 {
	bi.mu.Lock()
	defer bi.mu.Unlock()
	return bi.softRejected
}

// SetSoftRejectedFor administratively disqualifies this entry (and,
// implicitly, up to n descendants once the caller propagates) from tip
// selection. Precondition: the entry must not already be soft-rejected
// because of its parent — violating that is a programmer error, not a
// runtime failure. The caller must walk every descendant up to
// max(old_counter, n) levels, parent before child, calling
// SetSoftRejectedFromParent on each.
func (bi *BlockIndex) SetSoftRejectedFor(n int32) {
	if n < -1 {
		panic("blockindex: SetSoftRejectedFor requires n >= -1")
	}
	if bi.Prev != nil && bi.ShouldBeConsideredSoftRejectedBecauseOfParent() {
		panic("blockindex: SetSoftRejectedFor called on a block already soft-rejected by inheritance")
	}
	bi.mu.Lock()
	defer bi.mu.Unlock()
	bi.softRejected = n
	bi.Status = bi.Status.WithSoftRejection(n >= 0)
}

// SetSoftRejectedFromParent propagates the parent's counter down by one,
// in parent-before-child traversal order.
func (bi *BlockIndex) SetSoftRejectedFromParent() {
	if bi.Prev == nil {
		panic("blockindex: SetSoftRejectedFromParent requires a parent")
	}
	parentCounter := bi.Prev.GetSoftRejectedFor()
	bi.mu.Lock()
	defer bi.mu.Unlock()
	if parentCounter > 0 {
		bi.softRejected = parentCounter - 1
		bi.Status = bi.Status.WithSoftRejection(true)
	} else {
		bi.softRejected = -1
		bi.Status = bi.Status.WithSoftRejection(false)
	}
}

func (bi *BlockIndex) ToString() string {
	return fmt.Sprintf("BlockIndex(prev=%p, height=%d, merkle=%s, hash=%s)",
		bi.Prev, bi.Height, bi.MerkleRoot.ToString(), bi.BlockHash.ToString())
}

// --- Skiplist navigator (4.D) ---

// invertLowestOne clears the lowest set bit of n.
func invertLowestOne(n int32) int32 {
	return n & (n - 1)
}

// getSkipHeight computes which height BuildSkip should point at for a node
// at the given height.
func getSkipHeight(height int32) int32 {
	if height < 2 {
		return 0
	}
	if height&1 != 0 {
		return invertLowestOne(invertLowestOne(height-1)) + 1
	}
	return invertLowestOne(height)
}

// BuildSkip must run after Prev is set and before the entry is exposed to
// readers; it establishes invariant 9.
func (bi *BlockIndex) BuildSkip() {
	if bi.Prev != nil {
		bi.Skip = bi.Prev.GetAncestor(getSkipHeight(bi.Height))
	}
}

// GetAncestor walks parent/skip pointers to find the unique ancestor at the
// given height in O(log height) steps. Out-of-range heights return nil.
func (bi *BlockIndex) GetAncestor(height int32) *BlockIndex {
	if height > bi.Height || height < 0 {
		return nil
	}
	walk := bi
	walkHeight := bi.Height
	for walkHeight > height {
		skipHeight := getSkipHeight(walkHeight)
		skipHeightPrev := getSkipHeight(walkHeight - 1)
		if walk.Skip != nil && (skipHeight == height ||
			(skipHeight > height && !(skipHeightPrev < skipHeight-2 && skipHeightPrev >= height))) {
			walk = walk.Skip
			walkHeight = skipHeight
		} else {
			if walk.Prev == nil {
				panic("blockindex: GetAncestor walked off the chain")
			}
			walk = walk.Prev
			walkHeight--
		}
	}
	return walk
}
