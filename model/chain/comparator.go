package chain

import (
	"unsafe"

	"github.com/blockvault/blockidx/model/blockindex"
)

// tipLess implements the total order fork choice uses to pick the best
// candidate tip: a < b iff the first criterion below that differs puts a
// below b. Equal pointers are never less than themselves.
func tipLess(a, b *blockindex.BlockIndex) bool {
	if a == b {
		return false
	}

	workCmp := a.ChainWork.Cmp(&b.ChainWork)
	if workCmp != 0 {
		return workCmp < 0
	}

	aTime := a.GetValidationCompletionTime()
	bTime := b.GetValidationCompletionTime()
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}

	if a.SequenceID != b.SequenceID {
		return a.SequenceID > b.SequenceID
	}

	// Only reachable for disk-loaded entries, which all share sequence id 0
	// and the minimum validation time; fall back to a stable, arbitrary but
	// deterministic-per-process tie-break.
	return uintptr(unsafe.Pointer(a)) < uintptr(unsafe.Pointer(b))
}
