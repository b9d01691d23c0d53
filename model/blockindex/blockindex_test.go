package blockindex

import (
	"bytes"
	"testing"

	"github.com/blockvault/blockidx/model/block"
)

func TestGetAncestorLinearChain(t *testing.T) {
	const chainLength = 1025
	entries := make([]*BlockIndex, chainLength)
	for i := 0; i < chainLength; i++ {
		bi := &BlockIndex{Height: int32(i)}
		if i > 0 {
			bi.Prev = entries[i-1]
		}
		bi.BuildSkip()
		entries[i] = bi
	}

	tip := entries[chainLength-1]
	if tip.GetAncestor(0) != entries[0] {
		t.Errorf("expect get_ancestor(0) to return genesis")
	}
	if tip.GetAncestor(int32(chainLength-1)) != tip {
		t.Errorf("expect get_ancestor(height) to return the tip itself")
	}
	if tip.GetAncestor(513) != entries[513] {
		t.Errorf("expect get_ancestor(513) to return the entry at height 513")
	}

	hops := countAncestorHops(tip, 0)
	if hops > 20 {
		t.Errorf("expect at most 20 parent/skip hops from tip to genesis, got %d", hops)
	}
}

// countAncestorHops mirrors GetAncestor's walk to instrument hop count; kept
// in lockstep with the production loop in blockindex.go.
func countAncestorHops(bi *BlockIndex, height int32) int {
	walk := bi
	walkHeight := bi.Height
	hops := 0
	for walkHeight > height {
		skipHeight := getSkipHeight(walkHeight)
		skipHeightPrev := getSkipHeight(walkHeight - 1)
		if walk.Skip != nil && (skipHeight == height ||
			(skipHeight > height && !(skipHeightPrev < skipHeight-2 && skipHeightPrev >= height))) {
			walk = walk.Skip
			walkHeight = skipHeight
		} else {
			walk = walk.Prev
			walkHeight--
		}
		hops++
	}
	return hops
}

func TestGetMedianTimePastFullWindow(t *testing.T) {
	var entries [11]*BlockIndex
	for i := 0; i < 11; i++ {
		entries[i] = &BlockIndex{Time: uint32((i + 1) * 100), Height: int32(i)}
		if i > 0 {
			entries[i].Prev = entries[i-1]
		}
	}
	// times are 100..1100; the median of 11 sorted values is the 6th
	// smallest, 600.
	got := entries[10].GetMedianTimePast()
	if got != 600 {
		t.Errorf("expect median time past 600, got %d", got)
	}
}

func TestGetMedianTimePastEvenWindowTakesLowerMedian(t *testing.T) {
	var entries [10]*BlockIndex
	for i := 0; i < 10; i++ {
		entries[i] = &BlockIndex{Time: uint32((i + 1) * 100), Height: int32(i)}
		if i > 0 {
			entries[i].Prev = entries[i-1]
		}
	}
	// times are 100..1000; sorted, the two middle values are the 5th and
	// 6th smallest (500 and 600). The lower median, 500, is at index 4.
	got := entries[9].GetMedianTimePast()
	if got != 500 {
		t.Errorf("expect median time past 500 (lower median), got %d", got)
	}
}

func TestSoftRejectionPropagation(t *testing.T) {
	g := &BlockIndex{Height: 0, softRejected: -1}
	a := &BlockIndex{Height: 1, Prev: g, softRejected: -1}
	b := &BlockIndex{Height: 2, Prev: a, softRejected: -1}
	c := &BlockIndex{Height: 3, Prev: b, softRejected: -1}
	d := &BlockIndex{Height: 4, Prev: c, softRejected: -1}

	a.SetSoftRejectedFor(2)
	b.SetSoftRejectedFromParent()
	c.SetSoftRejectedFromParent()
	d.SetSoftRejectedFromParent()

	cases := []struct {
		name         string
		entry        *BlockIndex
		wantCounter  int32
		wantHasFlag  bool
	}{
		{"a", a, 2, true},
		{"b", b, 1, true},
		{"c", c, 0, true},
		{"d", d, -1, false},
	}
	for _, tc := range cases {
		if tc.entry.GetSoftRejectedFor() != tc.wantCounter {
			t.Errorf("%s: expect counter %d, got %d", tc.name, tc.wantCounter, tc.entry.GetSoftRejectedFor())
		}
		if tc.entry.Status.HasSoftRejection() != tc.wantHasFlag {
			t.Errorf("%s: expect HAS_SOFT_REJ=%v, got %v", tc.name, tc.wantHasFlag, tc.entry.Status.HasSoftRejection())
		}
	}
}

func TestRaiseValidityStampsTimeOnlyOnceAtScripts(t *testing.T) {
	bi := FromHeader(&block.BlockHeader{})
	bi.RaiseValidity(ValidityTransactions)
	if !bi.GetValidationCompletionTime().Equal(validationTimeUnset) {
		t.Errorf("expect validation_completion_time still at the max sentinel after raising to TRANSACTIONS")
	}

	if !bi.RaiseValidity(ValidityScripts) {
		t.Errorf("expect raising to SCRIPTS to report a change")
	}
	first := bi.GetValidationCompletionTime()
	if first.Equal(validationTimeUnset) {
		t.Errorf("expect a real instant after raising to SCRIPTS")
	}

	if bi.RaiseValidity(ValidityScripts) {
		t.Errorf("expect re-raising to SCRIPTS to be a no-op")
	}
	if !bi.GetValidationCompletionTime().Equal(first) {
		t.Errorf("expect validation_completion_time unchanged by the no-op re-raise")
	}
}

func TestIgnoreValidationTimePromotesPrecious(t *testing.T) {
	bi := FromHeader(&block.BlockHeader{})
	bi.IgnoreValidationTime()
	if !bi.GetValidationCompletionTime().Equal(validationTimeIgnored) {
		t.Errorf("expect validation_completion_time to be the minimum sentinel after ignore_validation_time")
	}
}

func TestDiskEntryRoundTrip(t *testing.T) {
	original := FromHeader(&block.BlockHeader{
		Version: 1,
		Time:    1500000000,
		Bits:    0x1d00ffff,
		Nonce:   7,
	})
	original.Height = 42
	original.TxCount = 3
	original.Status = original.Status.WithValidity(ValidityTransactions)
	original.SetDiskBlockData(3, block.DiskBlockPos{File: 5, Pos: 1024}, nil)

	buf := bytes.NewBuffer(nil)
	if err := original.Serialize(buf); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	loaded := &BlockIndex{}
	prevHash, err := loaded.Unserialize(buf)
	if err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	if !prevHash.IsNull() {
		t.Errorf("expect genesis-style entry to report a null previous-block hash")
	}
	if loaded.Height != original.Height || loaded.TxCount != original.TxCount {
		t.Errorf("expect persistent fields to round-trip, got height=%d txCount=%d", loaded.Height, loaded.TxCount)
	}
	if loaded.GetBlockPos() != original.GetBlockPos() {
		t.Errorf("expect disk position to round-trip")
	}
}
