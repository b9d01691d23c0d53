package blockindex

import "testing"

func TestStatusValidityRoundTrip(t *testing.T) {
	var s Status
	for _, v := range []Validity{ValidityUnknown, ValidityHeader, ValidityTree, ValidityTransactions, ValidityChain, ValidityScripts} {
		s = s.WithValidity(v)
		if s.Validity() != v {
			t.Errorf("WithValidity(%d).Validity() = %d", v, s.Validity())
		}
	}
}

func TestStatusFlagsIndependentOfValidity(t *testing.T) {
	s := Status(0).WithValidity(ValidityScripts).WithData(true).WithUndo(true).WithDiskBlockMetaData(true).WithSoftRejection(true)

	if s.Validity() != ValidityScripts {
		t.Errorf("expect validity unaffected by flags, got %d", s.Validity())
	}
	if !s.HasData() || !s.HasUndo() || !s.HasDiskBlockMetaData() || !s.HasSoftRejection() {
		t.Errorf("expect all four flags set, got %#x", s)
	}

	s = s.WithData(false)
	if s.HasData() {
		t.Errorf("expect HasData cleared")
	}
	if s.Validity() != ValidityScripts || !s.HasUndo() {
		t.Errorf("expect clearing one flag to leave the others untouched, got %#x", s)
	}
}

func TestStatusIsValidRequiresNotFailedAndLevel(t *testing.T) {
	s := Status(0).WithValidity(ValidityChain)
	if !s.IsValid(ValidityTransactions) {
		t.Errorf("expect CHAIN to satisfy a TRANSACTIONS threshold")
	}
	if s.IsValid(ValidityScripts) {
		t.Errorf("expect CHAIN to not satisfy a SCRIPTS threshold")
	}

	failed := s.WithFailed(true)
	if failed.IsValid(ValidityUnknown) {
		t.Errorf("expect a failed entry to never be valid, regardless of threshold")
	}
	if !failed.IsInvalid() {
		t.Errorf("expect IsInvalid to report true once FAILED is set")
	}
}

func TestStatusFailedParentIsAlsoInvalid(t *testing.T) {
	s := Status(0).WithFailedParent(true)
	if !s.IsInvalid() {
		t.Errorf("expect FAILED_PARENT alone to count as invalid")
	}
}

func TestStatusWithClearedFailureFlagsDoesNotRestoreValidity(t *testing.T) {
	s := Status(0).WithValidity(ValidityScripts).WithFailed(true).WithFailedParent(true)
	cleared := s.WithClearedFailureFlags()

	if cleared.IsInvalid() {
		t.Errorf("expect both failure flags cleared")
	}
	if cleared.Validity() != ValidityScripts {
		t.Errorf("expect clearing failure flags to leave validity level untouched, got %d", cleared.Validity())
	}
}
