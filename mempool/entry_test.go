// Copyright (c) 2016 BLOCKO INC.
package mempool

import (
	"testing"

	"github.com/coinstack/scryptminer/wire"
)

func makeTx(value int64) *wire.MsgTx {
	tx := wire.NewMsgTx()
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&wire.ShaHash{}, wire.MaxPrevOutIndex), nil))
	tx.AddTxOut(wire.NewTxOut(value, nil))
	return tx
}

func TestNewEntryDefaultsToOwnValues(t *testing.T) {
	e := NewEntry(makeTx(1), 100, 0, 250, 1000, 1, 1500, false)
	if e.SizeWithAncestors() != 250 || e.WeightWithAncestors() != 1000 ||
		e.ModFeesWithAncestors() != 1500 || e.SigOpCostWithAncestors() != 1 ||
		e.CountWithAncestors() != 1 {
		t.Errorf("a parentless entry's ancestor aggregates must equal its own values")
	}
}

func TestUpdateAncestorStateSumsParents(t *testing.T) {
	parent := NewEntry(makeTx(1), 100, 0, 200, 800, 2, 1000, false)
	child := NewEntry(makeTx(2), 100, 0, 300, 1200, 3, 2000, false)
	child.AddParent(parent)
	child.UpdateAncestorState()

	if got, want := child.SizeWithAncestors(), int64(500); got != want {
		t.Errorf("SizeWithAncestors = %d, want %d", got, want)
	}
	if got, want := child.WeightWithAncestors(), int64(2000); got != want {
		t.Errorf("WeightWithAncestors = %d, want %d", got, want)
	}
	if got, want := child.ModFeesWithAncestors(), int64(3000); got != want {
		t.Errorf("ModFeesWithAncestors = %d, want %d", got, want)
	}
	if got, want := child.SigOpCostWithAncestors(), int64(5); got != want {
		t.Errorf("SigOpCostWithAncestors = %d, want %d", got, want)
	}
	if got, want := child.CountWithAncestors(), int64(2); got != want {
		t.Errorf("CountWithAncestors = %d, want %d", got, want)
	}

	if _, ok := parent.Children()[child.Hash()]; !ok {
		t.Errorf("AddParent should link child back into parent.Children()")
	}
}

func TestAncestorFeeRateLess(t *testing.T) {
	var lo, hi wire.ShaHash
	lo[0], hi[0] = 0x01, 0x02

	// 1000/500 = 2 sat/byte < 3000/500 = 6 sat/byte
	if !AncestorFeeRateLess(1000, 500, 3000, 500, lo, hi) {
		t.Errorf("expected the lower fee-rate package to compare less")
	}
	if AncestorFeeRateLess(3000, 500, 1000, 500, hi, lo) {
		t.Errorf("expected the higher fee-rate package not to compare less")
	}

	// Equal fee-rates (1000/250 == 2000/500) must break the tie by hash.
	if !AncestorFeeRateLess(1000, 250, 2000, 500, lo, hi) {
		t.Errorf("equal fee-rates should tie-break by ascending hash")
	}
	if AncestorFeeRateLess(2000, 500, 1000, 250, hi, lo) {
		t.Errorf("equal fee-rates should tie-break by ascending hash")
	}
}
