// Copyright (c) 2016 BLOCKO INC.
package mempool

import (
	"testing"
)

func TestTxPoolAddHaveRemoveEntry(t *testing.T) {
	p := NewTxPool(10)
	e := NewEntry(makeTx(1), 0, 0, 100, 400, 0, 100, false)
	hash := e.Hash()

	before := p.LastUpdated()
	p.AddEntry(e)
	if !p.HaveTransaction(&hash) {
		t.Fatalf("HaveTransaction is false right after AddEntry")
	}
	if !p.LastUpdated().After(before) {
		t.Errorf("LastUpdated should advance after AddEntry")
	}

	p.RemoveEntry(hash)
	if p.HaveTransaction(&hash) {
		t.Errorf("HaveTransaction is true after RemoveEntry")
	}
}

func TestTxPoolRemoveUnlinksDAG(t *testing.T) {
	p := NewTxPool(10)
	parent := NewEntry(makeTx(1), 0, 0, 100, 400, 0, 100, false)
	child := NewEntry(makeTx(2), 0, 0, 100, 400, 0, 100, false)
	child.AddParent(parent)
	p.AddEntry(parent)
	p.AddEntry(child)

	p.RemoveEntry(parent.Hash())

	if _, stillLinked := child.Parents()[parent.Hash()]; stillLinked {
		t.Errorf("RemoveEntry should unlink the removed entry from its children's parent sets")
	}
}

func TestTxPoolEntriesOrderedByFeeRate(t *testing.T) {
	p := NewTxPool(10)
	low := NewEntry(makeTx(1), 0, 0, 1000, 4000, 0, 1000, false)
	high := NewEntry(makeTx(2), 0, 0, 1000, 4000, 0, 4000, false)
	p.AddEntry(low)
	p.AddEntry(high)

	entries := p.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries() returned %d entries, want 2", len(entries))
	}
	if entries[0].Hash() != high.Hash() {
		t.Errorf("Entries() should be ordered by descending ancestor fee-rate")
	}
}

func TestCalculateMemPoolAncestorsAndDescendants(t *testing.T) {
	p := NewTxPool(10)
	grandparent := NewEntry(makeTx(1), 0, 0, 100, 400, 0, 100, false)
	parent := NewEntry(makeTx(2), 0, 0, 100, 400, 0, 100, false)
	child := NewEntry(makeTx(3), 0, 0, 100, 400, 0, 100, false)
	parent.AddParent(grandparent)
	child.AddParent(parent)
	p.AddEntry(grandparent)
	p.AddEntry(parent)
	p.AddEntry(child)

	ancestors := p.CalculateMemPoolAncestors(child)
	if len(ancestors) != 2 {
		t.Fatalf("CalculateMemPoolAncestors(child) has %d entries, want 2", len(ancestors))
	}
	if _, ok := ancestors[parent.Hash()]; !ok {
		t.Errorf("missing direct parent in ancestor set")
	}
	if _, ok := ancestors[grandparent.Hash()]; !ok {
		t.Errorf("missing transitive ancestor in ancestor set")
	}

	descendants := p.CalculateDescendants(grandparent)
	if len(descendants) != 2 {
		t.Fatalf("CalculateDescendants(grandparent) has %d entries, want 2", len(descendants))
	}
	if _, ok := descendants[child.Hash()]; !ok {
		t.Errorf("missing transitive descendant in descendant set")
	}
}
