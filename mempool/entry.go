// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool models the MempoolEntry/ModifiedEntry/ModifiedSet data
// model from spec.md §3, plus a reference in-memory TxPool the Template
// Builder (C4) can run the Package Selector (C3) against. Field shape
// follows the familiar txMemPoolModifiedEntry ancestor-aggregate layout
// (sizeWithAncestors, modFeesWithAncestors, sigOpCountWithAncestors).
package mempool

import (
	"github.com/coinstack/scryptminer/wire"
)

// Entry is the opaque handle the mempool exposes for each unconfirmed
// transaction (spec §3 "MempoolEntry"). Ancestor aggregates are
// maintained by the mempool itself and are assumed stable for the
// duration of a single CreateNewBlock call (the assembler holds the
// mempool's read lock throughout).
type Entry struct {
	tx        *wire.MsgTx
	txHash    wire.ShaHash
	height    int32
	lockTime  uint32
	size      int64 // stripped size, in bytes
	weight    int64 // 4*stripped size + witness size
	sigOpCost int64
	fee       int64 // modified fee, in the base monetary unit
	hasWitness bool

	// Ancestor aggregates: this transaction plus all of its unconfirmed
	// ancestors.
	sizeWithAncestors      int64
	weightWithAncestors    int64
	modFeesWithAncestors   int64
	sigOpCostWithAncestors int64
	countWithAncestors     int64

	// parents/children express the DAG the Package Selector walks to
	// compute exact ancestor/descendant sets (spec §6:
	// calculateMemPoolAncestors / calculateDescendants).
	parents  map[wire.ShaHash]*Entry
	children map[wire.ShaHash]*Entry
}

// NewEntry constructs a mempool entry. fee is the modified fee (after any
// operator-applied fee deltas); size/weight/sigOpCost describe tx alone,
// not including ancestors.
func NewEntry(tx *wire.MsgTx, height int32, lockTime uint32, size, weight, sigOpCost, fee int64, hasWitness bool) *Entry {
	e := &Entry{
		tx:         tx,
		txHash:     tx.TxSha(),
		height:     height,
		lockTime:   lockTime,
		size:       size,
		weight:     weight,
		sigOpCost:  sigOpCost,
		fee:        fee,
		hasWitness: hasWitness,
		parents:    make(map[wire.ShaHash]*Entry),
		children:   make(map[wire.ShaHash]*Entry),
	}
	// With no recorded parents yet, the ancestor aggregates default to
	// the entry's own values; UpdateAncestorState recomputes them once
	// parents are linked.
	e.sizeWithAncestors = size
	e.weightWithAncestors = weight
	e.modFeesWithAncestors = fee
	e.sigOpCostWithAncestors = sigOpCost
	e.countWithAncestors = 1
	return e
}

// Tx returns the underlying transaction.
func (e *Entry) Tx() *wire.MsgTx { return e.tx }

// Hash returns the transaction's identifying hash.
func (e *Entry) Hash() wire.ShaHash { return e.txHash }

// Height is the chain height at which the entry was accepted, used only
// for observability; finality is judged against the candidate block's
// own height/lockTimeCutoff, not this value.
func (e *Entry) Height() int32 { return e.height }

// LockTime returns the transaction's nLockTime field.
func (e *Entry) LockTime() uint32 { return e.lockTime }

// Size returns the transaction's own stripped size in bytes.
func (e *Entry) Size() int64 { return e.size }

// Weight returns the transaction's own consensus weight.
func (e *Entry) Weight() int64 { return e.weight }

// SigOpCost returns the transaction's own sigop cost.
func (e *Entry) SigOpCost() int64 { return e.sigOpCost }

// ModifiedFee returns the transaction's own modified fee.
func (e *Entry) ModifiedFee() int64 { return e.fee }

// HasWitness reports whether the transaction carries segregated witness
// data.
func (e *Entry) HasWitness() bool { return e.hasWitness }

// SizeWithAncestors returns size() plus the size of every unconfirmed
// ancestor.
func (e *Entry) SizeWithAncestors() int64 { return e.sizeWithAncestors }

// WeightWithAncestors returns weight() plus the weight of every
// unconfirmed ancestor; this is the figure the Package Selector's
// capacity test (spec §4.3 step 4) checks against blockMaxWeight.
func (e *Entry) WeightWithAncestors() int64 { return e.weightWithAncestors }

// ModFeesWithAncestors returns modifiedFee() plus the modified fee of
// every unconfirmed ancestor.
func (e *Entry) ModFeesWithAncestors() int64 { return e.modFeesWithAncestors }

// SigOpCostWithAncestors returns sigOpCost() plus the sigop cost of
// every unconfirmed ancestor.
func (e *Entry) SigOpCostWithAncestors() int64 { return e.sigOpCostWithAncestors }

// CountWithAncestors returns 1 plus the number of unconfirmed ancestors.
func (e *Entry) CountWithAncestors() int64 { return e.countWithAncestors }

// Parents returns the entry's direct unconfirmed parents.
func (e *Entry) Parents() map[wire.ShaHash]*Entry { return e.parents }

// Children returns the entry's direct unconfirmed children.
func (e *Entry) Children() map[wire.ShaHash]*Entry { return e.children }

// AddParent links parent as a direct ancestor of e and e as a direct
// descendant of parent.
func (e *Entry) AddParent(parent *Entry) {
	e.parents[parent.txHash] = parent
	parent.children[e.txHash] = e
}

// UpdateAncestorState recomputes the five ancestor aggregates by walking
// every unconfirmed ancestor reachable through the current (possibly
// just-linked) parent links, counting each ancestor once.
func (e *Entry) UpdateAncestorState() {
	size := e.size
	weight := e.weight
	fee := e.fee
	sigOps := e.sigOpCost
	count := int64(1)
	seen := make(map[wire.ShaHash]bool)
	var walk func(x *Entry)
	walk = func(x *Entry) {
		for hash, p := range x.parents {
			if seen[hash] {
				continue
			}
			seen[hash] = true
			size += p.size
			weight += p.weight
			fee += p.fee
			sigOps += p.sigOpCost
			count++
			walk(p)
		}
	}
	walk(e)
	e.sizeWithAncestors = size
	e.weightWithAncestors = weight
	e.modFeesWithAncestors = fee
	e.sigOpCostWithAncestors = sigOps
	e.countWithAncestors = count
}

// AncestorFeeRateLess reports whether a's ancestor fee-rate is strictly
// less than b's, using cross-multiplication to avoid floating-point
// rounding (spec §4.3 "Numeric semantics"). Ties are broken by
// transaction hash so that iteration order is deterministic (spec §4.3
// "Tie-breaking and determinism").
func AncestorFeeRateLess(aFee, aSize, bFee, bSize int64, aHash, bHash wire.ShaHash) bool {
	// aFee/aSize < bFee/bSize  <=>  aFee*bSize < bFee*aSize (sizes > 0)
	lhs := aFee * bSize
	rhs := bFee * aSize
	if lhs != rhs {
		return lhs < rhs
	}
	return lessHash(aHash, bHash)
}

func lessHash(a, b wire.ShaHash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
