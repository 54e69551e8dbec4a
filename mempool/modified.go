// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"sort"

	"github.com/coinstack/scryptminer/wire"
)

// ModifiedEntry mirrors an Entry's ancestor aggregates minus the
// contribution of ancestors already placed into the in-progress block
// (spec §3 "ModifiedEntry"). Field names follow the familiar
// txMemPoolModifiedEntry layout.
type ModifiedEntry struct {
	Iter                   *Entry
	SizeWithAncestors      int64
	WeightWithAncestors    int64
	ModFeesWithAncestors   int64
	SigOpCostWithAncestors int64
}

// NewModifiedEntry builds a ModifiedEntry that initially mirrors iter's
// own ancestor aggregates unchanged; callers reduce it as ancestors are
// placed into the block (spec §4.3 step 8).
func NewModifiedEntry(iter *Entry) *ModifiedEntry {
	return &ModifiedEntry{
		Iter:                   iter,
		SizeWithAncestors:      iter.SizeWithAncestors(),
		WeightWithAncestors:    iter.WeightWithAncestors(),
		ModFeesWithAncestors:   iter.ModFeesWithAncestors(),
		SigOpCostWithAncestors: iter.SigOpCostWithAncestors(),
	}
}

// ModifiedTxSet is the dual-indexed structure spec §3 names: a
// handle-keyed map for O(1) membership, paired with a slice kept sorted
// by ancestor fee-rate (descending) for ordered iteration. Both indexes
// are updated together on every mutation.
//
// Design note (see DESIGN.md): no ordered-map/btree library is grounded
// anywhere in the retrieved example pack for this shape, so the ordered
// side is a plain sort.Search-maintained slice rather than a third-party
// structure.
type ModifiedTxSet struct {
	byHash  map[wire.ShaHash]*ModifiedEntry
	ordered []*ModifiedEntry
}

// NewModifiedTxSet returns an empty ModifiedTxSet.
func NewModifiedTxSet() *ModifiedTxSet {
	return &ModifiedTxSet{
		byHash: make(map[wire.ShaHash]*ModifiedEntry),
	}
}

// Len returns the number of entries currently tracked.
func (s *ModifiedTxSet) Len() int { return len(s.ordered) }

// Get returns the ModifiedEntry for hash, if present.
func (s *ModifiedTxSet) Get(hash wire.ShaHash) (*ModifiedEntry, bool) {
	m, ok := s.byHash[hash]
	return m, ok
}

// lessModified reports whether entry a should sort before entry b (higher
// ancestor fee-rate first; cross-multiplied comparison, hash tiebreak).
func lessModified(a, b *ModifiedEntry) bool {
	// a before b  <=>  a's fee-rate > b's fee-rate
	return AncestorFeeRateLess(
		b.ModFeesWithAncestors, b.SizeWithAncestors,
		a.ModFeesWithAncestors, a.SizeWithAncestors,
		b.Iter.Hash(), a.Iter.Hash(),
	)
}

// Insert adds entry to the set, or replaces the existing entry for the
// same handle.
func (s *ModifiedTxSet) Insert(entry *ModifiedEntry) {
	hash := entry.Iter.Hash()
	if _, exists := s.byHash[hash]; exists {
		s.Remove(hash)
	}
	s.byHash[hash] = entry

	idx := sort.Search(len(s.ordered), func(i int) bool {
		return !lessModified(s.ordered[i], entry)
	})
	s.ordered = append(s.ordered, nil)
	copy(s.ordered[idx+1:], s.ordered[idx:])
	s.ordered[idx] = entry
}

// Remove deletes the entry for hash, if present.
func (s *ModifiedTxSet) Remove(hash wire.ShaHash) {
	entry, ok := s.byHash[hash]
	if !ok {
		return
	}
	delete(s.byHash, hash)
	for i, m := range s.ordered {
		if m == entry {
			s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
			break
		}
	}
}

// Front returns the entry with the highest ancestor fee-rate, or nil if
// the set is empty.
func (s *ModifiedTxSet) Front() *ModifiedEntry {
	if len(s.ordered) == 0 {
		return nil
	}
	return s.ordered[0]
}
