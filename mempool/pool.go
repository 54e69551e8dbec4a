// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"sort"
	"sync"
	"time"

	"github.com/bluele/gcache"

	"github.com/coinstack/scryptminer/wire"
)

// TxDesc describes a transaction in the mempool along with additional
// metadata, mirroring the btcd-family mining.TxDesc shape returned by a
// mempool's MiningDescs().
type TxDesc struct {
	Tx       *wire.MsgTx
	Added    time.Time
	Height   int32
	Fee      int64
	FeePerKB int64
}

// TxSource represents a source of transactions to consider for inclusion
// in new blocks (spec §6 "Mempool" collaborator contract).
type TxSource interface {
	// LastUpdated returns the last time a transaction was added to or
	// removed from the source pool.
	LastUpdated() time.Time

	// MiningDescs returns a slice of mining descriptors for all the
	// transactions in the source pool.
	MiningDescs() []*TxDesc

	// HaveTransaction returns whether the passed transaction hash
	// exists in the source pool.
	HaveTransaction(hash *wire.ShaHash) bool

	// Entries returns every currently tracked Entry handle, ordered
	// descending by ancestor fee-rate (spec §6: "ordered index by
	// ancestor fee-rate"). The returned slice is a point-in-time
	// snapshot; advancing through it does not mutate the pool
	// (spec §9 "Mempool iterator interaction": a borrowed, read-only
	// cursor).
	Entries() []*Entry

	// CalculateMemPoolAncestors returns every unconfirmed ancestor of
	// entry (entry excluded).
	CalculateMemPoolAncestors(entry *Entry) map[wire.ShaHash]*Entry

	// CalculateDescendants returns every unconfirmed descendant of
	// entry (entry excluded).
	CalculateDescendants(entry *Entry) map[wire.ShaHash]*Entry
}

// TxPool is a reference in-memory implementation of TxSource. Entry
// storage is backed by a bluele/gcache LRU cache (`gcache.New(size).LRU()`)
// so a long-running node bounds its resident mempool footprint. Once more
// than maxEntries transactions are held, the cache evicts the least
// recently used entry on its own; such an eviction does not unlink the
// entry from its parents/children. Only RemoveEntry unlinks a removed
// entry from the DAG.
type TxPool struct {
	mu          sync.RWMutex
	cache       gcache.Cache
	order       []wire.ShaHash // insertion order, used to rebuild Entries() deterministically
	lastUpdated time.Time
}

// NewTxPool returns an empty TxPool whose entry cache holds up to
// maxEntries transactions.
func NewTxPool(maxEntries int) *TxPool {
	return &TxPool{
		cache:       gcache.New(maxEntries).LRU().Build(),
		lastUpdated: time.Now(),
	}
}

// AddEntry inserts entry into the pool. Parents must already have been
// added (the caller links ancestry via entry.AddParent before calling
// AddEntry, then calls entry.UpdateAncestorState).
func (p *TxPool) AddEntry(entry *Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	hash := entry.Hash()
	if _, err := p.cache.Get(hash); err != nil {
		p.order = append(p.order, hash)
	}
	p.cache.Set(hash, entry)
	p.lastUpdated = time.Now()
}

// RemoveEntry evicts hash from the pool, unlinking it from any
// parents/children so the DAG stays consistent.
func (p *TxPool) RemoveEntry(hash wire.ShaHash) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, err := p.cache.Get(hash)
	if err != nil {
		return
	}
	entry := v.(*Entry)
	for _, parent := range entry.parents {
		delete(parent.children, hash)
	}
	for _, child := range entry.children {
		delete(child.parents, hash)
	}
	p.cache.Remove(hash)
	for i, h := range p.order {
		if h == hash {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	p.lastUpdated = time.Now()
}

// LastUpdated returns the last time a transaction was added to or
// removed from the pool.
func (p *TxPool) LastUpdated() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastUpdated
}

// HaveTransaction returns whether hash exists in the pool.
func (p *TxPool) HaveTransaction(hash *wire.ShaHash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cache.Has(*hash)
}

func (p *TxPool) entryLocked(hash wire.ShaHash) (*Entry, bool) {
	v, err := p.cache.Get(hash)
	if err != nil {
		return nil, false
	}
	return v.(*Entry), true
}

// MiningDescs returns a TxDesc per currently tracked transaction.
func (p *TxPool) MiningDescs() []*TxDesc {
	p.mu.RLock()
	defer p.mu.RUnlock()

	descs := make([]*TxDesc, 0, len(p.order))
	for _, h := range p.order {
		e, ok := p.entryLocked(h)
		if !ok {
			continue
		}
		descs = append(descs, &TxDesc{
			Tx:       e.Tx(),
			Height:   e.Height(),
			Fee:      e.ModifiedFee(),
			FeePerKB: feePerKB(e.ModifiedFee(), e.Size()),
		})
	}
	return descs
}

func feePerKB(fee, size int64) int64 {
	if size == 0 {
		return 0
	}
	return fee * 1000 / size
}

// Entries returns every tracked Entry, ordered descending by ancestor
// fee-rate (ties broken by hash, see AncestorFeeRateLess). This is the
// mempoolIter source the Package Selector (C3) walks forward-only.
func (p *TxPool) Entries() []*Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]*Entry, 0, len(p.order))
	for _, h := range p.order {
		if e, ok := p.entryLocked(h); ok {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		return AncestorFeeRateLess(
			b.ModFeesWithAncestors(), b.SizeWithAncestors(),
			a.ModFeesWithAncestors(), a.SizeWithAncestors(),
			b.Hash(), a.Hash(),
		)
	})
	return entries
}

// CalculateMemPoolAncestors returns every unconfirmed ancestor of entry
// (entry itself excluded), walking the DAG via Entry.Parents().
func (p *TxPool) CalculateMemPoolAncestors(entry *Entry) map[wire.ShaHash]*Entry {
	ancestors := make(map[wire.ShaHash]*Entry)
	var walk func(e *Entry)
	walk = func(e *Entry) {
		for hash, parent := range e.Parents() {
			if _, seen := ancestors[hash]; seen {
				continue
			}
			ancestors[hash] = parent
			walk(parent)
		}
	}
	walk(entry)
	return ancestors
}

// CalculateDescendants returns every unconfirmed descendant of entry
// (entry itself excluded), walking the DAG via Entry.Children().
func (p *TxPool) CalculateDescendants(entry *Entry) map[wire.ShaHash]*Entry {
	descendants := make(map[wire.ShaHash]*Entry)
	var walk func(e *Entry)
	walk = func(e *Entry) {
		for hash, child := range e.Children() {
			if _, seen := descendants[hash]; seen {
				continue
			}
			descendants[hash] = child
			walk(child)
		}
	}
	walk(entry)
	return descendants
}
