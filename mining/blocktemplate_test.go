// Copyright (c) 2016 BLOCKO INC.
package mining

import (
	"testing"
	"time"

	"github.com/coinstack/scryptminer/blockchain"
	"github.com/coinstack/scryptminer/chaincfg"
	"github.com/coinstack/scryptminer/mempool"
	"github.com/coinstack/scryptminer/wire"
)

// fakeChainTip is a fixed-value ChainTip stand-in so template assembly
// tests don't need a real chain-state implementation.
type fakeChainTip struct {
	height  int32
	hash    wire.ShaHash
	mtp     time.Time
	bits    uint32
	witness bool
	version int32
}

func (f *fakeChainTip) Height() int32                        { return f.height }
func (f *fakeChainTip) Hash() wire.ShaHash                    { return f.hash }
func (f *fakeChainTip) MedianTimePast() time.Time             { return f.mtp }
func (f *fakeChainTip) CalcNextRequiredDifficulty() uint32    { return f.bits }
func (f *fakeChainTip) IsWitnessEnabled() bool                { return f.witness }
func (f *fakeChainTip) ComputeBlockVersion() int32            { return f.version }

func newFakeChainTip() *fakeChainTip {
	return &fakeChainTip{
		height:  99,
		mtp:     time.Now().Add(-time.Hour),
		bits:    chaincfg.PrivateNetParams.PowLimitBits,
		version: 4,
	}
}

func defaultTestPolicy() *Policy {
	return &Policy{
		BlockMaxWeight:  blockchain.DefaultBlockMaxWeight,
		BlockMinFeeRate: 0,
	}
}

func makeTx(lockTime uint32, outValue int64, identity byte) *wire.MsgTx {
	tx := wire.NewMsgTx()
	var prev wire.ShaHash
	prev[0] = identity
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prev, 0), []byte{identity}))
	tx.AddTxOut(wire.NewTxOut(outValue, nil))
	tx.LockTime = lockTime
	return tx
}

func entryFor(tx *wire.MsgTx, height int32, fee int64) *mempool.Entry {
	size := int64(tx.SerializeSize())
	weight := size * 4
	return mempool.NewEntry(tx, height, tx.LockTime, size, weight, 0, fee, false)
}

func witnessEntryFor(tx *wire.MsgTx, height int32, fee int64) *mempool.Entry {
	size := int64(tx.SerializeSize())
	weight := size * 4
	return mempool.NewEntry(tx, height, tx.LockTime, size, weight, 0, fee, true)
}

func TestNewBlockTemplateEmptyMempool(t *testing.T) {
	chain := newFakeChainTip()
	pool := mempool.NewTxPool(10)
	gen := NewBlkTmplGenerator(defaultTestPolicy(), &chaincfg.PrivateNetParams, pool, chain, blockchain.ScryptHeaderHash)

	template, err := gen.NewBlockTemplate(0, "/test/", nil)
	if err != nil {
		t.Fatalf("NewBlockTemplate: %v", err)
	}
	if len(template.Block.Transactions) != 1 {
		t.Fatalf("len(Transactions) = %d, want 1 (coinbase only)", len(template.Block.Transactions))
	}
	if template.Height != chain.height+1 {
		t.Errorf("Height = %d, want %d", template.Height, chain.height+1)
	}
	if template.ValidPayAddress {
		t.Errorf("ValidPayAddress should be false for a nil pay-to address")
	}
	if template.Fees[0] != 0 {
		t.Errorf("coinbase fee entry = %d, want 0 with no mempool transactions", template.Fees[0])
	}
}

func TestNewBlockTemplateTwoIndependentTxs(t *testing.T) {
	chain := newFakeChainTip()
	pool := mempool.NewTxPool(10)

	txA := makeTx(0, 1000, 0xaa)
	txB := makeTx(0, 2000, 0xbb)
	entryA := entryFor(txA, 50, 500)
	entryB := entryFor(txB, 50, 900)
	pool.AddEntry(entryA)
	pool.AddEntry(entryB)

	gen := NewBlkTmplGenerator(defaultTestPolicy(), &chaincfg.PrivateNetParams, pool, chain, blockchain.ScryptHeaderHash)
	template, err := gen.NewBlockTemplate(0, "/test/", nil)
	if err != nil {
		t.Fatalf("NewBlockTemplate: %v", err)
	}
	if len(template.Block.Transactions) != 3 {
		t.Fatalf("len(Transactions) = %d, want 3 (coinbase + 2)", len(template.Block.Transactions))
	}
	// Higher fee-rate (entryB) must be selected first.
	if template.Block.Transactions[1].TxSha() != txB.TxSha() {
		t.Errorf("higher fee-rate tx should be placed before the lower one")
	}
	if template.Fees[0] != -1400 {
		t.Errorf("coinbase fee entry = %d, want -1400 (negative of total fees)", template.Fees[0])
	}
}

func TestNewBlockTemplateParentChildOrdering(t *testing.T) {
	chain := newFakeChainTip()
	pool := mempool.NewTxPool(10)

	parentTx := makeTx(0, 1000, 0x01)
	childTx := makeTx(0, 2000, 0x02)
	parent := entryFor(parentTx, 50, 100) // low fee-rate alone
	child := entryFor(childTx, 50, 10000) // very high fee-rate, pulls parent in
	child.AddParent(parent)
	child.UpdateAncestorState()
	pool.AddEntry(parent)
	pool.AddEntry(child)

	gen := NewBlkTmplGenerator(defaultTestPolicy(), &chaincfg.PrivateNetParams, pool, chain, blockchain.ScryptHeaderHash)
	template, err := gen.NewBlockTemplate(0, "/test/", nil)
	if err != nil {
		t.Fatalf("NewBlockTemplate: %v", err)
	}
	if len(template.Block.Transactions) != 3 {
		t.Fatalf("len(Transactions) = %d, want 3 (coinbase + parent + child)", len(template.Block.Transactions))
	}
	if template.Block.Transactions[1].TxSha() != parentTx.TxSha() {
		t.Errorf("parent must be placed before its child even though its own fee-rate is lower")
	}
	if template.Block.Transactions[2].TxSha() != childTx.TxSha() {
		t.Errorf("child should immediately follow its parent")
	}
}

func TestNewBlockTemplateBelowMinFeeRateExcluded(t *testing.T) {
	chain := newFakeChainTip()
	pool := mempool.NewTxPool(10)

	tx := makeTx(0, 1000, 0xcc)
	entry := entryFor(tx, 50, 1) // negligible fee
	pool.AddEntry(entry)

	policy := defaultTestPolicy()
	policy.BlockMinFeeRate = 1_000_000 // unreasonably high floor

	gen := NewBlkTmplGenerator(policy, &chaincfg.PrivateNetParams, pool, chain, blockchain.ScryptHeaderHash)
	template, err := gen.NewBlockTemplate(0, "/test/", nil)
	if err != nil {
		t.Fatalf("NewBlockTemplate: %v", err)
	}
	if len(template.Block.Transactions) != 1 {
		t.Errorf("len(Transactions) = %d, want 1 (below-minfee tx must be excluded)",
			len(template.Block.Transactions))
	}
}

func TestNewBlockTemplateNonFinalTxExcluded(t *testing.T) {
	chain := newFakeChainTip()
	chain.height = 100
	pool := mempool.NewTxPool(10)

	// LockTime far beyond the candidate block's own height is not final.
	tx := makeTx(1000, 1000, 0xdd)
	entry := entryFor(tx, 50, 5000)
	pool.AddEntry(entry)

	gen := NewBlkTmplGenerator(defaultTestPolicy(), &chaincfg.PrivateNetParams, pool, chain, blockchain.ScryptHeaderHash)
	template, err := gen.NewBlockTemplate(0, "/test/", nil)
	if err != nil {
		t.Fatalf("NewBlockTemplate: %v", err)
	}
	if len(template.Block.Transactions) != 1 {
		t.Errorf("len(Transactions) = %d, want 1 (non-final tx must be excluded)",
			len(template.Block.Transactions))
	}
}

func TestNewBlockTemplateRespectsWeightBudget(t *testing.T) {
	chain := newFakeChainTip()
	pool := mempool.NewTxPool(100)

	// Enough individually-generous transactions to exceed a tiny budget.
	for i := 0; i < 20; i++ {
		tx := makeTx(0, int64(1000+i), byte(i))
		entry := entryFor(tx, 50, int64(10000-i))
		pool.AddEntry(entry)
	}

	policy := defaultTestPolicy()
	policy.BlockMaxWeight = blockchain.CoinbaseReservedWeight + 300 // room for a couple txs only

	gen := NewBlkTmplGenerator(policy, &chaincfg.PrivateNetParams, pool, chain, blockchain.ScryptHeaderHash)
	template, err := gen.NewBlockTemplate(0, "/test/", nil)
	if err != nil {
		t.Fatalf("NewBlockTemplate: %v", err)
	}
	if len(template.Block.Transactions) >= 21 {
		t.Errorf("a tight weight budget must exclude at least some of the 20 candidates")
	}

	var total int64
	for _, tx := range template.Block.Transactions {
		total += int64(tx.SerializeSize()) * 4
	}
	clamped := int64(blockchain.ClampBlockMaxWeight(policy.BlockMaxWeight))
	if total > clamped {
		t.Errorf("assembled block weight %d exceeds the clamped budget %d", total, clamped)
	}
}

func TestNewBlockTemplateDeterministic(t *testing.T) {
	chain := newFakeChainTip()
	pool := mempool.NewTxPool(10)
	pool.AddEntry(entryFor(makeTx(0, 1000, 0x01), 50, 500))
	pool.AddEntry(entryFor(makeTx(0, 2000, 0x02), 50, 900))

	gen := NewBlkTmplGenerator(defaultTestPolicy(), &chaincfg.PrivateNetParams, pool, chain, blockchain.ScryptHeaderHash)
	t1, err := gen.NewBlockTemplate(0, "/test/", nil)
	if err != nil {
		t.Fatalf("NewBlockTemplate: %v", err)
	}

	// A second generator against the same pool/chain view must select the
	// same transactions in the same order (selection itself is
	// deterministic; only the coinbase extra-nonce/timestamp vary across
	// template instances).
	gen2 := NewBlkTmplGenerator(defaultTestPolicy(), &chaincfg.PrivateNetParams, pool, newFakeChainTip(), blockchain.ScryptHeaderHash)
	t2, err := gen2.NewBlockTemplate(0, "/test/", nil)
	if err != nil {
		t.Fatalf("NewBlockTemplate: %v", err)
	}
	if len(t1.Block.Transactions) != len(t2.Block.Transactions) {
		t.Fatalf("selection is not deterministic across generator instances")
	}
	for i := 1; i < len(t1.Block.Transactions); i++ {
		if t1.Block.Transactions[i].TxSha() != t2.Block.Transactions[i].TxSha() {
			t.Errorf("transaction order differs at index %d across generator instances", i)
		}
	}
}

func TestNewBlockTemplateWitnessExcludedWhenDisallowed(t *testing.T) {
	chain := newFakeChainTip()
	chain.witness = true // soft fork active, but policy below opts out
	pool := mempool.NewTxPool(10)

	tx := makeTx(0, 1000, 0xee)
	pool.AddEntry(witnessEntryFor(tx, 50, 5000))

	policy := defaultTestPolicy()
	policy.MineWitness = false

	gen := NewBlkTmplGenerator(policy, &chaincfg.PrivateNetParams, pool, chain, blockchain.ScryptHeaderHash)
	template, err := gen.NewBlockTemplate(0, "/test/", nil)
	if err != nil {
		t.Fatalf("NewBlockTemplate: %v", err)
	}
	if len(template.Block.Transactions) != 1 {
		t.Errorf("len(Transactions) = %d, want 1 (witness tx must be excluded when includeWitness is false)",
			len(template.Block.Transactions))
	}
}

func TestNewBlockTemplateWitnessIncludedWhenAllowed(t *testing.T) {
	chain := newFakeChainTip()
	chain.witness = true
	pool := mempool.NewTxPool(10)

	tx := makeTx(0, 1000, 0xef)
	pool.AddEntry(witnessEntryFor(tx, 50, 5000))

	policy := defaultTestPolicy()
	policy.MineWitness = true

	gen := NewBlkTmplGenerator(policy, &chaincfg.PrivateNetParams, pool, chain, blockchain.ScryptHeaderHash)
	template, err := gen.NewBlockTemplate(0, "/test/", nil)
	if err != nil {
		t.Fatalf("NewBlockTemplate: %v", err)
	}
	if len(template.Block.Transactions) != 2 {
		t.Errorf("len(Transactions) = %d, want 2 (coinbase + witness tx) once witness is allowed",
			len(template.Block.Transactions))
	}
}

// TestNewBlockTemplateModifiedSourcedNonFinalTxTerminates guards against a
// selection hang: a descendant pulled into the modified set by its
// parent's inclusion, but whose own lock-time is never final for this
// block, must be evicted from the modified set and recorded as failed
// the first time it resurfaces as a modified-sourced candidate rather
// than being offered by modifiedTxs.Front() forever.
func TestNewBlockTemplateModifiedSourcedNonFinalTxTerminates(t *testing.T) {
	chain := newFakeChainTip()
	chain.height = 100
	pool := mempool.NewTxPool(10)

	parentTx := makeTx(0, 1000, 0x10) // final
	childTx := makeTx(1_000_000, 2000, 0x11) // never final: far-future height lock-time

	parent := entryFor(parentTx, 50, 100)
	child := entryFor(childTx, 50, 10000) // high enough fee to sort before parent alone
	child.AddParent(parent)
	child.UpdateAncestorState()
	pool.AddEntry(parent)
	pool.AddEntry(child)

	gen := NewBlkTmplGenerator(defaultTestPolicy(), &chaincfg.PrivateNetParams, pool, chain, blockchain.ScryptHeaderHash)

	done := make(chan *BlockTemplate, 1)
	errCh := make(chan error, 1)
	go func() {
		template, err := gen.NewBlockTemplate(0, "/test/", nil)
		if err != nil {
			errCh <- err
			return
		}
		done <- template
	}()

	select {
	case template := <-done:
		if len(template.Block.Transactions) != 2 {
			t.Errorf("len(Transactions) = %d, want 2 (coinbase + parent; the non-final child must be excluded)",
				len(template.Block.Transactions))
		}
		for _, tx := range template.Block.Transactions {
			if tx.TxSha() == childTx.TxSha() {
				t.Errorf("non-final child transaction must never be selected")
			}
		}
	case err := <-errCh:
		t.Fatalf("NewBlockTemplate: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("NewBlockTemplate did not return: a non-final modified-sourced candidate is looping")
	}
}
