// Copyright (c) 2016 BLOCKO INC.
package main

import (
	"testing"
	"time"

	"github.com/coinstack/scryptminer/blockchain"
	"github.com/coinstack/scryptminer/chaincfg"
	"github.com/coinstack/scryptminer/mempool"
	"github.com/coinstack/scryptminer/mining"
	"github.com/coinstack/scryptminer/wire"
)

func newTestMiner(t *testing.T, bits uint32) (*CPUMiner, *wire.MsgBlock) {
	t.Helper()
	pool := mempool.NewTxPool(10)
	genesis, err := buildTestGenesisBlock(bits)
	if err != nil {
		t.Fatalf("building a test genesis block: %v", err)
	}
	chainState := newLocalChainState(&chaincfg.RegressionNetParams, genesis)
	chainView := ChainView{
		Tip:                chainState.Tip,
		SubmitBlock:        chainState.SubmitBlock,
		ConnectedPeerCount: chainState.ConnectedPeerCount,
		IsCurrent:          chainState.IsCurrent,
	}
	generator := mining.NewBlkTmplGenerator(&mining.Policy{BlockMaxWeight: blockchain.DefaultBlockMaxWeight},
		&chaincfg.RegressionNetParams, pool, chainState, blockchain.ScryptHeaderHash)
	m := newCPUMiner(generator, pool, blockchain.ScryptHeaderHash, chainView, "/test/", nil, 0, nil)

	template, err := generator.NewBlockTemplate(0, "/test/", nil)
	if err != nil {
		t.Fatalf("NewBlockTemplate: %v", err)
	}
	return m, template.Block
}

// buildTestGenesisBlock builds a minimal one-coinbase block usable as a
// chain tip, with the given difficulty bits.
func buildTestGenesisBlock(bits uint32) (*wire.MsgBlock, error) {
	header := wire.NewBlockHeader(4, &wire.ShaHash{}, &wire.ShaHash{}, bits, 0)
	block := wire.NewMsgBlock(header)
	coinbaseScript, err := mining.StandardCoinbaseScript(0, 0, "/test/")
	if err != nil {
		return nil, err
	}
	coinbaseTx, err := mining.CreateCoinbaseTx(coinbaseScript, 0, 0, nil, &chaincfg.RegressionNetParams)
	if err != nil {
		return nil, err
	}
	if err := block.AddTransaction(coinbaseTx); err != nil {
		return nil, err
	}
	merkles := blockchain.BuildMerkleTreeStore(block.Transactions)
	block.Header.MerkleRoot = *merkles[len(merkles)-1]
	return block, nil
}

// drainUpdateHashes keeps m.updateHashes from blocking solveBlock for the
// duration of a test.
func drainUpdateHashes(m *CPUMiner, quit chan struct{}) {
	go func() {
		for {
			select {
			case <-m.updateHashes:
			case <-quit:
				return
			}
		}
	}()
}

func TestSolveBlockFindsASolutionAtRegtestDifficulty(t *testing.T) {
	// RegressionNetParams' PowLimit (calcPowLimit(1)) accepts roughly half
	// of all hash outputs, so a solution should turn up within a handful
	// of nonces.
	m, block := newTestMiner(t, chaincfg.RegressionNetParams.PowLimitBits)

	drainQuit := make(chan struct{})
	drainUpdateHashes(m, drainQuit)
	defer close(drainQuit)

	ticker := time.NewTicker(time.Hour) // long enough to never fire in this test
	defer ticker.Stop()
	quit := make(chan struct{})

	solved := m.solveBlock(block, 1, ticker, quit)
	if !solved {
		t.Fatalf("solveBlock did not find a solution at the easiest regtest difficulty")
	}

	hash, err := m.hasher(&block.Header)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	target := blockchain.CompactToBig(block.Header.Bits)
	if blockchain.HashToBig(&hash).Cmp(target) > 0 {
		t.Errorf("returned block's header hash does not meet its own target")
	}
}

func TestSolveBlockCancelsOnQuit(t *testing.T) {
	// An effectively impossible target (compact 0x03000001, i.e. a
	// target of 1) combined with an already-closed quit channel must
	// return false immediately rather than loop through the nonce space.
	m, block := newTestMiner(t, 0x03000001) // a very small, hard-to-meet target

	drainQuit := make(chan struct{})
	drainUpdateHashes(m, drainQuit)
	defer close(drainQuit)

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	quit := make(chan struct{})
	close(quit)

	done := make(chan bool, 1)
	go func() { done <- m.solveBlock(block, 1, ticker, quit) }()

	select {
	case solved := <-done:
		if solved {
			t.Errorf("solveBlock should not report success when cancelled immediately")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("solveBlock did not honor the closed quit channel promptly")
	}
}
