// Copyright (c) 2016 BLOCKO INC.
package main

import (
	"math/big"
	"sync"
	"time"

	"github.com/coinstack/scryptminer/blockchain"
	"github.com/coinstack/scryptminer/chaincfg"
	"github.com/coinstack/scryptminer/wire"
)

// localChainState is a minimal, non-validating chain-state harness: it
// starts from a freshly solved genesis block and accepts whatever the
// miner submits, without consensus validation, persistence, or a P2P
// layer. It satisfies mining.ChainTip (via the adaptors below) and backs
// this binary's ChainView so the engine is runnable standalone; a real
// deployment replaces it with a view onto an actual validating node
// (spec.md treats "Chain/Network State" as an external collaborator
// referenced by contract, not implemented by this engine).
type localChainState struct {
	mu     sync.RWMutex
	params *chaincfg.Params

	height  int32
	tipHash wire.ShaHash
	bits    uint32
	times   []time.Time // last up to 11 block timestamps, most recent last
	current bool
}

func newLocalChainState(params *chaincfg.Params, genesis *wire.MsgBlock) *localChainState {
	hash := genesis.Header.BlockSha()
	return &localChainState{
		params:  params,
		height:  0,
		tipHash: hash,
		bits:    genesis.Header.Bits,
		times:   []time.Time{genesis.Header.Timestamp},
		current: true,
	}
}

func (c *localChainState) Height() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

func (c *localChainState) Hash() wire.ShaHash {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tipHash
}

func (c *localChainState) MedianTimePast() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sorted := append([]time.Time(nil), c.times...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Before(sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted[len(sorted)/2]
}

// CalcNextRequiredDifficulty treats every block as its own retarget
// window against TargetTimePerBlock rather than accumulating a full
// TargetTimespan-sized window, since the harness doesn't persist a real
// block index to look back across one. blockchain.GetNextWorkRequired
// is left for a real timespan-window retarget; this is its per-block
// analogue, built the same way (ratio of actual to target, clamped by
// RetargetAdjustmentFactor, then BigToCompact).
func (c *localChainState) CalcNextRequiredDifficulty() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	last := c.times[len(c.times)-1]
	if c.params.ReduceMinDifficulty && time.Since(last) > c.params.MinDiffReductionTime {
		return c.params.PowLimitBits
	}

	target := c.params.TargetTimePerBlock
	actual := target
	if len(c.times) >= 2 {
		actual = last.Sub(c.times[len(c.times)-2])
	}
	minSpan := int64(target) / c.params.RetargetAdjustmentFactor
	maxSpan := int64(target) * c.params.RetargetAdjustmentFactor
	adjusted := int64(actual)
	if adjusted < minSpan {
		adjusted = minSpan
	} else if adjusted > maxSpan {
		adjusted = maxSpan
	}

	newTarget := blockchain.CompactToBig(c.bits)
	newTarget.Mul(newTarget, big.NewInt(adjusted))
	newTarget.Div(newTarget, big.NewInt(int64(target)))
	if newTarget.Cmp(c.params.PowLimit) > 0 {
		newTarget.Set(c.params.PowLimit)
	}
	return blockchain.BigToCompact(newTarget)
}

func (c *localChainState) IsWitnessEnabled() bool {
	return c.params.IsWitnessEnabled()
}

// ComputeBlockVersion returns 4, or the configured blockversion override
// when running on regtest.
func (c *localChainState) ComputeBlockVersion() int32 {
	if c.params.Name == chaincfg.RegressionNetParams.Name && cfg != nil && cfg.BlockVersion >= 0 {
		return cfg.BlockVersion
	}
	return 4
}

// Tip satisfies ChainView.Tip.
func (c *localChainState) Tip() (wire.ShaHash, int32) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tipHash, c.height
}

// SubmitBlock satisfies ChainView.SubmitBlock: it accepts any block whose
// PrevBlock matches the current tip, then advances the harness's idea of
// the tip. The proof of work is not checked, and no UTXO or script
// validation is performed.
func (c *localChainState) SubmitBlock(block *wire.MsgBlock) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if block.Header.PrevBlock != c.tipHash {
		return false, nil
	}

	hash := block.Header.BlockSha()
	c.tipHash = hash
	c.height++
	c.bits = block.Header.Bits
	c.times = append(c.times, block.Header.Timestamp)
	if len(c.times) > 11 {
		c.times = c.times[len(c.times)-11:]
	}
	return true, nil
}

// ConnectedPeerCount satisfies ChainView.ConnectedPeerCount. The harness
// has no P2P layer, so it always reports itself as sufficiently connected
// to clear the readiness gate (spec §4.5 step 1).
func (c *localChainState) ConnectedPeerCount() int {
	return 1
}

// IsCurrent satisfies ChainView.IsCurrent; the harness is trivially
// caught up with itself.
func (c *localChainState) IsCurrent() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}
