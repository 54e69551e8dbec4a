// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"fmt"
	"time"

	"github.com/coinstack/btcutil"

	"github.com/coinstack/scryptminer/blockchain"
	"github.com/coinstack/scryptminer/chaincfg"
	"github.com/coinstack/scryptminer/mempool"
	"github.com/coinstack/scryptminer/wire"
)

// ChainTip is the chain-state collaborator the Template Builder (C4)
// consults instead of validating consensus itself (spec §6: "Chain
// State"). The assembler trusts these values without re-deriving them.
type ChainTip interface {
	// Height returns the height of the current best chain tip.
	Height() int32

	// Hash returns the block hash of the current best chain tip.
	Hash() wire.ShaHash

	// MedianTimePast returns the median time of the last 11 blocks
	// ending at the tip, used to compute the lock-time cutoff
	// (spec §4.4 step 2) and as the new block's minimum timestamp.
	MedianTimePast() time.Time

	// CalcNextRequiredDifficulty returns the compact-bits difficulty
	// target the next block must meet.
	CalcNextRequiredDifficulty() uint32

	// IsWitnessEnabled reports whether the segregated witness soft
	// fork is active at the next height.
	IsWitnessEnabled() bool

	// ComputeBlockVersion returns the version field the next block
	// should advertise (soft-fork signaling bits included).
	ComputeBlockVersion() int32
}

// BlockTemplate houses a block that has yet to be solved along with
// additional details about the fees and the number of signature
// operations for each transaction in the block (spec §3
// "BlockTemplate").
type BlockTemplate struct {
	// Block is the block transactions attach to; Header.Nonce and
	// Header.Timestamp are not yet final, and the coinbase carries the
	// extra nonce passed to NewBlockTemplate until a worker replaces it.
	Block *wire.MsgBlock

	// Fees contains the fee per transaction in the generated
	// template, parallel to Block.Transactions (the coinbase's entry
	// is the negative of the total fees paid out).
	Fees []int64

	// SigOpCosts contains the sigop cost per transaction in the
	// generated template, parallel to Block.Transactions.
	SigOpCosts []int64

	// Height is the height of the block the template is for.
	Height int32

	// ValidPayAddress indicates whether or not the template coinbase
	// pays to an address or is redeemable by anyone.
	ValidPayAddress bool
}

// assemblerState tracks the running totals the Package Selector checks
// on every candidate (spec §3 "AssemblerState").
type assemblerState struct {
	blockWeight    int64
	blockSigOpCost int64
	blockTxCount   int64
	totalFees      int64
	lockTimeCutoff time.Time
	height         int32
	includeWitness bool
}

// BlkTmplGenerator generates block templates for a given mining policy
// and chain-state view. It wraps a mempool.TxSource the way
// original_source/src/miner.cpp's BlockAssembler wraps the mempool.
// NewBlockTemplate builds a fresh template on every call: each mining
// worker solves its own template and mutates its header/coinbase
// in place, so two workers must never share one.
type BlkTmplGenerator struct {
	policy      *Policy
	chainParams *chaincfg.Params
	txSource    mempool.TxSource
	chain       ChainTip
	hasher      blockchain.HeaderHasher
}

// NewBlkTmplGenerator returns a new block template generator for the
// given policy using transactions from the provided transaction source.
func NewBlkTmplGenerator(policy *Policy, chainParams *chaincfg.Params, txSource mempool.TxSource, chain ChainTip, hasher blockchain.HeaderHasher) *BlkTmplGenerator {
	if hasher == nil {
		hasher = blockchain.ScryptHeaderHash
	}
	return &BlkTmplGenerator{
		policy:      policy,
		chainParams: chainParams,
		txSource:    txSource,
		chain:       chain,
		hasher:      hasher,
	}
}

// NewBlockTemplate returns a new block template (spec §4.4
// "createNewBlock") that is ready to be solved using the transactions
// from the passed transaction source pool and a coinbase that either
// pays to the passed address if it is not nil, or a coinbase that is
// redeemable by anyone if the address is nil. The nil address format
// is only useful for tests.
func (g *BlkTmplGenerator) NewBlockTemplate(extraNonce uint64, coinbaseFlags string, payToAddr btcutil.Address) (*BlockTemplate, error) {
	prevHash := g.chain.Hash()
	nextHeight := g.chain.Height() + 1
	medianTimePast := g.chain.MedianTimePast()
	includeWitness := g.chain.IsWitnessEnabled() && g.policy.MineWitness

	lockTimeCutoff := medianTimePast
	coinbaseScript, err := StandardCoinbaseScript(nextHeight, extraNonce, coinbaseFlags)
	if err != nil {
		return nil, err
	}

	coinbaseTx, err := CreateCoinbaseTx(coinbaseScript, nextHeight, 0, payToAddr, g.chainParams)
	if err != nil {
		return nil, err
	}
	coinbaseSigOpCost := int64(blockchain.CoinbaseReservedSigOpCost)

	blockMaxWeight := int64(blockchain.ClampBlockMaxWeight(g.policy.BlockMaxWeight))

	state := &assemblerState{
		blockWeight:    blockchain.CoinbaseReservedWeight,
		blockSigOpCost: coinbaseSigOpCost,
		blockTxCount:   1,
		lockTimeCutoff: lockTimeCutoff,
		height:         nextHeight,
		includeWitness: includeWitness,
	}

	blockTxns := make([]*wire.MsgTx, 0, 128)
	blockTxns = append(blockTxns, coinbaseTx)
	txFees := make([]int64, 0, 128)
	txFees = append(txFees, -1) // placeholder, replaced with total fees below
	txSigOpCosts := make([]int64, 0, 128)
	txSigOpCosts = append(txSigOpCosts, coinbaseSigOpCost)

	selected, err := g.addPackageTxs(state, blockMaxWeight)
	if err != nil {
		return nil, err
	}
	if err := checkBlockWeight(state, blockMaxWeight); err != nil {
		return nil, err
	}
	for _, sel := range selected {
		blockTxns = append(blockTxns, sel.entry.Tx())
		txFees = append(txFees, sel.entry.ModifiedFee())
		txSigOpCosts = append(txSigOpCosts, sel.entry.SigOpCost())
		state.totalFees += sel.entry.ModifiedFee()
	}

	// Finalize the coinbase now that the total fee income is known
	// (spec §4.4 step 9).
	coinbaseTx, err = CreateCoinbaseTx(coinbaseScript, nextHeight, state.totalFees, payToAddr, g.chainParams)
	if err != nil {
		return nil, err
	}
	blockTxns[0] = coinbaseTx
	txFees[0] = -state.totalFees

	merkles := blockchain.BuildMerkleTreeStore(blockTxns)
	header := wire.NewBlockHeader(
		g.chain.ComputeBlockVersion(),
		&prevHash,
		merkles[len(merkles)-1],
		g.chain.CalcNextRequiredDifficulty(),
		0,
	)
	if header.Timestamp.Before(medianTimePast.Add(time.Second)) {
		header.Timestamp = medianTimePast.Add(time.Second)
	}

	msgBlock := wire.NewMsgBlock(header)
	msgBlock.Transactions = blockTxns

	template := &BlockTemplate{
		Block:           msgBlock,
		Fees:            txFees,
		SigOpCosts:      txSigOpCosts,
		Height:          nextHeight,
		ValidPayAddress: payToAddr != nil,
	}
	return template, nil
}

// txWeight approximates consensus weight as 4x the stripped
// serialized size; witness discounting is out of scope absent a
// concrete segwit transaction encoding in this module.
func txWeight(tx *wire.MsgTx) int64 {
	return int64(tx.SerializeSize()) * 4
}

// candidate is one mempool entry placed into the block by
// addPackageTxs; the package it came with is not recorded.
type candidate struct {
	entry *mempool.Entry
}

// addPackageTxs is the Package Selector (C3): it walks the mempool's
// ancestor-fee-rate ordering merged against a working ModifiedTxSet,
// testing and committing whole ancestor packages at a time. Translated
// idiomatically from original_source/src/miner.cpp's addPackageTxs /
// TestPackage / TestPackageTransactions / AddToBlock /
// UpdatePackagesForAdded / SkipMapTxEntry / SortForBlock.
func (g *BlkTmplGenerator) addPackageTxs(state *assemblerState, blockMaxWeight int64) ([]candidate, error) {
	mempoolEntries := g.txSource.Entries()
	modifiedTxs := mempool.NewModifiedTxSet()
	failedSet := make(map[wire.ShaHash]bool)
	inBlockSet := make(map[wire.ShaHash]bool)

	maxConsecutiveFailures := blockchain.MaxConsecutiveFailures()
	consecutiveFailures := 0
	mi := 0 // next unconsidered index into mempoolEntries

	var selected []candidate

	for mi < len(mempoolEntries) || modifiedTxs.Len() > 0 {
		// Advance past mempool-ordered entries already superseded by
		// a modified (partially-included) version, or already placed.
		for mi < len(mempoolEntries) {
			hash := mempoolEntries[mi].Hash()
			if _, ok := modifiedTxs.Get(hash); ok {
				mi++
				continue
			}
			if inBlockSet[hash] {
				mi++
				continue
			}
			if failedSet[hash] {
				mi++
				continue
			}
			break
		}

		var chosenEntry *mempool.Entry
		var chosenSize, chosenWeight, chosenFee, chosenSigOps int64
		var chosenAncestors map[wire.ShaHash]*mempool.Entry
		usingModified := false

		modFront := modifiedTxs.Front()
		if mi >= len(mempoolEntries) {
			if modFront == nil {
				break
			}
			chosenEntry = modFront.Iter
			chosenSize = modFront.SizeWithAncestors
			chosenWeight = modFront.WeightWithAncestors
			chosenFee = modFront.ModFeesWithAncestors
			chosenSigOps = modFront.SigOpCostWithAncestors
			usingModified = true
		} else {
			mempoolEntry := mempoolEntries[mi]
			if modFront != nil && mempool.AncestorFeeRateLess(
				mempoolEntry.ModFeesWithAncestors(), mempoolEntry.SizeWithAncestors(),
				modFront.ModFeesWithAncestors, modFront.SizeWithAncestors,
				mempoolEntry.Hash(), modFront.Iter.Hash(),
			) {
				chosenEntry = modFront.Iter
				chosenSize = modFront.SizeWithAncestors
				chosenWeight = modFront.WeightWithAncestors
				chosenFee = modFront.ModFeesWithAncestors
				chosenSigOps = modFront.SigOpCostWithAncestors
				usingModified = true
			} else {
				chosenEntry = mempoolEntry
				chosenSize = mempoolEntry.SizeWithAncestors()
				chosenWeight = mempoolEntry.WeightWithAncestors()
				chosenFee = mempoolEntry.ModFeesWithAncestors()
				chosenSigOps = mempoolEntry.SigOpCostWithAncestors()
				mi++
			}
		}

		// Below the minimum package fee-rate: since both orderings are
		// fee-rate descending, nothing after this point can qualify
		// either (spec §4.3 step 3 early termination).
		if g.policy.BlockMinFeeRate > 0 &&
			mempool.AncestorFeeRateLess(chosenFee, chosenSize, g.policy.BlockMinFeeRate, 1000, wire.ShaHash{}, wire.ShaHash{}) {
			break
		}

		if inBlockSet[chosenEntry.Hash()] {
			continue
		}

		// Capacity test (spec §4.3 step 4): would this package exceed
		// the block's remaining weight or sigop budget?
		if state.blockWeight+chosenWeight > blockMaxWeight ||
			state.blockSigOpCost+chosenSigOps > blockchain.MaxBlockSigOpsCost {
			if rejectCandidate(chosenEntry.Hash(), usingModified, modifiedTxs, failedSet,
				state, blockMaxWeight, &consecutiveFailures, maxConsecutiveFailures) {
				break
			}
			continue
		}

		// Finality test: every transaction in the package must be
		// final at the candidate block's height/lock-time cutoff.
		if !isFinalForBlock(chosenEntry, state) {
			if rejectCandidate(chosenEntry.Hash(), usingModified, modifiedTxs, failedSet,
				state, blockMaxWeight, &consecutiveFailures, maxConsecutiveFailures) {
				break
			}
			continue
		}
		chosenAncestors = g.txSource.CalculateMemPoolAncestors(chosenEntry)
		allFinal := true
		for _, anc := range chosenAncestors {
			if inBlockSet[anc.Hash()] {
				continue
			}
			if !isFinalForBlock(anc, state) {
				allFinal = false
				break
			}
		}
		if !allFinal {
			if rejectCandidate(chosenEntry.Hash(), usingModified, modifiedTxs, failedSet,
				state, blockMaxWeight, &consecutiveFailures, maxConsecutiveFailures) {
				break
			}
			continue
		}

		// Witness test (spec §4.3 step 6 / §4.4 step 7): a package
		// carrying witness data may not be selected unless the
		// candidate block allows witness-bearing transactions.
		if !state.includeWitness && packageHasWitness(chosenEntry, chosenAncestors) {
			if rejectCandidate(chosenEntry.Hash(), usingModified, modifiedTxs, failedSet,
				state, blockMaxWeight, &consecutiveFailures, maxConsecutiveFailures) {
				break
			}
			continue
		}

		// Commit: place the package, ordered ascending by ancestor
		// count so parents always precede children (SortForBlock).
		pkg := make([]*mempool.Entry, 0, len(chosenAncestors)+1)
		for _, anc := range chosenAncestors {
			if !inBlockSet[anc.Hash()] {
				pkg = append(pkg, anc)
			}
		}
		pkg = append(pkg, chosenEntry)
		sortForBlock(pkg)

		for _, e := range pkg {
			selected = append(selected, candidate{entry: e})
			inBlockSet[e.Hash()] = true
			state.blockWeight += e.Weight()
			state.blockSigOpCost += e.SigOpCost()
			state.blockTxCount++
			modifiedTxs.Remove(e.Hash())
		}
		consecutiveFailures = 0

		if g.policy.PrintPriority {
			log.Debugf("fee rate %d/%d selected for block (tx %s)",
				chosenEntry.ModFeesWithAncestors(), chosenEntry.SizeWithAncestors(),
				chosenEntry.Hash())
		}

		// Propagate: every descendant of the committed package loses
		// the committed ancestors' contribution to its own ancestor
		// aggregates (UpdatePackagesForAdded).
		g.updatePackagesForAdded(pkg, modifiedTxs, inBlockSet, failedSet)
	}

	return selected, nil
}

// rejectCandidate applies the fail-accounting a rejected candidate gets
// regardless of which screen (capacity, finality, witness) it failed:
// a modified-sourced candidate is erased from modifiedTxs and marked in
// failedSet so neither modifiedTxs.Front() nor the skip loop ever
// reconsiders it, matching miner.cpp's repeated
// "mapModifiedTx.get<ancestor_score>().erase(modit); failedTx.insert(iter)"
// accounting at every TestPackage/TestPackageTransactions failure site.
// It returns whether the near-full escape hatch should now break the
// selection loop.
func rejectCandidate(hash wire.ShaHash, usingModified bool, modifiedTxs *mempool.ModifiedTxSet,
	failedSet map[wire.ShaHash]bool, state *assemblerState, blockMaxWeight int64,
	consecutiveFailures *int, maxConsecutiveFailures int) bool {
	if usingModified {
		modifiedTxs.Remove(hash)
		failedSet[hash] = true
	}
	*consecutiveFailures++
	return *consecutiveFailures > maxConsecutiveFailures && state.blockWeight > blockMaxWeight-4000
}

// packageHasWitness reports whether the candidate entry or any of its
// uncommitted ancestors carries segregated witness data.
func packageHasWitness(entry *mempool.Entry, ancestors map[wire.ShaHash]*mempool.Entry) bool {
	if entry.HasWitness() {
		return true
	}
	for _, anc := range ancestors {
		if anc.HasWitness() {
			return true
		}
	}
	return false
}

// isFinalForBlock reports whether entry's transaction would be final
// at the candidate block's height and lock-time cutoff.
func isFinalForBlock(entry *mempool.Entry, state *assemblerState) bool {
	tx := entry.Tx()
	if tx.LockTime == 0 {
		return true
	}
	// A non-zero LockTime below the sequence-number threshold is
	// interpreted as a block height, otherwise as a Unix timestamp
	// (spec §3 "finality"), compared against the candidate's own
	// height / lockTimeCutoff rather than against chain-validated
	// state, matching the assembler's collaborator-trust contract.
	const lockTimeThreshold = 500000000
	if tx.LockTime < lockTimeThreshold {
		return int64(tx.LockTime) < int64(state.height)
	}
	return int64(tx.LockTime) < state.lockTimeCutoff.Unix()
}

// sortForBlock orders pkg ascending by CountWithAncestors so that every
// transaction's parents are placed before it, matching
// original_source/src/miner.cpp's SortForBlock.
func sortForBlock(pkg []*mempool.Entry) {
	for i := 1; i < len(pkg); i++ {
		for j := i; j > 0 && pkg[j].CountWithAncestors() < pkg[j-1].CountWithAncestors(); j-- {
			pkg[j], pkg[j-1] = pkg[j-1], pkg[j]
		}
	}
}

// updatePackagesForAdded walks every uncommitted descendant of the
// transactions in pkg and either updates its ModifiedTxSet entry (or
// inserts a fresh one) to reflect the committed ancestors' weight being
// removed from its aggregates. A descendant already in failedSet (a
// modified-sourced candidate that failed any screen) is skipped
// entirely, matching SkipMapTxEntry's fUsingModified-gated behavior.
func (g *BlkTmplGenerator) updatePackagesForAdded(pkg []*mempool.Entry, modifiedTxs *mempool.ModifiedTxSet, inBlockSet map[wire.ShaHash]bool, failedSet map[wire.ShaHash]bool) {
	for _, added := range pkg {
		descendants := g.txSource.CalculateDescendants(added)
		for hash, desc := range descendants {
			if inBlockSet[hash] || failedSet[hash] {
				continue
			}
			existing, ok := modifiedTxs.Get(hash)
			if !ok {
				existing = mempool.NewModifiedEntry(desc)
			}
			existing.SizeWithAncestors -= added.Size()
			existing.WeightWithAncestors -= added.Weight()
			existing.ModFeesWithAncestors -= added.ModifiedFee()
			existing.SigOpCostWithAncestors -= added.SigOpCost()
			modifiedTxs.Insert(existing)
		}
	}
}

// UpdateBlockTime updates the timestamp in the header of the passed
// block template to the current time while taking into account the
// median time of the last several blocks to ensure the new time is
// after that time per the chain consensus rules. It also recalculates
// and updates the new difficulty when needed (spec §4.5 step 4, the
// worker's per-scan-window refresh).
func (g *BlkTmplGenerator) UpdateBlockTime(msgBlock *wire.MsgBlock) error {
	newTime := time.Now()
	medianTimePast := g.chain.MedianTimePast()
	if newTime.Before(medianTimePast.Add(time.Second)) {
		newTime = medianTimePast.Add(time.Second)
	}
	msgBlock.Header.Timestamp = newTime

	// On min-difficulty networks the required work depends on the time.
	if g.chainParams.ReduceMinDifficulty {
		msgBlock.Header.Bits = g.chain.CalcNextRequiredDifficulty()
	}
	return nil
}

// checkBlockWeight is a defensive assertion the Template Builder runs
// once assembly is complete, matching spec §3's block-level invariant
// that no committed template may exceed the consensus weight or sigop
// ceiling. It never fires in normal operation since addPackageTxs
// already enforces the same bound per-candidate.
func checkBlockWeight(state *assemblerState, blockMaxWeight int64) error {
	if state.blockWeight > blockMaxWeight {
		return fmt.Errorf("assembled block weight %d exceeds budget %d",
			state.blockWeight, blockMaxWeight)
	}
	if state.blockSigOpCost > blockchain.MaxBlockSigOpsCost {
		return fmt.Errorf("assembled block sigop cost %d exceeds limit %d",
			state.blockSigOpCost, blockchain.MaxBlockSigOpsCost)
	}
	return nil
}
