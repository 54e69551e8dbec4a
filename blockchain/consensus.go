// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

// Consensus-level size and cost limits the Package Selector (C3) and
// Template Builder (C4) must respect (spec §3/§4.3/§4.4). Grounded on
// chainmaker/genesisblock.go's direct reference to
// blockchain.MaxCoinbaseScriptLen / MinCoinbaseScriptLen.
const (
	// MaxBlockWeight is the maximum block weight consensus allows
	// (weight = 4*stripped_size + witness_size).
	MaxBlockWeight = 4_000_000

	// MaxBlockSigOpsCost is the maximum aggregate sigop cost consensus
	// allows per block.
	MaxBlockSigOpsCost = 80_000

	// CoinbaseReservedWeight is the weight reserved for the coinbase
	// transaction when computing the Package Selector's effective
	// budget (spec §4.3 bullet 1).
	CoinbaseReservedWeight = 4000

	// CoinbaseReservedSigOpCost is the sigop cost reserved for the
	// coinbase transaction (spec §4.3 bullet 2).
	CoinbaseReservedSigOpCost = 400

	// MinCoinbaseScriptLen is the minimum length a coinbase script may
	// be.
	MinCoinbaseScriptLen = 2

	// MaxCoinbaseScriptLen is the maximum length a coinbase script may
	// be (spec §4.4 step 9).
	MaxCoinbaseScriptLen = 100

	// DefaultBlockMaxWeight is the default maximum block weight to use
	// when generating a block template, absent a `blockmaxweight`
	// override (spec §6 configuration table).
	DefaultBlockMaxWeight = MaxBlockWeight - CoinbaseReservedWeight

	// DefaultBlockMinTxFee is the default minimum fee, in
	// satoshi/kilovbyte, a package must clear to be included
	// (spec §6, `blockmintxfee`).
	DefaultBlockMinTxFee = 1000

	// maxConsecutiveFailures is the heuristic early-stop threshold for
	// the Package Selector's main loop (spec §4.3 step 4 / §9 design
	// note). Kept as an unexported tuning constant rather than a config
	// option, per DESIGN.md's Open Question decision.
	maxConsecutiveFailures = 1000
)

// MaxConsecutiveFailures exposes maxConsecutiveFailures for package
// mining's addPackageTxs without making it an operator-facing knob.
func MaxConsecutiveFailures() int { return maxConsecutiveFailures }

// ClampBlockMaxWeight applies the spec §5 sanity guard:
// max(4000, min(MAX_BLOCK_WEIGHT-4000, configuredMax)).
func ClampBlockMaxWeight(configured uint32) uint32 {
	upper := uint32(DefaultBlockMaxWeight)
	if configured > upper {
		configured = upper
	}
	if configured < CoinbaseReservedWeight {
		configured = CoinbaseReservedWeight
	}
	return configured
}
