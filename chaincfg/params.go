// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg holds the chain-parameterised constants the Template
// Builder (C4) and Header Hasher (C1) collaborators need: difficulty
// limits, retarget timing, and subsidy schedule. Field set grounded on
// jaxnet-lab-jaxnetd/chaincfg/cfg_testnet.go's Params shape.
package chaincfg

import (
	"math/big"
	"time"
)

// Params defines a network by its parameters. These parameters may be
// used by chain code to allow for differences in various networks.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net is the rough estimate net the chain operates on, used purely
	// for observability/telemetry.
	Net uint32

	// PowLimit defines the highest allowed proof of work value for a
	// block as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// CoinbaseMaturity is the number of blocks required before newly
	// mined coins (coinbase transactions) can be spent.
	CoinbaseMaturity uint16

	// SubsidyReductionInterval is the height interval at which the base
	// subsidy is reduced (halved).
	SubsidyReductionInterval int32

	// TargetTimespan is the desired amount of time that should elapse
	// before the block difficulty requirement is examined to determine
	// how it should be changed.
	TargetTimespan time.Duration

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// RetargetAdjustmentFactor is the adjustment factor used to limit
	// the minimum and maximum amount of adjustment that can occur
	// between difficulty retargets.
	RetargetAdjustmentFactor int64

	// ReduceMinDifficulty defines whether the network should reduce the
	// minimum required difficulty after a long enough period of time has
	// passed without finding a block.  This is really only useful for
	// test networks and should not be set on the main network.
	ReduceMinDifficulty bool

	// MinDiffReductionTime is the amount of time after which the minimum
	// required difficulty is reduced when ReduceMinDifficulty is true.
	MinDiffReductionTime time.Duration

	// GenerateSupported specifies whether or not CPU mining is allowed.
	GenerateSupported bool

	// BIP0034Height is the height at which the BIP0034 coinbase height
	// push-encoding requirement became active.
	BIP0034Height int32

	// Deployments defines the specific consensus rule changes that are
	// or will be deployed, keyed by the version bit they signal on.
	// Only the witness deployment matters to this engine (whether
	// includeWitness may be set); others are opaque to the assembler.
	Deployments map[string]bool
}

// calcPowLimit builds the maximum-difficulty (easiest) target for a chain
// with numLeadingZeroBits guaranteed zero leading bits.
func calcPowLimit(numLeadingZeroBits uint) *big.Int {
	limit := new(big.Int).Lsh(big.NewInt(1), 256-numLeadingZeroBits)
	return limit.Sub(limit, big.NewInt(1))
}

// MainNetParams defines the network parameters for the main scrypt
// proof-of-work network.
var MainNetParams = Params{
	Name:                     "mainnet",
	Net:                      0xd9b4bef9,
	PowLimit:                 calcPowLimit(20),
	PowLimitBits:             0x1e0fffff,
	CoinbaseMaturity:         100,
	SubsidyReductionInterval: 840000,
	TargetTimespan:           time.Hour * 84, // 3.5 days
	TargetTimePerBlock:       time.Second * 150,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      false,
	GenerateSupported:        true,
	BIP0034Height:            710000,
	Deployments:              map[string]bool{"segwit": true},
}

// TestNetParams defines the network parameters for the test network,
// grounded on jaxnetd's cfg_testnet.go value choices (15s blocks, 30s
// min-difficulty reduction window).
var TestNetParams = Params{
	Name:                     "testnet",
	Net:                      0x0709110b,
	PowLimit:                 calcPowLimit(20),
	PowLimitBits:             0x1e0fffff,
	CoinbaseMaturity:         100,
	SubsidyReductionInterval: 840000,
	TargetTimespan:           time.Hour * 84,
	TargetTimePerBlock:       time.Second * 15,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      true,
	MinDiffReductionTime:     time.Second * 30,
	GenerateSupported:        true,
	BIP0034Height:            0,
	Deployments:              map[string]bool{"segwit": true},
}

// RegressionNetParams defines the network parameters for the regression
// test network; allows the `blockversion` config override and min
// difficulty blocks.
var RegressionNetParams = Params{
	Name:                     "regtest",
	Net:                      0xdab5bffa,
	PowLimit:                 calcPowLimit(1),
	PowLimitBits:             0x207fffff,
	CoinbaseMaturity:         100,
	SubsidyReductionInterval: 150,
	TargetTimespan:           time.Hour * 84,
	TargetTimePerBlock:       time.Second * 150,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      true,
	MinDiffReductionTime:     time.Second * 300,
	GenerateSupported:        true,
	BIP0034Height:            0,
	Deployments:              map[string]bool{"segwit": true},
}

// PrivateNetParams defines the network parameters used by CreateGenesisBlock
// for operator-configured private networks (kept for parity with
// chainmaker.CreateGenesisBlock's reference to chaincfg.PrivateNetParams).
var PrivateNetParams = Params{
	Name:                     "privnet",
	Net:                      0xf9beb4fe,
	PowLimit:                 calcPowLimit(1),
	PowLimitBits:             0x207fffff,
	CoinbaseMaturity:         10,
	SubsidyReductionInterval: 150000,
	TargetTimespan:           time.Hour * 84,
	TargetTimePerBlock:       time.Second * 150,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      true,
	MinDiffReductionTime:     time.Second * 300,
	GenerateSupported:        true,
	BIP0034Height:            0,
	Deployments:              map[string]bool{"segwit": false},
}

// IsWitnessEnabled reports whether the witness soft-fork deployment is
// active for this network. A stand-in for the chain-state collaborator's
// richer activation-height logic (spec §6, isWitnessEnabled).
func (p *Params) IsWitnessEnabled() bool {
	return p.Deployments["segwit"]
}
