// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/coinstack/btcutil"

	"github.com/coinstack/scryptminer/chaincfg"
)

// baseSubsidy is the starting subsidy amount for mined blocks, in atomic
// units. This value is halved every SubsidyReductionInterval blocks.
const baseSubsidy = 50 * btcutil.SatoshiPerBitcoin

// CalcBlockSubsidy returns the subsidy amount a block at the provided
// height should have. This is mainly used for determining how much the
// coinbase for newly generated blocks awards as well as validating the
// coinbase for blocks has the expected value.
//
// Grounded on chainmaker/genesisblock.go's call
// `blockchain.CalcBlockSubsidy(nextBlockHeight, defaultNet)`.
func CalcBlockSubsidy(height int32, chainParams *chaincfg.Params) int64 {
	if chainParams.SubsidyReductionInterval == 0 {
		return baseSubsidy
	}

	return baseSubsidy >> uint(height/chainParams.SubsidyReductionInterval)
}
