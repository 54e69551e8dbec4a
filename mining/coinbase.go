// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"fmt"

	"github.com/coinstack/btcutil"

	"github.com/coinstack/scryptminer/blockchain"
	"github.com/coinstack/scryptminer/chaincfg"
	"github.com/coinstack/scryptminer/txscript"
	"github.com/coinstack/scryptminer/wire"
)

// StandardCoinbaseScript returns a standard script suitable for use as the
// signature script of the coinbase transaction of a new block: height,
// extra-nonce, and an operator-supplied flags string (spec §4.4 step 9's
// "scriptSig = push(height) || push(extraNonce placeholder)"), generalized
// from chainmaker/genesisblock.go's genesis-only standardCoinbaseScript
// into the per-height, per-extra-nonce helper the Template Builder and
// the worker's IncrementExtraNonce equivalent both need.
func StandardCoinbaseScript(nextBlockHeight int32, extraNonce uint64, flags string) ([]byte, error) {
	script, err := txscript.NewScriptBuilder().
		AddInt64(int64(nextBlockHeight)).
		AddInt64(int64(extraNonce)).
		AddData([]byte(flags)).
		Script()
	if err != nil {
		return nil, err
	}
	if len(script) > blockchain.MaxCoinbaseScriptLen {
		return nil, fmt.Errorf("coinbase transaction script length "+
			"of %d is out of range (min: %d, max: %d)",
			len(script), blockchain.MinCoinbaseScriptLen,
			blockchain.MaxCoinbaseScriptLen)
	}
	return script, nil
}

// CreateCoinbaseTx returns a coinbase transaction paying an appropriate
// subsidy based on the passed block height, plus accumulated fees, to the
// provided address. When the address is nil, the coinbase output pays
// anyone (OP_TRUE), matching chainmaker/genesisblock.go's
// createCoinbaseTx fallback for private/genesis networks.
func CreateCoinbaseTx(coinbaseScript []byte, nextBlockHeight int32, totalFees int64, addr btcutil.Address, params *chaincfg.Params) (*wire.MsgTx, error) {
	var pkScript []byte
	if addr != nil {
		var err error
		pkScript, err = txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		pkScript, err = txscript.NewScriptBuilder().AddOp(txscript.OP_TRUE).Script()
		if err != nil {
			return nil, err
		}
	}

	tx := wire.NewMsgTx()
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&wire.ShaHash{}, wire.MaxPrevOutIndex),
		SignatureScript:  coinbaseScript,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	subsidy := blockchain.CalcBlockSubsidy(nextBlockHeight, params)
	tx.AddTxOut(&wire.TxOut{
		Value:    subsidy + totalFees,
		PkScript: pkScript,
	})
	return tx, nil
}

// UpdateExtraNonce re-encodes the coinbase scriptSig with a new
// extra-nonce value and recomputes the block's merkle root, the
// mechanical step the worker performs every time it bumps the per-thread
// extra-nonce counter (spec §4.5 step 3). Grounded directly on
// chainmaker/genesisblock.go's updateExtraNonce.
func UpdateExtraNonce(flags string, msgBlock *wire.MsgBlock, blockHeight int32, extraNonce uint64) error {
	coinbaseScript, err := StandardCoinbaseScript(blockHeight, extraNonce, flags)
	if err != nil {
		return err
	}
	msgBlock.Transactions[0].TxIn[0].SignatureScript = coinbaseScript

	merkles := blockchain.BuildMerkleTreeStore(msgBlock.Transactions)
	msgBlock.Header.MerkleRoot = *merkles[len(merkles)-1]
	return nil
}
