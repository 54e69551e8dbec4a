// Copyright (c) 2016 BLOCKO INC.
package blockchain

import (
	"testing"

	"github.com/coinstack/scryptminer/wire"
)

func makeTestTx(extraNonce int64) *wire.MsgTx {
	tx := wire.NewMsgTx()
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&wire.ShaHash{}, wire.MaxPrevOutIndex), nil))
	tx.AddTxOut(wire.NewTxOut(extraNonce, nil))
	return tx
}

func TestBuildMerkleTreeStoreSingleTx(t *testing.T) {
	tx := makeTestTx(0)
	merkles := BuildMerkleTreeStore([]*wire.MsgTx{tx})
	if len(merkles) != 1 {
		t.Fatalf("len(merkles) = %d, want 1", len(merkles))
	}
	txHash := tx.TxSha()
	if *merkles[0] != txHash {
		t.Errorf("single-tx merkle root should equal the tx hash itself")
	}
}

func TestBuildMerkleTreeStoreOddCountDuplicatesLast(t *testing.T) {
	txs := []*wire.MsgTx{makeTestTx(0), makeTestTx(1), makeTestTx(2)}
	merkles := BuildMerkleTreeStore(txs)
	// 3 leaves -> next power of two 4 -> arraySize 7, root at index 6.
	if len(merkles) != 7 {
		t.Fatalf("len(merkles) = %d, want 7", len(merkles))
	}
	if merkles[3] != nil {
		t.Errorf("the padded 4th leaf slot must stay nil")
	}

	// The root must be deterministic and repeatable for the same input.
	again := BuildMerkleTreeStore(txs)
	if *merkles[len(merkles)-1] != *again[len(again)-1] {
		t.Errorf("BuildMerkleTreeStore is not deterministic for identical input")
	}
}

func TestBuildMerkleTreeStoreOrderSensitive(t *testing.T) {
	a, b := makeTestTx(0), makeTestTx(1)
	forward := BuildMerkleTreeStore([]*wire.MsgTx{a, b})
	backward := BuildMerkleTreeStore([]*wire.MsgTx{b, a})
	rootF := *forward[len(forward)-1]
	rootB := *backward[len(backward)-1]
	if rootF == rootB {
		t.Errorf("merkle root should depend on transaction order")
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{
		1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 7: 8, 8: 8, 9: 16,
	}
	for n, want := range cases {
		if got := nextPowerOfTwo(n); got != want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", n, got, want)
		}
	}
}
