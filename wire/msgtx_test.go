// Copyright (c) 2016 BLOCKO INC.
package wire

import (
	"bytes"
	"testing"
)

func buildTestTx() *MsgTx {
	tx := NewMsgTx()
	prev := ShaHash{0x11, 0x22}
	tx.AddTxIn(NewTxIn(NewOutPoint(&prev, 3), []byte{0x51, 0x52}))
	tx.AddTxOut(NewTxOut(5000, []byte{0x76, 0xa9}))
	tx.AddTxOut(NewTxOut(1234, nil))
	tx.LockTime = 500000
	return tx
}

func TestMsgTxSerializeDeserializeRoundTrip(t *testing.T) {
	tx := buildTestTx()

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if buf.Len() != tx.SerializeSize() {
		t.Fatalf("serialized length = %d, want SerializeSize() = %d", buf.Len(), tx.SerializeSize())
	}

	var got MsgTx
	if err := got.Deserialize(&buf); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if got.Version != tx.Version {
		t.Errorf("Version = %d, want %d", got.Version, tx.Version)
	}
	if len(got.TxIn) != len(tx.TxIn) || len(got.TxOut) != len(tx.TxOut) {
		t.Fatalf("TxIn/TxOut counts = %d/%d, want %d/%d", len(got.TxIn), len(got.TxOut), len(tx.TxIn), len(tx.TxOut))
	}
	if got.TxIn[0].PreviousOutPoint != tx.TxIn[0].PreviousOutPoint {
		t.Errorf("PreviousOutPoint mismatch")
	}
	if !bytes.Equal(got.TxIn[0].SignatureScript, tx.TxIn[0].SignatureScript) {
		t.Errorf("SignatureScript mismatch")
	}
	if got.TxIn[0].Sequence != tx.TxIn[0].Sequence {
		t.Errorf("Sequence = %d, want %d", got.TxIn[0].Sequence, tx.TxIn[0].Sequence)
	}
	if got.TxOut[0].Value != tx.TxOut[0].Value || got.TxOut[1].Value != tx.TxOut[1].Value {
		t.Errorf("TxOut values mismatch")
	}
	if got.LockTime != tx.LockTime {
		t.Errorf("LockTime = %d, want %d", got.LockTime, tx.LockTime)
	}
	if got.TxSha() != tx.TxSha() {
		t.Errorf("round-tripped transaction hashes to a different identifier")
	}
}

func TestMsgTxCopyIsDeep(t *testing.T) {
	tx := buildTestTx()
	cp := tx.Copy()

	if cp.TxSha() != tx.TxSha() {
		t.Fatalf("copy must hash identically to the original before mutation")
	}

	cp.TxIn[0].SignatureScript[0] = 0xff
	cp.TxOut[0].Value = 999

	if tx.TxIn[0].SignatureScript[0] == 0xff {
		t.Errorf("mutating the copy's input script affected the original")
	}
	if tx.TxOut[0].Value == 999 {
		t.Errorf("mutating the copy's output value affected the original")
	}
}

func TestMsgTxIsCoinBase(t *testing.T) {
	coinbase := NewMsgTx()
	coinbase.AddTxIn(NewTxIn(NewOutPoint(&ShaHash{}, MaxPrevOutIndex), []byte{0x00}))
	coinbase.AddTxOut(NewTxOut(5000000000, nil))
	if !coinbase.IsCoinBase() {
		t.Errorf("IsCoinBase() = false, want true for a null-prevout single-input tx")
	}

	regular := buildTestTx()
	if regular.IsCoinBase() {
		t.Errorf("IsCoinBase() = true, want false for a tx with a real previous outpoint")
	}
}

func TestMsgTxSerializeSizeMatchesSerialize(t *testing.T) {
	tx := buildTestTx()
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if got, want := tx.SerializeSize(), buf.Len(); got != want {
		t.Errorf("SerializeSize() = %d, want %d", got, want)
	}
}

func TestOutPointString(t *testing.T) {
	hash := ShaHash{0x01}
	op := NewOutPoint(&hash, 7)
	want := hash.String() + ":7"
	if got := op.String(); got != want {
		t.Errorf("OutPoint.String() = %q, want %q", got, want)
	}
}
