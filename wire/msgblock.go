// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// defaultTransactionAlloc is the default size used for the backing array
// for transactions.  The array will dynamically grow as needed, but this
// figure is intended to provide enough space for the number of
// transactions in an average block without needing to grow the backing
// array multiple times.
const defaultTransactionAlloc = 2048

// MsgBlock represents a bitcoin block message.  It is used to deliver block and transaction information
// and is assembled by the Template Builder (C4) from a BlockHeader and a
// BlockTemplate's transaction sequence.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

// AddTransaction adds a transaction to the message.
func (msg *MsgBlock) AddTransaction(tx *MsgTx) error {
	msg.Transactions = append(msg.Transactions, tx)
	return nil
}

// ClearTransactions removes all transactions from the message.
func (msg *MsgBlock) ClearTransactions() {
	msg.Transactions = make([]*MsgTx, 0, defaultTransactionAlloc)
}

// BlockSha returns the block identifier hash for this block (the header
// hash; see BlockHeader.BlockSha).
func (msg *MsgBlock) BlockSha() ShaHash {
	return msg.Header.BlockSha()
}

// Serialize encodes the block to w: the 80-byte header followed by the
// varint-prefixed transaction list.
func (msg *MsgBlock) Serialize(w io.Writer) error {
	if err := msg.Header.Serialize(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(msg.Transactions))); err != nil {
		return err
	}
	for _, tx := range msg.Transactions {
		if err := tx.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// SerializeSize returns the number of bytes it would take to serialize
// the block.
func (msg *MsgBlock) SerializeSize() int {
	n := BlockHeaderLen + VarIntSerializeSize(uint64(len(msg.Transactions)))
	for _, tx := range msg.Transactions {
		n += tx.SerializeSize()
	}
	return n
}

// Deserialize decodes a block from r, the inverse of Serialize.
func (msg *MsgBlock) Deserialize(r io.Reader) error {
	if err := msg.Header.Deserialize(r); err != nil {
		return err
	}
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	msg.Transactions = make([]*MsgTx, count)
	for i := uint64(0); i < count; i++ {
		tx := new(MsgTx)
		if err := tx.Deserialize(r); err != nil {
			return err
		}
		msg.Transactions[i] = tx
	}
	return nil
}

// NewMsgBlock returns a new bitcoin block message with the given header
// and no transactions.  See MsgBlock for details.
func NewMsgBlock(blockHeader *BlockHeader) *MsgBlock {
	return &MsgBlock{
		Header:       *blockHeader,
		Transactions: make([]*MsgTx, 0, defaultTransactionAlloc),
	}
}

// String is a convenience function that formats the block hash for
// logging/telemetry.
func (msg *MsgBlock) String() string {
	hash := msg.BlockSha()
	return fmt.Sprintf("block %s (%d txns)", hash.String(), len(msg.Transactions))
}
