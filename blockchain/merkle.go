// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/coinstack/scryptminer/wire"
)

// nextPowerOfTwo returns the next highest power of two from a given
// number if it is not already a power of two.
func nextPowerOfTwo(n int) int {
	if n&(n-1) == 0 {
		return n
	}
	exponent := uint(0)
	for n > 0 {
		n >>= 1
		exponent++
	}
	return 1 << exponent
}

// hashMerkleBranches takes two hashes, treated as the left and right tree
// nodes, and returns the hash of their concatenation.
func hashMerkleBranches(left, right *wire.ShaHash) *wire.ShaHash {
	var buf [wire.HashSize * 2]byte
	copy(buf[:wire.HashSize], left[:])
	copy(buf[wire.HashSize:], right[:])
	newHash := wire.DoubleSha256SH(buf[:])
	return &newHash
}

// BuildMerkleTreeStore creates a merkle tree from a slice of transactions,
// stores it using a linear array, and returns a slice of the backing
// array. A linear array was chosen as opposed to an actual tree structure
// since it uses about half as much memory. The first nextPowerOfTwo(n)
// slots hold the transaction hashes (unused slots stay nil), each
// following level of parent nodes comes after them, and the root is the
// last element. A node whose right child is nil is the hash of its left
// child concatenated with itself.
//
// Used by the Template Builder (C4) to fill the header's merkle root, and
// re-invoked whenever the coinbase changes (extra-nonce bump) per spec
// §4.5 step 3.
func BuildMerkleTreeStore(transactions []*wire.MsgTx) []*wire.ShaHash {
	nextPoT := nextPowerOfTwo(len(transactions))
	arraySize := nextPoT*2 - 1
	merkles := make([]*wire.ShaHash, arraySize)

	for i, tx := range transactions {
		txHash := tx.TxSha()
		merkles[i] = &txHash
	}

	offset := nextPoT
	for i := 0; i < arraySize-offset; i += 2 {
		switch {
		case merkles[i] == nil:
			merkles[offset] = nil
		case merkles[i+1] == nil:
			newHash := hashMerkleBranches(merkles[i], merkles[i])
			merkles[offset] = newHash
		default:
			newHash := hashMerkleBranches(merkles[i], merkles[i+1])
			merkles[offset] = newHash
		}
		offset++
	}

	return merkles
}
