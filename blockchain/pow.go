// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"time"

	"golang.org/x/crypto/scrypt"

	"github.com/coinstack/scryptminer/chaincfg"
	"github.com/coinstack/scryptminer/wire"
)

// Header Hasher (C1) parameters: N=1024, r=1, p=1, 256-bit output,
// matching original_source/src/miner.cpp's scrypt_1024_1_1_256 call.
const (
	scryptN = 1024
	scryptR = 1
	scryptP = 1
)

// HeaderHasher is the chain-parameterised pure function that turns an
// 80-byte block header into a 256-bit proof-of-work digest (C1). Making
// it a collaborator value rather than a hardcoded call lets a caller
// substitute a different algorithm, per spec §9's note about the
// commented-out SHA-256 path in the source.
type HeaderHasher func(header *wire.BlockHeader) (wire.ShaHash, error)

// ScryptHeaderHash is the default HeaderHasher: scrypt(N=1024, r=1, p=1)
// over the canonical 80-byte header serialization, output reinterpreted
// as a ShaHash for target comparison.
func ScryptHeaderHash(header *wire.BlockHeader) (wire.ShaHash, error) {
	var buf [wire.BlockHeaderLen]byte
	headerBytes, err := serializeHeader(header)
	if err != nil {
		return wire.ShaHash{}, err
	}
	copy(buf[:], headerBytes)

	digest, err := scrypt.Key(buf[:], buf[:], scryptN, scryptR, scryptP, wire.HashSize)
	if err != nil {
		return wire.ShaHash{}, err
	}
	var hash wire.ShaHash
	copy(hash[:], digest)
	return hash, nil
}

func serializeHeader(header *wire.BlockHeader) ([]byte, error) {
	var b headerByteBuffer
	if err := header.Serialize(&b); err != nil {
		return nil, err
	}
	return b.buf, nil
}

// headerByteBuffer is a minimal io.Writer so serializeHeader doesn't need
// to import bytes.Buffer just for this one call site.
type headerByteBuffer struct {
	buf []byte
}

func (b *headerByteBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// bigOne is 1 represented as a big.Int.  It is defined here to avoid the
// overhead of creating it multiple times.
var bigOne = big.NewInt(1)

// CompactToBig converts a compact representation of a whole number N,
// held in an unsigned 32-bit number, to a big integer.  The
// representation is similar to IEEE754 floating point numbers.
//
// Like IEEE754 floating point, there are three basic components: the
// sign, the exponent, and the mantissa.  They are broken out as follows:
//
//   - the most significant 8 bits represent the unsigned base 256 exponent
//   - bit 23 (the 24th bit) represents the sign bit
//   - the least significant 23 bits represent the mantissa
//
//	-------------------------------------------------
//	|   Exponent     |    Sign    |    Mantissa     |
//	-------------------------------------------------
//	| 8 bits [31-24] | 1 bit [23] |  23 bits [22-00] |
//	-------------------------------------------------
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	if isNegative {
		bn = bn.Neg(bn)
	}

	return bn
}

// BigToCompact converts a whole number N to a compact representation
// using an unsigned 32-bit number. The compact representation only
// provides 23 bits of precision, so values larger than (2^23 - 1) only
// encode the most significant digits of the number.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(n.Bytes()))

	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent<<24) | mantissa
	if n.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}

// HashToBig converts a ShaHash into a big.Int that can be used to
// perform math comparisons.
func HashToBig(hash *wire.ShaHash) *big.Int {
	buf := *hash
	blen := len(buf)
	for i := 0; i < blen/2; i++ {
		buf[i], buf[blen-1-i] = buf[blen-1-i], buf[i]
	}
	return new(big.Int).SetBytes(buf[:])
}

// ShaHashToBig is an alias of HashToBig retained for parity with the
// call spelling chainmaker/genesisblock.go uses.
func ShaHashToBig(hash *wire.ShaHash) *big.Int {
	return HashToBig(hash)
}

// CalcWork calculates a work value from difficulty bits.  Bitcoin uses
// this value for calculating total chain work performed.
func CalcWork(bits uint32) *big.Int {
	difficultyNum := CompactToBig(bits)
	if difficultyNum.Sign() <= 0 {
		return big.NewInt(0)
	}

	denominator := new(big.Int).Add(difficultyNum, bigOne)
	return new(big.Int).Div(oneLsh256, denominator)
}

var oneLsh256 = new(big.Int).Lsh(bigOne, 256)

// GetNextWorkRequired computes the required proof-of-work target
// (compact bits) for the block following prevBits/prevTimestamp, given
// actualTimespan (the wall-clock span of the last retarget window). This
// is the local implementation of the chain-state collaborator's
// getNextWorkRequired contract (spec §6) used by the Template Builder.
func GetNextWorkRequired(prevBits uint32, actualTimespan time.Duration, params *chaincfg.Params) uint32 {
	minTimespan := int64(params.TargetTimespan) / int64(params.RetargetAdjustmentFactor)
	maxTimespan := int64(params.TargetTimespan) * int64(params.RetargetAdjustmentFactor)

	adjustedTimespan := int64(actualTimespan)
	if adjustedTimespan < minTimespan {
		adjustedTimespan = minTimespan
	} else if adjustedTimespan > maxTimespan {
		adjustedTimespan = maxTimespan
	}

	newTarget := CompactToBig(prevBits)
	newTarget.Mul(newTarget, big.NewInt(adjustedTimespan))
	newTarget.Div(newTarget, big.NewInt(int64(params.TargetTimespan)))

	if newTarget.Cmp(params.PowLimit) > 0 {
		newTarget.Set(params.PowLimit)
	}

	return BigToCompact(newTarget)
}
