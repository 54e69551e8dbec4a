// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txscript supplies the small script-construction surface the
// Template Builder (C4) needs: coinbase scriptSig encoding (height +
// extra-nonce + flags) and standard pay-to-address scriptPubKey
// construction. Grounded on chainmaker/genesisblock.go's call pattern
// (txscript.NewScriptBuilder().AddInt64(...).AddData(...).Script(),
// txscript.OP_TRUE, txscript.PayToAddrScript) — the only contract the
// retrieved pack exercises against this package.
package txscript

import (
	"errors"
	"fmt"

	"github.com/coinstack/btcutil"
)

// Standard opcodes used by this package's script construction helpers.
const (
	OP_0           = 0x00
	OP_DATA_1      = 0x01
	OP_DATA_75     = 0x4b
	OP_PUSHDATA1   = 0x4c
	OP_PUSHDATA2   = 0x4d
	OP_PUSHDATA4   = 0x4e
	OP_1NEGATE     = 0x4f
	OP_TRUE        = 0x51
	OP_RETURN      = 0x6a
	OP_DUP         = 0x76
	OP_EQUAL       = 0x87
	OP_EQUALVERIFY = 0x88
	OP_HASH160     = 0xa9
	OP_CHECKSIG    = 0xac
)

// MaxScriptElementSize is the maximum allowed length of a data push.
const MaxScriptElementSize = 520

// ErrScriptNotCanonical describes a script that would exceed the
// consensus-enforced script limits.  ScriptBuilder does not return it;
// AddData reports an oversized push with its own error.
var ErrScriptNotCanonical = errors.New("adding data would exceed maximum script size")

// ScriptBuilder provides a facility for building custom scripts.  It
// allows you to push opcodes, ints, and data while respecting canonical
// encoding.  In general it does not ensure the script will execute
// correctly, nor that the script is canonical as far as its purpose, only
// that the pieces that are added are canonically encoded.
type ScriptBuilder struct {
	script []byte
	err    error
}

// NewScriptBuilder returns a new instance of a script builder.
func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{
		script: make([]byte, 0, 500),
	}
}

// AddOp pushes the passed opcode to the end of the script.
func (b *ScriptBuilder) AddOp(opcode byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	b.script = append(b.script, opcode)
	return b
}

// AddInt64 pushes the passed integer to the end of the script using the
// canonical minimal-encoding script-number representation (matching
// CScriptNum / CBigNum push semantics used for block-height and
// extra-nonce encoding in a coinbase scriptSig).
func (b *ScriptBuilder) AddInt64(val int64) *ScriptBuilder {
	if b.err != nil {
		return b
	}

	// Fast path for small integers that have direct opcode
	// representations.
	if val == 0 {
		b.script = append(b.script, OP_0)
		return b
	}
	if val == -1 || (val >= 1 && val <= 16) {
		b.script = append(b.script, byte((OP_TRUE-1)+val))
		return b
	}

	return b.AddData(serializeScriptNum(val))
}

// AddData pushes the passed data to the end of the script, using the
// smallest possible canonical push opcode for its length.
func (b *ScriptBuilder) AddData(data []byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}

	dataLen := len(data)
	if dataLen > MaxScriptElementSize {
		b.err = fmt.Errorf("adding %d bytes of data would exceed "+
			"maximum script element size of %d", dataLen, MaxScriptElementSize)
		return b
	}

	b.addDataPushOpcode(dataLen)
	b.script = append(b.script, data...)
	return b
}

func (b *ScriptBuilder) addDataPushOpcode(dataLen int) {
	switch {
	case dataLen < OP_PUSHDATA1:
		b.script = append(b.script, byte(dataLen))
	case dataLen <= 0xff:
		b.script = append(b.script, OP_PUSHDATA1, byte(dataLen))
	case dataLen <= 0xffff:
		buf := []byte{OP_PUSHDATA2, byte(dataLen), byte(dataLen >> 8)}
		b.script = append(b.script, buf...)
	default:
		buf := []byte{
			OP_PUSHDATA4,
			byte(dataLen), byte(dataLen >> 8),
			byte(dataLen >> 16), byte(dataLen >> 24),
		}
		b.script = append(b.script, buf...)
	}
}

// Script returns the currently built script.  When any errors occurred
// while building the script, the script will be returned up to the point
// of the first error along with the error.
func (b *ScriptBuilder) Script() ([]byte, error) {
	return b.script, b.err
}

// Reset resets the script so it has no content.
func (b *ScriptBuilder) Reset() *ScriptBuilder {
	b.script = b.script[:0]
	b.err = nil
	return b
}

// serializeScriptNum encodes n using the minimal little-endian
// sign-magnitude representation Bitcoin script numbers use.
func serializeScriptNum(n int64) []byte {
	if n == 0 {
		return nil
	}

	negative := n < 0
	absVal := n
	if negative {
		absVal = -n
	}

	result := make([]byte, 0, 9)
	for absVal > 0 {
		result = append(result, byte(absVal&0xff))
		absVal >>= 8
	}

	// If the most significant byte already has the high bit set, a
	// sign byte must be added to avoid being interpreted as negative.
	if result[len(result)-1]&0x80 != 0 {
		extraByte := byte(0x00)
		if negative {
			extraByte = 0x80
		}
		result = append(result, extraByte)
	} else if negative {
		result[len(result)-1] |= 0x80
	}

	return result
}

// PayToAddrScript creates a new script to pay a transaction output to the
// specified address.
func PayToAddrScript(addr btcutil.Address) ([]byte, error) {
	if addr == nil {
		return nil, errors.New("unable to generate payment script for nil address")
	}

	switch a := addr.(type) {
	case *btcutil.AddressPubKeyHash:
		if a == nil {
			return nil, errors.New("unable to generate payment script for nil AddressPubKeyHash")
		}
		hash := a.Hash160()
		return NewScriptBuilder().
			AddOp(OP_DUP).
			AddOp(OP_HASH160).
			AddData(hash[:]).
			AddOp(OP_EQUALVERIFY).
			AddOp(OP_CHECKSIG).
			Script()

	case *btcutil.AddressScriptHash:
		if a == nil {
			return nil, errors.New("unable to generate payment script for nil AddressScriptHash")
		}
		hash := a.Hash160()
		return NewScriptBuilder().
			AddOp(OP_HASH160).
			AddData(hash[:]).
			AddOp(OP_EQUAL).
			Script()

	default:
		return nil, fmt.Errorf("unable to generate payment script for unsupported address type %T", a)
	}
}
