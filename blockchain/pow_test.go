// Copyright (c) 2016 BLOCKO INC.
package blockchain

import (
	"math/big"
	"testing"
	"time"

	"github.com/coinstack/scryptminer/chaincfg"
	"github.com/coinstack/scryptminer/wire"
)

func TestCompactToBigRoundTrip(t *testing.T) {
	tests := []uint32{
		0x1d00ffff,
		0x1b0404cb,
		0x207fffff,
		0x01003456,
		0x02008000,
	}
	for _, compact := range tests {
		n := CompactToBig(compact)
		got := BigToCompact(n)
		if got != compact {
			t.Errorf("BigToCompact(CompactToBig(%#08x)) = %#08x, want %#08x",
				compact, got, compact)
		}
	}
}

func TestCompactToBigKnownValues(t *testing.T) {
	// 0x1d00ffff is Bitcoin mainnet's genesis difficulty: mantissa 0x00ffff,
	// exponent 0x1d, so the target is 0x00ffff << (8*(0x1d-3)).
	got := CompactToBig(0x1d00ffff)
	want := new(big.Int).Lsh(big.NewInt(0x00ffff), 8*(0x1d-3))
	if got.Cmp(want) != 0 {
		t.Errorf("CompactToBig(0x1d00ffff) = %v, want %v", got, want)
	}
}

func TestHashToBigEndianness(t *testing.T) {
	var hash wire.ShaHash
	hash[0] = 0x01 // least-significant byte (wire store is little-endian)
	got := HashToBig(&hash)
	if got.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("HashToBig = %v, want 1", got)
	}
}

func TestShaHashToBigIsHashToBig(t *testing.T) {
	var hash wire.ShaHash
	hash[0] = 0xff
	if ShaHashToBig(&hash).Cmp(HashToBig(&hash)) != 0 {
		t.Errorf("ShaHashToBig and HashToBig disagree")
	}
}

func TestCalcWorkMonotonic(t *testing.T) {
	easy := CalcWork(0x1d00ffff)
	hard := CalcWork(0x1c00ffff)
	if hard.Cmp(easy) <= 0 {
		t.Errorf("work for a smaller target (%v) should exceed work for a larger one (%v)",
			hard, easy)
	}
}

func TestCalcWorkNonPositiveTarget(t *testing.T) {
	if got := CalcWork(0); got.Sign() != 0 {
		t.Errorf("CalcWork(0) = %v, want 0", got)
	}
}

func TestGetNextWorkRequiredClamping(t *testing.T) {
	params := &chaincfg.PrivateNetParams

	// An actualTimespan far below minTimespan must clamp to the same
	// result as minTimespan itself, per the RetargetAdjustmentFactor
	// bound.
	min := params.TargetTimespan / time.Duration(params.RetargetAdjustmentFactor)
	gotFast := GetNextWorkRequired(0x1d00ffff, time.Nanosecond, params)
	gotAtMin := GetNextWorkRequired(0x1d00ffff, min, params)
	if gotFast != gotAtMin {
		t.Errorf("sub-minimum actualTimespan did not clamp: got %#08x, want %#08x",
			gotFast, gotAtMin)
	}

	// A timespan far above maxTimespan must clamp the same way.
	max := params.TargetTimespan * time.Duration(params.RetargetAdjustmentFactor)
	gotSlow := GetNextWorkRequired(0x1d00ffff, 365*24*time.Hour, params)
	gotAtMax := GetNextWorkRequired(0x1d00ffff, max, params)
	if gotSlow != gotAtMax {
		t.Errorf("over-maximum actualTimespan did not clamp: got %#08x, want %#08x",
			gotSlow, gotAtMax)
	}
}

func TestGetNextWorkRequiredNeverExceedsPowLimit(t *testing.T) {
	params := &chaincfg.PrivateNetParams
	max := params.TargetTimespan * time.Duration(params.RetargetAdjustmentFactor)
	got := GetNextWorkRequired(params.PowLimitBits, max, params)
	if CompactToBig(got).Cmp(params.PowLimit) > 0 {
		t.Errorf("retargeted difficulty exceeds PowLimit")
	}
}

func TestScryptHeaderHashDeterministic(t *testing.T) {
	header := wire.NewBlockHeader(1, &wire.ShaHash{}, &wire.ShaHash{}, 0x1d00ffff, 0)
	h1, err := ScryptHeaderHash(header)
	if err != nil {
		t.Fatalf("ScryptHeaderHash: %v", err)
	}
	h2, err := ScryptHeaderHash(header)
	if err != nil {
		t.Fatalf("ScryptHeaderHash: %v", err)
	}
	if h1 != h2 {
		t.Errorf("ScryptHeaderHash is not deterministic for the same header")
	}

	header.Nonce = 1
	h3, err := ScryptHeaderHash(header)
	if err != nil {
		t.Fatalf("ScryptHeaderHash: %v", err)
	}
	if h1 == h3 {
		t.Errorf("ScryptHeaderHash did not change when the nonce changed")
	}
}
