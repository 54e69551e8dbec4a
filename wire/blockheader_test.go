// Copyright (c) 2016 BLOCKO INC.
package wire

import (
	"bytes"
	"testing"
	"time"
)

func TestBlockHeaderSerializeDeserializeRoundTrip(t *testing.T) {
	prev := ShaHash{0x01, 0x02, 0x03}
	merkle := ShaHash{0xaa, 0xbb, 0xcc}
	h := NewBlockHeader(4, &prev, &merkle, 0x1d00ffff, 12345)
	h.Timestamp = time.Unix(1_700_000_000, 0)

	var buf bytes.Buffer
	if err := h.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if buf.Len() != BlockHeaderLen {
		t.Fatalf("serialized length = %d, want %d", buf.Len(), BlockHeaderLen)
	}

	var got BlockHeader
	if err := got.Deserialize(&buf); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if got.Version != h.Version {
		t.Errorf("Version = %d, want %d", got.Version, h.Version)
	}
	if got.PrevBlock != h.PrevBlock {
		t.Errorf("PrevBlock mismatch")
	}
	if got.MerkleRoot != h.MerkleRoot {
		t.Errorf("MerkleRoot mismatch")
	}
	if !got.Timestamp.Equal(h.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, h.Timestamp)
	}
	if got.Bits != h.Bits {
		t.Errorf("Bits = %x, want %x", got.Bits, h.Bits)
	}
	if got.Nonce != h.Nonce {
		t.Errorf("Nonce = %d, want %d", got.Nonce, h.Nonce)
	}
}

func TestBlockHeaderSerializeSizeIsFixed(t *testing.T) {
	h := NewBlockHeader(1, &ShaHash{}, &ShaHash{}, 0, 0)
	if h.SerializeSize() != BlockHeaderLen {
		t.Errorf("SerializeSize() = %d, want %d", h.SerializeSize(), BlockHeaderLen)
	}
}

func TestBlockShaChangesWithNonce(t *testing.T) {
	h := NewBlockHeader(1, &ShaHash{}, &ShaHash{}, 0x1d00ffff, 0)
	first := h.BlockSha()
	h.Nonce = 1
	second := h.BlockSha()
	if first == second {
		t.Errorf("BlockSha should change when the nonce changes")
	}
}

func TestBlockShaDeterministic(t *testing.T) {
	h1 := NewBlockHeader(1, &ShaHash{0x1}, &ShaHash{0x2}, 0x1d00ffff, 7)
	h1.Timestamp = time.Unix(1_600_000_000, 0)
	h2 := *h1

	if h1.BlockSha() != h2.BlockSha() {
		t.Errorf("identical headers must hash identically")
	}
}

func TestBlockHeaderTimestampTruncatedToSeconds(t *testing.T) {
	h := NewBlockHeader(1, &ShaHash{}, &ShaHash{}, 0, 0)
	h.Timestamp = time.Unix(1_700_000_000, 500_000_000) // sub-second component

	var buf bytes.Buffer
	if err := h.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var got BlockHeader
	if err := got.Deserialize(&buf); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got.Timestamp.Unix() != 1_700_000_000 {
		t.Errorf("Timestamp.Unix() = %d, want 1700000000 (sub-second component dropped on the wire)",
			got.Timestamp.Unix())
	}
}
