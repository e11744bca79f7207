package crypto

import (
	"crypto/rand"
	mathrand "math/rand/v2"
	"testing"
)

// TestSeqObf_Bijection checks, by sampling rather than exhaustively
// all 2^64 inputs isn't practical, so this checks a deterministic
// pseudo-random sample plus the documented edge cases.
func TestSeqObf_Bijection(t *testing.T) {
	var key [32]byte
	_, _ = rand.Read(key[:])

	edge := []uint64{0, 1, 255, 256, 65535, 65536, 0x7FFFFFFFFFFFFFFF, 0xFFFFFFFFFFFFFFFF}
	rng := mathrand.New(mathrand.NewPCG(1, 2))
	samples := make([]uint64, 0, 2048+len(edge))
	samples = append(samples, edge...)
	for i := 0; i < 2048; i++ {
		samples = append(samples, rng.Uint64())
	}

	seen := make(map[uint64]uint64, len(samples))
	for _, seq := range samples {
		obf := ObfuscateSequence(seq, key)
		back := DeobfuscateSequence(obf, key)
		if back != seq {
			t.Fatalf("seq=%#x -> obf=%#x -> back=%#x, want %#x", seq, obf, back, seq)
		}
		if prev, ok := seen[obf]; ok && prev != seq {
			t.Fatalf("collision: seq=%#x and seq=%#x both map to obf=%#x", prev, seq, obf)
		}
		seen[obf] = seq
	}
}

func TestSeqObf_DifferentKeysDivergeObfuscation(t *testing.T) {
	var k1, k2 [32]byte
	_, _ = rand.Read(k1[:])
	_, _ = rand.Read(k2[:])
	const seq = uint64(424242)
	if ObfuscateSequence(seq, k1) == ObfuscateSequence(seq, k2) {
		t.Fatal("different keys should (overwhelmingly likely) diverge")
	}
}

// TestSeqEncoding_BigEndian confirms BuildNonce encodes the sequence
// number big-endian: under an all-zero prefix the nonce's low 8 bytes
// are exactly that encoding.
func TestSeqEncoding_BigEndian(t *testing.T) {
	var buf [8]byte
	seq := uint64(0x0102030405060708)
	nonce := BuildNonce([AeadNonceLen]byte{}, seq)
	copy(buf[:], nonce[4:])
	want := [8]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	if buf != want {
		t.Fatalf("big-endian encoding mismatch: got %x want %x", buf, want)
	}
}
