package crypto

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
)

// seqMask derives the fixed 8-byte XOR mask a session uses to hide its
// sequence numbers from a passive observer. The mask comes from a
// chacha20 keystream generated under the zero nonce and the cipher's
// initial counter, keyed by the session's direction-specific
// sequence-obfuscation key — it does not depend on seq itself. A mask
// derived from seq would be unrecoverable by a receiver who has only
// ever seen the obfuscated value and not the real sequence number; a
// mask derived from the key alone lets both sides recompute the same
// bytes independently.
func seqMask(key [32]byte) uint64 {
	cipher, err := chacha20.NewUnauthenticatedCipher(key[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		// key is always exactly chacha20.KeySize (32) bytes; the only
		// error NewUnauthenticatedCipher returns is a bad key/nonce length.
		panic("crypto: seqMask: " + err.Error())
	}
	var mask [8]byte
	cipher.XORKeyStream(mask[:], mask[:])
	return binary.BigEndian.Uint64(mask[:])
}

// ObfuscateSequence maps a send sequence number to its obfuscated wire
// value by XORing it against the key's fixed mask. XOR against a
// constant is its own inverse, so this is a bijection on uint64 for
// any key and DeobfuscateSequence is the identical operation.
func ObfuscateSequence(seq uint64, key [32]byte) uint64 {
	return seq ^ seqMask(key)
}

// DeobfuscateSequence is the exact inverse of ObfuscateSequence.
func DeobfuscateSequence(obf uint64, key [32]byte) uint64 {
	return obf ^ seqMask(key)
}
