// Package crypto composes the fixed primitive set this protocol uses —
// ChaCha20-Poly1305, X25519, HKDF-SHA-256 — into the session key
// schedule and the AEAD/obfuscation operations the rest of veil-core
// calls. It never chooses algorithms; it only wires well-vetted
// library implementations together.
package crypto

import (
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/veilvpn/veil-core/errs"
)

const (
	AeadKeyLen   = chacha20poly1305.KeySize   // 32
	AeadNonceLen = chacha20poly1305.NonceSize // 12
	AeadTagLen   = chacha20poly1305.Overhead  // 16
)

// Seal authenticates and encrypts plaintext under key/nonce/aad,
// returning ciphertext with the 16-byte tag appended.
func Seal(key, nonce, aad, plaintext []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

// Open verifies and decrypts ciphertextWithTag under key/nonce/aad.
// Any authentication failure — wrong key, tampered ciphertext,
// tampered aad, wrong nonce — is reported uniformly as
// errs.AeadAuthFail (a key of the wrong length is rejected earlier as
// errs.MalformedRecord); the caller must
// not distinguish why authentication failed, matching the silent-drop
// treatment the rest of this package gives malformed input.
func Open(key, nonce, aad, ciphertextWithTag []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ciphertextWithTag, aad)
	if err != nil {
		return nil, errs.New("aead open failed").WithKind(errs.AeadAuthFail).Base(err)
	}
	return pt, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != AeadKeyLen {
		return nil, errs.New("aead: bad key length").WithKind(errs.MalformedRecord)
	}
	return chacha20poly1305.New(key)
}

// BuildNonce constructs the 12-byte AEAD nonce for sequence seq under
// prefix, XORing seq (big-endian) into the low-order 8 bytes of
// prefix and leaving the high 4 bytes untouched.
func BuildNonce(prefix [AeadNonceLen]byte, seq uint64) [AeadNonceLen]byte {
	var nonce [AeadNonceLen]byte
	copy(nonce[:4], prefix[:4])
	for i := 0; i < 8; i++ {
		nonce[4+i] = prefix[4+i] ^ byte(seq>>(56-8*i))
	}
	return nonce
}
