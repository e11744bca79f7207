package crypto

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/curve25519"

	"github.com/veilvpn/veil-core/errs"
)

// KeyPair is an X25519 static or ephemeral key pair.
type KeyPair struct {
	Private [32]byte
	Public  [32]byte
}

// GenerateKeyPair draws a fresh X25519 key pair from the system CSPRNG.
func GenerateKeyPair() (KeyPair, error) {
	var kp KeyPair
	if _, err := io.ReadFull(rand.Reader, kp.Private[:]); err != nil {
		return KeyPair{}, errs.New("dh: rng failure").Base(err)
	}
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return KeyPair{}, errs.New("dh: basepoint mult failed").Base(err)
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// X25519 computes the shared secret scalar*point. Returns an error if
// the result is the all-zero point (a low-order/invalid public key).
func X25519(secret, public [32]byte) ([32]byte, error) {
	shared, err := curve25519.X25519(secret[:], public[:])
	if err != nil {
		return [32]byte{}, errs.New("dh: scalar mult failed").WithKind(errs.HandshakeReject).Base(err)
	}
	var out [32]byte
	copy(out[:], shared)
	if out == ([32]byte{}) {
		return [32]byte{}, errs.New("dh: all-zero shared secret (invalid peer key)").WithKind(errs.HandshakeReject)
	}
	return out, nil
}
