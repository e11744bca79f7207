package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/veilvpn/veil-core/errs"
)

const (
	sessionInfoSuffix = "veil-session-v1"
	seqObfInfoSuffix  = "veil-seqobf-v1"

	sessionBlockLen = 2*AeadKeyLen + 2*AeadNonceLen // 32+32+12+12 = 88
	seqObfBlockLen  = 2 * AeadKeyLen                // 32+32 = 64
)

// SessionKeys holds the six values derived once at handshake
// completion and never mutated for the life of a session.
type SessionKeys struct {
	SendKey         [AeadKeyLen]byte
	RecvKey         [AeadKeyLen]byte
	SendNoncePrefix [AeadNonceLen]byte
	RecvNoncePrefix [AeadNonceLen]byte
	SendSeqObfKey   [32]byte
	RecvSeqObfKey   [32]byte
}

// DeriveSessionKeys runs a single HKDF extract (salt=psk, ikm=shared)
// and two expands — one producing the A/B/NA/NB AEAD block, one
// producing the two sequence-obfuscation keys — then assigns send/recv
// by role. Assignment by role is what guarantees initiator.send ==
// responder.recv (and vice versa) by construction: both sides compute
// the identical A/B/NA/NB/OA/OB block and merely swap which half is
// "send".
func DeriveSessionKeys(shared, psk [32]byte, info []byte, isInitiator bool) (SessionKeys, error) {
	extractor := hkdf.Extract(sha256.New, shared[:], psk[:])

	sessionInfo := append(append([]byte{}, info...), sessionInfoSuffix...)
	block, err := hkdfExpand(extractor, sessionInfo, sessionBlockLen)
	if err != nil {
		return SessionKeys{}, err
	}

	obfInfo := append(append([]byte{}, info...), seqObfInfoSuffix...)
	obfBlock, err := hkdfExpand(extractor, obfInfo, seqObfBlockLen)
	if err != nil {
		return SessionKeys{}, err
	}

	var a, b [AeadKeyLen]byte
	var na, nb [AeadNonceLen]byte
	copy(a[:], block[0:32])
	copy(b[:], block[32:64])
	copy(na[:], block[64:76])
	copy(nb[:], block[76:88])

	var oa, ob [32]byte
	copy(oa[:], obfBlock[0:32])
	copy(ob[:], obfBlock[32:64])

	var keys SessionKeys
	if isInitiator {
		keys.SendKey, keys.RecvKey = a, b
		keys.SendNoncePrefix, keys.RecvNoncePrefix = na, nb
		keys.SendSeqObfKey, keys.RecvSeqObfKey = oa, ob
	} else {
		keys.SendKey, keys.RecvKey = b, a
		keys.SendNoncePrefix, keys.RecvNoncePrefix = nb, na
		keys.SendSeqObfKey, keys.RecvSeqObfKey = ob, oa
	}
	return keys, nil
}

// hkdfExpand runs HKDF-Expand against an already-extracted PRK,
// reusing the extractor bytes as the "secret" argument the way
// x/crypto/hkdf.Expand expects (it treats its first argument as PRK,
// not IKM, when called this way).
func hkdfExpand(prk []byte, info []byte, n int) ([]byte, error) {
	r := hkdf.Expand(sha256.New, prk, info)
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, errs.New("kdf: expand failed").Base(err)
	}
	return out, nil
}
