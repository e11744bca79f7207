package crypto

// Zeroize overwrites b with zeros in place. Session.Close applies it,
// through ZeroizeSessionKeys, to a session's derived keys; handshake
// KeyPair private material is not passed through it.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroizeSessionKeys clears every derived key field of keys.
func ZeroizeSessionKeys(keys *SessionKeys) {
	Zeroize(keys.SendKey[:])
	Zeroize(keys.RecvKey[:])
	Zeroize(keys.SendNoncePrefix[:])
	Zeroize(keys.RecvNoncePrefix[:])
	Zeroize(keys.SendSeqObfKey[:])
	Zeroize(keys.RecvSeqObfKey[:])
}
