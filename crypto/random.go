package crypto

import "github.com/google/uuid"

// RandomNonce16 returns 16 bytes of CSPRNG randomness for use as a
// handshake client_nonce/server_nonce, drawn from google/uuid's
// random-v4 generator rather than a bare crypto/rand.Read.
func RandomNonce16() ([16]byte, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return [16]byte{}, err
	}
	return [16]byte(id), nil
}
