package handshake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInit_EncodeDecode_RoundTrip(t *testing.T) {
	psk := [32]byte{1, 2, 3}
	var pub [32]byte
	var nonce [16]byte
	copy(pub[:], []byte("client-public-key-material-3232x"))
	copy(nonce[:], []byte("client-nonce-16b"))

	wire := EncodeInit(pub, nonce, psk)
	hs, err := DecodeInit(wire, psk, time.Minute, false)
	require.NoError(t, err)
	require.Equal(t, pub, hs.ClientPub)
	require.Equal(t, nonce, hs.ClientNonce)
}

func TestInit_DecodeRejectsWrongPsk(t *testing.T) {
	psk := [32]byte{1, 2, 3}
	wrongPsk := [32]byte{9, 9, 9}
	var pub [32]byte
	var nonce [16]byte

	wire := EncodeInit(pub, nonce, psk)
	_, err := DecodeInit(wire, wrongPsk, time.Minute, false)
	require.Error(t, err)
}

func TestInit_DecodeRejectsBadMagic(t *testing.T) {
	psk := [32]byte{1, 2, 3}
	var pub [32]byte
	var nonce [16]byte
	wire := EncodeInit(pub, nonce, psk)
	wire[0] ^= 0xFF
	_, err := DecodeInit(wire, psk, time.Minute, false)
	require.Error(t, err)
}

func TestInit_DecodeRejectsStaleTimestamp(t *testing.T) {
	psk := [32]byte{1, 2, 3}
	var pub [32]byte
	var nonce [16]byte
	staleTs := nowMs() - uint64(2*time.Hour/time.Millisecond)
	tag := pskTag(psk, initTagInput(pub, nonce, staleTs))
	wire := append(initTagInput(pub, nonce, staleTs), tag[:]...)
	_, err := DecodeInit(wire, psk, time.Minute, false)
	require.Error(t, err)
}

func TestResponse_EncodeDecode_RoundTrip(t *testing.T) {
	psk := [32]byte{4, 5, 6}
	var serverPub [32]byte
	var serverNonce, clientNonce [16]byte
	copy(serverPub[:], []byte("server-public-key-material-3232x"))
	copy(serverNonce[:], []byte("server-nonce-16b"))
	copy(clientNonce[:], []byte("client-nonce-16b"))

	wire := EncodeResponse(serverPub, serverNonce, 42, clientNonce, psk)
	resp, err := DecodeResponse(wire, clientNonce, psk, time.Minute, false)
	require.NoError(t, err)
	require.Equal(t, serverPub, resp.ServerPub)
	require.Equal(t, serverNonce, resp.ServerNonce)
	require.Equal(t, uint64(42), resp.SessionID)
}

func TestResponse_DecodeRejectsWrongClientNonce(t *testing.T) {
	psk := [32]byte{4, 5, 6}
	var serverPub [32]byte
	var serverNonce, clientNonce, otherNonce [16]byte
	otherNonce[0] = 0xFF

	wire := EncodeResponse(serverPub, serverNonce, 42, clientNonce, psk)
	_, err := DecodeResponse(wire, otherNonce, psk, time.Minute, false)
	require.Error(t, err)
}

func TestResponse_DecodeRejectsZeroSessionID(t *testing.T) {
	psk := [32]byte{4, 5, 6}
	var serverPub [32]byte
	var serverNonce, clientNonce [16]byte

	wire := EncodeResponse(serverPub, serverNonce, 0, clientNonce, psk)
	_, err := DecodeResponse(wire, clientNonce, psk, time.Minute, false)
	require.Error(t, err)
}

func TestSessionInfo_BindsNoncesAndSessionID(t *testing.T) {
	var cn, sn [16]byte
	cn[0] = 1
	sn[0] = 2

	a := SessionInfo([]byte("domain"), cn, sn, 7)
	b := SessionInfo([]byte("domain"), cn, sn, 8)
	require.NotEqual(t, a, b)
}
