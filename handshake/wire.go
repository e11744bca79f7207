// Package handshake implements the two-message INIT/RESPONSE exchange
// that establishes per-session keys: a fixed PSK-authenticated,
// clock-bound wire format carrying the ephemeral public keys and
// nonces the session key schedule derives from.
package handshake

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/veilvpn/veil-core/errs"
)

const (
	Magic   = "VEIL"
	Version = 0x01

	TypeInit     = 0x01
	TypeResponse = 0x02

	initWireLen     = 4 + 1 + 1 + 32 + 16 + 8 + 16 // 78
	responseWireLen = 4 + 1 + 1 + 32 + 16 + 8 + 8 + 16 // 86
)

// Init is the INIT message (initiator -> responder).
type Init struct {
	ClientPub   [32]byte
	ClientNonce [16]byte
	TimestampMs uint64
	PskTag      [16]byte
}

// Response is the RESPONSE message (responder -> initiator).
type Response struct {
	ServerPub   [32]byte
	ServerNonce [16]byte
	SessionID   uint64
	TimestampMs uint64
	PskTag      [16]byte
}

func nowMs() uint64 { return uint64(time.Now().UnixMilli()) }

// initTagInput builds the bytes covered by psk_tag in an INIT message.
func initTagInput(clientPub [32]byte, clientNonce [16]byte, ts uint64) []byte {
	buf := make([]byte, 0, initWireLen-16)
	buf = append(buf, Magic...)
	buf = append(buf, Version, TypeInit)
	buf = append(buf, clientPub[:]...)
	buf = append(buf, clientNonce[:]...)
	var tsb [8]byte
	binary.BigEndian.PutUint64(tsb[:], ts)
	return append(buf, tsb[:]...)
}

// EncodeInit serializes an INIT for clientPub/clientNonce, stamped with
// the current time, and appends its psk_tag under psk.
func EncodeInit(clientPub [32]byte, clientNonce [16]byte, psk [32]byte) []byte {
	ts := nowMs()
	tag := pskTag(psk, initTagInput(clientPub, clientNonce, ts))

	out := initTagInput(clientPub, clientNonce, ts)
	return append(out, tag[:]...)
}

// DecodeInit parses and authenticates an INIT message. It rejects bad
// magic/version/type/tag without distinguishing which check failed to
// the network; the Kind on the returned error is for local logging
// only.
func DecodeInit(data []byte, psk [32]byte, maxClockSkew time.Duration, allowPrerelease bool) (Init, error) {
	if len(data) != initWireLen {
		return Init{}, errs.New("handshake: bad INIT length").WithKind(errs.HandshakeReject)
	}
	if string(data[0:4]) != Magic {
		return Init{}, errs.New("handshake: bad magic").WithKind(errs.HandshakeReject)
	}
	if data[4] != Version && !allowPrerelease {
		return Init{}, errs.New("handshake: unsupported version").WithKind(errs.HandshakeReject)
	}
	if data[5] != TypeInit {
		return Init{}, errs.New("handshake: bad type").WithKind(errs.HandshakeReject)
	}

	var hs Init
	copy(hs.ClientPub[:], data[6:38])
	copy(hs.ClientNonce[:], data[38:54])
	hs.TimestampMs = binary.BigEndian.Uint64(data[54:62])
	copy(hs.PskTag[:], data[62:78])

	wantTag := pskTag(psk, initTagInput(hs.ClientPub, hs.ClientNonce, hs.TimestampMs))
	if !hmac.Equal(wantTag[:], hs.PskTag[:]) {
		return Init{}, errs.New("handshake: psk tag mismatch").WithKind(errs.HandshakeReject)
	}
	if skew := timeSkew(hs.TimestampMs); skew > maxClockSkew || skew < -maxClockSkew {
		return Init{}, errs.New("handshake: clock skew exceeded").WithKind(errs.HandshakeReject)
	}
	return hs, nil
}

// responseTagInput builds the bytes covered by psk_tag in a RESPONSE
// message: the wire fields preceding the tag, plus client_nonce (not
// itself transmitted in RESPONSE).
func responseTagInput(serverPub [32]byte, serverNonce [16]byte, sessionID uint64, ts uint64, clientNonce [16]byte) []byte {
	buf := make([]byte, 0, responseWireLen-16+16)
	buf = append(buf, Magic...)
	buf = append(buf, Version, TypeResponse)
	buf = append(buf, serverPub[:]...)
	buf = append(buf, serverNonce[:]...)
	var sid, tsb [8]byte
	binary.BigEndian.PutUint64(sid[:], sessionID)
	binary.BigEndian.PutUint64(tsb[:], ts)
	buf = append(buf, sid[:]...)
	buf = append(buf, tsb[:]...)
	return append(buf, clientNonce[:]...)
}

// EncodeResponse serializes a RESPONSE for the INIT identified by
// clientNonce.
func EncodeResponse(serverPub [32]byte, serverNonce [16]byte, sessionID uint64, clientNonce [16]byte, psk [32]byte) []byte {
	ts := nowMs()
	tag := pskTag(psk, responseTagInput(serverPub, serverNonce, sessionID, ts, clientNonce))

	out := make([]byte, 0, responseWireLen)
	out = append(out, Magic...)
	out = append(out, Version, TypeResponse)
	out = append(out, serverPub[:]...)
	out = append(out, serverNonce[:]...)
	var sid, tsb [8]byte
	binary.BigEndian.PutUint64(sid[:], sessionID)
	binary.BigEndian.PutUint64(tsb[:], ts)
	out = append(out, sid[:]...)
	out = append(out, tsb[:]...)
	return append(out, tag[:]...)
}

// DecodeResponse parses and authenticates a RESPONSE, given the
// clientNonce from the INIT this RESPONSE is expected to answer.
func DecodeResponse(data []byte, clientNonce [16]byte, psk [32]byte, maxClockSkew time.Duration, allowPrerelease bool) (Response, error) {
	if len(data) != responseWireLen {
		return Response{}, errs.New("handshake: bad RESPONSE length").WithKind(errs.HandshakeReject)
	}
	if string(data[0:4]) != Magic {
		return Response{}, errs.New("handshake: bad magic").WithKind(errs.HandshakeReject)
	}
	if data[4] != Version && !allowPrerelease {
		return Response{}, errs.New("handshake: unsupported version").WithKind(errs.HandshakeReject)
	}
	if data[5] != TypeResponse {
		return Response{}, errs.New("handshake: bad type").WithKind(errs.HandshakeReject)
	}

	var resp Response
	copy(resp.ServerPub[:], data[6:38])
	copy(resp.ServerNonce[:], data[38:54])
	resp.SessionID = binary.BigEndian.Uint64(data[54:62])
	resp.TimestampMs = binary.BigEndian.Uint64(data[62:70])
	copy(resp.PskTag[:], data[70:86])

	if resp.SessionID == 0 {
		return Response{}, errs.New("handshake: zero session id").WithKind(errs.HandshakeReject)
	}

	wantTag := pskTag(psk, responseTagInput(resp.ServerPub, resp.ServerNonce, resp.SessionID, resp.TimestampMs, clientNonce))
	if !hmac.Equal(wantTag[:], resp.PskTag[:]) {
		return Response{}, errs.New("handshake: psk tag mismatch").WithKind(errs.HandshakeReject)
	}
	if skew := timeSkew(resp.TimestampMs); skew > maxClockSkew || skew < -maxClockSkew {
		return Response{}, errs.New("handshake: clock skew exceeded").WithKind(errs.HandshakeReject)
	}
	return resp, nil
}

func pskTag(psk [32]byte, input []byte) [16]byte {
	mac := hmac.New(sha256.New, psk[:])
	mac.Write(input)
	sum := mac.Sum(nil)
	var tag [16]byte
	copy(tag[:], sum[:16])
	return tag
}

func timeSkew(tsMs uint64) time.Duration {
	now := time.Now().UnixMilli()
	return time.Duration(now-int64(tsMs)) * time.Millisecond
}

// SessionInfo builds the info-string for the key schedule: the
// caller-supplied domain separator (an opaque, possibly-empty "info")
// followed by client_nonce || server_nonce || session_id, so the
// derived keys are bound to both the caller's chosen context and the
// specific handshake that negotiated them.
func SessionInfo(callerInfo []byte, clientNonce, serverNonce [16]byte, sessionID uint64) []byte {
	out := append([]byte{}, callerInfo...)
	out = append(out, clientNonce[:]...)
	out = append(out, serverNonce[:]...)
	var sid [8]byte
	binary.BigEndian.PutUint64(sid[:], sessionID)
	return append(out, sid[:]...)
}
